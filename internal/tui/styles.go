// Package tui provides the terminal user interface for kldash.
package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/knowlearn/kldash/internal/config"
	"github.com/knowlearn/kldash/internal/tui/components"
)

// Theme contains all style definitions for the TUI.
type Theme struct {
	// Colors (raw values for reference)
	PrimaryColor    lipgloss.Color
	SecondaryColor  lipgloss.Color
	AccentColor     lipgloss.Color
	BackgroundColor lipgloss.Color
	ErrorColor      lipgloss.Color
	WarningColor    lipgloss.Color
	SuccessColor    lipgloss.Color
	MutedColor      lipgloss.Color

	Base lipgloss.Style
	Bold lipgloss.Style

	// Color styles (for direct use)
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Accent    lipgloss.Style
	Error     lipgloss.Style
	Warning   lipgloss.Style
	Success   lipgloss.Style
	Muted     lipgloss.Style

	// Component styles
	Header    lipgloss.Style
	Footer    lipgloss.Style
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Box       lipgloss.Style
	Selected  lipgloss.Style
	Alert     lipgloss.Style
	AlertWarn lipgloss.Style
	AlertCrit lipgloss.Style

	// Module tabs in the header
	Tab       lipgloss.Style
	TabActive lipgloss.Style

	StatusDivider lipgloss.Style
}

// NewTheme creates a new theme based on the color scheme configuration.
func NewTheme(scheme config.ColorScheme) *Theme {
	switch scheme {
	case config.ColorSchemeAmber:
		return newAmberTheme()
	case config.ColorSchemeMono:
		return newMonoTheme()
	default:
		return newIndigoTheme()
	}
}

// newIndigoTheme matches the console's indigo brand colors.
func newIndigoTheme() *Theme {
	return buildTheme(palette{
		primary:    "#C7D2FE",
		secondary:  "#818CF8",
		accent:     "#A5B4FC",
		background: "#0F172A",
		muted:      "#4F46E5",
		err:        "#F87171",
		warning:    "#FBBF24",
		success:    "#34D399",
	})
}

func newAmberTheme() *Theme {
	return buildTheme(palette{
		primary:    "#FFAA00",
		secondary:  "#AA7700",
		accent:     "#FFCC66",
		background: "#000000",
		muted:      "#664400",
		err:        "#FF4444",
		warning:    "#FFFF00",
		success:    "#FFAA00",
	})
}

func newMonoTheme() *Theme {
	return buildTheme(palette{
		primary:    "#FFFFFF",
		secondary:  "#AAAAAA",
		accent:     "#FFFFFF",
		background: "#000000",
		muted:      "#666666",
		err:        "#FF4444",
		warning:    "#FFAA00",
		success:    "#00FF00",
	})
}

type palette struct {
	primary, secondary, accent, background, muted string
	err, warning, success                         string
}

func buildTheme(p palette) *Theme {
	primary := lipgloss.Color(p.primary)
	secondary := lipgloss.Color(p.secondary)
	accent := lipgloss.Color(p.accent)
	background := lipgloss.Color(p.background)
	muted := lipgloss.Color(p.muted)
	errorColor := lipgloss.Color(p.err)
	warningColor := lipgloss.Color(p.warning)
	successColor := lipgloss.Color(p.success)

	t := &Theme{
		PrimaryColor:    primary,
		SecondaryColor:  secondary,
		AccentColor:     accent,
		BackgroundColor: background,
		MutedColor:      muted,
		ErrorColor:      errorColor,
		WarningColor:    warningColor,
		SuccessColor:    successColor,
	}

	t.Base = lipgloss.NewStyle().Foreground(primary)
	t.Bold = t.Base.Bold(true)

	t.Primary = lipgloss.NewStyle().Foreground(primary)
	t.Secondary = lipgloss.NewStyle().Foreground(secondary)
	t.Accent = lipgloss.NewStyle().Foreground(accent)
	t.Error = lipgloss.NewStyle().Foreground(errorColor)
	t.Warning = lipgloss.NewStyle().Foreground(warningColor)
	t.Success = lipgloss.NewStyle().Foreground(successColor)
	t.Muted = lipgloss.NewStyle().Foreground(muted)

	t.Header = lipgloss.NewStyle().
		Foreground(primary).
		Bold(true).
		Padding(0, 1)

	t.Footer = lipgloss.NewStyle().
		Foreground(secondary).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(accent).
		Bold(true).
		Padding(0, 1)

	t.Subtitle = lipgloss.NewStyle().
		Foreground(primary).
		Padding(0, 1)

	t.Label = lipgloss.NewStyle().Foreground(secondary)
	t.Value = lipgloss.NewStyle().Foreground(primary)

	t.Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondary).
		Padding(0, 1)

	t.Selected = lipgloss.NewStyle().
		Foreground(background).
		Background(primary).
		Bold(true)

	t.Alert = lipgloss.NewStyle().Foreground(primary).Bold(true)
	t.AlertWarn = lipgloss.NewStyle().Foreground(warningColor).Bold(true)
	t.AlertCrit = lipgloss.NewStyle().Foreground(errorColor).Bold(true)

	t.Tab = lipgloss.NewStyle().Foreground(secondary).Padding(0, 1)
	t.TabActive = lipgloss.NewStyle().
		Foreground(background).
		Background(secondary).
		Bold(true).
		Padding(0, 1)

	t.StatusDivider = lipgloss.NewStyle().
		Foreground(muted).
		SetString(" │ ")

	return t
}

// Components returns the palette handed to components and views.
func (t *Theme) Components() components.Styles {
	return components.Styles{
		Title:         lipgloss.NewStyle().Foreground(t.AccentColor).Bold(true),
		Section:       lipgloss.NewStyle().Foreground(t.PrimaryColor).Bold(true),
		Label:         t.Label,
		Value:         t.Value,
		Focus:         lipgloss.NewStyle().Foreground(t.AccentColor).Bold(true),
		Muted:         t.Muted,
		Help:          t.Secondary,
		Error:         t.Error,
		Warning:       t.Warning,
		Success:       t.Success,
		Box:           t.Box,
		TableHeader:   lipgloss.NewStyle().Foreground(t.AccentColor).Bold(true),
		TableRow:      t.Primary,
		TableRowAlt:   t.Secondary,
		TableSelected: lipgloss.NewStyle().Background(t.SecondaryColor).Foreground(t.BackgroundColor),
		TableBorder:   t.Muted,
	}
}

// Box characters for drawing
const (
	BoxHorizontal       = "─"
	BoxDoubleHorizontal = "═"
)

// DrawHorizontalLine draws a horizontal line.
func (t *Theme) DrawHorizontalLine(width int) string {
	return t.Secondary.Render(strings.Repeat(BoxHorizontal, max(width, 0)))
}

// DrawDoubleLine draws a double horizontal line.
func (t *Theme) DrawDoubleLine(width int) string {
	return t.Primary.Render(strings.Repeat(BoxDoubleHorizontal, max(width, 0)))
}
