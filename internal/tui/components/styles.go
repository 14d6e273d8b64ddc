// Package components provides reusable TUI components.
package components

import "github.com/charmbracelet/lipgloss"

// Styles is the palette components and views render with. The tui package
// builds one from the active theme.
type Styles struct {
	Title   lipgloss.Style
	Section lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Focus   lipgloss.Style
	Muted   lipgloss.Style
	Help    lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Box     lipgloss.Style

	TableHeader   lipgloss.Style
	TableRow      lipgloss.Style
	TableRowAlt   lipgloss.Style
	TableSelected lipgloss.Style
	TableBorder   lipgloss.Style
}

// DefaultStyles returns the indigo palette.
func DefaultStyles() Styles {
	primary := lipgloss.Color("#C7D2FE")
	secondary := lipgloss.Color("#818CF8")
	accent := lipgloss.Color("#A5B4FC")
	muted := lipgloss.Color("#4F46E5")

	return Styles{
		Title:         lipgloss.NewStyle().Foreground(accent).Bold(true),
		Section:       lipgloss.NewStyle().Foreground(primary).Bold(true),
		Label:         lipgloss.NewStyle().Foreground(secondary),
		Value:         lipgloss.NewStyle().Foreground(primary),
		Focus:         lipgloss.NewStyle().Foreground(accent).Bold(true),
		Muted:         lipgloss.NewStyle().Foreground(muted),
		Help:          lipgloss.NewStyle().Foreground(secondary),
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171")),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBF24")),
		Success:       lipgloss.NewStyle().Foreground(lipgloss.Color("#34D399")),
		Box:           lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(secondary).Padding(0, 1),
		TableHeader:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		TableRow:      lipgloss.NewStyle().Foreground(primary),
		TableRowAlt:   lipgloss.NewStyle().Foreground(secondary),
		TableSelected: lipgloss.NewStyle().Background(secondary).Foreground(lipgloss.Color("#000000")),
		TableBorder:   lipgloss.NewStyle().Foreground(muted),
	}
}

// LabelValue renders a fixed-width label followed by a value.
func (s Styles) LabelValue(label, value string, labelWidth int) string {
	return s.Label.Width(labelWidth).Render(label) + " " + s.Value.Render(value)
}
