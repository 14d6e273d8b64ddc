// Package dashboard provides the workforce overview screen.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/knowlearn/kldash/internal/services/dashboard"
	"github.com/knowlearn/kldash/internal/services/workforce"
	"github.com/knowlearn/kldash/internal/tui/components"
)

// OverviewSource computes the dashboard snapshot.
type OverviewSource interface {
	Overview(ctx context.Context) (*dashboard.Overview, error)
}

// RoleMixSource reports headcount per role.
type RoleMixSource interface {
	RoleMix(ctx context.Context) ([]workforce.RoleCount, error)
}

// LoadedMsg carries a freshly computed overview.
type LoadedMsg struct {
	Overview *dashboard.Overview
	RoleMix  []workforce.RoleCount
	Err      error
}

// View renders headline metrics, utilization and portfolio risk.
type View struct {
	overview OverviewSource
	roles    RoleMixSource
	styles   components.Styles
	timeout  time.Duration

	data    *dashboard.Overview
	mix     []workforce.RoleCount
	loading bool
	err     error
}

// New creates a dashboard view.
func New(overview OverviewSource, roles RoleMixSource, styles components.Styles) *View {
	return &View{
		overview: overview,
		roles:    roles,
		styles:   styles,
		timeout:  5 * time.Second,
	}
}

// Load returns a command that computes the overview.
func (v *View) Load() tea.Cmd {
	v.loading = true
	overview, roles, timeout := v.overview, v.roles, v.timeout

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		data, err := overview.Overview(ctx)
		if err != nil {
			return LoadedMsg{Err: err}
		}
		mix, err := roles.RoleMix(ctx)
		return LoadedMsg{Overview: data, RoleMix: mix, Err: err}
	}
}

// SetLoaded applies a load result.
func (v *View) SetLoaded(msg LoadedMsg) {
	v.loading = false
	v.err = msg.Err
	if msg.Err != nil {
		return
	}
	v.data = msg.Overview
	v.mix = msg.RoleMix
}

// Overview returns the last loaded snapshot.
func (v *View) Overview() *dashboard.Overview {
	return v.data
}

// Render renders the dashboard.
func (v *View) Render(width int) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== WORKFORCE OVERVIEW ==="))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n")
		return b.String()
	}
	if v.data == nil {
		b.WriteString(s.Muted.Render("Loading..."))
		return b.String()
	}

	d := v.data
	cardWidth := max(min((width-6)/4, 28), 20)

	outsourceNote := fmt.Sprintf("Within %.0f%% ceiling", dashboard.OutsourceCeiling)
	outsourceStyle := s.Success
	if !d.OutsourceWithinLimit() {
		outsourceNote = fmt.Sprintf("Above %.0f%% ceiling", dashboard.OutsourceCeiling)
		outsourceStyle = s.Warning
	}
	riskStyle := s.Muted
	if d.HighRiskCount > 0 {
		riskStyle = s.Warning
	}

	cards := []string{
		components.Card(s, "Total Workforce", fmt.Sprintf("%d", d.TotalPeople), fmt.Sprintf("Bench %.1f MM", d.BenchMM), s.Muted, cardWidth),
		components.Card(s, "Avg Utilization", fmt.Sprintf("%d%%", d.AvgUtilization), "Free capacity", s.Muted, cardWidth),
		components.Card(s, "Outsource Ratio", fmt.Sprintf("%.1f%%", d.OutsourceRatio), outsourceNote, outsourceStyle, cardWidth),
		components.Card(s, "High Risk", fmt.Sprintf("%d", d.HighRiskCount), "Flagged people", riskStyle, cardWidth),
	}
	b.WriteString(components.SideBySide(width, 1, cards...))
	b.WriteString("\n\n")

	panelWidth := max(min(width/2-1, 58), 40)
	barWidth := panelWidth - 30

	var util strings.Builder
	util.WriteString(components.LabeledBar(s, "Internal", float64(d.InternalUtilization), 12, barWidth, false))
	util.WriteString("\n")
	util.WriteString(components.LabeledBar(s, "External", float64(d.ExternalUtilization), 12, barWidth, false))
	util.WriteString("\n\n")
	util.WriteString(s.Section.Render("Role mix"))
	for _, rc := range v.mix {
		util.WriteString("\n")
		util.WriteString(s.LabelValue(rc.Role, fmt.Sprintf("%d", rc.Count), 12))
	}

	var risk strings.Builder
	risk.WriteString(s.Muted.Render(fmt.Sprintf("Average over %d open projects", d.OpenProjects)))
	for _, axis := range d.RiskRadar {
		risk.WriteString("\n")
		risk.WriteString(components.LabeledBar(s, axis.Name, axis.Value, 12, barWidth, true))
	}

	b.WriteString(components.SideBySide(width, 2,
		components.Panel(s, "Utilization", util.String(), panelWidth),
		components.Panel(s, "Project Risk", risk.String(), panelWidth),
	))
	b.WriteString("\n\n")

	b.WriteString(s.Section.Render("PARTNERS"))
	b.WriteString("  ")
	b.WriteString(s.LabelValue("Active contracts", fmt.Sprintf("%d", d.ActivePartners), 0))
	b.WriteString(s.Muted.Render("  |  "))
	b.WriteString(s.LabelValue("Available developers", fmt.Sprintf("%d", d.AvailablePartnerDev), 0))
	b.WriteString(s.Muted.Render("  |  "))
	b.WriteString(s.LabelValue("Avg rating", fmt.Sprintf("%.1f", d.PartnerRating), 0))

	return b.String()
}
