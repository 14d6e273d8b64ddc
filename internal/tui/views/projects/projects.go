// Package projects provides the project portfolio screen.
package projects

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/simulation"
	"github.com/knowlearn/kldash/internal/tui/components"
	"github.com/knowlearn/kldash/internal/util"
)

// Lister queries the portfolio.
type Lister interface {
	List(ctx context.Context, filter models.ProjectFilter, page models.Pagination) (*models.ProjectList, error)
}

// Suggester prefills a simulation for a project.
type Suggester interface {
	Suggest(ctx context.Context, projectID string) (simulation.Input, error)
}

// LoadedMsg carries one page of projects.
type LoadedMsg struct {
	List *models.ProjectList
	Err  error
}

// SuggestedMsg carries a simulation input prefilled for a project.
type SuggestedMsg struct {
	Project *models.Project
	Input   simulation.Input
	Err     error
}

var statusCycle = []*models.ProjectStatus{
	nil,
	statusPtr(models.ProjectPlanning),
	statusPtr(models.ProjectActive),
	statusPtr(models.ProjectCompleted),
}

func statusPtr(s models.ProjectStatus) *models.ProjectStatus { return &s }

// View lists projects with their staffing needs and risk.
type View struct {
	service   Lister
	suggester Suggester
	styles    components.Styles

	table    *components.Table
	projects []*models.Project
	status   int
	page     models.Pagination
	pages    int
	detail   bool

	loading bool
	err     error
}

// New creates a project view.
func New(service Lister, suggester Suggester, styles components.Styles) *View {
	columns := []components.Column{
		{Title: "ID", Width: 6, Priority: 10},
		{Title: "Project", MinWidth: 12, Weight: 2, Priority: 9},
		{Title: "Role", MinWidth: 8, Weight: 1, Priority: 6},
		{Title: "MM", Width: 4, Align: lipgloss.Right, Priority: 8},
		{Title: "Budget", Width: 16, Align: lipgloss.Right, Priority: 4},
		{Title: "Status", Width: 9, Priority: 7},
		{Title: "Risk", Width: 5, Align: lipgloss.Right, Priority: 5},
		{Title: "Start", Width: 10, Priority: 3},
	}

	table := components.NewTable(columns)
	table.SetStyles(styles)
	table.SetVisibleRows(15)
	table.Focus(true)

	return &View{
		service:   service,
		suggester: suggester,
		styles:    styles,
		table:     table,
		page:      models.Pagination{Page: 1, PageSize: 15},
	}
}

// Load returns a command that fetches the current page.
func (v *View) Load() tea.Cmd {
	v.loading = true
	service, page := v.service, v.page
	filter := models.ProjectFilter{Status: statusCycle[v.status]}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		list, err := service.List(ctx, filter, page)
		return LoadedMsg{List: list, Err: err}
	}
}

// SetLoaded applies a load result.
func (v *View) SetLoaded(msg LoadedMsg) {
	v.loading = false
	v.err = msg.Err
	if msg.Err != nil || msg.List == nil {
		return
	}

	v.projects = msg.List.Projects
	v.page.Page = msg.List.Page
	v.pages = msg.List.TotalPages

	rows := make([][]string, len(v.projects))
	for i, p := range v.projects {
		rows[i] = []string{
			p.ID,
			p.Name,
			p.RequiredRole,
			fmt.Sprintf("%d", p.RequiredMM),
			simulation.FormatKRW(float64(p.Budget)),
			string(p.Status),
			fmt.Sprintf("%.0f", p.Risks.Average()),
			util.FormatDate(p.StartDate),
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(msg.List.Page, msg.List.TotalPages, msg.List.Total)
}

// InDetail reports whether a project's detail is shown.
func (v *View) InDetail() bool {
	return v.detail
}

// StatusFilter returns the status shown, nil for all.
func (v *View) StatusFilter() *models.ProjectStatus {
	return statusCycle[v.status]
}

// HandleKey handles a key press. It returns a reload command when the
// query changed, or a suggestion command for "s".
func (v *View) HandleKey(key string) tea.Cmd {
	if key == "s" {
		return v.suggest()
	}

	if v.detail {
		if key == "esc" || key == "backspace" {
			v.detail = false
		}
		return nil
	}

	switch key {
	case "up", "k":
		v.table.MoveUp()
	case "down", "j":
		v.table.MoveDown()
	case "home":
		v.table.GoToTop()
	case "end":
		v.table.GoToBottom()
	case "enter":
		if v.Selected() != nil {
			v.detail = true
		}
	case "f":
		v.status = (v.status + 1) % len(statusCycle)
		v.page.Page = 1
		return v.Load()
	case "pgdown", "n":
		if v.page.Page < v.pages {
			v.page.Page++
			return v.Load()
		}
	case "pgup", "p":
		if v.page.Page > 1 {
			v.page.Page--
			return v.Load()
		}
	}
	return nil
}

func (v *View) suggest() tea.Cmd {
	project := v.Selected()
	if project == nil || v.suggester == nil {
		return nil
	}
	if !project.IsOpen() {
		return func() tea.Msg {
			return SuggestedMsg{Project: project, Err: fmt.Errorf("project %s is completed; nothing to staff", project.ID)}
		}
	}
	suggester := v.suggester

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		in, err := suggester.Suggest(ctx, project.ID)
		return SuggestedMsg{Project: project, Input: in, Err: err}
	}
}

// Selected returns the highlighted project.
func (v *View) Selected() *models.Project {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.projects) {
		return v.projects[idx]
	}
	return nil
}

// SetVisibleRows sets the number of visible table rows.
func (v *View) SetVisibleRows(n int) {
	v.table.SetVisibleRows(n)
}

// SetPageSize sets how many rows each page fetches.
func (v *View) SetPageSize(n int) {
	if n > 0 {
		v.page.PageSize = n
		v.page.Page = 1
	}
}

// Render renders the active screen of the view.
func (v *View) Render(width, height int) string {
	if v.detail {
		return v.RenderDetail(v.Selected(), width)
	}

	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== PROJECT PORTFOLIO ==="))
	b.WriteString("\n\n")

	status := models.FilterAll
	if st := v.StatusFilter(); st != nil {
		status = string(*st)
	}
	b.WriteString(s.LabelValue("Status:", status, 0))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading && v.table.Empty():
		b.WriteString(s.Muted.Render("Loading..."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(s.Muted.Render("No projects."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(s.Help.Render("↑↓:Nav  Enter:View  f:Status  s:Simulate"))
	} else {
		b.WriteString(s.Help.Render("Up/Down:Select  Enter:Details  f:Cycle status  s:Simulate staffing  PgUp/PgDn:Page"))
	}
	return b.String()
}

// RenderDetail renders a project with its risk profile.
func (v *View) RenderDetail(p *models.Project, width int) string {
	s := v.styles
	labelWidth := 16
	if p == nil {
		return s.Muted.Render("No project selected")
	}

	line := func(label, value string) string {
		return s.LabelValue(label+":", value, labelWidth) + "\n"
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("=== " + p.Name + " ==="))
	b.WriteString("\n\n")

	b.WriteString(s.Section.Render("STAFFING"))
	b.WriteString("\n")
	b.WriteString(line("ID", p.ID))
	b.WriteString(line("Status", string(p.Status)))
	b.WriteString(line("Required role", p.RequiredRole))
	b.WriteString(line("Required MM", fmt.Sprintf("%d", p.RequiredMM)))
	b.WriteString(line("Budget", simulation.FormatKRW(float64(p.Budget))))
	b.WriteString(line("Schedule", fmt.Sprintf("%s to %s (%d months)",
		util.FormatDate(p.StartDate), util.FormatDate(p.EndDate()), p.DurationMonths)))
	b.WriteString("\n")

	barWidth := min(max(width-40, 10), 40)
	var risk strings.Builder
	for i, axis := range p.Risks.Axes() {
		if i > 0 {
			risk.WriteString("\n")
		}
		risk.WriteString(components.LabeledBar(s, axis.Name, axis.Value, 10, barWidth, true))
	}
	risk.WriteString("\n")
	risk.WriteString(s.LabelValue("Average", fmt.Sprintf("%.1f", p.Risks.Average()), 10))
	b.WriteString(components.Panel(s, "Risk Profile", risk.String(), barWidth+24))
	b.WriteString("\n\n")

	b.WriteString(s.Help.Render("Esc:Back  s:Simulate staffing"))
	return b.String()
}
