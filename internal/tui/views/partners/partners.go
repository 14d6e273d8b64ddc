// Package partners provides the vendor directory screen.
package partners

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/services/partners"
	"github.com/knowlearn/kldash/internal/tui/components"
)

// Searcher queries partner companies.
type Searcher interface {
	Search(ctx context.Context, filter models.PartnerFilter, page models.Pagination) (*models.PartnerList, error)
}

// LoadedMsg carries one page of partners.
type LoadedMsg struct {
	List *models.PartnerList
	Err  error
}

type mode int

const (
	modeList mode = iota
	modeFilter
	modeDetail
)

// View lists partner companies with search and filters.
type View struct {
	service Searcher
	styles  components.Styles

	table    *components.Table
	partners []*models.Partner
	filter   models.PartnerFilter
	page     models.Pagination
	pages    int
	mode     mode

	form      *components.Form
	search    *components.Input
	specialty *components.Select
	tier      *components.Select
	status    *components.Select

	loading bool
	err     error
}

// New creates a partner view.
func New(service Searcher, styles components.Styles) *View {
	columns := []components.Column{
		{Title: "ID", Width: 6, Priority: 10},
		{Title: "Company", MinWidth: 12, Weight: 2, Priority: 9},
		{Title: "Specialty", MinWidth: 10, Weight: 1.5, Priority: 8},
		{Title: "Tier", Width: 18, Priority: 4},
		{Title: "Devs", Width: 4, Align: lipgloss.Right, Priority: 7},
		{Title: "Rating", Width: 6, Align: lipgloss.Right, Priority: 5},
		{Title: "Contract", Width: 8, Priority: 6},
	}

	table := components.NewTable(columns)
	table.SetStyles(styles)
	table.SetVisibleRows(15)
	table.Focus(true)

	opts := partners.FilterOptions()
	v := &View{
		service:   service,
		styles:    styles,
		table:     table,
		page:      models.Pagination{Page: 1, PageSize: 15},
		search:    components.NewInput("Search").SetPlaceholder("name or description").SetWidth(30),
		specialty: components.NewSelect("Specialty", opts.Specialties),
		tier:      components.NewSelect("Tier", opts.Tiers),
		status:    components.NewSelect("Contract", opts.Statuses),
	}

	v.form = components.NewForm("PARTNER SEARCH")
	v.form.SetStyles(styles)
	v.form.AddField(v.search).
		AddField(v.specialty).
		AddField(v.tier).
		AddField(v.status)
	return v
}

// Load returns a command that fetches the current page.
func (v *View) Load() tea.Cmd {
	v.loading = true
	service, filter, page := v.service, v.filter, v.page

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		list, err := service.Search(ctx, filter, page)
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

	v.partners = msg.List.Partners
	v.page.Page = msg.List.Page
	v.pages = msg.List.TotalPages

	rows := make([][]string, len(v.partners))
	for i, p := range v.partners {
		rows[i] = []string{
			p.ID,
			p.Name,
			p.Specialty,
			p.Tier,
			fmt.Sprintf("%d", p.AvailableDevelopers),
			fmt.Sprintf("%.1f", p.Rating),
			string(p.ContractStatus),
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(msg.List.Page, msg.List.TotalPages, msg.List.Total)
}

// Capturing reports whether the search form owns the keyboard.
func (v *View) Capturing() bool {
	return v.mode == modeFilter
}

// InDetail reports whether a partner's detail is shown.
func (v *View) InDetail() bool {
	return v.mode == modeDetail
}

// Filter returns the active filter.
func (v *View) Filter() models.PartnerFilter {
	return v.filter
}

// HandleKey handles a key press and returns a reload command when the
// query changed.
func (v *View) HandleKey(key string) tea.Cmd {
	switch v.mode {
	case modeFilter:
		return v.handleFilterKey(key)
	case modeDetail:
		if key == "esc" || key == "backspace" {
			v.mode = modeList
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
			v.mode = modeDetail
		}
	case "f", "/":
		v.mode = modeFilter
		v.form.Reset()
	case "r":
		v.filter = models.PartnerFilter{}
		v.page.Page = 1
		v.search.SetValue("")
		v.specialty.SetSelected(0)
		v.tier.SetSelected(0)
		v.status.SetSelected(0)
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

func (v *View) handleFilterKey(key string) tea.Cmd {
	v.form.HandleKey(key)

	switch {
	case v.form.IsCancelled():
		v.form.Reset()
		v.mode = modeList
		return nil
	case !v.form.IsSubmitted():
		return nil
	}
	v.form.Reset()

	v.filter = models.PartnerFilter{
		Search:    strings.TrimSpace(v.search.Value()),
		Specialty: v.specialty.Value(),
		Tier:      v.tier.Value(),
		Status:    v.status.Value(),
	}
	v.page.Page = 1
	v.mode = modeList
	return v.Load()
}

// Selected returns the highlighted partner.
func (v *View) Selected() *models.Partner {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.partners) {
		return v.partners[idx]
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
	switch v.mode {
	case modeFilter:
		return v.form.Render()
	case modeDetail:
		return v.RenderDetail(v.Selected(), width)
	}

	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== PARTNER NETWORK ==="))
	b.WriteString("\n\n")

	var active []string
	if v.filter.Search != "" {
		active = append(active, fmt.Sprintf("%q", v.filter.Search))
	}
	for _, f := range []string{v.filter.Specialty, v.filter.Tier, v.filter.Status} {
		if f != "" && f != models.FilterAll {
			active = append(active, f)
		}
	}
	if len(active) > 0 {
		b.WriteString(s.Label.Render("Filter: "))
		b.WriteString(s.Value.Render(strings.Join(active, "  ")))
		b.WriteString("\n\n")
	}

	if v.err != nil {
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
		b.WriteString("\n\n")
	}

	switch {
	case v.loading && v.table.Empty():
		b.WriteString(s.Muted.Render("Loading..."))
		b.WriteString("\n")
	case v.table.Empty():
		b.WriteString(s.Muted.Render("No partners match the current filter."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(s.Help.Render("↑↓:Nav  Enter:View  f:Search  r:Reset"))
	} else {
		b.WriteString(s.Help.Render("Up/Down:Select  Enter:Details  f:Search  r:Reset  PgUp/PgDn:Page"))
	}
	return b.String()
}

// RenderDetail renders one partner's profile.
func (v *View) RenderDetail(p *models.Partner, width int) string {
	s := v.styles
	labelWidth := 20
	if width < 60 {
		labelWidth = 14
	}
	if p == nil {
		return s.Muted.Render("No partner selected")
	}

	line := func(label, value string) string {
		return s.LabelValue(label+":", value, labelWidth) + "\n"
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("=== " + p.Name + " ==="))
	b.WriteString("\n\n")

	b.WriteString(s.Section.Render("CONTRACT"))
	b.WriteString("\n")
	b.WriteString(line("ID", p.ID))
	b.WriteString(line("Specialty", p.Specialty))
	b.WriteString(line("Tier", p.Tier))
	status := s.Value.Render(string(p.ContractStatus))
	if !p.IsActive() {
		status = s.Warning.Render(string(p.ContractStatus))
	}
	b.WriteString(s.Label.Width(labelWidth).Render("Status:") + " " + status + "\n")
	b.WriteString(line("Available devs", fmt.Sprintf("%d", p.AvailableDevelopers)))
	b.WriteString(line("Rating", fmt.Sprintf("%.1f / 5", p.Rating)))
	b.WriteString("\n")

	b.WriteString(s.Section.Render("COMPANY"))
	b.WriteString("\n")
	b.WriteString(line("Founded", fmt.Sprintf("%d", p.FoundedYear)))
	b.WriteString(line("Employees", fmt.Sprintf("%d", p.Employees)))
	b.WriteString(line("Completed projects", fmt.Sprintf("%d", p.CompletedProjects)))
	if len(p.Certifications) > 0 {
		b.WriteString(line("Certifications", strings.Join(p.Certifications, ", ")))
	}
	b.WriteString(line("Contact", p.Contact))
	b.WriteString(line("Address", p.Address))
	b.WriteString("\n")

	if p.Description != "" {
		b.WriteString(s.Section.Render("ABOUT"))
		b.WriteString("\n")
		b.WriteString(s.Value.Width(max(width-4, 20)).Render(p.Description))
		b.WriteString("\n\n")
	}

	b.WriteString(s.Help.Render("Esc:Back"))
	return b.String()
}
