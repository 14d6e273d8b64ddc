// Package talent provides the talent pool search screen.
package talent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/services/workforce"
	"github.com/knowlearn/kldash/internal/simulation"
	"github.com/knowlearn/kldash/internal/tui/components"
	"github.com/knowlearn/kldash/internal/util"
)

// Searcher queries the talent pool.
type Searcher interface {
	Search(ctx context.Context, filter models.PersonFilter, page models.Pagination) (*models.PersonList, error)
	FilterOptions(ctx context.Context) (*workforce.FilterOptions, error)
}

// LoadedMsg carries one page of search results. Options is set on the
// first load only.
type LoadedMsg struct {
	List    *models.PersonList
	Options *workforce.FilterOptions
	Err     error
}

type mode int

const (
	modeList mode = iota
	modeFilter
	modeDetail
)

var typeOptions = []string{models.FilterAll, string(models.PersonTypeInternal), string(models.PersonTypeExternal)}

// View lists people matching the active filter.
type View struct {
	service Searcher
	styles  components.Styles
	clock   util.Clock

	table  *components.Table
	people []*models.Person
	filter models.PersonFilter
	page   models.Pagination
	pages  int
	mode   mode

	form          *components.Form
	role          *components.Select
	skill         *components.Select
	department    *components.Select
	certification *components.Select
	personType    *components.Select
	project       *components.Input
	minAvail      *components.Input
	availableBy   *components.Input

	optionsLoaded bool
	loading       bool
	err           error
}

// New creates a talent view.
func New(service Searcher, styles components.Styles, clock util.Clock) *View {
	columns := []components.Column{
		{Title: "ID", Width: 6, Priority: 10},
		{Title: "Name", MinWidth: 10, Weight: 2, Priority: 9},
		{Title: "Role", MinWidth: 8, Weight: 1.5, Priority: 8},
		{Title: "Type", Width: 8, Priority: 7},
		{Title: "Department", MinWidth: 8, Weight: 1, Priority: 3},
		{Title: "Level", Width: 6, Priority: 4},
		{Title: "Avail", Width: 5, Align: lipgloss.Right, Priority: 6},
		{Title: "Rating", Width: 6, Align: lipgloss.Right, Priority: 2},
		{Title: "Risk", Width: 4, Priority: 5},
	}

	table := components.NewTable(columns)
	table.SetStyles(styles)
	table.SetVisibleRows(15)
	table.Focus(true)

	v := &View{
		service: service,
		styles:  styles,
		clock:   clock,
		table:   table,
		page:    models.Pagination{Page: 1, PageSize: 15},
	}
	v.buildForm()
	return v
}

func (v *View) buildForm() {
	all := []string{models.FilterAll}
	v.role = components.NewSelect("Role", all)
	v.skill = components.NewSelect("Skill", all)
	v.department = components.NewSelect("Department", all)
	v.certification = components.NewSelect("Certification", all)
	v.personType = components.NewSelect("Type", typeOptions)
	v.project = components.NewInput("Project experience").SetPlaceholder("e.g. Banking").SetWidth(24)
	v.minAvail = components.NewInput("Min availability (%)").
		SetPlaceholder("0").
		SetWidth(6).
		SetMaxLength(3).
		SetValidator(components.IntRange(0, 100))
	v.availableBy = components.NewInput("Available by").
		SetPlaceholder("YYYY-MM-DD").
		SetWidth(12).
		SetMaxLength(10).
		SetValidator(components.DateLayout(util.DateFormat))

	v.form = components.NewForm("TALENT FILTER")
	v.form.SetStyles(v.styles)
	v.form.AddField(v.role).
		AddField(v.skill).
		AddField(v.department).
		AddField(v.certification).
		AddField(v.personType).
		AddField(v.project).
		AddField(v.minAvail).
		AddField(v.availableBy)
}

// Load returns a command that fetches the current page.
func (v *View) Load() tea.Cmd {
	v.loading = true
	service, filter, page := v.service, v.filter, v.page
	needOptions := !v.optionsLoaded

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var msg LoadedMsg
		if needOptions {
			opts, err := service.FilterOptions(ctx)
			if err != nil {
				return LoadedMsg{Err: err}
			}
			msg.Options = opts
		}
		msg.List, msg.Err = service.Search(ctx, filter, page)
		return msg
	}
}

// SetLoaded applies a load result.
func (v *View) SetLoaded(msg LoadedMsg) {
	v.loading = false
	v.err = msg.Err
	if msg.Options != nil {
		v.role.SetOptions(msg.Options.Roles)
		v.skill.SetOptions(msg.Options.Skills)
		v.department.SetOptions(msg.Options.Departments)
		v.certification.SetOptions(msg.Options.Certifications)
		v.optionsLoaded = true
	}
	if msg.Err != nil || msg.List == nil {
		return
	}

	v.people = msg.List.People
	v.page.Page = msg.List.Page
	v.pages = msg.List.TotalPages

	rows := make([][]string, len(v.people))
	for i, p := range v.people {
		rows[i] = []string{
			p.ID,
			p.Name,
			p.Role,
			string(p.Type),
			p.Department,
			string(p.Level),
			fmt.Sprintf("%d%%", p.Availability),
			fmt.Sprintf("%.1f", p.Rating),
			string(p.RiskFactor),
		}
	}
	v.table.SetRows(rows)
	v.table.SetPagination(msg.List.Page, msg.List.TotalPages, msg.List.Total)
}

// Capturing reports whether the filter form owns the keyboard.
func (v *View) Capturing() bool {
	return v.mode == modeFilter
}

// InDetail reports whether a person's detail is shown.
func (v *View) InDetail() bool {
	return v.mode == modeDetail
}

// Filter returns the active filter.
func (v *View) Filter() models.PersonFilter {
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
		v.form.SetError("")
	case "r":
		v.resetFilter()
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

	if v.form.IsCancelled() {
		v.form.Reset()
		v.mode = modeList
		return nil
	}
	if !v.form.IsSubmitted() {
		return nil
	}
	v.form.Reset()

	if !v.form.Validate() {
		v.form.SetError("fix the highlighted fields")
		return nil
	}
	filter, err := v.formFilter()
	if err != nil {
		v.form.SetError(err.Error())
		return nil
	}

	v.form.SetError("")
	v.filter = filter
	v.page.Page = 1
	v.mode = modeList
	return v.Load()
}

func (v *View) formFilter() (models.PersonFilter, error) {
	f := models.PersonFilter{
		Role:          v.role.Value(),
		Skill:         v.skill.Value(),
		Department:    v.department.Value(),
		Certification: v.certification.Value(),
		Project:       strings.TrimSpace(v.project.Value()),
	}

	if t := v.personType.Value(); t != models.FilterAll {
		pt := models.PersonType(t)
		f.Type = &pt
	}

	if s := strings.TrimSpace(v.minAvail.Value()); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return f, fmt.Errorf("min availability: %w", err)
		}
		f.MinAvailability = n
	}

	if s := strings.TrimSpace(v.availableBy.Value()); s != "" {
		d, err := util.ParseDate(s)
		if err != nil {
			return f, fmt.Errorf("available by: %w", err)
		}
		f.AvailableBy = &d
	}
	return f, nil
}

func (v *View) resetFilter() {
	v.filter = models.PersonFilter{}
	v.page.Page = 1
	for _, s := range []*components.Select{v.role, v.skill, v.department, v.certification, v.personType} {
		s.SetSelected(0)
	}
	for _, in := range []*components.Input{v.project, v.minAvail, v.availableBy} {
		in.SetValue("")
	}
}

// Selected returns the highlighted person.
func (v *View) Selected() *models.Person {
	idx := v.table.Selected()
	if idx >= 0 && idx < len(v.people) {
		return v.people[idx]
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

	b.WriteString(s.Title.Render("=== TALENT POOL ==="))
	b.WriteString("\n\n")

	if summary := filterSummary(v.filter); summary != "" {
		b.WriteString(s.Label.Render("Filter: "))
		b.WriteString(s.Value.Render(summary))
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
		b.WriteString(s.Muted.Render("No people match the current filter."))
		b.WriteString("\n")
	default:
		b.WriteString(v.table.RenderResponsive(width))
	}

	b.WriteString("\n")
	if width < 60 {
		b.WriteString(s.Help.Render("↑↓:Nav  Enter:View  f:Filter  r:Reset"))
	} else {
		b.WriteString(s.Help.Render("Up/Down:Select  Enter:Details  f:Filter  r:Reset  PgUp/PgDn:Page"))
	}
	return b.String()
}

// RenderDetail renders one person's profile.
func (v *View) RenderDetail(p *models.Person, width int) string {
	s := v.styles
	labelWidth := 18
	if width < 60 {
		labelWidth = 14
	}
	if p == nil {
		return s.Muted.Render("No person selected")
	}

	line := func(label, value string) string {
		return s.LabelValue(label+":", value, labelWidth) + "\n"
	}
	list := func(items []string) string {
		if len(items) == 0 {
			return "-"
		}
		return strings.Join(items, ", ")
	}

	var b strings.Builder
	b.WriteString(s.Title.Render("=== PROFILE ==="))
	b.WriteString("\n\n")

	b.WriteString(s.Section.Render("IDENTITY"))
	b.WriteString("\n")
	b.WriteString(line("ID", p.ID))
	b.WriteString(line("Name", p.Name))
	b.WriteString(line("Role", fmt.Sprintf("%s (%s)", p.Role, p.Level)))
	personType := string(p.Type)
	if p.IsOutsourced() {
		personType += " (partner contract)"
	}
	b.WriteString(line("Type", personType))
	b.WriteString(line("Department", p.Department))
	b.WriteString(line("Email", p.Email))
	b.WriteString("\n")

	b.WriteString(s.Section.Render("CAPABILITY"))
	b.WriteString("\n")
	b.WriteString(line("Skills", list(p.Skills)))
	b.WriteString(line("Certifications", list(p.Certifications)))
	b.WriteString(line("Experience", list(p.ProjectExperience)))
	b.WriteString(line("Past projects", strconv.Itoa(p.ProjectCount)))
	b.WriteString("\n")

	b.WriteString(s.Section.Render("AVAILABILITY"))
	b.WriteString("\n")
	b.WriteString(line("Free capacity", fmt.Sprintf("%d%%", p.Availability)))
	b.WriteString(line("Available from", fmt.Sprintf("%s (%s)",
		util.FormatDate(p.AvailableFrom), util.AvailabilityString(p.AvailableFrom, v.clock.Now()))))
	b.WriteString(line("Monthly cost", simulation.FormatKRW(float64(p.Salary))))
	b.WriteString(line("Rating", fmt.Sprintf("%.1f / 5", p.Rating)))

	risk := string(p.RiskFactor)
	if p.IsHighRisk() {
		risk = s.Warning.Render(risk)
	}
	b.WriteString(s.Label.Width(labelWidth).Render("Risk:") + " " + risk + "\n\n")

	b.WriteString(s.Help.Render("Esc:Back"))
	return b.String()
}

func filterSummary(f models.PersonFilter) string {
	var parts []string
	add := func(label, value string) {
		if value != "" && value != models.FilterAll {
			parts = append(parts, label+"="+value)
		}
	}
	add("role", f.Role)
	add("skill", f.Skill)
	add("department", f.Department)
	add("certification", f.Certification)
	if f.Type != nil {
		add("type", string(*f.Type))
	}
	add("project", f.Project)
	if f.MinAvailability > 0 {
		add("availability", fmt.Sprintf(">=%d%%", f.MinAvailability))
	}
	if f.AvailableBy != nil {
		add("available by", util.FormatDate(*f.AvailableBy))
	}
	return strings.Join(parts, "  ")
}
