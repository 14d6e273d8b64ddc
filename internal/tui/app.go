package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/knowlearn/kldash/internal/assistant"
	"github.com/knowlearn/kldash/internal/config"
	"github.com/knowlearn/kldash/internal/database"
	"github.com/knowlearn/kldash/internal/repository"
	"github.com/knowlearn/kldash/internal/services/dashboard"
	"github.com/knowlearn/kldash/internal/services/partners"
	"github.com/knowlearn/kldash/internal/services/planning"
	"github.com/knowlearn/kldash/internal/services/portfolio"
	"github.com/knowlearn/kldash/internal/services/workforce"
	"github.com/knowlearn/kldash/internal/simulation"
	agentviews "github.com/knowlearn/kldash/internal/tui/views/assistant"
	dashviews "github.com/knowlearn/kldash/internal/tui/views/dashboard"
	partnerviews "github.com/knowlearn/kldash/internal/tui/views/partners"
	projviews "github.com/knowlearn/kldash/internal/tui/views/projects"
	"github.com/knowlearn/kldash/internal/tui/components"
	simviews "github.com/knowlearn/kldash/internal/tui/views/simulation"
	talentviews "github.com/knowlearn/kldash/internal/tui/views/talent"
	"github.com/knowlearn/kldash/internal/util"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// MaxContentWidth is the maximum width for content display
const MaxContentWidth = 140

// chromeLines is the height of header, tabs, alert bar and footer.
const chromeLines = 7

const (
	minContentWidth = 40
	minBodyHeight   = 5
	// Below compactWidth the header drops key hints and clips the title.
	compactWidth = 60
)

// DefaultAssistantDelay is how long the agent "thinks" before answering.
const DefaultAssistantDelay = 800 * time.Millisecond

// Module represents a view module in the application.
type Module string

const (
	ModuleDashboard  Module = "dashboard"
	ModuleTalent     Module = "talent"
	ModulePartners   Module = "partners"
	ModuleProjects   Module = "projects"
	ModuleSimulation Module = "simulation"
	ModuleAssistant  Module = "assistant"
	ModuleHelp       Module = "help"
)

var moduleTabs = []struct {
	module Module
	key    string
	name   string
}{
	{ModuleDashboard, "F2", "Dashboard"},
	{ModuleTalent, "F3", "Talent"},
	{ModulePartners, "F4", "Partners"},
	{ModuleProjects, "F5", "Projects"},
	{ModuleSimulation, "F6", "Simulation"},
	{ModuleAssistant, "F7", "AI Agent"},
}

// Option customizes an App.
type Option func(*App)

// WithAssistantDelay sets the agent's thinking delay. Zero answers at once.
func WithAssistantDelay(d time.Duration) Option {
	return func(a *App) { a.assistantDelay = d }
}

// App is the main Bubble Tea application model.
type App struct {
	// Dependencies
	db     *database.DB
	config *config.Config
	clock  util.Clock

	// Services
	workforceSvc *workforce.Service
	partnerSvc   *partners.Service
	portfolioSvc *portfolio.Service
	planningSvc  *planning.Service
	dashboardSvc *dashboard.Service

	// Views
	dashboardView *dashviews.View
	talentView    *talentviews.View
	partnerView   *partnerviews.View
	projectView   *projviews.View
	simView       *simviews.View
	agentView     *agentviews.View

	assistantDelay time.Duration

	// UI state
	theme       *Theme
	keys        KeyMap
	width       int
	height      int
	ready       bool
	quitting    bool
	showConfirm bool

	// Current view
	currentModule  Module
	previousModule Module
	loaded         map[Module]bool

	// Alerts
	alerts []Alert
}

// Alert represents a status bar message.
type Alert struct {
	Level   AlertLevel
	Message string
	Time    time.Time
}

// AlertLevel indicates the severity of an alert.
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertCritical
)

// tickMsg is sent periodically to update the UI.
type tickMsg time.Time

// New creates a new App instance.
func New(db *database.DB, cfg *config.Config, clock util.Clock, opts ...Option) *App {
	a := &App{
		db:             db,
		config:         cfg,
		clock:          clock,
		assistantDelay: DefaultAssistantDelay,
		theme:          NewTheme(cfg.Display.ColorScheme),
		keys:           DefaultKeyMap(),
		currentModule:  ModuleDashboard,
		loaded:         make(map[Module]bool),
		alerts:         []Alert{},
	}
	for _, opt := range opts {
		opt(a)
	}

	defaults, err := cfg.Simulation.Input()
	if err != nil {
		a.AddAlert(AlertWarning, "Invalid simulation defaults, using built-in values: "+err.Error())
		defaults = simulation.Defaults()
	}

	a.workforceSvc = workforce.NewService(db.DB)
	a.partnerSvc = partners.NewService(db.DB)
	a.portfolioSvc = portfolio.NewService(db.DB)
	a.planningSvc = planning.NewService(repository.NewProjectRepository(db.DB), a.workforceSvc, planning.Config{
		Clock:       clock,
		HistorySize: cfg.Simulation.HistorySize,
		Defaults:    defaults,
	})
	a.dashboardSvc = dashboard.NewService(a.workforceSvc, a.portfolioSvc, a.partnerSvc, clock)

	styles := a.theme.Components()
	a.dashboardView = dashviews.New(a.dashboardSvc, a.workforceSvc, styles)
	a.talentView = talentviews.New(a.workforceSvc, styles, clock)
	a.partnerView = partnerviews.New(a.partnerSvc, styles)
	a.projectView = projviews.New(a.portfolioSvc, a.planningSvc, styles)
	a.simView = simviews.New(a.planningSvc, styles, clock)
	a.agentView = agentviews.New(assistant.Default(), styles, a.assistantDelay)

	if n := cfg.Display.PageSize; n > 0 {
		a.talentView.SetPageSize(n)
		a.partnerView.SetPageSize(n)
		a.projectView.SetPageSize(n)
	}
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.loaded[ModuleDashboard] = true
	return tea.Batch(
		tea.EnterAltScreen,
		tickCmd(),
		a.dashboardView.Load(),
	)
}

// tickCmd returns a command that sends tick messages.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		rows := max(a.bodyHeight()-8, 3)
		a.talentView.SetVisibleRows(rows)
		a.partnerView.SetVisibleRows(rows)
		a.projectView.SetVisibleRows(rows)
		return a, nil

	case tickMsg:
		return a, tickCmd()

	case dashviews.LoadedMsg:
		a.dashboardView.SetLoaded(msg)
		a.loadFailed("dashboard", msg.Err)
		if msg.Err == nil && msg.Overview != nil && !msg.Overview.OutsourceWithinLimit() {
			a.AddAlert(AlertWarning, fmt.Sprintf("Outsourcing ratio %.1f%% is above the %.0f%% ceiling",
				msg.Overview.OutsourceRatio, dashboard.OutsourceCeiling))
		}
		return a, nil

	case talentviews.LoadedMsg:
		a.talentView.SetLoaded(msg)
		a.loadFailed("talent pool", msg.Err)
		return a, nil

	case partnerviews.LoadedMsg:
		a.partnerView.SetLoaded(msg)
		a.loadFailed("partners", msg.Err)
		return a, nil

	case projviews.LoadedMsg:
		a.projectView.SetLoaded(msg)
		a.loadFailed("projects", msg.Err)
		return a, nil

	case projviews.SuggestedMsg:
		if msg.Err != nil {
			a.AddAlert(AlertWarning, "Failed to prepare simulation: "+msg.Err.Error())
			return a, nil
		}
		a.simView.Prefill(msg.Input, fmt.Sprintf("Prefilled for %s (%s): %d MM of %s",
			msg.Project.ID, msg.Project.Name, msg.Project.RequiredMM, msg.Project.RequiredRole))
		a.switchModule(ModuleSimulation)
		return a, nil

	case simviews.RunMsg:
		a.simView.SetRun(msg)
		switch {
		case msg.Err != nil:
			a.AddAlert(AlertWarning, "Simulation rejected: "+msg.Err.Error())
		case msg.Run.Result.LimitExceeded:
			a.AddAlert(AlertWarning, fmt.Sprintf("Simulation %s exceeds the outsourcing limit", msg.Run.ID))
		default:
			a.AddAlert(AlertInfo, fmt.Sprintf("Simulation %s complete", msg.Run.ID))
		}
		return a, nil

	case agentviews.AnsweredMsg:
		a.agentView.SetAnswer(msg)
		return a, nil
	}

	return a, nil
}

func (a *App) loadFailed(what string, err error) {
	if err == nil {
		return
	}
	slog.Error("load failed", "view", what, "error", err)
	a.AddAlert(AlertWarning, fmt.Sprintf("Failed to load %s: %v", what, err))
}

// capturing reports whether the current module takes raw text input.
func (a *App) capturing() bool {
	switch a.currentModule {
	case ModuleTalent:
		return a.talentView.Capturing()
	case ModulePartners:
		return a.partnerView.Capturing()
	case ModuleSimulation:
		return a.simView.Capturing()
	case ModuleAssistant:
		return a.agentView.Capturing()
	}
	return false
}

// handleKeyPress processes key press events.
func (a *App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle quit confirmation first (modal takes priority)
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			a.quitting = true
			return a, tea.Quit
		case "n", "N", "esc":
			a.showConfirm = false
		}
		return a, nil
	}

	// Function keys never produce text, so they work inside forms too.
	if a.keys.F10.Matches(msg) || msg.String() == "ctrl+c" {
		a.showConfirm = true
		return a, nil
	}
	if module, ok := a.keys.FunctionKeyModule(msg); ok {
		if module == ModuleHelp {
			if a.currentModule != ModuleHelp {
				a.previousModule = a.currentModule
				a.currentModule = ModuleHelp
			}
			return a, nil
		}
		return a, a.switchModule(module)
	}

	// Forms and text inputs need every other key.
	if a.capturing() {
		return a, a.routeKey(msg.String())
	}

	if a.keys.IsQuit(msg) {
		a.showConfirm = true
		return a, nil
	}

	if a.currentModule == ModuleHelp {
		if a.keys.Back.Matches(msg) {
			a.currentModule = a.previousModule
			if a.currentModule == "" {
				a.currentModule = ModuleDashboard
			}
			a.previousModule = ""
		}
		return a, nil
	}

	return a, a.routeKey(msg.String())
}

// routeKey hands a key to the current module's view.
func (a *App) routeKey(key string) tea.Cmd {
	switch a.currentModule {
	case ModuleDashboard:
		if key == "r" {
			return a.dashboardView.Load()
		}
	case ModuleTalent:
		return a.talentView.HandleKey(key)
	case ModulePartners:
		return a.partnerView.HandleKey(key)
	case ModuleProjects:
		return a.projectView.HandleKey(key)
	case ModuleSimulation:
		return a.simView.HandleKey(key)
	case ModuleAssistant:
		return a.agentView.HandleKey(key)
	}
	return nil
}

// switchModule shows a module, loading its data the first time. The
// dashboard reloads on every visit.
func (a *App) switchModule(m Module) tea.Cmd {
	a.currentModule = m
	a.previousModule = ""

	if m != ModuleDashboard && a.loaded[m] {
		return nil
	}
	a.loaded[m] = true

	switch m {
	case ModuleDashboard:
		return a.dashboardView.Load()
	case ModuleTalent:
		return a.talentView.Load()
	case ModulePartners:
		return a.partnerView.Load()
	case ModuleProjects:
		return a.projectView.Load()
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initializing..."
	}

	if a.quitting {
		return a.theme.Title.Render("Workforce console shutting down...")
	}

	var b strings.Builder

	// Header
	b.WriteString(a.renderHeader())
	b.WriteString("\n")

	// Alert bar
	b.WriteString(a.renderAlertBar())
	b.WriteString("\n")

	// Main content area
	contentHeight := a.bodyHeight()
	if a.showConfirm {
		b.WriteString(a.renderConfirmDialog(contentHeight))
	} else {
		b.WriteString(a.renderContent(contentHeight))
	}

	// Footer/status bar
	b.WriteString("\n")
	b.WriteString(a.renderFooter())

	return b.String()
}

// bodyHeight is the number of terminal rows left for the active module.
func (a *App) bodyHeight() int {
	return max(a.height-chromeLines, minBodyHeight)
}

// renderHeader renders the title line, a separator and the module tabs.
func (a *App) renderHeader() string {
	title := fmt.Sprintf("%s WORKFORCE CONSOLE v%s", strings.ToUpper(a.config.Company.Name), Version)

	info := "HEADCOUNT: -"
	if o := a.dashboardView.Overview(); o != nil {
		info = fmt.Sprintf("HEADCOUNT: %d | OUTSOURCED: %.1f%%", o.TotalPeople, o.OutsourceRatio)
	}

	compact := a.width < compactWidth
	if compact {
		title = components.Clip(title, max(a.width-lipgloss.Width(info)-4, 10))
	}

	spacing := a.width - lipgloss.Width(title) - lipgloss.Width(info) - 4
	if spacing < 1 {
		spacing = 1
	}

	header := a.theme.Header.Render(title) +
		strings.Repeat(" ", spacing) +
		a.theme.Header.Render(info)

	tabs := make([]string, 0, len(moduleTabs))
	for _, t := range moduleTabs {
		label := t.name
		if !compact {
			label = t.key + " " + t.name
		}
		if t.module == a.currentModule {
			tabs = append(tabs, a.theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, a.theme.Tab.Render(label))
		}
	}

	return header + "\n" + a.theme.DrawDoubleLine(a.width) + "\n" + strings.Join(tabs, "")
}

// renderAlertBar renders the clock and the latest alert.
func (a *App) renderAlertBar() string {
	now := a.clock.Now()
	timeStr := now.Format(a.config.Display.DateFormat + " 15:04:05")

	var alertText string
	if len(a.alerts) > 0 {
		alert := a.alerts[0]
		switch alert.Level {
		case AlertCritical:
			alertText = a.theme.AlertCrit.Render("CRITICAL: " + alert.Message)
		case AlertWarning:
			alertText = a.theme.AlertWarn.Render("WARNING: " + alert.Message)
		default:
			alertText = a.theme.Alert.Render("INFO: " + alert.Message)
		}
	} else {
		alertText = a.theme.Muted.Render("Ready")
	}

	timeDisplay := a.theme.Value.Render(timeStr)
	divider := a.theme.StatusDivider.Render()

	return timeDisplay + divider + alertText
}

// renderContent renders the main content area based on current module.
func (a *App) renderContent(height int) string {
	contentWidth := min(max(a.width, minContentWidth), MaxContentWidth)
	content := a.moduleContent(contentWidth, height)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Top)

	contentStyle := lipgloss.NewStyle().
		Width(contentWidth)

	return style.Render(contentStyle.Render(content))
}

// moduleContent returns the content for the current module.
func (a *App) moduleContent(width, height int) string {
	switch a.currentModule {
	case ModuleDashboard:
		return a.dashboardView.Render(width)
	case ModuleTalent:
		return a.talentView.Render(width, height)
	case ModulePartners:
		return a.partnerView.Render(width, height)
	case ModuleProjects:
		return a.projectView.Render(width, height)
	case ModuleSimulation:
		return a.simView.Render(width, height)
	case ModuleAssistant:
		return a.agentView.Render(width, height)
	default:
		return a.renderHelp()
	}
}

// renderHelp renders the help screen.
func (a *App) renderHelp() string {
	var b strings.Builder

	b.WriteString(a.theme.Title.Render("=== HELP ==="))
	b.WriteString("\n\n")

	b.WriteString(a.theme.Subtitle.Render("NAVIGATION"))
	b.WriteString("\n\n")

	navItems := [][2]string{
		{"F1", "Help"},
		{"F2", "Dashboard"},
		{"F3", "Talent search"},
		{"F4", "Partner network"},
		{"F5", "Project portfolio"},
		{"F6", "Staffing simulation"},
		{"F7", "AI agent"},
		{"F10", "Quit"},
	}

	for _, item := range navItems {
		b.WriteString(a.theme.Primary.Render("    " + components.Fit(item[0], 10, lipgloss.Left) + item[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Subtitle.Render("CONTROLS"))
	b.WriteString("\n\n")

	ctrlItems := [][2]string{
		{"Up/Down", "Navigate"},
		{"Enter", "Select / run"},
		{"Esc", "Back / cancel"},
		{"f or /", "Filter and search"},
		{"Tab", "Next field or result tab"},
		{"PgUp/PgDn", "Page navigation"},
		{"s", "Simulate staffing for a project"},
	}

	for _, item := range ctrlItems {
		b.WriteString(a.theme.Primary.Render("    " + components.Fit(item[0], 10, lipgloss.Left) + item[1]))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.theme.Muted.Render("Press Esc to return"))

	return b.String()
}

// renderConfirmDialog renders the quit confirmation dialog.
func (a *App) renderConfirmDialog(height int) string {
	dialog := a.theme.Box.Render(
		a.theme.Title.Render("CONFIRM EXIT") + "\n\n" +
			a.theme.Base.Render("Are you sure you want to exit?") + "\n\n" +
			a.theme.Label.Render("[Y]es  [N]o"),
	)

	style := lipgloss.NewStyle().
		Width(a.width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center)

	return style.Render(dialog)
}

// renderFooter renders the bottom status bar.
func (a *App) renderFooter() string {
	separator := a.theme.DrawHorizontalLine(a.width)
	help := a.keys.StatusBarHelp()
	return separator + "\n" + a.theme.Footer.Render(components.Clip(help, a.width-2))
}

// AddAlert adds a new alert to the display.
func (a *App) AddAlert(level AlertLevel, message string) {
	now := time.Now()
	if a.clock != nil {
		now = a.clock.Now()
	}
	a.alerts = append([]Alert{{
		Level:   level,
		Message: message,
		Time:    now,
	}}, a.alerts...)

	// Keep only last 10 alerts
	if len(a.alerts) > 10 {
		a.alerts = a.alerts[:10]
	}
}

// Run starts the TUI application.
func Run(ctx context.Context, db *database.DB, cfg *config.Config, clock util.Clock, opts ...Option) error {
	app := New(db, cfg, clock, opts...)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
