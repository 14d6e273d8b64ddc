// Package simulation provides the staffing allocation simulator screen.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/knowlearn/kldash/internal/services/planning"
	"github.com/knowlearn/kldash/internal/simulation"
	"github.com/knowlearn/kldash/internal/tui/components"
	"github.com/knowlearn/kldash/internal/util"
)

// Planner runs simulations and keeps their history.
type Planner interface {
	Run(ctx context.Context, in simulation.Input) (planning.Run, error)
	History() []planning.Run
	Export(run planning.Run) simulation.Export
	Defaults() simulation.Input
}

// RunMsg carries the outcome of a simulation.
type RunMsg struct {
	Run planning.Run
	Err error
}

// Result tabs.
const (
	TabSummary = iota
	TabLogic
	TabJSON
)

var tabNames = []string{"Summary", "Logic Trace", "JSON"}

const historyRows = 5

// View is the simulator: an input form, result cards and detail tabs.
type View struct {
	planner Planner
	styles  components.Styles
	clock   util.Clock

	form     *components.Form
	avail    *components.Input
	required *components.Input
	costInt  *components.Input
	costExt  *components.Input
	limit    *components.Input
	strategy *components.Select

	editing bool
	running bool
	tab     int
	note    string

	run *planning.Run
	err error
}

// New creates a simulation view with the form prefilled from the
// planner's defaults.
func New(planner Planner, styles components.Styles, clock util.Clock) *View {
	v := &View{
		planner: planner,
		styles:  styles,
		clock:   clock,
	}

	names := make([]string, 0, len(simulation.Strategies()))
	for _, s := range simulation.Strategies() {
		names = append(names, s.String())
	}

	v.avail = numberInput("Available internal MM", components.FloatRange(0, 500))
	v.required = numberInput("Required MM", components.FloatRange(1, 500))
	v.costInt = numberInput("Internal cost / MM", components.FloatRange(0, 100000))
	v.costExt = numberInput("External cost / MM", components.FloatRange(0, 100000))
	v.limit = numberInput("Outsource limit (%)", components.FloatRange(0, 100))
	v.strategy = components.NewSelect("Strategy", names)

	v.form = components.NewForm("")
	v.form.SetStyles(styles)
	v.form.SetHelp("Tab/Down:Next  Left/Right:Strategy  Enter:Run  Esc:Done")
	v.form.AddField(v.avail).
		AddField(v.required).
		AddField(v.costInt).
		AddField(v.costExt).
		AddField(v.limit).
		AddField(v.strategy)

	v.SetInput(planner.Defaults())
	return v
}

func numberInput(label string, validate func(string) error) *components.Input {
	return components.NewInput(label).
		SetWidth(10).
		SetMaxLength(9).
		SetRequired(true).
		SetValidator(validate)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SetInput fills the form.
func (v *View) SetInput(in simulation.Input) {
	v.avail.SetValue(formatNumber(in.AvailableInternalMM))
	v.required.SetValue(formatNumber(in.RequiredMM))
	v.costInt.SetValue(formatNumber(in.UnitCostInternal))
	v.costExt.SetValue(formatNumber(in.UnitCostExternal))
	v.limit.SetValue(formatNumber(in.OutsourceLimitPercent))
	v.strategy.SetValue(in.Strategy.String())
}

// Prefill fills the form for a suggested scenario and opens it for editing.
// Any previous result is cleared since it no longer matches the form.
func (v *View) Prefill(in simulation.Input, note string) {
	v.SetInput(in)
	v.note = note
	v.run = nil
	v.err = nil
	v.editing = true
}

// Input parses the form. It fails when any field is out of bounds.
func (v *View) Input() (simulation.Input, error) {
	if !v.form.Validate() {
		return simulation.Input{}, errors.New("fix the highlighted fields before running")
	}

	var in simulation.Input
	fields := []struct {
		input *components.Input
		dest  *float64
	}{
		{v.avail, &in.AvailableInternalMM},
		{v.required, &in.RequiredMM},
		{v.costInt, &in.UnitCostInternal},
		{v.costExt, &in.UnitCostExternal},
		{v.limit, &in.OutsourceLimitPercent},
	}
	for _, f := range fields {
		n, err := strconv.ParseFloat(strings.TrimSpace(f.input.Value()), 64)
		if err != nil {
			return simulation.Input{}, fmt.Errorf("parsing form: %w", err)
		}
		*f.dest = n
	}

	strategy, err := simulation.ParseStrategy(v.strategy.Value())
	if err != nil {
		return simulation.Input{}, err
	}
	in.Strategy = strategy
	return in, nil
}

// Submit validates the form and returns the command that runs it. Invalid
// input clears the current result and returns nil.
func (v *View) Submit() tea.Cmd {
	in, err := v.Input()
	if err != nil {
		v.run = nil
		v.err = err
		return nil
	}

	v.err = nil
	v.running = true
	planner := v.planner

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		run, err := planner.Run(ctx, in)
		return RunMsg{Run: run, Err: err}
	}
}

// SetRun applies a simulation outcome.
func (v *View) SetRun(msg RunMsg) {
	v.running = false
	if msg.Err != nil {
		v.run = nil
		v.err = msg.Err
		return
	}
	run := msg.Run
	v.run = &run
	v.err = nil
	v.editing = false
}

// Result returns the displayed run, if any.
func (v *View) Result() (planning.Run, bool) {
	if v.run == nil {
		return planning.Run{}, false
	}
	return *v.run, true
}

// Err returns the error shown in place of a result.
func (v *View) Err() error {
	return v.err
}

// Tab returns the active result tab.
func (v *View) Tab() int {
	return v.tab
}

// Capturing reports whether the form owns the keyboard.
func (v *View) Capturing() bool {
	return v.editing
}

// Edit opens the form for editing.
func (v *View) Edit() {
	v.editing = true
	v.form.Reset()
}

// HandleKey handles a key press and returns the run command on submit.
func (v *View) HandleKey(key string) tea.Cmd {
	if v.editing {
		v.form.HandleKey(key)
		switch {
		case v.form.IsCancelled():
			v.form.Reset()
			v.editing = false
		case v.form.IsSubmitted():
			v.form.Reset()
			return v.Submit()
		}
		return nil
	}

	switch key {
	case "e", "enter":
		v.Edit()
	case "r":
		return v.Submit()
	case "tab", "right", "l":
		v.tab = (v.tab + 1) % len(tabNames)
	case "shift+tab", "left", "h":
		v.tab = (v.tab + len(tabNames) - 1) % len(tabNames)
	case "1", "2", "3":
		v.tab = int(key[0] - '1')
	case "d":
		v.SetInput(v.planner.Defaults())
		v.note = ""
	}
	return nil
}

// Render renders the simulator.
func (v *View) Render(width, height int) string {
	s := v.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("=== STAFFING SIMULATION ==="))
	b.WriteString("\n\n")

	if v.note != "" {
		b.WriteString(s.Muted.Render(v.note))
		b.WriteString("\n\n")
	}

	formTitle := "Scenario"
	if v.editing {
		formTitle = "Scenario (editing)"
	}
	formWidth := 54
	b.WriteString(components.SideBySide(width, 2,
		components.Panel(s, formTitle, v.form.Render(), formWidth),
		components.Panel(s, "Strategy", v.renderStrategy(), max(min(width-formWidth-2, 50), 34)),
	))
	b.WriteString("\n\n")

	switch {
	case v.running:
		b.WriteString(s.Muted.Render("Simulating..."))
	case v.err != nil:
		b.WriteString(s.Error.Render("Error: " + v.err.Error()))
	case v.run == nil:
		b.WriteString(s.Muted.Render("Simulation ready. Press e to edit the scenario, Enter to run."))
	default:
		b.WriteString(v.renderResult(width))
	}
	b.WriteString("\n\n")

	if history := v.renderHistory(); history != "" {
		b.WriteString(history)
		b.WriteString("\n")
	}

	if !v.editing {
		b.WriteString(s.Help.Render("e:Edit  r:Run  Tab/←→:Result tab  1-3:Jump to tab  d:Defaults"))
	}
	return b.String()
}

func (v *View) renderStrategy() string {
	s := v.styles
	strategy, err := simulation.ParseStrategy(v.strategy.Value())
	if err != nil {
		return s.Error.Render(err.Error())
	}

	var b strings.Builder
	b.WriteString(s.Section.Render(strategy.Label()))
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(strategy.PolicyName()))
	for _, step := range strategy.PolicySteps() {
		b.WriteString("\n")
		b.WriteString(s.Value.Render("• " + step))
	}
	return b.String()
}

func (v *View) renderResult(width int) string {
	s := v.styles
	res := v.run.Result
	in := v.run.Input

	riskStyle := s.Success
	if res.HighRisk() {
		riskStyle = s.Error
	}
	bottleneckNote := "none"
	bottleneckStyle := s.Muted
	if res.Bottleneck != simulation.BottleneckNone {
		bottleneckNote = "hiring needed"
		bottleneckStyle = s.Warning
	}

	cardWidth := max(min((width-6)/4, 30), 22)
	cards := components.SideBySide(width, 1,
		components.Card(s, "Total Cost", simulation.FormatKRW(res.TotalCost),
			fmt.Sprintf("%s MM allocated", formatNumber(res.AllocatedMM())), s.Muted, cardWidth),
		components.Card(s, "Fulfillment", fmt.Sprintf("%d%%", res.FulfillmentPercent),
			fmt.Sprintf("of %sMM fulfilled", formatNumber(in.RequiredMM)), s.Muted, cardWidth),
		components.Card(s, "Risk Index", fmt.Sprintf("%d", res.RiskIndex),
			simulation.RiskLevel(res.RiskIndex), riskStyle, cardWidth),
		components.Card(s, "Bottleneck", res.Bottleneck, bottleneckNote, bottleneckStyle, cardWidth),
	)

	var b strings.Builder
	b.WriteString(s.LabelValue("Run:", v.run.ID, 0))
	b.WriteString(s.Muted.Render("  trace " + v.run.TraceID))
	b.WriteString("\n")
	b.WriteString(cards)
	b.WriteString("\n")
	if res.LimitExceeded {
		b.WriteString(s.Warning.Render(fmt.Sprintf("External share exceeds the %s%% outsourcing limit.",
			formatNumber(in.OutsourceLimitPercent))))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(components.Tabs(s, tabNames, v.tab))
	b.WriteString("\n\n")

	switch v.tab {
	case TabLogic:
		b.WriteString(v.renderLogic())
	case TabJSON:
		b.WriteString(v.renderJSON())
	default:
		b.WriteString(v.renderSummary())
	}
	return b.String()
}

func (v *View) renderSummary() string {
	s := v.styles
	res := v.run.Result
	in := v.run.Input

	limitNote := "respected"
	if res.LimitExceeded {
		limitNote = "exceeded"
	}

	lines := []string{
		fmt.Sprintf("Internal %s MM and external %s MM allocated against %s MM required.",
			formatNumber(res.AllocatedInternalMM), formatNumber(res.AllocatedExternalMM), formatNumber(in.RequiredMM)),
		fmt.Sprintf("Total cost %s at %s / %s per MM.",
			simulation.FormatKRW(res.TotalCost), simulation.FormatKRW(in.UnitCostInternal), simulation.FormatKRW(in.UnitCostExternal)),
		fmt.Sprintf("Outsource limit %s%% %s; internal capacity capped at %s MM.",
			formatNumber(in.OutsourceLimitPercent), limitNote, formatNumber(in.AvailableInternalMM)),
	}

	var b strings.Builder
	b.WriteString(s.Section.Render(fmt.Sprintf("%q policy applied", res.PolicyName)))
	for _, l := range lines {
		b.WriteString("\n")
		b.WriteString(s.Value.Render("• " + l))
	}
	return b.String()
}

func (v *View) renderLogic() string {
	s := v.styles
	res := v.run.Result

	var b strings.Builder
	b.WriteString(s.Value.Render("Algorithm: " + res.PolicyName))
	b.WriteString("\n")
	b.WriteString(s.Muted.Render("// Logic Steps executed by the engine:"))
	for i, step := range res.PolicySteps {
		b.WriteString("\n")
		b.WriteString(s.Value.Render(fmt.Sprintf("%d. %s", i+1, step)))
	}
	b.WriteString("\n")
	b.WriteString(s.Muted.Render("// Constraints: Available MM, Outsource Limit"))
	return b.String()
}

func (v *View) renderJSON() string {
	data, err := v.planner.Export(*v.run).MarshalIndented()
	if err != nil {
		return v.styles.Error.Render("Error: " + err.Error())
	}
	return v.styles.Value.Render(string(data))
}

func (v *View) renderHistory() string {
	history := v.planner.History()
	if len(history) == 0 {
		return ""
	}
	s := v.styles

	now := v.clock.Now()
	var b strings.Builder
	b.WriteString(s.Section.Render("RECENT RUNS"))
	for i, run := range history {
		if i == historyRows {
			b.WriteString("\n")
			b.WriteString(s.Muted.Render(fmt.Sprintf("… %d more", len(history)-historyRows)))
			break
		}
		res := run.Result
		b.WriteString("\n")
		b.WriteString(s.Value.Render(fmt.Sprintf("%-18s %-12s %-18s %3d%%  risk %-3d",
			run.ID, res.Strategy, simulation.FormatKRW(res.TotalCost), res.FulfillmentPercent, res.RiskIndex)))
		b.WriteString(s.Muted.Render(" " + util.RelativeTimeString(res.ExecutedAt, now)))
	}
	return b.String()
}
