package simulation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/knowlearn/kldash/internal/services/planning"
	"github.com/knowlearn/kldash/internal/simulation"
	"github.com/knowlearn/kldash/internal/tui/components"
	"github.com/knowlearn/kldash/internal/util"
)

var (
	runAt     = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)
	testClock = util.FixedClock{T: runAt.Add(5 * time.Minute)}
)

type fakePlanner struct {
	history []planning.Run
	err     error
}

func (f *fakePlanner) Run(_ context.Context, in simulation.Input) (planning.Run, error) {
	if f.err != nil {
		return planning.Run{}, f.err
	}
	res, err := simulation.NewSimulator(func() time.Time { return runAt }).Simulate(in)
	if err != nil {
		return planning.Run{}, err
	}
	run := planning.Run{
		ID:      fmt.Sprintf("SIM-%d", len(f.history)+1),
		TraceID: "trace",
		Input:   in,
		Result:  res,
	}
	f.history = append(f.history, run)
	return run, nil
}

func (f *fakePlanner) History() []planning.Run { return f.history }

func (f *fakePlanner) Export(run planning.Run) simulation.Export {
	return simulation.NewExport(run.ID, run.Input, run.Result)
}

func (f *fakePlanner) Defaults() simulation.Input { return simulation.Defaults() }

// run submits the form and applies the outcome.
func run(t *testing.T, v *View, key string) {
	t.Helper()
	cmd := v.HandleKey(key)
	if cmd == nil {
		t.Fatalf("expected run command for %q", key)
	}
	v.SetRun(cmd().(RunMsg))
}

func TestView_InitialRender(t *testing.T) {
	v := New(&fakePlanner{}, components.DefaultStyles(), testClock)
	output := v.Render(120, 40)

	for _, want := range []string{"STAFFING SIMULATION", "Scenario", "Balanced mix", "Balanced_Mix_v2", "Simulation ready"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
	if strings.Contains(output, "RECENT RUNS") {
		t.Error("expected no history before the first run")
	}
}

func TestView_InputFromDefaults(t *testing.T) {
	v := New(&fakePlanner{}, components.DefaultStyles(), testClock)

	in, err := v.Input()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in != simulation.Defaults() {
		t.Errorf("Expected defaults %+v, got %+v", simulation.Defaults(), in)
	}
}

func TestView_RunDefaults(t *testing.T) {
	planner := &fakePlanner{}
	v := New(planner, components.DefaultStyles(), testClock)

	run(t, v, "r")

	got, ok := v.Result()
	if !ok {
		t.Fatal("expected a result")
	}
	if got.Result.FulfillmentPercent != 100 {
		t.Errorf("Expected fulfillment 100, got %d", got.Result.FulfillmentPercent)
	}

	output := v.Render(120, 60)
	checks := []string{"SIM-1", "Total Cost", "Fulfillment", "of 150MM fulfilled", "Risk Index", "Bottleneck", `"Balanced_Mix_v2" policy applied`, "RECENT RUNS", "5 minutes ago"}
	for _, want := range checks {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestView_ShortfallShowsBottleneck(t *testing.T) {
	v := New(&fakePlanner{}, components.DefaultStyles(), testClock)
	in := simulation.Defaults()
	in.AvailableInternalMM = 100
	in.Strategy = simulation.StrategyConservative
	v.SetInput(in)

	run(t, v, "r")

	got, _ := v.Result()
	if got.Result.FulfillmentPercent != 87 {
		t.Errorf("Expected fulfillment 87, got %d", got.Result.FulfillmentPercent)
	}
	if !strings.Contains(v.Render(120, 60), "hiring needed") {
		t.Error("expected bottleneck note in output")
	}
}

func TestView_LimitExceededWarning(t *testing.T) {
	v := New(&fakePlanner{}, components.DefaultStyles(), testClock)
	in := simulation.Defaults()
	in.AvailableInternalMM = 50
	v.SetInput(in)

	run(t, v, "r")

	if !strings.Contains(v.Render(120, 60), "exceeds the 20% outsourcing limit") {
		t.Error("expected outsourcing limit warning")
	}
}

func TestView_Tabs(t *testing.T) {
	v := New(&fakePlanner{}, components.DefaultStyles(), testClock)
	run(t, v, "r")

	tests := []struct {
		key  string
		tab  int
		want string
	}{
		{"tab", TabLogic, "Algorithm: Balanced_Mix_v2"},
		{"right", TabJSON, `"simulationId": "SIM-1"`},
		{"l", TabSummary, "policy applied"},
		{"left", TabJSON, "$schema"},
		{"2", TabLogic, "// Logic Steps executed by the engine:"},
		{"1", TabSummary, "policy applied"},
		{"shift+tab", TabJSON, "totalCostKRW"},
	}

	for _, tt := range tests {
		v.HandleKey(tt.key)
		if v.Tab() != tt.tab {
			t.Errorf("after %q: Expected tab %d, got %d", tt.key, tt.tab, v.Tab())
		}
		if !strings.Contains(v.Render(140, 80), tt.want) {
			t.Errorf("after %q: expected %q in output", tt.key, tt.want)
		}
	}
}

func TestView_InvalidInputClearsResult(t *testing.T) {
	planner := &fakePlanner{}
	v := New(planner, components.DefaultStyles(), testClock)
	run(t, v, "r")

	v.HandleKey("e")
	if !v.Capturing() {
		t.Fatal("expected edit mode")
	}
	for range 3 {
		v.HandleKey("backspace")
	}
	for _, r := range "900" {
		v.HandleKey(string(r))
	}

	if cmd := v.HandleKey("enter"); cmd != nil {
		t.Error("expected no run command for invalid input")
	}
	if _, ok := v.Result(); ok {
		t.Error("expected result to be cleared")
	}
	if v.Err() == nil {
		t.Error("expected validation error")
	}
	if len(planner.history) != 1 {
		t.Errorf("Expected 1 run in history, got %d", len(planner.history))
	}
	if !strings.Contains(v.Render(120, 60), "must be") {
		t.Error("expected field error in output")
	}
}

func TestView_EditCancel(t *testing.T) {
	v := New(&fakePlanner{}, components.DefaultStyles(), testClock)

	v.HandleKey("enter")
	if !v.Capturing() {
		t.Fatal("expected edit mode")
	}
	v.HandleKey("esc")
	if v.Capturing() {
		t.Error("expected esc to finish editing")
	}
}

func TestView_StrategySelect(t *testing.T) {
	v := New(&fakePlanner{}, components.DefaultStyles(), testClock)

	v.HandleKey("e")
	for range 5 {
		v.HandleKey("tab")
	}
	v.HandleKey("right")
	run(t, v, "enter")

	got, _ := v.Result()
	if got.Result.Strategy != simulation.StrategyAggressive {
		t.Errorf("Expected Aggressive, got %s", got.Result.Strategy)
	}
	if v.Capturing() {
		t.Error("expected form to close after a successful run")
	}
}

func TestView_PrefillAndDefaults(t *testing.T) {
	v := New(&fakePlanner{}, components.DefaultStyles(), testClock)
	run(t, v, "r")

	in := simulation.Defaults()
	in.RequiredMM = 24
	v.Prefill(in, "Prefilled for PRJ1")

	if _, ok := v.Result(); ok {
		t.Error("expected prefill to clear the result")
	}
	if !v.Capturing() {
		t.Error("expected prefill to open the form")
	}
	if !strings.Contains(v.Render(120, 60), "Prefilled for PRJ1") {
		t.Error("expected note in output")
	}

	got, err := v.Input()
	if err != nil || got.RequiredMM != 24 {
		t.Errorf("Expected 24 MM, got %.0f (err %v)", got.RequiredMM, err)
	}

	v.HandleKey("esc")
	v.HandleKey("d")
	got, _ = v.Input()
	if got != simulation.Defaults() {
		t.Errorf("Expected defaults restored, got %+v", got)
	}
}

func TestView_PlannerError(t *testing.T) {
	v := New(&fakePlanner{err: errors.New("history store unavailable")}, components.DefaultStyles(), testClock)
	run(t, v, "r")

	if _, ok := v.Result(); ok {
		t.Error("expected no result")
	}
	if !strings.Contains(v.Render(120, 60), "Error: history store unavailable") {
		t.Error("expected error in output")
	}
}
