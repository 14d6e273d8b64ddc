package planning

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/repository"
	"github.com/knowlearn/kldash/internal/simulation"
	"github.com/knowlearn/kldash/internal/util"
)

var fixedNow = time.Date(2024, 7, 1, 10, 30, 0, 0, time.UTC)

func newTestService(size int) *Service {
	return NewService(nil, nil, Config{Clock: util.FixedClock{T: fixedNow}, HistorySize: size})
}

func TestRun(t *testing.T) {
	svc := newTestService(5)

	in := simulation.Defaults()
	in.Strategy = simulation.StrategyConservative

	run, err := svc.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.ID != "SIM-1719829800000" {
		t.Errorf("expected SIM-1719829800000, got %s", run.ID)
	}
	if _, err := util.ParseID(run.TraceID); err != nil {
		t.Errorf("expected UUID trace id, got %q", run.TraceID)
	}
	if run.Result.AllocatedInternalMM != 120 || run.Result.AllocatedExternalMM != 30 {
		t.Errorf("expected 120/30, got %v/%v", run.Result.AllocatedInternalMM, run.Result.AllocatedExternalMM)
	}
	if !run.Result.ExecutedAt.Equal(fixedNow) {
		t.Errorf("expected executedAt %v, got %v", fixedNow, run.Result.ExecutedAt)
	}

	if history := svc.History(); len(history) != 1 || history[0].ID != run.ID {
		t.Errorf("expected history [%s], got %+v", run.ID, history)
	}
}

func TestRun_InvalidInputRecordsNothing(t *testing.T) {
	svc := newTestService(5)

	in := simulation.Defaults()
	in.RequiredMM = 0

	_, err := svc.Run(context.Background(), in)
	if !errors.Is(err, simulation.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if len(svc.History()) != 0 {
		t.Errorf("expected empty history, got %d runs", len(svc.History()))
	}
}

func TestRun_CancelledContext(t *testing.T) {
	svc := newTestService(5)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Run(ctx, simulation.Defaults()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestHistory_RingKeepsNewest(t *testing.T) {
	svc := newTestService(3)

	var ids []string
	for range 5 {
		run, err := svc.Run(context.Background(), simulation.Defaults())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids = append(ids, run.ID)
	}

	var got []string
	for _, r := range svc.History() {
		got = append(got, r.ID)
	}
	want := []string{ids[4], ids[3], ids[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	// Same-millisecond runs still get distinct IDs.
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate run id %s", id)
		}
		seen[id] = true
	}
}

func TestExport(t *testing.T) {
	svc := newTestService(5)

	run, err := svc.Run(context.Background(), simulation.Defaults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := svc.Export(run)
	if doc.SimulationID != run.ID {
		t.Errorf("expected simulationId %s, got %s", run.ID, doc.SimulationID)
	}
	if doc.ExecutedAt != "2024-07-01T10:30:00.000Z" {
		t.Errorf("unexpected executedAt %s", doc.ExecutedAt)
	}
	if doc.Configuration.Strategy != "Neutral" {
		t.Errorf("expected Neutral, got %s", doc.Configuration.Strategy)
	}
}

type fakeProjects map[string]*models.Project

func (f fakeProjects) GetByID(_ context.Context, id string) (*models.Project, error) {
	if p, ok := f[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("project %s: %w", id, repository.ErrNotFound)
}

type fakeBench float64

func (f fakeBench) Stats(context.Context) (*models.WorkforceStats, error) {
	return &models.WorkforceStats{BenchMM: float64(f)}, nil
}

func TestSuggest(t *testing.T) {
	defaults := simulation.Input{
		UnitCostInternal:      900,
		UnitCostExternal:      1100,
		OutsourceLimitPercent: 30,
		Strategy:              simulation.StrategyAggressive,
	}
	projects := fakeProjects{"PRJ3": {ID: "PRJ3", RequiredMM: 42}}
	svc := NewService(projects, fakeBench(21.07), Config{Defaults: defaults})

	in, err := svc.Suggest(context.Background(), "PRJ3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := simulation.Input{
		AvailableInternalMM:   21.1,
		RequiredMM:            42,
		UnitCostInternal:      900,
		UnitCostExternal:      1100,
		OutsourceLimitPercent: 30,
		Strategy:              simulation.StrategyAggressive,
	}
	if diff := cmp.Diff(want, in); diff != "" {
		t.Errorf("suggestion mismatch (-want +got):\n%s", diff)
	}

	if _, err := svc.Suggest(context.Background(), "PRJ404"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := newTestService(1).Suggest(context.Background(), "PRJ3"); err == nil {
		t.Error("expected error without data sources")
	}
}

func TestDefaults(t *testing.T) {
	if diff := cmp.Diff(simulation.Defaults(), newTestService(1).Defaults()); diff != "" {
		t.Errorf("defaults mismatch (-want +got):\n%s", diff)
	}
}
