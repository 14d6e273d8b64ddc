// Package planning runs allocation simulations and keeps a short history
// of the runs made during this session.
package planning

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/simulation"
	"github.com/knowlearn/kldash/internal/util"
)

// DefaultHistorySize is used when Config.HistorySize is not positive.
const DefaultHistorySize = 20

// ProjectFinder looks up projects.
type ProjectFinder interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
}

// BenchReporter reports free internal capacity.
type BenchReporter interface {
	Stats(ctx context.Context) (*models.WorkforceStats, error)
}

// Config configures the planning service.
type Config struct {
	Clock       util.Clock
	HistorySize int

	// Defaults seeds Suggest with cost and strategy settings.
	Defaults simulation.Input
}

// Run is one completed simulation.
type Run struct {
	ID      string
	TraceID string
	Input   simulation.Input
	Result  simulation.Result
}

// Service runs simulations.
type Service struct {
	sim      *simulation.Simulator
	projects ProjectFinder
	people   BenchReporter
	defaults simulation.Input
	clock    util.Clock
	runIDs   *util.RunIDGenerator
	traceIDs *util.IDGenerator

	mu      sync.Mutex
	history []Run
	size    int
}

// NewService creates a planning service. projects and people may be nil
// when Suggest is not used.
func NewService(projects ProjectFinder, people BenchReporter, cfg Config) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = util.SystemClock{}
	}
	size := cfg.HistorySize
	if size <= 0 {
		size = DefaultHistorySize
	}
	defaults := cfg.Defaults
	if defaults == (simulation.Input{}) {
		defaults = simulation.Defaults()
	}

	return &Service{
		sim:      simulation.NewSimulator(clock.Now),
		projects: projects,
		people:   people,
		defaults: defaults,
		clock:    clock,
		runIDs:   util.NewRunIDGenerator(),
		traceIDs: util.NewIDGenerator(),
		size:     size,
	}
}

// Run validates the input and simulates it. Invalid input returns an error
// wrapping simulation.ErrInvalidInput and records nothing.
func (s *Service) Run(ctx context.Context, in simulation.Input) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}

	res, err := s.sim.Simulate(in)
	if err != nil {
		slog.Warn("simulation rejected", "strategy", in.Strategy, "error", err)
		return Run{}, err
	}

	run := Run{
		ID:      s.runIDs.Next(res.ExecutedAt),
		TraceID: s.traceIDs.NewID(),
		Input:   in,
		Result:  res,
	}

	s.mu.Lock()
	s.history = append(s.history, run)
	if len(s.history) > s.size {
		s.history = s.history[len(s.history)-s.size:]
	}
	s.mu.Unlock()

	slog.Info("simulation complete",
		"run", run.ID,
		"trace", run.TraceID,
		"strategy", in.Strategy,
		"internal_mm", res.AllocatedInternalMM,
		"external_mm", res.AllocatedExternalMM,
		"fulfillment", res.FulfillmentPercent,
		"risk", res.RiskIndex,
		"limit_exceeded", res.LimitExceeded,
	)
	return run, nil
}

// History returns recorded runs, newest first.
func (s *Service) History() []Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Run, len(s.history))
	for i, r := range s.history {
		out[len(s.history)-1-i] = r
	}
	return out
}

// Export builds the interop document for a run.
func (s *Service) Export(run Run) simulation.Export {
	return simulation.NewExport(run.ID, run.Input, run.Result)
}

// Defaults returns the input the simulation form starts with.
func (s *Service) Defaults() simulation.Input {
	return s.defaults
}

// Suggest prefills an input for staffing a project: the project's required
// person-months against the internal bench, with configured costs and strategy.
func (s *Service) Suggest(ctx context.Context, projectID string) (simulation.Input, error) {
	if s.projects == nil || s.people == nil {
		return simulation.Input{}, fmt.Errorf("suggestions need project and workforce data")
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return simulation.Input{}, fmt.Errorf("loading project: %w", err)
	}
	stats, err := s.people.Stats(ctx)
	if err != nil {
		return simulation.Input{}, fmt.Errorf("loading bench capacity: %w", err)
	}

	in := s.defaults
	in.RequiredMM = float64(project.RequiredMM)
	in.AvailableInternalMM = math.Round(stats.BenchMM*10) / 10

	slog.Debug("suggested simulation input", "project", projectID, "required_mm", in.RequiredMM, "bench_mm", in.AvailableInternalMM)
	return in, nil
}
