// Package dashboard computes the headline metrics shown on the dashboard.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/services/portfolio"
	"github.com/knowlearn/kldash/internal/util"
)

// PeopleSource aggregates the talent pool.
type PeopleSource interface {
	Stats(ctx context.Context) (*models.WorkforceStats, error)
}

// ProjectSource averages project risk.
type ProjectSource interface {
	RiskAverages(ctx context.Context) (*models.PortfolioRisk, error)
}

// PartnerSource aggregates vendor capacity.
type PartnerSource interface {
	Stats(ctx context.Context) (*models.PartnerStats, error)
}

// OutsourceCeiling is the managed upper bound for the outsourcing ratio, in percent.
const OutsourceCeiling = 20.0

// Overview is the dashboard snapshot.
type Overview struct {
	TotalPeople int `json:"totalPeople"`

	// AvgUtilization is the mean availability across everyone, rounded.
	AvgUtilization int `json:"avgUtilization"`

	// OutsourceRatio is external headcount over total, in percent with one decimal.
	OutsourceRatio float64 `json:"outsourceRatio"`
	HighRiskCount  int     `json:"highRiskCount"`

	InternalUtilization int     `json:"internalUtilization"`
	ExternalUtilization int     `json:"externalUtilization"`
	BenchMM             float64 `json:"benchMM"`

	OpenProjects int               `json:"openProjects"`
	RiskRadar    []models.RiskAxis `json:"riskRadar"`

	ActivePartners      int     `json:"activePartners"`
	AvailablePartnerDev int     `json:"availablePartnerDevelopers"`
	PartnerRating       float64 `json:"partnerRating"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// OutsourceWithinLimit reports whether the outsourcing ratio is below the ceiling.
func (o *Overview) OutsourceWithinLimit() bool {
	return o.OutsourceRatio < OutsourceCeiling
}

// Service computes dashboard overviews.
type Service struct {
	people   PeopleSource
	projects ProjectSource
	partners PartnerSource
	clock    util.Clock
}

// NewService creates a dashboard service. A nil clock uses the system clock.
func NewService(people PeopleSource, projects ProjectSource, partners PartnerSource, clock util.Clock) *Service {
	if clock == nil {
		clock = util.SystemClock{}
	}
	return &Service{
		people:   people,
		projects: projects,
		partners: partners,
		clock:    clock,
	}
}

// Overview runs the three aggregate queries concurrently and derives the
// dashboard metrics. The first failure cancels the others.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	var (
		people   *models.WorkforceStats
		risk     *models.PortfolioRisk
		partners *models.PartnerStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		people, err = s.people.Stats(gctx)
		if err != nil {
			return fmt.Errorf("workforce stats: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		risk, err = s.projects.RiskAverages(gctx)
		if err != nil {
			return fmt.Errorf("project risk: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		partners, err = s.partners.Stats(gctx)
		if err != nil {
			return fmt.Errorf("partner stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o := &Overview{
		TotalPeople:         people.Total,
		AvgUtilization:      int(math.Round(people.AvgAvailability)),
		OutsourceRatio:      math.Round(people.OutsourceRatio()*10) / 10,
		HighRiskCount:       people.HighRisk,
		InternalUtilization: int(math.Round(people.AvgInternalAvailability)),
		ExternalUtilization: int(math.Round(people.AvgExternalAvailability)),
		BenchMM:             people.BenchMM,
		OpenProjects:        risk.OpenProjects,
		RiskRadar:           portfolio.Radar(risk),
		ActivePartners:      partners.Active,
		AvailablePartnerDev: partners.AvailableDevs,
		PartnerRating:       math.Round(partners.AvgRating*10) / 10,
		GeneratedAt:         s.clock.Now(),
	}

	slog.Debug("dashboard overview computed",
		"people", o.TotalPeople,
		"outsource_ratio", o.OutsourceRatio,
		"open_projects", o.OpenProjects,
	)
	return o, nil
}
