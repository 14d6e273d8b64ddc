// Package portfolio provides project portfolio services.
package portfolio

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/repository"
)

// Service provides project operations.
type Service struct {
	projects *repository.ProjectRepository
}

// NewService creates a new portfolio service.
func NewService(db *sql.DB) *Service {
	return &Service{
		projects: repository.NewProjectRepository(db),
	}
}

// List retrieves projects matching the filter.
func (s *Service) List(ctx context.Context, filter models.ProjectFilter, page models.Pagination) (*models.ProjectList, error) {
	list, err := s.projects.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return list, nil
}

// Get retrieves a project by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Project, error) {
	return s.projects.GetByID(ctx, id)
}

// RiskAverages returns raw averages over open projects.
func (s *Service) RiskAverages(ctx context.Context) (*models.PortfolioRisk, error) {
	return s.projects.RiskAverages(ctx)
}

// RiskRadar returns the average risk per axis over open projects, each
// rounded to a whole score. All axes are zero when no project is open.
func (s *Service) RiskRadar(ctx context.Context) ([]models.RiskAxis, error) {
	risk, err := s.projects.RiskAverages(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing risk radar: %w", err)
	}
	return Radar(risk), nil
}

// Radar rounds portfolio averages into radar axes.
func Radar(risk *models.PortfolioRisk) []models.RiskAxis {
	axes := risk.Averages.Axes()
	for i := range axes {
		axes[i].Value = math.Round(axes[i].Value)
	}
	return axes
}

