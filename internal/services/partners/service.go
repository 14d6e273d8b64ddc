// Package partners provides vendor search services.
package partners

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/knowlearn/kldash/internal/database/seed"
	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/repository"
)

// Service provides partner operations.
type Service struct {
	partners *repository.PartnerRepository
}

// NewService creates a new partner service.
func NewService(db *sql.DB) *Service {
	return &Service{
		partners: repository.NewPartnerRepository(db),
	}
}

// Search lists partners matching the filter.
func (s *Service) Search(ctx context.Context, filter models.PartnerFilter, page models.Pagination) (*models.PartnerList, error) {
	list, err := s.partners.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("searching partners: %w", err)
	}
	return list, nil
}

// Get retrieves a partner by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Partner, error) {
	return s.partners.GetByID(ctx, id)
}

// Stats aggregates vendor capacity.
func (s *Service) Stats(ctx context.Context) (*models.PartnerStats, error) {
	return s.partners.Stats(ctx)
}

// Options lists the select values offered by the partner search form.
type Options struct {
	Specialties []string
	Tiers       []string
	Statuses    []string
}

// FilterOptions returns the partner search select values, each starting
// with models.FilterAll.
func FilterOptions() Options {
	return Options{
		Specialties: append([]string{models.FilterAll}, seed.Specialties...),
		Tiers:       []string{models.FilterAll, models.TierStrategic, models.TierPreferred, models.TierGeneral},
		Statuses:    []string{models.FilterAll, string(models.ContractActive), string(models.ContractExpired)},
	}
}
