// Package workforce provides talent pool search services.
package workforce

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/repository"
)

// Service provides talent search operations.
type Service struct {
	people *repository.PersonRepository
}

// NewService creates a new workforce service.
func NewService(db *sql.DB) *Service {
	return &Service{
		people: repository.NewPersonRepository(db),
	}
}

// Search lists people matching the filter.
func (s *Service) Search(ctx context.Context, filter models.PersonFilter, page models.Pagination) (*models.PersonList, error) {
	list, err := s.people.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("searching talent pool: %w", err)
	}
	slog.Debug("talent search", "role", filter.Role, "skill", filter.Skill, "results", list.Total)
	return list, nil
}

// Get retrieves a person by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Person, error) {
	return s.people.GetByID(ctx, id)
}

// Stats aggregates the talent pool.
func (s *Service) Stats(ctx context.Context) (*models.WorkforceStats, error) {
	return s.people.Stats(ctx)
}

// FilterOptions holds the values offered by each select in the search
// form. Every list starts with models.FilterAll.
type FilterOptions struct {
	Roles          []string
	Departments    []string
	Skills         []string
	Certifications []string
}

// FilterOptions lists the values present in the talent pool.
func (s *Service) FilterOptions(ctx context.Context) (*FilterOptions, error) {
	opts := &FilterOptions{}
	targets := []struct {
		option string
		dest   *[]string
	}{
		{"role", &opts.Roles},
		{"department", &opts.Departments},
		{"skill", &opts.Skills},
		{"certification", &opts.Certifications},
	}

	for _, t := range targets {
		values, err := s.people.Distinct(ctx, t.option)
		if err != nil {
			return nil, err
		}
		*t.dest = append([]string{models.FilterAll}, values...)
	}
	return opts, nil
}

// RoleCount is the headcount for one role.
type RoleCount struct {
	Role  string
	Count int
}

// RoleMix returns headcount per role, largest first.
func (s *Service) RoleMix(ctx context.Context) ([]RoleCount, error) {
	counts, err := s.people.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	mix := make([]RoleCount, 0, len(counts))
	for role, n := range counts {
		mix = append(mix, RoleCount{Role: role, Count: n})
	}
	sort.Slice(mix, func(i, j int) bool {
		if mix[i].Count != mix[j].Count {
			return mix[i].Count > mix[j].Count
		}
		return mix[i].Role < mix[j].Role
	})
	return mix, nil
}
