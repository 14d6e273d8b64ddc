package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/testutil"
)

func TestProjectRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProjectRepository(db.DB.DB)
	ctx := context.Background()

	project := testutil.FixtureProject()
	if err := repo.Create(ctx, nil, project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	found, err := repo.GetByID(ctx, project.ID)
	if err != nil {
		t.Fatalf("failed to get project: %v", err)
	}
	if diff := cmp.Diff(project, found); diff != "" {
		t.Errorf("project mismatch (-want +got):\n%s", diff)
	}

	if _, err := repo.GetByID(ctx, "PRJ404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	bad := testutil.FixtureProject(func(p *models.Project) { p.Risks.Cost = 120 })
	if err := repo.Create(ctx, nil, bad); err == nil {
		t.Error("expected validation error for out of range risk")
	}
}

func seedProjects(t *testing.T, repo *ProjectRepository) {
	t.Helper()

	projects := []*models.Project{
		testutil.FixtureProject(func(p *models.Project) {
			p.ID = "PRJ1"
			p.Status = models.ProjectPlanning
			p.RequiredRole = "PL"
			p.Risks = models.RiskProfile{Schedule: 20, Cost: 40, Manpower: 60, Technical: 80, External: 30}
		}),
		testutil.FixtureProject(func(p *models.Project) {
			p.ID = "PRJ2"
			p.Risks = models.RiskProfile{Schedule: 40, Cost: 60, Manpower: 80, Technical: 20, External: 50}
		}),
		testutil.FixtureProject(func(p *models.Project) {
			p.ID = "PRJ10"
			p.Status = models.ProjectCompleted
			p.Risks = models.RiskProfile{Schedule: 90, Cost: 90, Manpower: 90, Technical: 90, External: 90}
		}),
	}

	for _, p := range projects {
		if err := repo.Create(context.Background(), nil, p); err != nil {
			t.Fatalf("failed to create %s: %v", p.ID, err)
		}
	}
}

func TestProjectRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProjectRepository(db.DB.DB)
	seedProjects(t, repo)

	completed := models.ProjectCompleted

	tests := []struct {
		name   string
		filter models.ProjectFilter
		want   []string
	}{
		{"all", models.ProjectFilter{}, []string{"PRJ1", "PRJ2", "PRJ10"}},
		{"open only", models.ProjectFilter{OpenOnly: true}, []string{"PRJ1", "PRJ2"}},
		{"by status", models.ProjectFilter{Status: &completed}, []string{"PRJ10"}},
		{"by role", models.ProjectFilter{Role: "PL"}, []string{"PRJ1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(context.Background(), tt.filter, models.DefaultPagination())
			if err != nil {
				t.Fatalf("failed to list projects: %v", err)
			}

			var got []string
			for _, p := range list.Projects {
				got = append(got, p.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProjectRepository_RiskAverages(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewProjectRepository(db.DB.DB)
	ctx := context.Background()

	empty, err := repo.RiskAverages(ctx)
	if err != nil {
		t.Fatalf("failed to average empty portfolio: %v", err)
	}
	if empty.OpenProjects != 0 {
		t.Errorf("expected no open projects, got %d", empty.OpenProjects)
	}

	seedProjects(t, repo)

	risk, err := repo.RiskAverages(ctx)
	if err != nil {
		t.Fatalf("failed to average risk: %v", err)
	}

	want := models.PortfolioRisk{
		OpenProjects: 2,
		Averages: models.RiskProfileAverage{
			Schedule:  30,
			Cost:      50,
			Manpower:  70,
			Technical: 50,
			External:  40,
		},
	}
	if diff := cmp.Diff(want, *risk); diff != "" {
		t.Errorf("risk mismatch (-want +got):\n%s", diff)
	}
}

