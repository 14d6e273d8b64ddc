package partners

import (
	"context"
	"testing"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/repository"
	"github.com/knowlearn/kldash/internal/testutil"
)

func TestSearchAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewPartnerRepository(db.DB.DB)
	ctx := context.Background()

	for _, p := range []*models.Partner{
		testutil.FixturePartner(func(p *models.Partner) {
			p.ID = "PTN1"
			p.Name = "Orbit Mobile"
			p.Specialty = "Mobile App"
		}),
		testutil.FixturePartner(func(p *models.Partner) {
			p.ID = "PTN2"
			p.ContractStatus = models.ContractExpired
		}),
	} {
		if err := repo.Create(ctx, nil, p); err != nil {
			t.Fatalf("failed to create %s: %v", p.ID, err)
		}
	}

	svc := NewService(db.DB.DB)

	list, err := svc.Search(ctx, models.PartnerFilter{Search: "orbit"}, models.DefaultPagination())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if list.Total != 1 || list.Partners[0].ID != "PTN1" {
		t.Errorf("expected only PTN1, got %d results", list.Total)
	}

	p, err := svc.Get(ctx, "PTN2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.IsActive() {
		t.Error("expected PTN2 to be expired")
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Active != 1 {
		t.Errorf("expected 1 active partner, got %d", stats.Active)
	}
}

func TestFilterOptions(t *testing.T) {
	opts := FilterOptions()

	if opts.Specialties[0] != models.FilterAll || len(opts.Specialties) != 6 {
		t.Errorf("unexpected specialties %v", opts.Specialties)
	}
	if len(opts.Tiers) != 4 || opts.Tiers[1] != models.TierStrategic {
		t.Errorf("unexpected tiers %v", opts.Tiers)
	}
	if len(opts.Statuses) != 3 {
		t.Errorf("unexpected statuses %v", opts.Statuses)
	}
}
