package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/testutil"
)

func TestPartnerRepository_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPartnerRepository(db.DB.DB)
	ctx := context.Background()

	partner := testutil.FixturePartner()
	if err := repo.Create(ctx, nil, partner); err != nil {
		t.Fatalf("failed to create partner: %v", err)
	}

	found, err := repo.GetByID(ctx, partner.ID)
	if err != nil {
		t.Fatalf("failed to get partner: %v", err)
	}
	if diff := cmp.Diff(partner, found); diff != "" {
		t.Errorf("partner mismatch (-want +got):\n%s", diff)
	}

	if _, err := repo.GetByID(ctx, "PTN404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func seedPartners(t *testing.T, repo *PartnerRepository) {
	t.Helper()

	partners := []*models.Partner{
		testutil.FixturePartner(func(p *models.Partner) {
			p.ID = "PTN1"
			p.Name = "Acme Cloud"
			p.Tier = models.TierStrategic
			p.AvailableDevelopers = 20
			p.Rating = 4.0
		}),
		testutil.FixturePartner(func(p *models.Partner) {
			p.ID = "PTN2"
			p.Name = "Pixel Works"
			p.Specialty = "UX/UI Design"
			p.Description = "Design studio for 100% mobile experiences."
			p.AvailableDevelopers = 10
			p.Rating = 5.0
		}),
		testutil.FixturePartner(func(p *models.Partner) {
			p.ID = "PTN10"
			p.Name = "Legacy SI"
			p.Specialty = "SI/SM"
			p.ContractStatus = models.ContractExpired
			p.AvailableDevelopers = 30
			p.Rating = 3.0
			p.Certifications = nil
		}),
	}

	for _, p := range partners {
		if err := repo.Create(context.Background(), nil, p); err != nil {
			t.Fatalf("failed to create %s: %v", p.ID, err)
		}
	}
}

func TestPartnerRepository_List(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPartnerRepository(db.DB.DB)
	seedPartners(t, repo)

	tests := []struct {
		name   string
		filter models.PartnerFilter
		want   []string
	}{
		{"all", models.PartnerFilter{}, []string{"PTN1", "PTN2", "PTN10"}},
		{"search name ignores case", models.PartnerFilter{Search: "ACME"}, []string{"PTN1"}},
		{"search description", models.PartnerFilter{Search: "studio"}, []string{"PTN2"}},
		{"search escapes wildcards", models.PartnerFilter{Search: "100%"}, []string{"PTN2"}},
		{"by specialty", models.PartnerFilter{Specialty: "Cloud Infra"}, []string{"PTN1"}},
		{"by tier", models.PartnerFilter{Tier: models.TierStrategic}, []string{"PTN1"}},
		{"by status", models.PartnerFilter{Status: "Expired"}, []string{"PTN10"}},
		{"All selections", models.PartnerFilter{Specialty: models.FilterAll, Tier: models.FilterAll, Status: models.FilterAll}, []string{"PTN1", "PTN2", "PTN10"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(context.Background(), tt.filter, models.DefaultPagination())
			if err != nil {
				t.Fatalf("failed to list partners: %v", err)
			}

			var got []string
			for _, p := range list.Partners {
				got = append(got, p.ID)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ids mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPartnerRepository_Stats(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewPartnerRepository(db.DB.DB)
	seedPartners(t, repo)

	stats, err := repo.Stats(context.Background())
	if err != nil {
		t.Fatalf("failed to get stats: %v", err)
	}

	want := &models.PartnerStats{
		Total:         3,
		Active:        2,
		AvailableDevs: 30,
		AvgRating:     4.0,
		BySpecialtyCount: map[string]int{
			"Cloud Infra":  1,
			"UX/UI Design": 1,
			"SI/SM":        1,
		},
	}
	if diff := cmp.Diff(want, stats); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}
