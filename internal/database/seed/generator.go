package seed

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/knowlearn/kldash/internal/models"
	"github.com/knowlearn/kldash/internal/repository"
)

// Config configures the seed data generator.
type Config struct {
	Seed     int64
	People   int
	Projects int
	Partners int
}

// Dataset is a generated set of fixtures.
type Dataset struct {
	People   []*models.Person
	Projects []*models.Project
	Partners []*models.Partner
}

// Generator generates seed data.
type Generator struct {
	db  *sql.DB
	cfg Config
	rng *rand.Rand
}

// NewGenerator creates a new seed data generator. db may be nil when only
// Build is used.
func NewGenerator(db *sql.DB, cfg Config) *Generator {
	return &Generator{
		db:  db,
		cfg: cfg,
	}
}

// Build produces the dataset in memory. The same seed always yields the
// same dataset.
func (g *Generator) Build() *Dataset {
	g.rng = rand.New(rand.NewSource(g.cfg.Seed))

	ds := &Dataset{
		People:   make([]*models.Person, 0, g.cfg.People),
		Projects: make([]*models.Project, 0, g.cfg.Projects),
		Partners: make([]*models.Partner, 0, g.cfg.Partners),
	}

	for i := 1; i <= g.cfg.People; i++ {
		ds.People = append(ds.People, g.person(i))
	}
	for i := 1; i <= g.cfg.Projects; i++ {
		ds.Projects = append(ds.Projects, g.project(i))
	}
	for i := 1; i <= g.cfg.Partners; i++ {
		ds.Partners = append(ds.Partners, g.partner(i))
	}

	return ds
}

// Generate builds the dataset and inserts it in a single transaction.
func (g *Generator) Generate(ctx context.Context) (*Dataset, error) {
	slog.Info("starting seed data generation",
		"seed", g.cfg.Seed,
		"people", g.cfg.People,
		"projects", g.cfg.Projects,
		"partners", g.cfg.Partners,
	)

	ds := g.Build()

	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	people := repository.NewPersonRepository(g.db)
	for _, p := range ds.People {
		if err := people.Create(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("inserting person %s: %w", p.ID, err)
		}
	}

	projects := repository.NewProjectRepository(g.db)
	for _, p := range ds.Projects {
		if err := projects.Create(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("inserting project %s: %w", p.ID, err)
		}
	}

	partners := repository.NewPartnerRepository(g.db)
	for _, p := range ds.Partners {
		if err := partners.Create(ctx, tx, p); err != nil {
			return nil, fmt.Errorf("inserting partner %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	slog.Info("seed data generation complete",
		"people", len(ds.People),
		"projects", len(ds.Projects),
		"partners", len(ds.Partners),
	)

	return ds, nil
}

// seededTables lists every table the generator writes, children first.
var seededTables = []string{
	"person_skills",
	"person_certifications",
	"person_projects",
	"people",
	"projects",
	"partner_certifications",
	"partners",
}

// Reset removes all generated data while keeping the schema.
func Reset(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range seededTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing reset: %w", err)
	}
	slog.Info("seed data cleared")
	return nil
}

// IsEmpty reports whether the database holds no people.
func IsEmpty(ctx context.Context, db *sql.DB) (bool, error) {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM people").Scan(&count); err != nil {
		return false, fmt.Errorf("counting people: %w", err)
	}
	return count == 0, nil
}

func (g *Generator) person(i int) *models.Person {
	personType := models.PersonTypeInternal
	if g.rng.Float64() < externalShare {
		personType = models.PersonTypeExternal
	}
	risk := models.RiskLow
	if g.rng.Float64() < highRiskShare {
		risk = models.RiskHigh
	}

	levels := []models.Level{models.LevelJunior, models.LevelMiddle, models.LevelSenior, models.LevelExpert}

	return &models.Person{
		ID:                fmt.Sprintf("P%d", i),
		Name:              fmt.Sprintf("Employee %d", i),
		Role:              g.pick(Roles),
		Type:              personType,
		Department:        g.pick(Departments),
		Level:             levels[g.rng.Intn(len(levels))],
		Skills:            g.sample(Skills, 2+g.rng.Intn(4)),
		Certifications:    g.sample(Certifications, g.rng.Intn(4)),
		ProjectExperience: g.sample(ProjectNames, 1+g.rng.Intn(4)),
		Availability:      g.rng.Intn(101),
		AvailableFrom:     g.date(1 + g.rng.Intn(28)),
		Salary:            g.between(4000, 12000),
		Rating:            g.rating(3.0, 5.0),
		RiskFactor:        risk,
		ProjectCount:      g.between(1, 10),
		Email:             fmt.Sprintf("employee%d@knowlearn.com", i),
	}
}

func (g *Generator) project(i int) *models.Project {
	statuses := []models.ProjectStatus{models.ProjectPlanning, models.ProjectActive, models.ProjectCompleted}

	return &models.Project{
		ID:           fmt.Sprintf("PRJ%d", i),
		Name:         fmt.Sprintf("Project Alpha %d", i),
		RequiredRole: g.pick(Roles),
		RequiredMM:   g.between(10, 50),
		Budget:       g.between(100000, 500000),
		Status:       statuses[g.rng.Intn(len(statuses))],
		Risks: models.RiskProfile{
			Schedule:  g.between(20, 90),
			Cost:      g.between(20, 90),
			Manpower:  g.between(20, 90),
			Technical: g.between(20, 90),
			External:  g.between(20, 90),
		},
		StartDate:      g.date(1),
		DurationMonths: g.between(3, 12),
	}
}

func (g *Generator) partner(i int) *models.Partner {
	tiers := []string{models.TierStrategic, models.TierPreferred, models.TierGeneral}
	status := models.ContractExpired
	if g.rng.Float64() < activeShare {
		status = models.ContractActive
	}

	certs := make([]string, 1+g.rng.Intn(len(PartnerCertifications)))
	copy(certs, PartnerCertifications)

	return &models.Partner{
		ID:                  fmt.Sprintf("PTN%d", i),
		Name:                fmt.Sprintf("Partner Corp %d", i),
		Specialty:           g.pick(Specialties),
		Tier:                tiers[g.rng.Intn(len(tiers))],
		AvailableDevelopers: g.between(5, 50),
		Rating:              g.rating(3.5, 5.0),
		ContractStatus:      status,
		Contact:             fmt.Sprintf("contact@partner%d.com", i),
		Address:             fmt.Sprintf("Seoul, Samsung-dong, Trade Tower %dF", i),
		FoundedYear:         g.between(2000, 2020),
		Employees:           g.between(50, 500),
		CompletedProjects:   g.between(10, 100),
		Certifications:      certs,
		Description:         PartnerDescription,
	}
}

func (g *Generator) pick(values []string) string {
	return values[g.rng.Intn(len(values))]
}

// sample draws n times with replacement and keeps the first occurrence of
// each value, so the result may be shorter than n.
func (g *Generator) sample(values []string, n int) []string {
	if n == 0 {
		return nil
	}
	seen := make(map[string]bool, n)
	out := make([]string, 0, n)
	for range n {
		v := g.pick(values)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// between returns an integer in [lo, hi].
func (g *Generator) between(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// rating returns a value in [lo, hi] rounded to one decimal place.
func (g *Generator) rating(lo, hi float64) float64 {
	v := lo + g.rng.Float64()*(hi-lo)
	return math.Round(v*10) / 10
}

// date returns a day in a random month of the fixture year.
func (g *Generator) date(day int) time.Time {
	month := time.Month(1 + g.rng.Intn(12))
	return time.Date(fixtureYear, month, day, 0, 0, 0, 0, time.UTC)
}
