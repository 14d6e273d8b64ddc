package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/knowlearn/kldash/internal/models"
)

// FixturePerson creates an internal developer with sensible defaults.
func FixturePerson(overrides ...func(*models.Person)) *models.Person {
	id := "P-" + uuid.New().String()[:8]

	person := &models.Person{
		ID:                id,
		Name:              "Test Employee",
		Role:              "Developer",
		Type:              models.PersonTypeInternal,
		Department:        "Platform Team",
		Level:             models.LevelSenior,
		Skills:            []string{"Java", "Spring Boot"},
		Certifications:    []string{"AWS SA"},
		ProjectExperience: []string{"Project Alpha"},
		Availability:      50,
		AvailableFrom:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Salary:            6000,
		Rating:            4.2,
		RiskFactor:        models.RiskLow,
		ProjectCount:      3,
		Email:             "test@knowlearn.com",
	}

	for _, override := range overrides {
		override(person)
	}

	return person
}

// FixtureContractor creates an external contractor.
func FixtureContractor(overrides ...func(*models.Person)) *models.Person {
	return FixturePerson(append([]func(*models.Person){
		func(p *models.Person) {
			p.Type = models.PersonTypeExternal
			p.Name = "Test Contractor"
			p.Department = "Service Dev"
		},
	}, overrides...)...)
}

// FixtureProject creates an active project with sensible defaults.
func FixtureProject(overrides ...func(*models.Project)) *models.Project {
	id := "PRJ-" + uuid.New().String()[:8]

	project := &models.Project{
		ID:           id,
		Name:         "Project Alpha Test",
		RequiredRole: "Developer",
		RequiredMM:   20,
		Budget:       200000,
		Status:       models.ProjectActive,
		Risks: models.RiskProfile{
			Schedule:  40,
			Cost:      50,
			Manpower:  60,
			Technical: 30,
			External:  20,
		},
		StartDate:      time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		DurationMonths: 6,
	}

	for _, override := range overrides {
		override(project)
	}

	return project
}

// FixturePartner creates an active vendor with sensible defaults.
func FixturePartner(overrides ...func(*models.Partner)) *models.Partner {
	id := "PTN-" + uuid.New().String()[:8]

	partner := &models.Partner{
		ID:                  id,
		Name:                "Partner Corp Test",
		Specialty:           "Cloud Infra",
		Tier:                models.TierPreferred,
		AvailableDevelopers: 12,
		Rating:              4.5,
		ContractStatus:      models.ContractActive,
		Contact:             "contact@partner.test",
		Address:             "Seoul, Samsung-dong, Trade Tower 1F",
		FoundedYear:         2010,
		Employees:           120,
		CompletedProjects:   40,
		Certifications:      []string{"ISO 27001", "CMMI Level 3"},
		Description:         "Specialized in enterprise system integration and cloud migration services.",
	}

	for _, override := range overrides {
		override(partner)
	}

	return partner
}
