package models

import (
	"fmt"
	"time"
)

// PersonType distinguishes employees from contracted staff.
type PersonType string

const (
	PersonTypeInternal PersonType = "Internal"
	PersonTypeExternal PersonType = "External"
)

// Valid returns true if the person type is valid.
func (t PersonType) Valid() bool {
	return t == PersonTypeInternal || t == PersonTypeExternal
}

// Level is a seniority band.
type Level string

const (
	LevelJunior Level = "Junior"
	LevelMiddle Level = "Middle"
	LevelSenior Level = "Senior"
	LevelExpert Level = "Expert"
)

// Valid returns true if the level is valid.
func (l Level) Valid() bool {
	switch l {
	case LevelJunior, LevelMiddle, LevelSenior, LevelExpert:
		return true
	default:
		return false
	}
}

// RiskFactor marks people flagged for retention or delivery risk.
type RiskFactor string

const (
	RiskLow  RiskFactor = "Low"
	RiskHigh RiskFactor = "High"
)

// Valid returns true if the risk factor is valid.
func (r RiskFactor) Valid() bool {
	return r == RiskLow || r == RiskHigh
}

// Person is a member of the talent pool, internal or external.
type Person struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Type       PersonType `json:"type"`
	Department string     `json:"department"`
	Level      Level      `json:"level"`

	Skills            []string `json:"skills"`
	Certifications    []string `json:"certifications"`
	ProjectExperience []string `json:"projectExperience"`

	// Availability is the share of capacity free for new work, 0-100.
	Availability  int       `json:"availability"`
	AvailableFrom time.Time `json:"availableFrom"`

	// Salary is the monthly cost in units of 10,000 KRW.
	Salary     int        `json:"salary"`
	Rating     float64    `json:"rating"`
	RiskFactor RiskFactor `json:"riskFactor"`

	// ProjectCount is the number of past project assignments.
	ProjectCount int    `json:"projectHistory"`
	Email        string `json:"email"`
}

// IsOutsourced returns true for contracted staff.
func (p *Person) IsOutsourced() bool {
	return p.Type == PersonTypeExternal
}

// IsHighRisk returns true if the person carries a high risk flag.
func (p *Person) IsHighRisk() bool {
	return p.RiskFactor == RiskHigh
}

// HasSkill reports whether the person lists the skill.
func (p *Person) HasSkill(skill string) bool {
	return contains(p.Skills, skill)
}

// Validate checks if the person data is valid.
func (p *Person) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Role == "" {
		return fmt.Errorf("role is required")
	}
	if !p.Type.Valid() {
		return fmt.Errorf("invalid type: %s", p.Type)
	}
	if !p.Level.Valid() {
		return fmt.Errorf("invalid level: %s", p.Level)
	}
	if p.Availability < 0 || p.Availability > 100 {
		return fmt.Errorf("availability must be between 0 and 100")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return fmt.Errorf("rating must be between 0 and 5")
	}
	if p.RiskFactor != "" && !p.RiskFactor.Valid() {
		return fmt.Errorf("invalid risk_factor: %s", p.RiskFactor)
	}
	return nil
}

// PersonFilter defines filtering options for talent searches.
// Empty string fields and nil pointers do not restrict results.
type PersonFilter struct {
	Role          string
	Skill         string
	Department    string
	Certification string
	Type          *PersonType

	// Project matches project experience by case-insensitive substring.
	Project string

	MinAvailability int

	// AvailableBy keeps people whose available-from date is on or before it.
	AvailableBy *time.Time
}

// HasRole reports whether the role filter is active.
func (f PersonFilter) HasRole() bool          { return isSet(f.Role) }
func (f PersonFilter) HasSkill() bool         { return isSet(f.Skill) }
func (f PersonFilter) HasDepartment() bool    { return isSet(f.Department) }
func (f PersonFilter) HasCertification() bool { return isSet(f.Certification) }

// PersonList represents a paginated list of people.
type PersonList struct {
	People     []*Person
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// WorkforceStats aggregates the talent pool for the dashboard.
type WorkforceStats struct {
	Total                   int
	Internal                int
	External                int
	HighRisk                int
	AvgAvailability         float64
	AvgInternalAvailability float64
	AvgExternalAvailability float64

	// BenchMM is the internal capacity free this month, in person-months.
	BenchMM float64
}

// OutsourceRatio returns external staff as a percentage of the pool.
func (s WorkforceStats) OutsourceRatio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.External) / float64(s.Total) * 100
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
