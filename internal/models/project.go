package models

import (
	"fmt"
	"time"
)

// ProjectStatus represents the lifecycle stage of a project.
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "Planning"
	ProjectActive    ProjectStatus = "Active"
	ProjectCompleted ProjectStatus = "Completed"
)

// Valid returns true if the status is valid.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectCompleted:
		return true
	default:
		return false
	}
}

// RiskProfile scores a project on five risk axes, each 0-100.
type RiskProfile struct {
	Schedule  int `json:"schedule"`
	Cost      int `json:"cost"`
	Manpower  int `json:"manpower"`
	Technical int `json:"technical"`
	External  int `json:"external"`
}

// RiskAxis is one labelled axis of a risk profile.
type RiskAxis struct {
	Name  string
	Value float64
}

// Axes returns the profile as labelled values in display order.
func (r RiskProfile) Axes() []RiskAxis {
	return []RiskAxis{
		{"Schedule", float64(r.Schedule)},
		{"Cost", float64(r.Cost)},
		{"Manpower", float64(r.Manpower)},
		{"Technical", float64(r.Technical)},
		{"External", float64(r.External)},
	}
}

// Average returns the mean across the five axes.
func (r RiskProfile) Average() float64 {
	return float64(r.Schedule+r.Cost+r.Manpower+r.Technical+r.External) / 5
}

// Project is a delivery engagement that needs staffing.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	RequiredRole string        `json:"requiredRole"`
	RequiredMM   int           `json:"requiredMM"`
	Budget       int           `json:"budget"`
	Status       ProjectStatus `json:"status"`
	Risks        RiskProfile   `json:"risks"`

	StartDate      time.Time `json:"startDate"`
	DurationMonths int       `json:"duration"`
}

// EndDate returns the planned completion date.
func (p *Project) EndDate() time.Time {
	return p.StartDate.AddDate(0, p.DurationMonths, 0)
}

// IsOpen returns true if the project still needs delivery capacity.
func (p *Project) IsOpen() bool {
	return p.Status != ProjectCompleted
}

// Validate checks if the project data is valid.
func (p *Project) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !p.Status.Valid() {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	if p.RequiredMM < 0 {
		return fmt.Errorf("required_mm must not be negative")
	}
	for _, axis := range p.Risks.Axes() {
		if axis.Value < 0 || axis.Value > 100 {
			return fmt.Errorf("%s risk must be between 0 and 100", axis.Name)
		}
	}
	return nil
}

// ProjectFilter defines filtering options for project queries.
type ProjectFilter struct {
	Status *ProjectStatus
	Role   string

	// OpenOnly excludes completed projects.
	OpenOnly bool
}

// ProjectList represents a paginated list of projects.
type ProjectList struct {
	Projects   []*Project
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// PortfolioRisk averages risk across open projects.
type PortfolioRisk struct {
	OpenProjects int
	Averages     RiskProfileAverage
}

// RiskProfileAverage is a RiskProfile with fractional values.
type RiskProfileAverage struct {
	Schedule  float64
	Cost      float64
	Manpower  float64
	Technical float64
	External  float64
}

// Axes returns the averages as labelled values in display order.
func (r RiskProfileAverage) Axes() []RiskAxis {
	return []RiskAxis{
		{"Schedule", r.Schedule},
		{"Cost", r.Cost},
		{"Manpower", r.Manpower},
		{"Technical", r.Technical},
		{"External", r.External},
	}
}
