package models

import (
	"fmt"
	"strings"
)

// ContractStatus is the state of a partner's framework contract.
type ContractStatus string

const (
	ContractActive  ContractStatus = "Active"
	ContractExpired ContractStatus = "Expired"
)

// Valid returns true if the contract status is valid.
func (c ContractStatus) Valid() bool {
	return c == ContractActive || c == ContractExpired
}

// Partner tiers.
const (
	TierStrategic = "Tier 1 (Strategic)"
	TierPreferred = "Tier 2 (Preferred)"
	TierGeneral   = "Tier 3 (General)"
)

// Partner is an external vendor that supplies developers.
type Partner struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Specialty           string         `json:"specialty"`
	Tier                string         `json:"tier"`
	AvailableDevelopers int            `json:"availableDevelopers"`
	Rating              float64        `json:"rating"`
	ContractStatus      ContractStatus `json:"contractStatus"`

	Contact string `json:"contact"`
	Address string `json:"address"`

	FoundedYear       int      `json:"foundedYear"`
	Employees         int      `json:"employees"`
	CompletedProjects int      `json:"completedProjects"`
	Certifications    []string `json:"certifications"`
	Description       string   `json:"description"`
}

// IsActive returns true if the partner is under an active contract.
func (p *Partner) IsActive() bool {
	return p.ContractStatus == ContractActive
}

// Validate checks if the partner data is valid.
func (p *Partner) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !p.ContractStatus.Valid() {
		return fmt.Errorf("invalid contract_status: %s", p.ContractStatus)
	}
	if p.AvailableDevelopers < 0 {
		return fmt.Errorf("available_developers must not be negative")
	}
	return nil
}

// PartnerFilter defines filtering options for partner searches.
// Select fields accept "All" or an empty string to mean no filter.
type PartnerFilter struct {
	// Search matches name or description, case-insensitive.
	Search    string
	Specialty string
	Tier      string
	Status    string
}

// SearchTerm returns the trimmed, lower-cased search text.
func (f PartnerFilter) SearchTerm() string {
	return strings.ToLower(strings.TrimSpace(f.Search))
}

// HasSpecialty reports whether the specialty filter is active.
func (f PartnerFilter) HasSpecialty() bool { return isSet(f.Specialty) }

// HasTier reports whether the tier filter is active.
func (f PartnerFilter) HasTier() bool { return isSet(f.Tier) }

// HasStatus reports whether the contract status filter is active.
func (f PartnerFilter) HasStatus() bool { return isSet(f.Status) }

// PartnerList represents a paginated list of partners.
type PartnerList struct {
	Partners   []*Partner
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// PartnerStats aggregates vendor capacity.
type PartnerStats struct {
	Total            int
	Active           int
	AvailableDevs    int
	AvgRating        float64
	BySpecialtyCount map[string]int
}
