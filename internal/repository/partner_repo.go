package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/knowlearn/kldash/internal/models"
)

// PartnerRepository handles vendor data access.
type PartnerRepository struct {
	db *sql.DB
}

// NewPartnerRepository creates a new partner repository.
func NewPartnerRepository(db *sql.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

const partnerColumns = `id, name, specialty, tier, available_developers, rating, contract_status,
	contact, address, founded_year, employees, completed_projects, description`

// Create inserts a partner and its certifications.
func (r *PartnerRepository) Create(ctx context.Context, tx *sql.Tx, p *models.Partner) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return inTx(ctx, r.db, tx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO partners (`+partnerColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID,
			p.Name,
			p.Specialty,
			p.Tier,
			p.AvailableDevelopers,
			p.Rating,
			string(p.ContractStatus),
			nullableString(p.Contact),
			nullableString(p.Address),
			p.FoundedYear,
			p.Employees,
			p.CompletedProjects,
			p.Description,
		)
		if err != nil {
			return fmt.Errorf("inserting partner: %w", err)
		}
		return insertList(ctx, tx, "partner_certifications", "partner_id", "certification", p.ID, p.Certifications)
	})
}

// GetByID retrieves a partner by ID.
func (r *PartnerRepository) GetByID(ctx context.Context, id string) (*models.Partner, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+partnerColumns+` FROM partners WHERE id = ?`, id)

	p, err := scanPartner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("partner %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := r.attachCertifications(ctx, []*models.Partner{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves partners matching the filter with pagination.
func (r *PartnerRepository) List(ctx context.Context, filter models.PartnerFilter, page models.Pagination) (*models.PartnerList, error) {
	var conditions []string
	var args []any

	if term := filter.SearchTerm(); term != "" {
		conditions = append(conditions, `(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`)
		pattern := likePattern(term)
		args = append(args, pattern, pattern)
	}
	if filter.HasSpecialty() {
		conditions = append(conditions, "specialty = ?")
		args = append(args, filter.Specialty)
	}
	if filter.HasTier() {
		conditions = append(conditions, "tier = ?")
		args = append(args, filter.Tier)
	}
	if filter.HasStatus() {
		conditions = append(conditions, "contract_status = ?")
		args = append(args, filter.Status)
	}

	where := whereClause(conditions)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM partners "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting partners: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM partners %s %s LIMIT ? OFFSET ?`, partnerColumns, where, naturalOrder)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying partners: %w", err)
	}
	defer rows.Close()

	var partners []*models.Partner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating partners: %w", err)
	}

	if err := r.attachCertifications(ctx, partners); err != nil {
		return nil, err
	}

	return &models.PartnerList{
		Partners:   partners,
		Total:      total,
		Page:       max(page.Page, 1),
		PageSize:   page.Limit(),
		TotalPages: page.TotalPages(total),
	}, nil
}

// Stats aggregates vendor capacity across all partners.
func (r *PartnerRepository) Stats(ctx context.Context) (*models.PartnerStats, error) {
	stats := &models.PartnerStats{BySpecialtyCount: make(map[string]int)}

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN contract_status = 'Active' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN contract_status = 'Active' THEN available_developers ELSE 0 END), 0),
			COALESCE(AVG(rating), 0.0)
		FROM partners`,
	).Scan(&stats.Total, &stats.Active, &stats.AvailableDevs, &stats.AvgRating)
	if err != nil {
		return nil, fmt.Errorf("aggregating partners: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT specialty, COUNT(*) FROM partners GROUP BY specialty`)
	if err != nil {
		return nil, fmt.Errorf("counting by specialty: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var specialty string
		var count int
		if err := rows.Scan(&specialty, &count); err != nil {
			return nil, fmt.Errorf("scanning specialty count: %w", err)
		}
		stats.BySpecialtyCount[specialty] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating specialty counts: %w", err)
	}

	return stats, nil
}

func (r *PartnerRepository) attachCertifications(ctx context.Context, partners []*models.Partner) error {
	if len(partners) == 0 {
		return nil
	}

	ids := make([]string, len(partners))
	for i, p := range partners {
		ids[i] = p.ID
	}

	certs, err := loadLists(ctx, r.db, "partner_certifications", "partner_id", "certification", ids)
	if err != nil {
		return err
	}
	for _, p := range partners {
		p.Certifications = certs[p.ID]
	}
	return nil
}

func scanPartner(row rowScanner) (*models.Partner, error) {
	var p models.Partner
	var status string
	var contact, address sql.NullString
	var founded sql.NullInt64

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Specialty,
		&p.Tier,
		&p.AvailableDevelopers,
		&p.Rating,
		&status,
		&contact,
		&address,
		&founded,
		&p.Employees,
		&p.CompletedProjects,
		&p.Description,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning partner: %w", err)
	}

	p.ContractStatus = models.ContractStatus(status)
	p.Contact = contact.String
	p.Address = address.String
	p.FoundedYear = int(founded.Int64)

	return &p, nil
}
