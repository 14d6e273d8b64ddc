package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/knowlearn/kldash/internal/models"
)

// PersonRepository handles talent pool data access.
type PersonRepository struct {
	db *sql.DB
}

// NewPersonRepository creates a new person repository.
func NewPersonRepository(db *sql.DB) *PersonRepository {
	return &PersonRepository{db: db}
}

const personColumns = `id, name, role, type, department, level, availability, available_from,
	salary, rating, risk_factor, project_count, email`

// Create inserts a person together with their skills, certifications and
// project history. When tx is nil the insert runs in its own transaction.
func (r *PersonRepository) Create(ctx context.Context, tx *sql.Tx, p *models.Person) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if p.RiskFactor == "" {
		p.RiskFactor = models.RiskLow
	}

	return inTx(ctx, r.db, tx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO people (`+personColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID,
			p.Name,
			p.Role,
			string(p.Type),
			p.Department,
			string(p.Level),
			p.Availability,
			nullableDate(p.AvailableFrom),
			p.Salary,
			p.Rating,
			string(p.RiskFactor),
			p.ProjectCount,
			nullableString(p.Email),
		)
		if err != nil {
			return fmt.Errorf("inserting person: %w", err)
		}

		if err := insertList(ctx, tx, "person_skills", "person_id", "skill", p.ID, p.Skills); err != nil {
			return err
		}
		if err := insertList(ctx, tx, "person_certifications", "person_id", "certification", p.ID, p.Certifications); err != nil {
			return err
		}
		return insertList(ctx, tx, "person_projects", "person_id", "project", p.ID, p.ProjectExperience)
	})
}

// GetByID retrieves a person by ID.
func (r *PersonRepository) GetByID(ctx context.Context, id string) (*models.Person, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+personColumns+` FROM people WHERE id = ?`, id)

	p, err := scanPerson(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("person %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := r.attachLists(ctx, []*models.Person{p}); err != nil {
		return nil, err
	}
	return p, nil
}

// List retrieves people matching the filter with pagination.
func (r *PersonRepository) List(ctx context.Context, filter models.PersonFilter, page models.Pagination) (*models.PersonList, error) {
	var conditions []string
	var args []any

	if filter.HasRole() {
		conditions = append(conditions, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.HasDepartment() {
		conditions = append(conditions, "department = ?")
		args = append(args, filter.Department)
	}
	if filter.Type != nil {
		conditions = append(conditions, "type = ?")
		args = append(args, string(*filter.Type))
	}
	if filter.HasSkill() {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM person_skills s WHERE s.person_id = people.id AND s.skill = ?)")
		args = append(args, filter.Skill)
	}
	if filter.HasCertification() {
		conditions = append(conditions,
			"EXISTS (SELECT 1 FROM person_certifications c WHERE c.person_id = people.id AND c.certification = ?)")
		args = append(args, filter.Certification)
	}
	if filter.Project != "" {
		conditions = append(conditions,
			`EXISTS (SELECT 1 FROM person_projects pp WHERE pp.person_id = people.id AND LOWER(pp.project) LIKE ? ESCAPE '\')`)
		args = append(args, likePattern(filter.Project))
	}
	if filter.MinAvailability > 0 {
		conditions = append(conditions, "availability >= ?")
		args = append(args, filter.MinAvailability)
	}
	if filter.AvailableBy != nil {
		conditions = append(conditions, "available_from IS NOT NULL AND available_from <= ?")
		args = append(args, filter.AvailableBy.Format(time.DateOnly))
	}

	where := whereClause(conditions)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM people "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting people: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM people %s %s LIMIT ? OFFSET ?`, personColumns, where, naturalOrder)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying people: %w", err)
	}
	defer rows.Close()

	var people []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating people: %w", err)
	}

	if err := r.attachLists(ctx, people); err != nil {
		return nil, err
	}

	return &models.PersonList{
		People:     people,
		Total:      total,
		Page:       max(page.Page, 1),
		PageSize:   page.Limit(),
		TotalPages: page.TotalPages(total),
	}, nil
}

// Stats aggregates the talent pool.
func (r *PersonRepository) Stats(ctx context.Context) (*models.WorkforceStats, error) {
	var s models.WorkforceStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN type = 'Internal' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN type = 'External' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN risk_factor = 'High' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(availability), 0.0),
			COALESCE(AVG(CASE WHEN type = 'Internal' THEN availability END), 0.0),
			COALESCE(AVG(CASE WHEN type = 'External' THEN availability END), 0.0),
			COALESCE(SUM(CASE WHEN type = 'Internal' THEN availability END), 0) / 100.0
		FROM people`,
	).Scan(
		&s.Total,
		&s.Internal,
		&s.External,
		&s.HighRisk,
		&s.AvgAvailability,
		&s.AvgInternalAvailability,
		&s.AvgExternalAvailability,
		&s.BenchMM,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating people: %w", err)
	}
	return &s, nil
}

// CountByRole returns the number of people per role.
func (r *PersonRepository) CountByRole(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM people GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("counting by role: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var role string
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("scanning role count: %w", err)
		}
		counts[role] = count
	}
	return counts, rows.Err()
}

// distinctQueries maps a filter option to the query listing its values.
var distinctQueries = map[string]string{
	"role":          `SELECT DISTINCT role FROM people ORDER BY role`,
	"department":    `SELECT DISTINCT department FROM people WHERE department != '' ORDER BY department`,
	"skill":         `SELECT DISTINCT skill FROM person_skills ORDER BY skill`,
	"certification": `SELECT DISTINCT certification FROM person_certifications ORDER BY certification`,
}

// Distinct lists the values present for a filter option: "role",
// "department", "skill" or "certification".
func (r *PersonRepository) Distinct(ctx context.Context, option string) ([]string, error) {
	query, ok := distinctQueries[option]
	if !ok {
		return nil, fmt.Errorf("unknown filter option: %s", option)
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing %s values: %w", option, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s value: %w", option, err)
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

func (r *PersonRepository) attachLists(ctx context.Context, people []*models.Person) error {
	if len(people) == 0 {
		return nil
	}

	ids := make([]string, len(people))
	for i, p := range people {
		ids[i] = p.ID
	}

	skills, err := loadLists(ctx, r.db, "person_skills", "person_id", "skill", ids)
	if err != nil {
		return err
	}
	certs, err := loadLists(ctx, r.db, "person_certifications", "person_id", "certification", ids)
	if err != nil {
		return err
	}
	projects, err := loadLists(ctx, r.db, "person_projects", "person_id", "project", ids)
	if err != nil {
		return err
	}

	for _, p := range people {
		p.Skills = skills[p.ID]
		p.Certifications = certs[p.ID]
		p.ProjectExperience = projects[p.ID]
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var p models.Person
	var personType, level, risk string
	var availableFrom, email sql.NullString

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Role,
		&personType,
		&p.Department,
		&level,
		&p.Availability,
		&availableFrom,
		&p.Salary,
		&p.Rating,
		&risk,
		&p.ProjectCount,
		&email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning person: %w", err)
	}

	p.Type = models.PersonType(personType)
	p.Level = models.Level(level)
	p.RiskFactor = models.RiskFactor(risk)
	p.Email = email.String

	if p.AvailableFrom, err = parseDate(availableFrom); err != nil {
		return nil, err
	}

	return &p, nil
}
