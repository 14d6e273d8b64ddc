package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/knowlearn/kldash/internal/models"
)

// ProjectRepository handles project data access.
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new project repository.
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, name, required_role, required_mm, budget, status,
	risk_schedule, risk_cost, risk_manpower, risk_technical, risk_external,
	start_date, duration_months`

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, tx *sql.Tx, p *models.Project) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	var ex execer = r.db
	if tx != nil {
		ex = tx
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Name,
		p.RequiredRole,
		p.RequiredMM,
		p.Budget,
		string(p.Status),
		p.Risks.Schedule,
		p.Risks.Cost,
		p.Risks.Manpower,
		p.Risks.Technical,
		p.Risks.External,
		nullableDate(p.StartDate),
		p.DurationMonths,
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

// GetByID retrieves a project by ID.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return p, err
}

// List retrieves projects with filtering and pagination.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter, page models.Pagination) (*models.ProjectList, error) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, string(*filter.Status))
	}
	if filter.OpenOnly {
		conditions = append(conditions, "status != ?")
		args = append(args, string(models.ProjectCompleted))
	}
	if filter.Role != "" && filter.Role != models.FilterAll {
		conditions = append(conditions, "required_role = ?")
		args = append(args, filter.Role)
	}

	where := whereClause(conditions)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM projects "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting projects: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM projects %s %s LIMIT ? OFFSET ?`, projectColumns, where, naturalOrder)
	args = append(args, page.Limit(), page.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}

	return &models.ProjectList{
		Projects:   projects,
		Total:      total,
		Page:       max(page.Page, 1),
		PageSize:   page.Limit(),
		TotalPages: page.TotalPages(total),
	}, nil
}

// RiskAverages averages each risk axis over projects that are not completed.
func (r *ProjectRepository) RiskAverages(ctx context.Context) (*models.PortfolioRisk, error) {
	var pr models.PortfolioRisk
	avg := &pr.Averages

	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(AVG(risk_schedule), 0.0),
			COALESCE(AVG(risk_cost), 0.0),
			COALESCE(AVG(risk_manpower), 0.0),
			COALESCE(AVG(risk_technical), 0.0),
			COALESCE(AVG(risk_external), 0.0)
		FROM projects
		WHERE status != ?`,
		string(models.ProjectCompleted),
	).Scan(&pr.OpenProjects, &avg.Schedule, &avg.Cost, &avg.Manpower, &avg.Technical, &avg.External)
	if err != nil {
		return nil, fmt.Errorf("averaging project risk: %w", err)
	}
	return &pr, nil
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var status string
	var start sql.NullString

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.RequiredRole,
		&p.RequiredMM,
		&p.Budget,
		&status,
		&p.Risks.Schedule,
		&p.Risks.Cost,
		&p.Risks.Manpower,
		&p.Risks.Technical,
		&p.Risks.External,
		&start,
		&p.DurationMonths,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.Status = models.ProjectStatus(status)
	if p.StartDate, err = parseDate(start); err != nil {
		return nil, err
	}
	return &p, nil
}
