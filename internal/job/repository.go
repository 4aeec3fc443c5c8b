package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/launchhire/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, posting *Posting) error
	GetByID(ctx context.Context, id string) (*Posting, error)
	Update(ctx context.Context, posting *Posting) error
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, params ListPostingsParams) ([]Posting, int, error)
	CountActiveByEmployer(ctx context.Context, employerID string) (int, error)
	LockEmployer(ctx context.Context, employerID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, posting *Posting) error {
	query := `
		INSERT INTO job_postings (
			id, employer_id, title, company, description, location, industry,
			remote, employment_type, salary_min, salary_max, active, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
		)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, posting, query,
		posting.ID,
		posting.EmployerID,
		posting.Title,
		posting.Company,
		posting.Description,
		posting.Location,
		posting.Industry,
		posting.Remote,
		posting.EmploymentType,
		posting.SalaryMin,
		posting.SalaryMax,
		posting.Active,
		posting.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create posting: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Posting, error) {
	query := `
		SELECT id, employer_id, title, company, description, location,
		       industry, remote, employment_type, salary_min, salary_max,
		       active, expires_at, created_at, updated_at, deactivated_at
		FROM job_postings
		WHERE id = $1`

	var posting Posting
	err := r.db.GetContext(ctx, &posting, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get posting: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}

	return &posting, nil
}

func (r *repository) Update(ctx context.Context, posting *Posting) error {
	query := `
		UPDATE job_postings
		SET title = $2, company = $3, description = $4, location = $5,
		    industry = $6, remote = $7, employment_type = $8,
		    salary_min = $9, salary_max = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &posting.UpdatedAt, query,
		posting.ID,
		posting.Title,
		posting.Company,
		posting.Description,
		posting.Location,
		posting.Industry,
		posting.Remote,
		posting.EmploymentType,
		posting.SalaryMin,
		posting.SalaryMax,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update posting: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update posting: %w", err)
	}

	return nil
}

func (r *repository) Deactivate(ctx context.Context, id string) error {
	query := `
		UPDATE job_postings
		SET active = FALSE, deactivated_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND active`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivate posting: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate posting: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("deactivate posting: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListPostingsParams,
) ([]Posting, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if !params.IncludeHidden {
		conditions = append(conditions, "active AND expires_at > NOW()")
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(title ILIKE $%d OR company ILIKE $%d OR description ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Location != "" {
		conditions = append(conditions, fmt.Sprintf(
			"location ILIKE $%d", argIdx))
		args = append(args, "%"+escapeLike(params.Location)+"%")
		argIdx++
	}

	if params.Industry != "" {
		conditions = append(conditions, fmt.Sprintf("industry = $%d", argIdx))
		args = append(args, params.Industry)
		argIdx++
	}

	if params.EmploymentType != "" {
		conditions = append(conditions, fmt.Sprintf(
			"employment_type = $%d", argIdx))
		args = append(args, params.EmploymentType)
		argIdx++
	}

	if params.Remote != nil {
		conditions = append(conditions, fmt.Sprintf("remote = $%d", argIdx))
		args = append(args, *params.Remote)
		argIdx++
	}

	if params.EmployerID != "" {
		conditions = append(conditions, fmt.Sprintf(
			"employer_id = $%d", argIdx))
		args = append(args, params.EmployerID)
		argIdx++
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM job_postings WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count postings: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, employer_id, title, company, description, location,
		       industry, remote, employment_type, salary_min, salary_max,
		       active, expires_at, created_at, updated_at, deactivated_at
		FROM job_postings
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var postings []Posting
	if err := r.db.SelectContext(ctx, &postings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list postings: %w", err)
	}

	return postings, total, nil
}

func (r *repository) CountActiveByEmployer(
	ctx context.Context,
	employerID string,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM job_postings
		WHERE employer_id = $1 AND active AND expires_at > NOW()`

	var count int
	if err := r.db.GetContext(ctx, &count, query, employerID); err != nil {
		return 0, fmt.Errorf("count active postings: %w", err)
	}

	return count, nil
}

// LockEmployer takes a row lock on the employer so that concurrent posting
// creation serializes against the active-count check.
func (r *repository) LockEmployer(
	ctx context.Context,
	employerID string,
) error {
	query := `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`

	var one int
	err := r.db.GetContext(ctx, &one, query, employerID)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("lock employer: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("lock employer: %w", err)
	}

	return nil
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
