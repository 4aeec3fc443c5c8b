package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/launchhire/backend/internal/config"
	"github.com/launchhire/backend/internal/core"
)

var (
	ErrPostingLimit = errors.New("active posting limit reached")
	ErrSalaryRange  = errors.New("salary_min exceeds salary_max")
	ErrNotOwner     = errors.New("posting belongs to another employer")
)

type Service struct {
	repo Repository
	cfg  config.JobsConfig

	// inTx runs fn against a Repository bound to a single transaction.
	inTx func(ctx context.Context, fn func(Repository) error) error
}

func NewService(db *sqlx.DB, repo Repository, cfg config.JobsConfig) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		inTx: func(ctx context.Context, fn func(Repository) error) error {
			return core.InTx(ctx, db, func(tx *sqlx.Tx) error {
				return fn(NewRepository(tx))
			})
		},
	}
}

// Create publishes a posting for the employer. The per-employer active
// limit is checked inside a transaction holding a lock on the employer
// row, so two simultaneous creates cannot both slip under the limit.
func (s *Service) Create(
	ctx context.Context,
	employerID string,
	req CreatePostingRequest,
) (*Posting, error) {
	if err := validateSalary(req.SalaryMin, req.SalaryMax); err != nil {
		return nil, err
	}

	posting := &Posting{
		ID:             uuid.New().String(),
		EmployerID:     employerID,
		Title:          req.Title,
		Company:        req.Company,
		Description:    req.Description,
		Location:       req.Location,
		Industry:       req.Industry,
		Remote:         req.Remote,
		EmploymentType: req.EmploymentType,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		Active:         true,
		ExpiresAt: time.Now().UTC().Add(
			time.Duration(s.cfg.RetentionDays) * 24 * time.Hour,
		),
	}

	err := s.inTx(ctx, func(repo Repository) error {
		if err := repo.LockEmployer(ctx, employerID); err != nil {
			return err
		}

		count, err := repo.CountActiveByEmployer(ctx, employerID)
		if err != nil {
			return err
		}

		if count >= s.cfg.MaxActivePerEmployer {
			return fmt.Errorf(
				"create posting: %d active postings: %w",
				count,
				ErrPostingLimit,
			)
		}

		return repo.Create(ctx, posting)
	})
	if err != nil {
		return nil, err
	}

	return posting, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Posting, error) {
	posting, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !posting.Visible(time.Now()) {
		return nil, fmt.Errorf("get posting: %w", core.ErrNotFound)
	}

	return posting, nil
}

// GetOwned fetches a posting for its employer, visible or not.
func (s *Service) GetOwned(
	ctx context.Context,
	id, employerID string,
) (*Posting, error) {
	posting, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if posting.EmployerID != employerID {
		return nil, fmt.Errorf("get posting: %w: %w", ErrNotOwner, core.ErrForbidden)
	}

	return posting, nil
}

func (s *Service) Update(
	ctx context.Context,
	id, employerID string,
	req UpdatePostingRequest,
) (*Posting, error) {
	posting, err := s.GetOwned(ctx, id, employerID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		posting.Title = *req.Title
	}
	if req.Company != nil {
		posting.Company = *req.Company
	}
	if req.Description != nil {
		posting.Description = *req.Description
	}
	if req.Location != nil {
		posting.Location = *req.Location
	}
	if req.Industry != nil {
		posting.Industry = *req.Industry
	}
	if req.Remote != nil {
		posting.Remote = *req.Remote
	}
	if req.EmploymentType != nil {
		if !ValidEmploymentType(*req.EmploymentType) {
			return nil, fmt.Errorf(
				"update posting: invalid employment type %q: %w",
				*req.EmploymentType,
				core.ErrInvalidInput,
			)
		}
		posting.EmploymentType = *req.EmploymentType
	}
	if req.SalaryMin != nil {
		posting.SalaryMin = req.SalaryMin
	}
	if req.SalaryMax != nil {
		posting.SalaryMax = req.SalaryMax
	}

	if err := validateSalary(posting.SalaryMin, posting.SalaryMax); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, posting); err != nil {
		return nil, err
	}

	return posting, nil
}

// Deactivate takes a posting off the board. The row stays for the
// employer's records; nothing is deleted.
func (s *Service) Deactivate(ctx context.Context, id, employerID string) error {
	if _, err := s.GetOwned(ctx, id, employerID); err != nil {
		return err
	}

	return s.repo.Deactivate(ctx, id)
}

func (s *Service) List(
	ctx context.Context,
	params ListPostingsParams,
) ([]Posting, int, error) {
	params.IncludeHidden = false
	return s.repo.List(ctx, params)
}

// ListMine returns the employer's own postings, including inactive and
// expired ones.
func (s *Service) ListMine(
	ctx context.Context,
	employerID string,
	params ListPostingsParams,
) ([]Posting, int, error) {
	params.EmployerID = employerID
	params.IncludeHidden = true
	return s.repo.List(ctx, params)
}

func validateSalary(min, max *int64) error {
	if min != nil && max != nil && *min > *max {
		return fmt.Errorf("validate posting: %w: %w", ErrSalaryRange, core.ErrInvalidInput)
	}
	return nil
}
