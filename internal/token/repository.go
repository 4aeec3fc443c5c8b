package token

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/launchhire/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *AccessToken) error
	FindByHash(ctx context.Context, tokenHash string) (*AccessToken, error)
	FindByEmail(ctx context.Context, email string) (*AccessToken, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, token *AccessToken) error {
	query := `
		INSERT INTO access_tokens (token_hash, email)
		VALUES ($1, $2)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.TokenHash,
		token.Email,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create access token: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create access token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*AccessToken, error) {
	query := `
		SELECT token_hash, email, created_at
		FROM access_tokens
		WHERE token_hash = $1`

	var token AccessToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find access token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find access token: %w", err)
	}

	return &token, nil
}

func (r *repository) FindByEmail(
	ctx context.Context,
	email string,
) (*AccessToken, error) {
	query := `
		SELECT token_hash, email, created_at
		FROM access_tokens
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var token AccessToken
	err := r.db.GetContext(ctx, &token, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find access token by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find access token by email: %w", err)
	}

	return &token, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
