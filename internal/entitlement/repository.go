package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/launchhire/backend/internal/core"
)

type Repository interface {
	FindActive(ctx context.Context, email, productKey string) (*Record, error)
	Insert(ctx context.Context, record *Record) error
	ListByEmail(ctx context.Context, email string) ([]Record, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) FindActive(
	ctx context.Context,
	email, productKey string,
) (*Record, error) {
	query := `
		SELECT id, email, product_key, price_id, payment_ref, amount_paid,
		       currency, paid_at, expires_at, created_at
		FROM entitlements
		WHERE email = $1 AND product_key = $2
		  AND (expires_at IS NULL OR expires_at > NOW())
		ORDER BY paid_at DESC
		LIMIT 1`

	var record Record
	err := r.db.GetContext(ctx, &record, query, email, productKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find active entitlement: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find active entitlement: %w", err)
	}

	return &record, nil
}

// Insert persists a proof of purchase. Concurrent writers discovering the
// same payment race benignly: ON CONFLICT DO NOTHING absorbs the loser and
// the caller re-reads through FindActive.
func (r *repository) Insert(ctx context.Context, record *Record) error {
	query := `
		INSERT INTO entitlements (
			id, email, product_key, price_id, payment_ref,
			amount_paid, currency, paid_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (email, product_key, payment_ref) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.Email,
		record.ProductKey,
		record.PriceID,
		record.PaymentRef,
		record.AmountPaid,
		record.Currency,
		record.PaidAt,
		record.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("insert entitlement: %w", err)
	}

	return nil
}

func (r *repository) ListByEmail(
	ctx context.Context,
	email string,
) ([]Record, error) {
	query := `
		SELECT id, email, product_key, price_id, payment_ref, amount_paid,
		       currency, paid_at, expires_at, created_at
		FROM entitlements
		WHERE email = $1
		ORDER BY paid_at DESC`

	var records []Record
	if err := r.db.SelectContext(ctx, &records, query, email); err != nil {
		return nil, fmt.Errorf("list entitlements: %w", err)
	}

	return records, nil
}
