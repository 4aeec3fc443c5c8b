package entitlement

import (
	"time"
)

// Record is one proof of purchase. Records are append-only: access lapses
// by expiry, never by deletion, and the (email, product_key, payment_ref)
// uniqueness constraint makes concurrent discovery of the same payment
// collapse into a single row.
type Record struct {
	ID         string     `db:"id"`
	Email      string     `db:"email"`
	ProductKey string     `db:"product_key"`
	PriceID    string     `db:"price_id"`
	PaymentRef string     `db:"payment_ref"`
	AmountPaid int64      `db:"amount_paid"`
	Currency   string     `db:"currency"`
	PaidAt     time.Time  `db:"paid_at"`
	ExpiresAt  *time.Time `db:"expires_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

func (r *Record) Active(now time.Time) bool {
	return r.ExpiresAt == nil || r.ExpiresAt.After(now)
}
