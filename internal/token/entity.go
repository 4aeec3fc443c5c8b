package token

import (
	"time"
)

// AccessToken is a capability handle for guest purchasers: it binds an
// opaque bearer token to an email so purchases can be listed without an
// account. Only the SHA-256 hash of the token is stored.
type AccessToken struct {
	TokenHash string    `db:"token_hash"`
	Email     string    `db:"email"`
	CreatedAt time.Time `db:"created_at"`
}

// Purchase is the view of one paid entitlement exposed through token
// resolution.
type Purchase struct {
	ProductKey string     `json:"productKey"`
	PriceID    string     `json:"priceId"`
	PaymentRef string     `json:"paymentRef"`
	AmountPaid int64      `json:"amountPaid"`
	Currency   string     `json:"currency"`
	PaidAt     time.Time  `json:"paidAt"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}
