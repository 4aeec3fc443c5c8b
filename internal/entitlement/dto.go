package entitlement

import (
	"time"
)

type CheckoutRequest struct {
	ProductKey string            `json:"productKey" validate:"required,min=1,max=64"`
	Email      string            `json:"email"      validate:"omitempty,email,max=255"`
	Metadata   map[string]string `json:"metadata"   validate:"omitempty,max=16"`
}

type CheckoutResponse struct {
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"checkoutUrl"`
}

type RestoreRequest struct {
	Email      string `json:"email"      validate:"required,email,max=255"`
	ProductKey string `json:"productKey" validate:"omitempty,min=1,max=64"`
}

type RestoredProduct struct {
	ProductKey string     `json:"productKey"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
}

// RestoreResponse never discloses whether the email is known: a restore
// with no purchases and a restore for a stranger report the same message.
type RestoreResponse struct {
	HasAccess bool              `json:"hasAccess"`
	Message   string            `json:"message"`
	Restored  []RestoredProduct `json:"restored"`
	Token     string            `json:"token,omitempty"`
}

type ConfirmResponse struct {
	ProductKey string     `json:"productKey"`
	Email      string     `json:"email"`
	ExpiresAt  *time.Time `json:"expiresAt,omitempty"`
	Token      string     `json:"token,omitempty"`
}
