package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/launchhire/backend/internal/config"
)

const PaymentStatusPaid = "paid"

type CheckoutParams struct {
	PriceID       string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// SessionSummary is the gateway-neutral view of a checkout session used
// by the entitlement resolver.
type SessionSummary struct {
	ID            string
	PaymentStatus string
	AmountTotal   int64
	Currency      string
	PriceIDs      []string
	CustomerRef   string
	Email         string
}

func (s SessionSummary) Paid() bool {
	return s.PaymentStatus == PaymentStatusPaid
}

func (s SessionSummary) HasPrice(priceID string) bool {
	for _, id := range s.PriceIDs {
		if id == priceID {
			return true
		}
	}
	return false
}

type Gateway interface {
	CreateCheckoutSession(
		ctx context.Context,
		params CheckoutParams,
	) (*CheckoutSession, error)
	ListSessionsByEmail(
		ctx context.Context,
		email string,
	) ([]SessionSummary, error)
	GetSession(ctx context.Context, id string) (*SessionSummary, error)
}

type StripeGateway struct {
	webhookSecret string
}

func NewStripeGateway(cfg config.StripeConfig) *StripeGateway {
	stripe.Key = cfg.SecretKey
	return &StripeGateway{webhookSecret: cfg.WebhookSecret}
}

// CreateCheckoutSession is a remote mutating call; callers must not retry
// it blindly on failure.
func (g *StripeGateway) CreateCheckoutSession(
	ctx context.Context,
	params CheckoutParams,
) (*CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail: stripe.String(params.CustomerEmail),
		SuccessURL:    stripe.String(params.SuccessURL),
		CancelURL:     stripe.String(params.CancelURL),
	}
	sessionParams.Context = ctx

	for k, v := range params.Metadata {
		sessionParams.AddMetadata(k, v)
	}

	s, err := session.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

func (g *StripeGateway) ListSessionsByEmail(
	ctx context.Context,
	email string,
) ([]SessionSummary, error) {
	params := &stripe.CheckoutSessionListParams{
		CustomerDetails: &stripe.CheckoutSessionListCustomerDetailsParams{
			Email: stripe.String(strings.ToLower(email)),
		},
	}
	params.Context = ctx
	params.AddExpand("data.line_items")

	var summaries []SessionSummary
	iter := session.List(params)
	for iter.Next() {
		summaries = append(summaries, toSummary(iter.CheckoutSession()))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("list checkout sessions: %w", err)
	}

	return summaries, nil
}

func (g *StripeGateway) GetSession(
	ctx context.Context,
	id string,
) (*SessionSummary, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	params.AddExpand("line_items")

	s, err := session.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}

	summary := toSummary(s)
	return &summary, nil
}

// VerifyWebhook checks the Stripe signature header before any payload
// field is trusted.
func (g *StripeGateway) VerifyWebhook(
	payload []byte,
	sigHeader string,
) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, g.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("verify webhook signature: %w", err)
	}
	return event, nil
}

func toSummary(s *stripe.CheckoutSession) SessionSummary {
	summary := SessionSummary{
		ID:            s.ID,
		PaymentStatus: string(s.PaymentStatus),
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
	}

	if s.Customer != nil {
		summary.CustomerRef = s.Customer.ID
	}

	if s.CustomerDetails != nil && s.CustomerDetails.Email != "" {
		summary.Email = s.CustomerDetails.Email
	} else {
		summary.Email = s.CustomerEmail
	}

	if s.LineItems != nil {
		for _, item := range s.LineItems.Data {
			if item.Price != nil {
				summary.PriceIDs = append(summary.PriceIDs, item.Price.ID)
			}
		}
	}

	return summary
}
