package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/launchhire/backend/internal/billing"
	"github.com/launchhire/backend/internal/config"
	"github.com/launchhire/backend/internal/core"
	"github.com/launchhire/backend/internal/token"
)

type Service struct {
	repo     Repository
	gateway  billing.Gateway
	products config.ProductCatalog
	logger   *slog.Logger
}

func NewService(
	repo Repository,
	gateway billing.Gateway,
	products config.ProductCatalog,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		products: products,
		logger:   logger,
	}
}

// Resolve answers "does this email hold active access to this product".
// It checks local records first and falls back to the payment gateway's
// session history, persisting any qualifying payment it discovers so a
// later check never needs the gateway again.
//
// Gateway failures deny access: the caller cannot tell a gateway outage
// apart from never-purchased, which keeps the check fail-closed.
func (s *Service) Resolve(
	ctx context.Context,
	email string,
	product config.Product,
) (*Record, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("resolve entitlement: %w", core.ErrInvalidInput)
	}

	record, err := s.repo.FindActive(ctx, email, product.Key)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	sessions, err := s.gateway.ListSessionsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("entitlement gateway lookup failed",
			"product", product.Key,
			"error", err,
		)
		return nil, fmt.Errorf("resolve entitlement: %w", core.ErrNotFound)
	}

	for _, session := range sessions {
		if !s.qualifies(session, product) {
			continue
		}

		record, err := s.recordPayment(ctx, email, product, session)
		if err != nil {
			return nil, err
		}
		return record, nil
	}

	return nil, fmt.Errorf("resolve entitlement: %w", core.ErrNotFound)
}

// ConfirmSession grants access from a single checkout session, used on
// return from the hosted payment page and by the webhook consumer. The
// email is taken from the session itself, never from the caller.
func (s *Service) ConfirmSession(
	ctx context.Context,
	sessionID string,
) (*Record, error) {
	session, err := s.gateway.GetSession(ctx, sessionID)
	if err != nil {
		s.logger.Error("entitlement session lookup failed",
			"session_id", sessionID,
			"error", err,
		)
		return nil, fmt.Errorf("confirm session: %w", core.ErrNotFound)
	}

	product, record, err := s.recordSession(ctx, *session)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, fmt.Errorf(
			"confirm session %s: no qualifying payment: %w",
			sessionID,
			core.ErrNotFound,
		)
	}

	s.logger.Info("entitlement confirmed",
		"product", product.Key,
		"payment_ref", session.ID,
	)

	return record, nil
}

// RecordSession persists a session's payment if it qualifies for any
// configured product. Returns nil without error when the session does
// not qualify; webhook consumers treat that as a no-op.
func (s *Service) RecordSession(
	ctx context.Context,
	session billing.SessionSummary,
) (*Record, error) {
	_, record, err := s.recordSession(ctx, session)
	return record, err
}

func (s *Service) recordSession(
	ctx context.Context,
	session billing.SessionSummary,
) (config.Product, *Record, error) {
	email := normalizeEmail(session.Email)
	if email == "" {
		return config.Product{}, nil, nil
	}

	for _, priceID := range session.PriceIDs {
		product, ok := s.products.ByPriceID(priceID)
		if !ok || !s.qualifies(session, product) {
			continue
		}

		record, err := s.recordPayment(ctx, email, product, session)
		if err != nil {
			return config.Product{}, nil, err
		}
		return product, record, nil
	}

	return config.Product{}, nil, nil
}

// ListPurchases exposes the full purchase history for token resolution.
func (s *Service) ListPurchases(
	ctx context.Context,
	email string,
) ([]token.Purchase, error) {
	records, err := s.repo.ListByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	purchases := make([]token.Purchase, 0, len(records))
	for _, r := range records {
		purchases = append(purchases, token.Purchase{
			ProductKey: r.ProductKey,
			PriceID:    r.PriceID,
			PaymentRef: r.PaymentRef,
			AmountPaid: r.AmountPaid,
			Currency:   r.Currency,
			PaidAt:     r.PaidAt,
			ExpiresAt:  r.ExpiresAt,
		})
	}

	return purchases, nil
}

// qualifies applies the full payment predicate: the session must be paid,
// carry the product's price, and the captured amount must match the
// configured price exactly. A partial refund or a discounted charge does
// not grant access.
func (s *Service) qualifies(
	session billing.SessionSummary,
	product config.Product,
) bool {
	return session.Paid() &&
		session.HasPrice(product.PriceID) &&
		session.AmountTotal == product.AmountCents
}

func (s *Service) recordPayment(
	ctx context.Context,
	email string,
	product config.Product,
	session billing.SessionSummary,
) (*Record, error) {
	now := time.Now().UTC()

	record := &Record{
		ID:         uuid.New().String(),
		Email:      email,
		ProductKey: product.Key,
		PriceID:    product.PriceID,
		PaymentRef: session.ID,
		AmountPaid: session.AmountTotal,
		Currency:   session.Currency,
		PaidAt:     now,
	}

	if product.AccessDays > 0 {
		expires := now.Add(time.Duration(product.AccessDays) * 24 * time.Hour)
		record.ExpiresAt = &expires
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, err
	}

	// A concurrent writer may have absorbed our insert; the row that
	// actually landed is authoritative.
	stored, err := s.repo.FindActive(ctx, email, product.Key)
	if err != nil {
		return nil, err
	}

	return stored, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ token.PurchaseLister = (*Service)(nil)
