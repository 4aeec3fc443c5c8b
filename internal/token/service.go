package token

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/launchhire/backend/internal/core"
)

// PurchaseLister returns the full purchase history for an email. The
// entitlement service implements it.
type PurchaseLister interface {
	ListPurchases(ctx context.Context, email string) ([]Purchase, error)
}

type Service struct {
	repo      Repository
	purchases PurchaseLister
}

func NewService(repo Repository, purchases PurchaseLister) *Service {
	return &Service{repo: repo, purchases: purchases}
}

// Issue mints an opaque bearer token for a guest purchaser. When the email
// already holds a token, the existing binding is kept and no new token is
// minted; the caller receives an empty string in that case since the
// plaintext of the earlier token is unrecoverable.
func (s *Service) Issue(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	token, err := core.GenerateSecureToken(32)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	record := &AccessToken{
		TokenHash: core.HashToken(token),
		Email:     email,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return token, nil
}

// IssueOrKeep issues a token unless the email already has one. Returns the
// new token, or empty when a prior token remains the active capability.
func (s *Service) IssueOrKeep(ctx context.Context, email string) (string, error) {
	email = normalizeEmail(email)

	_, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return "", nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return "", fmt.Errorf("issue token: %w", err)
	}

	return s.Issue(ctx, email)
}

type Resolution struct {
	Email     string
	Purchases []Purchase
}

// Resolve maps a bearer token back to its email and the email's complete
// purchase history. Unknown and expired tokens are indistinguishable to
// the caller.
func (s *Service) Resolve(
	ctx context.Context,
	token string,
) (*Resolution, error) {
	if token == "" {
		return nil, fmt.Errorf("resolve token: %w", core.ErrNotFound)
	}

	record, err := s.repo.FindByHash(ctx, core.HashToken(token))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("resolve token: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}

	purchases, err := s.purchases.ListPurchases(ctx, record.Email)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}

	return &Resolution{Email: record.Email, Purchases: purchases}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
