package token

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/launchhire/backend/internal/core"
)

type fakeRepo struct {
	byHash  map[string]*AccessToken
	creates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byHash: make(map[string]*AccessToken)}
}

func (f *fakeRepo) Create(_ context.Context, token *AccessToken) error {
	for _, existing := range f.byHash {
		if existing.Email == token.Email {
			return fmt.Errorf("create access token: %w", core.ErrDuplicateKey)
		}
	}
	token.CreatedAt = time.Now()
	f.byHash[token.TokenHash] = token
	f.creates++
	return nil
}

func (f *fakeRepo) FindByHash(
	_ context.Context,
	tokenHash string,
) (*AccessToken, error) {
	if token, ok := f.byHash[tokenHash]; ok {
		return token, nil
	}
	return nil, fmt.Errorf("find access token: %w", core.ErrNotFound)
}

func (f *fakeRepo) FindByEmail(
	_ context.Context,
	email string,
) (*AccessToken, error) {
	for _, token := range f.byHash {
		if token.Email == email {
			return token, nil
		}
	}
	return nil, fmt.Errorf("find access token by email: %w", core.ErrNotFound)
}

type fakeLister struct {
	purchases map[string][]Purchase
	err       error
}

func (f *fakeLister) ListPurchases(
	_ context.Context,
	email string,
) ([]Purchase, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.purchases[email], nil
}

func TestIssueAndResolveRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	lister := &fakeLister{purchases: map[string][]Purchase{
		"ada@example.com": {{ProductKey: "resumeReview", PaymentRef: "cs_1"}},
	}}
	svc := NewService(repo, lister)

	plaintext, err := svc.Issue(context.Background(), "Ada@Example.com ")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if plaintext == "" {
		t.Fatal("Issue() returned empty token")
	}

	resolution, err := svc.Resolve(context.Background(), plaintext)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolution.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized ada@example.com", resolution.Email)
	}
	if len(resolution.Purchases) != 1 {
		t.Errorf("purchases = %d, want 1", len(resolution.Purchases))
	}
}

func TestResolveUnknownToken(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeLister{})

	_, err := svc.Resolve(context.Background(), "no-such-token")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestResolveEmptyToken(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeLister{})

	_, err := svc.Resolve(context.Background(), "")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestIssueOrKeepReusesExistingBinding(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeLister{})

	first, err := svc.IssueOrKeep(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("first IssueOrKeep() error = %v", err)
	}
	if first == "" {
		t.Fatal("first IssueOrKeep() returned empty token")
	}

	second, err := svc.IssueOrKeep(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("second IssueOrKeep() error = %v", err)
	}
	if second != "" {
		t.Errorf("second IssueOrKeep() = %q, want empty", second)
	}
	if repo.creates != 1 {
		t.Errorf("creates = %d, want 1", repo.creates)
	}
}

func TestIssueStoresOnlyHash(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo, &fakeLister{})

	plaintext, err := svc.Issue(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, ok := repo.byHash[plaintext]; ok {
		t.Error("plaintext token stored directly")
	}
	if _, ok := repo.byHash[core.HashToken(plaintext)]; !ok {
		t.Error("token hash not stored")
	}
}
