package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/launchhire/backend/internal/billing"
	"github.com/launchhire/backend/internal/config"
	"github.com/launchhire/backend/internal/core"
)

type fakeRepo struct {
	records   []Record
	inserts   int
	insertErr error
	listErr   error
}

func (f *fakeRepo) FindActive(
	_ context.Context,
	email, productKey string,
) (*Record, error) {
	now := time.Now()
	for i := range f.records {
		r := &f.records[i]
		if r.Email == email && r.ProductKey == productKey && r.Active(now) {
			return r, nil
		}
	}
	return nil, fmt.Errorf("find active entitlement: %w", core.ErrNotFound)
}

func (f *fakeRepo) Insert(_ context.Context, record *Record) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserts++
	for _, existing := range f.records {
		if existing.Email == record.Email &&
			existing.ProductKey == record.ProductKey &&
			existing.PaymentRef == record.PaymentRef {
			return nil
		}
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeRepo) ListByEmail(
	_ context.Context,
	email string,
) ([]Record, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []Record
	for _, r := range f.records {
		if r.Email == email {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeGateway struct {
	sessions  []billing.SessionSummary
	checkout  *billing.CheckoutSession
	listCalls int
	listErr   error
	getErr    error
	createErr error
}

func (f *fakeGateway) CreateCheckoutSession(
	_ context.Context,
	_ billing.CheckoutParams,
) (*billing.CheckoutSession, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.checkout == nil {
		return nil, errors.New("no checkout configured")
	}
	return f.checkout, nil
}

func (f *fakeGateway) ListSessionsByEmail(
	_ context.Context,
	email string,
) ([]billing.SessionSummary, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []billing.SessionSummary
	for _, s := range f.sessions {
		if s.Email == email {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeGateway) GetSession(
	_ context.Context,
	id string,
) (*billing.SessionSummary, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, s := range f.sessions {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, errors.New("no such session")
}

var testProduct = config.Product{
	Key:         "resumeReview",
	Name:        "Resume Review",
	PriceID:     "price_123",
	AmountCents: 4900,
	Currency:    "usd",
}

func newTestService(repo *fakeRepo, gw *fakeGateway) *Service {
	return NewService(
		repo,
		gw,
		config.ProductCatalog{testProduct},
		slog.New(slog.DiscardHandler),
	)
}

func paidSession(id, email string) billing.SessionSummary {
	return billing.SessionSummary{
		ID:            id,
		PaymentStatus: billing.PaymentStatusPaid,
		AmountTotal:   4900,
		Currency:      "usd",
		PriceIDs:      []string{"price_123"},
		Email:         email,
	}
}

func TestResolveLocalRecordSkipsGateway(t *testing.T) {
	repo := &fakeRepo{records: []Record{{
		ID:         "r1",
		Email:      "ada@example.com",
		ProductKey: "resumeReview",
		PaymentRef: "cs_1",
	}}}
	gw := &fakeGateway{}
	svc := newTestService(repo, gw)

	record, err := svc.Resolve(context.Background(), "ada@example.com", testProduct)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if record.PaymentRef != "cs_1" {
		t.Errorf("PaymentRef = %q, want cs_1", record.PaymentRef)
	}
	if gw.listCalls != 0 {
		t.Errorf("gateway called %d times, want 0", gw.listCalls)
	}
}

func TestResolveDiscoversPaymentAndPersists(t *testing.T) {
	repo := &fakeRepo{}
	gw := &fakeGateway{sessions: []billing.SessionSummary{
		paidSession("cs_2", "ada@example.com"),
	}}
	svc := newTestService(repo, gw)

	record, err := svc.Resolve(context.Background(), "Ada@Example.com ", testProduct)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if record.Email != "ada@example.com" {
		t.Errorf("Email = %q, want normalized ada@example.com", record.Email)
	}
	if record.PaymentRef != "cs_2" {
		t.Errorf("PaymentRef = %q, want cs_2", record.PaymentRef)
	}

	// The write-through makes the next check purely local.
	_, err = svc.Resolve(context.Background(), "ada@example.com", testProduct)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if gw.listCalls != 1 {
		t.Errorf("gateway called %d times, want 1", gw.listCalls)
	}
}

func TestResolveDeniesNonQualifyingSessions(t *testing.T) {
	tests := []struct {
		name    string
		session billing.SessionSummary
	}{
		{
			name: "unpaid",
			session: billing.SessionSummary{
				ID:            "cs_3",
				PaymentStatus: "unpaid",
				AmountTotal:   4900,
				PriceIDs:      []string{"price_123"},
				Email:         "ada@example.com",
			},
		},
		{
			name: "wrong price",
			session: billing.SessionSummary{
				ID:            "cs_4",
				PaymentStatus: billing.PaymentStatusPaid,
				AmountTotal:   4900,
				PriceIDs:      []string{"price_other"},
				Email:         "ada@example.com",
			},
		},
		{
			name: "amount short by one cent",
			session: billing.SessionSummary{
				ID:            "cs_5",
				PaymentStatus: billing.PaymentStatusPaid,
				AmountTotal:   4899,
				PriceIDs:      []string{"price_123"},
				Email:         "ada@example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeRepo{}
			gw := &fakeGateway{sessions: []billing.SessionSummary{tt.session}}
			svc := newTestService(repo, gw)

			_, err := svc.Resolve(
				context.Background(),
				"ada@example.com",
				testProduct,
			)
			if !errors.Is(err, core.ErrNotFound) {
				t.Errorf("Resolve() error = %v, want ErrNotFound", err)
			}
			if repo.inserts != 0 {
				t.Errorf("inserts = %d, want 0", repo.inserts)
			}
		})
	}
}

func TestResolveGatewayFailureDeniesAccess(t *testing.T) {
	repo := &fakeRepo{}
	gw := &fakeGateway{listErr: errors.New("stripe is down")}
	svc := newTestService(repo, gw)

	_, err := svc.Resolve(context.Background(), "ada@example.com", testProduct)
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
}

func TestResolveEmptyEmail(t *testing.T) {
	svc := newTestService(&fakeRepo{}, &fakeGateway{})

	_, err := svc.Resolve(context.Background(), "  ", testProduct)
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("Resolve() error = %v, want ErrInvalidInput", err)
	}
}

func TestConfirmSessionGrantsFromSessionEmail(t *testing.T) {
	repo := &fakeRepo{}
	gw := &fakeGateway{sessions: []billing.SessionSummary{
		paidSession("cs_6", "grace@example.com"),
	}}
	svc := newTestService(repo, gw)

	record, err := svc.ConfirmSession(context.Background(), "cs_6")
	if err != nil {
		t.Fatalf("ConfirmSession() error = %v", err)
	}
	if record.Email != "grace@example.com" {
		t.Errorf("Email = %q, want grace@example.com", record.Email)
	}
	if record.ProductKey != "resumeReview" {
		t.Errorf("ProductKey = %q, want resumeReview", record.ProductKey)
	}
}

func TestConfirmSessionRejectsUnpaid(t *testing.T) {
	session := paidSession("cs_7", "grace@example.com")
	session.PaymentStatus = "unpaid"

	svc := newTestService(&fakeRepo{}, &fakeGateway{
		sessions: []billing.SessionSummary{session},
	})

	_, err := svc.ConfirmSession(context.Background(), "cs_7")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("ConfirmSession() error = %v, want ErrNotFound", err)
	}
}

func TestRecordSessionIdempotent(t *testing.T) {
	repo := &fakeRepo{}
	svc := newTestService(repo, &fakeGateway{})
	session := paidSession("cs_8", "ada@example.com")

	for i := 0; i < 3; i++ {
		if _, err := svc.RecordSession(context.Background(), session); err != nil {
			t.Fatalf("RecordSession() #%d error = %v", i+1, err)
		}
	}

	if len(repo.records) != 1 {
		t.Errorf("stored records = %d, want 1", len(repo.records))
	}
}

func TestListPurchasesMapsRecords(t *testing.T) {
	paidAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := &fakeRepo{records: []Record{{
		ID:         "r1",
		Email:      "ada@example.com",
		ProductKey: "resumeReview",
		PriceID:    "price_123",
		PaymentRef: "cs_9",
		AmountPaid: 4900,
		Currency:   "usd",
		PaidAt:     paidAt,
	}}}
	svc := newTestService(repo, &fakeGateway{})

	purchases, err := svc.ListPurchases(context.Background(), "Ada@example.com")
	if err != nil {
		t.Fatalf("ListPurchases() error = %v", err)
	}
	if len(purchases) != 1 {
		t.Fatalf("purchases = %d, want 1", len(purchases))
	}
	if purchases[0].PaymentRef != "cs_9" || !purchases[0].PaidAt.Equal(paidAt) {
		t.Errorf("unexpected purchase %+v", purchases[0])
	}
}
