package billing

import (
	"testing"

	"github.com/stripe/stripe-go/v82"
)

func TestSessionSummaryPaid(t *testing.T) {
	if (SessionSummary{PaymentStatus: "unpaid"}).Paid() {
		t.Error("unpaid session reported as paid")
	}
	if !(SessionSummary{PaymentStatus: PaymentStatusPaid}).Paid() {
		t.Error("paid session reported as unpaid")
	}
}

func TestSessionSummaryHasPrice(t *testing.T) {
	summary := SessionSummary{PriceIDs: []string{"price_1", "price_2"}}

	if !summary.HasPrice("price_2") {
		t.Error("HasPrice(price_2) = false")
	}
	if summary.HasPrice("price_3") {
		t.Error("HasPrice(price_3) = true")
	}
	if (SessionSummary{}).HasPrice("price_1") {
		t.Error("empty summary matched a price")
	}
}

func TestToSummary(t *testing.T) {
	session := &stripe.CheckoutSession{
		ID:            "cs_1",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal:   4900,
		Currency:      stripe.CurrencyUSD,
		CustomerEmail: "fallback@example.com",
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "ada@example.com",
		},
		LineItems: &stripe.LineItemList{
			Data: []*stripe.LineItem{
				{Price: &stripe.Price{ID: "price_1"}},
				{Price: nil},
			},
		},
	}

	summary := toSummary(session)

	if summary.ID != "cs_1" || !summary.Paid() {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Email != "ada@example.com" {
		t.Errorf("Email = %q, want customer details email", summary.Email)
	}
	if len(summary.PriceIDs) != 1 || summary.PriceIDs[0] != "price_1" {
		t.Errorf("PriceIDs = %v, want [price_1]", summary.PriceIDs)
	}
}

func TestToSummaryFallsBackToCustomerEmail(t *testing.T) {
	summary := toSummary(&stripe.CheckoutSession{
		ID:            "cs_2",
		CustomerEmail: "fallback@example.com",
	})

	if summary.Email != "fallback@example.com" {
		t.Errorf("Email = %q, want fallback@example.com", summary.Email)
	}
}
