package token

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newTestRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func TestVerifyHandlerSuccess(t *testing.T) {
	repo := newFakeRepo()
	lister := &fakeLister{purchases: map[string][]Purchase{
		"ada@example.com": {{ProductKey: "resumeReview", PaymentRef: "cs_1"}},
	}}
	svc := NewService(repo, lister)

	plaintext, err := svc.Issue(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	body := `{"token": "` + plaintext + `"}`
	req := httptest.NewRequest(
		http.MethodPost,
		"/tokens/verify",
		strings.NewReader(body),
	)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp VerifyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Email != "ada@example.com" {
		t.Errorf("email = %q, want ada@example.com", resp.Email)
	}
	if len(resp.Purchases) != 1 {
		t.Errorf("purchases = %d, want 1", len(resp.Purchases))
	}
}

func TestVerifyHandlerNoPurchasesReturnsEmptyList(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeLister{})

	plaintext, err := svc.Issue(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	body := `{"token": "` + plaintext + `"}`
	req := httptest.NewRequest(
		http.MethodPost,
		"/tokens/verify",
		strings.NewReader(body),
	)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"purchases":[]`) {
		t.Errorf("body = %s, want empty purchases array", rec.Body.String())
	}
}

func TestVerifyHandlerInvalidToken(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown token", `{"token": "aaaaaaaaaaaaaaaaaaaaaaaa"}`},
		{"too short", `{"token": "short"}`},
		{"missing token", `{}`},
	}

	svc := NewService(newFakeRepo(), &fakeLister{})
	router := newTestRouter(svc)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(
				http.MethodPost,
				"/tokens/verify",
				strings.NewReader(tt.body),
			)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotFound {
				t.Fatalf("status = %d, want 404", rec.Code)
			}

			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal response: %v", err)
			}
			if resp["error"] != "Invalid or expired token" {
				t.Errorf("error = %q, want %q",
					resp["error"], "Invalid or expired token")
			}
		})
	}
}

func TestVerifyHandlerMalformedBody(t *testing.T) {
	svc := NewService(newFakeRepo(), &fakeLister{})

	req := httptest.NewRequest(
		http.MethodPost,
		"/tokens/verify",
		strings.NewReader("{not json"),
	)
	rec := httptest.NewRecorder()
	newTestRouter(svc).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
