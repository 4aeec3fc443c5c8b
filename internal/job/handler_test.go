package job

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/launchhire/backend/internal/middleware"
)

func passthrough(next http.Handler) http.Handler { return next }

// identityAs mimics optional authentication by placing the given user
// into the request context.
func identityAs(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newTestRouter(
	repo Repository,
	optionalAuth func(http.Handler) http.Handler,
) *chi.Mux {
	handler := NewHandler(newTestService(repo))

	r := chi.NewRouter()
	handler.RegisterRoutes(r, passthrough, optionalAuth)
	return r
}

func listPostings(t *testing.T, router *chi.Mux, target string) []PostingResponse {
	t.Helper()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want %d", target, rec.Code, http.StatusOK)
	}

	var body struct {
		Data []PostingResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body.Data
}

func TestListFiltersByIndustry(t *testing.T) {
	repo := newFakeRepo()

	tech := activePosting("p1", "e1")
	tech.Industry = "tech"
	repo.postings["p1"] = tech

	finance := activePosting("p2", "e1")
	finance.Industry = "finance"
	repo.postings["p2"] = finance

	router := newTestRouter(repo, passthrough)

	all := listPostings(t, router, "/jobs")
	if len(all) != 2 {
		t.Fatalf("unfiltered list returned %d postings, want 2", len(all))
	}

	filtered := listPostings(t, router, "/jobs?industry=tech")
	if len(filtered) != 1 {
		t.Fatalf("industry filter returned %d postings, want 1", len(filtered))
	}
	if filtered[0].Industry != "tech" {
		t.Errorf("Industry = %q, want %q", filtered[0].Industry, "tech")
	}

	if none := listPostings(t, router, "/jobs?industry=retail"); len(none) != 0 {
		t.Errorf("unmatched industry returned %d postings, want 0", len(none))
	}
}

func TestGetHiddenPostingVisibility(t *testing.T) {
	repo := newFakeRepo()

	expired := activePosting("p1", "e1")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	repo.postings["p1"] = expired

	tests := []struct {
		name       string
		viewer     func(http.Handler) http.Handler
		wantStatus int
	}{
		{"anonymous", passthrough, http.StatusNotFound},
		{"owner", identityAs("e1"), http.StatusOK},
		{"other employer", identityAs("e2"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(repo, tt.viewer)

			rec := httptest.NewRecorder()
			router.ServeHTTP(
				rec,
				httptest.NewRequest(http.MethodGet, "/jobs/p1", nil),
			)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
