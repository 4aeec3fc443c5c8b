package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDGeneratesWhenMissing(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			seen = GetRequestID(r.Context())
		}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("no request id in context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != seen {
		t.Errorf("response header = %q, context = %q", got, seen)
	}
}

func TestRequestIDPreservesIncoming(t *testing.T) {
	handler := RequestID(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("response header = %q, want req-42", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(false)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set outside production")
	}

	prod := httptest.NewRecorder()
	SecurityHeaders(true)(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {})).
		ServeHTTP(prod, httptest.NewRequest(http.MethodGet, "/", nil))

	if prod.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing in production")
	}
}
