package core

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestOKWrapsDataInEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"hello": "world"})

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var resp SuccessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
}

func TestJSONErrorUsesAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, NotFoundError("widget"))

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Success {
		t.Error("success = true, want false")
	}
	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", resp.Error.Code)
	}
}

func TestJSONErrorFallsBackTo500(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, errors.New("disk on fire"))

	if rec.Code != 500 {
		t.Fatalf("status = %d, want 500", rec.Code)
	}

	// Internal details must not reach the client.
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error.Message == "disk on fire" {
		t.Error("internal error message leaked to response")
	}
}

func TestFormatValidationError(t *testing.T) {
	type payload struct {
		Email string `validate:"required,email"`
		Name  string `validate:"required"`
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(payload{Email: "not-an-email", Name: "x"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := FormatValidationError(err)
	if msg == "" {
		t.Fatal("empty validation message")
	}
	if msg == err.Error() {
		t.Error("raw validator error passed through unformatted")
	}
}

func TestPaginatedComputesTotalPages(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []int{1, 2, 3}, 1, 20, 45)

	var resp PaginatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Pagination.TotalPages != 3 {
		t.Errorf("total_pages = %d, want 3", resp.Pagination.TotalPages)
	}
}
