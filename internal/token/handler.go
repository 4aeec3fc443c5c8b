package token

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/launchhire/backend/internal/core"
)

type VerifyRequest struct {
	Token string `json:"token" validate:"required,min=16,max=128"`
}

type VerifyResponse struct {
	Email     string     `json:"email"`
	Purchases []Purchase `json:"purchases"`
}

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tokens", func(r chi.Router) {
		r.Post("/verify", h.Verify)
	})
}

// Verify exchanges a guest access token for the email it is bound to and
// that email's purchase history. The 404 body is identical for tokens
// that never existed and tokens that have lapsed.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.writeInvalidToken(w)
		return
	}

	resolution, err := h.service.Resolve(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			h.writeInvalidToken(w)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	purchases := resolution.Purchases
	if purchases == nil {
		purchases = []Purchase{}
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck // headers already written
	_ = json.NewEncoder(w).Encode(VerifyResponse{
		Email:     resolution.Email,
		Purchases: purchases,
	})
}

func (h *Handler) writeInvalidToken(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	//nolint:errcheck // headers already written
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Invalid or expired token",
	})
}
