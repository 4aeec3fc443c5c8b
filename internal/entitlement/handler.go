package entitlement

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v82"

	"github.com/launchhire/backend/internal/billing"
	"github.com/launchhire/backend/internal/config"
	"github.com/launchhire/backend/internal/core"
	"github.com/launchhire/backend/internal/token"
)

const (
	cookieMaxAge   = 365 * 24 * 60 * 60
	maxWebhookBody = 1 << 16
)

// WebhookVerifier authenticates a raw webhook payload. Satisfied by
// billing.StripeGateway.
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error)
}

type Handler struct {
	service   *Service
	tokens    *token.Service
	gateway   billing.Gateway
	verifier  WebhookVerifier
	products  config.ProductCatalog
	stripeCfg config.StripeConfig
	validator *validator.Validate
	logger    *slog.Logger
}

func NewHandler(
	service *Service,
	tokens *token.Service,
	gateway billing.Gateway,
	verifier WebhookVerifier,
	products config.ProductCatalog,
	stripeCfg config.StripeConfig,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		service:   service,
		tokens:    tokens,
		gateway:   gateway,
		verifier:  verifier,
		products:  products,
		stripeCfg: stripeCfg,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/billing", func(r chi.Router) {
		r.Post("/checkout", h.Checkout)
		r.Post("/restore", h.Restore)
		r.Get("/confirm", h.Confirm)
	})
	r.Post("/webhooks/stripe", h.StripeWebhook)
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	product, ok := h.products.ByKey(req.ProductKey)
	if !ok {
		core.BadRequest(w, "unknown product")
		return
	}

	metadata := map[string]string{"product_key": product.Key}
	for k, v := range req.Metadata {
		if k != "product_key" {
			metadata[k] = v
		}
	}

	session, err := h.gateway.CreateCheckoutSession(
		r.Context(),
		billing.CheckoutParams{
			PriceID:       product.PriceID,
			CustomerEmail: req.Email,
			SuccessURL:    h.stripeCfg.SuccessURL,
			CancelURL:     h.stripeCfg.CancelURL,
			Metadata:      metadata,
		},
	)
	if err != nil {
		h.logger.Error("checkout session creation failed",
			"product", product.Key,
			"error", err,
		)
		core.JSONError(w, core.GatewayError())
		return
	}

	core.OK(w, CheckoutResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	})
}

// Restore re-grants access on a new device from an email alone. The
// response shape is identical whether or not any purchase exists, so the
// endpoint cannot be used to probe which emails have paid.
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	var req RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	products := h.products
	if req.ProductKey != "" {
		product, ok := h.products.ByKey(req.ProductKey)
		if !ok {
			core.BadRequest(w, "unknown product")
			return
		}
		products = config.ProductCatalog{product}
	}

	resp := RestoreResponse{Restored: []RestoredProduct{}}
	for _, product := range products {
		record, err := h.service.Resolve(r.Context(), req.Email, product)
		if err != nil {
			continue
		}

		h.setAccessCookie(w, product)
		resp.Restored = append(resp.Restored, RestoredProduct{
			ProductKey: record.ProductKey,
			ExpiresAt:  record.ExpiresAt,
		})
	}

	if len(resp.Restored) > 0 {
		resp.HasAccess = true
		resp.Message = "access restored"

		plaintext, err := h.tokens.IssueOrKeep(r.Context(), req.Email)
		if err != nil {
			h.logger.Error("token issue on restore failed", "error", err)
		} else {
			resp.Token = plaintext
		}
	} else {
		resp.Message = "no purchases found for this email"
	}

	core.OK(w, resp)
}

// Confirm is hit on return from the hosted checkout page. The session ID
// comes from the success URL; the email is read from the session itself.
func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		core.BadRequest(w, "session_id is required")
		return
	}

	record, err := h.service.ConfirmSession(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "no completed payment for this session")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	product, ok := h.products.ByKey(record.ProductKey)
	if ok {
		h.setAccessCookie(w, product)
	}

	resp := ConfirmResponse{
		ProductKey: record.ProductKey,
		Email:      record.Email,
		ExpiresAt:  record.ExpiresAt,
	}

	plaintext, err := h.tokens.IssueOrKeep(r.Context(), record.Email)
	if err != nil {
		h.logger.Error("token issue on confirm failed", "error", err)
	} else {
		resp.Token = plaintext
	}

	core.OK(w, resp)
}

// StripeWebhook consumes checkout.session.completed events. Persistence
// failures return 5xx so the sender retries; everything else is
// acknowledged, including events we do not care about.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		core.BadRequest(w, "unreadable payload")
		return
	}

	event, err := h.verifier.VerifyWebhook(
		payload,
		r.Header.Get("Stripe-Signature"),
	)
	if err != nil {
		h.logger.Warn("webhook signature rejected", "error", err)
		core.BadRequest(w, "invalid signature")
		return
	}

	if event.Type != "checkout.session.completed" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		core.BadRequest(w, "malformed event payload")
		return
	}

	// Webhook payloads omit line items, so the session is re-fetched
	// with them expanded before the payment is judged.
	record, err := h.service.ConfirmSession(r.Context(), session.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			h.logger.Info("webhook session did not qualify",
				"session_id", session.ID,
			)
			w.WriteHeader(http.StatusOK)
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if _, err := h.tokens.IssueOrKeep(r.Context(), record.Email); err != nil {
		h.logger.Error("token issue on webhook failed", "error", err)
	}

	w.WriteHeader(http.StatusOK)
}

// setAccessCookie marks the product as purchased for the frontend. The
// cookie is readable by page scripts and is never consulted server-side.
func (h *Handler) setAccessCookie(w http.ResponseWriter, product config.Product) {
	http.SetCookie(w, &http.Cookie{
		Name:     product.Cookie(),
		Value:    "true",
		Path:     "/",
		MaxAge:   cookieMaxAge,
		Expires:  time.Now().Add(365 * 24 * time.Hour),
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
