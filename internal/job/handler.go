package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/launchhire/backend/internal/core"
	"github.com/launchhire/backend/internal/middleware"
)

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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/jobs", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.List)
			r.Get("/{jobID}", h.Get)
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(middleware.RequireRole("employer", "recruiter", "admin"))
			r.Get("/mine", h.ListMine)
			r.Post("/", h.Create)
			r.Patch("/{jobID}", h.Update)
			r.Delete("/{jobID}", h.Deactivate)
		})
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	employerID := middleware.GetUserID(r.Context())

	posting, err := h.service.Create(r.Context(), employerID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrPostingLimit):
			core.JSONError(w, core.NewAppError(
				err,
				"active posting limit reached",
				http.StatusConflict,
				"POSTING_LIMIT",
			))
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "salary_min cannot exceed salary_max")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToPostingResponse(posting))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "jobID")

	posting, err := h.service.Get(ctx, id)
	if errors.Is(err, core.ErrNotFound) && middleware.IsAuthenticated(ctx) {
		// Owners can still inspect their own deactivated or expired
		// postings through the public route.
		posting, err = h.service.GetOwned(ctx, id, middleware.GetUserID(ctx))
		if errors.Is(err, core.ErrForbidden) {
			err = fmt.Errorf("get posting: %w", core.ErrNotFound)
		}
	}
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "job posting")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToPostingResponse(posting))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)

	postings, total, err := h.service.List(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToPostingResponseList(postings),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
	params := listParamsFromQuery(r)
	employerID := middleware.GetUserID(r.Context())

	postings, total, err := h.service.ListMine(r.Context(), employerID, params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToPostingResponseList(postings),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdatePostingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	employerID := middleware.GetUserID(r.Context())

	posting, err := h.service.Update(
		r.Context(),
		chi.URLParam(r, "jobID"),
		employerID,
		req,
	)
	if err != nil {
		h.writeOwnedError(w, err)
		return
	}

	core.OK(w, ToPostingResponse(posting))
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	employerID := middleware.GetUserID(r.Context())

	err := h.service.Deactivate(
		r.Context(),
		chi.URLParam(r, "jobID"),
		employerID,
	)
	if err != nil {
		h.writeOwnedError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) writeOwnedError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "job posting")
	case errors.Is(err, core.ErrForbidden):
		core.Forbidden(w, "posting belongs to another employer")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "invalid posting fields")
	default:
		core.InternalServerError(w, err)
	}
}

func listParamsFromQuery(r *http.Request) ListPostingsParams {
	params := ListPostingsParams{
		Page:           parseIntQuery(r, "page", 1),
		PageSize:       parseIntQuery(r, "page_size", 20),
		Search:         r.URL.Query().Get("search"),
		Location:       r.URL.Query().Get("location"),
		Industry:       r.URL.Query().Get("industry"),
		EmploymentType: r.URL.Query().Get("employment_type"),
	}

	if raw := r.URL.Query().Get("remote"); raw != "" {
		if remote, err := strconv.ParseBool(raw); err == nil {
			params.Remote = &remote
		}
	}

	return params
}

func parseIntQuery(r *http.Request, key string, fallback int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 1 {
		return fallback
	}

	return parsed
}
