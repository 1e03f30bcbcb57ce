package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arteza/studio/internal/service"
	apperrors "github.com/arteza/studio/pkg/errors"
	"github.com/arteza/studio/pkg/httputil"
	"github.com/arteza/studio/pkg/validator"
)

// StudioHandler handles HTTP requests for classes, the student dashboard and
// the newsletter.
type StudioHandler struct {
	service *service.StudioService
	logger  *slog.Logger
}

// NewStudioHandler creates a new studio HTTP handler.
func NewStudioHandler(svc *service.StudioService, logger *slog.Logger) *StudioHandler {
	return &StudioHandler{
		service: svc,
		logger:  logger,
	}
}

// BookClassRequest is the JSON request body for booking a class.
type BookClassRequest = service.BookClassInput

// SubscribeRequest is the JSON request body for the newsletter signup.
type SubscribeRequest struct {
	Email  string `json:"email" validate:"required,email"`
	Source string `json:"source" validate:"max=64"`
}

// ListClasses handles GET /api/v1/classes
func (h *StudioHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	var from time.Time
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("from must be an RFC 3339 timestamp"), h.logger)
			return
		}
		from = t
	}

	classes, err := h.service.UpcomingClasses(r.Context(), from)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: classes})
}

// BookClass handles POST /api/v1/classes/{id}/bookings
func (h *StudioHandler) BookClass(w http.ResponseWriter, r *http.Request) {
	var req BookClassRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	booking, err := h.service.BookClass(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: booking})
}

// ListEnrollments handles GET /api/v1/enrollments
func (h *StudioHandler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Enrollments(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: list})
}

// Subscribe handles POST /api/v1/subscribers
func (h *StudioHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	sub, err := h.service.Subscribe(r.Context(), req.Email, req.Source)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: sub})
}
