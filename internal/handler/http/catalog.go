package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/service"
	apperrors "github.com/arteza/studio/pkg/errors"
	"github.com/arteza/studio/pkg/httputil"
	"github.com/arteza/studio/pkg/pagination"
	"github.com/arteza/studio/pkg/validator"
)

// CatalogHandler handles HTTP requests for the gallery and the style quiz.
type CatalogHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler.
func NewCatalogHandler(svc *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: svc,
		logger:  logger,
	}
}

// RecommendRequest is the JSON request body for quiz recommendations.
type RecommendRequest struct {
	Mood   string   `json:"mood" validate:"max=64"`
	Colors []string `json:"colors" validate:"max=8,dive,max=32"`
	Size   string   `json:"size" validate:"max=32"`
	Budget float64  `json:"budget" validate:"gte=0"`
	Limit  int      `json:"limit" validate:"gte=0,lte=24"`
}

// ListArtworks handles GET /api/v1/artworks
func (h *CatalogHandler) ListArtworks(w http.ResponseWriter, r *http.Request) {
	filter, err := artworkFilterFromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.ListArtworks(r.Context(), filter, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// GetArtwork handles GET /api/v1/artworks/{id}
func (h *CatalogHandler) GetArtwork(w http.ResponseWriter, r *http.Request) {
	art, err := h.service.GetArtwork(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: art})
}

// Recommend handles POST /api/v1/recommendations
func (h *CatalogHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	recs, err := h.service.Recommend(r.Context(), service.QuizAnswers{
		Mood:   req.Mood,
		Colors: req.Colors,
		Size:   req.Size,
		Budget: req.Budget,
		Limit:  req.Limit,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: recs})
}

func artworkFilterFromRequest(r *http.Request) (domain.ArtworkFilter, error) {
	q := r.URL.Query()
	f := domain.ArtworkFilter{
		Technique:    q.Get("technique"),
		SizeCategory: q.Get("size"),
		Color:        q.Get("color"),
		Mood:         q.Get("mood"),
		Collection:   q.Get("collection"),
		Query:        q.Get("q"),
		Sort:         q.Get("sort"),
	}

	var err error
	if f.MinPrice, err = priceParam(q.Get("min_price"), "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = priceParam(q.Get("max_price"), "max_price"); err != nil {
		return f, err
	}
	if v := q.Get("available"); v != "" {
		if f.AvailableOnly, err = strconv.ParseBool(v); err != nil {
			return f, apperrors.InvalidInput("available must be true or false")
		}
	}
	return f, nil
}

func priceParam(v, name string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	p, err := strconv.ParseFloat(v, 64)
	if err != nil || p < 0 {
		return nil, apperrors.InvalidInput(name + " must be a non-negative number")
	}
	return &p, nil
}
