package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/notify"
	"github.com/arteza/studio/internal/service"
	"github.com/arteza/studio/internal/store"
	apperrors "github.com/arteza/studio/pkg/errors"
	"github.com/arteza/studio/pkg/httputil"
	"github.com/arteza/studio/pkg/validator"
)

// CartHandler handles HTTP requests for cart and wishlist endpoints.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// AddItemRequest is the JSON request body for adding an artwork to the cart.
type AddItemRequest = store.Candidate

// UpdateQuantityRequest is the JSON request body for setting a line quantity.
// Zero or a negative quantity removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// --- Response DTOs ---

// CartResponse is the cart as the storefront renders it.
type CartResponse struct {
	Items    []domain.LineItem `json:"items"`
	Wishlist []string          `json:"wishlist"`
	Total    float64           `json:"total"`
	Count    int               `json:"count"`
}

func newCartResponse(s domain.CartState) CartResponse {
	items := s.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return CartResponse{
		Items:    items,
		Wishlist: s.Wishlist.IDs(),
		Total:    s.Total(),
		Count:    s.Count(),
	}
}

// WishlistResponse lists the wishlisted artwork ids.
type WishlistResponse struct {
	IDs   []string `json:"ids"`
	Count int      `json:"count"`
}

// --- Handlers ---

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newCartResponse(cart.State())})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	h.mutate(w, r, func(c *store.Cart) error {
		return c.AddToCart(r.Context(), req)
	})
}

// UpdateQuantity handles PUT /api/v1/cart/items/{id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *store.Cart) error {
		return c.UpdateQuantity(r.Context(), id, *req.Quantity)
	})
}

// RemoveItem handles DELETE /api/v1/cart/items/{id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *store.Cart) error {
		return c.RemoveFromCart(r.Context(), id)
	})
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(c *store.Cart) error {
		return c.ClearCart(r.Context())
	})
}

// GetWishlist handles GET /api/v1/wishlist
func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	wl := cart.State().Wishlist
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: WishlistResponse{IDs: wl.IDs(), Count: wl.Len()}})
}

// InWishlist handles GET /api/v1/wishlist/{id}
func (h *CartHandler) InWishlist(w http.ResponseWriter, r *http.Request) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"id": id, "in_wishlist": cart.IsInWishlist(id)},
	})
}

// AddToWishlist handles PUT /api/v1/wishlist/{id}
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *store.Cart) error {
		return c.AddToWishlist(r.Context(), id)
	})
}

// RemoveFromWishlist handles DELETE /api/v1/wishlist/{id}
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *store.Cart) error {
		return c.RemoveFromWishlist(r.Context(), id)
	})
}

// ToggleWishlist handles POST /api/v1/wishlist/{id}/toggle
func (h *CartHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.mutate(w, r, func(c *store.Cart) error {
		return c.ToggleWishlist(r.Context(), id)
	})
}

// --- Helpers ---

func (h *CartHandler) cart(w http.ResponseWriter, r *http.Request) (*store.Cart, bool) {
	sid, ok := sessionIDFromContext(r.Context())
	if !ok {
		httputil.WriteError(w, r, apperrors.InvalidInput("session is required"), h.logger)
		return nil, false
	}
	cart, err := h.service.Cart(r.Context(), sid)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return nil, false
	}
	return cart, true
}

// mutate runs op on the session's cart and answers with the resulting cart
// and the notices it raised.
func (h *CartHandler) mutate(w http.ResponseWriter, r *http.Request, op func(*store.Cart) error) {
	cart, ok := h.cart(w, r)
	if !ok {
		return
	}
	if err := op(cart); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var notices []store.Notice
	if rec := notify.RecorderFromContext(r.Context()); rec != nil {
		notices = rec.Drain()
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data:    newCartResponse(cart.State()),
		Notices: notices,
	})
}
