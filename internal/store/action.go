package store

import (
	"github.com/arteza/studio/internal/domain"
	apperrors "github.com/arteza/studio/pkg/errors"
)

// ErrEmptyID is returned when an operation names no artwork.
var ErrEmptyID = apperrors.InvalidInput("artwork id is required")

// ActionKind names a cart or wishlist mutation.
type ActionKind string

const (
	ActionAddToCart          ActionKind = "add_to_cart"
	ActionRemoveFromCart     ActionKind = "remove_from_cart"
	ActionUpdateQuantity     ActionKind = "update_quantity"
	ActionClearCart          ActionKind = "clear_cart"
	ActionAddToWishlist      ActionKind = "add_to_wishlist"
	ActionRemoveFromWishlist ActionKind = "remove_from_wishlist"
	ActionToggleWishlist     ActionKind = "toggle_wishlist"
)

// Action is one requested transition. Only the fields relevant to Kind are read.
type Action struct {
	Kind     ActionKind
	Item     domain.LineItem
	ID       string
	Quantity int
}

// Candidate is an artwork offered to the cart. Its quantity is decided by the store.
type Candidate struct {
	ID           string  `json:"id" validate:"required,max=64"`
	Title        string  `json:"title" validate:"required,max=200"`
	Price        float64 `json:"price" validate:"gte=0"`
	ImageURL     string  `json:"image_url" validate:"max=1024"`
	SizeCategory string  `json:"size_category,omitempty" validate:"max=32"`
	Technique    string  `json:"technique,omitempty" validate:"max=64"`
}

func (c Candidate) lineItem() domain.LineItem {
	return domain.LineItem{
		ID:           c.ID,
		Title:        c.Title,
		Price:        c.Price,
		ImageURL:     c.ImageURL,
		SizeCategory: c.SizeCategory,
		Technique:    c.Technique,
	}
}

// AddToCart builds the action that merges c into the cart.
func AddToCart(c Candidate) Action {
	return Action{Kind: ActionAddToCart, Item: c.lineItem(), ID: c.ID}
}

// RemoveFromCart builds the action that deletes the line with id.
func RemoveFromCart(id string) Action {
	return Action{Kind: ActionRemoveFromCart, ID: id}
}

// UpdateQuantity builds the action that sets the quantity of line id.
func UpdateQuantity(id string, quantity int) Action {
	return Action{Kind: ActionUpdateQuantity, ID: id, Quantity: quantity}
}

// ClearCart builds the action that empties the cart lines.
func ClearCart() Action {
	return Action{Kind: ActionClearCart}
}

// AddToWishlist builds the action that inserts id into the wishlist.
func AddToWishlist(id string) Action {
	return Action{Kind: ActionAddToWishlist, ID: id}
}

// RemoveFromWishlist builds the action that deletes id from the wishlist.
func RemoveFromWishlist(id string) Action {
	return Action{Kind: ActionRemoveFromWishlist, ID: id}
}

// ToggleWishlist builds the action that flips membership of id.
func ToggleWishlist(id string) Action {
	return Action{Kind: ActionToggleWishlist, ID: id}
}

// Validate rejects actions that name no artwork.
func (a Action) Validate() error {
	if a.Kind == ActionClearCart {
		return nil
	}
	if a.ID == "" {
		return ErrEmptyID
	}
	return nil
}
