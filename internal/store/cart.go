package store

import (
	"context"

	"github.com/arteza/studio/internal/domain"
)

// Cart is the cart and wishlist API used by the storefront. Each mutation
// runs to completion on the underlying Store, then the observers see the
// notice in registration order on the caller's goroutine.
type Cart struct {
	store     Store
	observers []Observer
}

// NewCart wraps s. Observers are fixed for the life of the cart.
func NewCart(s Store, observers ...Observer) *Cart {
	return &Cart{store: s, observers: observers}
}

func (c *Cart) apply(ctx context.Context, a Action) error {
	res, err := c.store.Dispatch(ctx, a)
	if err != nil {
		return err
	}
	if res.HasNotice {
		for _, o := range c.observers {
			o.OnNotice(ctx, res.Notice, res.State)
		}
	}
	return nil
}

// AddToCart merges candidate into the cart. An existing line gains one unit
// and keeps its other fields; otherwise a line with quantity 1 is appended.
func (c *Cart) AddToCart(ctx context.Context, candidate Candidate) error {
	return c.apply(ctx, AddToCart(candidate))
}

// RemoveFromCart deletes the line for id. Removing an absent id is a no-op
// that still emits the removed notice.
func (c *Cart) RemoveFromCart(ctx context.Context, id string) error {
	return c.apply(ctx, RemoveFromCart(id))
}

// UpdateQuantity sets the quantity of line id. A quantity of zero or less
// behaves exactly like RemoveFromCart.
func (c *Cart) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	return c.apply(ctx, UpdateQuantity(id, quantity))
}

// ClearCart removes every line. The wishlist is kept.
func (c *Cart) ClearCart(ctx context.Context) error {
	return c.apply(ctx, ClearCart())
}

// AddToWishlist inserts id into the wishlist.
func (c *Cart) AddToWishlist(ctx context.Context, id string) error {
	return c.apply(ctx, AddToWishlist(id))
}

// RemoveFromWishlist deletes id from the wishlist.
func (c *Cart) RemoveFromWishlist(ctx context.Context, id string) error {
	return c.apply(ctx, RemoveFromWishlist(id))
}

// ToggleWishlist removes id if present, else adds it.
func (c *Cart) ToggleWishlist(ctx context.Context, id string) error {
	return c.apply(ctx, ToggleWishlist(id))
}

// Total returns the cart value.
func (c *Cart) Total() float64 {
	return c.store.State().Total()
}

// Count returns the number of units in the cart.
func (c *Cart) Count() int {
	return c.store.State().Count()
}

// IsInWishlist reports whether id is wishlisted.
func (c *Cart) IsInWishlist(id string) bool {
	return c.store.State().Wishlist.Contains(id)
}

// State returns a deep copy of the cart for rendering.
func (c *Cart) State() domain.CartState {
	return c.store.State()
}
