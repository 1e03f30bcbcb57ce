package store

import (
	"slices"

	"github.com/arteza/studio/internal/domain"
)

// Reduce applies a to state and returns the next state, the notice the
// transition emits and whether it emits one. It never mutates state.
// Actions without an id leave the state untouched and emit nothing.
func Reduce(state domain.CartState, a Action) (domain.CartState, Notice, bool) {
	if a.Validate() != nil {
		return state, Notice{}, false
	}

	next := state.Clone()

	switch a.Kind {
	case ActionAddToCart:
		if i := next.FindItemIndex(a.ID); i >= 0 {
			next.Items[i].Quantity++
			return next, newNotice(NoticeQuantityUpdated, a.ID, next.Items[i].Title), true
		}
		item := a.Item
		item.ID = a.ID
		item.Quantity = 1
		next.Items = append(next.Items, item)
		return next, newNotice(NoticeAdded, a.ID, item.Title), true

	case ActionRemoveFromCart:
		return removeLine(next, a.ID)

	case ActionUpdateQuantity:
		if a.Quantity <= 0 {
			return removeLine(next, a.ID)
		}
		if i := next.FindItemIndex(a.ID); i >= 0 {
			next.Items[i].Quantity = a.Quantity
		}
		return next, Notice{}, false

	case ActionClearCart:
		next.Items = nil
		return next, newNotice(NoticeCartCleared, "", ""), true

	case ActionAddToWishlist:
		next.Wishlist.Add(a.ID)
		return next, newNotice(NoticeWishlistAdded, a.ID, ""), true

	case ActionRemoveFromWishlist:
		next.Wishlist.Remove(a.ID)
		return next, newNotice(NoticeWishlistRemoved, a.ID, ""), true

	case ActionToggleWishlist:
		if next.Wishlist.Remove(a.ID) {
			return next, newNotice(NoticeWishlistRemoved, a.ID, ""), true
		}
		next.Wishlist.Add(a.ID)
		return next, newNotice(NoticeWishlistAdded, a.ID, ""), true
	}

	return state, Notice{}, false
}

// removeLine drops line id. The removed notice fires even when nothing was
// removed; the storefront relies on that for its toast.
func removeLine(next domain.CartState, id string) (domain.CartState, Notice, bool) {
	var title string
	next.Items = slices.DeleteFunc(next.Items, func(li domain.LineItem) bool {
		if li.ID == id {
			title = li.Title
			return true
		}
		return false
	})
	return next, newNotice(NoticeRemoved, id, title), true
}
