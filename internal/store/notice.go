package store

import (
	"context"

	"github.com/arteza/studio/internal/domain"
)

// NoticeKind classifies the user-facing outcome of an operation.
type NoticeKind string

const (
	NoticeAdded           NoticeKind = "added"
	NoticeQuantityUpdated NoticeKind = "quantity_updated"
	NoticeRemoved         NoticeKind = "removed"
	NoticeCartCleared     NoticeKind = "cart_cleared"
	NoticeWishlistAdded   NoticeKind = "wishlist_added"
	NoticeWishlistRemoved NoticeKind = "wishlist_removed"
)

var noticeMessages = map[NoticeKind]string{
	NoticeAdded:           "Added to cart",
	NoticeQuantityUpdated: "Quantity updated",
	NoticeRemoved:         "Removed from cart",
	NoticeCartCleared:     "Cart cleared",
	NoticeWishlistAdded:   "Added to wishlist",
	NoticeWishlistRemoved: "Removed from wishlist",
}

// Notice is the toast emitted by a store operation.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	ItemID  string     `json:"item_id,omitempty"`
	Title   string     `json:"title,omitempty"`
	Message string     `json:"message"`
}

func newNotice(kind NoticeKind, id, title string) Notice {
	return Notice{Kind: kind, ItemID: id, Title: title, Message: noticeMessages[kind]}
}

// Observer receives notices after a mutation has been committed and
// persisted. state is the committed snapshot and may be retained.
type Observer interface {
	OnNotice(ctx context.Context, n Notice, state domain.CartState)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, n Notice, state domain.CartState)

// OnNotice calls f.
func (f ObserverFunc) OnNotice(ctx context.Context, n Notice, state domain.CartState) {
	f(ctx, n, state)
}
