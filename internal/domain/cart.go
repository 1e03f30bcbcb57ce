package domain

import (
	"encoding/json"
	"slices"
)

// LineItem is one artwork line in the cart.
type LineItem struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	ImageURL     string  `json:"image_url"`
	SizeCategory string  `json:"size_category,omitempty"`
	Technique    string  `json:"technique,omitempty"`
	Quantity     int     `json:"quantity"`
}

// Subtotal returns price times quantity for the line.
func (li LineItem) Subtotal() float64 {
	return li.Price * float64(li.Quantity)
}

// Wishlist is an insertion-ordered set of artwork IDs.
// The zero value is an empty wishlist.
type Wishlist struct {
	ids []string
}

// NewWishlist builds a wishlist from ids, dropping duplicates and empty ids.
func NewWishlist(ids ...string) Wishlist {
	var w Wishlist
	for _, id := range ids {
		w.Add(id)
	}
	return w
}

// Contains reports whether id is in the wishlist.
func (w Wishlist) Contains(id string) bool {
	return slices.Contains(w.ids, id)
}

// Add inserts id and reports whether the set changed.
func (w *Wishlist) Add(id string) bool {
	if id == "" || w.Contains(id) {
		return false
	}
	w.ids = append(w.ids, id)
	return true
}

// Remove deletes id and reports whether the set changed.
func (w *Wishlist) Remove(id string) bool {
	i := slices.Index(w.ids, id)
	if i < 0 {
		return false
	}
	w.ids = slices.Delete(w.ids, i, i+1)
	return true
}

// IDs returns a copy of the ids in insertion order.
func (w Wishlist) IDs() []string {
	out := make([]string, len(w.ids))
	copy(out, w.ids)
	return out
}

// Len returns the number of ids.
func (w Wishlist) Len() int {
	return len(w.ids)
}

// MarshalJSON encodes the wishlist as a JSON array, never null.
func (w Wishlist) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.IDs())
}

// UnmarshalJSON decodes a JSON array of ids, dropping duplicates.
func (w *Wishlist) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*w = NewWishlist(ids...)
	return nil
}

// CartState is the full cart and wishlist for one session.
type CartState struct {
	Items    []LineItem `json:"items"`
	Wishlist Wishlist   `json:"wishlist"`
}

// Total returns the sum of price times quantity over all lines.
func (s CartState) Total() float64 {
	var total float64
	for _, item := range s.Items {
		total += item.Subtotal()
	}
	return total
}

// Count returns the sum of quantities over all lines.
func (s CartState) Count() int {
	var count int
	for _, item := range s.Items {
		count += item.Quantity
	}
	return count
}

// FindItemIndex returns the index of the line with the given id, or -1.
func (s CartState) FindItemIndex(id string) int {
	return slices.IndexFunc(s.Items, func(li LineItem) bool { return li.ID == id })
}

// Clone returns a deep copy that shares no slices with s.
func (s CartState) Clone() CartState {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return CartState{
		Items:    items,
		Wishlist: NewWishlist(s.Wishlist.ids...),
	}
}

// MarshalJSON keeps items as [] rather than null for an empty cart.
func (s CartState) MarshalJSON() ([]byte, error) {
	type alias CartState
	if s.Items == nil {
		s.Items = []LineItem{}
	}
	return json.Marshal(alias(s))
}
