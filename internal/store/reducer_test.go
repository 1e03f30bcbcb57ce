package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arteza/studio/internal/domain"
)

func sky() Candidate {
	return Candidate{ID: "a1", Title: "Sky", Price: 1000, ImageURL: "x"}
}

func reduceAll(t *testing.T, state domain.CartState, actions ...Action) (domain.CartState, []Notice) {
	t.Helper()
	var notices []Notice
	for _, a := range actions {
		var n Notice
		var ok bool
		state, n, ok = Reduce(state, a)
		if ok {
			notices = append(notices, n)
		}
	}
	return state, notices
}

// --- addToCart ---

func TestReduce_AddNewLine(t *testing.T) {
	state, n, ok := Reduce(domain.CartState{}, AddToCart(sky()))

	require.True(t, ok)
	assert.Equal(t, NoticeAdded, n.Kind)
	assert.Equal(t, "Added to cart", n.Message)
	assert.Equal(t, "Sky", n.Title)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 1, state.Items[0].Quantity)
}

func TestReduce_AddExistingMergesAndKeepsFields(t *testing.T) {
	state, _ := reduceAll(t, domain.CartState{}, AddToCart(sky()))

	changed := sky()
	changed.Title = "Renamed"
	changed.Price = 1
	state, n, ok := Reduce(state, AddToCart(changed))

	require.True(t, ok)
	assert.Equal(t, NoticeQuantityUpdated, n.Kind)
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, "Sky", state.Items[0].Title)
	assert.Equal(t, 1000.0, state.Items[0].Price)
}

func TestReduce_NoDuplicateLines(t *testing.T) {
	for calls := 1; calls <= 10; calls++ {
		actions := make([]Action, 0, calls+1)
		actions = append(actions, AddToCart(Candidate{ID: "other", Title: "o", Price: 3}))
		for i := 0; i < calls; i++ {
			actions = append(actions, AddToCart(sky()))
		}
		state, _ := reduceAll(t, domain.CartState{}, actions...)

		matching := 0
		for _, li := range state.Items {
			if li.ID == "a1" {
				matching++
				assert.Equal(t, calls, li.Quantity)
			}
		}
		assert.Equal(t, 1, matching)
	}
}

func TestReduce_DoesNotMutateInput(t *testing.T) {
	orig, _ := reduceAll(t, domain.CartState{}, AddToCart(sky()), AddToWishlist("w1"))
	snapshot := orig.Clone()

	Reduce(orig, AddToCart(sky()))
	Reduce(orig, ClearCart())
	Reduce(orig, ToggleWishlist("w1"))

	assert.Equal(t, snapshot, orig)
}

// --- removeFromCart / updateQuantity ---

func TestReduce_RemoveAbsentStillNotifies(t *testing.T) {
	state, n, ok := Reduce(domain.CartState{}, RemoveFromCart("ghost"))

	require.True(t, ok)
	assert.Equal(t, NoticeRemoved, n.Kind)
	assert.Equal(t, "Removed from cart", n.Message)
	assert.Empty(t, state.Items)
}

func TestReduce_UpdateQuantitySetsWithoutNotice(t *testing.T) {
	state, _ := reduceAll(t, domain.CartState{}, AddToCart(sky()))

	state, _, ok := Reduce(state, UpdateQuantity("a1", 7))
	assert.False(t, ok)
	assert.Equal(t, 7, state.Items[0].Quantity)
}

func TestReduce_UpdateQuantityAbsentIsNoop(t *testing.T) {
	start, _ := reduceAll(t, domain.CartState{}, AddToCart(sky()))

	state, _, ok := Reduce(start, UpdateQuantity("ghost", 4))
	assert.False(t, ok)
	assert.Equal(t, start, state)
}

func TestReduce_QuantityZeroEqualsRemove(t *testing.T) {
	start, _ := reduceAll(t, domain.CartState{},
		AddToCart(sky()),
		AddToCart(Candidate{ID: "a2", Title: "Sea", Price: 10.25}),
		AddToWishlist("w1"),
	)

	for _, id := range []string{"a1", "a2", "absent"} {
		for _, q := range []int{0, -1, -50} {
			viaUpdate, nu, oku := Reduce(start, UpdateQuantity(id, q))
			viaRemove, nr, okr := Reduce(start, RemoveFromCart(id))

			assert.Equal(t, viaRemove, viaUpdate, "id=%s q=%d", id, q)
			assert.Equal(t, nr, nu)
			assert.Equal(t, okr, oku)
		}
	}
}

// --- clearCart ---

func TestReduce_ClearKeepsWishlist(t *testing.T) {
	start, _ := reduceAll(t, domain.CartState{}, AddToCart(sky()), AddToWishlist("w1"), AddToWishlist("w2"))

	state, n, ok := Reduce(start, ClearCart())

	require.True(t, ok)
	assert.Equal(t, NoticeCartCleared, n.Kind)
	assert.Empty(t, state.Items)
	assert.Equal(t, 0, state.Count())
	assert.Equal(t, []string{"w1", "w2"}, state.Wishlist.IDs())
}

// --- wishlist ---

func TestReduce_WishlistAddIdempotent(t *testing.T) {
	once, _ := reduceAll(t, domain.CartState{}, AddToWishlist("w1"))
	twice, notices := reduceAll(t, domain.CartState{}, AddToWishlist("w1"), AddToWishlist("w1"))

	assert.Equal(t, once.Wishlist.IDs(), twice.Wishlist.IDs())
	assert.Equal(t, 1, twice.Wishlist.Len())
	require.Len(t, notices, 2)
	assert.Equal(t, NoticeWishlistAdded, notices[1].Kind)
}

func TestReduce_WishlistRemove(t *testing.T) {
	state, notices := reduceAll(t, domain.CartState{}, AddToWishlist("w1"), RemoveFromWishlist("w1"))

	assert.False(t, state.Wishlist.Contains("w1"))
	assert.Equal(t, NoticeWishlistRemoved, notices[1].Kind)
	assert.Equal(t, "Removed from wishlist", notices[1].Message)
}

func TestReduce_ToggleInvolution(t *testing.T) {
	starts := []domain.CartState{
		{},
		{Wishlist: domain.NewWishlist("w1")},
		{Wishlist: domain.NewWishlist("w0", "w1", "w2")},
	}
	for _, start := range starts {
		after, notices := reduceAll(t, start, ToggleWishlist("w1"), ToggleWishlist("w1"))

		assert.Equal(t, start.Wishlist.Contains("w1"), after.Wishlist.Contains("w1"))
		require.Len(t, notices, 2)
		assert.NotEqual(t, notices[0].Kind, notices[1].Kind)
	}
}

func TestReduce_EmptyIDIsIgnored(t *testing.T) {
	start, _ := reduceAll(t, domain.CartState{}, AddToCart(sky()))

	for _, a := range []Action{AddToCart(Candidate{}), RemoveFromCart(""), ToggleWishlist("")} {
		state, _, ok := Reduce(start, a)
		assert.False(t, ok)
		assert.Equal(t, start, state)
	}
}

// --- derived values ---

func TestReduce_TotalAndCountMatchLines(t *testing.T) {
	state, _ := reduceAll(t, domain.CartState{},
		AddToCart(Candidate{ID: "a", Title: "A", Price: 19.99}),
		AddToCart(Candidate{ID: "a", Title: "A", Price: 19.99}),
		AddToCart(Candidate{ID: "b", Title: "B", Price: 0.01}),
		UpdateQuantity("b", 3),
		AddToCart(Candidate{ID: "c", Title: "C", Price: 250}),
	)

	var total float64
	var count int
	for _, li := range state.Items {
		total += li.Price * float64(li.Quantity)
		count += li.Quantity
	}
	assert.Equal(t, total, state.Total())
	assert.Equal(t, count, state.Count())
	assert.Equal(t, 6, state.Count())
}
