package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/pkg/logger"
)

// memStorage is an in-memory Storage.
type memStorage struct {
	mu    sync.Mutex
	slots map[string][]byte
	saves int
}

func newMemStorage() *memStorage {
	return &memStorage{slots: make(map[string][]byte)}
}

func (m *memStorage) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.slots[key]
	if !ok {
		return nil, ErrSlotEmpty
	}
	return data, nil
}

func (m *memStorage) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = append([]byte(nil), data...)
	m.saves++
	return nil
}

// mockStorage is a testify mock of Storage.
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Load(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *mockStorage) Save(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

// strictStorage fails like a network client would: on a done context and
// while down is set.
type strictStorage struct {
	*memStorage
	down bool
}

func (s *strictStorage) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.down {
		return nil, errors.New("connection refused")
	}
	return s.memStorage.Load(ctx, key)
}

func (s *strictStorage) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.down {
		return errors.New("connection refused")
	}
	return s.memStorage.Save(ctx, key, data)
}

const testKey = "arteza-cart:test"

// --- hydration ---

func TestOpen_EmptySlotStartsEmpty(t *testing.T) {
	ps := Open(context.Background(), newMemStorage(), testKey, logger.Discard())

	assert.Empty(t, ps.State().Items)
	assert.Equal(t, 0, ps.State().Wishlist.Len())
	assert.False(t, ps.InMemoryOnly())
}

func TestOpen_CorruptSlotDiscarded(t *testing.T) {
	storage := newMemStorage()
	storage.slots[testKey] = []byte(`{"items":[{"id":`)
	before := testutil.ToFloat64(persistenceErrors.WithLabelValues(stageDecode))

	ps := Open(context.Background(), storage, testKey, logger.Discard())

	assert.Empty(t, ps.State().Items)
	assert.False(t, ps.InMemoryOnly())
	assert.Equal(t, before+1, testutil.ToFloat64(persistenceErrors.WithLabelValues(stageDecode)))

	// The corrupt value is overwritten by the next save.
	_, err := ps.Dispatch(context.Background(), AddToWishlist("w1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"wishlist":["w1"]}`, string(storage.slots[testKey]))
}

func TestOpen_DropsImpossibleLines(t *testing.T) {
	storage := newMemStorage()
	storage.slots[testKey] = []byte(`{"items":[
		{"id":"a1","title":"Sky","price":10,"image_url":"x","quantity":1},
		{"id":"a1","title":"Dup","price":10,"image_url":"x","quantity":4},
		{"id":"","title":"NoID","price":1,"image_url":"x","quantity":1},
		{"id":"a2","title":"Zero","price":1,"image_url":"x","quantity":0}
	],"wishlist":["w1","w1"]}`)

	state := Open(context.Background(), storage, testKey, logger.Discard()).State()

	require.Len(t, state.Items, 1)
	assert.Equal(t, "Sky", state.Items[0].Title)
	assert.Equal(t, []string{"w1"}, state.Wishlist.IDs())
}

func TestOpen_UnreadableSlotGoesInMemory(t *testing.T) {
	storage := new(mockStorage)
	storage.On("Load", mock.Anything, testKey).Return(nil, errors.New("dial tcp: connection refused"))

	ps := Open(context.Background(), storage, testKey, logger.Discard())
	assert.True(t, ps.InMemoryOnly())

	_, err := ps.Dispatch(context.Background(), AddToCart(sky()))
	require.NoError(t, err)
	assert.Equal(t, 1, ps.State().Count())

	storage.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestOpen_CancelledContextStillReads(t *testing.T) {
	storage := &strictStorage{memStorage: newMemStorage()}
	storage.slots[testKey] = []byte(`{"items":[{"id":"a1","title":"Sky","price":10,"image_url":"x","quantity":2}],"wishlist":["w1"]}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ps := Open(ctx, storage, testKey, logger.Discard())
	assert.False(t, ps.InMemoryOnly())
	assert.Equal(t, 2, ps.State().Count())

	_, err := ps.Dispatch(ctx, AddToWishlist("w2"))
	require.NoError(t, err)
	assert.False(t, ps.InMemoryOnly())
	assert.Equal(t, 1, storage.saves)
}

func TestPersistentStore_ReloadReplaysPending(t *testing.T) {
	storage := &strictStorage{memStorage: newMemStorage(), down: true}
	storage.slots[testKey] = []byte(`{"items":[{"id":"a1","title":"Sky","price":1000,"image_url":"x","quantity":1}],"wishlist":["w1"]}`)
	ctx := context.Background()

	ps := Open(ctx, storage, testKey, logger.Discard())
	require.True(t, ps.Unread())

	_, _ = ps.Dispatch(ctx, AddToCart(sky()))
	_, _ = ps.Dispatch(ctx, ToggleWishlist("w1"))
	assert.False(t, ps.Reload(ctx))
	assert.Equal(t, 1, ps.State().Count())

	storage.down = false
	require.True(t, ps.Reload(ctx))
	assert.False(t, ps.Unread())
	assert.False(t, ps.InMemoryOnly())

	state := ps.State()
	assert.Equal(t, 2, state.Count(), "replayed add merges into the stored line")
	assert.False(t, state.Wishlist.Contains("w1"))
	assert.JSONEq(t,
		`{"items":[{"id":"a1","title":"Sky","price":1000,"image_url":"x","quantity":2}],"wishlist":[]}`,
		string(storage.slots[testKey]))

	// Reload on a readable store is a no-op.
	assert.True(t, ps.Reload(ctx))
	assert.Equal(t, 1, storage.saves)
}

// --- writes ---

func TestPersistentStore_SavesEveryDispatch(t *testing.T) {
	storage := newMemStorage()
	ps := Open(context.Background(), storage, testKey, logger.Discard())
	ctx := context.Background()

	_, _ = ps.Dispatch(ctx, AddToCart(sky()))
	_, _ = ps.Dispatch(ctx, UpdateQuantity("a1", 3))
	_, _ = ps.Dispatch(ctx, AddToWishlist("w1"))

	assert.Equal(t, 3, storage.saves)
	assert.JSONEq(t,
		`{"items":[{"id":"a1","title":"Sky","price":1000,"image_url":"x","quantity":3}],"wishlist":["w1"]}`,
		string(storage.slots[testKey]))
}

func TestPersistentStore_RoundTrip(t *testing.T) {
	storage := newMemStorage()
	ctx := context.Background()
	first := Open(ctx, storage, testKey, logger.Discard())

	_, _ = first.Dispatch(ctx, AddToCart(Candidate{
		ID: "a1", Title: "Sky", Price: 1234.56, ImageURL: "/sky.jpg", SizeCategory: "medium", Technique: "oil",
	}))
	_, _ = first.Dispatch(ctx, AddToCart(Candidate{ID: "a2", Title: "Sea", Price: 0.1, ImageURL: "/sea.jpg"}))
	_, _ = first.Dispatch(ctx, AddToCart(Candidate{ID: "a2", Title: "Sea", Price: 0.1, ImageURL: "/sea.jpg"}))
	_, _ = first.Dispatch(ctx, AddToCart(Candidate{ID: "a3", Title: "Dust", Price: 99.99, ImageURL: "/d.jpg"}))
	_, _ = first.Dispatch(ctx, AddToWishlist("w1"))
	_, _ = first.Dispatch(ctx, AddToWishlist("w2"))

	reloaded := Open(ctx, storage, testKey, logger.Discard())

	assert.Equal(t, first.State(), reloaded.State())
	assert.Equal(t, 0.1, reloaded.State().Items[1].Price)
	assert.Equal(t, 2, reloaded.State().Items[1].Quantity)
}

func TestPersistentStore_SaveFailureDegrades(t *testing.T) {
	storage := new(mockStorage)
	storage.On("Load", mock.Anything, testKey).Return(nil, ErrSlotEmpty)
	storage.On("Save", mock.Anything, testKey, mock.Anything).Return(errors.New("OOM command not allowed")).Once()
	before := testutil.ToFloat64(persistenceErrors.WithLabelValues(stageSave))

	ps := Open(context.Background(), storage, testKey, logger.Discard())
	ctx := context.Background()

	res, err := ps.Dispatch(ctx, AddToCart(sky()))
	require.NoError(t, err)
	assert.True(t, res.HasNotice)
	assert.True(t, ps.InMemoryOnly())

	_, err = ps.Dispatch(ctx, AddToCart(sky()))
	require.NoError(t, err)
	assert.Equal(t, 2, ps.State().Count())

	storage.AssertNumberOfCalls(t, "Save", 1)
	assert.Equal(t, before+1, testutil.ToFloat64(persistenceErrors.WithLabelValues(stageSave)))
}

func TestPersistentStore_EmptyIDNotSaved(t *testing.T) {
	storage := newMemStorage()
	ps := Open(context.Background(), storage, testKey, logger.Discard())

	_, err := ps.Dispatch(context.Background(), AddToWishlist(""))
	assert.ErrorIs(t, err, ErrEmptyID)
	assert.Equal(t, 0, storage.saves)
}

func TestMemoryStore_CountsOperations(t *testing.T) {
	counter := operationsTotal.WithLabelValues(string(ActionUpdateQuantity), "none")
	before := testutil.ToFloat64(counter)

	s := NewMemoryStore(domain.CartState{})
	_, err := s.Dispatch(context.Background(), UpdateQuantity("a1", 2))
	require.NoError(t, err)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}
