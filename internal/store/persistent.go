package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/arteza/studio/internal/domain"
)

// ErrSlotEmpty is returned by Storage.Load when nothing is stored under key.
var ErrSlotEmpty = errors.New("storage slot is empty")

// StorageTimeout bounds a single slot read or write.
const StorageTimeout = 3 * time.Second

// storageContext detaches slot I/O from the caller's cancellation. A client
// that goes away mid-request must not count as a storage failure.
func storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), StorageTimeout)
}

// Storage is a key-value slot store holding serialised cart state.
type Storage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// PersistentStore writes the full state to a storage slot after every
// dispatch, before Dispatch returns. If a save ever fails it stops writing
// and keeps serving from memory for the rest of its life.
//
// A store opened over an unreadable slot also serves from memory, but keeps
// the actions it applied so Reload can replay them over the slot once it can
// be read.
type PersistentStore struct {
	mu       sync.Mutex
	inner    Store
	storage  Storage
	key      string
	logger   *slog.Logger
	inMemory bool
	unread   bool
	pending  []Action
}

// Hydrate reads the slot under key. An empty slot yields an empty state.
// A corrupt slot is discarded with a warning. ok is false when the slot
// could not be read at all, in which case writing to it is unsafe.
func Hydrate(ctx context.Context, storage Storage, key string, logger *slog.Logger) (state domain.CartState, ok bool) {
	ioCtx, cancel := storageContext(ctx)
	defer cancel()

	data, err := storage.Load(ioCtx, key)
	if errors.Is(err, ErrSlotEmpty) {
		return domain.CartState{}, true
	}
	if err != nil {
		persistenceErrors.WithLabelValues(stageLoad).Inc()
		logger.WarnContext(ctx, "cart slot unreadable, starting empty in memory",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return domain.CartState{}, false
	}

	if err := json.Unmarshal(data, &state); err != nil {
		persistenceErrors.WithLabelValues(stageDecode).Inc()
		logger.WarnContext(ctx, "discarding corrupt cart slot",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return domain.CartState{}, true
	}
	state.Items = dropInvalidLines(state.Items)
	return state, true
}

// dropInvalidLines removes lines a well-behaved store could never have
// written: missing ids, non-positive quantities and repeated ids.
func dropInvalidLines(items []domain.LineItem) []domain.LineItem {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, li := range items {
		if li.ID == "" || li.Quantity < 1 || seen[li.ID] {
			continue
		}
		seen[li.ID] = true
		out = append(out, li)
	}
	return out
}

// Open hydrates the slot under key and returns a persistent store over a
// MemoryStore seeded with it.
func Open(ctx context.Context, storage Storage, key string, logger *slog.Logger) *PersistentStore {
	state, ok := Hydrate(ctx, storage, key, logger)
	ps := NewPersistentStore(NewMemoryStore(state), storage, key, logger)
	ps.inMemory = !ok
	ps.unread = !ok
	return ps
}

// NewPersistentStore decorates inner so every dispatch is written to key.
// inner must already hold the hydrated state.
func NewPersistentStore(inner Store, storage Storage, key string, logger *slog.Logger) *PersistentStore {
	return &PersistentStore{
		inner:   inner,
		storage: storage,
		key:     key,
		logger:  logger,
	}
}

// State implements Store.
func (p *PersistentStore) State() domain.CartState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inner.State()
}

// InMemoryOnly reports whether the store has stopped writing to storage.
func (p *PersistentStore) InMemoryOnly() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inMemory
}

// Unread reports whether the slot has not been read yet because storage
// failed when the store was opened.
func (p *PersistentStore) Unread() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unread
}

// Reload retries reading the slot of a store opened while storage was
// failing. On success the stored cart becomes the base state, the actions
// applied in the meantime are replayed over it, and writes resume. It
// reports whether the store is now backed by the slot.
func (p *PersistentStore) Reload(ctx context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.unread {
		return !p.inMemory
	}

	state, ok := Hydrate(ctx, p.storage, p.key, p.logger)
	if !ok {
		return false
	}
	for _, a := range p.pending {
		state, _, _ = Reduce(state, a)
	}
	replayed := len(p.pending)
	p.inner = NewMemoryStore(state)
	p.unread = false
	p.inMemory = false
	p.pending = nil

	p.logger.InfoContext(ctx, "cart slot readable again, persistence resumed",
		slog.String("key", p.key),
		slog.Int("replayed", replayed),
	)
	if replayed > 0 {
		p.save(ctx, state)
	}
	return !p.inMemory
}

// Dispatch implements Store. Persistence failures are logged and counted,
// never returned.
func (p *PersistentStore) Dispatch(ctx context.Context, a Action) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res, err := p.inner.Dispatch(ctx, a)
	if err != nil {
		return Result{}, err
	}
	if p.unread {
		p.pending = append(p.pending, a)
	}
	if p.inMemory {
		return res, nil
	}
	p.save(ctx, res.State)
	return res, nil
}

// save writes state to the slot. The caller holds p.mu.
func (p *PersistentStore) save(ctx context.Context, state domain.CartState) {
	data, err := json.Marshal(state)
	if err != nil {
		persistenceErrors.WithLabelValues(stageEncode).Inc()
		p.degrade(ctx, "encode", err)
		return
	}

	ioCtx, cancel := storageContext(ctx)
	defer cancel()
	if err := p.storage.Save(ioCtx, p.key, data); err != nil {
		persistenceErrors.WithLabelValues(stageSave).Inc()
		p.degrade(ctx, "save", err)
	}
}

func (p *PersistentStore) degrade(ctx context.Context, stage string, err error) {
	p.inMemory = true
	p.logger.ErrorContext(ctx, "cart persistence failed, continuing in memory only",
		slog.String("key", p.key),
		slog.String("stage", stage),
		slog.String("error", err.Error()),
	)
}
