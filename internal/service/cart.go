package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/arteza/studio/internal/store"
	apperrors "github.com/arteza/studio/pkg/errors"
)

// reloadBackoff spaces out slot reads for a cart whose slot was unreadable.
const reloadBackoff = 5 * time.Second

type cartEntry struct {
	cart     *store.Cart
	ps       *store.PersistentStore
	lastUsed time.Time
	// Next slot read attempt while ps is unread.
	retryAt time.Time
}

// CartService hands out one live cart per browser session. All requests of
// a session share the same store, so its mutex orders their mutations.
type CartService struct {
	storage   store.Storage
	keyPrefix string
	observers []store.Observer
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	carts map[string]*cartEntry
}

// NewCartService creates a cart service persisting to storage under
// keyPrefix + session id. observers are attached to every cart.
func NewCartService(storage store.Storage, keyPrefix string, logger *slog.Logger, observers ...store.Observer) *CartService {
	return &CartService{
		storage:   storage,
		keyPrefix: keyPrefix,
		observers: observers,
		logger:    logger,
		now:       time.Now,
		carts:     make(map[string]*cartEntry),
	}
}

// Cart returns the session's cart, hydrating it from storage on first use.
// A cart opened while its slot was unreadable serves from memory and
// retries the slot on later requests.
func (s *CartService) Cart(ctx context.Context, sessionID string) (*store.Cart, error) {
	if sessionID == "" {
		return nil, apperrors.InvalidInput("session id is required")
	}

	if e, retry := s.lookup(sessionID); e != nil {
		if retry {
			e.ps.Reload(ctx)
		}
		return e.cart, nil
	}

	// Hydrate outside the lock so a slow storage read does not stall other
	// sessions. If two first requests race, the first one registered wins.
	ps := store.Open(ctx, s.storage, s.keyPrefix+sessionID, s.logger)
	fresh := &cartEntry{cart: store.NewCart(ps, s.observers...), ps: ps}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.carts[sessionID]; ok {
		e.lastUsed = s.now()
		return e.cart, nil
	}
	fresh.lastUsed = s.now()
	fresh.retryAt = fresh.lastUsed
	s.carts[sessionID] = fresh
	if ps.InMemoryOnly() {
		s.logger.WarnContext(ctx, "cart opened without persistence", slog.String("session_id", sessionID))
	}
	return fresh.cart, nil
}

// lookup returns the live entry for sessionID and whether its slot should
// be read again now.
func (s *CartService) lookup(sessionID string) (*cartEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.carts[sessionID]
	if !ok {
		return nil, false
	}
	e.lastUsed = s.now()
	if !e.ps.Unread() || e.lastUsed.Before(e.retryAt) {
		return e, false
	}
	e.retryAt = e.lastUsed.Add(reloadBackoff)
	return e, true
}

// EvictIdle drops carts unused for longer than maxIdle and returns how many
// were dropped. Persisted carts are rehydrated on the session's next request.
func (s *CartService) EvictIdle(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for id, e := range s.carts {
		if e.lastUsed.Before(cutoff) {
			delete(s.carts, id)
			n++
		}
	}
	return n
}

// RunEvictor calls EvictIdle every interval until ctx is done.
func (s *CartService) RunEvictor(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.EvictIdle(maxIdle); n > 0 {
				s.logger.Debug("evicted idle carts", slog.Int("count", n))
			}
		}
	}
}

// Live returns the number of carts held in memory.
func (s *CartService) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}
