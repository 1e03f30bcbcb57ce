// Package notify delivers cart notices to request-scoped toast lists and logs.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/store"
	"github.com/arteza/studio/pkg/logger"
)

// Recorder collects the notices raised while serving one request.
type Recorder struct {
	mu      sync.Mutex
	notices []store.Notice
}

// Drain returns the collected notices and resets the recorder.
func (r *Recorder) Drain() []store.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.notices
	r.notices = nil
	if out == nil {
		out = []store.Notice{}
	}
	return out
}

func (r *Recorder) record(n store.Notice) {
	r.mu.Lock()
	r.notices = append(r.notices, n)
	r.mu.Unlock()
}

type recorderKey struct{}

// WithRecorder returns a context whose notices are collected by r.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// RecorderFromContext returns the recorder attached to ctx, or nil.
func RecorderFromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

// ContextObserver forwards each notice to the Recorder carried by the
// dispatching context. Stores are shared by a session's requests, so the
// recorder travels with the request rather than being registered on the store.
type ContextObserver struct{}

// OnNotice implements store.Observer.
func (ContextObserver) OnNotice(ctx context.Context, n store.Notice, _ domain.CartState) {
	if r := RecorderFromContext(ctx); r != nil {
		r.record(n)
	}
}

// LogObserver logs every notice at info level.
type LogObserver struct {
	Logger *slog.Logger
}

// OnNotice implements store.Observer.
func (o LogObserver) OnNotice(ctx context.Context, n store.Notice, state domain.CartState) {
	logger.WithContext(ctx, o.Logger).InfoContext(ctx, "cart notice",
		slog.String("kind", string(n.Kind)),
		slog.String("item_id", n.ItemID),
		slog.Int("count", state.Count()),
		slog.Float64("total", state.Total()),
	)
}
