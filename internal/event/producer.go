package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/store"
	pkgkafka "github.com/arteza/studio/pkg/kafka"
	"github.com/arteza/studio/pkg/logger"
)

// TopicCartNotice carries every cart and wishlist notice.
const TopicCartNotice = "arteza.cart.notice"

// AggregateTypeCart is the aggregate type of cart events.
const AggregateTypeCart = "cart"

// SourceStudio identifies events published by this service.
const SourceStudio = "studio"

// NoticeData is the payload of a cart notice event.
type NoticeData struct {
	SessionID     string  `json:"session_id"`
	Kind          string  `json:"kind"`
	ItemID        string  `json:"item_id,omitempty"`
	Title         string  `json:"title,omitempty"`
	ItemCount     int     `json:"item_count"`
	Total         float64 `json:"total"`
	WishlistCount int     `json:"wishlist_count"`
}

// Publisher is the subset of *pkgkafka.Producer used here.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart notices to Kafka. It is a store.Observer; publish
// failures are logged and never reach the cart operation.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a notice producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishNotice publishes one notice with the committed cart snapshot.
// The session id from ctx keys the message.
func (p *Producer) PublishNotice(ctx context.Context, n store.Notice, state domain.CartState) error {
	sessionID := logger.SessionIDFromContext(ctx)
	data := NoticeData{
		SessionID:     sessionID,
		Kind:          string(n.Kind),
		ItemID:        n.ItemID,
		Title:         n.Title,
		ItemCount:     state.Count(),
		Total:         state.Total(),
		WishlistCount: state.Wishlist.Len(),
	}

	evt, err := pkgkafka.NewEvent("cart."+string(n.Kind),
		pkgkafka.Aggregate{Type: AggregateTypeCart, ID: sessionID}, SourceStudio, data)
	if err != nil {
		return fmt.Errorf("create cart notice event: %w", err)
	}
	evt.WithCorrelationID(logger.CorrelationIDFromContext(ctx)).
		WithMetadata("notice_kind", string(n.Kind)).
		WithMetadata("item_id", n.ItemID)

	if err := p.publisher.Publish(ctx, TopicCartNotice, evt); err != nil {
		return fmt.Errorf("publish cart notice event: %w", err)
	}
	return nil
}

// OnNotice implements store.Observer.
func (p *Producer) OnNotice(ctx context.Context, n store.Notice, state domain.CartState) {
	if err := p.PublishNotice(ctx, n, state); err != nil {
		p.logger.ErrorContext(ctx, "failed to publish cart notice",
			slog.String("kind", string(n.Kind)),
			slog.String("error", err.Error()),
		)
	}
}
