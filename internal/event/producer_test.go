package event

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/store"
	pkgkafka "github.com/arteza/studio/pkg/kafka"
	"github.com/arteza/studio/pkg/logger"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, topic string, event *pkgkafka.Event) error {
	args := m.Called(ctx, topic, event)
	return args.Error(0)
}

func TestProducer_PublishesNoticeWithSnapshot(t *testing.T) {
	pub := new(mockPublisher)
	var published *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicCartNotice, mock.AnythingOfType("*kafka.Event")).
		Run(func(args mock.Arguments) { published = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	p := NewProducer(pub, logger.Discard())
	cart := store.NewCart(store.NewMemoryStore(domain.CartState{}), p)

	ctx := logger.WithCorrelationID(logger.WithSessionID(context.Background(), "sess-42"), "corr-7")
	require.NoError(t, cart.AddToCart(ctx, store.Candidate{ID: "a1", Title: "Sky", Price: 12.5}))

	pub.AssertExpectations(t)
	require.NotNil(t, published)
	assert.Equal(t, "cart.added", published.EventType)
	assert.Equal(t, "sess-42", published.AggregateID)
	assert.Equal(t, SourceStudio, published.Source)
	assert.Equal(t, "corr-7", published.CorrelationID)
	assert.Equal(t, map[string]string{"notice_kind": "added", "item_id": "a1"}, published.Metadata)

	var data NoticeData
	require.NoError(t, json.Unmarshal(published.Data, &data))
	assert.Equal(t, NoticeData{
		SessionID: "sess-42", Kind: "added", ItemID: "a1", Title: "Sky", ItemCount: 1, Total: 12.5,
	}, data)
}

func TestProducer_PublishFailureDoesNotFailCart(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicCartNotice, mock.Anything).Return(errors.New("broker down"))

	cart := store.NewCart(store.NewMemoryStore(domain.CartState{}), NewProducer(pub, logger.Discard()))

	require.NoError(t, cart.ToggleWishlist(context.Background(), "w1"))
	assert.True(t, cart.IsInWishlist("w1"))
	pub.AssertNumberOfCalls(t, "Publish", 1)
}

func TestProducer_ClearNoticeHasNoItemMetadata(t *testing.T) {
	pub := new(mockPublisher)
	var published *pkgkafka.Event
	pub.On("Publish", mock.Anything, TopicCartNotice, mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).(*pkgkafka.Event) }).
		Return(nil)

	err := NewProducer(pub, logger.Discard()).PublishNotice(context.Background(),
		store.Notice{Kind: store.NoticeCartCleared}, domain.CartState{})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"notice_kind": "cart_cleared"}, published.Metadata)
	assert.Empty(t, published.CorrelationID)
}

func TestProducer_PublishNoticeWrapsError(t *testing.T) {
	pub := new(mockPublisher)
	pub.On("Publish", mock.Anything, TopicCartNotice, mock.Anything).Return(errors.New("broker down"))

	err := NewProducer(pub, logger.Discard()).PublishNotice(context.Background(),
		store.Notice{Kind: store.NoticeCartCleared}, domain.CartState{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish cart notice event")
}
