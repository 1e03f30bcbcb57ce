package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/notify"
	"github.com/arteza/studio/internal/service"
	slotredis "github.com/arteza/studio/internal/storage/redis"
	"github.com/arteza/studio/internal/store"
	apperrors "github.com/arteza/studio/pkg/errors"
	"github.com/arteza/studio/pkg/health"
	"github.com/arteza/studio/pkg/httputil"
	"github.com/arteza/studio/pkg/logger"
	"github.com/arteza/studio/pkg/middleware"
)

// ============================================================================
// Mock remote data service
// ============================================================================

type mockRemote struct {
	mock.Mock
}

func (m *mockRemote) ListArtworks(ctx context.Context, filter domain.ArtworkFilter) ([]domain.Artwork, int, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]domain.Artwork)
	return items, args.Int(1), args.Error(2)
}

func (m *mockRemote) GetArtwork(ctx context.Context, id string) (*domain.Artwork, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Artwork), args.Error(1)
}

func (m *mockRemote) ListUpcomingClasses(ctx context.Context, from time.Time, limit int) ([]domain.ClassSchedule, error) {
	args := m.Called(ctx, from, limit)
	classes, _ := args.Get(0).([]domain.ClassSchedule)
	return classes, args.Error(1)
}

func (m *mockRemote) GetClassSchedule(ctx context.Context, id string) (*domain.ClassSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClassSchedule), args.Error(1)
}

func (m *mockRemote) BookSeats(ctx context.Context, booking *domain.ClassBooking) error {
	return m.Called(ctx, booking).Error(0)
}

func (m *mockRemote) ListEnrollments(ctx context.Context, email string) ([]domain.StudentEnrollment, error) {
	args := m.Called(ctx, email)
	list, _ := args.Get(0).([]domain.StudentEnrollment)
	return list, args.Error(1)
}

func (m *mockRemote) CreateSubscriber(ctx context.Context, sub *domain.EmailSubscriber) error {
	return m.Called(ctx, sub).Error(0)
}

// ============================================================================
// Test helpers
// ============================================================================

type testServer struct {
	handler http.Handler
	remote  *mockRemote
	redis   *miniredis.Miniredis
}

func newTestServer(t *testing.T, opts ...func(*RouterConfig)) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logger.Discard()
	remote := new(mockRemote)
	svcs := Services{
		Cart:    service.NewCartService(slotredis.NewSlotStorage(client, 0), "arteza-cart:", log, notify.ContextObserver{}),
		Catalog: service.NewCatalogService(remote, log),
		Studio:  service.NewStudioService(remote, log),
	}
	cfg := RouterConfig{
		CORSAllowedOrigins: []string{"https://arteza.studio"},
		Session:            SessionConfig{MaxAge: time.Hour},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	h := NewRouter(svcs, health.NewHandler(), cfg, log)

	return &testServer{handler: h, remote: remote, redis: mr}
}

const testSession = "sess-0001-abcd"

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", testSession)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	Data    T                       `json:"data"`
	Notices []store.Notice          `json:"notices"`
	Error   *httputil.ErrorResponse `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

func painting(id string, price float64) AddItemRequest {
	return AddItemRequest{ID: id, Title: "Painting " + id, Price: price, ImageURL: "/img/" + id + ".jpg"}
}

func noticeKinds(ns []store.Notice) []store.NoticeKind {
	out := make([]store.NoticeKind, len(ns))
	for i, n := range ns {
		out[i] = n.Kind
	}
	return out
}

// ============================================================================
// Session
// ============================================================================

func TestSession_MintsWhenMissing(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get("X-Session-ID")
	assert.Len(t, sid, 36)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, sid, cookies[0].Value)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
}

func TestSession_CookieIsReused(t *testing.T) {
	s := newTestServer(t)

	add := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(`{"id":"a1","title":"Dune","price":10}`))
	add.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-session-1"})
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, add)
	require.Equal(t, http.StatusOK, rec.Code)

	get := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	get.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie-session-1"})
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, get)

	env := decode[CartResponse](t, rec)
	assert.Equal(t, 1, env.Data.Count)
	assert.Equal(t, "cookie-session-1", rec.Header().Get("X-Session-ID"))
}

func TestSession_RejectsMalformedHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-ID", "../../etc")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.NotEqual(t, "../../etc", rec.Header().Get("X-Session-ID"))
}

// ============================================================================
// Cart
// ============================================================================

func TestCart_AddTwiceThenRemove(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", painting("A", 100))
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Equal(t, []store.NoticeKind{store.NoticeAdded}, noticeKinds(env.Notices))
	assert.Equal(t, "Added to cart", env.Notices[0].Message)

	rec = s.do(t, http.MethodPost, "/api/v1/cart/items", painting("A", 100))
	env = decode[CartResponse](t, rec)
	assert.Equal(t, []store.NoticeKind{store.NoticeQuantityUpdated}, noticeKinds(env.Notices))
	require.Len(t, env.Data.Items, 1)
	assert.Equal(t, 2, env.Data.Items[0].Quantity)
	assert.Equal(t, 200.0, env.Data.Total)
	assert.Equal(t, 2, env.Data.Count)

	rec = s.do(t, http.MethodDelete, "/api/v1/cart/items/A", nil)
	env = decode[CartResponse](t, rec)
	assert.Equal(t, []store.NoticeKind{store.NoticeRemoved}, noticeKinds(env.Notices))
	assert.Empty(t, env.Data.Items)
	assert.Equal(t, 0.0, env.Data.Total)
}

func TestCart_UpdateQuantity(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/cart/items", painting("A", 100))
	s.do(t, http.MethodPost, "/api/v1/cart/items", painting("B", 50))

	rec := s.do(t, http.MethodPut, "/api/v1/cart/items/A", map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Empty(t, env.Notices)
	assert.Equal(t, 350.0, env.Data.Total)
	assert.Equal(t, 4, env.Data.Count)

	rec = s.do(t, http.MethodPut, "/api/v1/cart/items/A", map[string]int{"quantity": 0})
	env = decode[CartResponse](t, rec)
	assert.Equal(t, []store.NoticeKind{store.NoticeRemoved}, noticeKinds(env.Notices))
	assert.Equal(t, 50.0, env.Data.Total)
}

func TestCart_UpdateQuantityRequiresField(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPut, "/api/v1/cart/items/A", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestCart_AddValidation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/cart/items", AddItemRequest{Title: "No id", Price: 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decode[CartResponse](t, rec)
	assert.Equal(t, "is required", env.Error.Fields["id"])
}

func TestCart_ClearKeepsWishlistAndPersists(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/v1/cart/items", painting("A", 100))
	s.do(t, http.MethodPut, "/api/v1/wishlist/W1", nil)

	rec := s.do(t, http.MethodDelete, "/api/v1/cart", nil)
	env := decode[CartResponse](t, rec)
	assert.Equal(t, []store.NoticeKind{store.NoticeCartCleared}, noticeKinds(env.Notices))
	assert.Empty(t, env.Data.Items)
	assert.Equal(t, []string{"W1"}, env.Data.Wishlist)

	raw, err := s.redis.Get("arteza-cart:" + testSession)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"wishlist":["W1"]}`, raw)
}

// ============================================================================
// Wishlist
// ============================================================================

func TestWishlist_ToggleAndQuery(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/v1/wishlist/W/toggle", nil)
	env := decode[CartResponse](t, rec)
	assert.Equal(t, []store.NoticeKind{store.NoticeWishlistAdded}, noticeKinds(env.Notices))

	rec = s.do(t, http.MethodGet, "/api/v1/wishlist/W", nil)
	in := decode[map[string]any](t, rec)
	assert.Equal(t, true, in.Data["in_wishlist"])

	rec = s.do(t, http.MethodPost, "/api/v1/wishlist/W/toggle", nil)
	env = decode[CartResponse](t, rec)
	assert.Equal(t, []store.NoticeKind{store.NoticeWishlistRemoved}, noticeKinds(env.Notices))

	rec = s.do(t, http.MethodGet, "/api/v1/wishlist", nil)
	list := decode[WishlistResponse](t, rec)
	assert.Empty(t, list.Data.IDs)
	assert.Equal(t, 0, list.Data.Count)
}

func TestWishlist_AddIsIdempotent(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPut, "/api/v1/wishlist/W", nil)
	rec := s.do(t, http.MethodPut, "/api/v1/wishlist/W", nil)
	env := decode[CartResponse](t, rec)
	assert.Equal(t, []string{"W"}, env.Data.Wishlist)
	assert.Equal(t, []store.NoticeKind{store.NoticeWishlistAdded}, noticeKinds(env.Notices))

	rec = s.do(t, http.MethodDelete, "/api/v1/wishlist/W", nil)
	env = decode[CartResponse](t, rec)
	assert.Empty(t, env.Data.Wishlist)
}

// ============================================================================
// Catalog
// ============================================================================

func TestListArtworks_ParsesFilter(t *testing.T) {
	s := newTestServer(t)

	minPrice := 50.0
	want := domain.ArtworkFilter{
		Technique:     "oil",
		Color:         "blue",
		MinPrice:      &minPrice,
		AvailableOnly: true,
		Sort:          domain.SortPriceAsc,
		Limit:         12,
		Offset:        12,
	}
	s.remote.On("ListArtworks", mock.Anything, want).Return([]domain.Artwork{{ID: "a13", Title: "Tide"}}, 13, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/artworks?technique=oil&color=blue&min_price=50&available=true&sort=price_asc&page=2&per_page=12", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var env struct {
		Data struct {
			Data       []domain.Artwork `json:"data"`
			TotalCount int              `json:"total_count"`
			TotalPages int              `json:"total_pages"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Len(t, env.Data.Data, 1)
	assert.Equal(t, 13, env.Data.TotalCount)
	assert.Equal(t, 2, env.Data.TotalPages)
	s.remote.AssertExpectations(t)
}

func TestCacheHeaders(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.CatalogMaxAge = 2 * time.Minute
	})
	s.remote.On("GetArtwork", mock.Anything, "a1").Return(&domain.Artwork{ID: "a1", Title: "Dawn"}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/artworks/a1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=120", rec.Header().Get("Cache-Control"))

	rec = s.do(t, http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestListArtworks_BadPrice(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/artworks?max_price=cheap", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetArtwork_NotFound(t *testing.T) {
	s := newTestServer(t)
	s.remote.On("GetArtwork", mock.Anything, "ghost").Return(nil, apperrors.NotFound("artwork", "ghost"))

	rec := s.do(t, http.MethodGet, "/api/v1/artworks/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode[any](t, rec)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

func TestRecommend(t *testing.T) {
	s := newTestServer(t)
	s.remote.On("ListArtworks", mock.Anything, mock.Anything).Return([]domain.Artwork{
		{ID: "calm", Price: 100, MoodTags: []string{"calm"}},
		{ID: "loud", Price: 100, MoodTags: []string{"loud"}},
	}, 2, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/recommendations", RecommendRequest{Mood: "calm"})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[[]service.Recommendation](t, rec)
	require.Len(t, env.Data, 1)
	assert.Equal(t, "calm", env.Data[0].Artwork.ID)
}

// ============================================================================
// Studio
// ============================================================================

func TestBookClass_Created(t *testing.T) {
	s := newTestServer(t)
	s.remote.On("GetClassSchedule", mock.Anything, "cls-1").Return(&domain.ClassSchedule{
		ID: "cls-1", StartsAt: time.Now().Add(72 * time.Hour), Capacity: 6, SpotsTaken: 1,
	}, nil)
	s.remote.On("BookSeats", mock.Anything, mock.Anything).Return(nil)

	rec := s.do(t, http.MethodPost, "/api/v1/classes/cls-1/bookings", BookClassRequest{
		FullName: "Ana Lima", Email: "ana@example.com", Seats: 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	env := decode[domain.ClassBooking](t, rec)
	assert.Equal(t, 2, env.Data.Seats)
	assert.Equal(t, "cls-1", env.Data.ScheduleID)
}

func TestBookClass_Full(t *testing.T) {
	s := newTestServer(t)
	s.remote.On("GetClassSchedule", mock.Anything, "cls-1").Return(&domain.ClassSchedule{
		ID: "cls-1", StartsAt: time.Now().Add(72 * time.Hour), Capacity: 6, SpotsTaken: 6,
	}, nil)

	rec := s.do(t, http.MethodPost, "/api/v1/classes/cls-1/bookings", BookClassRequest{
		FullName: "Ana Lima", Email: "ana@example.com", Seats: 1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestListClasses_BadFrom(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/v1/classes?from=tomorrow", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubscribe_Duplicate(t *testing.T) {
	s := newTestServer(t)
	s.remote.On("CreateSubscriber", mock.Anything, mock.Anything).Return(apperrors.AlreadyExists("subscriber", "email", "known@example.com")).Once()

	rec := s.do(t, http.MethodPost, "/api/v1/subscribers", SubscribeRequest{Email: "known@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode[any](t, rec)
	assert.Equal(t, "ALREADY_EXISTS", env.Error.Code)
}

func TestSubscribe_RateLimited(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.WriteRateLimit = middleware.RateLimitConfig{RPS: 0.001, Burst: 1}
	})
	s.remote.On("CreateSubscriber", mock.Anything, mock.Anything).Return(nil)

	rec := s.do(t, http.MethodPost, "/api/v1/subscribers", SubscribeRequest{Email: "first@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/subscribers", SubscribeRequest{Email: "second@example.com"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	s.remote.AssertNumberOfCalls(t, "CreateSubscriber", 1)

	// Reads are not limited.
	s.remote.On("ListUpcomingClasses", mock.Anything, mock.Anything, mock.Anything).Return([]domain.ClassSchedule{}, nil)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/classes", nil).Code)
}

func TestEnrollments(t *testing.T) {
	s := newTestServer(t)
	s.remote.On("ListEnrollments", mock.Anything, "ana@example.com").Return([]domain.StudentEnrollment{
		{ID: "e1", CourseName: "Oil I", Progress: 60},
	}, nil)

	rec := s.do(t, http.MethodGet, "/api/v1/enrollments?email=ana@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode[[]domain.StudentEnrollment](t, rec)
	require.Len(t, env.Data, 1)
	assert.Equal(t, 60, env.Data[0].Progress)
}

// ============================================================================
// Middleware
// ============================================================================

func TestContentTypeJSON_Rejects(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/subscribers", bytes.NewBufferString("email=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/health/live", "/health/ready", "/metrics"} {
		rec := httptest.NewRecorder()
		s.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Empty(t, rec.Result().Cookies(), path)
	}
}
