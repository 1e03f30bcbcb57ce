// Package postgrest implements the remote data service against a hosted
// PostgREST table API.
package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/remote"
	apperrors "github.com/arteza/studio/pkg/errors"
	"github.com/arteza/studio/pkg/httpclient"
)

const (
	dependencyName = "data-service"
	// releaseTimeout bounds handing back seats after a failed booking insert.
	releaseTimeout = 5 * time.Second
)

// Client talks to the /rest/v1 table endpoints of the data service.
type Client struct {
	baseURL string
	apiKey  string
	http    httpclient.Doer
	logger  *slog.Logger
}

var _ remote.Backend = (*Client)(nil)

// New creates a client. doer is normally an httpclient.Breaker.
func New(baseURL, apiKey string, doer httpclient.Doer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/rest/v1/",
		apiKey:  apiKey,
		http:    doer,
		logger:  logger,
	}
}

func (c *Client) newRequest(ctx context.Context, method, table, rawQuery string, body any) (*http.Request, error) {
	u := c.baseURL + table
	if rawQuery != "" {
		u += "?" + rawQuery
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", table, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", table, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// do executes req and decodes a 2xx JSON body into dst. It returns the
// response headers for callers that read Content-Range.
func (c *Client) do(req *http.Request, dst any) (http.Header, error) {
	resp, err := c.http.Do(req.Context(), req)
	if err != nil {
		return nil, apperrors.Unavailable(dependencyName, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, httpclient.ParseResponseError(resp, dependencyName)
	}
	defer func() { _ = resp.Body.Close() }()

	if dst != nil {
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return nil, fmt.Errorf("decode %s response: %w", req.URL.Path, err)
		}
	}
	return resp.Header, nil
}

// getOne decodes the row of table with the given id, or returns NotFound.
func getOne[T any](ctx context.Context, c *Client, table, resource, id string) (*T, error) {
	q := newQuery().eq("id", id).page(1, 0)
	req, err := c.newRequest(ctx, http.MethodGet, table, q.encode(), nil)
	if err != nil {
		return nil, err
	}
	var rows []T
	if _, err := c.do(req, &rows); err != nil {
		return nil, fmt.Errorf("get %s: %w", resource, err)
	}
	if len(rows) == 0 {
		return nil, apperrors.NotFound(resource, id)
	}
	return &rows[0], nil
}

// --- artworks ---

var artworkOrder = map[string]string{
	domain.SortNewest:    "created_at.desc",
	domain.SortPriceAsc:  "price.asc",
	domain.SortPriceDesc: "price.desc",
	domain.SortTitle:     "title.asc",
}

// ListArtworks implements remote.ArtworkRepository.
func (c *Client) ListArtworks(ctx context.Context, f domain.ArtworkFilter) ([]domain.Artwork, int, error) {
	q := newQuery().
		eq("technique", f.Technique).
		eq("size_category", f.SizeCategory).
		eq("collection_name", f.Collection).
		contains("dominant_colors", f.Color).
		contains("mood_tags", f.Mood).
		ilike("title", f.Query)
	if f.MinPrice != nil {
		q.gte("price", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q.lte("price", *f.MaxPrice)
	}
	if f.AvailableOnly {
		q.eq("availability_status", domain.AvailabilityAvailable)
	}
	order, ok := artworkOrder[f.Sort]
	if !ok {
		order = artworkOrder[domain.SortNewest]
	}
	q.order(order).page(f.Limit, f.Offset)

	req, err := c.newRequest(ctx, http.MethodGet, "artworks", q.encode(), nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Prefer", "count=exact")

	var rows []domain.Artwork
	header, err := c.do(req, &rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list artworks: %w", err)
	}

	total, ok := parseContentRange(header.Get("Content-Range"))
	if !ok {
		total = f.Offset + len(rows)
	}
	return rows, total, nil
}

// GetArtwork implements remote.ArtworkRepository.
func (c *Client) GetArtwork(ctx context.Context, id string) (*domain.Artwork, error) {
	return getOne[domain.Artwork](ctx, c, "artworks", "artwork", id)
}

// --- classes ---

// ListUpcomingClasses implements remote.ClassRepository.
func (c *Client) ListUpcomingClasses(ctx context.Context, from time.Time, limit int) ([]domain.ClassSchedule, error) {
	q := newQuery().
		filter("starts_at", "gte", from.UTC().Format(time.RFC3339)).
		order("starts_at.asc").
		page(limit, 0)

	req, err := c.newRequest(ctx, http.MethodGet, "class_schedules", q.encode(), nil)
	if err != nil {
		return nil, err
	}
	var rows []domain.ClassSchedule
	if _, err := c.do(req, &rows); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return rows, nil
}

// GetClassSchedule implements remote.ClassRepository.
func (c *Client) GetClassSchedule(ctx context.Context, id string) (*domain.ClassSchedule, error) {
	return getOne[domain.ClassSchedule](ctx, c, "class_schedules", "class schedule", id)
}

// BookSeats implements remote.ClassRepository. Seats are claimed with a
// conditional PATCH on the spots_taken value just read, so two concurrent
// bookings cannot both take the last seat.
func (c *Client) BookSeats(ctx context.Context, b *domain.ClassBooking) error {
	schedule, err := c.GetClassSchedule(ctx, b.ScheduleID)
	if err != nil {
		return err
	}
	if b.Seats > schedule.SpotsLeft() {
		return apperrors.Conflict(fmt.Sprintf("only %d seats left for this class", schedule.SpotsLeft()))
	}

	q := newQuery().
		eq("id", schedule.ID).
		filter("spots_taken", "eq", fmt.Sprint(schedule.SpotsTaken))
	req, err := c.newRequest(ctx, http.MethodPatch, "class_schedules", q.encode(),
		map[string]int{"spots_taken": schedule.SpotsTaken + b.Seats})
	if err != nil {
		return err
	}
	req.Header.Set("Prefer", "return=representation")

	var updated []domain.ClassSchedule
	if _, err := c.do(req, &updated); err != nil {
		return fmt.Errorf("claim seats: %w", err)
	}
	if len(updated) == 0 {
		return apperrors.Conflict("class was booked concurrently, please retry")
	}

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.Status == "" {
		b.Status = domain.BookingPending
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	req, err = c.newRequest(ctx, http.MethodPost, "class_bookings", "", b)
	if err != nil {
		return err
	}
	if _, err := c.do(req, nil); err != nil {
		c.releaseSeats(ctx, schedule, b.Seats)
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// releaseSeats hands back seats claimed for a booking whose insert failed.
// The PATCH only applies while spots_taken still holds our claim; if another
// booking moved it since, the seats stay taken and the mismatch is logged.
func (c *Client) releaseSeats(ctx context.Context, schedule *domain.ClassSchedule, seats int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	log := c.logger.With(
		slog.String("schedule_id", schedule.ID),
		slog.Int("seats", seats),
	)

	q := newQuery().
		eq("id", schedule.ID).
		filter("spots_taken", "eq", fmt.Sprint(schedule.SpotsTaken+seats))
	req, err := c.newRequest(ctx, http.MethodPatch, "class_schedules", q.encode(),
		map[string]int{"spots_taken": schedule.SpotsTaken})
	if err != nil {
		log.ErrorContext(ctx, "release claimed seats", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Prefer", "return=representation")

	var released []domain.ClassSchedule
	if _, err := c.do(req, &released); err != nil {
		log.ErrorContext(ctx, "release claimed seats", slog.String("error", err.Error()))
		return
	}
	if len(released) == 0 {
		log.ErrorContext(ctx, "claimed seats not released, schedule changed concurrently")
		return
	}
	log.WarnContext(ctx, "booking insert failed, claimed seats released")
}

// --- enrollments & subscribers ---

// ListEnrollments implements remote.EnrollmentRepository.
func (c *Client) ListEnrollments(ctx context.Context, email string) ([]domain.StudentEnrollment, error) {
	q := newQuery().eq("email", email).order("enrolled_at.desc")
	req, err := c.newRequest(ctx, http.MethodGet, "student_enrollments", q.encode(), nil)
	if err != nil {
		return nil, err
	}
	var rows []domain.StudentEnrollment
	if _, err := c.do(req, &rows); err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return rows, nil
}

// CreateSubscriber implements remote.SubscriberRepository.
func (c *Client) CreateSubscriber(ctx context.Context, sub *domain.EmailSubscriber) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	req, err := c.newRequest(ctx, http.MethodPost, "email_subscribers", "", sub)
	if err != nil {
		return err
	}
	if _, err := c.do(req, nil); err != nil {
		if apperrors.HTTPStatus(err) == http.StatusConflict {
			return apperrors.AlreadyExists("subscriber", "email", sub.Email)
		}
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}

// Ping implements remote.Backend.
func (c *Client) Ping(ctx context.Context) error {
	q := newQuery().page(1, 0)
	q.values.Set("select", "id")
	req, err := c.newRequest(ctx, http.MethodGet, "artworks", q.encode(), nil)
	if err != nil {
		return err
	}
	_, err = c.do(req, nil)
	return err
}
