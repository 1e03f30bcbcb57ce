// Package postgres implements the remote data service directly on
// PostgreSQL, for self-hosted deployments and local development.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/remote"
	"github.com/arteza/studio/pkg/database"
	apperrors "github.com/arteza/studio/pkg/errors"
)

// Backend implements remote.Backend using PostgreSQL.
type Backend struct {
	db     database.TxBeginner
	tracer *database.QueryTracer
}

var _ remote.Backend = (*Backend)(nil)

// NewBackend creates a PostgreSQL-backed data service. tracer may be nil.
func NewBackend(db database.TxBeginner, tracer *database.QueryTracer) *Backend {
	return &Backend{db: db, tracer: tracer}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// ---------------------------------------------------------------------------
// Artworks
// ---------------------------------------------------------------------------

const artworkColumns = `id, title, description, image_url, collection_name, price,
	availability_status, technique, size_category, dominant_colors, mood_tags,
	created_year, created_at`

func scanArtwork(row pgx.Row, extra ...any) (domain.Artwork, error) {
	var a domain.Artwork
	dest := []any{
		&a.ID, &a.Title, &a.Description, &a.ImageURL, &a.CollectionName, &a.Price,
		&a.AvailabilityStatus, &a.Technique, &a.SizeCategory, &a.DominantColors, &a.MoodTags,
		&a.CreatedYear, &a.CreatedAt,
	}
	err := row.Scan(append(dest, extra...)...)
	return a, err
}

var artworkOrder = map[string]string{
	domain.SortNewest:    "created_at DESC, id",
	domain.SortPriceAsc:  "price ASC, id",
	domain.SortPriceDesc: "price DESC, id",
	domain.SortTitle:     "title ASC, id",
}

// ListArtworks implements remote.ArtworkRepository.
func (b *Backend) ListArtworks(ctx context.Context, f domain.ArtworkFilter) (_ []domain.Artwork, _ int, err error) {
	var (
		conditions []string
		args       []any
	)
	where := func(format string, v any) {
		args = append(args, v)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if f.Technique != "" {
		where("technique = $%d", f.Technique)
	}
	if f.SizeCategory != "" {
		where("size_category = $%d", f.SizeCategory)
	}
	if f.Collection != "" {
		where("collection_name = $%d", f.Collection)
	}
	if f.Color != "" {
		where("$%d = ANY(dominant_colors)", f.Color)
	}
	if f.Mood != "" {
		where("$%d = ANY(mood_tags)", f.Mood)
	}
	if f.Query != "" {
		where("title ILIKE '%%' || $%d || '%%'", f.Query)
	}
	if f.MinPrice != nil {
		where("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		where("price <= $%d", *f.MaxPrice)
	}
	if f.AvailableOnly {
		where("availability_status = $%d", domain.AvailabilityAvailable)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	order, ok := artworkOrder[f.Sort]
	if !ok {
		order = artworkOrder[domain.SortNewest]
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 24
	}
	args = append(args, limit, f.Offset)

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM artworks
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		artworkColumns, whereClause, order, len(args)-1, len(args),
	)

	ctx, end := b.tracer.Trace(ctx, "ListArtworks", query)
	defer func() { end(err) }()

	rows, err := b.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list artworks: %w", err)
	}
	defer rows.Close()

	artworks := []domain.Artwork{}
	var total int
	for rows.Next() {
		a, err := scanArtwork(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan artwork row: %w", err)
		}
		artworks = append(artworks, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate artwork rows: %w", err)
	}
	return artworks, total, nil
}

// GetArtwork implements remote.ArtworkRepository.
func (b *Backend) GetArtwork(ctx context.Context, id string) (_ *domain.Artwork, err error) {
	query := `SELECT ` + artworkColumns + ` FROM artworks WHERE id = $1`

	ctx, end := b.tracer.Trace(ctx, "GetArtwork", query)
	defer func() { end(err) }()

	a, err := scanArtwork(b.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("artwork", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get artwork: %w", err)
	}
	return &a, nil
}

// ---------------------------------------------------------------------------
// Classes
// ---------------------------------------------------------------------------

const scheduleColumns = `id, title, description, starts_at, duration_minutes, capacity, spots_taken, price, level`

func scanSchedule(row pgx.Row) (domain.ClassSchedule, error) {
	var c domain.ClassSchedule
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.StartsAt, &c.DurationMinutes,
		&c.Capacity, &c.SpotsTaken, &c.Price, &c.Level)
	return c, err
}

// ListUpcomingClasses implements remote.ClassRepository.
func (b *Backend) ListUpcomingClasses(ctx context.Context, from time.Time, limit int) (_ []domain.ClassSchedule, err error) {
	query := `SELECT ` + scheduleColumns + `
		FROM class_schedules
		WHERE starts_at >= $1
		ORDER BY starts_at
		LIMIT $2`

	ctx, end := b.tracer.Trace(ctx, "ListUpcomingClasses", query)
	defer func() { end(err) }()

	rows, err := b.db.Query(ctx, query, from, limit)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	defer rows.Close()

	schedules := []domain.ClassSchedule{}
	for rows.Next() {
		c, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan class row: %w", err)
		}
		schedules = append(schedules, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate class rows: %w", err)
	}
	return schedules, nil
}

// GetClassSchedule implements remote.ClassRepository.
func (b *Backend) GetClassSchedule(ctx context.Context, id string) (_ *domain.ClassSchedule, err error) {
	query := `SELECT ` + scheduleColumns + ` FROM class_schedules WHERE id = $1`

	ctx, end := b.tracer.Trace(ctx, "GetClassSchedule", query)
	defer func() { end(err) }()

	c, err := scanSchedule(b.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("class schedule", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get class schedule: %w", err)
	}
	return &c, nil
}

// BookSeats implements remote.ClassRepository. The seat claim and the
// booking row are written in one transaction.
func (b *Backend) BookSeats(ctx context.Context, booking *domain.ClassBooking) (err error) {
	ctx, end := b.tracer.Trace(ctx, "BookSeats", "UPDATE class_schedules; INSERT INTO class_bookings")
	defer func() { end(err) }()

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.Status == "" {
		booking.Status = domain.BookingPending
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now().UTC()
	}

	tx, err := b.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin booking tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		UPDATE class_schedules
		SET spots_taken = spots_taken + $2
		WHERE id = $1 AND spots_taken + $2 <= capacity`,
		booking.ScheduleID, booking.Seats,
	)
	if err != nil {
		return fmt.Errorf("claim seats: %w", err)
	}
	if ct.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM class_schedules WHERE id = $1)`, booking.ScheduleID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check class schedule: %w", err)
		}
		if !exists {
			return apperrors.NotFound("class schedule", booking.ScheduleID)
		}
		return apperrors.Conflict("not enough seats left for this class")
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO class_bookings (id, schedule_id, full_name, email, phone, seats, notes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		booking.ID, booking.ScheduleID, booking.FullName, booking.Email, booking.Phone,
		booking.Seats, booking.Notes, booking.Status, booking.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Enrollments & subscribers
// ---------------------------------------------------------------------------

// ListEnrollments implements remote.EnrollmentRepository.
func (b *Backend) ListEnrollments(ctx context.Context, email string) (_ []domain.StudentEnrollment, err error) {
	query := `
		SELECT id, email, course_name, progress, status, enrolled_at
		FROM student_enrollments
		WHERE email = $1
		ORDER BY enrolled_at DESC`

	ctx, end := b.tracer.Trace(ctx, "ListEnrollments", query)
	defer func() { end(err) }()

	rows, err := b.db.Query(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	defer rows.Close()

	enrollments := []domain.StudentEnrollment{}
	for rows.Next() {
		var e domain.StudentEnrollment
		if err := rows.Scan(&e.ID, &e.Email, &e.CourseName, &e.Progress, &e.Status, &e.EnrolledAt); err != nil {
			return nil, fmt.Errorf("scan enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate enrollment rows: %w", err)
	}
	return enrollments, nil
}

// CreateSubscriber implements remote.SubscriberRepository.
func (b *Backend) CreateSubscriber(ctx context.Context, sub *domain.EmailSubscriber) (err error) {
	query := `INSERT INTO email_subscribers (id, email, source, created_at) VALUES ($1, $2, $3, $4)`

	ctx, end := b.tracer.Trace(ctx, "CreateSubscriber", query)
	defer func() { end(err) }()

	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}

	if _, err := b.db.Exec(ctx, query, sub.ID, sub.Email, sub.Source, sub.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("subscriber", "email", sub.Email)
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

// Ping implements remote.Backend.
func (b *Backend) Ping(ctx context.Context) error {
	var one int
	if err := b.db.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}
