package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/arteza/studio/internal/domain"
	"github.com/arteza/studio/internal/remote"
	apperrors "github.com/arteza/studio/pkg/errors"
	"github.com/arteza/studio/pkg/validator"
)

const (
	// DefaultUpcomingLimit is how many upcoming classes the schedule page shows.
	DefaultUpcomingLimit = 50
	// MaxSeatsPerBooking caps a single booking.
	MaxSeatsPerBooking = 10
)

// StudioRepository is the data the studio pages need.
type StudioRepository interface {
	remote.ClassRepository
	remote.EnrollmentRepository
	remote.SubscriberRepository
}

// StudioService implements class booking, the student dashboard and the
// newsletter signup.
type StudioService struct {
	repo   StudioRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewStudioService creates a new studio service.
func NewStudioService(repo StudioRepository, logger *slog.Logger) *StudioService {
	return &StudioService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// UpcomingClasses lists schedules starting at or after from. A zero from
// means now.
func (s *StudioService) UpcomingClasses(ctx context.Context, from time.Time) ([]domain.ClassSchedule, error) {
	if from.IsZero() {
		from = s.now().UTC()
	}
	classes, err := s.repo.ListUpcomingClasses(ctx, from, DefaultUpcomingLimit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming classes: %w", err)
	}
	return classes, nil
}

// BookClassInput holds the parameters for booking a class.
type BookClassInput struct {
	FullName string `json:"full_name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"omitempty,max=40"`
	Seats    int    `json:"seats" validate:"required,min=1"`
	Notes    string `json:"notes" validate:"omitempty,max=2000"`
}

// BookClass reserves seats on a schedule. It fails with a conflict when the
// class has started or has fewer seats left than requested.
func (s *StudioService) BookClass(ctx context.Context, scheduleID string, input BookClassInput) (*domain.ClassBooking, error) {
	if scheduleID == "" {
		return nil, apperrors.InvalidInput("schedule id is required")
	}
	if err := validator.Validate(input); err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}
	if input.Seats > MaxSeatsPerBooking {
		return nil, apperrors.InvalidInput(fmt.Sprintf("at most %d seats can be booked at once", MaxSeatsPerBooking))
	}

	schedule, err := s.repo.GetClassSchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("get class schedule %s: %w", scheduleID, err)
	}
	now := s.now().UTC()
	if !schedule.StartsAt.After(now) {
		return nil, apperrors.Conflict("class has already started")
	}
	if input.Seats > schedule.SpotsLeft() {
		return nil, apperrors.Conflict(fmt.Sprintf("only %d seats left", schedule.SpotsLeft()))
	}

	booking := &domain.ClassBooking{
		ID:         uuid.New().String(),
		ScheduleID: scheduleID,
		FullName:   strings.TrimSpace(input.FullName),
		Email:      normalizeEmail(input.Email),
		Phone:      strings.TrimSpace(input.Phone),
		Seats:      input.Seats,
		Notes:      input.Notes,
		Status:     domain.BookingConfirmed,
		CreatedAt:  now,
	}

	// The repository re-checks capacity atomically; the check above only
	// produces a friendlier message for the common case.
	if err := s.repo.BookSeats(ctx, booking); err != nil {
		return nil, fmt.Errorf("book class %s: %w", scheduleID, err)
	}

	s.logger.InfoContext(ctx, "class booked",
		slog.String("booking_id", booking.ID),
		slog.String("schedule_id", scheduleID),
		slog.Int("seats", booking.Seats),
	)
	return booking, nil
}

// Enrollments returns the dashboard courses of a student.
func (s *StudioService) Enrollments(ctx context.Context, email string) ([]domain.StudentEnrollment, error) {
	email = normalizeEmail(email)
	if err := validator.Var(email, "required,email"); err != nil {
		return nil, apperrors.InvalidInput("a valid email is required")
	}
	list, err := s.repo.ListEnrollments(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return list, nil
}

// Subscribe adds an email to the newsletter. A known email fails with
// AlreadyExists.
func (s *StudioService) Subscribe(ctx context.Context, email, source string) (*domain.EmailSubscriber, error) {
	email = normalizeEmail(email)
	if err := validator.Var(email, "required,email"); err != nil {
		return nil, apperrors.InvalidInput("a valid email is required")
	}

	sub := &domain.EmailSubscriber{
		ID:        uuid.New().String(),
		Email:     email,
		Source:    strings.TrimSpace(source),
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.CreateSubscriber(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscriber: %w", err)
	}

	s.logger.InfoContext(ctx, "newsletter signup", slog.String("source", sub.Source))
	return sub, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
