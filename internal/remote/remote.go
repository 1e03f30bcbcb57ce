// Package remote defines the hosted data service the studio pages read and
// write: the artwork catalog, class schedules and bookings, student
// enrollments and newsletter subscribers.
package remote

import (
	"context"
	"time"

	"github.com/arteza/studio/internal/domain"
)

// ArtworkRepository reads the artwork catalog.
type ArtworkRepository interface {
	// ListArtworks returns one page of matching artworks and the total match count.
	ListArtworks(ctx context.Context, filter domain.ArtworkFilter) ([]domain.Artwork, int, error)
	GetArtwork(ctx context.Context, id string) (*domain.Artwork, error)
}

// ClassRepository reads class schedules and records bookings.
type ClassRepository interface {
	ListUpcomingClasses(ctx context.Context, from time.Time, limit int) ([]domain.ClassSchedule, error)
	GetClassSchedule(ctx context.Context, id string) (*domain.ClassSchedule, error)
	// BookSeats reserves booking.Seats on the schedule and stores the booking.
	// It fails with a conflict when the class does not have enough seats left.
	BookSeats(ctx context.Context, booking *domain.ClassBooking) error
}

// EnrollmentRepository reads student course progress.
type EnrollmentRepository interface {
	ListEnrollments(ctx context.Context, email string) ([]domain.StudentEnrollment, error)
}

// SubscriberRepository stores newsletter signups.
type SubscriberRepository interface {
	// CreateSubscriber fails with AlreadyExists for a known email.
	CreateSubscriber(ctx context.Context, sub *domain.EmailSubscriber) error
}

// Backend is a complete data service implementation.
type Backend interface {
	ArtworkRepository
	ClassRepository
	EnrollmentRepository
	SubscriberRepository

	// Ping checks that the data service is reachable.
	Ping(ctx context.Context) error
}
