package domain

import "time"

// ClassSchedule is one dated session of a studio class.
type ClassSchedule struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	DurationMinutes int       `json:"duration_minutes"`
	Capacity        int       `json:"capacity"`
	SpotsTaken      int       `json:"spots_taken"`
	Price           float64   `json:"price"`
	Level           string    `json:"level,omitempty"`
}

// SpotsLeft returns the remaining seats, never negative.
func (c ClassSchedule) SpotsLeft() int {
	return max(c.Capacity-c.SpotsTaken, 0)
}

// Booking statuses.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// ClassBooking is a seat reservation for a class schedule.
type ClassBooking struct {
	ID         string    `json:"id"`
	ScheduleID string    `json:"schedule_id"`
	FullName   string    `json:"full_name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Seats      int       `json:"seats"`
	Notes      string    `json:"notes,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// StudentEnrollment is a student's progress in a course, shown on the dashboard.
type StudentEnrollment struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	CourseName string    `json:"course_name"`
	Progress   int       `json:"progress"`
	Status     string    `json:"status"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// EmailSubscriber is a newsletter signup.
type EmailSubscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
