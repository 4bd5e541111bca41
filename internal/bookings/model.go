package bookings

import (
	"errors"
	"strings"
	"time"
)

// Booking statuses. Cancelled bookings do not hold their slot.
const (
	StatusScheduled = "Scheduled"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

// ErrInvalidBooking is returned when a booking request fails validation.
var ErrInvalidBooking = errors.New("invalid booking request")

// Booking is a property tour for one lead.
type Booking struct {
	ID        int64     `json:"id"`
	LeadID    int64     `json:"lead_id"`
	Building  string    `json:"building"`
	TourDate  string    `json:"tour_date"`
	TourTime  string    `json:"tour_time"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateBookingRequest is the body posted by the tour booking form.
type CreateBookingRequest struct {
	Building string `json:"building"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate checks the fields needed to book a slot and find or create a lead.
func (r *CreateBookingRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Building) == "":
		return fieldError("building is required")
	case strings.TrimSpace(r.Date) == "":
		return fieldError("date is required")
	case strings.TrimSpace(r.Time) == "":
		return fieldError("time is required")
	case strings.TrimSpace(r.Name) == "":
		return fieldError("name is required")
	case r.Email == "" && r.Phone == "":
		return fieldError("email or phone is required")
	}
	return nil
}

func fieldError(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrInvalidBooking }

// Contact identifies the person behind a booking.
type Contact struct {
	Name  string
	Email string
	Phone string
}

func (r *CreateBookingRequest) contact() Contact {
	return Contact{Name: r.Name, Email: r.Email, Phone: r.Phone}
}

// Result reports what a booking submission stored.
type Result struct {
	BookingID int64
	LeadID    int64
	Merged    bool
}
