package domain

import (
	"fmt"
	"time"
)

// MaxAdvance is how far ahead of now an appointment may start.
const MaxAdvance = 365 * 24 * time.Hour

type RejectionReason string

const (
	RejectedPast    RejectionReason = "past"
	RejectedTooSoon RejectionReason = "too_soon"
	RejectedTooFar  RejectionReason = "too_far"
)

// RejectedError is returned when a candidate start time falls outside the booking window.
type RejectedError struct {
	Reason          RejectionReason
	MinAdvanceHours int
}

func (e *RejectedError) Error() string {
	switch e.Reason {
	case RejectedPast:
		return "Appointment time cannot be in the past"
	case RejectedTooSoon:
		return fmt.Sprintf("Appointments must be scheduled at least %d hour(s) in advance", e.MinAdvanceHours)
	case RejectedTooFar:
		return "Cannot schedule appointments more than 1 year in advance"
	default:
		return "appointment time rejected"
	}
}

type AppointmentTimeValidator struct {
	clock Clock
}

func NewAppointmentTimeValidator(clock Clock) *AppointmentTimeValidator {
	if clock == nil {
		clock = SystemClock{}
	}
	return &AppointmentTimeValidator{clock: clock}
}

// Validate checks candidate against the booking window. The first failing rule wins:
// past, then lead time, then the one year horizon.
func (v *AppointmentTimeValidator) Validate(candidate time.Time, minAdvanceHours int) error {
	if minAdvanceHours < 0 {
		minAdvanceHours = 0
	}
	now := v.clock.Now().UTC()
	candidate = candidate.UTC()

	if !candidate.After(now) {
		return &RejectedError{Reason: RejectedPast, MinAdvanceHours: minAdvanceHours}
	}
	if candidate.Before(now.Add(time.Duration(minAdvanceHours) * time.Hour)) {
		return &RejectedError{Reason: RejectedTooSoon, MinAdvanceHours: minAdvanceHours}
	}
	if candidate.After(now.Add(MaxAdvance)) {
		return &RejectedError{Reason: RejectedTooFar, MinAdvanceHours: minAdvanceHours}
	}
	return nil
}
