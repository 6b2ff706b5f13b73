package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"easyapt/backend/internal/domain"
)

type AppointmentRepository interface {
	// ListBooked returns booked appointments of the provider overlapping [windowStart, windowEnd).
	ListBooked(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	Get(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)

	// Reserve inserts appt only if no booked appointment of the same provider overlaps it.
	// The check and the insert form one atomic unit; the loser of a race gets ErrConflict.
	Reserve(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)

	// Cancel marks the appointment canceled. changed is false when it already was.
	Cancel(ctx context.Context, appointmentID uuid.UUID, now time.Time) (appt domain.Appointment, changed bool, err error)
}
