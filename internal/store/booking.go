package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"easyapt/backend/internal/domain"
)

// BookingTx is the set of appointment operations available inside a provider-scoped
// unit of work. Implementations hold whatever lock serializes bookings for the provider.
type BookingTx interface {
	GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error)
	ListBookedAppointments(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error)
	InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, appt domain.Appointment) error
}

// ReserveInTx runs the conflict check and the insert against tx. An appointment whose
// id is already stored is treated as a replay: the stored row is returned when it
// describes the same booking, ErrIdempotencyConflict otherwise.
func ReserveInTx(ctx context.Context, tx BookingTx, appt domain.Appointment) (domain.Appointment, error) {
	if appt.ID != uuid.Nil {
		existing, err := tx.GetAppointment(ctx, appt.ID)
		switch {
		case err == nil:
			if !SameBooking(existing, appt) {
				return domain.Appointment{}, ErrIdempotencyConflict
			}
			return existing, nil
		case !errors.Is(err, ErrNotFound):
			return domain.Appointment{}, err
		}
	}

	requested, err := domain.NewTimeInterval(appt.StartTime, appt.EndTime)
	if err != nil {
		return domain.Appointment{}, err
	}
	booked, err := tx.ListBookedAppointments(ctx, appt.ProviderID, requested.Start, requested.End)
	if err != nil {
		return domain.Appointment{}, err
	}
	if _, hit := domain.FindConflict(requested, booked); hit {
		return domain.Appointment{}, ErrConflict
	}

	appt.Status = domain.AppointmentStatusBooked
	return tx.InsertAppointment(ctx, appt)
}

// CancelInTx loads the appointment and cancels it if it is still booked.
func CancelInTx(ctx context.Context, tx BookingTx, appointmentID uuid.UUID, now time.Time) (domain.Appointment, bool, error) {
	appt, err := tx.GetAppointment(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, false, err
	}
	if !appt.Cancel(now) {
		return appt, false, nil
	}
	appt.UpdatedAt = now.UTC()
	if err := tx.UpdateAppointment(ctx, appt); err != nil {
		return domain.Appointment{}, false, err
	}
	return appt, true, nil
}

// SameBooking reports whether two appointments describe the same booking request.
func SameBooking(a, b domain.Appointment) bool {
	return a.ProviderID == b.ProviderID &&
		a.PatientEmail == b.PatientEmail &&
		a.StartTime.Equal(b.StartTime) &&
		a.EndTime.Equal(b.EndTime)
}
