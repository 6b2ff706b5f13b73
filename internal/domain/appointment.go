package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusBooked   AppointmentStatus = "booked"
	AppointmentStatusCanceled AppointmentStatus = "canceled"
)

type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID               uuid.UUID         `bun:"id,pk,type:uuid"`
	ProviderID       uuid.UUID         `bun:"provider_id,notnull,type:uuid"`
	PatientEmail     string            `bun:"patient_email,notnull"`
	ConfirmationCode string            `bun:"confirmation_code,notnull"`
	StartTime        time.Time         `bun:"start_time,notnull"`
	EndTime          time.Time         `bun:"end_time,notnull"`
	Status           AppointmentStatus `bun:"status,notnull"`
	CanceledAt       *time.Time        `bun:"canceled_at"`
	CreatedAt        time.Time         `bun:"created_at,notnull"`
	UpdatedAt        time.Time         `bun:"updated_at,notnull"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.Status == "" {
			a.Status = AppointmentStatusBooked
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// IsBooked reports whether the appointment occupies time on the provider's calendar.
func (a Appointment) IsBooked() bool {
	return a.Status == AppointmentStatusBooked
}

func (a Appointment) Interval() TimeInterval {
	return TimeInterval{Start: a.StartTime.UTC(), End: a.EndTime.UTC()}
}

// Cancel moves a booked appointment to canceled. Booked to canceled is the only
// transition; any other status returns false and leaves the appointment untouched.
func (a *Appointment) Cancel(now time.Time) bool {
	if a.Status != AppointmentStatusBooked {
		return false
	}
	at := now.UTC()
	a.Status = AppointmentStatusCanceled
	a.CanceledAt = &at
	return true
}
