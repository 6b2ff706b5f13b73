package booking

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/events"
)

const (
	confirmationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	confirmationLength   = 8
)

func newConfirmationCode() (string, error) {
	return gonanoid.Generate(confirmationAlphabet, confirmationLength)
}

type BookInput struct {
	ProviderSlug string
	PatientEmail string
	// SlotStart is an RFC 3339 instant, or a wall-clock time in the provider's zone.
	SlotStart      string
	IdempotencyKey string
}

// Book reserves the slot starting at SlotStart. The request is rejected when the time is
// outside the booking window, when the slot is not one the provider offers, or when an
// overlapping booking already exists (store.ErrConflict).
//
// A repeated IdempotencyKey returns the appointment the key first created in its current
// state, canceled included; it never books the slot a second time. Replays publish no event.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	email := strings.TrimSpace(in.PatientEmail)
	if email == "" {
		return domain.Appointment{}, validationError("patient_email is required")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.Appointment{}, validationError("patient_email is invalid")
	}
	if strings.TrimSpace(in.SlotStart) == "" {
		return domain.Appointment{}, validationError("slot_start is required")
	}

	p, err := s.GetProvider(ctx, in.ProviderSlug)
	if err != nil {
		return domain.Appointment{}, err
	}
	loc, err := domain.LoadZone(p.Timezone)
	if err != nil {
		return domain.Appointment{}, err
	}

	start, err := domain.ParseInstant(in.SlotStart, loc)
	if err != nil {
		return domain.Appointment{}, domain.ErrInvalidSlot
	}
	if err := s.validator.Validate(start, s.policy.MinAdvanceHours); err != nil {
		return domain.Appointment{}, err
	}

	requested := domain.TimeInterval{Start: start, End: start.Add(s.policy.SlotDuration)}
	if err := s.ensureOffered(ctx, p, loc, requested); err != nil {
		return domain.Appointment{}, err
	}

	code, err := s.newCode()
	if err != nil {
		return domain.Appointment{}, err
	}
	appt := domain.Appointment{
		ProviderID:       p.ID,
		PatientEmail:     email,
		ConfirmationCode: code,
		StartTime:        requested.Start,
		EndTime:          requested.End,
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if key != "" {
		if len(key) > 256 {
			return domain.Appointment{}, validationError("idempotency_key too long")
		}
		appt.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte("easyapt:book_appointment:"+p.ID.String()+":"+key))
	}

	out, err := s.appts.Reserve(ctx, appt)
	if err != nil {
		return domain.Appointment{}, err
	}

	if out.ConfirmationCode != code {
		// Replay of an earlier request with the same idempotency key.
		return out, nil
	}
	s.invalidate(ctx, p.ID)
	s.publish(ctx, events.TypeAppointmentBooked, out)
	return out, nil
}

func (s *Service) ensureOffered(ctx context.Context, p domain.Provider, loc *time.Location, requested domain.TimeInterval) error {
	day := domain.DateOf(requested.Start.In(loc))
	dayStart := day.Start(loc)
	dayEnd := day.AddDays(1).Start(loc)

	blackouts, err := s.providers.ListBlackouts(ctx, p.ID, dayStart, dayEnd)
	if err != nil {
		return err
	}
	offered, err := domain.SlotOffered(loc, p.Hours, blackouts, requested, s.policy.SlotDuration)
	if err != nil {
		return err
	}
	if !offered {
		return ErrOutsideAvailability
	}
	return nil
}

// Cancel cancels a booked appointment. Canceling an already canceled appointment
// succeeds with changed set to false and publishes nothing.
func (s *Service) Cancel(ctx context.Context, appointmentID uuid.UUID) (appt domain.Appointment, changed bool, err error) {
	if appointmentID == uuid.Nil {
		return domain.Appointment{}, false, validationError("appointment_id is required")
	}

	appt, changed, err = s.appts.Cancel(ctx, appointmentID, s.clock.Now())
	if err != nil {
		return domain.Appointment{}, false, err
	}
	if changed {
		s.invalidate(ctx, appt.ProviderID)
		s.publish(ctx, events.TypeAppointmentCanceled, appt)
	}
	return appt, changed, nil
}
