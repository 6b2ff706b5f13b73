package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/store"
)

func (s *Store) ListBooked(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return lockedTx{s: s}.ListBookedAppointments(ctx, providerID, windowStart, windowEnd)
}

func (s *Store) Get(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return lockedTx{s: s}.GetAppointment(ctx, appointmentID)
}

func (s *Store) Reserve(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[appt.ProviderID]; !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return store.ReserveInTx(ctx, lockedTx{s: s}, appt)
}

func (s *Store) Cancel(ctx context.Context, appointmentID uuid.UUID, now time.Time) (domain.Appointment, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Appointment{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return store.CancelInTx(ctx, lockedTx{s: s}, appointmentID, now)
}

// lockedTx reads and writes the store's maps directly. Callers hold s.mu.
type lockedTx struct {
	s *Store
}

func (t lockedTx) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	a, ok := t.s.appointments[appointmentID]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (t lockedTx) ListBookedAppointments(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	var out []domain.Appointment
	for _, id := range t.s.byProvider[providerID] {
		a := t.s.appointments[id]
		if a.IsBooked() && domain.Overlaps(a.StartTime, a.EndTime, windowStart, windowEnd) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (t lockedTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if appt.ID == uuid.Nil {
		id, err := newID()
		if err != nil {
			return domain.Appointment{}, err
		}
		appt.ID = id
	}
	if _, taken := t.s.appointments[appt.ID]; taken {
		return domain.Appointment{}, store.ErrIdempotencyConflict
	}
	now := t.s.clock.Now().UTC()
	appt.StartTime = appt.StartTime.UTC()
	appt.EndTime = appt.EndTime.UTC()
	appt.CreatedAt, appt.UpdatedAt = now, now

	t.s.appointments[appt.ID] = appt
	t.s.byProvider[appt.ProviderID] = append(t.s.byProvider[appt.ProviderID], appt.ID)
	return appt, nil
}

func (t lockedTx) UpdateAppointment(ctx context.Context, appt domain.Appointment) error {
	if _, ok := t.s.appointments[appt.ID]; !ok {
		return store.ErrNotFound
	}
	t.s.appointments[appt.ID] = appt
	return nil
}
