// Package memory keeps providers and appointments in process memory. It backs local
// development and tests; every booking goes through one mutex, which makes the
// conflict check and the insert a single step.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/store"
)

type Store struct {
	mu sync.RWMutex

	clinics      map[uuid.UUID]domain.Clinic
	providers    map[uuid.UUID]domain.Provider
	bySlug       map[string]uuid.UUID
	hours        map[uuid.UUID][]domain.WeeklyHoursRule
	blackouts    map[uuid.UUID][]domain.Blackout
	appointments map[uuid.UUID]domain.Appointment
	byProvider   map[uuid.UUID][]uuid.UUID

	clock domain.Clock
}

func NewStore(clock domain.Clock) *Store {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	return &Store{
		clinics:      make(map[uuid.UUID]domain.Clinic),
		providers:    make(map[uuid.UUID]domain.Provider),
		bySlug:       make(map[string]uuid.UUID),
		hours:        make(map[uuid.UUID][]domain.WeeklyHoursRule),
		blackouts:    make(map[uuid.UUID][]domain.Blackout),
		appointments: make(map[uuid.UUID]domain.Appointment),
		byProvider:   make(map[uuid.UUID][]uuid.UUID),
		clock:        clock,
	}
}

var (
	_ store.ProviderDirectory     = (*Store)(nil)
	_ store.AppointmentRepository = (*Store)(nil)
)

func newID() (uuid.UUID, error) {
	return uuid.NewV7()
}

func (s *Store) ListProviders(ctx context.Context, query string) ([]domain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query = strings.ToLower(strings.TrimSpace(query))

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Provider, 0, len(s.providers))
	for _, p := range s.providers {
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Name), query) &&
			!strings.Contains(strings.ToLower(p.Specialty), query) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (s *Store) GetProviderBySlug(ctx context.Context, slug string) (domain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return domain.Provider{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return domain.Provider{}, store.ErrNotFound
	}
	p := s.providers[id]
	p.Hours = append([]domain.WeeklyHoursRule(nil), s.hours[id]...)
	return p, nil
}

func (s *Store) CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	if err := ctx.Err(); err != nil {
		return domain.Provider{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.bySlug[p.Slug]; taken {
		return domain.Provider{}, store.ErrConflict
	}
	if p.ID == uuid.Nil {
		id, err := newID()
		if err != nil {
			return domain.Provider{}, err
		}
		p.ID = id
	}
	if _, taken := s.providers[p.ID]; taken {
		return domain.Provider{}, store.ErrConflict
	}
	now := s.clock.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Hours = nil

	s.providers[p.ID] = p
	s.bySlug[p.Slug] = p.ID
	return p, nil
}

func (s *Store) EnsureClinic(ctx context.Context, c domain.Clinic) (domain.Clinic, error) {
	if err := ctx.Err(); err != nil {
		return domain.Clinic{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.clinics {
		if existing.Name == c.Name {
			return existing, nil
		}
	}
	if c.ID == uuid.Nil {
		id, err := newID()
		if err != nil {
			return domain.Clinic{}, err
		}
		c.ID = id
	}
	c.CreatedAt = s.clock.Now().UTC()
	s.clinics[c.ID] = c
	return c, nil
}

func (s *Store) ReplaceWeeklyHours(ctx context.Context, providerID uuid.UUID, rules []domain.WeeklyHoursRule) ([]domain.WeeklyHoursRule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[providerID]; !ok {
		return nil, store.ErrNotFound
	}
	out := make([]domain.WeeklyHoursRule, 0, len(rules))
	for _, r := range rules {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		out = append(out, domain.WeeklyHoursRule{
			ID:          id,
			ProviderID:  providerID,
			Weekday:     r.Weekday,
			StartMinute: r.StartMinute,
			EndMinute:   r.EndMinute,
		})
	}
	s.hours[providerID] = out
	return append([]domain.WeeklyHoursRule(nil), out...), nil
}

func (s *Store) ListBlackouts(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Blackout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Blackout
	for _, b := range s.blackouts[providerID] {
		if domain.Overlaps(b.StartTime, b.EndTime, windowStart, windowEnd) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (s *Store) CreateBlackout(ctx context.Context, b domain.Blackout) (domain.Blackout, error) {
	if err := ctx.Err(); err != nil {
		return domain.Blackout{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.providers[b.ProviderID]; !ok {
		return domain.Blackout{}, store.ErrNotFound
	}
	if b.ID == uuid.Nil {
		id, err := newID()
		if err != nil {
			return domain.Blackout{}, err
		}
		b.ID = id
	}
	b.StartTime = b.StartTime.UTC()
	b.EndTime = b.EndTime.UTC()
	b.CreatedAt = s.clock.Now().UTC()
	s.blackouts[b.ProviderID] = append(s.blackouts[b.ProviderID], b)
	return b, nil
}

func (s *Store) DeleteBlackout(ctx context.Context, providerID, blackoutID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.blackouts[providerID]
	for i, b := range list {
		if b.ID == blackoutID {
			s.blackouts[providerID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}
