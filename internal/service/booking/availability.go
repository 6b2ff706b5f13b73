package booking

import (
	"context"
	"strings"
	"time"

	"easyapt/backend/internal/cache"
	"easyapt/backend/internal/domain"
)

type AvailabilityInput struct {
	ProviderSlug string
	// From and To bound the search; zero values mean now and From plus the default range.
	From time.Time
	To   time.Time
	// TimeZone picks the calendar days slots are grouped by. Empty means the provider's zone.
	TimeZone string
}

type AvailabilityResult struct {
	Provider domain.Provider
	TimeZone string
	Days     []domain.DayAvailability
}

// Availability lists open slots for every local day touched by [From, To). Slots that
// start before From or inside the lead time are left out, as are days with no slots.
func (s *Service) Availability(ctx context.Context, in AvailabilityInput) (AvailabilityResult, error) {
	p, err := s.GetProvider(ctx, in.ProviderSlug)
	if err != nil {
		return AvailabilityResult{}, err
	}

	zone := strings.TrimSpace(in.TimeZone)
	if zone == "" {
		zone = p.Timezone
	}
	if zone == "" {
		zone = s.policy.DefaultZone
	}
	loc, err := domain.LoadZone(zone)
	if err != nil {
		return AvailabilityResult{}, err
	}
	providerLoc, err := domain.LoadZone(p.Timezone)
	if err != nil {
		return AvailabilityResult{}, err
	}

	now := s.clock.Now().UTC()
	from := in.From.UTC()
	if in.From.IsZero() {
		from = now
	}
	to := in.To.UTC()
	if in.To.IsZero() {
		to = from.Add(s.policy.DefaultRange)
	}
	if !to.After(from) {
		return AvailabilityResult{}, validationError("to must be after from")
	}
	if to.Sub(from) > s.policy.MaxRange {
		return AvailabilityResult{}, validationError("requested range is too long")
	}

	// Whole local days are planned so that cached results can be shared between requests.
	firstDay := domain.DateOf(from.In(loc))
	lastDay := domain.DateOf(to.Add(-time.Nanosecond).In(loc))
	rangeStart := firstDay.Start(loc).UTC()
	rangeEnd := lastDay.AddDays(1).Start(loc).UTC()

	key := cache.AvailabilityKey{
		ProviderID:  p.ID,
		Zone:        zone,
		FirstDay:    firstDay,
		LastDay:     lastDay,
		SlotMinutes: int(s.policy.SlotDuration / time.Minute),
	}

	lookup, err := s.cache.Get(ctx, key)
	cacheOK := err == nil
	if err != nil {
		s.logger.Warn("availability cache read failed", "provider_id", p.ID.String(), "err", err)
	}
	days := lookup.Days
	if !cacheOK || !lookup.Hit {
		days, err = s.planDays(ctx, p, providerLoc, loc, rangeStart, rangeEnd)
		if err != nil {
			return AvailabilityResult{}, err
		}
		// Without a generation from a successful read the result cannot be filed safely.
		if cacheOK {
			if err := s.cache.Set(ctx, key, lookup.Generation, days); err != nil {
				s.logger.Warn("availability cache write failed", "provider_id", p.ID.String(), "err", err)
			}
		}
	}

	cutoff := now.Add(time.Duration(s.policy.MinAdvanceHours) * time.Hour)
	if from.After(cutoff) {
		cutoff = from
	}
	return AvailabilityResult{
		Provider: p,
		TimeZone: zone,
		Days:     domain.DropBefore(days, cutoff),
	}, nil
}

// planDays expands the provider's hours in its own zone and regroups the slots by the
// days of the requested zone.
func (s *Service) planDays(ctx context.Context, p domain.Provider, providerLoc, loc *time.Location, rangeStart, rangeEnd time.Time) ([]domain.DayAvailability, error) {
	// Hours are anchored to the provider's days, which may begin up to a day before or
	// after the requested zone's days.
	planStart := rangeStart.Add(-24 * time.Hour)
	planEnd := rangeEnd.Add(24 * time.Hour)

	blackouts, err := s.providers.ListBlackouts(ctx, p.ID, planStart, planEnd)
	if err != nil {
		return nil, err
	}
	appts, err := s.appts.ListBooked(ctx, p.ID, planStart, planEnd)
	if err != nil {
		return nil, err
	}

	planned, err := domain.PlanAvailability(domain.PlanInput{
		Zone:         providerLoc,
		Hours:        p.Hours,
		Blackouts:    blackouts,
		Appointments: appts,
		RangeStart:   planStart,
		RangeEnd:     planEnd,
		SlotDuration: s.policy.SlotDuration,
	})
	if err != nil {
		return nil, err
	}
	return regroup(planned, loc, rangeStart, rangeEnd), nil
}

// regroup keeps the slots starting in [rangeStart, rangeEnd) and groups them by their
// local date in loc, preserving order.
func regroup(days []domain.DayAvailability, loc *time.Location, rangeStart, rangeEnd time.Time) []domain.DayAvailability {
	var out []domain.DayAvailability
	index := make(map[domain.LocalDate]int)
	for _, day := range days {
		for _, slot := range day.Slots {
			if slot.Start.Before(rangeStart) || !slot.Start.Before(rangeEnd) {
				continue
			}
			date := domain.DateOf(slot.Start.In(loc))
			i, ok := index[date]
			if !ok {
				i = len(out)
				index[date] = i
				out = append(out, domain.DayAvailability{Date: date})
			}
			out[i].Slots = append(out[i].Slots, slot)
		}
	}
	return out
}
