package domain

import (
	"errors"
	"time"
)

type PlanInput struct {
	// Zone decides which calendar days the range is split into.
	Zone         *time.Location
	Hours        []WeeklyHoursRule
	Blackouts    []Blackout
	Appointments []Appointment
	RangeStart   time.Time
	RangeEnd     time.Time
	SlotDuration time.Duration
}

type DayAvailability struct {
	Date  LocalDate `json:"date"`
	Slots []Slot    `json:"slots"`
}

// PlanAvailability returns the open slots for every local day in [RangeStart, RangeEnd)
// that has at least one. Slots are grouped by hours rule in input order and, within a
// rule, ordered by start.
func PlanAvailability(in PlanInput) ([]DayAvailability, error) {
	if in.Zone == nil {
		return nil, ErrInvalidTimeZone
	}
	if in.SlotDuration <= 0 {
		return nil, errors.New("slot duration must be positive")
	}
	if !in.RangeEnd.After(in.RangeStart) {
		return nil, ErrInvalidInterval
	}
	if err := ValidateWeeklyHours(in.Hours); err != nil {
		return nil, err
	}

	var out []DayAvailability
	for day := DateOf(in.RangeStart.In(in.Zone)); day.Start(in.Zone).Before(in.RangeEnd); day = day.AddDays(1) {
		slots, err := daySlots(in.Zone, day, in.Hours, in.Blackouts, in.Appointments, in.SlotDuration)
		if err != nil {
			return nil, err
		}
		if len(slots) > 0 {
			out = append(out, DayAvailability{Date: day, Slots: slots})
		}
	}
	return out, nil
}

func daySlots(loc *time.Location, day LocalDate, hours []WeeklyHoursRule, blackouts []Blackout, appts []Appointment, d time.Duration) ([]Slot, error) {
	var out []Slot
	for _, rule := range rulesForWeekday(hours, day.Weekday()) {
		window, err := rule.Window(loc, day)
		if err != nil {
			return nil, err
		}
		slots := GenerateSlots(window, d)
		slots = SubtractBlackouts(slots, blackoutsWithin(blackouts, window))
		slots = SubtractBooked(slots, appointmentsWithin(appts, window))
		out = append(out, slots...)
	}
	return out, nil
}

func blackoutsWithin(blackouts []Blackout, window TimeInterval) []Blackout {
	var out []Blackout
	for _, b := range blackouts {
		if window.Overlaps(b.Interval()) {
			out = append(out, b)
		}
	}
	return out
}

func appointmentsWithin(appts []Appointment, window TimeInterval) []Appointment {
	var out []Appointment
	for _, a := range appts {
		if a.IsBooked() && window.Overlaps(a.Interval()) {
			out = append(out, a)
		}
	}
	return out
}

// DropBefore removes slots starting before t and any day left without slots.
func DropBefore(days []DayAvailability, t time.Time) []DayAvailability {
	out := make([]DayAvailability, 0, len(days))
	for _, day := range days {
		kept := make([]Slot, 0, len(day.Slots))
		for _, s := range day.Slots {
			if !s.Start.Before(t) {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			out = append(out, DayAvailability{Date: day.Date, Slots: kept})
		}
	}
	return out
}

// SlotOffered reports whether requested is exactly one of the slots the provider's
// hours produce on its local day once blackouts are removed. Bookings are not
// considered; the conflict check covers those.
func SlotOffered(loc *time.Location, hours []WeeklyHoursRule, blackouts []Blackout, requested TimeInterval, d time.Duration) (bool, error) {
	if loc == nil {
		return false, ErrInvalidTimeZone
	}
	day := DateOf(requested.Start.In(loc))
	slots, err := daySlots(loc, day, hours, blackouts, nil, d)
	if err != nil {
		return false, err
	}
	for _, s := range slots {
		if s.Start.Equal(requested.Start) && s.End.Equal(requested.End) {
			return true, nil
		}
	}
	return false, nil
}
