package domain

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	ErrInvalidHoursRule = errors.New("invalid hours rule")
	ErrOverlappingHours = errors.New("hours rules overlap")
)

// WeeklyHoursRule is a recurring local-time opening span for one weekday.
// Weekday runs from 0 (Monday) to 6 (Sunday).
type WeeklyHoursRule struct {
	bun.BaseModel `bun:"table:provider_hours"`

	ID          uuid.UUID `bun:"id,pk,type:uuid"`
	ProviderID  uuid.UUID `bun:"provider_id,notnull,type:uuid"`
	Weekday     int       `bun:"weekday,notnull"`
	StartMinute int       `bun:"start_minute,notnull"`
	EndMinute   int       `bun:"end_minute,notnull"`
}

func (r *WeeklyHoursRule) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && r.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		r.ID = id
	}
	return nil
}

func (r WeeklyHoursRule) Validate() error {
	if r.Weekday < 0 || r.Weekday > 6 {
		return ErrInvalidHoursRule
	}
	if r.StartMinute < 0 || r.StartMinute >= MinutesPerDay {
		return ErrInvalidHoursRule
	}
	if r.EndMinute <= r.StartMinute || r.EndMinute > MinutesPerDay {
		return ErrInvalidHoursRule
	}
	return nil
}

// Window returns the rule's opening span on date as a UTC interval.
func (r WeeklyHoursRule) Window(loc *time.Location, date LocalDate) (TimeInterval, error) {
	return businessHoursWindow(loc, date, TimeOfDay(r.StartMinute), TimeOfDay(r.EndMinute))
}

// ValidateWeeklyHours checks every rule and rejects rule sets where two spans on the
// same weekday overlap. Spans that only touch (09:00-12:00, 12:00-17:00) are accepted.
func ValidateWeeklyHours(rules []WeeklyHoursRule) error {
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	sorted := make([]WeeklyHoursRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Weekday != sorted[j].Weekday {
			return sorted[i].Weekday < sorted[j].Weekday
		}
		return sorted[i].StartMinute < sorted[j].StartMinute
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Weekday == cur.Weekday && cur.StartMinute < prev.EndMinute {
			return ErrOverlappingHours
		}
	}
	return nil
}

func rulesForWeekday(rules []WeeklyHoursRule, weekday int) []WeeklyHoursRule {
	var out []WeeklyHoursRule
	for _, r := range rules {
		if r.Weekday == weekday {
			out = append(out, r)
		}
	}
	return out
}
