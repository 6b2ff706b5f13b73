package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidTimeZone = errors.New("invalid time_zone")
	ErrInvalidInstant  = errors.New("invalid instant")
)

// DisplayLayout renders e.g. "March 09, 2026 at 02:30 PM".
const DisplayLayout = "January 02, 2006 at 03:04 PM"

var wallClockLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// LoadZone resolves an IANA zone name. Empty names and "Local" are rejected so that
// results never depend on the host's configured zone.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, ErrInvalidTimeZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ErrInvalidTimeZone
	}
	return loc, nil
}

// Localize interprets the wall-clock fields of wall (its location is ignored) as a
// time in loc.
//
// Around a transition the offset in effect before the transition wins: a wall time
// inside a fall-back fold resolves to its first occurrence, and one inside a
// spring-forward gap is pushed forward by the length of the gap.
func Localize(wall time.Time, loc *time.Location) time.Time {
	naive := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), wall.Second(), wall.Nanosecond(), time.UTC)

	offBefore := offsetAt(naive.Add(-24*time.Hour), loc)
	offAfter := offsetAt(naive.Add(24*time.Hour), loc)

	before := naive.Add(-time.Duration(offBefore) * time.Second)
	if offBefore == offAfter {
		return before.In(loc)
	}
	after := naive.Add(-time.Duration(offAfter) * time.Second)

	if offsetAt(before, loc) == offBefore || offsetAt(after, loc) != offAfter {
		return before.In(loc)
	}
	return after.In(loc)
}

func offsetAt(t time.Time, loc *time.Location) int {
	_, off := t.In(loc).Zone()
	return off
}

// ToUTC interprets the wall-clock fields of wall in zone and returns the UTC instant.
func ToUTC(wall time.Time, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return Localize(wall, loc).UTC(), nil
}

func ToZone(instant time.Time, zone string) (time.Time, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return time.Time{}, err
	}
	return instant.In(loc), nil
}

// BusinessHoursWindow converts a local opening span on date into a UTC interval.
func BusinessHoursWindow(start, end TimeOfDay, zone string, date LocalDate) (TimeInterval, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return TimeInterval{}, err
	}
	return businessHoursWindow(loc, date, start, end)
}

func businessHoursWindow(loc *time.Location, date LocalDate, start, end TimeOfDay) (TimeInterval, error) {
	if start < 0 || end > MinutesPerDay || end <= start {
		return TimeInterval{}, ErrInvalidInterval
	}
	midnight := date.wall()
	from := Localize(midnight.Add(time.Duration(start)*time.Minute), loc)
	to := Localize(midnight.Add(time.Duration(end)*time.Minute), loc)
	return NewTimeInterval(from, to)
}

// OffsetString returns the zone's UTC offset at the given instant, e.g. "UTC-05:00".
// A zero instant means now.
func OffsetString(zone string, at time.Time) (string, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return "", err
	}
	if at.IsZero() {
		at = time.Now()
	}
	off := offsetAt(at, loc)
	sign := '+'
	if off < 0 {
		sign = '-'
		off = -off
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, off/3600, (off%3600)/60), nil
}

// IsDSTActive reports whether daylight saving time is in effect in zone at the given
// instant. A zero instant means now.
func IsDSTActive(zone string, at time.Time) (bool, error) {
	loc, err := LoadZone(zone)
	if err != nil {
		return false, err
	}
	if at.IsZero() {
		at = time.Now()
	}
	return at.In(loc).IsDST(), nil
}

func Format(instant time.Time, zone, layout string) (string, error) {
	local, err := ToZone(instant, zone)
	if err != nil {
		return "", err
	}
	if layout == "" {
		layout = DisplayLayout
	}
	return local.Format(layout), nil
}

// ParseInstant accepts RFC 3339 timestamps as absolute instants and offset-less
// wall-clock timestamps as local times in loc.
func ParseInstant(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidInstant
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range wallClockLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return Localize(t, loc).UTC(), nil
		}
	}
	return time.Time{}, ErrInvalidInstant
}

// LocalDate is a calendar date without a zone.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) LocalDate {
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return LocalDate{}, err
	}
	return DateOf(t), nil
}

func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d LocalDate) AddDays(n int) LocalDate {
	return DateOf(d.wall().AddDate(0, 0, n))
}

// Weekday numbers days from 0 (Monday) to 6 (Sunday).
func (d LocalDate) Weekday() int {
	return (int(d.wall().Weekday()) + 6) % 7
}

// Start returns local midnight of the date in loc.
func (d LocalDate) Start(loc *time.Location) time.Time {
	return Localize(d.wall(), loc)
}

func (d LocalDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *LocalDate) UnmarshalText(b []byte) error {
	parsed, err := ParseLocalDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d LocalDate) wall() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

const MinutesPerDay = 24 * 60

// TimeOfDay counts minutes since local midnight; MinutesPerDay stands for the end of the day.
type TimeOfDay int

func ClockTime(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return MinutesPerDay, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", s)
	}
	return ClockTime(t.Hour(), t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
