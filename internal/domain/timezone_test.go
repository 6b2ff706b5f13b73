package domain

import (
	"errors"
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("LoadLocation(%q) error: %v", name, err)
	}
	return loc
}

func wallClock(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestLoadZone_RejectsUnknownEmptyAndLocal(t *testing.T) {
	for _, name := range []string{"", "  ", "Local", "Not/AZone"} {
		if _, err := LoadZone(name); !errors.Is(err, ErrInvalidTimeZone) {
			t.Fatalf("LoadZone(%q) err = %v, want %v", name, err, ErrInvalidTimeZone)
		}
	}
	if _, err := LoadZone(" America/Chicago "); err != nil {
		t.Fatalf("LoadZone error: %v", err)
	}
}

func TestToUTC_AppliesOffsetForDate(t *testing.T) {
	tests := []struct {
		name string
		wall time.Time
		zone string
		want time.Time
	}{
		{"chicago winter", wallClock(2026, 1, 5, 9, 0), "America/Chicago", time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)},
		{"chicago summer", wallClock(2026, 7, 6, 9, 0), "America/Chicago", time.Date(2026, 7, 6, 14, 0, 0, 0, time.UTC)},
		{"kolkata half hour", wallClock(2026, 7, 6, 9, 0), "Asia/Kolkata", time.Date(2026, 7, 6, 3, 30, 0, 0, time.UTC)},
		{"utc", wallClock(2026, 7, 6, 9, 0), "UTC", time.Date(2026, 7, 6, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToUTC(tt.wall, tt.zone)
			if err != nil {
				t.Fatalf("ToUTC error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("ToUTC = %v, want %v", got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Fatalf("location = %v, want UTC", got.Location())
			}
		})
	}
}

func TestToUTC_IgnoresLocationOfWallClock(t *testing.T) {
	tokyo := mustLoad(t, "Asia/Tokyo")
	got, err := ToUTC(time.Date(2026, 1, 5, 9, 0, 0, 0, tokyo), "America/Chicago")
	if err != nil {
		t.Fatalf("ToUTC error: %v", err)
	}
	want := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ToUTC = %v, want %v", got, want)
	}
}

func TestToUTC_InvalidZone(t *testing.T) {
	_, err := ToUTC(wallClock(2026, 1, 5, 9, 0), "Mars/Olympus")
	if !errors.Is(err, ErrInvalidTimeZone) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidTimeZone)
	}
	_, err = ToZone(time.Now(), "Mars/Olympus")
	if !errors.Is(err, ErrInvalidTimeZone) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidTimeZone)
	}
}

func TestLocalize_FallBackFoldResolvesToFirstOccurrence(t *testing.T) {
	got, err := ToUTC(wallClock(2026, 11, 1, 1, 30), "America/Chicago")
	if err != nil {
		t.Fatalf("ToUTC error: %v", err)
	}
	want := time.Date(2026, 11, 1, 6, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ToUTC = %v, want %v (CDT occurrence)", got, want)
	}
}

func TestLocalize_SpringForwardGapMovesForward(t *testing.T) {
	chicago := mustLoad(t, "America/Chicago")
	got := Localize(wallClock(2026, 3, 8, 2, 30), chicago)

	want := time.Date(2026, 3, 8, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("Localize = %v, want %v", got.UTC(), want)
	}
	if got.Hour() != 3 || got.Minute() != 30 {
		t.Fatalf("local = %02d:%02d, want 03:30", got.Hour(), got.Minute())
	}
}

func TestToZone_RoundTripsWallClock(t *testing.T) {
	zones := []string{"America/Chicago", "Europe/Berlin", "Australia/Sydney", "Asia/Kolkata", "UTC"}
	days := []time.Time{
		wallClock(2026, 3, 8, 0, 0),
		wallClock(2026, 3, 29, 0, 0),
		wallClock(2026, 4, 5, 0, 0),
		wallClock(2026, 10, 4, 0, 0),
		wallClock(2026, 10, 25, 0, 0),
		wallClock(2026, 11, 1, 0, 0),
	}

	for _, zone := range zones {
		loc := mustLoad(t, zone)
		for _, day := range days {
			for step := 0; step < 48; step++ {
				wall := day.Add(time.Duration(step) * 30 * time.Minute)
				if inGap(wall, loc) {
					continue
				}
				utc, err := ToUTC(wall, zone)
				if err != nil {
					t.Fatalf("ToUTC error: %v", err)
				}
				back, err := ToZone(utc, zone)
				if err != nil {
					t.Fatalf("ToZone error: %v", err)
				}
				if back.Year() != wall.Year() || back.YearDay() != wall.YearDay() || back.Hour() != wall.Hour() || back.Minute() != wall.Minute() {
					t.Fatalf("%s: round trip of %s = %s", zone, wall.Format("2006-01-02 15:04"), back.Format("2006-01-02 15:04"))
				}
			}
		}
	}
}

// inGap reports whether no instant in loc shows the wall-clock reading of wall.
func inGap(wall time.Time, loc *time.Location) bool {
	for off := -14 * 60; off <= 14*60; off += 15 {
		candidate := wall.Add(-time.Duration(off) * time.Minute).In(loc)
		if candidate.Hour() == wall.Hour() && candidate.Minute() == wall.Minute() && candidate.Day() == wall.Day() {
			return false
		}
	}
	return true
}

func TestBusinessHoursWindow_ShiftsWithDST(t *testing.T) {
	tests := []struct {
		name      string
		date      LocalDate
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"standard time", LocalDate{2026, time.January, 5}, time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC), time.Date(2026, 1, 5, 23, 0, 0, 0, time.UTC)},
		{"daylight time", LocalDate{2026, time.July, 6}, time.Date(2026, 7, 6, 14, 0, 0, 0, time.UTC), time.Date(2026, 7, 6, 22, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := BusinessHoursWindow(ClockTime(9, 0), ClockTime(17, 0), "America/Chicago", tt.date)
			if err != nil {
				t.Fatalf("BusinessHoursWindow error: %v", err)
			}
			if !w.Start.Equal(tt.wantStart) || !w.End.Equal(tt.wantEnd) {
				t.Fatalf("window = [%v, %v), want [%v, %v)", w.Start, w.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestBusinessHoursWindow_EndOfDayAndInvalidSpan(t *testing.T) {
	w, err := BusinessHoursWindow(ClockTime(22, 0), MinutesPerDay, "UTC", LocalDate{2026, time.January, 5})
	if err != nil {
		t.Fatalf("BusinessHoursWindow error: %v", err)
	}
	if !w.End.Equal(time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v, want next midnight", w.End)
	}

	_, err = BusinessHoursWindow(ClockTime(17, 0), ClockTime(9, 0), "UTC", LocalDate{2026, time.January, 5})
	if !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("err = %v, want %v", err, ErrInvalidInterval)
	}
}

func TestOffsetStringAndDST(t *testing.T) {
	winter := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	summer := time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		zone       string
		at         time.Time
		wantOffset string
		wantDST    bool
	}{
		{"America/Chicago", winter, "UTC-06:00", false},
		{"America/Chicago", summer, "UTC-05:00", true},
		{"Asia/Kolkata", summer, "UTC+05:30", false},
		{"UTC", summer, "UTC+00:00", false},
	}
	for _, tt := range tests {
		got, err := OffsetString(tt.zone, tt.at)
		if err != nil {
			t.Fatalf("OffsetString error: %v", err)
		}
		if got != tt.wantOffset {
			t.Fatalf("OffsetString(%s, %v) = %q, want %q", tt.zone, tt.at, got, tt.wantOffset)
		}
		dst, err := IsDSTActive(tt.zone, tt.at)
		if err != nil {
			t.Fatalf("IsDSTActive error: %v", err)
		}
		if dst != tt.wantDST {
			t.Fatalf("IsDSTActive(%s, %v) = %v, want %v", tt.zone, tt.at, dst, tt.wantDST)
		}
	}

	if _, err := OffsetString("UTC", time.Time{}); err != nil {
		t.Fatalf("OffsetString with zero instant error: %v", err)
	}
}

func TestFormat_UsesDisplayLayoutByDefault(t *testing.T) {
	got, err := Format(time.Date(2026, 3, 9, 19, 30, 0, 0, time.UTC), "America/Chicago", "")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if got != "March 09, 2026 at 02:30 PM" {
		t.Fatalf("Format = %q, want %q", got, "March 09, 2026 at 02:30 PM")
	}
}

func TestParseInstant(t *testing.T) {
	chicago := mustLoad(t, "America/Chicago")

	tests := []struct {
		raw     string
		want    time.Time
		wantErr bool
	}{
		{raw: "2026-07-06T09:00:00-05:00", want: time.Date(2026, 7, 6, 14, 0, 0, 0, time.UTC)},
		{raw: "2026-07-06T14:00:00Z", want: time.Date(2026, 7, 6, 14, 0, 0, 0, time.UTC)},
		{raw: "2026-07-06T09:00", want: time.Date(2026, 7, 6, 14, 0, 0, 0, time.UTC)},
		{raw: "2026-07-06 09:00:00", want: time.Date(2026, 7, 6, 14, 0, 0, 0, time.UTC)},
		{raw: "", wantErr: true},
		{raw: "tomorrow at nine", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseInstant(tt.raw, chicago)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidInstant) {
				t.Fatalf("ParseInstant(%q) err = %v, want %v", tt.raw, err, ErrInvalidInstant)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseInstant(%q) error: %v", tt.raw, err)
		}
		if !got.Equal(tt.want) {
			t.Fatalf("ParseInstant(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestLocalDate(t *testing.T) {
	d, err := ParseLocalDate("2026-10-19")
	if err != nil {
		t.Fatalf("ParseLocalDate error: %v", err)
	}
	if d.Weekday() != 0 {
		t.Fatalf("weekday = %d, want 0 (Monday)", d.Weekday())
	}
	if got := d.AddDays(6); got.String() != "2026-10-25" || got.Weekday() != 6 {
		t.Fatalf("AddDays(6) = %s weekday %d, want 2026-10-25 weekday 6", got, got.Weekday())
	}
	if got := d.AddDays(13).String(); got != "2026-11-01" {
		t.Fatalf("AddDays(13) = %s, want 2026-11-01", got)
	}

	var decoded LocalDate
	if err := decoded.UnmarshalText([]byte("2026-02-28")); err != nil {
		t.Fatalf("UnmarshalText error: %v", err)
	}
	if decoded != (LocalDate{2026, time.February, 28}) {
		t.Fatalf("decoded = %+v", decoded)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr bool
	}{
		{in: "09:00", want: 540},
		{in: "17:30", want: 1050},
		{in: "24:00", want: MinutesPerDay},
		{in: "25:00", wantErr: true},
		{in: "nine", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseTimeOfDay(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Fatalf("ParseTimeOfDay(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q) error: %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseTimeOfDay(%q) = %d, want %d", tt.in, got, tt.want)
		}
		if tt.want < MinutesPerDay && got.String() != tt.in {
			t.Fatalf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}
