package domain

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval = errors.New("end must be after start")
	ErrInvalidSlot     = errors.New("invalid slot")
)

// TimeInterval is a half-open UTC interval [Start, End).
type TimeInterval struct {
	Start time.Time
	End   time.Time
}

func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	start = start.UTC()
	end = end.UTC()
	if !end.After(start) {
		return TimeInterval{}, ErrInvalidInterval
	}
	return TimeInterval{Start: start, End: end}, nil
}

func (i TimeInterval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

func (i TimeInterval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

func (i TimeInterval) Overlaps(other TimeInterval) bool {
	return Overlaps(i.Start, i.End, other.Start, other.End)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) share any instant.
// Intervals that only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

type Slot struct {
	Start time.Time `json:"start_time"`
	End   time.Time `json:"end_time"`
}

func (s Slot) Interval() TimeInterval {
	return TimeInterval{Start: s.Start, End: s.End}
}
