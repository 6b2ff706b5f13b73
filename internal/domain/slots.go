package domain

import "time"

// GenerateSlots tiles window with back-to-back slots of length d starting at window.Start.
// A trailing remainder shorter than d is dropped.
func GenerateSlots(window TimeInterval, d time.Duration) []Slot {
	if d <= 0 || !window.End.After(window.Start) {
		return nil
	}

	out := make([]Slot, 0, int(window.Duration()/d))
	for cur := window.Start.UTC(); !cur.Add(d).After(window.End); cur = cur.Add(d) {
		out = append(out, Slot{Start: cur, End: cur.Add(d)})
	}
	return out
}

// SubtractBlackouts drops every slot that overlaps any blackout.
func SubtractBlackouts(slots []Slot, blackouts []Blackout) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		blocked := false
		for _, b := range blackouts {
			if Overlaps(s.Start, s.End, b.StartTime, b.EndTime) {
				blocked = true
				break
			}
		}
		if !blocked {
			out = append(out, s)
		}
	}
	return out
}

// SubtractBooked drops every slot that overlaps a booked appointment. Canceled
// appointments do not occupy time.
func SubtractBooked(slots []Slot, appts []Appointment) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		taken := false
		for _, a := range appts {
			if a.IsBooked() && Overlaps(s.Start, s.End, a.StartTime, a.EndTime) {
				taken = true
				break
			}
		}
		if !taken {
			out = append(out, s)
		}
	}
	return out
}

// FindConflict returns the first booked appointment overlapping requested.
func FindConflict(requested TimeInterval, appts []Appointment) (Appointment, bool) {
	for _, a := range appts {
		if a.IsBooked() && requested.Overlaps(a.Interval()) {
			return a, true
		}
	}
	return Appointment{}, false
}
