package booking

import (
	"context"
	"strings"
	"time"

	"easyapt/backend/internal/domain"
)

type ZoneInfo struct {
	Zone      string
	At        time.Time
	LocalTime time.Time
	Offset    string
	DST       bool
	Display   string
}

// DescribeZone reports the offset, DST state and display form of at in zone. A zero at
// means now.
func (s *Service) DescribeZone(ctx context.Context, zone string, at time.Time) (ZoneInfo, error) {
	zone = strings.TrimSpace(zone)
	if zone == "" {
		zone = s.policy.DefaultZone
	}
	if at.IsZero() {
		at = s.clock.Now()
	}
	at = at.UTC()

	local, err := domain.ToZone(at, zone)
	if err != nil {
		return ZoneInfo{}, err
	}
	offset, err := domain.OffsetString(zone, at)
	if err != nil {
		return ZoneInfo{}, err
	}
	dst, err := domain.IsDSTActive(zone, at)
	if err != nil {
		return ZoneInfo{}, err
	}
	display, err := domain.Format(at, zone, "")
	if err != nil {
		return ZoneInfo{}, err
	}

	return ZoneInfo{
		Zone:      zone,
		At:        at,
		LocalTime: local,
		Offset:    offset,
		DST:       dst,
		Display:   display,
	}, nil
}
