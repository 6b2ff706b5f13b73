package grpc

import (
	"time"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/service/booking"
)

type Provider struct {
	ID        string      `json:"id"`
	Slug      string      `json:"slug"`
	Name      string      `json:"name"`
	Specialty string      `json:"specialty,omitempty"`
	TimeZone  string      `json:"time_zone"`
	ClinicID  string      `json:"clinic_id,omitempty"`
	Hours     []HoursRule `json:"hours,omitempty"`
}

// HoursRule is a weekly opening window. Weekday 0 is Monday; Start and End are "HH:MM"
// local times, with "24:00" allowed as End.
type HoursRule struct {
	Weekday int    `json:"weekday"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

type Blackout struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Reason    string    `json:"reason,omitempty"`
}

type Slot struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	// LocalStart is the slot start as "HH:MM" in the response time zone.
	LocalStart string `json:"local_start"`
}

type Day struct {
	Date  string `json:"date"`
	Slots []Slot `json:"slots"`
}

type Appointment struct {
	ID               string     `json:"id"`
	ProviderID       string     `json:"provider_id"`
	PatientEmail     string     `json:"patient_email"`
	ConfirmationCode string     `json:"confirmation_code"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          time.Time  `json:"end_time"`
	Status           string     `json:"status"`
	CanceledAt       *time.Time `json:"canceled_at,omitempty"`
}

type ListProvidersRequest struct {
	Query string `json:"query"`
}

type ListProvidersResponse struct {
	Providers []Provider `json:"providers"`
}

type GetProviderRequest struct {
	Slug string `json:"slug"`
}

type GetProviderResponse struct {
	Provider Provider `json:"provider"`
}

type CreateProviderRequest struct {
	Name       string `json:"name"`
	Slug       string `json:"slug,omitempty"`
	Specialty  string `json:"specialty,omitempty"`
	TimeZone   string `json:"time_zone,omitempty"`
	ClinicName string `json:"clinic_name,omitempty"`
}

type CreateProviderResponse struct {
	Provider Provider `json:"provider"`
}

type SetWeeklyHoursRequest struct {
	ProviderSlug string      `json:"provider_slug"`
	Hours        []HoursRule `json:"hours"`
}

type SetWeeklyHoursResponse struct {
	Hours []HoursRule `json:"hours"`
}

type AddBlackoutRequest struct {
	ProviderSlug string    `json:"provider_slug"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Reason       string    `json:"reason,omitempty"`
}

type AddBlackoutResponse struct {
	Blackout Blackout `json:"blackout"`
}

type DeleteBlackoutRequest struct {
	ProviderSlug string `json:"provider_slug"`
	BlackoutID   string `json:"blackout_id"`
}

type DeleteBlackoutResponse struct{}

type GetAvailabilityRequest struct {
	ProviderSlug string     `json:"provider_slug"`
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
	TimeZone     string     `json:"time_zone,omitempty"`
}

type GetAvailabilityResponse struct {
	ProviderSlug string `json:"provider_slug"`
	TimeZone     string `json:"time_zone"`
	Days         []Day  `json:"days"`
}

type BookAppointmentRequest struct {
	ProviderSlug string `json:"provider_slug"`
	PatientEmail string `json:"patient_email"`
	// SlotStart is an RFC 3339 instant or a wall-clock time in the provider's zone.
	SlotStart string `json:"slot_start"`
}

type BookAppointmentResponse struct {
	Appointment Appointment `json:"appointment"`
}

type CancelAppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type CancelAppointmentResponse struct {
	Appointment Appointment `json:"appointment"`
	Changed     bool        `json:"changed"`
}

type DescribeTimeZoneRequest struct {
	TimeZone string     `json:"time_zone"`
	At       *time.Time `json:"at,omitempty"`
}

type DescribeTimeZoneResponse struct {
	TimeZone  string    `json:"time_zone"`
	At        time.Time `json:"at"`
	LocalTime string    `json:"local_time"`
	Offset    string    `json:"offset"`
	DST       bool      `json:"dst"`
	Display   string    `json:"display"`
}

func toWireProvider(p domain.Provider) Provider {
	out := Provider{
		ID:        p.ID.String(),
		Slug:      p.Slug,
		Name:      p.Name,
		Specialty: p.Specialty,
		TimeZone:  p.Timezone,
		Hours:     toWireHours(p.Hours),
	}
	if p.ClinicID != nil {
		out.ClinicID = p.ClinicID.String()
	}
	return out
}

func toWireHours(rules []domain.WeeklyHoursRule) []HoursRule {
	out := make([]HoursRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, HoursRule{
			Weekday: r.Weekday,
			Start:   domain.TimeOfDay(r.StartMinute).String(),
			End:     domain.TimeOfDay(r.EndMinute).String(),
		})
	}
	return out
}

func fromWireHours(rules []HoursRule) ([]domain.WeeklyHoursRule, error) {
	out := make([]domain.WeeklyHoursRule, 0, len(rules))
	for _, r := range rules {
		start, err := domain.ParseTimeOfDay(r.Start)
		if err != nil {
			return nil, err
		}
		end, err := domain.ParseTimeOfDay(r.End)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.WeeklyHoursRule{
			Weekday:     r.Weekday,
			StartMinute: int(start),
			EndMinute:   int(end),
		})
	}
	return out, nil
}

func toWireBlackout(b domain.Blackout) Blackout {
	return Blackout{
		ID:        b.ID.String(),
		StartTime: b.StartTime.UTC(),
		EndTime:   b.EndTime.UTC(),
		Reason:    b.Reason,
	}
}

func toWireDays(res booking.AvailabilityResult, loc *time.Location) []Day {
	out := make([]Day, 0, len(res.Days))
	for _, d := range res.Days {
		day := Day{Date: d.Date.String(), Slots: make([]Slot, 0, len(d.Slots))}
		for _, s := range d.Slots {
			day.Slots = append(day.Slots, Slot{
				StartTime:  s.Start.UTC(),
				EndTime:    s.End.UTC(),
				LocalStart: s.Start.In(loc).Format("15:04"),
			})
		}
		out = append(out, day)
	}
	return out
}

func toWireAppointment(a domain.Appointment) Appointment {
	out := Appointment{
		ID:               a.ID.String(),
		ProviderID:       a.ProviderID.String(),
		PatientEmail:     a.PatientEmail,
		ConfirmationCode: a.ConfirmationCode,
		StartTime:        a.StartTime.UTC(),
		EndTime:          a.EndTime.UTC(),
		Status:           string(a.Status),
	}
	if a.CanceledAt != nil {
		t := a.CanceledAt.UTC()
		out.CanceledAt = &t
	}
	return out
}
