package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"easyapt/backend/internal/cache"
	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/events"
	"easyapt/backend/internal/store"
)

// ErrOutsideAvailability is returned when a requested slot is not one the provider's
// hours offer, or falls inside a blackout.
var ErrOutsideAvailability = errors.New("requested slot is not offered")

type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

type Policy struct {
	SlotDuration    time.Duration
	MinAdvanceHours int
	DefaultRange    time.Duration
	MaxRange        time.Duration
	DefaultZone     string
}

func DefaultPolicy() Policy {
	return Policy{
		SlotDuration:    30 * time.Minute,
		MinAdvanceHours: 1,
		DefaultRange:    7 * 24 * time.Hour,
		MaxRange:        31 * 24 * time.Hour,
		DefaultZone:     "UTC",
	}
}

type Service struct {
	providers store.ProviderDirectory
	appts     store.AppointmentRepository

	clock     domain.Clock
	validator *domain.AppointmentTimeValidator
	logger    *slog.Logger
	cache     cache.AvailabilityCache
	publisher events.Publisher
	policy    Policy
	newCode   func() (string, error)
}

type Option func(*Service)

func WithClock(c domain.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithCache(c cache.AvailabilityCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithPolicy overrides the booking policy. Zero durations and an empty zone keep their
// defaults; MinAdvanceHours is taken as given unless negative.
func WithPolicy(p Policy) Option {
	return func(s *Service) {
		if p.SlotDuration > 0 {
			s.policy.SlotDuration = p.SlotDuration
		}
		if p.MinAdvanceHours >= 0 {
			s.policy.MinAdvanceHours = p.MinAdvanceHours
		}
		if p.DefaultRange > 0 {
			s.policy.DefaultRange = p.DefaultRange
		}
		if p.MaxRange > 0 {
			s.policy.MaxRange = p.MaxRange
		}
		if strings.TrimSpace(p.DefaultZone) != "" {
			s.policy.DefaultZone = strings.TrimSpace(p.DefaultZone)
		}
	}
}

func NewService(providers store.ProviderDirectory, appts store.AppointmentRepository, opts ...Option) *Service {
	s := &Service{
		providers: providers,
		appts:     appts,
		clock:     domain.SystemClock{},
		logger:    slog.Default(),
		cache:     cache.Nop{},
		publisher: events.Nop{},
		policy:    DefaultPolicy(),
		newCode:   newConfirmationCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = domain.NewAppointmentTimeValidator(s.clock)
	return s
}

func (s *Service) Policy() Policy {
	return s.policy
}

func (s *Service) invalidate(ctx context.Context, providerID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, providerID); err != nil {
		s.logger.Warn("availability cache invalidate failed", "provider_id", providerID.String(), "err", err)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, appt domain.Appointment) {
	id, err := uuid.NewV7()
	if err != nil {
		s.logger.Warn("event id generation failed", "err", err)
		return
	}
	e := events.Event{
		ID:               id,
		Type:             eventType,
		OccurredAt:       s.clock.Now().UTC(),
		AppointmentID:    appt.ID,
		ProviderID:       appt.ProviderID,
		PatientEmail:     appt.PatientEmail,
		ConfirmationCode: appt.ConfirmationCode,
		StartTime:        appt.StartTime.UTC(),
		EndTime:          appt.EndTime.UTC(),
		Status:           string(appt.Status),
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("event publish failed", "event_type", eventType, "appointment_id", appt.ID.String(), "err", err)
	}
}
