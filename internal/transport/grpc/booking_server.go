package grpc

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/service/booking"
	"easyapt/backend/internal/store"
)

type BookingServer struct {
	svc bookingService
	log *slog.Logger
}

type bookingService interface {
	ListProviders(ctx context.Context, query string) ([]domain.Provider, error)
	GetProvider(ctx context.Context, providerSlug string) (domain.Provider, error)
	CreateProvider(ctx context.Context, in booking.CreateProviderInput) (domain.Provider, error)
	SetWeeklyHours(ctx context.Context, providerSlug string, rules []domain.WeeklyHoursRule) ([]domain.WeeklyHoursRule, error)
	AddBlackout(ctx context.Context, in booking.AddBlackoutInput) (domain.Blackout, error)
	DeleteBlackout(ctx context.Context, providerSlug string, blackoutID uuid.UUID) error
	Availability(ctx context.Context, in booking.AvailabilityInput) (booking.AvailabilityResult, error)
	Book(ctx context.Context, in booking.BookInput) (domain.Appointment, error)
	Cancel(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, bool, error)
	DescribeZone(ctx context.Context, zone string, at time.Time) (booking.ZoneInfo, error)
}

var _ BookingServiceServer = (*BookingServer)(nil)

func NewBookingServer(svc bookingService, log *slog.Logger) *BookingServer {
	if log == nil {
		log = slog.Default()
	}
	return &BookingServer{
		svc: svc,
		log: log.With(slog.String("component", "grpc.booking")),
	}
}

func (s *BookingServer) ListProviders(ctx context.Context, req *ListProvidersRequest) (*ListProvidersResponse, error) {
	log := s.log.With(slog.String("rpc", "ListProviders"))
	if req == nil {
		req = &ListProvidersRequest{}
	}

	providers, err := s.svc.ListProviders(ctx, req.Query)
	if err != nil {
		return nil, s.errorStatus(log, err, "provider not found")
	}

	out := make([]Provider, 0, len(providers))
	for _, p := range providers {
		out = append(out, toWireProvider(p))
	}
	log.Debug("providers listed", slog.String("query", req.Query), slog.Int("count", len(out)))
	return &ListProvidersResponse{Providers: out}, nil
}

func (s *BookingServer) GetProvider(ctx context.Context, req *GetProviderRequest) (*GetProviderResponse, error) {
	log := s.log.With(slog.String("rpc", "GetProvider"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	p, err := s.svc.GetProvider(ctx, req.Slug)
	if err != nil {
		return nil, s.errorStatus(log, err, "provider not found", slog.String("provider_slug", req.Slug))
	}
	return &GetProviderResponse{Provider: toWireProvider(p)}, nil
}

func (s *BookingServer) CreateProvider(ctx context.Context, req *CreateProviderRequest) (*CreateProviderResponse, error) {
	log := s.log.With(slog.String("rpc", "CreateProvider"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	p, err := s.svc.CreateProvider(ctx, booking.CreateProviderInput{
		Name:       req.Name,
		Slug:       req.Slug,
		Specialty:  req.Specialty,
		TimeZone:   req.TimeZone,
		ClinicName: req.ClinicName,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Info("provider create conflict", slog.String("name", req.Name), slog.String("slug", req.Slug))
			return nil, status.Error(codes.AlreadyExists, "A provider with that slug already exists.")
		}
		return nil, s.errorStatus(log, err, "provider not found", slog.String("name", req.Name))
	}

	log.Info("provider created", slog.String("provider_id", p.ID.String()), slog.String("provider_slug", p.Slug), slog.String("time_zone", p.Timezone))
	return &CreateProviderResponse{Provider: toWireProvider(p)}, nil
}

func (s *BookingServer) SetWeeklyHours(ctx context.Context, req *SetWeeklyHoursRequest) (*SetWeeklyHoursResponse, error) {
	log := s.log.With(slog.String("rpc", "SetWeeklyHours"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	rules, err := fromWireHours(req.Hours)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_time_of_day"), slog.String("provider_slug", req.ProviderSlug))
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	saved, err := s.svc.SetWeeklyHours(ctx, req.ProviderSlug, rules)
	if err != nil {
		return nil, s.errorStatus(log, err, "provider not found", slog.String("provider_slug", req.ProviderSlug))
	}

	log.Info("weekly hours replaced", slog.String("provider_slug", req.ProviderSlug), slog.Int("rules", len(saved)))
	return &SetWeeklyHoursResponse{Hours: toWireHours(saved)}, nil
}

func (s *BookingServer) AddBlackout(ctx context.Context, req *AddBlackoutRequest) (*AddBlackoutResponse, error) {
	log := s.log.With(slog.String("rpc", "AddBlackout"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		log.Warn("invalid request", slog.String("reason", "missing_times"), slog.String("provider_slug", req.ProviderSlug))
		return nil, status.Error(codes.InvalidArgument, "start_time and end_time are required")
	}

	b, err := s.svc.AddBlackout(ctx, booking.AddBlackoutInput{
		ProviderSlug: req.ProviderSlug,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Reason:       req.Reason,
	})
	if err != nil {
		return nil, s.errorStatus(log, err, "provider not found", slog.String("provider_slug", req.ProviderSlug))
	}

	log.Info(
		"blackout added",
		slog.String("blackout_id", b.ID.String()),
		slog.String("provider_slug", req.ProviderSlug),
		slog.Time("start_time", b.StartTime),
		slog.Time("end_time", b.EndTime),
	)
	return &AddBlackoutResponse{Blackout: toWireBlackout(b)}, nil
}

func (s *BookingServer) DeleteBlackout(ctx context.Context, req *DeleteBlackoutRequest) (*DeleteBlackoutResponse, error) {
	log := s.log.With(slog.String("rpc", "DeleteBlackout"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.BlackoutID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"), slog.String("provider_slug", req.ProviderSlug))
		return nil, status.Error(codes.InvalidArgument, "blackout_id must be a UUID")
	}

	if err := s.svc.DeleteBlackout(ctx, req.ProviderSlug, id); err != nil {
		return nil, s.errorStatus(log, err, "blackout not found", slog.String("blackout_id", id.String()), slog.String("provider_slug", req.ProviderSlug))
	}

	log.Info("blackout deleted", slog.String("blackout_id", id.String()), slog.String("provider_slug", req.ProviderSlug))
	return &DeleteBlackoutResponse{}, nil
}

func (s *BookingServer) GetAvailability(ctx context.Context, req *GetAvailabilityRequest) (*GetAvailabilityResponse, error) {
	log := s.log.With(slog.String("rpc", "GetAvailability"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	in := booking.AvailabilityInput{ProviderSlug: req.ProviderSlug, TimeZone: req.TimeZone}
	if req.From != nil {
		in.From = *req.From
	}
	if req.To != nil {
		in.To = *req.To
	}

	res, err := s.svc.Availability(ctx, in)
	if err != nil {
		return nil, s.errorStatus(log, err, "provider not found", slog.String("provider_slug", req.ProviderSlug))
	}
	loc, err := domain.LoadZone(res.TimeZone)
	if err != nil {
		return nil, s.errorStatus(log, err, "provider not found", slog.String("provider_slug", req.ProviderSlug))
	}

	days := toWireDays(res, loc)
	log.Debug(
		"availability listed",
		slog.String("provider_slug", req.ProviderSlug),
		slog.String("time_zone", res.TimeZone),
		slog.Int("days", len(days)),
	)
	return &GetAvailabilityResponse{ProviderSlug: res.Provider.Slug, TimeZone: res.TimeZone, Days: days}, nil
}

func (s *BookingServer) BookAppointment(ctx context.Context, req *BookAppointmentRequest) (*BookAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "BookAppointment"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	appt, err := s.svc.Book(ctx, booking.BookInput{
		ProviderSlug:   req.ProviderSlug,
		PatientEmail:   req.PatientEmail,
		SlotStart:      req.SlotStart,
		IdempotencyKey: idempotencyKey(ctx),
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			log.Info("appointment book conflict", slog.String("provider_slug", req.ProviderSlug), slog.String("slot_start", req.SlotStart))
			return nil, status.Error(codes.FailedPrecondition, "That slot was just booked by someone else. Pick a different slot.")
		}
		return nil, s.errorStatus(log, err, "provider not found", slog.String("provider_slug", req.ProviderSlug), slog.String("slot_start", req.SlotStart))
	}

	log.Info(
		"appointment booked",
		slog.String("appointment_id", appt.ID.String()),
		slog.String("provider_id", appt.ProviderID.String()),
		slog.Time("start_time", appt.StartTime),
		slog.Time("end_time", appt.EndTime),
	)
	return &BookAppointmentResponse{Appointment: toWireAppointment(appt)}, nil
}

func (s *BookingServer) CancelAppointment(ctx context.Context, req *CancelAppointmentRequest) (*CancelAppointmentResponse, error) {
	log := s.log.With(slog.String("rpc", "CancelAppointment"))
	if req == nil {
		log.Warn("invalid request", slog.String("reason", "nil_request"))
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}
	id, err := uuid.Parse(req.AppointmentID)
	if err != nil {
		log.Warn("invalid request", slog.String("reason", "invalid_uuid"))
		return nil, status.Error(codes.InvalidArgument, "appointment_id must be a UUID")
	}

	appt, changed, err := s.svc.Cancel(ctx, id)
	if err != nil {
		return nil, s.errorStatus(log, err, "appointment not found", slog.String("appointment_id", id.String()))
	}

	log.Info("appointment canceled", slog.String("appointment_id", id.String()), slog.Bool("changed", changed))
	return &CancelAppointmentResponse{Appointment: toWireAppointment(appt), Changed: changed}, nil
}

func (s *BookingServer) DescribeTimeZone(ctx context.Context, req *DescribeTimeZoneRequest) (*DescribeTimeZoneResponse, error) {
	log := s.log.With(slog.String("rpc", "DescribeTimeZone"))
	if req == nil {
		req = &DescribeTimeZoneRequest{}
	}

	var at time.Time
	if req.At != nil {
		at = *req.At
	}
	info, err := s.svc.DescribeZone(ctx, req.TimeZone, at)
	if err != nil {
		return nil, s.errorStatus(log, err, "time zone not found", slog.String("time_zone", req.TimeZone))
	}

	return &DescribeTimeZoneResponse{
		TimeZone:  info.Zone,
		At:        info.At,
		LocalTime: info.LocalTime.Format("2006-01-02T15:04:05"),
		Offset:    info.Offset,
		DST:       info.DST,
		Display:   info.Display,
	}, nil
}

// errorStatus logs err at the level its kind deserves and converts it to a status error.
func (s *BookingServer) errorStatus(log *slog.Logger, err error, notFound string, attrs ...any) error {
	var (
		vErr   *booking.ValidationError
		rejErr *domain.RejectedError
	)
	switch {
	case errors.As(err, &vErr):
		log.Warn("invalid request", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.InvalidArgument, vErr.Error())
	case errors.As(err, &rejErr):
		log.Info("requested time rejected", append([]any{slog.String("reason", string(rejErr.Reason))}, attrs...)...)
		return status.Error(codes.InvalidArgument, rejErr.Error())
	case isInvalidInput(err):
		log.Warn("invalid request", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, booking.ErrOutsideAvailability):
		log.Info("requested slot not offered", attrs...)
		return status.Error(codes.FailedPrecondition, "That time is not one of the provider's open slots.")
	case errors.Is(err, store.ErrIdempotencyConflict):
		log.Info("idempotency conflict", attrs...)
		return status.Error(codes.FailedPrecondition, "This request key was already used for a different appointment. Try again.")
	case errors.Is(err, store.ErrConflict):
		log.Info("conflict", attrs...)
		return status.Error(codes.FailedPrecondition, "The request conflicts with existing data.")
	case errors.Is(err, store.ErrNotFound):
		log.Info(notFound, attrs...)
		return status.Error(codes.NotFound, notFound)
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", attrs...)
		return status.Error(codes.DeadlineExceeded, "request timed out")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		log.Error("request failed", append([]any{slog.Any("err", err)}, attrs...)...)
		return status.Error(codes.Internal, "internal error")
	}
}

func isInvalidInput(err error) bool {
	for _, target := range []error{
		domain.ErrInvalidTimeZone,
		domain.ErrInvalidInstant,
		domain.ErrInvalidSlot,
		domain.ErrInvalidHoursRule,
		domain.ErrOverlappingHours,
		domain.ErrInvalidInterval,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func idempotencyKey(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get("idempotency-key")
	if len(values) == 0 {
		values = md.Get("x-idempotency-key")
	}
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
