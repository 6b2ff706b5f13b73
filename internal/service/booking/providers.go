package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"easyapt/backend/internal/domain"
)

func (s *Service) ListProviders(ctx context.Context, query string) ([]domain.Provider, error) {
	return s.providers.ListProviders(ctx, strings.TrimSpace(query))
}

func (s *Service) GetProvider(ctx context.Context, providerSlug string) (domain.Provider, error) {
	providerSlug = strings.TrimSpace(providerSlug)
	if providerSlug == "" {
		return domain.Provider{}, validationError("provider_slug is required")
	}
	return s.providers.GetProviderBySlug(ctx, providerSlug)
}

type CreateProviderInput struct {
	Name       string
	Slug       string
	Specialty  string
	TimeZone   string
	ClinicName string
}

func (s *Service) CreateProvider(ctx context.Context, in CreateProviderInput) (domain.Provider, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Provider{}, validationError("name is required")
	}

	providerSlug := slug.Make(strings.TrimSpace(in.Slug))
	if providerSlug == "" {
		providerSlug = slug.Make(name)
	}
	if providerSlug == "" {
		return domain.Provider{}, validationError("slug could not be derived from name")
	}

	zone := strings.TrimSpace(in.TimeZone)
	if zone == "" {
		zone = s.policy.DefaultZone
	}
	if _, err := domain.LoadZone(zone); err != nil {
		return domain.Provider{}, err
	}

	p := domain.Provider{
		Slug:      providerSlug,
		Name:      name,
		Specialty: strings.TrimSpace(in.Specialty),
		Timezone:  zone,
	}
	if clinicName := strings.TrimSpace(in.ClinicName); clinicName != "" {
		clinic, err := s.providers.EnsureClinic(ctx, domain.Clinic{Name: clinicName})
		if err != nil {
			return domain.Provider{}, err
		}
		p.ClinicID = &clinic.ID
	}

	return s.providers.CreateProvider(ctx, p)
}

// SetWeeklyHours replaces the provider's opening hours. Rules overlapping on the same
// weekday are rejected with domain.ErrOverlappingHours.
func (s *Service) SetWeeklyHours(ctx context.Context, providerSlug string, rules []domain.WeeklyHoursRule) ([]domain.WeeklyHoursRule, error) {
	if err := domain.ValidateWeeklyHours(rules); err != nil {
		return nil, err
	}
	p, err := s.GetProvider(ctx, providerSlug)
	if err != nil {
		return nil, err
	}

	out, err := s.providers.ReplaceWeeklyHours(ctx, p.ID, rules)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, p.ID)
	return out, nil
}

type AddBlackoutInput struct {
	ProviderSlug string
	StartTime    time.Time
	EndTime      time.Time
	Reason       string
}

func (s *Service) AddBlackout(ctx context.Context, in AddBlackoutInput) (domain.Blackout, error) {
	window, err := domain.NewTimeInterval(in.StartTime, in.EndTime)
	if err != nil {
		return domain.Blackout{}, validationError("end_time must be after start_time")
	}
	p, err := s.GetProvider(ctx, in.ProviderSlug)
	if err != nil {
		return domain.Blackout{}, err
	}

	b, err := s.providers.CreateBlackout(ctx, domain.Blackout{
		ProviderID: p.ID,
		StartTime:  window.Start,
		EndTime:    window.End,
		Reason:     strings.TrimSpace(in.Reason),
	})
	if err != nil {
		return domain.Blackout{}, err
	}
	s.invalidate(ctx, p.ID)
	return b, nil
}

func (s *Service) DeleteBlackout(ctx context.Context, providerSlug string, blackoutID uuid.UUID) error {
	if blackoutID == uuid.Nil {
		return validationError("blackout_id is required")
	}
	p, err := s.GetProvider(ctx, providerSlug)
	if err != nil {
		return err
	}
	if err := s.providers.DeleteBlackout(ctx, p.ID, blackoutID); err != nil {
		return err
	}
	s.invalidate(ctx, p.ID)
	return nil
}
