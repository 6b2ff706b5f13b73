package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"easyapt/backend/internal/domain"
)

type ProviderDirectory interface {
	// ListProviders returns providers whose name or specialty contains query, ignoring
	// case, ordered by name. An empty query lists every provider.
	ListProviders(ctx context.Context, query string) ([]domain.Provider, error)
	// GetProviderBySlug returns the provider with its weekly hours loaded.
	GetProviderBySlug(ctx context.Context, slug string) (domain.Provider, error)
	CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error)
	// EnsureClinic returns the clinic with the given name, creating it if needed.
	EnsureClinic(ctx context.Context, c domain.Clinic) (domain.Clinic, error)

	// ReplaceWeeklyHours swaps the provider's whole rule set in one step.
	ReplaceWeeklyHours(ctx context.Context, providerID uuid.UUID, rules []domain.WeeklyHoursRule) ([]domain.WeeklyHoursRule, error)

	// ListBlackouts returns blackouts of the provider overlapping [windowStart, windowEnd).
	ListBlackouts(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Blackout, error)
	CreateBlackout(ctx context.Context, b domain.Blackout) (domain.Blackout, error)
	DeleteBlackout(ctx context.Context, providerID, blackoutID uuid.UUID) error
}
