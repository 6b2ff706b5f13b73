package main

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/service/booking"
	"easyapt/backend/internal/store/memory"
)

func TestSeed_Idempotent(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := memory.NewStore(nil)
	svc := booking.NewService(st, st, booking.WithLogger(log))

	first, err := seed(ctx, log, st, svc)
	if err != nil {
		t.Fatalf("seed error: %v", err)
	}
	if first.Slug != "dr-alice-carter" || first.Timezone != "America/Chicago" || first.ClinicID == nil {
		t.Fatalf("provider = %+v", first)
	}
	if len(first.Hours) != 5 {
		t.Fatalf("hours = %d, want 5", len(first.Hours))
	}

	second, err := seed(ctx, log, st, svc)
	if err != nil {
		t.Fatalf("second seed error: %v", err)
	}
	if second.ID != first.ID || len(second.Hours) != 5 {
		t.Fatalf("second seed changed provider: %+v", second)
	}

	providers, err := svc.ListProviders(ctx, "")
	if err != nil {
		t.Fatalf("ListProviders error: %v", err)
	}
	if len(providers) != 1 {
		t.Fatalf("providers = %d, want 1", len(providers))
	}
}

func TestMissingWeekdayHours(t *testing.T) {
	existing := []domain.WeeklyHoursRule{
		{Weekday: 0, StartMinute: 540, EndMinute: 1020},
		{Weekday: 2, StartMinute: 600, EndMinute: 1020},
	}
	got := missingWeekdayHours(existing, 540, 1020)
	if len(got) != 4 {
		t.Fatalf("missing = %d, want 4", len(got))
	}
	for _, r := range got {
		if r.Weekday == 0 {
			t.Fatalf("Monday already present but returned again")
		}
	}
}
