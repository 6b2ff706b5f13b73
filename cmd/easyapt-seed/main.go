// Command easyapt-seed loads the demo clinic and provider. Running it again leaves
// existing rows alone.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"easyapt/backend/internal/config"
	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/service/booking"
	"easyapt/backend/internal/store"
	"easyapt/backend/internal/store/memory"
	"easyapt/backend/internal/store/postgres"
	"easyapt/backend/migrations"
)

var demoClinic = domain.Clinic{
	Name:    "Downtown Health",
	Address: "123 Main St",
	Phone:   "555-0100",
}

var demoProvider = booking.CreateProviderInput{
	Name:       "Dr. Alice Carter",
	Specialty:  "Family Medicine",
	TimeZone:   "America/Chicago",
	ClinicName: "Downtown Health",
}

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("service", "easyapt-seed"))

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, log, cfg); err != nil {
		log.Error("seed failed", slog.Any("err", err))
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, cfg config.Config) error {
	if cfg.StoreDriver == config.StoreDriverMemory {
		st := memory.NewStore(domain.SystemClock{})
		_, err := seed(ctx, log, st, booking.NewService(st, st, booking.WithLogger(log)))
		return err
	}

	db, err := postgres.OpenContext(ctx, cfg.DatabaseURL, postgres.PoolConfig{MaxOpenConns: 2, MaxIdleConns: 1})
	if err != nil {
		return err
	}
	defer func() { _ = postgres.Close(db) }()

	applied, err := postgres.Migrate(ctx, db, migrations.FS)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("migrations applied", slog.Any("files", applied))

	providers := postgres.NewProviderRepo(db)
	svc := booking.NewService(providers, postgres.NewAppointmentRepo(db), booking.WithLogger(log))
	_, err = seed(ctx, log, providers, svc)
	return err
}

// seed makes sure the demo clinic, provider and Monday to Friday 09:00-17:00 hours exist.
func seed(ctx context.Context, log *slog.Logger, dir store.ProviderDirectory, svc *booking.Service) (domain.Provider, error) {
	clinic, err := dir.EnsureClinic(ctx, demoClinic)
	if err != nil {
		return domain.Provider{}, fmt.Errorf("clinic: %w", err)
	}

	p, err := svc.CreateProvider(ctx, demoProvider)
	switch {
	case err == nil:
		log.Info("provider created", slog.String("provider_slug", p.Slug), slog.String("clinic_id", clinic.ID.String()))
	case errors.Is(err, store.ErrConflict):
		log.Info("provider already present", slog.String("name", demoProvider.Name))
	default:
		return domain.Provider{}, fmt.Errorf("provider: %w", err)
	}

	p, err = svc.GetProvider(ctx, "dr-alice-carter")
	if err != nil {
		return domain.Provider{}, err
	}

	rules := missingWeekdayHours(p.Hours, 9*60, 17*60)
	if len(rules) == 0 {
		log.Info("seed ok (nothing to do)")
		return p, nil
	}
	if _, err := svc.SetWeeklyHours(ctx, p.Slug, append(p.Hours, rules...)); err != nil {
		return domain.Provider{}, fmt.Errorf("hours: %w", err)
	}
	log.Info("seed ok", slog.Int("hours_added", len(rules)))
	return svc.GetProvider(ctx, p.Slug)
}

// missingWeekdayHours lists the Monday to Friday [start, end) rules not already present.
func missingWeekdayHours(existing []domain.WeeklyHoursRule, start, end int) []domain.WeeklyHoursRule {
	var out []domain.WeeklyHoursRule
	for wd := 0; wd < 5; wd++ {
		found := false
		for _, r := range existing {
			if r.Weekday == wd && r.StartMinute == start && r.EndMinute == end {
				found = true
				break
			}
		}
		if !found {
			out = append(out, domain.WeeklyHoursRule{Weekday: wd, StartMinute: start, EndMinute: end})
		}
	}
	return out
}
