package postgres

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/store"
	"easyapt/backend/migrations"
)

// openTestSchema creates a throwaway schema, applies the migrations to it and returns a
// pool whose connections resolve tables there.
func openTestSchema(t *testing.T) *bun.DB {
	t.Helper()
	databaseURL := strings.TrimSpace(os.Getenv("EASYAPT_TEST_DATABASE_URL"))
	if databaseURL == "" {
		t.Skip("EASYAPT_TEST_DATABASE_URL not set")
	}

	admin, err := Open(databaseURL, PoolConfig{MaxOpenConns: 1})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(admin)
	})

	schema := "easyapt_test_" + randomHex(t, 8)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_, _ = admin.NewRaw("DROP SCHEMA IF EXISTS " + schema + " CASCADE").Exec(ctx)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err = admin.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewRaw("CREATE SCHEMA " + schema).Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewRaw("SET LOCAL search_path TO " + schema + ", public").Exec(ctx); err != nil {
			return err
		}
		names, err := migrationNames(migrations.FS)
		if err != nil {
			return err
		}
		for _, name := range names {
			b, err := fs.ReadFile(migrations.FS, name)
			if err != nil {
				return err
			}
			if err := applyMigration(ctx, tx, string(b)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("migrate error: %v", err)
	}

	u, err := url.Parse(databaseURL)
	if err != nil {
		t.Fatalf("parse database url: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema+",public")
	u.RawQuery = q.Encode()

	db, err := Open(u.String(), PoolConfig{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	t.Cleanup(func() {
		_ = Close(db)
	})
	return db
}

func seedProvider(t *testing.T, ctx context.Context, providers *ProviderRepo) domain.Provider {
	t.Helper()
	clinic, err := providers.EnsureClinic(ctx, domain.Clinic{Name: "Downtown Health"})
	if err != nil {
		t.Fatalf("EnsureClinic error: %v", err)
	}
	again, err := providers.EnsureClinic(ctx, domain.Clinic{Name: "Downtown Health"})
	if err != nil {
		t.Fatalf("EnsureClinic (again) error: %v", err)
	}
	if again.ID != clinic.ID {
		t.Fatalf("EnsureClinic created a second clinic: %s vs %s", again.ID, clinic.ID)
	}

	p, err := providers.CreateProvider(ctx, domain.Provider{
		Slug:      "dr-alice-carter",
		Name:      "Dr. Alice Carter",
		Specialty: "Family Medicine",
		Timezone:  "America/Chicago",
		ClinicID:  &clinic.ID,
	})
	if err != nil {
		t.Fatalf("CreateProvider error: %v", err)
	}
	return p
}

func TestPostgresIntegration_ProviderDirectory(t *testing.T) {
	db := openTestSchema(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	providers := NewProviderRepo(db)
	p := seedProvider(t, ctx, providers)

	if _, err := providers.CreateProvider(ctx, domain.Provider{Slug: p.Slug, Name: "dup", Timezone: "UTC"}); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("duplicate slug err = %v, want %v", err, store.ErrConflict)
	}

	found, err := providers.ListProviders(ctx, "family")
	if err != nil {
		t.Fatalf("ListProviders error: %v", err)
	}
	if len(found) != 1 || found[0].ID != p.ID {
		t.Fatalf("ListProviders = %+v, want the seeded provider", found)
	}
	if none, err := providers.ListProviders(ctx, "dermatology"); err != nil || len(none) != 0 {
		t.Fatalf("ListProviders(dermatology) = %v, %v", none, err)
	}

	rules := []domain.WeeklyHoursRule{
		{Weekday: 0, StartMinute: 540, EndMinute: 1020},
		{Weekday: 1, StartMinute: 540, EndMinute: 1020},
	}
	if _, err := providers.ReplaceWeeklyHours(ctx, p.ID, rules); err != nil {
		t.Fatalf("ReplaceWeeklyHours error: %v", err)
	}
	if _, err := providers.ReplaceWeeklyHours(ctx, p.ID, rules[:1]); err != nil {
		t.Fatalf("ReplaceWeeklyHours (again) error: %v", err)
	}
	loaded, err := providers.GetProviderBySlug(ctx, p.Slug)
	if err != nil {
		t.Fatalf("GetProviderBySlug error: %v", err)
	}
	if len(loaded.Hours) != 1 || loaded.Hours[0].Weekday != 0 {
		t.Fatalf("hours = %+v, want only Monday", loaded.Hours)
	}
	if _, err := providers.GetProviderBySlug(ctx, "nobody"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("missing slug err = %v, want %v", err, store.ErrNotFound)
	}

	start := time.Date(2026, 10, 19, 17, 0, 0, 0, time.UTC)
	b, err := providers.CreateBlackout(ctx, domain.Blackout{ProviderID: p.ID, StartTime: start, EndTime: start.Add(time.Hour), Reason: "lunch"})
	if err != nil {
		t.Fatalf("CreateBlackout error: %v", err)
	}
	listed, err := providers.ListBlackouts(ctx, p.ID, start.Add(-time.Hour), start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("ListBlackouts error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != b.ID {
		t.Fatalf("ListBlackouts = %+v", listed)
	}
	if err := providers.DeleteBlackout(ctx, p.ID, b.ID); err != nil {
		t.Fatalf("DeleteBlackout error: %v", err)
	}
	if err := providers.DeleteBlackout(ctx, p.ID, b.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("second DeleteBlackout err = %v, want %v", err, store.ErrNotFound)
	}
}

func TestPostgresIntegration_ReserveConflictAndIdempotency(t *testing.T) {
	db := openTestSchema(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := seedProvider(t, ctx, NewProviderRepo(db))
	appts := NewAppointmentRepo(db)

	start := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)

	a1, err := appts.Reserve(ctx, domain.Appointment{
		ID:               uuid.MustParse("00000000-0000-0000-0000-000000000901"),
		ProviderID:       p.ID,
		PatientEmail:     "pat@example.com",
		ConfirmationCode: "CODE0001",
		StartTime:        start,
		EndTime:          end,
	})
	if err != nil {
		t.Fatalf("Reserve error: %v", err)
	}

	rows, err := appts.ListBooked(ctx, p.ID, start.Add(-time.Minute), end.Add(time.Minute))
	if err != nil {
		t.Fatalf("ListBooked error: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != a1.ID {
		t.Fatalf("ListBooked = %+v", rows)
	}

	_, err = appts.Reserve(ctx, domain.Appointment{
		ProviderID:       p.ID,
		PatientEmail:     "other@example.com",
		ConfirmationCode: "CODE0002",
		StartTime:        start.Add(15 * time.Minute),
		EndTime:          end.Add(15 * time.Minute),
	})
	if !errors.Is(err, store.ErrConflict) {
		t.Fatalf("overlap err = %v, want %v", err, store.ErrConflict)
	}

	if _, err := appts.Reserve(ctx, domain.Appointment{
		ProviderID:       p.ID,
		PatientEmail:     "next@example.com",
		ConfirmationCode: "CODE0003",
		StartTime:        end,
		EndTime:          end.Add(30 * time.Minute),
	}); err != nil {
		t.Fatalf("adjacent Reserve error: %v", err)
	}

	replay, err := appts.Reserve(ctx, domain.Appointment{
		ID:               a1.ID,
		ProviderID:       p.ID,
		PatientEmail:     "pat@example.com",
		ConfirmationCode: "CODE9999",
		StartTime:        start,
		EndTime:          end,
	})
	if err != nil {
		t.Fatalf("replay error: %v", err)
	}
	if replay.ConfirmationCode != "CODE0001" {
		t.Fatalf("replay code = %q, want original", replay.ConfirmationCode)
	}

	_, err = appts.Reserve(ctx, domain.Appointment{
		ID:               a1.ID,
		ProviderID:       p.ID,
		PatientEmail:     "someone-else@example.com",
		ConfirmationCode: "CODE0004",
		StartTime:        start,
		EndTime:          end,
	})
	if !errors.Is(err, store.ErrIdempotencyConflict) {
		t.Fatalf("idempotency err = %v, want %v", err, store.ErrIdempotencyConflict)
	}

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	canceled, changed, err := appts.Cancel(ctx, a1.ID, now)
	if err != nil || !changed || canceled.Status != domain.AppointmentStatusCanceled {
		t.Fatalf("Cancel = %+v, %v, %v", canceled, changed, err)
	}
	if _, changed, err := appts.Cancel(ctx, a1.ID, now); err != nil || changed {
		t.Fatalf("second Cancel changed=%v err=%v", changed, err)
	}

	if _, err := appts.Reserve(ctx, domain.Appointment{
		ProviderID:       p.ID,
		PatientEmail:     "rebook@example.com",
		ConfirmationCode: "CODE0005",
		StartTime:        start,
		EndTime:          end,
	}); err != nil {
		t.Fatalf("Reserve after cancel error: %v", err)
	}
}

func TestPostgresIntegration_ConcurrentReserveSingleWinner(t *testing.T) {
	db := openTestSchema(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := seedProvider(t, ctx, NewProviderRepo(db))
	appts := NewAppointmentRepo(db)
	start := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = appts.Reserve(ctx, domain.Appointment{
				ProviderID:       p.ID,
				PatientEmail:     fmt.Sprintf("p%d@example.com", i),
				ConfirmationCode: fmt.Sprintf("RACE%04d", i),
				StartTime:        start,
				EndTime:          start.Add(30 * time.Minute),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, store.ErrConflict):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("wins = %d, want 1", wins)
	}

	rows, err := appts.ListBooked(ctx, p.ID, start, start.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("ListBooked error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("booked rows = %d, want 1", len(rows))
	}
}

func randomHex(t *testing.T, bytesLen int) string {
	t.Helper()
	b := make([]byte, bytesLen)
	if _, err := rand.Read(b); err != nil {
		t.Fatalf("rand.Read error: %v", err)
	}
	return hex.EncodeToString(b)
}
