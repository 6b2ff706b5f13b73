package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/store"
)

type ProviderRepo struct {
	db *bun.DB
}

func NewProviderRepo(db *bun.DB) *ProviderRepo {
	return &ProviderRepo{db: db}
}

func (r *ProviderRepo) ListProviders(ctx context.Context, query string) ([]domain.Provider, error) {
	var rows []domain.Provider
	q := r.db.NewSelect().Model(&rows)
	if query = strings.TrimSpace(query); query != "" {
		pattern := "%" + escapeLike(query) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("name ILIKE ?", pattern).WhereOr("specialty ILIKE ?", pattern)
		})
	}
	if err := q.OrderExpr("name ASC, slug ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProviderRepo) GetProviderBySlug(ctx context.Context, slug string) (domain.Provider, error) {
	var p domain.Provider
	err := r.db.NewSelect().
		Model(&p).
		Where("slug = ?", slug).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Provider{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Provider{}, err
	}

	hours, err := listHours(ctx, r.db, p.ID)
	if err != nil {
		return domain.Provider{}, err
	}
	p.Hours = hours
	return p, nil
}

func (r *ProviderRepo) CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	m := domain.Provider{
		ID:        p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		Specialty: p.Specialty,
		Timezone:  p.Timezone,
		ClinicID:  p.ClinicID,
	}
	_, err := r.db.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return domain.Provider{}, store.ErrConflict
		}
		return domain.Provider{}, err
	}
	return m, nil
}

func (r *ProviderRepo) EnsureClinic(ctx context.Context, c domain.Clinic) (domain.Clinic, error) {
	m := domain.Clinic{
		ID:      c.ID,
		Name:    c.Name,
		Address: c.Address,
		Phone:   c.Phone,
	}
	_, err := r.db.NewInsert().
		Model(&m).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Clinic{}, err
	}

	var out domain.Clinic
	err = r.db.NewSelect().
		Model(&out).
		Where("name = ?", c.Name).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Clinic{}, err
	}
	return out, nil
}

func (r *ProviderRepo) ReplaceWeeklyHours(ctx context.Context, providerID uuid.UUID, rules []domain.WeeklyHoursRule) ([]domain.WeeklyHoursRule, error) {
	out := make([]domain.WeeklyHoursRule, 0, len(rules))
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderCalendar(ctx, tx, providerID); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*domain.WeeklyHoursRule)(nil)).
			Where("provider_id = ?", providerID).
			Exec(ctx)
		if err != nil {
			return err
		}
		if len(rules) == 0 {
			return nil
		}

		for _, rule := range rules {
			out = append(out, domain.WeeklyHoursRule{
				ProviderID:  providerID,
				Weekday:     rule.Weekday,
				StartMinute: rule.StartMinute,
				EndMinute:   rule.EndMinute,
			})
		}
		_, err = tx.NewInsert().Model(&out).Exec(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ProviderRepo) ListBlackouts(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Blackout, error) {
	var rows []domain.Blackout
	err := r.db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ProviderRepo) CreateBlackout(ctx context.Context, b domain.Blackout) (domain.Blackout, error) {
	m := domain.Blackout{
		ID:         b.ID,
		ProviderID: b.ProviderID,
		StartTime:  b.StartTime.UTC(),
		EndTime:    b.EndTime.UTC(),
		Reason:     b.Reason,
	}
	if _, err := r.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Blackout{}, err
	}
	return m, nil
}

func (r *ProviderRepo) DeleteBlackout(ctx context.Context, providerID, blackoutID uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Blackout)(nil)).
		Where("provider_id = ?", providerID).
		Where("id = ?", blackoutID).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func listHours(ctx context.Context, db bun.IDB, providerID uuid.UUID) ([]domain.WeeklyHoursRule, error) {
	var rows []domain.WeeklyHoursRule
	err := db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		OrderExpr("weekday ASC, start_minute ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
