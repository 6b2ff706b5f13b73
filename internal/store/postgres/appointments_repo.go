package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"easyapt/backend/internal/domain"
	"easyapt/backend/internal/store"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"

	appointmentsNoOverlap   = "appointments_no_overlap"
	appointmentsPkey        = "appointments_pkey"
	appointmentsBookedStart = "appointments_provider_start_booked_key"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) ListBooked(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	return listBooked(ctx, r.db, providerID, windowStart, windowEnd)
}

func (r *AppointmentRepo) Get(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	return getAppointment(ctx, r.db, appointmentID)
}

func (r *AppointmentRepo) Reserve(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	var out domain.Appointment
	err := r.InProviderTransaction(ctx, appt.ProviderID, func(ctx context.Context, tx store.BookingTx) error {
		a, err := store.ReserveInTx(ctx, tx, appt)
		if err != nil {
			return err
		}
		out = a
		return nil
	})
	if err != nil {
		return domain.Appointment{}, err
	}
	return out, nil
}

func (r *AppointmentRepo) Cancel(ctx context.Context, appointmentID uuid.UUID, now time.Time) (domain.Appointment, bool, error) {
	current, err := r.Get(ctx, appointmentID)
	if err != nil {
		return domain.Appointment{}, false, err
	}

	var (
		out     domain.Appointment
		changed bool
	)
	err = r.InProviderTransaction(ctx, current.ProviderID, func(ctx context.Context, tx store.BookingTx) error {
		a, c, err := store.CancelInTx(ctx, tx, appointmentID, now)
		if err != nil {
			return err
		}
		out, changed = a, c
		return nil
	})
	if err != nil {
		return domain.Appointment{}, false, err
	}
	return out, changed, nil
}

// InProviderTransaction runs fn in a transaction holding the provider's advisory lock,
// so concurrent bookings for one provider are checked and written one at a time.
func (r *AppointmentRepo) InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderCalendar(ctx, tx, providerID); err != nil {
			return err
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

func lockProviderCalendar(ctx context.Context, tx bun.Tx, providerID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", providerID.String()).Exec(ctx)
	return err
}

func (r bookingTx) GetAppointment(ctx context.Context, appointmentID uuid.UUID) (domain.Appointment, error) {
	return getAppointment(ctx, r.tx, appointmentID)
}

func (r bookingTx) ListBookedAppointments(ctx context.Context, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	return listBooked(ctx, r.tx, providerID, windowStart, windowEnd)
}

func (r bookingTx) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:               appt.ID,
		ProviderID:       appt.ProviderID,
		PatientEmail:     appt.PatientEmail,
		ConfirmationCode: appt.ConfirmationCode,
		StartTime:        appt.StartTime.UTC(),
		EndTime:          appt.EndTime.UTC(),
		Status:           appt.Status,
		CreatedAt:        appt.CreatedAt,
		UpdatedAt:        appt.UpdatedAt,
	}

	_, err := r.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapInsertError(err)
	}
	return m, nil
}

// mapInsertError translates constraint violations into store errors. The row ids are
// checked under the provider lock before inserting, so a primary key violation means the
// same id was used for a different provider's booking.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch {
	case pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == appointmentsNoOverlap:
		return store.ErrConflict
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == appointmentsBookedStart:
		return store.ErrConflict
	case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == appointmentsPkey:
		return store.ErrIdempotencyConflict
	}
	return err
}

func (r bookingTx) UpdateAppointment(ctx context.Context, appt domain.Appointment) error {
	res, err := r.tx.NewUpdate().
		Model(&appt).
		Column("status", "canceled_at", "updated_at").
		WherePK().
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

func getAppointment(ctx context.Context, db bun.IDB, appointmentID uuid.UUID) (domain.Appointment, error) {
	var row domain.Appointment
	err := db.NewSelect().
		Model(&row).
		Where("id = ?", appointmentID).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Appointment{}, store.ErrNotFound
	}
	if err != nil {
		return domain.Appointment{}, err
	}
	return row, nil
}

func listBooked(ctx context.Context, db bun.IDB, providerID uuid.UUID, windowStart, windowEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := db.NewSelect().
		Model(&rows).
		Where("provider_id = ?", providerID).
		Where("status = ?", domain.AppointmentStatusBooked).
		Where("start_time < ?", windowEnd).
		Where("end_time > ?", windowStart).
		OrderExpr("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
