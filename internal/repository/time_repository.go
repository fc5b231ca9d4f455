package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dkim-dev/roomescape-booking/internal/model"
)

// TimeRepo manages persistence for reservation time slots. The
// start_at column is a TIME value; it is scanned as a string in
// "15:04:05" form and compared lexically, which is safe for a
// zero-padded 24h clock.
type TimeRepo struct{ db *sql.DB }

// NewTimeRepo returns a new TimeRepo bound to the given database.
func NewTimeRepo(db *sql.DB) *TimeRepo { return &TimeRepo{db: db} }

// Create inserts a reservation time and populates its generated ID.
func (r *TimeRepo) Create(ctx context.Context, t *model.ReservationTime) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO reservation_times (start_at) VALUES (?)", t.StartAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches a reservation time by id, returning ErrTimeNotFound
// when no row exists.
func (r *TimeRepo) GetByID(ctx context.Context, id uint64) (*model.ReservationTime, error) {
	var t model.ReservationTime
	err := r.db.QueryRowContext(ctx,
		"SELECT id, start_at, created_at FROM reservation_times WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.StartAt, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListAll returns every reservation time ordered by start_at.
func (r *TimeRepo) ListAll(ctx context.Context) ([]model.ReservationTime, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, start_at, created_at FROM reservation_times ORDER BY start_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	times := make([]model.ReservationTime, 0)
	for rows.Next() {
		var t model.ReservationTime
		if err := rows.Scan(&t.ID, &t.StartAt, &t.CreatedAt); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// AvailableTime is a reservation time annotated with whether the slot
// (date, time, theme) is already booked.
type AvailableTime struct {
	ID      uint64 `json:"id"`
	StartAt string `json:"start_at"`
	Booked  bool   `json:"booked"`
}

// ListWithAvailability returns every time slot for the given date and
// theme, flagging the ones a live reservation already occupies.
func (r *TimeRepo) ListWithAvailability(ctx context.Context, date time.Time, themeID uint64) ([]AvailableTime, error) {
	const q = `SELECT t.id, t.start_at,
	                  EXISTS(SELECT 1 FROM reservations res
	                         WHERE res.date = ? AND res.time_id = t.id AND res.theme_id = ?)
	           FROM reservation_times t
	           ORDER BY t.start_at, t.id`
	rows, err := r.db.QueryContext(ctx, q, date.UTC().Format(time.DateOnly), themeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]AvailableTime, 0)
	for rows.Next() {
		var at AvailableTime
		if err := rows.Scan(&at.ID, &at.StartAt, &at.Booked); err != nil {
			return nil, err
		}
		out = append(out, at)
	}
	return out, rows.Err()
}

// Delete removes a reservation time. It fails with ErrConflict while
// reservations still reference the slot and ErrTimeNotFound when the
// row is already gone.
func (r *TimeRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE time_id=?", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM reservation_times WHERE id=?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrTimeNotFound
	}
	return nil
}
