// Package repository contains data access logic for the booking domain.
// This file covers reservations. A reservation occupies exactly one
// slot (date, time, theme); the reservations table carries a unique
// key over that triple and every insert path relies on it as the final
// arbiter against concurrent bookings.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dkim-dev/roomescape-booking/internal/model"
)

// ReservationRepo provides CRUD operations for reservations. All
// timestamp fields are assumed to be stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB. It allows callers to begin
// transactions spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// Create inserts a new reservation and populates the generated ID and
// CreatedAt on the provided record. A duplicate-key failure on the
// (date, time_id, theme_id) unique key is mapped to ErrSlotTaken so
// the caller can report the slot as taken without inspecting driver
// errors.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (member_id, date, time_id, theme_id, status) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		res.MemberID, res.Date.UTC().Format(time.DateOnly), res.TimeID, res.ThemeID, string(res.Status))
	if err != nil {
		if isDuplicateKey(err) {
			return ErrSlotTaken
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	// Query back the row to populate the DB-assigned creation timestamp.
	const sel = `SELECT created_at FROM reservations WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, res.ID).Scan(&res.CreatedAt)
}

// GetByID fetches a reservation by id, returning ErrReservationNotFound
// when no row exists.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, member_id, date, time_id, theme_id, status, created_at
	           FROM reservations WHERE id = ?`
	var res model.Reservation
	var status string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.MemberID, &res.Date, &res.TimeID, &res.ThemeID, &status, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	return &res, nil
}

// GetBySlot fetches the live reservation occupying a slot, returning
// ErrReservationNotFound when the slot is free.
func (r *ReservationRepo) GetBySlot(ctx context.Context, slot model.Slot) (*model.Reservation, error) {
	const q = `SELECT id, member_id, date, time_id, theme_id, status, created_at
	           FROM reservations WHERE date = ? AND time_id = ? AND theme_id = ? LIMIT 1`
	var res model.Reservation
	var status string
	err := r.db.QueryRowContext(ctx, q,
		slot.Date.UTC().Format(time.DateOnly), slot.TimeID, slot.ThemeID).Scan(
		&res.ID, &res.MemberID, &res.Date, &res.TimeID, &res.ThemeID, &status, &res.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	res.Status = model.ReservationStatus(status)
	return &res, nil
}

// ExistsBySlot reports whether a live reservation occupies the slot.
func (r *ReservationRepo) ExistsBySlot(ctx context.Context, slot model.Slot) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM reservations WHERE date = ? AND time_id = ? AND theme_id = ?)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q,
		slot.Date.UTC().Format(time.DateOnly), slot.TimeID, slot.ThemeID).Scan(&exists)
	return exists, err
}

// Delete removes a reservation row. Deleting an absent row returns
// ErrReservationNotFound so double cancellations surface cleanly.
func (r *ReservationRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// UpdateStatus transitions a reservation's status.
func (r *ReservationRepo) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// PromoteWaiting hands the slot of reservation id over to the waiting
// member. The reservation row is rewritten in place (new owner,
// status back to PAYMENT_PENDING) and the waiting entry is deleted,
// both within one transaction. Rewriting instead of delete+insert
// keeps the unique key held for the whole handover, so no concurrent
// create can squeeze into the slot.
func (r *ReservationRepo) PromoteWaiting(ctx context.Context, id uint64, w *model.Waiting) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	result, err := tx.ExecContext(ctx,
		`UPDATE reservations SET member_id = ?, status = ? WHERE id = ?`,
		w.MemberID, string(model.StatusPaymentPending), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM waitings WHERE id = ?`, w.ID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReservationDetail is a reservation joined with its member, time and
// theme reference data, shaped for API responses.
type ReservationDetail struct {
	ID         uint64 `json:"id"`
	MemberID   uint64 `json:"member_id"`
	MemberName string `json:"member_name"`
	Date       string `json:"date"`
	TimeID     uint64 `json:"time_id"`
	StartAt    string `json:"start_at"`
	ThemeID    uint64 `json:"theme_id"`
	ThemeName  string `json:"theme_name"`
	Status     string `json:"status"`
}

// ReservationFilter narrows ListByFilter. Zero values mean "no
// constraint"; DateFrom/DateTo bound the reservation date inclusively.
type ReservationFilter struct {
	MemberID uint64
	ThemeID  uint64
	DateFrom time.Time
	DateTo   time.Time
}

const detailSelect = `SELECT r.id, r.member_id, m.name, r.date, r.time_id, t.start_at, r.theme_id, th.name, r.status
	FROM reservations r
	JOIN members m ON m.id = r.member_id
	JOIN reservation_times t ON t.id = r.time_id
	JOIN themes th ON th.id = r.theme_id`

// ListAll returns every reservation with reference details, ordered by
// date then time for deterministic output.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, detailSelect+` ORDER BY r.date, t.start_at, r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDetails(rows)
}

// ListByFilter returns reservations matching the filter, ordered like
// ListAll. Conditions are appended only for set filter fields.
func (r *ReservationRepo) ListByFilter(ctx context.Context, f ReservationFilter) ([]ReservationDetail, error) {
	var conds []string
	var args []interface{}
	if f.MemberID != 0 {
		conds = append(conds, "r.member_id = ?")
		args = append(args, f.MemberID)
	}
	if f.ThemeID != 0 {
		conds = append(conds, "r.theme_id = ?")
		args = append(args, f.ThemeID)
	}
	if !f.DateFrom.IsZero() {
		conds = append(conds, "r.date >= ?")
		args = append(args, f.DateFrom.UTC().Format(time.DateOnly))
	}
	if !f.DateTo.IsZero() {
		conds = append(conds, "r.date <= ?")
		args = append(args, f.DateTo.UTC().Format(time.DateOnly))
	}
	q := detailSelect
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY r.date, t.start_at, r.id`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDetails(rows)
}

// ListByMember returns the member's reservations with reference
// details, newest date first.
func (r *ReservationRepo) ListByMember(ctx context.Context, memberID uint64) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		detailSelect+` WHERE r.member_id = ? ORDER BY r.date DESC, t.start_at, r.id`, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDetails(rows)
}

func scanDetails(rows *sql.Rows) ([]ReservationDetail, error) {
	details := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		var date time.Time
		if err := rows.Scan(&d.ID, &d.MemberID, &d.MemberName, &date, &d.TimeID, &d.StartAt,
			&d.ThemeID, &d.ThemeName, &d.Status); err != nil {
			return nil, err
		}
		d.Date = date.UTC().Format(time.DateOnly)
		details = append(details, d)
	}
	return details, rows.Err()
}
