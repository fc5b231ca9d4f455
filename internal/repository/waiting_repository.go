package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dkim-dev/roomescape-booking/internal/model"
)

// WaitingRepo manages persistence for waiting-list entries. The
// (date, time_id, theme_id, created_at, id) index keeps FirstBySlot an
// ordered lookup rather than a table scan.
type WaitingRepo struct{ db *sql.DB }

// NewWaitingRepo returns a new WaitingRepo bound to the given database.
func NewWaitingRepo(db *sql.DB) *WaitingRepo { return &WaitingRepo{db: db} }

// Create inserts a waiting entry and populates its generated ID and
// CreatedAt. A member may hold at most one entry per slot; the unique
// key over (date, time_id, theme_id, member_id) maps to ErrConflict.
func (r *WaitingRepo) Create(ctx context.Context, w *model.Waiting) error {
	const q = `INSERT INTO waitings (member_id, date, time_id, theme_id) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		w.MemberID, w.Date.UTC().Format(time.DateOnly), w.TimeID, w.ThemeID)
	if err != nil {
		if isDuplicateKey(err) {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	w.ID = uint64(id)
	const sel = `SELECT created_at FROM waitings WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, w.ID).Scan(&w.CreatedAt)
}

// GetByID fetches a waiting entry by id, returning ErrWaitingNotFound
// when no row exists.
func (r *WaitingRepo) GetByID(ctx context.Context, id uint64) (*model.Waiting, error) {
	const q = `SELECT id, member_id, date, time_id, theme_id, created_at FROM waitings WHERE id = ?`
	var w model.Waiting
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&w.ID, &w.MemberID, &w.Date, &w.TimeID, &w.ThemeID, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWaitingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// FirstBySlot returns the earliest waiting entry for a slot, FIFO by
// created_at with id as the deterministic tie-break. It returns
// ErrWaitingNotFound when nobody is queued.
func (r *WaitingRepo) FirstBySlot(ctx context.Context, slot model.Slot) (*model.Waiting, error) {
	const q = `SELECT id, member_id, date, time_id, theme_id, created_at
	           FROM waitings WHERE date = ? AND time_id = ? AND theme_id = ?
	           ORDER BY created_at ASC, id ASC LIMIT 1`
	var w model.Waiting
	err := r.db.QueryRowContext(ctx, q,
		slot.Date.UTC().Format(time.DateOnly), slot.TimeID, slot.ThemeID).Scan(
		&w.ID, &w.MemberID, &w.Date, &w.TimeID, &w.ThemeID, &w.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrWaitingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ExistsBySlotAndMember reports whether the member already queues for
// the slot.
func (r *WaitingRepo) ExistsBySlotAndMember(ctx context.Context, slot model.Slot, memberID uint64) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM waitings WHERE date = ? AND time_id = ? AND theme_id = ? AND member_id = ?)`
	var exists bool
	err := r.db.QueryRowContext(ctx, q,
		slot.Date.UTC().Format(time.DateOnly), slot.TimeID, slot.ThemeID, memberID).Scan(&exists)
	return exists, err
}

// Delete removes a waiting entry, returning ErrWaitingNotFound when
// the row is already gone.
func (r *WaitingRepo) Delete(ctx context.Context, id uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM waitings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWaitingNotFound
	}
	return nil
}

// WaitingDetail is a waiting entry joined with its reference data and
// queue rank (1 = next to be promoted) for the my-reservations view.
type WaitingDetail struct {
	ID        uint64 `json:"id"`
	Date      string `json:"date"`
	TimeID    uint64 `json:"time_id"`
	StartAt   string `json:"start_at"`
	ThemeID   uint64 `json:"theme_id"`
	ThemeName string `json:"theme_name"`
	Rank      int    `json:"rank"`
}

// ListByMember returns the member's waiting entries with their rank in
// each slot's queue, ordered by date then time.
func (r *WaitingRepo) ListByMember(ctx context.Context, memberID uint64) ([]WaitingDetail, error) {
	const q = `SELECT w.id, w.date, w.time_id, t.start_at, w.theme_id, th.name,
	                  (SELECT COUNT(*) FROM waitings w2
	                   WHERE w2.date = w.date AND w2.time_id = w.time_id AND w2.theme_id = w.theme_id
	                     AND (w2.created_at < w.created_at
	                          OR (w2.created_at = w.created_at AND w2.id <= w.id))) AS rank_in_queue
	           FROM waitings w
	           JOIN reservation_times t ON t.id = w.time_id
	           JOIN themes th ON th.id = w.theme_id
	           WHERE w.member_id = ?
	           ORDER BY w.date, t.start_at, w.id`
	rows, err := r.db.QueryContext(ctx, q, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := make([]WaitingDetail, 0)
	for rows.Next() {
		var d WaitingDetail
		var date time.Time
		if err := rows.Scan(&d.ID, &date, &d.TimeID, &d.StartAt, &d.ThemeID, &d.ThemeName, &d.Rank); err != nil {
			return nil, err
		}
		d.Date = date.UTC().Format(time.DateOnly)
		details = append(details, d)
	}
	return details, rows.Err()
}
