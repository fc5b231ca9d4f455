package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dkim-dev/roomescape-booking/internal/model"
)

// PaymentRepo manages the payment ledger: one row per paid
// reservation, keyed by reservation_id with a unique constraint so the
// 1:1 ownership cannot drift.
type PaymentRepo struct{ db *sql.DB }

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment record and populates its generated ID.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (reservation_id, payment_key, order_id, amount, approved_at)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		p.ReservationID, p.PaymentKey, p.OrderID, p.Amount, p.ApprovedAt.UTC())
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
	p.ID = uint64(id)
	return nil
}

// GetByReservation fetches the payment owned by a reservation,
// returning ErrPaymentNotFound when none was recorded.
func (r *PaymentRepo) GetByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	const q = `SELECT id, reservation_id, payment_key, order_id, amount, approved_at
	           FROM payments WHERE reservation_id = ? LIMIT 1`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(
		&p.ID, &p.ReservationID, &p.PaymentKey, &p.OrderID, &p.Amount, &p.ApprovedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteByReservation removes the payment owned by a reservation.
// Callers must only invoke this after the gateway accepted the refund.
func (r *PaymentRepo) DeleteByReservation(ctx context.Context, reservationID uint64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM payments WHERE reservation_id = ?`, reservationID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
