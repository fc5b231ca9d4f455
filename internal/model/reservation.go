package model

import "time"

// ReservationStatus is the explicit state of a reservation's payment
// lifecycle.  A reservation is inserted as PAYMENT_PENDING, becomes
// PAID once the gateway approves the charge, and goes back to
// PAYMENT_PENDING when a waiting member is promoted into the slot
// (the new owner has not paid yet).
type ReservationStatus string

const (
	StatusPaymentPending ReservationStatus = "PAYMENT_PENDING"
	StatusPaid           ReservationStatus = "PAID"
)

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	return s == StatusPaymentPending || s == StatusPaid
}

// Slot is the (date, time, theme) triple that uniquely identifies a
// bookable occurrence.  At most one live reservation may exist per
// slot; waitings queue against a slot, not against a reservation row.
type Slot struct {
	Date    time.Time // calendar date of the slot, midnight UTC
	TimeID  uint64    // reservation_times.id
	ThemeID uint64    // themes.id
}

// Reservation is a member's booking of a slot.  The triple
// (Date, TimeID, ThemeID) is unique across all live reservations;
// the reservations table enforces it with a unique key and the
// store maps duplicate-key failures to ErrSlotTaken.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – owning member (non-owning reference).
//  Date      – calendar date of the slot.
//  TimeID    – referenced reservation time.
//  ThemeID   – referenced theme.
//  Status    – PAYMENT_PENDING or PAID.
//  CreatedAt – creation timestamp.
type Reservation struct {
	ID        uint64            // reservations.id
	MemberID  uint64            // reservations.member_id
	Date      time.Time         // reservations.date
	TimeID    uint64            // reservations.time_id
	ThemeID   uint64            // reservations.theme_id
	Status    ReservationStatus // reservations.status
	CreatedAt time.Time         // reservations.created_at
}

// Slot returns the slot this reservation occupies.
func (r *Reservation) Slot() Slot {
	return Slot{Date: r.Date, TimeID: r.TimeID, ThemeID: r.ThemeID}
}

// IsPaid reports whether the reservation carries an approved payment.
func (r *Reservation) IsPaid() bool { return r.Status == StatusPaid }

// IsPaymentPending reports whether no payment has been charged for the
// reservation.  Pending reservations are deleted on cancellation
// without any gateway call.
func (r *Reservation) IsPaymentPending() bool { return r.Status == StatusPaymentPending }
