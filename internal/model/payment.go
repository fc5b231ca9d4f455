package model

import "time"

// Payment records the gateway approval charged for a reservation.
// Exactly one payment exists per paid reservation (1:1, owned by the
// reservation); both rows are deleted together on cancellation, and
// neither is deleted when a refund is rejected by the gateway.
//
// Fields:
//  ID            – primary key identifier.
//  ReservationID – owning reservation, unique.
//  PaymentKey    – gateway key used for refunds.
//  OrderID       – merchant order identifier sent on approval.
//  Amount        – charged amount in the smallest currency unit.
//  ApprovedAt    – approval timestamp reported by the gateway.
type Payment struct {
	ID            uint64    // payments.id
	ReservationID uint64    // payments.reservation_id
	PaymentKey    string    // payments.payment_key
	OrderID       string    // payments.order_id
	Amount        int64     // payments.amount
	ApprovedAt    time.Time // payments.approved_at
}
