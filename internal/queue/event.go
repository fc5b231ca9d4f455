// Package queue defines message payloads exchanged over the message
// broker and the publisher/consumer that move them.
package queue

// ReservationConfirmedEvent is published when a reservation is created
// and its payment approved. It carries enough information for
// downstream consumers to log or notify without querying the primary
// database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	MemberID      uint64 `json:"member_id"`
	MemberName    string `json:"member_name"`
	Date          string `json:"date"`
	StartAt       string `json:"start_at"`
	ThemeName     string `json:"theme_name"`
	Amount        int64  `json:"amount"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// ReservationCancelledEvent is published after a cancellation
// completes. Refunded reports whether a gateway refund was issued;
// PromotedMemberID is non-zero when a waiting member took over the
// slot.
type ReservationCancelledEvent struct {
	ReservationID    uint64 `json:"reservation_id"`
	MemberID         uint64 `json:"member_id"`
	Date             string `json:"date"`
	StartAt          string `json:"start_at"`
	ThemeName        string `json:"theme_name"`
	Refunded         bool   `json:"refunded"`
	PromotedMemberID uint64 `json:"promoted_member_id,omitempty"`
	CancelledAt      string `json:"cancelled_at"`
}
