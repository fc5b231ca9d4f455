// Package payment wraps the external payment processor behind an
// approve/cancel contract. It holds no state of its own; the payment
// ledger rows are written by the reservation service after a gateway
// call succeeds.
package payment

import (
	"context"
	"fmt"
	"time"
)

// ApproveRequest carries the client-side payment reference fields the
// gateway needs to capture a charge.
type ApproveRequest struct {
	PaymentKey string `json:"paymentKey"`
	OrderID    string `json:"orderId"`
	Amount     int64  `json:"amount"`
}

// Approval is the gateway's record of a captured charge.
type Approval struct {
	PaymentKey string    `json:"paymentKey"`
	OrderID    string    `json:"orderId"`
	Amount     int64     `json:"totalAmount"`
	ApprovedAt time.Time `json:"approvedAt"`
}

// Gateway is the external payment processor. Approve captures a
// charge; Cancel refunds a previously approved one by its payment key.
// Both calls are blocking remote operations and respect ctx deadlines.
type Gateway interface {
	Approve(ctx context.Context, req ApproveRequest) (*Approval, error)
	Cancel(ctx context.Context, paymentKey string) error
}

// Error is a gateway rejection. It is a distinct kind from business
// validation failures so callers can tell "your request was invalid"
// from "the money moved and failed". Code carries the gateway's own
// error code when one was returned.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("payment gateway: %s", e.Message)
	}
	return fmt.Sprintf("payment gateway: %s (%s)", e.Message, e.Code)
}
