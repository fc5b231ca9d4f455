package service

import (
	"errors"

	"github.com/dkim-dev/roomescape-booking/internal/payment"
	"github.com/dkim-dev/roomescape-booking/internal/repository"
)

// Business-rule violations raised by the reservation lifecycle. Each
// rule keeps its own sentinel so tests and handlers can tell exactly
// which check fired; all of them are "invalid request" kinds as far as
// HTTP status mapping is concerned.
var (
	// ErrPastSlot rejects booking a slot that is not strictly in the future.
	ErrPastSlot = errors.New("reservation must be after the current time")
	// ErrSlotTaken rejects booking a slot that already has a live reservation.
	ErrSlotTaken = errors.New("theme already reserved for this date and time")
	// ErrPastCancel rejects cancelling a reservation whose slot has passed.
	ErrPastCancel = errors.New("past reservations cannot be cancelled")
	// ErrSameDayCancel rejects cancelling on the day of the reservation.
	ErrSameDayCancel = errors.New("same-day cancellation is not allowed")
	// ErrSlotFree rejects joining a waiting list for a slot nobody holds.
	ErrSlotFree = errors.New("slot is not reserved; book it directly")
	// ErrOwnReservation rejects waiting for a slot the member already holds.
	ErrOwnReservation = errors.New("cannot wait for your own reservation")
	// ErrAlreadyWaiting rejects a second waiting entry for the same slot.
	ErrAlreadyWaiting = errors.New("already waiting for this slot")
)

// IsInvalidRequest reports whether err is a business-rule violation
// (HTTP 400 class), as opposed to a missing entity or a gateway fault.
func IsInvalidRequest(err error) bool {
	for _, target := range []error{
		ErrPastSlot, ErrSlotTaken, ErrPastCancel, ErrSameDayCancel,
		ErrSlotFree, ErrOwnReservation, ErrAlreadyWaiting,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a missing-entity failure from any
// of the stores (HTTP 404 class).
func IsNotFound(err error) bool {
	for _, target := range []error{
		repository.ErrMemberNotFound, repository.ErrTimeNotFound,
		repository.ErrThemeNotFound, repository.ErrReservationNotFound,
		repository.ErrWaitingNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsPaymentError reports whether err came from the payment gateway.
func IsPaymentError(err error) bool {
	var pe *payment.Error
	return errors.As(err, &pe)
}
