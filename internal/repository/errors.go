// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation service and handlers to distinguish between different
// failure scenarios with errors.Is instead of matching driver errors.
package repository

import "errors"

// Not-found sentinels, one per referenced entity so that callers can
// report exactly which lookup failed.
var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrTimeNotFound        = errors.New("reservation time not found")
	ErrThemeNotFound       = errors.New("theme not found")
	ErrReservationNotFound = errors.New("reservation not found")
	ErrWaitingNotFound     = errors.New("waiting not found")
	ErrPaymentNotFound     = errors.New("payment not found")
)

// ErrSlotTaken is returned when an insert collides with the unique key
// on (date, time_id, theme_id). The database constraint is the
// authoritative guard against two concurrent creates for the same
// slot; the service's pre-check is only an early exit.
var ErrSlotTaken = errors.New("slot already reserved")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete cannot be performed because of
// dependent records, such as removing a theme that still has
// reservations. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when member registration collides with an
// existing email address.
var ErrEmailExists = errors.New("email already exists")
