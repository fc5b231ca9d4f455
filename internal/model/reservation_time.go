package model

import "time"

// ReservationTime defines one bookable time-of-day slot, e.g. "15:00".
// Times are shared reference data managed by admins; a reservation
// references exactly one of them.
//
// Fields:
//  ID        – primary key identifier.
//  StartAt   – time of day in "15:04" (or "15:04:05") form, as stored
//              in the TIME column.
//  CreatedAt – creation timestamp.
type ReservationTime struct {
	ID        uint64    // reservation_times.id
	StartAt   string    // reservation_times.start_at
	CreatedAt time.Time // reservation_times.created_at
}
