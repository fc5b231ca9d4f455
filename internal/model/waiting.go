package model

import "time"

// Waiting is a member's place in the queue for an already-taken slot.
// Entries are strictly FIFO by CreatedAt; when two entries share a
// timestamp the lower id (insertion order) wins, so promotion is
// deterministic.  A waiting references the desired slot, not the live
// reservation row occupying it.
//
// Fields:
//  ID        – primary key identifier.
//  MemberID  – member queued for the slot.
//  Date      – calendar date of the desired slot.
//  TimeID    – referenced reservation time.
//  ThemeID   – referenced theme.
//  CreatedAt – queue position timestamp.
type Waiting struct {
	ID        uint64    // waitings.id
	MemberID  uint64    // waitings.member_id
	Date      time.Time // waitings.date
	TimeID    uint64    // waitings.time_id
	ThemeID   uint64    // waitings.theme_id
	CreatedAt time.Time // waitings.created_at
}

// Slot returns the slot this waiting is queued against.
func (w *Waiting) Slot() Slot {
	return Slot{Date: w.Date, TimeID: w.TimeID, ThemeID: w.ThemeID}
}
