package service

import (
	"context"
	"errors"
	"time"

	"github.com/dkim-dev/roomescape-booking/internal/model"
	"github.com/dkim-dev/roomescape-booking/internal/repository"
)

// JoinWaitingRequest asks to queue for an already-taken slot.
type JoinWaitingRequest struct {
	Date    time.Time
	TimeID  uint64
	ThemeID uint64
}

// WaitingService manages the waiting list: members join the queue for
// a taken slot and may leave it again. Promotion out of the queue is
// driven by ReservationService.Cancel, not by this service.
type WaitingService struct {
	reservations ReservationStore
	waitings     WaitingStore
	members      MemberStore
	times        TimeStore
	themes       ThemeStore

	now func() time.Time
}

// NewWaitingService constructs the service.
func NewWaitingService(
	reservations ReservationStore,
	waitings WaitingStore,
	members MemberStore,
	times TimeStore,
	themes ThemeStore,
) *WaitingService {
	if reservations == nil || waitings == nil || members == nil || times == nil || themes == nil {
		panic("nil dependency passed to NewWaitingService")
	}
	return &WaitingService{
		reservations: reservations,
		waitings:     waitings,
		members:      members,
		times:        times,
		themes:       themes,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Join queues the member for the slot. The slot must be in the future
// and currently reserved by somebody else, and the member must not
// already be queued for it.
func (s *WaitingService) Join(ctx context.Context, memberID uint64, req JoinWaitingRequest) (*model.Waiting, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	t, err := s.times.GetByID(ctx, req.TimeID)
	if err != nil {
		return nil, err
	}
	theme, err := s.themes.GetByID(ctx, req.ThemeID)
	if err != nil {
		return nil, err
	}
	slot := model.Slot{Date: model.DateOnly(req.Date), TimeID: t.ID, ThemeID: theme.ID}
	if model.IsPastSlot(slot.Date, t.StartAt, s.now()) {
		return nil, ErrPastSlot
	}
	res, err := s.reservations.GetBySlot(ctx, slot)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrSlotFree
		}
		return nil, err
	}
	if res.MemberID == member.ID {
		return nil, ErrOwnReservation
	}
	queued, err := s.waitings.ExistsBySlotAndMember(ctx, slot, member.ID)
	if err != nil {
		return nil, err
	}
	if queued {
		return nil, ErrAlreadyWaiting
	}
	w := &model.Waiting{
		MemberID: member.ID,
		Date:     slot.Date,
		TimeID:   slot.TimeID,
		ThemeID:  slot.ThemeID,
	}
	if err := s.waitings.Create(ctx, w); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrAlreadyWaiting
		}
		return nil, err
	}
	return w, nil
}

// Leave removes the member's own waiting entry. Removing someone
// else's entry is forbidden.
func (s *WaitingService) Leave(ctx context.Context, memberID, waitingID uint64) error {
	w, err := s.waitings.GetByID(ctx, waitingID)
	if err != nil {
		return err
	}
	if w.MemberID != memberID {
		return repository.ErrForbidden
	}
	return s.waitings.Delete(ctx, w.ID)
}
