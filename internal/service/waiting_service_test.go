package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkim-dev/roomescape-booking/internal/model"
	"github.com/dkim-dev/roomescape-booking/internal/repository"
)

type waitingFixture struct {
	svc          *WaitingService
	reservations *reservationStoreMock
	waitings     *waitingStoreMock
}

// newWaitingFixture primes the fakes so that member 1 may join the
// queue for a slot currently held by member 5.
func newWaitingFixture(t *testing.T) *waitingFixture {
	t.Helper()
	f := &waitingFixture{
		reservations: &reservationStoreMock{
			getBySlot: func(_ context.Context, slot model.Slot) (*model.Reservation, error) {
				return &model.Reservation{ID: 31, MemberID: 5, Date: slot.Date, TimeID: slot.TimeID, ThemeID: slot.ThemeID}, nil
			},
		},
		waitings: &waitingStoreMock{
			existsBySlotAndMember: func(context.Context, model.Slot, uint64) (bool, error) {
				return false, nil
			},
			create: func(_ context.Context, w *model.Waiting) error {
				w.ID = 21
				return nil
			},
		},
	}
	members := &memberStoreMock{
		getByID: func(_ context.Context, id uint64) (*model.Member, error) {
			return &model.Member{ID: id, Name: "Ann"}, nil
		},
	}
	times := &timeStoreMock{
		getByID: func(context.Context, uint64) (*model.ReservationTime, error) {
			return testTime, nil
		},
	}
	themes := &themeStoreMock{
		getByID: func(context.Context, uint64) (*model.Theme, error) {
			return testTheme, nil
		},
	}
	f.svc = NewWaitingService(f.reservations, f.waitings, members, times, themes)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func joinReq() JoinWaitingRequest {
	return JoinWaitingRequest{Date: futureDate, TimeID: testTime.ID, ThemeID: testTheme.ID}
}

func TestJoinQueuesForTakenSlot(t *testing.T) {
	f := newWaitingFixture(t)

	w, err := f.svc.Join(context.Background(), 1, joinReq())
	require.NoError(t, err)
	assert.Equal(t, uint64(21), w.ID)
	assert.Equal(t, uint64(1), w.MemberID)
	assert.Equal(t, futureDate, w.Date)
}

func TestJoinRejectsPastSlot(t *testing.T) {
	f := newWaitingFixture(t)
	req := joinReq()
	req.Date = testNow.AddDate(0, 0, -1)

	_, err := f.svc.Join(context.Background(), 1, req)
	assert.ErrorIs(t, err, ErrPastSlot)
}

func TestJoinRejectsFreeSlot(t *testing.T) {
	f := newWaitingFixture(t)
	f.reservations.getBySlot = func(context.Context, model.Slot) (*model.Reservation, error) {
		return nil, repository.ErrReservationNotFound
	}

	_, err := f.svc.Join(context.Background(), 1, joinReq())
	assert.ErrorIs(t, err, ErrSlotFree)
}

func TestJoinRejectsOwnReservation(t *testing.T) {
	f := newWaitingFixture(t)

	_, err := f.svc.Join(context.Background(), 5, joinReq())
	assert.ErrorIs(t, err, ErrOwnReservation)
}

func TestJoinRejectsDoubleQueueing(t *testing.T) {
	f := newWaitingFixture(t)
	f.waitings.existsBySlotAndMember = func(context.Context, model.Slot, uint64) (bool, error) {
		return true, nil
	}

	_, err := f.svc.Join(context.Background(), 1, joinReq())
	assert.ErrorIs(t, err, ErrAlreadyWaiting)
}

func TestJoinMapsInsertRaceToAlreadyWaiting(t *testing.T) {
	// The exists pre-check passed but the unique key caught a
	// concurrent join.
	f := newWaitingFixture(t)
	f.waitings.create = func(context.Context, *model.Waiting) error {
		return repository.ErrConflict
	}

	_, err := f.svc.Join(context.Background(), 1, joinReq())
	assert.ErrorIs(t, err, ErrAlreadyWaiting)
}

func TestLeaveDeletesOwnEntry(t *testing.T) {
	f := newWaitingFixture(t)
	f.waitings.getByID = func(context.Context, uint64) (*model.Waiting, error) {
		return &model.Waiting{ID: 21, MemberID: 1}, nil
	}
	var deleted uint64
	f.waitings.delete = func(_ context.Context, id uint64) error {
		deleted = id
		return nil
	}

	require.NoError(t, f.svc.Leave(context.Background(), 1, 21))
	assert.Equal(t, uint64(21), deleted)
}

func TestLeaveRejectsForeignEntry(t *testing.T) {
	f := newWaitingFixture(t)
	f.waitings.getByID = func(context.Context, uint64) (*model.Waiting, error) {
		return &model.Waiting{ID: 21, MemberID: 8}, nil
	}
	f.waitings.delete = func(context.Context, uint64) error {
		t.Fatal("foreign entries must not be deleted")
		return nil
	}

	err := f.svc.Leave(context.Background(), 1, 21)
	assert.ErrorIs(t, err, repository.ErrForbidden)
}
