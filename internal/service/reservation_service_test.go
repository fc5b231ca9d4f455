package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkim-dev/roomescape-booking/internal/model"
	"github.com/dkim-dev/roomescape-booking/internal/payment"
	"github.com/dkim-dev/roomescape-booking/internal/queue"
	"github.com/dkim-dev/roomescape-booking/internal/repository"
)

// ----- function-field fakes -----

type memberStoreMock struct {
	getByID func(ctx context.Context, id uint64) (*model.Member, error)
}

func (m *memberStoreMock) GetByID(ctx context.Context, id uint64) (*model.Member, error) {
	return m.getByID(ctx, id)
}

type timeStoreMock struct {
	getByID func(ctx context.Context, id uint64) (*model.ReservationTime, error)
}

func (m *timeStoreMock) GetByID(ctx context.Context, id uint64) (*model.ReservationTime, error) {
	return m.getByID(ctx, id)
}

type themeStoreMock struct {
	getByID func(ctx context.Context, id uint64) (*model.Theme, error)
}

func (m *themeStoreMock) GetByID(ctx context.Context, id uint64) (*model.Theme, error) {
	return m.getByID(ctx, id)
}

type reservationStoreMock struct {
	create         func(ctx context.Context, r *model.Reservation) error
	getByID        func(ctx context.Context, id uint64) (*model.Reservation, error)
	getBySlot      func(ctx context.Context, slot model.Slot) (*model.Reservation, error)
	existsBySlot   func(ctx context.Context, slot model.Slot) (bool, error)
	delete         func(ctx context.Context, id uint64) error
	updateStatus   func(ctx context.Context, id uint64, status model.ReservationStatus) error
	promoteWaiting func(ctx context.Context, id uint64, w *model.Waiting) error
	listAll        func(ctx context.Context) ([]repository.ReservationDetail, error)
	listByFilter   func(ctx context.Context, f repository.ReservationFilter) ([]repository.ReservationDetail, error)
	listByMember   func(ctx context.Context, memberID uint64) ([]repository.ReservationDetail, error)
}

func (m *reservationStoreMock) Create(ctx context.Context, r *model.Reservation) error {
	return m.create(ctx, r)
}
func (m *reservationStoreMock) GetByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	return m.getByID(ctx, id)
}
func (m *reservationStoreMock) GetBySlot(ctx context.Context, slot model.Slot) (*model.Reservation, error) {
	return m.getBySlot(ctx, slot)
}
func (m *reservationStoreMock) ExistsBySlot(ctx context.Context, slot model.Slot) (bool, error) {
	return m.existsBySlot(ctx, slot)
}
func (m *reservationStoreMock) Delete(ctx context.Context, id uint64) error {
	return m.delete(ctx, id)
}
func (m *reservationStoreMock) UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error {
	return m.updateStatus(ctx, id, status)
}
func (m *reservationStoreMock) PromoteWaiting(ctx context.Context, id uint64, w *model.Waiting) error {
	return m.promoteWaiting(ctx, id, w)
}
func (m *reservationStoreMock) ListAll(ctx context.Context) ([]repository.ReservationDetail, error) {
	return m.listAll(ctx)
}
func (m *reservationStoreMock) ListByFilter(ctx context.Context, f repository.ReservationFilter) ([]repository.ReservationDetail, error) {
	return m.listByFilter(ctx, f)
}
func (m *reservationStoreMock) ListByMember(ctx context.Context, memberID uint64) ([]repository.ReservationDetail, error) {
	return m.listByMember(ctx, memberID)
}

type waitingStoreMock struct {
	create                func(ctx context.Context, w *model.Waiting) error
	getByID               func(ctx context.Context, id uint64) (*model.Waiting, error)
	firstBySlot           func(ctx context.Context, slot model.Slot) (*model.Waiting, error)
	existsBySlotAndMember func(ctx context.Context, slot model.Slot, memberID uint64) (bool, error)
	delete                func(ctx context.Context, id uint64) error
	listByMember          func(ctx context.Context, memberID uint64) ([]repository.WaitingDetail, error)
}

func (m *waitingStoreMock) Create(ctx context.Context, w *model.Waiting) error {
	return m.create(ctx, w)
}
func (m *waitingStoreMock) GetByID(ctx context.Context, id uint64) (*model.Waiting, error) {
	return m.getByID(ctx, id)
}
func (m *waitingStoreMock) FirstBySlot(ctx context.Context, slot model.Slot) (*model.Waiting, error) {
	return m.firstBySlot(ctx, slot)
}
func (m *waitingStoreMock) ExistsBySlotAndMember(ctx context.Context, slot model.Slot, memberID uint64) (bool, error) {
	return m.existsBySlotAndMember(ctx, slot, memberID)
}
func (m *waitingStoreMock) Delete(ctx context.Context, id uint64) error {
	return m.delete(ctx, id)
}
func (m *waitingStoreMock) ListByMember(ctx context.Context, memberID uint64) ([]repository.WaitingDetail, error) {
	return m.listByMember(ctx, memberID)
}

type paymentStoreMock struct {
	create              func(ctx context.Context, p *model.Payment) error
	getByReservation    func(ctx context.Context, reservationID uint64) (*model.Payment, error)
	deleteByReservation func(ctx context.Context, reservationID uint64) error
}

func (m *paymentStoreMock) Create(ctx context.Context, p *model.Payment) error {
	return m.create(ctx, p)
}
func (m *paymentStoreMock) GetByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error) {
	return m.getByReservation(ctx, reservationID)
}
func (m *paymentStoreMock) DeleteByReservation(ctx context.Context, reservationID uint64) error {
	return m.deleteByReservation(ctx, reservationID)
}

type gatewayMock struct {
	approveCalls int
	cancelCalls  int
	cancelledKey string
	approve      func(ctx context.Context, req payment.ApproveRequest) (*payment.Approval, error)
	cancel       func(ctx context.Context, paymentKey string) error
}

func (m *gatewayMock) Approve(ctx context.Context, req payment.ApproveRequest) (*payment.Approval, error) {
	m.approveCalls++
	return m.approve(ctx, req)
}
func (m *gatewayMock) Cancel(ctx context.Context, paymentKey string) error {
	m.cancelCalls++
	m.cancelledKey = paymentKey
	if m.cancel != nil {
		return m.cancel(ctx, paymentKey)
	}
	return nil
}

type eventsMock struct {
	confirmed []queue.ReservationConfirmedEvent
	cancelled []queue.ReservationCancelledEvent
}

func (m *eventsMock) ReservationConfirmed(_ context.Context, ev queue.ReservationConfirmedEvent) error {
	m.confirmed = append(m.confirmed, ev)
	return nil
}
func (m *eventsMock) ReservationCancelled(_ context.Context, ev queue.ReservationCancelledEvent) error {
	m.cancelled = append(m.cancelled, ev)
	return nil
}

// ----- fixture -----

// Every test runs against a pinned clock.
var testNow = time.Date(2025, 5, 10, 10, 0, 0, 0, time.UTC)

var (
	testMember = &model.Member{ID: 1, Name: "Ann", Email: "ann@example.com", Role: model.RoleMember}
	testTime   = &model.ReservationTime{ID: 2, StartAt: "15:00"}
	testTheme  = &model.Theme{ID: 3, Name: "Vault", Description: "crack the vault"}
	futureDate = time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	svc          *ReservationService
	reservations *reservationStoreMock
	waitings     *waitingStoreMock
	payments     *paymentStoreMock
	gateway      *gatewayMock
	events       *eventsMock
}

// newFixture wires a service whose fakes are primed for the happy
// path; individual tests override the fields they care about.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		reservations: &reservationStoreMock{
			create: func(_ context.Context, r *model.Reservation) error {
				r.ID = 11
				return nil
			},
			existsBySlot: func(context.Context, model.Slot) (bool, error) { return false, nil },
			updateStatus: func(context.Context, uint64, model.ReservationStatus) error { return nil },
			delete:       func(context.Context, uint64) error { return nil },
		},
		waitings: &waitingStoreMock{
			firstBySlot: func(context.Context, model.Slot) (*model.Waiting, error) {
				return nil, repository.ErrWaitingNotFound
			},
		},
		payments: &paymentStoreMock{
			create: func(context.Context, *model.Payment) error { return nil },
		},
		gateway: &gatewayMock{
			approve: func(_ context.Context, req payment.ApproveRequest) (*payment.Approval, error) {
				return &payment.Approval{
					PaymentKey: req.PaymentKey,
					OrderID:    req.OrderID,
					Amount:     req.Amount,
					ApprovedAt: testNow,
				}, nil
			},
		},
		events: &eventsMock{},
	}
	members := &memberStoreMock{
		getByID: func(_ context.Context, id uint64) (*model.Member, error) {
			if id != testMember.ID {
				return nil, repository.ErrMemberNotFound
			}
			return testMember, nil
		},
	}
	times := &timeStoreMock{
		getByID: func(_ context.Context, id uint64) (*model.ReservationTime, error) {
			if id != testTime.ID {
				return nil, repository.ErrTimeNotFound
			}
			return testTime, nil
		},
	}
	themes := &themeStoreMock{
		getByID: func(_ context.Context, id uint64) (*model.Theme, error) {
			if id != testTheme.ID {
				return nil, repository.ErrThemeNotFound
			}
			return testTheme, nil
		},
	}
	f.svc = NewReservationService(
		f.reservations, f.waitings, f.payments, members, times, themes, f.gateway, f.events)
	f.svc.now = func() time.Time { return testNow }
	return f
}

func createReq() CreateRequest {
	return CreateRequest{
		Date:       futureDate,
		TimeID:     testTime.ID,
		ThemeID:    testTheme.ID,
		PaymentKey: "pay-key-1",
		OrderID:    "order-1",
		Amount:     30000,
	}
}

// ----- create -----

func TestCreateBooksAndCharges(t *testing.T) {
	f := newFixture(t)

	var inserted *model.Reservation
	f.reservations.create = func(_ context.Context, r *model.Reservation) error {
		r.ID = 11
		inserted = r
		return nil
	}
	var recorded *model.Payment
	f.payments.create = func(_ context.Context, p *model.Payment) error {
		recorded = p
		return nil
	}
	var statusSet model.ReservationStatus
	f.reservations.updateStatus = func(_ context.Context, id uint64, s model.ReservationStatus) error {
		require.Equal(t, uint64(11), id)
		statusSet = s
		return nil
	}

	detail, err := f.svc.Create(context.Background(), testMember.ID, createReq())
	require.NoError(t, err)

	require.NotNil(t, inserted)
	assert.Equal(t, model.StatusPaymentPending, inserted.Status, "row is inserted before the charge")
	assert.Equal(t, 1, f.gateway.approveCalls)
	require.NotNil(t, recorded)
	assert.Equal(t, uint64(11), recorded.ReservationID)
	assert.Equal(t, "pay-key-1", recorded.PaymentKey)
	assert.Equal(t, int64(30000), recorded.Amount)
	assert.Equal(t, model.StatusPaid, statusSet)

	assert.Equal(t, uint64(11), detail.ID)
	assert.Equal(t, "Ann", detail.MemberName)
	assert.Equal(t, "Vault", detail.ThemeName)
	assert.Equal(t, "2025-05-20", detail.Date)
	assert.Equal(t, string(model.StatusPaid), detail.Status)

	require.Len(t, f.events.confirmed, 1)
	assert.Equal(t, uint64(11), f.events.confirmed[0].ReservationID)
	assert.Equal(t, int64(30000), f.events.confirmed[0].Amount)
}

func TestCreateRejectsPastDate(t *testing.T) {
	f := newFixture(t)
	f.reservations.create = func(context.Context, *model.Reservation) error {
		t.Fatal("create must not be reached")
		return nil
	}

	req := createReq()
	req.Date = testNow.AddDate(0, 0, -1)
	_, err := f.svc.Create(context.Background(), testMember.ID, req)
	assert.ErrorIs(t, err, ErrPastSlot)
	assert.Zero(t, f.gateway.approveCalls)
}

func TestCreateRejectsSameDayEarlierOrEqualTime(t *testing.T) {
	for _, startAt := range []string{"09:00", "10:00"} {
		f := newFixture(t)
		f.svc.times = &timeStoreMock{
			getByID: func(context.Context, uint64) (*model.ReservationTime, error) {
				return &model.ReservationTime{ID: testTime.ID, StartAt: startAt}, nil
			},
		}
		req := createReq()
		req.Date = testNow
		_, err := f.svc.Create(context.Background(), testMember.ID, req)
		assert.ErrorIs(t, err, ErrPastSlot, "start_at %s with now 10:00", startAt)
	}
}

func TestCreateRejectsTakenSlot(t *testing.T) {
	f := newFixture(t)
	f.reservations.existsBySlot = func(context.Context, model.Slot) (bool, error) { return true, nil }

	_, err := f.svc.Create(context.Background(), testMember.ID, createReq())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Zero(t, f.gateway.approveCalls)
}

func TestCreateMapsDuplicateKeyRace(t *testing.T) {
	// The pre-check saw the slot free but the insert lost the race on
	// the unique key.
	f := newFixture(t)
	f.reservations.create = func(context.Context, *model.Reservation) error {
		return repository.ErrSlotTaken
	}

	_, err := f.svc.Create(context.Background(), testMember.ID, createReq())
	assert.ErrorIs(t, err, ErrSlotTaken)
	assert.Zero(t, f.gateway.approveCalls)
}

func TestCreateDeletesRowWhenPaymentFails(t *testing.T) {
	f := newFixture(t)
	gwErr := &payment.Error{Code: "REJECT_CARD", Message: "card declined"}
	f.gateway.approve = func(context.Context, payment.ApproveRequest) (*payment.Approval, error) {
		return nil, gwErr
	}
	var deleted uint64
	f.reservations.delete = func(_ context.Context, id uint64) error {
		deleted = id
		return nil
	}
	f.payments.create = func(context.Context, *model.Payment) error {
		t.Fatal("payment row must not be written")
		return nil
	}

	_, err := f.svc.Create(context.Background(), testMember.ID, createReq())
	require.Error(t, err)
	assert.True(t, IsPaymentError(err))
	assert.ErrorIs(t, err, gwErr, "gateway error passes through unchanged")
	assert.Equal(t, uint64(11), deleted, "inserted row is compensated away")
	assert.Empty(t, f.events.confirmed)
}

func TestCreateUnknownMember(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), 99, createReq())
	assert.ErrorIs(t, err, repository.ErrMemberNotFound)
}

func TestCreateAdminSkipsPayment(t *testing.T) {
	f := newFixture(t)
	f.reservations.updateStatus = func(context.Context, uint64, model.ReservationStatus) error {
		t.Fatal("status must stay PAYMENT_PENDING")
		return nil
	}

	detail, err := f.svc.CreateAdmin(context.Background(), AdminCreateRequest{
		MemberID: testMember.ID,
		Date:     futureDate,
		TimeID:   testTime.ID,
		ThemeID:  testTheme.ID,
	})
	require.NoError(t, err)
	assert.Zero(t, f.gateway.approveCalls)
	assert.Equal(t, string(model.StatusPaymentPending), detail.Status)
	assert.Empty(t, f.events.confirmed)
}

// ----- cancel -----

func paidReservation() *model.Reservation {
	return &model.Reservation{
		ID:       11,
		MemberID: testMember.ID,
		Date:     futureDate,
		TimeID:   testTime.ID,
		ThemeID:  testTheme.ID,
		Status:   model.StatusPaid,
	}
}

func withReservation(f *fixture, res *model.Reservation) {
	f.reservations.getByID = func(_ context.Context, id uint64) (*model.Reservation, error) {
		if id != res.ID {
			return nil, repository.ErrReservationNotFound
		}
		return res, nil
	}
}

func TestCancelRejectsPastReservation(t *testing.T) {
	f := newFixture(t)
	res := paidReservation()
	res.Date = testNow.AddDate(0, 0, -3)
	withReservation(f, res)

	err := f.svc.Cancel(context.Background(), res.ID)
	assert.ErrorIs(t, err, ErrPastCancel)
	assert.Zero(t, f.gateway.cancelCalls)
}

func TestCancelRejectsSameDay(t *testing.T) {
	f := newFixture(t)
	res := paidReservation()
	res.Date = testNow // slot at 15:00, still ahead of the 10:00 clock
	withReservation(f, res)

	err := f.svc.Cancel(context.Background(), res.ID)
	assert.ErrorIs(t, err, ErrSameDayCancel)
	assert.Zero(t, f.gateway.cancelCalls)
}

func TestCancelPendingSkipsGateway(t *testing.T) {
	f := newFixture(t)
	res := paidReservation()
	res.Status = model.StatusPaymentPending
	withReservation(f, res)
	f.payments.getByReservation = func(context.Context, uint64) (*model.Payment, error) {
		t.Fatal("pending reservations have no payment to look up")
		return nil, nil
	}
	var deleted uint64
	f.reservations.delete = func(_ context.Context, id uint64) error {
		deleted = id
		return nil
	}

	require.NoError(t, f.svc.Cancel(context.Background(), res.ID))
	assert.Zero(t, f.gateway.cancelCalls)
	assert.Equal(t, uint64(11), deleted)
	require.Len(t, f.events.cancelled, 1)
	assert.False(t, f.events.cancelled[0].Refunded)
}

func TestCancelPaidRefundsExactlyOnce(t *testing.T) {
	f := newFixture(t)
	res := paidReservation()
	withReservation(f, res)
	f.payments.getByReservation = func(context.Context, uint64) (*model.Payment, error) {
		return &model.Payment{ID: 5, ReservationID: 11, PaymentKey: "pay-key-1", Amount: 30000}, nil
	}
	var ledgerDeleted, rowDeleted uint64
	f.payments.deleteByReservation = func(_ context.Context, id uint64) error {
		ledgerDeleted = id
		return nil
	}
	f.reservations.delete = func(_ context.Context, id uint64) error {
		rowDeleted = id
		return nil
	}

	require.NoError(t, f.svc.Cancel(context.Background(), res.ID))
	assert.Equal(t, 1, f.gateway.cancelCalls)
	assert.Equal(t, "pay-key-1", f.gateway.cancelledKey)
	assert.Equal(t, uint64(11), ledgerDeleted)
	assert.Equal(t, uint64(11), rowDeleted)
	require.Len(t, f.events.cancelled, 1)
	assert.True(t, f.events.cancelled[0].Refunded)
}

func TestCancelPromotesEarliestWaiter(t *testing.T) {
	f := newFixture(t)
	res := paidReservation()
	withReservation(f, res)
	waiter := &model.Waiting{ID: 21, MemberID: 7, Date: res.Date, TimeID: res.TimeID, ThemeID: res.ThemeID}
	f.waitings.firstBySlot = func(_ context.Context, slot model.Slot) (*model.Waiting, error) {
		assert.Equal(t, res.Slot(), slot)
		return waiter, nil
	}
	f.payments.getByReservation = func(context.Context, uint64) (*model.Payment, error) {
		return &model.Payment{ID: 5, ReservationID: 11, PaymentKey: "pay-key-1"}, nil
	}
	f.payments.deleteByReservation = func(context.Context, uint64) error { return nil }
	var promotedID uint64
	var promotedWaiter *model.Waiting
	f.reservations.promoteWaiting = func(_ context.Context, id uint64, w *model.Waiting) error {
		promotedID = id
		promotedWaiter = w
		return nil
	}
	f.reservations.delete = func(context.Context, uint64) error {
		t.Fatal("promotion must rewrite the row, not delete it")
		return nil
	}

	require.NoError(t, f.svc.Cancel(context.Background(), res.ID))
	assert.Equal(t, 1, f.gateway.cancelCalls, "old owner is refunded")
	assert.Equal(t, uint64(11), promotedID)
	require.NotNil(t, promotedWaiter)
	assert.Equal(t, uint64(7), promotedWaiter.MemberID)
	require.Len(t, f.events.cancelled, 1)
	assert.Equal(t, uint64(7), f.events.cancelled[0].PromotedMemberID)
}

func TestCancelRefundFailureLeavesEverything(t *testing.T) {
	f := newFixture(t)
	res := paidReservation()
	withReservation(f, res)
	waiter := &model.Waiting{ID: 21, MemberID: 7}
	f.waitings.firstBySlot = func(context.Context, model.Slot) (*model.Waiting, error) {
		return waiter, nil
	}
	f.payments.getByReservation = func(context.Context, uint64) (*model.Payment, error) {
		return &model.Payment{ID: 5, ReservationID: 11, PaymentKey: "pay-key-1"}, nil
	}
	gwErr := &payment.Error{Code: "REFUND_BLOCKED", Message: "refund window closed"}
	f.gateway.cancel = func(context.Context, string) error { return gwErr }
	f.payments.deleteByReservation = func(context.Context, uint64) error {
		t.Fatal("ledger row must survive a failed refund")
		return nil
	}
	f.reservations.promoteWaiting = func(context.Context, uint64, *model.Waiting) error {
		t.Fatal("promotion must not run after a failed refund")
		return nil
	}

	err := f.svc.Cancel(context.Background(), res.ID)
	assert.ErrorIs(t, err, gwErr)
	assert.Empty(t, f.events.cancelled)
}

func TestCancelForRejectsForeignReservation(t *testing.T) {
	f := newFixture(t)
	res := paidReservation()
	withReservation(f, res)

	err := f.svc.CancelFor(context.Background(), 99, res.ID)
	assert.ErrorIs(t, err, repository.ErrForbidden)
	assert.Zero(t, f.gateway.cancelCalls)
}

func TestCancelForOwnerRuns(t *testing.T) {
	f := newFixture(t)
	res := paidReservation()
	res.Status = model.StatusPaymentPending
	withReservation(f, res)

	require.NoError(t, f.svc.CancelFor(context.Background(), testMember.ID, res.ID))
	require.Len(t, f.events.cancelled, 1)
}

// ----- listings -----

func TestListMineCombinesReservationsAndWaitings(t *testing.T) {
	f := newFixture(t)
	f.reservations.listByMember = func(_ context.Context, memberID uint64) ([]repository.ReservationDetail, error) {
		require.Equal(t, testMember.ID, memberID)
		return []repository.ReservationDetail{{ID: 11, MemberID: memberID}}, nil
	}
	f.waitings.listByMember = func(_ context.Context, memberID uint64) ([]repository.WaitingDetail, error) {
		return []repository.WaitingDetail{{ID: 21, Rank: 2}}, nil
	}

	out, err := f.svc.ListMine(context.Background(), testMember.ID)
	require.NoError(t, err)
	assert.Len(t, out.Reservations, 1)
	require.Len(t, out.Waitings, 1)
	assert.Equal(t, 2, out.Waitings[0].Rank)
}
