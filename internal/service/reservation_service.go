// Package service implements the reservation lifecycle: creating a
// reservation with an upfront payment, cancelling with refund, and
// promoting waiting members into freed slots. All stores and the
// payment gateway are injected so the sequencing rules can be tested
// without a database or a network.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dkim-dev/roomescape-booking/internal/model"
	"github.com/dkim-dev/roomescape-booking/internal/payment"
	"github.com/dkim-dev/roomescape-booking/internal/queue"
	"github.com/dkim-dev/roomescape-booking/internal/repository"
)

// EventPublisher receives reservation lifecycle events after the
// corresponding state change has been persisted. Publish failures are
// logged and swallowed; they never fail the booking operation.
type EventPublisher interface {
	ReservationConfirmed(ctx context.Context, ev queue.ReservationConfirmedEvent) error
	ReservationCancelled(ctx context.Context, ev queue.ReservationCancelledEvent) error
}

type noopPublisher struct{}

func (noopPublisher) ReservationConfirmed(context.Context, queue.ReservationConfirmedEvent) error {
	return nil
}
func (noopPublisher) ReservationCancelled(context.Context, queue.ReservationCancelledEvent) error {
	return nil
}

// CreateRequest carries everything needed to book a slot with payment.
// PaymentKey/OrderID/Amount are the client-side payment reference
// fields forwarded to the gateway's approve call.
type CreateRequest struct {
	Date       time.Time
	TimeID     uint64
	ThemeID    uint64
	PaymentKey string
	OrderID    string
	Amount     int64
}

// AdminCreateRequest books a slot on behalf of a member with no
// payment side effect.
type AdminCreateRequest struct {
	MemberID uint64
	Date     time.Time
	TimeID   uint64
	ThemeID  uint64
}

// MyReservations is the member-facing combined view of owned
// reservations and queued waitings.
type MyReservations struct {
	Reservations []repository.ReservationDetail `json:"reservations"`
	Waitings     []repository.WaitingDetail     `json:"waitings"`
}

// ReservationService orchestrates the reservation lifecycle across the
// stores and the payment gateway.
type ReservationService struct {
	reservations ReservationStore
	waitings     WaitingStore
	payments     PaymentStore
	members      MemberStore
	times        TimeStore
	themes       ThemeStore
	gateway      payment.Gateway
	events       EventPublisher

	// now is the clock used by every timing rule; tests pin it.
	now func() time.Time
}

// NewReservationService constructs the service. events may be nil, in
// which case lifecycle events are dropped.
func NewReservationService(
	reservations ReservationStore,
	waitings WaitingStore,
	payments PaymentStore,
	members MemberStore,
	times TimeStore,
	themes ThemeStore,
	gateway payment.Gateway,
	events EventPublisher,
) *ReservationService {
	if reservations == nil || waitings == nil || payments == nil ||
		members == nil || times == nil || themes == nil || gateway == nil {
		panic("nil dependency passed to NewReservationService")
	}
	if events == nil {
		events = noopPublisher{}
	}
	return &ReservationService{
		reservations: reservations,
		waitings:     waitings,
		payments:     payments,
		members:      members,
		times:        times,
		themes:       themes,
		gateway:      gateway,
		events:       events,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Create books a slot for the member and charges the payment. The
// reservation row is inserted first so the unique key on
// (date, time_id, theme_id) holds the slot while the gateway call is
// in flight; if approval fails the row is deleted again and the
// gateway error is returned unchanged.
func (s *ReservationService) Create(ctx context.Context, memberID uint64, req CreateRequest) (*repository.ReservationDetail, error) {
	member, t, theme, err := s.resolveRefs(ctx, memberID, req.TimeID, req.ThemeID)
	if err != nil {
		return nil, err
	}
	res, err := s.insertValidated(ctx, member, t, theme, req.Date)
	if err != nil {
		return nil, err
	}

	approval, err := s.gateway.Approve(ctx, payment.ApproveRequest{
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID,
		Amount:     req.Amount,
	})
	if err != nil {
		// Compensate: the slot must not stay held by an uncharged
		// reservation.
		if delErr := s.reservations.Delete(ctx, res.ID); delErr != nil {
			log.Printf("reservation %d: compensating delete after payment failure: %v", res.ID, delErr)
		}
		return nil, err
	}
	if err := s.payments.Create(ctx, &model.Payment{
		ReservationID: res.ID,
		PaymentKey:    approval.PaymentKey,
		OrderID:       req.OrderID,
		Amount:        approval.Amount,
		ApprovedAt:    approval.ApprovedAt,
	}); err != nil {
		return nil, fmt.Errorf("record payment for reservation %d: %w", res.ID, err)
	}
	if err := s.reservations.UpdateStatus(ctx, res.ID, model.StatusPaid); err != nil {
		return nil, fmt.Errorf("mark reservation %d paid: %w", res.ID, err)
	}
	res.Status = model.StatusPaid

	s.publishConfirmed(ctx, res, member, t, theme, approval.Amount)
	return detailFor(res, member, t, theme), nil
}

// CreateAdmin books a slot on behalf of a member without any payment.
// The reservation stays PAYMENT_PENDING, so a later cancellation
// deletes it without touching the gateway.
func (s *ReservationService) CreateAdmin(ctx context.Context, req AdminCreateRequest) (*repository.ReservationDetail, error) {
	member, t, theme, err := s.resolveRefs(ctx, req.MemberID, req.TimeID, req.ThemeID)
	if err != nil {
		return nil, err
	}
	res, err := s.insertValidated(ctx, member, t, theme, req.Date)
	if err != nil {
		return nil, err
	}
	return detailFor(res, member, t, theme), nil
}

// Cancel removes a reservation. A paid reservation is refunded first;
// if anyone waits on the slot the earliest waiter takes it over,
// otherwise the row is deleted. Refund failure aborts the whole
// operation with the gateway error and leaves every row intact.
func (s *ReservationService) Cancel(ctx context.Context, id uint64) error {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	t, err := s.times.GetByID(ctx, res.TimeID)
	if err != nil {
		return err
	}
	now := s.now()
	if model.IsPastSlot(res.Date, t.StartAt, now) {
		return ErrPastCancel
	}
	if model.SameDate(res.Date, now) {
		return ErrSameDayCancel
	}

	waiter, err := s.waitings.FirstBySlot(ctx, res.Slot())
	switch {
	case err == nil:
		return s.promote(ctx, res, t, waiter)
	case errors.Is(err, repository.ErrWaitingNotFound):
		return s.cancelPlain(ctx, res, t)
	default:
		return err
	}
}

// CancelFor cancels a reservation on behalf of its owner. Members may
// only touch rows they own; admin tooling calls Cancel directly.
func (s *ReservationService) CancelFor(ctx context.Context, memberID, id uint64) error {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if res.MemberID != memberID {
		return repository.ErrForbidden
	}
	return s.Cancel(ctx, id)
}

// promote refunds the cancelled owner's payment and rewrites the slot
// to the earliest waiter. The owner rewrite and the waiting delete are
// atomic in the store, so the uniqueness invariant never sees the slot
// free.
func (s *ReservationService) promote(ctx context.Context, res *model.Reservation, t *model.ReservationTime, waiter *model.Waiting) error {
	refunded, err := s.refund(ctx, res)
	if err != nil {
		return err
	}
	if err := s.reservations.PromoteWaiting(ctx, res.ID, waiter); err != nil {
		return err
	}
	s.publishCancelled(ctx, res, t, refunded, waiter.MemberID)
	return nil
}

// cancelPlain deletes the reservation, refunding first when it was
// paid.
func (s *ReservationService) cancelPlain(ctx context.Context, res *model.Reservation, t *model.ReservationTime) error {
	refunded, err := s.refund(ctx, res)
	if err != nil {
		return err
	}
	if err := s.reservations.Delete(ctx, res.ID); err != nil {
		return err
	}
	s.publishCancelled(ctx, res, t, refunded, 0)
	return nil
}

// refund cancels the reservation's payment at the gateway and deletes
// the ledger row. It is a no-op for PAYMENT_PENDING reservations.
// When the gateway rejects the refund the ledger row is kept and the
// gateway error is returned, aborting the caller before any row is
// deleted.
func (s *ReservationService) refund(ctx context.Context, res *model.Reservation) (bool, error) {
	if res.IsPaymentPending() {
		return false, nil
	}
	p, err := s.payments.GetByReservation(ctx, res.ID)
	if err != nil {
		return false, err
	}
	if err := s.gateway.Cancel(ctx, p.PaymentKey); err != nil {
		return false, err
	}
	if err := s.payments.DeleteByReservation(ctx, res.ID); err != nil {
		return false, fmt.Errorf("delete payment for reservation %d: %w", res.ID, err)
	}
	return true, nil
}

// List returns every reservation with reference details.
func (s *ReservationService) List(ctx context.Context) ([]repository.ReservationDetail, error) {
	return s.reservations.ListAll(ctx)
}

// ListByFilter returns reservations matching the admin search filter.
func (s *ReservationService) ListByFilter(ctx context.Context, f repository.ReservationFilter) ([]repository.ReservationDetail, error) {
	return s.reservations.ListByFilter(ctx, f)
}

// ListMine returns the member's reservations together with their
// waiting entries and queue ranks.
func (s *ReservationService) ListMine(ctx context.Context, memberID uint64) (*MyReservations, error) {
	reservations, err := s.reservations.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	waitings, err := s.waitings.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &MyReservations{Reservations: reservations, Waitings: waitings}, nil
}

// resolveRefs loads the member, time and theme references, surfacing
// the store's not-found sentinel for whichever is absent.
func (s *ReservationService) resolveRefs(ctx context.Context, memberID, timeID, themeID uint64) (*model.Member, *model.ReservationTime, *model.Theme, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, nil, nil, err
	}
	t, err := s.times.GetByID(ctx, timeID)
	if err != nil {
		return nil, nil, nil, err
	}
	theme, err := s.themes.GetByID(ctx, themeID)
	if err != nil {
		return nil, nil, nil, err
	}
	return member, t, theme, nil
}

// insertValidated runs the timing and uniqueness checks and inserts
// the reservation as PAYMENT_PENDING. The pre-check gives a friendly
// early failure; the store's unique key is the final arbiter and its
// ErrSlotTaken is mapped to the same business error.
func (s *ReservationService) insertValidated(ctx context.Context, member *model.Member, t *model.ReservationTime, theme *model.Theme, date time.Time) (*model.Reservation, error) {
	res := &model.Reservation{
		MemberID: member.ID,
		Date:     model.DateOnly(date),
		TimeID:   t.ID,
		ThemeID:  theme.ID,
		Status:   model.StatusPaymentPending,
	}
	if model.IsPastSlot(res.Date, t.StartAt, s.now()) {
		return nil, ErrPastSlot
	}
	taken, err := s.reservations.ExistsBySlot(ctx, res.Slot())
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlotTaken
	}
	if err := s.reservations.Create(ctx, res); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			return nil, ErrSlotTaken
		}
		return nil, err
	}
	return res, nil
}

func (s *ReservationService) publishConfirmed(ctx context.Context, res *model.Reservation, member *model.Member, t *model.ReservationTime, theme *model.Theme, amount int64) {
	ev := queue.ReservationConfirmedEvent{
		ReservationID: res.ID,
		MemberID:      member.ID,
		MemberName:    member.Name,
		Date:          res.Date.Format(time.DateOnly),
		StartAt:       t.StartAt,
		ThemeName:     theme.Name,
		Amount:        amount,
		ConfirmedAt:   s.now().Format(time.RFC3339),
	}
	if err := s.events.ReservationConfirmed(ctx, ev); err != nil {
		log.Printf("publish reservation.confirmed for %d: %v", res.ID, err)
	}
}

func (s *ReservationService) publishCancelled(ctx context.Context, res *model.Reservation, t *model.ReservationTime, refunded bool, promotedMemberID uint64) {
	themeName := ""
	if theme, err := s.themes.GetByID(ctx, res.ThemeID); err == nil {
		themeName = theme.Name
	}
	ev := queue.ReservationCancelledEvent{
		ReservationID:    res.ID,
		MemberID:         res.MemberID,
		Date:             res.Date.Format(time.DateOnly),
		StartAt:          t.StartAt,
		ThemeName:        themeName,
		Refunded:         refunded,
		PromotedMemberID: promotedMemberID,
		CancelledAt:      s.now().Format(time.RFC3339),
	}
	if err := s.events.ReservationCancelled(ctx, ev); err != nil {
		log.Printf("publish reservation.cancelled for %d: %v", res.ID, err)
	}
}

func detailFor(res *model.Reservation, member *model.Member, t *model.ReservationTime, theme *model.Theme) *repository.ReservationDetail {
	return &repository.ReservationDetail{
		ID:         res.ID,
		MemberID:   member.ID,
		MemberName: member.Name,
		Date:       res.Date.Format(time.DateOnly),
		TimeID:     t.ID,
		StartAt:    t.StartAt,
		ThemeID:    theme.ID,
		ThemeName:  theme.Name,
		Status:     string(res.Status),
	}
}
