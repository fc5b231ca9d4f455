package service

import (
	"context"

	"github.com/dkim-dev/roomescape-booking/internal/model"
	"github.com/dkim-dev/roomescape-booking/internal/repository"
)

// Store interfaces consumed by the services. The MySQL repositories
// satisfy them; tests substitute function-field fakes. Keeping them
// here, next to their single consumer, means the repository package
// stays free of interface indirection.

// MemberStore resolves member references.
type MemberStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Member, error)
}

// TimeStore resolves reservation time references.
type TimeStore interface {
	GetByID(ctx context.Context, id uint64) (*model.ReservationTime, error)
}

// ThemeStore resolves theme references.
type ThemeStore interface {
	GetByID(ctx context.Context, id uint64) (*model.Theme, error)
}

// ReservationStore persists reservations. Create must enforce the
// (date, time, theme) uniqueness invariant and return
// repository.ErrSlotTaken on collision; PromoteWaiting must rewrite
// the slot's owner and delete the waiting entry atomically.
type ReservationStore interface {
	Create(ctx context.Context, r *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (*model.Reservation, error)
	GetBySlot(ctx context.Context, slot model.Slot) (*model.Reservation, error)
	ExistsBySlot(ctx context.Context, slot model.Slot) (bool, error)
	Delete(ctx context.Context, id uint64) error
	UpdateStatus(ctx context.Context, id uint64, status model.ReservationStatus) error
	PromoteWaiting(ctx context.Context, id uint64, w *model.Waiting) error
	ListAll(ctx context.Context) ([]repository.ReservationDetail, error)
	ListByFilter(ctx context.Context, f repository.ReservationFilter) ([]repository.ReservationDetail, error)
	ListByMember(ctx context.Context, memberID uint64) ([]repository.ReservationDetail, error)
}

// WaitingStore persists waiting-list entries in FIFO order.
type WaitingStore interface {
	Create(ctx context.Context, w *model.Waiting) error
	GetByID(ctx context.Context, id uint64) (*model.Waiting, error)
	FirstBySlot(ctx context.Context, slot model.Slot) (*model.Waiting, error)
	ExistsBySlotAndMember(ctx context.Context, slot model.Slot, memberID uint64) (bool, error)
	Delete(ctx context.Context, id uint64) error
	ListByMember(ctx context.Context, memberID uint64) ([]repository.WaitingDetail, error)
}

// PaymentStore is the payment ledger: one record per paid reservation.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByReservation(ctx context.Context, reservationID uint64) (*model.Payment, error)
	DeleteByReservation(ctx context.Context, reservationID uint64) error
}
