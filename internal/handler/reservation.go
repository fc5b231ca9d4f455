package handler

import (
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters
	"time"     // parsing reservation dates

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/dkim-dev/roomescape-booking/internal/service" // booking lifecycle services
)

// ReservationHandler serves the member-facing booking endpoints:
// creating a reservation with payment, cancelling an owned
// reservation, listing the member's reservations and joining or
// leaving a slot's waiting list. JWT authentication runs in middleware
// before any of these methods.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Waitings     *service.WaitingService
}

// NewReservationHandler constructs the handler. Both services must be
// non-nil.
func NewReservationHandler(r *service.ReservationService, w *service.WaitingService) *ReservationHandler {
	if r == nil || w == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: r, Waitings: w}
}

type createReservationReq struct {
	Date       string `json:"date"` // calendar date as 2006-01-02
	TimeID     uint64 `json:"time_id"`
	ThemeID    uint64 `json:"theme_id"`
	PaymentKey string `json:"payment_key"`
	OrderID    string `json:"order_id"`
	Amount     int64  `json:"amount"`
}

type joinWaitingReq struct {
	Date    string `json:"date"`
	TimeID  uint64 `json:"time_id"`
	ThemeID uint64 `json:"theme_id"`
}

// parseDate accepts the wire date format used on every booking body.
func parseDate(s string) (time.Time, bool) {
	d, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Create handles POST /v1/reservations. It books the slot for the
// authenticated member and approves the payment in one operation; on
// success the response carries the paid reservation detail.
func (h *ReservationHandler) Create(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	if req.TimeID == 0 || req.ThemeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_id and theme_id are required"})
	}
	if req.PaymentKey == "" || req.OrderID == "" || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_key, order_id and a positive amount are required"})
	}

	detail, err := h.Reservations.Create(c.Request().Context(), memberID, service.CreateRequest{
		Date:       date,
		TimeID:     req.TimeID,
		ThemeID:    req.ThemeID,
		PaymentKey: req.PaymentKey,
		OrderID:    req.OrderID,
		Amount:     req.Amount,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// Cancel handles DELETE /v1/reservations/:id. Only the owner may
// cancel; the slot passes to the earliest waiter when one exists.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Reservations.CancelFor(c.Request().Context(), memberID, id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Mine handles GET /v1/reservations/mine, returning the member's
// reservations together with their waiting entries and queue ranks.
func (h *ReservationHandler) Mine(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	out, err := h.Reservations.ListMine(c.Request().Context(), memberID)
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// JoinWaiting handles POST /v1/waitings. The slot must already be
// taken by somebody else and still in the future.
func (h *ReservationHandler) JoinWaiting(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req joinWaitingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	if req.TimeID == 0 || req.ThemeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time_id and theme_id are required"})
	}

	w, err := h.Waitings.Join(c.Request().Context(), memberID, service.JoinWaitingRequest{
		Date:    date,
		TimeID:  req.TimeID,
		ThemeID: req.ThemeID,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":       w.ID,
		"date":     w.Date.Format(time.DateOnly),
		"time_id":  w.TimeID,
		"theme_id": w.ThemeID,
	})
}

// LeaveWaiting handles DELETE /v1/waitings/:id. Members may only
// remove their own entry.
func (h *ReservationHandler) LeaveWaiting(c echo.Context) error {
	memberID, err := getMemberID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid waiting id"})
	}
	if err := h.Waitings.Leave(c.Request().Context(), memberID, id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
