package handler

import (
	"context"  // bounded DB calls for member listing
	"net/http" // HTTP status codes
	"strconv"  // parsing path and query parameters
	"time"     // parsing filter dates

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/dkim-dev/roomescape-booking/internal/repository" // search filter and member listing
	"github.com/dkim-dev/roomescape-booking/internal/service"    // booking lifecycle services
)

// AdminReservationHandler serves the back-office reservation
// endpoints: booking on behalf of a member without payment, listing
// and filtering every reservation, force-cancelling any reservation
// and listing members for the booking form. The ADMIN role is
// enforced by middleware.
type AdminReservationHandler struct {
	Reservations *service.ReservationService
	Members      *repository.MemberRepo
}

// NewAdminReservationHandler constructs the handler.
func NewAdminReservationHandler(r *service.ReservationService, m *repository.MemberRepo) *AdminReservationHandler {
	if r == nil || m == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Reservations: r, Members: m}
}

type adminCreateReq struct {
	MemberID uint64 `json:"member_id"`
	Date     string `json:"date"`
	TimeID   uint64 `json:"time_id"`
	ThemeID  uint64 `json:"theme_id"`
}

// Create handles POST /v1/admin/reservations. The reservation is
// recorded without a payment and stays PAYMENT_PENDING.
func (h *AdminReservationHandler) Create(c echo.Context) error {
	var req adminCreateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	date, ok := parseDate(req.Date)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	if req.MemberID == 0 || req.TimeID == 0 || req.ThemeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "member_id, time_id and theme_id are required"})
	}

	detail, err := h.Reservations.CreateAdmin(c.Request().Context(), service.AdminCreateRequest{
		MemberID: req.MemberID,
		Date:     date,
		TimeID:   req.TimeID,
		ThemeID:  req.ThemeID,
	})
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusCreated, detail)
}

// List handles GET /v1/admin/reservations. Without query parameters it
// returns every reservation; member_id, theme_id, date_from and
// date_to narrow the result and combine with AND.
func (h *AdminReservationHandler) List(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	var out []repository.ReservationDetail
	if f == (repository.ReservationFilter{}) {
		out, err = h.Reservations.List(c.Request().Context())
	} else {
		out, err = h.Reservations.ListByFilter(c.Request().Context(), f)
	}
	if err != nil {
		return bookingError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Cancel handles DELETE /v1/admin/reservations/:id. Admins may cancel
// any reservation; the same refund and promotion rules apply.
func (h *AdminReservationHandler) Cancel(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	if err := h.Reservations.Cancel(c.Request().Context(), id); err != nil {
		return bookingError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMembers handles GET /v1/admin/members, feeding the booking
// form's member picker.
func (h *AdminReservationHandler) ListMembers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	members, err := h.Members.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]memberPart, 0, len(members))
	for _, m := range members {
		out = append(out, memberPart{ID: m.ID, Name: m.Name, Email: m.Email, Role: m.Role})
	}
	return c.JSON(http.StatusOK, out)
}

// filterFromQuery builds the reservation search filter from query
// parameters, rejecting malformed values instead of silently ignoring
// them.
func filterFromQuery(c echo.Context) (repository.ReservationFilter, error) {
	var f repository.ReservationFilter
	if v := c.QueryParam("member_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, errInvalidQuery("member_id")
		}
		f.MemberID = n
	}
	if v := c.QueryParam("theme_id"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return f, errInvalidQuery("theme_id")
		}
		f.ThemeID = n
	}
	if v := c.QueryParam("date_from"); v != "" {
		d, ok := parseDate(v)
		if !ok {
			return f, errInvalidQuery("date_from")
		}
		f.DateFrom = d
	}
	if v := c.QueryParam("date_to"); v != "" {
		d, ok := parseDate(v)
		if !ok {
			return f, errInvalidQuery("date_to")
		}
		f.DateTo = d
	}
	return f, nil
}

type errInvalidQuery string

func (e errInvalidQuery) Error() string { return "invalid query parameter: " + string(e) }
