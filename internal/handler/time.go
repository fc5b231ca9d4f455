package handler

import (
	"context"  // bounded DB calls
	"errors"   // sentinel comparisons
	"net/http" // HTTP status codes
	"strconv"  // parsing path and query parameters
	"time"     // start_at validation

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/dkim-dev/roomescape-booking/internal/model"      // reservation time record
	"github.com/dkim-dev/roomescape-booking/internal/repository" // time slot persistence
)

// TimeHandler serves time-slot browsing for everyone and slot
// management for admins.
type TimeHandler struct {
	Times *repository.TimeRepo
}

// NewTimeHandler constructs the handler.
func NewTimeHandler(times *repository.TimeRepo) *TimeHandler {
	if times == nil {
		panic("nil repository passed to NewTimeHandler")
	}
	return &TimeHandler{Times: times}
}

type timePart struct {
	ID      uint64 `json:"id"`
	StartAt string `json:"start_at"`
}

// List handles GET /v1/times.
func (h *TimeHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	times, err := h.Times.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]timePart, 0, len(times))
	for _, t := range times {
		out = append(out, timePart{ID: t.ID, StartAt: t.StartAt})
	}
	return c.JSON(http.StatusOK, out)
}

// ListAvailable handles GET /v1/times/available?date=&theme_id=. It
// returns every slot for the date and theme with a booked flag so the
// booking form can grey out taken ones.
func (h *TimeHandler) ListAvailable(c echo.Context) error {
	date, ok := parseDate(c.QueryParam("date"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	themeID, err := strconv.ParseUint(c.QueryParam("theme_id"), 10, 64)
	if err != nil || themeID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "theme_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Times.ListWithAvailability(ctx, date, themeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, out)
}

type createTimeReq struct {
	StartAt string `json:"start_at"` // wall-clock time as 15:04
}

// Create handles POST /v1/admin/times.
func (h *TimeHandler) Create(c echo.Context) error {
	var req createTimeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if _, err := time.Parse("15:04", req.StartAt); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_at must be HH:MM"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t := &model.ReservationTime{StartAt: req.StartAt}
	if err := h.Times.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create time failed"})
	}
	return c.JSON(http.StatusCreated, timePart{ID: t.ID, StartAt: t.StartAt})
}

// Delete handles DELETE /v1/admin/times/:id. A slot with live
// reservations cannot be removed.
func (h *TimeHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid time id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Times.Delete(ctx, id); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "time slot has reservations"})
	case errors.Is(err, repository.ErrTimeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "time slot not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete time failed"})
	}
}
