package handler // handler defines http handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dkim-dev/roomescape-booking/internal/payment"
	"github.com/dkim-dev/roomescape-booking/internal/repository"
	"github.com/dkim-dev/roomescape-booking/internal/service"
)

// getMemberID extracts the member_id from echo.Context and converts it
// to uint64. The JWT middleware stores the claim as whatever type the
// token decoder produced, so several representations are accepted.
func getMemberID(c echo.Context) (uint64, error) {
	v := c.Get("member_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid member_id in context")
}

// bookingError translates booking-domain errors into JSON responses.
// Business-rule violations map to 400, missing entities to 404,
// ownership failures to 403, duplicate-state conflicts to 409 and
// gateway faults to 502 with the gateway's own code and message.
func bookingError(c echo.Context, err error) error {
	switch {
	case service.IsInvalidRequest(err):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case service.IsNotFound(err):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case service.IsPaymentError(err):
		var pe *payment.Error
		errors.As(err, &pe)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": pe.Message, "code": pe.Code})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
