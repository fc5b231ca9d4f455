package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkim-dev/roomescape-booking/internal/payment"
	"github.com/dkim-dev/roomescape-booking/internal/repository"
	"github.com/dkim-dev/roomescape-booking/internal/service"
)

func newTestContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestBookingErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"business rule", service.ErrSlotTaken, http.StatusBadRequest},
		{"same-day cancel", service.ErrSameDayCancel, http.StatusBadRequest},
		{"missing entity", repository.ErrReservationNotFound, http.StatusNotFound},
		{"foreign row", repository.ErrForbidden, http.StatusForbidden},
		{"duplicate state", repository.ErrConflict, http.StatusConflict},
		{"gateway fault", &payment.Error{Code: "X", Message: "no"}, http.StatusBadGateway},
		{"anything else", assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t)
			require.NoError(t, bookingError(c, tc.err))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestGetMemberIDAcceptsClaimRepresentations(t *testing.T) {
	for _, v := range []interface{}{uint64(7), int(7), int64(7), float64(7), "7"} {
		c, _ := newTestContext(t)
		c.Set("member_id", v)
		id, err := getMemberID(c)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), id)
	}

	c, _ := newTestContext(t)
	c.Set("member_id", "not-a-number")
	_, err := getMemberID(c)
	assert.Error(t, err)
}
