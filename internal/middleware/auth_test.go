package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkim-dev/roomescape-booking/internal/model"
	"github.com/dkim-dev/roomescape-booking/internal/utils"
)

const testSecret = "test-signing-secret"

func runProtected(t *testing.T, authz string, mw ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var captured echo.Context
	h := func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	}
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	require.NoError(t, h(c))
	return rec, captured
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, model.RoleMember, 5)
	require.NoError(t, err)

	rec, c := runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, c)
	// JWT numeric claims decode as float64.
	assert.Equal(t, float64(7), c.Get("member_id"))
	assert.Equal(t, model.RoleMember, c.Get("role"))
}

func TestJWTAuthRejectsMissingAndBadTokens(t *testing.T) {
	rec, _ := runProtected(t, "", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = runProtected(t, "Bearer not.a.jwt", JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Token signed with a different secret.
	tok, err := utils.NewAccessToken("other-secret", 7, model.RoleMember, 5)
	require.NoError(t, err)
	rec, _ = runProtected(t, "Bearer "+tok.Token, JWTAuth(testSecret))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleGatesAdminEndpoints(t *testing.T) {
	adminTok, err := utils.NewAccessToken(testSecret, 1, model.RoleAdmin, 5)
	require.NoError(t, err)
	memberTok, err := utils.NewAccessToken(testSecret, 2, model.RoleMember, 5)
	require.NoError(t, err)

	rec, _ := runProtected(t, "Bearer "+adminTok.Token, JWTAuth(testSecret), RequireRole(model.RoleAdmin))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = runProtected(t, "Bearer "+memberTok.Token, JWTAuth(testSecret), RequireRole(model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
