// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4" // the Echo web framework handles routing

	"github.com/dkim-dev/roomescape-booking/internal/handler"    // handlers implementing each endpoint
	"github.com/dkim-dev/roomescape-booking/internal/middleware" // JWT authentication and role enforcement
	"github.com/dkim-dev/roomescape-booking/internal/model"      // role constants for route guards
)

// RegisterRoutes registers routes that do not require authentication
// on the provided Echo instance. Currently it exposes only a health
// check.
func RegisterRoutes(e *echo.Echo) {
	// Load balancers and monitoring probe this path.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes. Register and login
// live under /v1/auth without middleware; /v1/me requires a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterBrowse registers unauthenticated browse endpoints: themes,
// the weekly popular ranking, time slots and per-date availability.
// Guests see these before signing up, so no JWT is applied.
func RegisterBrowse(e *echo.Echo, th *handler.ThemeHandler, tm *handler.TimeHandler) {
	e.GET("/v1/themes", th.List)
	e.GET("/v1/themes/popular", th.ListPopular)
	e.GET("/v1/times", tm.List)
	e.GET("/v1/times/available", tm.ListAvailable)
}

// RegisterMember registers member-scoped booking endpoints under /v1.
// All routes require a valid JWT; any role may book. The limiter
// wraps the write endpoints so one member cannot hammer the payment
// gateway.
func RegisterMember(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	g.POST("/reservations", h.Create, limiter)
	g.DELETE("/reservations/:id", h.Cancel, limiter)
	g.GET("/reservations/mine", h.Mine)

	g.POST("/waitings", h.JoinWaiting, limiter)
	g.DELETE("/waitings/:id", h.LeaveWaiting)
}

// RegisterAdmin registers back-office endpoints under /v1/admin. All
// routes require a valid JWT with the ADMIN role.
func RegisterAdmin(e *echo.Echo, r *handler.AdminReservationHandler, th *handler.ThemeHandler, tm *handler.TimeHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.POST("/reservations", r.Create)
	g.GET("/reservations", r.List)
	g.DELETE("/reservations/:id", r.Cancel)
	g.GET("/members", r.ListMembers)

	g.POST("/themes", th.Create)
	g.DELETE("/themes/:id", th.Delete)

	g.POST("/times", tm.Create)
	g.DELETE("/times/:id", tm.Delete)
}
