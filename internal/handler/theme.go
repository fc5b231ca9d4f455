package handler

import (
	"context"  // bounded DB calls
	"errors"   // sentinel comparisons
	"net/http" // HTTP status codes
	"strconv"  // parsing path parameters
	"time"     // popular ranking window

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/dkim-dev/roomescape-booking/internal/cache"      // popular ranking cache
	"github.com/dkim-dev/roomescape-booking/internal/model"      // theme validation
	"github.com/dkim-dev/roomescape-booking/internal/repository" // theme persistence
)

// popularWindowDays and popularLimit define the "popular themes"
// ranking: the ten most reserved themes over the last seven full
// days, today excluded.
const (
	popularWindowDays = 7
	popularLimit      = 10
)

// ThemeHandler serves theme browsing for everyone and theme
// management for admins.
type ThemeHandler struct {
	Themes  *repository.ThemeRepo
	Popular *cache.PopularThemes // may wrap a nil Redis client

	// now is the clock anchoring the popular ranking window.
	now func() time.Time
}

// NewThemeHandler constructs the handler.
func NewThemeHandler(themes *repository.ThemeRepo, popular *cache.PopularThemes) *ThemeHandler {
	if themes == nil {
		panic("nil repository passed to NewThemeHandler")
	}
	return &ThemeHandler{
		Themes:  themes,
		Popular: popular,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type themePart struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

func themeParts(themes []model.Theme) []themePart {
	out := make([]themePart, 0, len(themes))
	for _, t := range themes {
		out = append(out, themePart{ID: t.ID, Name: t.Name, Description: t.Description, Thumbnail: t.Thumbnail})
	}
	return out
}

// List handles GET /v1/themes.
func (h *ThemeHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	themes, err := h.Themes.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, themeParts(themes))
}

// ListPopular handles GET /v1/themes/popular. The ranking is cached
// in Redis per window; a cache miss falls through to the database and
// repopulates the entry.
func (h *ThemeHandler) ListPopular(c echo.Context) error {
	today := h.now().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -popularWindowDays)
	to := today // exclusive, so today's bookings do not skew the ranking

	ctx := c.Request().Context()
	if themes, ok := h.Popular.Get(ctx, from, to); ok {
		return c.JSON(http.StatusOK, themeParts(themes))
	}

	themes, err := h.Themes.ListPopular(ctx, from, to, popularLimit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	h.Popular.Set(ctx, from, to, themes)
	return c.JSON(http.StatusOK, themeParts(themes))
}

type createThemeReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// Create handles POST /v1/admin/themes.
func (h *ThemeHandler) Create(c echo.Context) error {
	var req createThemeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	t, err := model.NewTheme(req.Name, req.Description, req.Thumbnail)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Themes.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create theme failed"})
	}
	return c.JSON(http.StatusCreated, themePart{ID: t.ID, Name: t.Name, Description: t.Description, Thumbnail: t.Thumbnail})
}

// Delete handles DELETE /v1/admin/themes/:id. A theme with live
// reservations cannot be removed.
func (h *ThemeHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid theme id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	switch err := h.Themes.Delete(ctx, id); {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "theme has reservations"})
	case errors.Is(err, repository.ErrThemeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "theme not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete theme failed"})
	}
}
