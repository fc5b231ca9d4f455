package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dkim-dev/roomescape-booking/internal/model"
)

// ThemeRepo manages persistence for escape-room themes.
type ThemeRepo struct{ db *sql.DB }

// NewThemeRepo returns a new ThemeRepo bound to the given database.
func NewThemeRepo(db *sql.DB) *ThemeRepo { return &ThemeRepo{db: db} }

// Create inserts a theme and populates its generated ID.
func (r *ThemeRepo) Create(ctx context.Context, t *model.Theme) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO themes (name, description, thumbnail) VALUES (?,?,?)",
		t.Name, t.Description, t.Thumbnail)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

// GetByID fetches a theme by id, returning ErrThemeNotFound when no
// row exists.
func (r *ThemeRepo) GetByID(ctx context.Context, id uint64) (*model.Theme, error) {
	var t model.Theme
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, thumbnail, created_at FROM themes WHERE id=? LIMIT 1",
		id).Scan(&t.ID, &t.Name, &t.Description, &t.Thumbnail, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrThemeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListAll returns every theme ordered by id.
func (r *ThemeRepo) ListAll(ctx context.Context) ([]model.Theme, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, thumbnail, created_at FROM themes ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanThemes(rows)
}

// ListPopular returns the themes with the most reservations whose date
// falls inside [from, to), most reserved first. Ties are broken by
// theme id so the ranking is stable. Used for the weekly top-N view.
func (r *ThemeRepo) ListPopular(ctx context.Context, from, to time.Time, limit int) ([]model.Theme, error) {
	const q = `SELECT t.id, t.name, t.description, t.thumbnail, t.created_at
	           FROM themes t
	           JOIN reservations res ON res.theme_id = t.id
	           WHERE res.date >= ? AND res.date < ?
	           GROUP BY t.id, t.name, t.description, t.thumbnail, t.created_at
	           ORDER BY COUNT(res.id) DESC, t.id ASC
	           LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, from.UTC().Format(time.DateOnly), to.UTC().Format(time.DateOnly), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanThemes(rows)
}

// Delete removes a theme. It fails with ErrConflict while reservations
// still reference the theme and ErrThemeNotFound when the row is
// already gone.
func (r *ThemeRepo) Delete(ctx context.Context, id uint64) error {
	var n int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE theme_id=?", id).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM themes WHERE id=?", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrThemeNotFound
	}
	return nil
}

func scanThemes(rows *sql.Rows) ([]model.Theme, error) {
	themes := make([]model.Theme, 0)
	for rows.Next() {
		var t model.Theme
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Thumbnail, &t.CreatedAt); err != nil {
			return nil, err
		}
		themes = append(themes, t)
	}
	return themes, rows.Err()
}
