package model

import (
	"errors"
	"strings"
	"time"
)

// MaxThemeDescriptionLen bounds the description column.
const MaxThemeDescriptionLen = 255

// ErrInvalidDescription is returned by NewTheme when the description is
// empty or exceeds MaxThemeDescriptionLen.
var ErrInvalidDescription = errors.New("theme description must be between 1 and 255 characters")

// Theme is a bookable escape-room theme.  Themes are shared reference
// data: reservations and waitings point at them by id and never own
// them.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – theme title shown to members.
//  Description – short marketing blurb, 1..255 characters.
//  Thumbnail   – URL of the theme's cover image.
//  CreatedAt   – creation timestamp.
type Theme struct {
	ID          uint64    // themes.id
	Name        string    // themes.name
	Description string    // themes.description
	Thumbnail   string    // themes.thumbnail
	CreatedAt   time.Time // themes.created_at
}

// NewTheme validates and builds a theme ready for insertion.  The ID is
// assigned by the store on create.
func NewTheme(name, description, thumbnail string) (*Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("theme name is required")
	}
	if description == "" || len(description) > MaxThemeDescriptionLen {
		return nil, ErrInvalidDescription
	}
	return &Theme{Name: name, Description: description, Thumbnail: thumbnail}, nil
}
