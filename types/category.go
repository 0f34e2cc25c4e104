package types

import "time"

// Category groups tasks under a shared label. Categories are global:
// every user sees the same set.
type Category struct {
	// ID is the unique identifier of the category (a UUID string).
	ID string `json:"id" db:"id"`

	// Name is the label shown for the category, 1 to 50 characters.
	Name string `json:"name" db:"name"`

	// Color is an optional "#rrggbb" hex color.
	Color *string `json:"color" db:"color"`

	// CreatedAt is the timestamp at which the category was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update, if any.
	UpdatedAt *time.Time `json:"updatedAt" db:"updated_at"`
}
