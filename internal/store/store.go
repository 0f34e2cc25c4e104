// Package store implements the repositories over database/sql. Queries are
// written with "?" placeholders and rebound for the connection's dialect.
package store

import (
	"time"

	"github.com/google/uuid"
)

// newID returns a version 7 UUID. Its string form sorts in creation order
// within the process, so "ORDER BY created_at, id" keeps insertion order
// when timestamps tie.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// now stamps rows in UTC at microsecond precision, the finest both
// PostgreSQL and SQLite round-trip.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
