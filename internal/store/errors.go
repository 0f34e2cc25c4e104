package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a unique constraint.
var ErrConflict = errors.New("conflict")

// ErrInvalidReference is returned when a write points at a row that does
// not exist, such as a task naming an unknown category.
var ErrInvalidReference = errors.New("invalid reference")

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// ConflictError reports which column a unique violation hit. It matches
// ErrConflict with errors.Is.
type ConflictError struct {
	// Column is empty when the driver did not say.
	Column string
	Err    error
}

func (e *ConflictError) Error() string {
	if e.Column == "" {
		return "conflict"
	}
	return fmt.Sprintf("conflict on %s", e.Column)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// classify maps driver constraint failures onto the store sentinels and
// leaves every other error untouched.
func classify(err error, table string) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			column := strings.TrimSuffix(strings.TrimPrefix(pqErr.Constraint, table+"_"), "_key")
			return &ConflictError{Column: column, Err: err}
		case pqForeignKeyViolation:
			return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		msg := liteErr.Error()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE,
			code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY,
			code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, "UNIQUE constraint failed"):
			return &ConflictError{Column: sqliteColumn(msg), Err: err}
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY,
			code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(msg, "FOREIGN KEY constraint failed"):
			return fmt.Errorf("%w: %s", ErrInvalidReference, msg)
		}
	}
	return err
}

// sqliteColumn pulls "email" out of "UNIQUE constraint failed: users.email".
func sqliteColumn(msg string) string {
	const marker = "constraint failed: "
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, ", ("); j >= 0 {
		rest = rest[:j]
	}
	if j := strings.LastIndex(rest, "."); j >= 0 {
		rest = rest[j+1:]
	}
	return rest
}
