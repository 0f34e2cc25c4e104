package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/todoapp/apiserver/internal/db"
	"github.com/todoapp/apiserver/types"
)

const userColumns = `id, email, username, password_hash, created_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db  *db.DB
	now func() time.Time
}

func NewUserRepository(conn *db.DB) *UserRepository {
	return &UserRepository{db: conn, now: now}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return r.getBy(ctx, "username", username)
}

// getBy looks a user up by one of its unique columns. column is never
// user input.
func (r *UserRepository) getBy(ctx context.Context, column, value string) (types.User, error) {
	query := r.db.Rebind(`
		SELECT ` + userColumns + `
		FROM users
		WHERE ` + column + ` = ?`)
	var user types.User
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return user, nil
}

// Create inserts the user. A duplicate email or username yields a
// *ConflictError naming the column.
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	if user.ID == "" {
		id, err := newID()
		if err != nil {
			return types.User{}, err
		}
		user.ID = id
	}
	user.CreatedAt = r.now()

	query := r.db.Rebind(`
		INSERT INTO users (id, email, username, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	); err != nil {
		return types.User{}, classify(err, "users")
	}
	return user, nil
}
