package types

import "time"

// User represents an account in the system.
// It contains identity, credentials, and audit metadata.
type User struct {
	// ID is the unique identifier of the user (a UUID string).
	ID string `json:"id" db:"id"`

	// Email is the user's email address. It is the login identifier
	// and is unique across all users.
	Email string `json:"email" db:"email"`

	// Username is an optional display handle. When set it is unique.
	Username *string `json:"username" db:"username"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// PublicUser is the view of a user returned by the API.
type PublicUser struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Username *string `json:"username"`
}

// Public strips everything but the identity fields from the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
	}
}
