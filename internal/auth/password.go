package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes and verifies passwords with bcrypt.
type PasswordHasher struct {
	cost      int
	dummyHash []byte
}

// NewPasswordHasher creates a hasher with the given bcrypt cost. Costs
// outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Same cost as real hashes so a miss costs as much as a wrong password.
	dummy, err := bcrypt.GenerateFromPassword([]byte("todo-dummy-password"), cost)
	if err != nil {
		panic(err)
	}
	return &PasswordHasher{
		cost:      cost,
		dummyHash: dummy,
	}
}

// maxPasswordBytes is the most input bcrypt consumes.
const maxPasswordBytes = 72

// bcryptInput clips password to the bytes bcrypt reads. GenerateFromPassword
// returns bcrypt.ErrPasswordTooLong for anything longer.
func bcryptInput(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}
	return b
}

// Hash generates a salted bcrypt hash of the given password. Only the first
// 72 bytes take part in the hash.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash.
func (h *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(password)) == nil
}

// VerifyAbsent burns one bcrypt comparison for a user that does not exist.
// It always returns false.
func (h *PasswordHasher) VerifyAbsent(password string) bool {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, bcryptInput(password))
	return false
}
