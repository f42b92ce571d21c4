package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost of 12 takes roughly 250ms per hash on modern hardware. Slow by
// design: the work factor is what makes stolen hashes expensive to crack.
const bcryptCost = 12

// PasswordService handles password hashing and verification.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: bcryptCost}
}

// NewPasswordServiceWithCost is for tests: bcrypt.MinCost keeps hashing fast
// enough to run the suite hundreds of times a day.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash generates a bcrypt hash of the password. bcrypt caps input at 72
// bytes; longer passwords are rejected rather than silently truncated.
func (s *PasswordService) Hash(password string) (string, error) {
	if len(password) > 72 {
		return "", errors.New("auth: password exceeds 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hash), nil
}

// Verify checks a password against a stored hash. Returns nil on match.
// bcrypt.CompareHashAndPassword is constant-time with respect to the
// password contents.
func (s *PasswordService) Verify(hash, password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errors.New("auth: password does not match")
		}
		return fmt.Errorf("auth: verifying password: %w", err)
	}
	return nil
}
