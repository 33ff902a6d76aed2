package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/blog-platform/internal/apperror"
)

const (
	// HashCost is the bcrypt work factor. bcrypt salts every hash itself.
	HashCost = 10

	// MaxPasswordBytes is the longest password bcrypt accepts.
	MaxPasswordBytes = 72
)

// HashPassword hashes password. Passwords over MaxPasswordBytes are a
// Validation AppError.
func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", apperror.NewValidation(fmt.Sprintf("Password must be at most %d bytes", MaxPasswordBytes))
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash. Only a mismatch
// returns false with a nil error. A password too long to hash never
// matches.
func CheckPassword(hash, password string) (bool, error) {
	if len(password) > MaxPasswordBytes {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
