package helpers

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// Password bounds. bcrypt reads at most 72 bytes, so the upper bound is in
// bytes while the lower bound is in characters.
const (
	MinPasswordRunes = 8
	MaxPasswordBytes = 72
)

var (
	ErrPasswordTooShort = errors.New("password must have at least 8 characters")
	ErrPasswordTooLong  = errors.New("password must fit in 72 bytes")
)

// CheckPassword reports why plain cannot be stored, or nil when it can.
func CheckPassword(plain string) error {
	if utf8.RuneCountInString(plain) < MinPasswordRunes {
		return ErrPasswordTooShort
	}
	if len(plain) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

// HashPassword checks plain against the password bounds and returns its bcrypt
// hash at the default cost.
func HashPassword(plain string) (string, error) {
	if err := CheckPassword(plain); err != nil {
		return "", err
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
