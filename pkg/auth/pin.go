package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const PinLength = 6

var ErrMalformedPin = errors.New("pin must be exactly 6 digits")

// dummyHash is compared against when no secret is stored, so a missing
// secret costs the same as a wrong one.
var dummyHash = sync.OnceValue(func() []byte {
	b, _ := bcrypt.GenerateFromPassword([]byte("000000"), bcrypt.DefaultCost)
	return b
})

func IsValidPin(pin string) bool {
	if len(pin) != PinLength {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

func HashPin(pin string) (string, error) {
	return hashPinWithCost(pin, bcrypt.DefaultCost)
}

func hashPinWithCost(pin string, cost int) (string, error) {
	if !IsValidPin(pin) {
		return "", ErrMalformedPin
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pin), cost)
	if err != nil {
		return "", fmt.Errorf("cannot hash pin: %w", err)
	}
	return string(b), nil
}

// CheckPinHash reports whether pin matches hash. An empty or malformed hash
// is a non-match.
func CheckPinHash(pin, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(pin))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
