// Package credential hashes and verifies firm and user passwords with bcrypt.
package credential

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/aldoetobex/lawcase-backend/pkg/apperr"
)

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// Cost is the bcrypt work factor.
var Cost = bcrypt.DefaultCost

// dummyHash is compared against when there is no stored hash, so a missing
// account costs the same time as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("no-such-account"), bcrypt.DefaultCost)

// Hash returns a salted bcrypt hash; every call uses a fresh salt.
// Passwords over MaxPasswordBytes are a validation error on "password";
// any other failure is internal.
func Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", apperr.Invalid("password", "Must be at most 72 bytes")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), Cost)
	if err != nil {
		return "", apperr.Internal(err)
	}
	return string(b), nil
}

// Verify reports whether password matches hash. Malformed hashes are false.
func Verify(password, hash string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Burn spends one comparison's worth of time. Used on unknown accounts.
func Burn(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
