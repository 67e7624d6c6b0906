// Package crypto handles credential storage primitives for the CMS.
package crypto

import "golang.org/x/crypto/bcrypt"

// hashCost is the bcrypt work factor for newly stored credentials.
const hashCost = bcrypt.DefaultCost

// HashPassword derives a one-way digest suitable for storing a password at
// rest. The plaintext is never persisted.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), hashCost)
}

// VerifyPassword checks plain against a stored digest, returning an error
// on mismatch.
func VerifyPassword(digest []byte, plain string) error {
	return bcrypt.CompareHashAndPassword(digest, []byte(plain))
}
