package user

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"regexp"
)

// MinPasswordLength is enforced before any store round-trip.
const MinPasswordLength = 4

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// HashPassword returns the hex-encoded sha256 digest of a password.
// Passwords are never stored or compared in plaintext.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword compares the digest of a submitted password against a
// stored digest in constant time.
func CheckPassword(password, storedHash string) bool {
	computed := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// ValidEmail reports whether the address looks like local-part@domain.tld.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
