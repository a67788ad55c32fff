package auth

import "golang.org/x/crypto/bcrypt"

// passwordCost matches the 10-round bcrypt policy used for stored credentials.
const passwordCost = 10

// HashPassword derives a salted one-way hash from the plaintext password.
// Callers must only invoke this when the password is being set or changed;
// re-hashing an unchanged password invalidates prior comparisons.
func HashPassword(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether the plaintext matches the stored hash using
// bcrypt's own constant-time comparison.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
