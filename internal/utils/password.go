package utils

import "golang.org/x/crypto/bcrypt"

// HashSecret returns a bcrypt hash of a shared secret such as the operator
// API key, suitable for ADMIN_API_KEY_HASH.
func HashSecret(plain string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret safely compares a bcrypt hash and a plain secret.
func VerifySecret(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
