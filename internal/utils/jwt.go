package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleStaff is the only role allowed to finalize bookings.
const RoleStaff = "STAFF"

// StaffClaims are the claims carried by a staff access token.
type StaffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewStaffToken signs an HS256 token for a staff member.  subject is the
// staff identifier recorded as the booking actor.
func NewStaffToken(secret, subject string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("empty signing secret")
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := StaffClaims{
		Role: RoleStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ParseStaffToken verifies raw with secret and returns its claims.  Only
// HMAC-signed tokens are accepted.
func ParseStaffToken(secret, raw string) (*StaffClaims, error) {
	var claims StaffClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return &claims, nil
}

// NewHoldToken returns a fresh 32-character hex token identifying one
// browser session's holds.
func NewHoldToken() (string, error) {
	return randomHex(16)
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
