package service

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// randomHex returns 2n upper-case hex characters from crypto/rand.
func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b)), nil
}

// newClaimCode returns a code of the form "9A2F-3C7B".
func newClaimCode() (string, error) {
	raw, err := randomHex(4)
	if err != nil {
		return "", err
	}
	return raw[:4] + "-" + raw[4:], nil
}

// newBookingCode returns a code of the form "BK-9A2F3C".
func newBookingCode() (string, error) {
	raw, err := randomHex(3)
	if err != nil {
		return "", err
	}
	return "BK-" + raw, nil
}

// NormalizeCode trims and upper-cases seat and claim codes so "a1 " and "A1"
// address the same seat.
func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeCodes normalizes, drops empty entries and removes duplicates
// while keeping the first-seen order.
func normalizeCodes(codes []string) []string {
	out := make([]string, 0, len(codes))
	seen := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		c = NormalizeCode(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
