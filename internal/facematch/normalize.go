package facematch

import (
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

const (
	minIdentityKeyLen = 8
	maxIdentityKeyLen = 15
)

// NormalizeIdentityKey trims the key and folds full-width digits (e.g. "１２３") to ASCII.
func NormalizeIdentityKey(key string) string {
	t := transform.Chain(norm.NFKC, width.Narrow)
	result, _, err := transform.String(t, strings.TrimSpace(key))
	if err != nil {
		return strings.TrimSpace(key)
	}
	return result
}

// ValidIdentityKey reports whether key is an 8-15 digit numeric string.
func ValidIdentityKey(key string) bool {
	if len(key) < minIdentityKeyLen || len(key) > maxIdentityKeyLen {
		return false
	}
	for _, r := range key {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
