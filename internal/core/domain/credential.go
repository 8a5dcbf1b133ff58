package domain

import (
	"crypto/subtle"
	"strings"
)

// Credential is the shared admin secret guarding mutating operations.
type Credential struct {
	code string
}

func NewCredential(code string) Credential {
	return Credential{code: strings.TrimSpace(code)}
}

func (c Credential) IsZero() bool {
	return c.code == ""
}

// Secret exposes the raw value for seeding the admin account.
func (c Credential) Secret() string {
	return c.code
}

// Matches compares supplied against the secret in constant time.
// A zero credential never matches.
func (c Credential) Matches(supplied string) bool {
	if c.code == "" || supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.code), []byte(supplied)) == 1
}
