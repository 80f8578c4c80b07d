// Package domain holds the core types of the identity service. It has no
// dependencies on storage or transport; every other internal package imports
// it, never the other way around.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the coarse authorization level attached to an identity.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("domain: unknown role %q", s)
	}
}

// Identity is a registered pseudonymous identity. The service never stores
// the raw identity token; only the two derived hashes persist.
//
// SecuredHash is the slow, salted, peppered digest that anchors trust: a
// presented raw token is only accepted after verifying against it.
// SearchableHash is a deterministic fingerprint used purely as a lookup
// index; matching it proves nothing on its own.
type Identity struct {
	ID             int64
	SecuredHash    string
	SearchableHash string
	Role           Role
	CreatedAt      time.Time
}
