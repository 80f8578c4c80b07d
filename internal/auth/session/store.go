// Package session is the TTL-keyed revocation store behind the credential
// lifecycle: refresh-token used markers, the access-token blacklist and the
// current-refresh-token pointer per identity. TTLs are always expressed as
// remaining durations, never calendar time, so a restart of this service
// cannot corrupt expiry semantics as long as the store survives.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound reports an absent (or expired) key.
	ErrNotFound = errors.New("session: not found")

	// ErrUnavailable reports an infrastructure failure talking to the store.
	// Callers must fail closed on it: an unreachable store never means "not
	// blacklisted" or "not used".
	ErrUnavailable = errors.New("session: store unavailable")
)

// Marker values for used-refresh keys.
const (
	MarkerUnused = "false"
	MarkerUsed   = "true"
)

// BlacklistSentinel is the value stored under blacklist keys; only presence
// matters.
const BlacklistSentinel = "revoked"

// Store is a key-value store with per-key TTL. Single-key operations are
// atomic at the store level; no cross-key transactions exist or are needed.
type Store interface {
	// Put writes key=value expiring after ttl.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Swap atomically replaces the value of an existing key, preserving its
	// TTL, and returns the previous value. Returns ErrNotFound when the key
	// is absent; nothing is written in that case. This is the compare-and-set
	// primitive refresh rotation races are decided with: of two concurrent
	// rotators, exactly one observes the previous value MarkerUnused.
	Swap(ctx context.Context, key, value string) (string, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases underlying resources.
	Close() error
}

// UsedRefreshKey keys the single-use marker of a refresh token by its jti.
func UsedRefreshKey(jti string) string { return "used_refresh:" + jti }

// BlacklistKey keys a revoked token by its literal string.
func BlacklistKey(token string) string { return "blacklist:" + token }

// RefreshKey keys the current refresh token pointer of an identity by its
// raw identity token.
func RefreshKey(identity string) string { return "refresh:" + identity }
