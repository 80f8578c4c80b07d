package store

import (
	"context"
	"errors"

	"github.com/veil-id/veil/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories are exposed as methods so adding tables
// later doesn't widen the root interface.
type Store interface {
	Identities() Identities

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Identities interface {
	// CreateIdentity inserts a new identity and fills in its generated ID
	// and CreatedAt. Returns ErrAlreadyExists when either hash collides
	// with an existing row.
	CreateIdentity(ctx context.Context, ident *domain.Identity) error

	// GetBySecuredHash returns the identity owning the exact secured hash.
	GetBySecuredHash(ctx context.Context, securedHash string) (domain.Identity, error)

	// GetBySearchableHash returns the identity indexed by the fingerprint.
	// A hit here is only a candidate; callers must still verify the raw
	// token against the secured hash before trusting it.
	GetBySearchableHash(ctx context.Context, searchableHash string) (domain.Identity, error)
}
