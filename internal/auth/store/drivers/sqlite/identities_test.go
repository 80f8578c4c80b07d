package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/veil-id/veil/internal/auth/domain"
	"github.com/veil-id/veil/internal/auth/store"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func TestCreateAndGetIdentity(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	ident := domain.Identity{
		SecuredHash:    "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		SearchableHash: "fingerprint-a",
		Role:           domain.RoleUser,
	}
	require.NoError(t, s.Identities().CreateIdentity(ctx, &ident))
	require.NotZero(t, ident.ID)
	require.False(t, ident.CreatedAt.IsZero())

	got, err := s.Identities().GetBySecuredHash(ctx, ident.SecuredHash)
	require.NoError(t, err)
	require.Equal(t, ident.ID, got.ID)
	require.Equal(t, domain.RoleUser, got.Role)

	got, err = s.Identities().GetBySearchableHash(ctx, "fingerprint-a")
	require.NoError(t, err)
	require.Equal(t, ident.SecuredHash, got.SecuredHash)
}

func TestGetIdentityNotFound(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	_, err := s.Identities().GetBySecuredHash(ctx, "absent")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Identities().GetBySearchableHash(ctx, "absent")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateIdentityDuplicateHash(t *testing.T) {
	ctx := context.Background()
	s := setupStore(t)

	first := domain.Identity{
		SecuredHash:    "secured-1",
		SearchableHash: "searchable-1",
		Role:           domain.RoleUser,
	}
	require.NoError(t, s.Identities().CreateIdentity(ctx, &first))

	t.Run("secured hash collision", func(t *testing.T) {
		dup := domain.Identity{
			SecuredHash:    "secured-1",
			SearchableHash: "searchable-other",
			Role:           domain.RoleUser,
		}
		err := s.Identities().CreateIdentity(ctx, &dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("searchable hash collision", func(t *testing.T) {
		dup := domain.Identity{
			SecuredHash:    "secured-other",
			SearchableHash: "searchable-1",
			Role:           domain.RoleUser,
		}
		err := s.Identities().CreateIdentity(ctx, &dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})
}

func TestMigrationsIdempotent(t *testing.T) {
	s := setupStore(t)
	require.NoError(t, s.ApplyMigrations())
}
