package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veil-id/veil/internal/auth/domain"
	"github.com/veil-id/veil/internal/auth/store"
	"github.com/veil-id/veil/pkg/cryptox"
	"github.com/veil-id/veil/pkg/slogx"
)

var (
	// ErrIdentityNotFound covers both an index miss and a hash mismatch.
	// The two cases are deliberately indistinguishable so a caller cannot
	// probe which identities exist.
	ErrIdentityNotFound = errors.New("identity_not_found")
)

// DirectoryService registers and resolves pseudonymous identities. The raw
// identity token is never persisted; only its two derived hashes are:
//
//   - secured hash: argon2id, salted and peppered. The trust anchor. A raw
//     token is only accepted after verifying against it.
//   - searchable hash: deterministic sha256 fingerprint. Pure lookup index;
//     matching it proves nothing on its own.
type DirectoryService struct {
	Store store.Store

	cache *lookupCache
}

func NewDirectoryService(st store.Store) *DirectoryService {
	return &DirectoryService{
		Store: st,
		cache: newLookupCache(),
	}
}

// Register mints a fresh 256-bit raw identity token, persists its derived
// hashes and returns the raw token. This is the only time the raw token
// leaves the service; it cannot be recovered later.
func (s *DirectoryService) Register(ctx context.Context, role domain.Role) (string, domain.Identity, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("generating identity token: %w", err)
	}

	securedHash, err := cryptox.HashIdentityToken(raw)
	if err != nil {
		return "", domain.Identity{}, fmt.Errorf("hashing identity token: %w", err)
	}

	ident := domain.Identity{
		SecuredHash:    securedHash,
		SearchableHash: cryptox.Fingerprint(raw),
		Role:           role,
	}
	if err := s.Store.Identities().CreateIdentity(ctx, &ident); err != nil {
		return "", domain.Identity{}, err
	}

	s.cache.put(raw, securedHash)
	return raw, ident, nil
}

// FindByRaw resolves a presented raw identity token to its identity record.
//
// The lookup cache only short-circuits the index query: even on a hit the
// raw token is re-verified against the secured hash before anything is
// returned. Index misses and hash mismatches both collapse to
// ErrIdentityNotFound.
func (s *DirectoryService) FindByRaw(ctx context.Context, raw string) (domain.Identity, error) {
	l := slogx.FromContext(ctx)

	// 1. Cache path: known secured hash for this raw token.
	if securedHash, ok := s.cache.get(raw); ok {
		ident, err := s.Store.Identities().GetBySecuredHash(ctx, securedHash)
		if err == nil {
			if cryptox.VerifyIdentityToken(raw, ident.SecuredHash) == nil {
				return ident, nil
			}
			l.Warn("cached secured hash failed re-verification, evicting")
		} else if !errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, err
		}
		// Stale or bad entry; fall through to the index.
		s.cache.drop(raw)
	}

	// 2. Index path: fingerprint lookup, then verify against the secured hash.
	ident, err := s.Store.Identities().GetBySearchableHash(ctx, cryptox.Fingerprint(raw))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Identity{}, ErrIdentityNotFound
		}
		return domain.Identity{}, err
	}

	if err := cryptox.VerifyIdentityToken(raw, ident.SecuredHash); err != nil {
		l.Warn("searchable hash matched but secured hash did not",
			slog.Int64("identity_id", ident.ID),
		)
		return domain.Identity{}, ErrIdentityNotFound
	}

	s.cache.put(raw, ident.SecuredHash)
	return ident, nil
}

// Invalidate drops the cache entry for a raw identity token.
func (s *DirectoryService) Invalidate(raw string) {
	s.cache.drop(raw)
}
