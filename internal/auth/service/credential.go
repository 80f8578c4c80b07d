package service

import (
	"context"
	"errors"
	"time"

	"github.com/veil-id/veil/internal/auth/domain"
	"github.com/veil-id/veil/internal/auth/session"
	"github.com/veil-id/veil/pkg/jwtx"
	"github.com/veil-id/veil/pkg/slogx"
)

var (
	// ErrReuseDetected reports a second redemption of an already-consumed
	// refresh token. It is evidence of compromise: the whole session is torn
	// down, not just the one request rejected.
	ErrReuseDetected = errors.New("refresh_token_reused")
)

// CredentialService drives the token pair lifecycle: issue, rotate, logout
// and administrative revocation. It composes the token codec with the TTL
// revocation store; the identity directory is consulted by callers before
// issuance, never in here.
type CredentialService struct {
	Codec    *jwtx.Codec
	Sessions session.Store
}

// Issue mints a fresh access/refresh pair for an identity and records the
// refresh token as the identity's single current one: an unused marker keyed
// by jti plus the current-refresh pointer, both expiring with the token.
func (s *CredentialService) Issue(ctx context.Context, identity string, role domain.Role) (domain.TokenPair, error) {
	now := time.Now()

	access, err := s.Codec.IssueAccess(identity, string(role), now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, jti, err := s.Codec.IssueRefresh(now)
	if err != nil {
		return domain.TokenPair{}, err
	}

	ttl := s.Codec.RefreshTTL()
	if err := s.Sessions.Put(ctx, session.UsedRefreshKey(jti), session.MarkerUnused, ttl); err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.Sessions.Put(ctx, session.RefreshKey(identity), refresh, ttl); err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate redeems a refresh token for a new pair. The refresh token is
// single-use: the used marker is consumed with an atomic compare-and-set, so
// of two concurrent rotations of the same token exactly one wins, whatever
// the interleaving. A redemption of an already-consumed token is treated as
// compromise and tears the whole session down.
//
// Both tokens are validated cryptographically before anything is written, so
// a garbage request cannot consume a marker. Store failures after the marker
// is consumed surface as session.ErrUnavailable; the caller fails closed.
func (s *CredentialService) Rotate(ctx context.Context, oldAccess, oldRefresh string) (domain.TokenPair, error) {
	l := slogx.FromContext(ctx)

	// 1. Validate both tokens before touching the store. The access token
	// must still verify: it is what binds the subject-less refresh token to
	// an identity.
	jti, err := s.Codec.UniqueIDOf(oldRefresh)
	if err != nil {
		return domain.TokenPair{}, err
	}

	identity, err := s.Codec.SubjectOf(oldAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}
	role, err := s.Codec.RoleOf(oldAccess)
	if err != nil {
		return domain.TokenPair{}, err
	}

	// 2. A revoked refresh token is rejected outright. The old access token
	// is deliberately not blacklist-checked here: a replayed pair carries an
	// access token blacklisted by its own first rotation, and it must still
	// reach the reuse path below.
	revoked, err := s.Sessions.Exists(ctx, session.BlacklistKey(oldRefresh))
	if err != nil {
		return domain.TokenPair{}, err
	}
	if revoked {
		return domain.TokenPair{}, jwtx.ErrInvalidToken
	}

	// 3. Consume the single-use marker. Only the first rotator observes the
	// unused marker; everyone else lands on the reuse path. An absent marker
	// means the session was already torn down (or the token outlived its
	// marker) and gets the same treatment as a replay.
	prev, err := s.Sessions.Swap(ctx, session.UsedRefreshKey(jti), session.MarkerUsed)
	switch {
	case errors.Is(err, session.ErrNotFound):
		return domain.TokenPair{}, s.tearDown(ctx, identity, oldAccess)
	case err != nil:
		return domain.TokenPair{}, err
	case prev != session.MarkerUnused:
		l.Warn("refresh token reuse detected", "jti", jti)
		return domain.TokenPair{}, s.tearDown(ctx, identity, oldAccess)
	}

	// 4. Retire the old access token for the rest of its life.
	if err := s.blacklist(ctx, oldAccess); err != nil {
		return domain.TokenPair{}, err
	}

	// 5. Issue the replacement pair.
	return s.Issue(ctx, identity, domain.Role(role))
}

// Logout ends a session best-effort: the current refresh token is consumed,
// its pointer deleted and the access token blacklisted for its remaining
// life. An unverifiable token returns (false, nil) rather than an error; the
// caller's intent is satisfied either way. Calling it twice is harmless.
func (s *CredentialService) Logout(ctx context.Context, access string) (bool, error) {
	identity, err := s.Codec.SubjectOf(access)
	if err != nil {
		return false, nil
	}

	if err := s.endSession(ctx, identity); err != nil {
		return false, err
	}
	if err := s.blacklist(ctx, access); err != nil {
		return false, err
	}
	return true, nil
}

// Revoke administratively invalidates a token of either kind, blacklisting
// it for its remaining life. When the token carries an identity subject that
// identity's session is ended too. Already-invalid tokens return
// (false, nil).
func (s *CredentialService) Revoke(ctx context.Context, token string) (bool, error) {
	claims, err := s.Codec.Verify(token)
	if err != nil {
		return false, nil
	}

	if claims.Subject != "" {
		if err := s.endSession(ctx, claims.Subject); err != nil {
			return false, err
		}
	}

	if err := s.blacklist(ctx, token); err != nil {
		return false, err
	}
	return true, nil
}

// tearDown revokes everything tied to an identity after a replay: the
// presented access token is blacklisted and the identity's current session
// is ended, so the legitimately-issued successor pair dies with it. Always
// returns ErrReuseDetected unless the store itself failed.
func (s *CredentialService) tearDown(ctx context.Context, identity, access string) error {
	if err := s.blacklist(ctx, access); err != nil {
		return err
	}
	if err := s.endSession(ctx, identity); err != nil {
		return err
	}
	return ErrReuseDetected
}

// endSession consumes the identity's current refresh token, if any, and
// deletes its pointer. Consuming the marker (rather than only dropping the
// pointer) is what makes the current refresh token unredeemable afterwards.
func (s *CredentialService) endSession(ctx context.Context, identity string) error {
	current, err := s.Sessions.Get(ctx, session.RefreshKey(identity))
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if jti, err := s.Codec.UniqueIDOf(current); err == nil {
		if _, err := s.Sessions.Swap(ctx, session.UsedRefreshKey(jti), session.MarkerUsed); err != nil && !errors.Is(err, session.ErrNotFound) {
			return err
		}
	}

	return s.Sessions.Delete(ctx, session.RefreshKey(identity))
}

// blacklist records a token as revoked for exactly its remaining validity.
// Expired tokens are skipped; natural expiry already rejects them.
func (s *CredentialService) blacklist(ctx context.Context, token string) error {
	remaining := s.Codec.RemainingValidity(token, time.Now())
	if remaining <= 0 {
		return nil
	}
	return s.Sessions.Put(ctx, session.BlacklistKey(token), session.BlacklistSentinel, remaining)
}
