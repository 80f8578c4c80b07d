package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCodec(t *testing.T, accessTTL, refreshTTL time.Duration) *Codec {
	t.Helper()
	codec, err := NewCodec([]byte("test-signing-key-0123456789abcdef"), "veil-auth", accessTTL, refreshTTL)
	require.NoError(t, err)
	return codec
}

func TestNewCodecRejectsEmptyKey(t *testing.T) {
	_, err := NewCodec(nil, "veil-auth", time.Minute, time.Hour)
	require.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := testCodec(t, 15*time.Minute, time.Hour)
	now := time.Now()

	token, err := codec.IssueAccess("raw-identity-token", "USER", now)
	require.NoError(t, err)

	claims, err := codec.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "raw-identity-token", claims.Subject)
	require.Equal(t, "USER", claims.Role)
	require.Empty(t, claims.ID, "access tokens carry no jti")

	subject, err := codec.SubjectOf(token)
	require.NoError(t, err)
	require.Equal(t, "raw-identity-token", subject)

	role, err := codec.RoleOf(token)
	require.NoError(t, err)
	require.Equal(t, "USER", role)

	_, err = codec.UniqueIDOf(token)
	require.ErrorIs(t, err, ErrClaimMissing)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := testCodec(t, time.Minute, time.Hour)
	now := time.Now()

	token, jti, err := codec.IssueRefresh(now)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	got, err := codec.UniqueIDOf(token)
	require.NoError(t, err)
	require.Equal(t, jti, got)

	// A refresh token authenticates no identity by itself.
	_, err = codec.SubjectOf(token)
	require.ErrorIs(t, err, ErrClaimMissing)
	_, err = codec.RoleOf(token)
	require.ErrorIs(t, err, ErrClaimMissing)
}

func TestRefreshTokenIDsAreUnique(t *testing.T) {
	codec := testCodec(t, time.Minute, time.Hour)
	now := time.Now()

	_, jti1, err := codec.IssueRefresh(now)
	require.NoError(t, err)
	_, jti2, err := codec.IssueRefresh(now)
	require.NoError(t, err)
	require.NotEqual(t, jti1, jti2)
}

func TestVerifyExpired(t *testing.T) {
	codec := testCodec(t, time.Minute, time.Hour)
	issued := time.Now().Add(-2 * time.Minute)

	token, err := codec.IssueAccess("subject", "USER", issued)
	require.NoError(t, err)

	_, err = codec.Verify(token)
	require.ErrorIs(t, err, ErrExpired)
}

func TestVerifyCollapsesFailureModes(t *testing.T) {
	codec := testCodec(t, time.Minute, time.Hour)
	otherKeyed, err := NewCodec([]byte("a-completely-different-key-......"), "veil-auth", time.Minute, time.Hour)
	require.NoError(t, err)

	forged, err := otherKeyed.IssueAccess("subject", "USER", time.Now())
	require.NoError(t, err)

	valid, err := codec.IssueAccess("subject", "USER", time.Now())
	require.NoError(t, err)
	parts := strings.Split(valid, ".")
	tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"empty", ""},
		{"wrong key", forged},
		{"tampered signature", tampered},
		{"alg none header", "eyJhbGciOiJub25lIn0.eyJzdWIiOiJ4In0."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken,
				"all non-expiry failures must collapse to ErrInvalidToken")
		})
	}
}

func TestForgedExpiredTokenIsInvalidNotExpired(t *testing.T) {
	codec := testCodec(t, time.Minute, time.Hour)
	otherKeyed, err := NewCodec([]byte("a-completely-different-key-......"), "veil-auth", time.Minute, time.Hour)
	require.NoError(t, err)

	forgedExpired, err := otherKeyed.IssueAccess("subject", "USER", time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, err = codec.Verify(forgedExpired)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.NotErrorIs(t, err, ErrExpired)
}

func TestRemainingValidity(t *testing.T) {
	codec := testCodec(t, 10*time.Minute, time.Hour)
	now := time.Now()

	token, err := codec.IssueAccess("subject", "USER", now)
	require.NoError(t, err)

	t.Run("full validity at issuance", func(t *testing.T) {
		remaining := codec.RemainingValidity(token, now)
		require.InDelta(t, (10 * time.Minute).Seconds(), remaining.Seconds(), 1.5)
	})

	t.Run("strictly decreasing in now", func(t *testing.T) {
		earlier := codec.RemainingValidity(token, now.Add(time.Minute))
		later := codec.RemainingValidity(token, now.Add(2*time.Minute))
		require.Greater(t, earlier, later)
	})

	t.Run("zero once past expiry", func(t *testing.T) {
		require.Zero(t, codec.RemainingValidity(token, now.Add(11*time.Minute)))
		require.Zero(t, codec.RemainingValidity(token, now.Add(24*time.Hour)))
	})

	t.Run("zero for garbage", func(t *testing.T) {
		require.Zero(t, codec.RemainingValidity("not-a-token", now))
		require.Zero(t, codec.RemainingValidity("", now))
	})

	t.Run("zero for forged token", func(t *testing.T) {
		otherKeyed, err := NewCodec([]byte("a-completely-different-key-......"), "veil-auth", time.Minute, time.Hour)
		require.NoError(t, err)
		forged, err := otherKeyed.IssueAccess("subject", "USER", now)
		require.NoError(t, err)
		require.Zero(t, codec.RemainingValidity(forged, now))
	})

	t.Run("still measurable after expiry-validated parse would fail", func(t *testing.T) {
		// An expired token has zero remaining validity but must not panic
		// or error out of the clamped accessor.
		expired, err := codec.IssueAccess("subject", "USER", now.Add(-time.Hour))
		require.NoError(t, err)
		require.Zero(t, codec.RemainingValidity(expired, now))
	})
}

func TestDefaultTTLsApplied(t *testing.T) {
	codec, err := NewCodec([]byte("key"), "veil-auth", 0, 0)
	require.NoError(t, err)
	require.Equal(t, DefaultAccessTokenTTL, codec.AccessTTL())
	require.Equal(t, DefaultRefreshTokenTTL, codec.RefreshTTL())
}
