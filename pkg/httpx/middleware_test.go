package httpx_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/veil-id/veil/pkg/httpx"
	"github.com/veil-id/veil/pkg/jwtx"
)

type fakeBlocklist struct {
	blocked map[string]bool
	err     error
	calls   int
}

func (b *fakeBlocklist) IsBlocked(_ context.Context, token string) (bool, error) {
	b.calls++
	if b.err != nil {
		return false, b.err
	}
	return b.blocked[token], nil
}

func testCodec(t *testing.T) *jwtx.Codec {
	t.Helper()
	codec, err := jwtx.NewCodec([]byte("test-signing-key-0123456789abcdef"), "veil-test", time.Minute, time.Hour)
	require.NoError(t, err)
	return codec
}

func echoIdentity() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Identity", httpx.IdentityFromContext(r.Context()))
		w.Header().Set("X-Role", httpx.RoleFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	tag := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := httpx.Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}), tag("outer"), tag("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"outer", "inner"}, order)
}

func TestEntryFilterNoToken(t *testing.T) {
	bl := &fakeBlocklist{}
	h := httpx.EntryFilter(testCodec(t), bl)(echoIdentity())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Identity"))
	require.Zero(t, bl.calls, "no blocklist lookup without a token")
}

func TestEntryFilterValidToken(t *testing.T) {
	codec := testCodec(t)
	access, err := codec.IssueAccess("identity-a", "USER", time.Now())
	require.NoError(t, err)

	h := httpx.EntryFilter(codec, &fakeBlocklist{})(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "identity-a", rec.Header().Get("X-Identity"))
	require.Equal(t, "USER", rec.Header().Get("X-Role"))
}

func TestEntryFilterBlockedBeforeSignature(t *testing.T) {
	// A blocklisted token is rejected even when it would never verify: the
	// blocklist check runs first and short-circuits.
	bl := &fakeBlocklist{blocked: map[string]bool{"revoked-token": true}}
	h := httpx.EntryFilter(testCodec(t), bl)(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer revoked-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "invalid_token")
}

func TestEntryFilterBlockedValidSignature(t *testing.T) {
	codec := testCodec(t)
	access, err := codec.IssueAccess("identity-a", "USER", time.Now())
	require.NoError(t, err)

	bl := &fakeBlocklist{blocked: map[string]bool{access: true}}
	h := httpx.EntryFilter(codec, bl)(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEntryFilterStoreFailureFailsClosed(t *testing.T) {
	bl := &fakeBlocklist{err: errors.New("store down")}
	h := httpx.EntryFilter(testCodec(t), bl)(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestEntryFilterInvalidTokenPassesThrough(t *testing.T) {
	h := httpx.EntryFilter(testCodec(t), &fakeBlocklist{})(echoIdentity())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	// Public routes exist; an unverifiable token degrades to unauthenticated.
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Identity"))
}

func TestRequireRole(t *testing.T) {
	codec := testCodec(t)
	protected := httpx.Chain(echoIdentity(),
		httpx.EntryFilter(codec, &fakeBlocklist{}),
		httpx.RequireRole("ADMIN"),
	)

	t.Run("unauthenticated is 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role is 403", func(t *testing.T) {
		access, err := codec.IssueAccess("identity-a", "USER", time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("matching role passes", func(t *testing.T) {
		access, err := codec.IssueAccess("identity-b", "ADMIN", time.Now())
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "identity-b", rec.Header().Get("X-Identity"))
	})
}
