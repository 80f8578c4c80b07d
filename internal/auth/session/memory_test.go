package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, UsedRefreshKey("jti-1"), MarkerUnused, time.Minute))

	val, err := s.Get(ctx, UsedRefreshKey("jti-1"))
	require.NoError(t, err)
	require.Equal(t, MarkerUnused, val)

	ok, err := s.Exists(ctx, UsedRefreshKey("jti-1"))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "absent")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "k", "v", time.Minute))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is a no-op, not an error.
	require.NoError(t, s.Delete(ctx, "k"))
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	current := time.Now()
	s.now = func() time.Time { return current }

	require.NoError(t, s.Put(ctx, "k", "v", time.Minute))

	current = current.Add(59 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	current = current.Add(2 * time.Second)
	_, err = s.Get(ctx, "k")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreSwap(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	t.Run("swap on missing key writes nothing", func(t *testing.T) {
		_, err := s.Swap(ctx, "absent", MarkerUsed)
		require.ErrorIs(t, err, ErrNotFound)

		_, err = s.Get(ctx, "absent")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("swap returns previous value and keeps TTL", func(t *testing.T) {
		current := time.Now()
		s.now = func() time.Time { return current }

		require.NoError(t, s.Put(ctx, "k", MarkerUnused, time.Minute))

		prev, err := s.Swap(ctx, "k", MarkerUsed)
		require.NoError(t, err)
		require.Equal(t, MarkerUnused, prev)

		val, err := s.Get(ctx, "k")
		require.NoError(t, err)
		require.Equal(t, MarkerUsed, val)

		// TTL unchanged by the swap: the key still dies at the original deadline.
		current = current.Add(61 * time.Second)
		_, err = s.Get(ctx, "k")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("swap on expired key reports not found", func(t *testing.T) {
		current := time.Now()
		s.now = func() time.Time { return current }

		require.NoError(t, s.Put(ctx, "dead", MarkerUnused, time.Second))
		current = current.Add(2 * time.Second)

		_, err := s.Swap(ctx, "dead", MarkerUsed)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStoreSwapRace(t *testing.T) {
	// Many goroutines race to consume the same marker; exactly one must
	// observe MarkerUnused.
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "contested", MarkerUnused, time.Minute))

	const racers = 32
	var wg sync.WaitGroup
	winners := make(chan struct{}, racers)

	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prev, err := s.Swap(ctx, "contested", MarkerUsed)
			if err == nil && prev == MarkerUnused {
				winners <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(winners)

	require.Len(t, winners, 1, "exactly one racer may win the swap")
}

func TestKeyHelpers(t *testing.T) {
	require.Equal(t, "used_refresh:abc", UsedRefreshKey("abc"))
	require.Equal(t, "blacklist:tok", BlacklistKey("tok"))
	require.Equal(t, "refresh:id", RefreshKey("id"))
}
