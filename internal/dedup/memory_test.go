package dedup

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_MarkSeenForget(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	seen, err := s.Seen(ctx, "ord-1")
	require.NoError(t, err)
	assert.False(t, seen)

	added, err := s.Mark(ctx, "ord-1")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Mark(ctx, "ord-1")
	require.NoError(t, err)
	assert.False(t, added)

	seen, err = s.Seen(ctx, "ord-1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, s.Forget(ctx, "ord-1"))
	seen, err = s.Seen(ctx, "ord-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMemoryStore_ClearsWhenFull(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	for i := range 3 {
		added, err := s.Mark(ctx, fmt.Sprintf("ord-%d", i))
		require.NoError(t, err)
		require.True(t, added)
	}
	assert.Equal(t, 3, s.Len())

	added, err := s.Mark(ctx, "ord-2")
	require.NoError(t, err)
	assert.False(t, added, "duplicate at the cap does not trigger a clear")
	assert.Equal(t, 3, s.Len())

	added, err = s.Mark(ctx, "ord-3")
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, 1, s.Len())

	seen, _ := s.Seen(ctx, "ord-0")
	assert.False(t, seen, "previous ids are forgotten after a clear")
}

func TestMemoryStore_NeverExceedsCap(t *testing.T) {
	const maxSize = 5
	s := NewMemoryStore(maxSize)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 200 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Mark(ctx, fmt.Sprintf("ord-%d", i))
			assert.LessOrEqual(t, s.Len(), maxSize)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, s.Len(), maxSize)
}

func TestMemoryStore_ConcurrentMarkClaimsOnce(t *testing.T) {
	s := NewMemoryStore(100)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if added, _ := s.Mark(ctx, "ord-race"); added {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
}

func TestMemoryStore_ZeroCapIsUnbounded(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()

	for i := range 50 {
		_, err := s.Mark(ctx, fmt.Sprintf("ord-%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 50, s.Len())
}
