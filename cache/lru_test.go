package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLRUGetPut(t *testing.T) {
	c := NewLRU[int32, string](2)

	_, ok := c.Get(1)
	require.False(t, ok)

	c.Put(1, "one")
	v, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "one", v)

	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
}

func TestLRUEviction(t *testing.T) {
	c := NewLRU[int32, string](2)

	c.Put(1, "one")
	c.Put(2, "two")
	// Touch 1 so 2 becomes the eviction candidate.
	_, ok := c.Get(1)
	require.True(t, ok)

	c.Put(3, "three")

	_, ok = c.Get(2)
	require.False(t, ok)
	_, ok = c.Get(1)
	require.True(t, ok)
	_, ok = c.Get(3)
	require.True(t, ok)
	require.Equal(t, 2, c.Len())
	require.Greater(t, c.Stats().Switches, uint64(0))
}

func TestLRUUpdateExisting(t *testing.T) {
	c := NewLRU[int32, string](2)

	c.Put(1, "one")
	c.Put(1, "uno")
	v, ok := c.Get(1)
	require.True(t, ok)
	require.Equal(t, "uno", v)
	require.Equal(t, 1, c.Len())
}

func TestLRUClear(t *testing.T) {
	c := NewLRU[int32, string](4)
	c.Put(1, "one")
	c.Put(2, "two")

	c.Clear()
	require.Equal(t, 0, c.Len())
	_, ok := c.Get(1)
	require.False(t, ok)
}

func TestLRUBadCapacityPanics(t *testing.T) {
	require.Panics(t, func() { NewLRU[int32, string](0) })
}

func TestLRUNoMissesWithinCapacity(t *testing.T) {
	// A hot working set no larger than the capacity never misses after
	// warm-up.
	const capacity = 64
	c := NewLRU[int32, int](capacity)
	for i := int32(0); i < capacity; i++ {
		c.Put(i, int(i))
	}

	before := c.Stats().Misses
	for round := 0; round < 100; round++ {
		for i := int32(0); i < capacity; i++ {
			_, ok := c.Get(i)
			require.True(t, ok)
		}
	}
	require.Equal(t, before, c.Stats().Misses)
}

func TestLRUConcurrent(t *testing.T) {
	c := NewLRU[int32, int](128)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(seed int32) {
			defer wg.Done()
			for i := int32(0); i < 2000; i++ {
				key := (seed*2000 + i) % 256
				if v, ok := c.Get(key); ok && v != int(key) {
					t.Errorf("key %d returned %d", key, v)
					return
				}
				c.Put(key, int(key))
			}
		}(int32(w))
	}
	wg.Wait()

	require.LessOrEqual(t, c.Len(), 128)
}

func TestShardedPutThrough(t *testing.T) {
	c := NewSharded[string](4, 8)

	_, ok := c.Get(100)
	require.False(t, ok)

	c.Put(100, "profile")
	v, ok := c.Get(100)
	require.True(t, ok)
	require.Equal(t, "profile", v)

	stats := c.Stats()
	require.Equal(t, uint64(1), stats.Hits)
	require.Equal(t, uint64(1), stats.Misses)
}

func TestShardedSpread(t *testing.T) {
	c := NewSharded[int](8, 1024)
	for i := int32(0); i < 512; i++ {
		c.Put(i, int(i))
	}
	require.Equal(t, 512, c.Len())

	// Sequential keys must not collapse into a single shard.
	populated := 0
	for _, s := range c.shards {
		if s.Len() > 0 {
			populated++
		}
	}
	require.Greater(t, populated, 1)
}

func TestShardedBadArgsPanic(t *testing.T) {
	require.Panics(t, func() { NewSharded[int](0, 8) })
	require.Panics(t, func() { NewSharded[int](4, 0) })
}
