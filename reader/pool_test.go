package reader

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uaforge/pattern/errs"
)

func TestPoolAcquireRelease(t *testing.T) {
	p := NewPool(NewBufferSource([]byte{1, 2, 3, 4}))

	r1, err := p.Acquire()
	require.NoError(t, err)
	r2, err := p.Acquire()
	require.NoError(t, err)
	require.NotSame(t, r1, r2)

	stats := p.Stats()
	require.Equal(t, uint64(2), stats.Created)
	require.Equal(t, uint64(0), stats.Queued)

	p.Release(r1)
	p.Release(r2)

	stats = p.Stats()
	require.Equal(t, uint64(2), stats.Created)
	require.Equal(t, uint64(2), stats.Queued)

	// Reuse does not create a new reader.
	r3, err := p.Acquire()
	require.NoError(t, err)
	require.Same(t, r2, r3)
	require.Equal(t, uint64(2), p.Stats().Created)
	p.Release(r3)
}

func TestPoolClose(t *testing.T) {
	p := NewPool(NewBufferSource([]byte{1}))

	r, err := p.Acquire()
	require.NoError(t, err)

	p.Close()

	_, err = p.Acquire()
	require.ErrorIs(t, err, errs.ErrClosed)

	// A reader in flight during Close is still accounted for on release.
	p.Release(r)
	stats := p.Stats()
	require.Equal(t, stats.Created, stats.Queued)

	// Idempotent.
	p.Close()
}

func TestPoolSymmetryUnderConcurrency(t *testing.T) {
	p := NewPool(NewBufferSource(make([]byte, 4096)))

	const workers = 8
	const iterations = 10000

	var wg sync.WaitGroup
	errc := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				r, err := p.Acquire()
				if err != nil {
					errc <- err
					return
				}
				if err := r.SetPos((seed + int64(i)*31) % 4096); err != nil {
					p.Release(r)
					errc <- err
					return
				}
				p.Release(r)
			}
		}(int64(w))
	}
	wg.Wait()
	close(errc)
	for err := range errc {
		require.NoError(t, err)
	}

	p.Close()

	stats := p.Stats()
	require.Equal(t, stats.Created, stats.Queued)
	require.LessOrEqual(t, stats.Created, uint64(workers))
}
