package reader

import (
	"sync"

	"github.com/uaforge/pattern/errs"
)

// Pool recycles Readers bound to a single Source so concurrent lookups do
// not pay a per-call reader construction.
//
// Acquire returns an idle Reader or constructs a new one on demand; there
// is no high-water limit. Release returns the Reader to the idle set.
//
// Two diagnostic counters are exposed: Created grows monotonically each
// time a new Reader is constructed, and Queued tracks how many readers are
// waiting in the idle set. Once the pool is closed and every in-flight
// reader has been released, Created == Queued — a cheap leak check for
// callers that must not lose readers on error paths.
type Pool struct {
	mu     sync.Mutex
	src    Source
	idle   []*Reader
	closed bool

	created uint64
	queued  uint64
}

// PoolStats is a snapshot of the pool's diagnostic counters.
type PoolStats struct {
	// Created counts readers ever constructed by Acquire.
	Created uint64
	// Queued counts readers returned to the pool and not yet handed out
	// again.
	Queued uint64
}

// NewPool creates a pool of Readers over src.
func NewPool(src Source) *Pool {
	return &Pool{src: src}
}

// Acquire returns an idle Reader, constructing a new one when none is
// available. It fails with errs.ErrClosed after Close.
func (p *Pool) Acquire() (*Reader, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, errs.ErrClosed
	}
	if n := len(p.idle); n > 0 {
		r := p.idle[n-1]
		p.idle[n-1] = nil
		p.idle = p.idle[:n-1]
		p.queued--

		return r, nil
	}
	p.created++

	return New(p.src), nil
}

// Release returns a Reader to the idle set. Releasing after Close still
// counts the reader as queued — a reader in flight during Close must not
// show up as leaked — but the reader itself is discarded.
func (p *Pool) Release(r *Reader) {
	if r == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queued++
	if p.closed {
		return
	}
	p.idle = append(p.idle, r)
}

// Close drains and discards every idle Reader. Subsequent Acquire calls
// fail with errs.ErrClosed. Close is idempotent. The counters keep their
// values so the Created == Queued invariant stays observable.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.idle = nil
}

// Stats returns a snapshot of the diagnostic counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return PoolStats{Created: p.created, Queued: p.queued}
}
