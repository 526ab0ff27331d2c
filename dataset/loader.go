package dataset

import (
	"errors"
	"fmt"

	"github.com/uaforge/pattern/cache"
	"github.com/uaforge/pattern/entity"
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

type cacheKind uint8

const (
	cacheNone cacheKind = iota
	cacheLRU
	cachePutThrough
)

// loader maps an integer key to a fully-decoded entity of one kind.
//
// The key is the record ordinal for fixed-length kinds and the byte offset
// within the section for variable-length kinds — the overload the on-disk
// format encodes, preserved at this interface because node and signature
// records reference each other by exactly these keys.
//
// A loader carries at most one cache, selected at dataset construction.
// The cache is a pure data structure: on a miss the loader itself decodes
// through the pool and inserts the result, so no cache holds a reference
// back into the loader.
type loader[T any] struct {
	header  entity.Header
	pool    *reader.Pool
	factory entity.Factory[T]

	fixed  bool
	stride int

	kind  cacheKind
	cache cache.PutCache[int32, T]
}

// newLoader adapts a factory, section header and reader pool into a
// loader, attaching the supplied cache.
//
// The cache may be nil (uncached), a *cache.LRU[int32, T], or any
// cache.PutCache[int32, T]; anything else fails with
// errs.ErrInvalidCacheKind.
func newLoader[T any](header entity.Header, pool *reader.Pool, factory entity.Factory[T], c any) (*loader[T], error) {
	l := &loader[T]{
		header:  header,
		pool:    pool,
		factory: factory,
	}

	stride, err := factory.Stride()
	switch {
	case err == nil:
		l.fixed = true
		l.stride = stride
	case errors.Is(err, errs.ErrUnsupportedOperation):
		// variable-length kind
	default:
		return nil, err
	}

	if l.fixed && int64(header.Length) != int64(header.Count)*int64(stride) {
		return nil, fmt.Errorf("fixed section length %d != count %d x stride %d: %w",
			header.Length, header.Count, stride, errs.ErrMalformed)
	}

	switch cc := c.(type) {
	case nil:
		l.kind = cacheNone
	case *cache.LRU[int32, T]:
		l.kind = cacheLRU
		l.cache = cc
	case cache.PutCache[int32, T]:
		l.kind = cachePutThrough
		l.cache = cc
	default:
		return nil, fmt.Errorf("cache %T for %T: %w", c, l, errs.ErrInvalidCacheKind)
	}

	return l, nil
}

// load returns the entity for key, consulting the cache first.
func (l *loader[T]) load(key int32) (T, error) {
	if l.kind == cacheNone {
		return l.fetch(key)
	}

	if v, ok := l.cache.Get(key); ok {
		return v, nil
	}

	v, err := l.fetch(key)
	if err != nil {
		return v, err
	}
	l.cache.Put(key, v)

	return v, nil
}

// fetch decodes the record from disk: acquire a reader, position, decode,
// release. The release happens on every exit path.
func (l *loader[T]) fetch(key int32) (T, error) {
	var zero T

	var pos int64
	if l.fixed {
		if key < 0 || uint32(key) >= l.header.Count {
			return zero, fmt.Errorf("key %d outside [0, %d): %w", key, l.header.Count, errs.ErrIndexOutOfRange)
		}
		pos = l.header.Start() + int64(l.stride)*int64(key)
	} else {
		if key < 0 || uint32(key) >= l.header.Length {
			return zero, fmt.Errorf("offset %d outside [0, %d): %w", key, l.header.Length, errs.ErrIndexOutOfRange)
		}
		pos = l.header.Start() + int64(key)
	}

	r, err := l.pool.Acquire()
	if err != nil {
		return zero, err
	}
	defer l.pool.Release(r)

	if err := r.SetPos(pos); err != nil {
		return zero, err
	}

	return l.factory.Create(key, r)
}

// nextPosition returns the key of the record following the one decoded at
// position: the next ordinal for fixed-length kinds, position plus the
// decoded record's byte length for variable-length kinds.
func (l *loader[T]) nextPosition(position int32, decoded T) (int32, error) {
	if l.fixed {
		return position + 1, nil
	}

	n, err := l.factory.Length(decoded)
	if err != nil {
		return 0, err
	}

	return position + int32(n), nil
}
