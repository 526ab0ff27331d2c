package dataset

import (
	"time"

	"github.com/uaforge/pattern/cache"
	"github.com/uaforge/pattern/entity"
)

// CacheType identifies the entity kinds that accept a cache in stream
// mode.
type CacheType uint8

const (
	StringsCache CacheType = iota
	NodesCache
	ValuesCache
	ProfilesCache
	SignaturesCache
)

// Default cache sizes used by WithDefaultCaches.
const (
	StringsCacheSize    = 5000
	NodesCacheSize      = 15000
	ValuesCacheSize     = 5000
	ProfilesCacheSize   = 600
	SignaturesCacheSize = 500
)

type config struct {
	caches        map[CacheType]any
	defaultCaches bool
	lastModified  time.Time
	isTemp        bool
}

// Option configures dataset construction.
type Option func(*config)

// WithCache attaches a cache to one entity kind. The cache must be a
// *cache.LRU or a cache.PutCache keyed by int32 for the kind's entity
// type; anything else fails construction with errs.ErrInvalidCacheKind.
// An explicit cache overrides the default for that kind.
func WithCache(t CacheType, c any) Option {
	return func(cfg *config) {
		cfg.caches[t] = c
	}
}

// WithDefaultCaches attaches LRU caches of the recommended sizes to every
// cacheable kind: strings 5000, nodes 15000, values 5000, profiles 600,
// signatures 500.
func WithDefaultCaches() Option {
	return func(cfg *config) {
		cfg.defaultCaches = true
	}
}

// WithLastModified overrides the dataset's last-modified date. Without it,
// file-backed datasets use the file's mtime and buffer-backed datasets are
// stamped with the time of construction.
func WithLastModified(t time.Time) Option {
	return func(cfg *config) {
		cfg.lastModified = t
	}
}

// WithTempFile marks a file-backed dataset's file as temporary: it is
// deleted when the dataset is closed.
func WithTempFile() Option {
	return func(cfg *config) {
		cfg.isTemp = true
	}
}

func buildConfig(opts []Option) *config {
	cfg := &config{caches: make(map[CacheType]any, 5)}
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// cacheFor resolves the cache configured for a kind, falling back to the
// default LRU when WithDefaultCaches was requested. The fallback is built
// here because each kind's default is typed to its entity.
func (cfg *config) cacheFor(t CacheType) any {
	if c, ok := cfg.caches[t]; ok {
		return c
	}
	if !cfg.defaultCaches {
		return nil
	}

	switch t {
	case StringsCache:
		return cache.NewLRU[int32, entity.AsciiString](StringsCacheSize)
	case NodesCache:
		return cache.NewLRU[int32, entity.Node](NodesCacheSize)
	case ValuesCache:
		return cache.NewLRU[int32, entity.Value](ValuesCacheSize)
	case ProfilesCache:
		return cache.NewLRU[int32, entity.Profile](ProfilesCacheSize)
	case SignaturesCache:
		return cache.NewLRU[int32, entity.Signature](SignaturesCacheSize)
	default:
		return nil
	}
}
