// Package pattern provides stream-mode device detection over a compact
// binary dataset file.
//
// Given an HTTP User-Agent (or a bundle of HTTP headers), the library
// identifies the device, platform and browser that produced it by matching
// against a precompiled signature database, returning typed properties
// such as IsMobile. The dataset is decoded lazily: large record sections
// (strings, values, profiles, signatures, nodes) stay on disk and are
// decoded on demand through a pool of shared binary readers with pluggable
// per-kind caches, while the small always-resident tables are materialised
// at open time.
//
// # Basic Usage
//
// Opening a dataset file and matching a User-Agent:
//
//	import "github.com/uaforge/pattern"
//
//	ds, err := pattern.Open("51Degrees-Lite.dat", dataset.WithDefaultCaches())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ds.Close()
//
//	provider := pattern.NewProvider(ds)
//	m, err := provider.Match(userAgent)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	isMobile, _ := m.Values("IsMobile")
//	deviceID := m.DeviceID()
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the dataset
// and match packages, simplifying the most common use cases. For advanced
// usage — custom caches per entity kind, direct section access — use those
// packages directly.
package pattern

import (
	"fmt"
	"os"

	"github.com/uaforge/pattern/compress"
	"github.com/uaforge/pattern/dataset"
	"github.com/uaforge/pattern/format"
	"github.com/uaforge/pattern/match"
)

// Open constructs a stream-mode dataset over the file at path.
//
// Options control caching (dataset.WithDefaultCaches, dataset.WithCache),
// the last-modified date (dataset.WithLastModified) and temp-file
// handling (dataset.WithTempFile).
func Open(path string, opts ...dataset.Option) (*dataset.Dataset, error) {
	return dataset.Open(path, opts...)
}

// FromBuffer constructs a stream-mode dataset over an in-memory buffer
// (memory-mapped mode). The buffer is not copied and must stay immutable
// while the dataset is live.
func FromBuffer(data []byte, opts ...dataset.Option) (*dataset.Dataset, error) {
	return dataset.FromBuffer(data, opts...)
}

// OpenCompressed opens a dataset file distributed in compressed form. The
// file is decompressed to a temporary file which is deleted when the
// returned dataset is closed.
func OpenCompressed(path string, compression format.CompressionType, opts ...dataset.Option) (*dataset.Dataset, error) {
	codec, err := compress.GetCodec(compression)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read compressed dataset %s: %w", path, err)
	}

	raw, err := codec.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress dataset %s: %w", path, err)
	}

	tmp, err := os.CreateTemp("", "pattern-*.dat")
	if err != nil {
		return nil, err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("write temp dataset: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	ds, err := dataset.Open(tmp.Name(), append(opts, dataset.WithTempFile())...)
	if err != nil {
		// Open removes the temp file on construction failure; guard
		// against the paths that fail before it takes ownership.
		_ = os.Remove(tmp.Name())
		return nil, err
	}

	return ds, nil
}

// NewProvider creates a detection provider over an open dataset.
func NewProvider(ds *dataset.Dataset) *match.Provider {
	return match.NewProvider(ds)
}
