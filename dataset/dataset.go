// Package dataset implements the stream-mode device-detection dataset: a
// handle over a binary dataset file that exposes lazy random-access
// decoding of its record sections through a pool of shared binary readers
// and pluggable per-kind caches.
//
// Construction parses the common header and every section header, builds
// the lazy lists, and eagerly materialises the small always-resident
// tables (components, maps, properties, root nodes, profile offsets). All
// matching sits on top of this handle; after construction it serves any
// number of concurrent readers.
package dataset

import (
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/uaforge/pattern/entity"
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/format"
	"github.com/uaforge/pattern/reader"
)

// Dataset is the top-level handle over a parsed dataset file.
//
// The zero value is not usable; construct with Open or FromBuffer. A
// Dataset owns its reader pool and every in-memory list. Closing it
// releases the pool and, for temporary files, deletes the backing file.
// After Close, lookups that need the reader pool, Verify, and access to the
// always-resident lists fail with errs.ErrClosed; a lookup whose entity is
// already held by a configured cache still returns it.
type Dataset struct {
	meta Meta

	src  reader.Source
	pool *reader.Pool

	path         string
	isTemp       bool
	lastModified time.Time

	closed atomic.Bool

	strings    *StreamList[entity.AsciiString]
	values     *StreamList[entity.Value]
	profiles   *StreamList[entity.Profile]
	signatures *StreamList[entity.Signature]
	nodes      *StreamList[entity.Node]

	components     *FixedList[entity.Component]
	maps           *FixedList[entity.Map]
	properties     *PropertiesList
	rootNodes      *FixedList[entity.RootNode]
	profileOffsets *FixedList[entity.ProfileOffset]

	signatureNodeOffsets       *IntegerList
	nodeRankedSignatureIndexes *IntegerList
	rankedSignatureIndexes     *IntegerList

	sectionHeaders map[string]entity.Header

	profileOffsetByID map[int32]int32
	httpHeaders       []string
}

// Meta returns the dataset's common header.
func (ds *Dataset) Meta() Meta {
	return ds.meta
}

// Version returns the dataset schema version.
func (ds *Dataset) Version() format.Version {
	return ds.meta.Version
}

// LastModified returns the dataset's last-modified date.
func (ds *Dataset) LastModified() time.Time {
	return ds.lastModified
}

// Strings returns the lazy strings list.
func (ds *Dataset) Strings() *StreamList[entity.AsciiString] {
	return ds.strings
}

// Values returns the lazy values list.
func (ds *Dataset) Values() *StreamList[entity.Value] {
	return ds.values
}

// Profiles returns the lazy profiles list.
func (ds *Dataset) Profiles() *StreamList[entity.Profile] {
	return ds.profiles
}

// Signatures returns the lazy signatures list.
func (ds *Dataset) Signatures() *StreamList[entity.Signature] {
	return ds.signatures
}

// Nodes returns the lazy nodes list. Keys are byte offsets within the
// nodes section, as produced by other nodes' child references.
func (ds *Dataset) Nodes() *StreamList[entity.Node] {
	return ds.nodes
}

// Components returns the always-resident components list.
func (ds *Dataset) Components() *FixedList[entity.Component] {
	return ds.components
}

// Maps returns the always-resident maps list.
func (ds *Dataset) Maps() *FixedList[entity.Map] {
	return ds.maps
}

// Properties returns the always-resident properties list.
func (ds *Dataset) Properties() *PropertiesList {
	return ds.properties
}

// RootNodes returns the always-resident root nodes list.
func (ds *Dataset) RootNodes() *FixedList[entity.RootNode] {
	return ds.rootNodes
}

// ProfileOffsets returns the always-resident profile offsets list.
func (ds *Dataset) ProfileOffsets() *FixedList[entity.ProfileOffset] {
	return ds.profileOffsets
}

// RankedSignatureIndexes returns the packed ranked-signature index list.
func (ds *Dataset) RankedSignatureIndexes() *IntegerList {
	return ds.rankedSignatureIndexes
}

// String resolves a string offset to its text.
func (ds *Dataset) String(offset int32) (string, error) {
	s, err := ds.strings.At(offset)
	if err != nil {
		return "", err
	}

	return s.Value, nil
}

// ProfileByID returns the profile with the given public id, resolving it
// through the profile offsets table.
func (ds *Dataset) ProfileByID(id int32) (entity.Profile, error) {
	off, ok := ds.profileOffsetByID[id]
	if !ok {
		return entity.Profile{}, fmt.Errorf("profile id %d: %w", id, errs.ErrIndexOutOfRange)
	}

	return ds.profiles.At(off)
}

// SignatureNodeOffsets returns the node byte-offsets of a signature. V31
// signatures carry them inline; V32 signatures reference the packed
// signatureNodeOffsets list.
func (ds *Dataset) SignatureNodeOffsets(s entity.Signature) ([]int32, error) {
	if ds.meta.Version == format.PatternV31 {
		return s.NodeOffsets, nil
	}

	return ds.signatureNodeOffsets.Range(s.FirstNodeOffsetIndex, int32(s.NodeCount))
}

// NodeRankedSignatureIndexes returns a node's ranked-signature indices.
// V31 nodes carry them inline; V32 nodes reference the packed
// nodeRankedSignatureIndexes list.
func (ds *Dataset) NodeRankedSignatureIndexes(n entity.Node) ([]int32, error) {
	if ds.meta.Version == format.PatternV31 {
		return n.RankedSignatureIndexes, nil
	}
	if n.RankedSignatureCount == 0 {
		return nil, nil
	}

	return ds.nodeRankedSignatureIndexes.Range(n.FirstRankedSignatureIndex, int32(n.RankedSignatureCount))
}

// HTTPHeaders returns the distinct HTTP header names the dataset's
// components consider relevant. V31 datasets always report "User-Agent".
func (ds *Dataset) HTTPHeaders() []string {
	return ds.httpHeaders
}

// PoolStats returns the reader pool's diagnostic counters.
func (ds *Dataset) PoolStats() reader.PoolStats {
	return ds.pool.Stats()
}

// Verify recomputes the checksum of every section that carries one.
// Lazily-decoded sections are verified by a full positioned read, so this
// is an offline integrity check, not a hot-path operation.
func (ds *Dataset) Verify() error {
	if ds.closed.Load() {
		return errs.ErrClosed
	}

	r, err := ds.pool.Acquire()
	if err != nil {
		return err
	}
	defer ds.pool.Release(r)

	for name, h := range ds.sectionHeaders {
		if err := h.Verify(r); err != nil {
			return fmt.Errorf("section %s: %w", name, err)
		}
	}

	return nil
}

// Close releases the reader pool and the byte source, and deletes the
// backing file if the dataset was built from a temporary file. Close is
// idempotent; after it returns, lookups that need the reader pool, Verify,
// and access to the always-resident lists fail with errs.ErrClosed. The
// caches are not cleared, so cached entities are still returned.
func (ds *Dataset) Close() error {
	if ds.closed.Swap(true) {
		return nil
	}

	ds.pool.Close()

	var err error
	if closer, ok := ds.src.(io.Closer); ok {
		err = closer.Close()
	}

	if ds.isTemp && ds.path != "" {
		if rmErr := os.Remove(ds.path); rmErr != nil && err == nil {
			err = rmErr
		}
	}

	return err
}
