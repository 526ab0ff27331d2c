// Package entity defines the record types stored in a pattern dataset file
// and the per-kind factories that decode them.
//
// A dataset file is a sequence of typed sections, each preceded by a
// 16-byte Header. Fixed-length kinds (components, maps, properties,
// signatures, root nodes, profile offsets) are addressed by ordinal;
// variable-length kinds (strings, values, profiles, nodes) are addressed by
// byte offset within their section, which is how records reference each
// other on disk.
package entity

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// HeaderSize is the on-disk size of a section header.
const HeaderSize = 16

// Header delimits one typed record region within the dataset file.
//
// The start offset is not stored on disk; it is the reader position
// immediately after the header, so section starts are cumulative by
// construction.
type Header struct {
	// Count is the number of records in the section.
	Count uint32
	// Length is the payload length in bytes. For fixed-length sections
	// Length == Count × stride.
	Length uint32
	// Checksum is the xxHash64 of the section payload, or 0 when the
	// writer did not record one.
	Checksum uint64

	start int64
}

// ReadHeader decodes the section header at the reader's current position
// and records the position after it as the section start.
func ReadHeader(r *reader.Reader) (Header, error) {
	var h Header
	var err error

	if h.Count, err = r.ReadUint32(); err != nil {
		return Header{}, fmt.Errorf("section header count: %w", err)
	}
	if h.Length, err = r.ReadUint32(); err != nil {
		return Header{}, fmt.Errorf("section header length: %w", err)
	}
	if h.Checksum, err = r.ReadUint64(); err != nil {
		return Header{}, fmt.Errorf("section header checksum: %w", err)
	}
	h.start = r.Pos()

	if h.start+int64(h.Length) > r.Size() {
		return Header{}, fmt.Errorf("section of %d bytes at offset %d overruns file of %d bytes: %w",
			h.Length, h.start, r.Size(), errs.ErrInvalidHeaderSize)
	}

	// The body is decoded lazily; skip to the next section header.
	if err = r.SetPos(h.start + int64(h.Length)); err != nil {
		return Header{}, err
	}

	return h, nil
}

// Start returns the byte offset of the first record.
func (h Header) Start() int64 {
	return h.start
}

// End returns the byte offset one past the last record.
func (h Header) End() int64 {
	return h.start + int64(h.Length)
}

// Verify recomputes the payload checksum with a pooled reader positioned at
// the section start. A zero stored checksum always verifies.
func (h Header) Verify(r *reader.Reader) error {
	if h.Checksum == 0 {
		return nil
	}
	if err := r.SetPos(h.start); err != nil {
		return err
	}
	payload, err := r.ReadBytes(int(h.Length))
	if err != nil {
		return err
	}
	if sum := xxhash.Sum64(payload); sum != h.Checksum {
		return fmt.Errorf("section at offset %d: stored %#x computed %#x: %w",
			h.start, h.Checksum, sum, errs.ErrChecksumMismatch)
	}

	return nil
}
