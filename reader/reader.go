// Package reader provides the binary cursor and reader pool used to decode
// pattern dataset files.
//
// A Reader is a positioned cursor over a byte Source (an in-memory buffer
// or an open file) with typed little-endian reads. A Reader is not safe for
// concurrent use; the Pool is the synchronisation point — concurrent
// lookups each acquire their own Reader over the shared Source.
package reader

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/uaforge/pattern/endian"
	"github.com/uaforge/pattern/errs"
)

// Source is a random-access byte source shared by all readers of a dataset.
//
// Implementations must support concurrent ReadAt calls: *os.File satisfies
// this via pread, *bytes.Reader trivially.
type Source interface {
	io.ReaderAt
	Size() int64
}

// NewBufferSource returns a Source over an in-memory dataset buffer.
// The buffer is not copied; the caller must not mutate it while the
// dataset is live.
func NewBufferSource(data []byte) Source {
	return bytes.NewReader(data)
}

// FileSource is a Source backed by an open dataset file.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFileSource opens the dataset file at path.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset file %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat dataset file %s: %w", path, err)
	}

	return &FileSource{f: f, size: stat.Size()}, nil
}

// ReadAt implements io.ReaderAt over the underlying file.
func (s *FileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

// Size returns the file size in bytes.
func (s *FileSource) Size() int64 {
	return s.size
}

// Close closes the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}

// Reader is a positioned binary cursor over a Source.
//
// All multi-byte reads are little-endian. Reads past the end of the source
// fail with errs.ErrUnexpectedEOF; malformed length prefixes fail with
// errs.ErrMalformed. The owner repositions the cursor with SetPos before
// each structured decode.
type Reader struct {
	src     Source
	engine  endian.EndianEngine
	pos     int64
	scratch [8]byte
}

// New creates a Reader positioned at offset 0.
func New(src Source) *Reader {
	return &Reader{
		src:    src,
		engine: endian.GetLittleEndianEngine(),
	}
}

// SetPos repositions the cursor. Offsets in [0, Size()] are accepted;
// Size() itself is a valid position from which any read fails with
// ErrUnexpectedEOF.
func (r *Reader) SetPos(pos int64) error {
	if pos < 0 || pos > r.src.Size() {
		return fmt.Errorf("position %d outside [0, %d]: %w", pos, r.src.Size(), errs.ErrUnexpectedEOF)
	}
	r.pos = pos

	return nil
}

// Pos returns the current cursor position.
func (r *Reader) Pos() int64 {
	return r.pos
}

// Size returns the total size of the underlying source.
func (r *Reader) Size() int64 {
	return r.src.Size()
}

// fill reads exactly n bytes (n <= 8) at the cursor into the scratch buffer
// and advances the cursor.
func (r *Reader) fill(n int) ([]byte, error) {
	buf := r.scratch[:n]
	if err := r.readFull(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

func (r *Reader) readFull(buf []byte) error {
	n, err := r.src.ReadAt(buf, r.pos)
	if err != nil {
		if err == io.EOF && n < len(buf) {
			return fmt.Errorf("read %d bytes at offset %d: %w", len(buf), r.pos, errs.ErrUnexpectedEOF)
		}
		if err != io.EOF {
			return fmt.Errorf("read %d bytes at offset %d: %w", len(buf), r.pos, err)
		}
	}
	r.pos += int64(len(buf))

	return nil
}

// ReadUint8 reads one unsigned byte.
func (r *Reader) ReadUint8() (uint8, error) {
	buf, err := r.fill(1)
	if err != nil {
		return 0, err
	}

	return buf[0], nil
}

// ReadUint16 reads a little-endian uint16.
func (r *Reader) ReadUint16() (uint16, error) {
	buf, err := r.fill(2)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint16(buf), nil
}

// ReadUint32 reads a little-endian uint32.
func (r *Reader) ReadUint32() (uint32, error) {
	buf, err := r.fill(4)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint32(buf), nil
}

// ReadUint64 reads a little-endian uint64.
func (r *Reader) ReadUint64() (uint64, error) {
	buf, err := r.fill(8)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint64(buf), nil
}

// ReadInt16 reads a little-endian int16.
func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()

	return int16(v), err
}

// ReadInt32 reads a little-endian int32.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()

	return int32(v), err
}

// ReadInt64 reads a little-endian int64.
func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()

	return int64(v), err
}

// ReadBytes reads exactly n raw bytes into a fresh slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("byte count %d at offset %d: %w", n, r.pos, errs.ErrMalformed)
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := r.readFull(buf); err != nil {
		return nil, err
	}

	return buf, nil
}

// ReadString reads a length-prefixed ASCII string: a uint16 byte count,
// that many bytes, then the record's trailing NUL byte. The NUL is consumed
// and verified but not part of the returned value.
func (r *Reader) ReadString() (string, error) {
	start := r.pos
	n, err := r.ReadUint16()
	if err != nil {
		return "", err
	}
	if int64(n)+1 > r.src.Size()-r.pos {
		return "", fmt.Errorf("string of %d bytes at offset %d overruns source: %w", n, start, errs.ErrMalformed)
	}

	buf, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}

	nul, err := r.ReadUint8()
	if err != nil {
		return "", err
	}
	if nul != 0 {
		return "", fmt.Errorf("string at offset %d missing NUL terminator: %w", start, errs.ErrMalformed)
	}

	return string(buf), nil
}
