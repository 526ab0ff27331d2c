// Package errs defines the sentinel error values shared by every package in
// the pattern module.
//
// All errors returned on the read path wrap one of these sentinels with
// fmt.Errorf("...: %w", ...) so callers can classify failures with
// errors.Is while still receiving section and offset context in the
// message.
package errs

import "errors"

var (
	// ErrUnexpectedEOF is returned when a read extends past the end of the
	// underlying byte source.
	ErrUnexpectedEOF = errors.New("unexpected end of data")

	// ErrMalformed is returned when an on-disk invariant is violated, such
	// as a negative string length or a record straddling its section end.
	ErrMalformed = errors.New("malformed record")

	// ErrInvalidHeaderSize is returned when a section header delimits a
	// region that does not fit the file.
	ErrInvalidHeaderSize = errors.New("invalid header size")

	// ErrUnsupportedVersion is returned when the dataset format version is
	// not 3.1 or 3.2.
	ErrUnsupportedVersion = errors.New("unsupported dataset version")

	// ErrInvalidCacheKind is returned at dataset construction when a
	// configured cache is neither an LRU nor a put-through cache.
	ErrInvalidCacheKind = errors.New("invalid cache kind")

	// ErrClosed is returned by any operation attempted after the dataset or
	// reader pool has been closed.
	ErrClosed = errors.New("closed")

	// ErrIndexOutOfRange is returned when a key falls outside a
	// fixed-length section's [0, count) range.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnsupportedOperation is returned by entity factories when asked
	// for the stride of a variable-length kind or the decoded length of a
	// fixed-length kind.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrChecksumMismatch is returned when a section's xxHash64 checksum
	// does not match its payload.
	ErrChecksumMismatch = errors.New("section checksum mismatch")
)
