package entity

import "github.com/uaforge/pattern/reader"

// Factory decodes one record of a specific kind at the reader's current
// position.
//
// The index argument is the record's position within its section: the
// ordinal for fixed-length kinds, the byte offset from the section start
// for variable-length kinds. Factories never reposition the reader before
// decoding; the entity loader does that.
//
// Exactly one of Stride and Length is supported per factory. Fixed-length
// factories report their record size via Stride and fail Length with
// errs.ErrUnsupportedOperation; variable-length factories do the reverse,
// reporting the byte length a decoded record occupied, which equals the
// distance to the next record.
type Factory[T any] interface {
	Create(index int32, r *reader.Reader) (T, error)
	Stride() (int, error)
	Length(item T) (int, error)
}
