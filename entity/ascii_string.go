package entity

import (
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// AsciiString is a variable-length string record: a uint16 length prefix,
// the bytes, and a trailing NUL. Values, properties and node labels
// reference strings by the record's byte offset within the strings section.
type AsciiString struct {
	// Offset is the record's byte offset within the strings section.
	Offset int32
	// Value is the decoded string without length prefix or NUL.
	Value string
}

// AsciiStringFactory decodes AsciiString records. Strings are a
// variable-length kind in both schema versions.
type AsciiStringFactory struct{}

var _ Factory[AsciiString] = AsciiStringFactory{}

func NewAsciiStringFactory() AsciiStringFactory {
	return AsciiStringFactory{}
}

func (AsciiStringFactory) Create(index int32, r *reader.Reader) (AsciiString, error) {
	value, err := r.ReadString()
	if err != nil {
		return AsciiString{}, err
	}

	return AsciiString{Offset: index, Value: value}, nil
}

func (AsciiStringFactory) Stride() (int, error) {
	return 0, errs.ErrUnsupportedOperation
}

// Length reports the on-disk record size: length prefix + bytes + NUL.
func (AsciiStringFactory) Length(item AsciiString) (int, error) {
	return len(item.Value) + 3, nil
}
