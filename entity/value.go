package entity

import (
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

const (
	valueFlagDescription = 1 << 0
	valueFlagURL         = 1 << 1
)

// Value is one possible value of a property (for example "True" for
// IsMobile). Values are a variable-length kind: the description and URL
// references are optional, flagged in the record's first byte.
type Value struct {
	// Offset is the record's byte offset within the values section, the
	// identity profiles refer to.
	Offset int32
	// PropertyIndex is the ordinal of the owning property.
	PropertyIndex int16
	// NameIndex is the value text's string offset.
	NameIndex int32
	// DescriptionIndex is the description's string offset, -1 when absent.
	DescriptionIndex int32
	// URLIndex is the documentation URL's string offset, -1 when absent.
	URLIndex int32
}

// ValueFactory decodes value records, identical in both schema versions.
type ValueFactory struct{}

var _ Factory[Value] = ValueFactory{}

func NewValueFactory() ValueFactory {
	return ValueFactory{}
}

func (ValueFactory) Create(index int32, r *reader.Reader) (Value, error) {
	v := Value{Offset: index, DescriptionIndex: -1, URLIndex: -1}

	flags, err := r.ReadUint8()
	if err != nil {
		return Value{}, err
	}
	if flags&^uint8(valueFlagDescription|valueFlagURL) != 0 {
		return Value{}, errs.ErrMalformed
	}

	if v.PropertyIndex, err = r.ReadInt16(); err != nil {
		return Value{}, err
	}
	if v.NameIndex, err = r.ReadInt32(); err != nil {
		return Value{}, err
	}
	if flags&valueFlagDescription != 0 {
		if v.DescriptionIndex, err = r.ReadInt32(); err != nil {
			return Value{}, err
		}
	}
	if flags&valueFlagURL != 0 {
		if v.URLIndex, err = r.ReadInt32(); err != nil {
			return Value{}, err
		}
	}

	return v, nil
}

func (ValueFactory) Stride() (int, error) {
	return 0, errs.ErrUnsupportedOperation
}

// Length reports the on-disk record size, which depends on which optional
// references were present.
func (ValueFactory) Length(item Value) (int, error) {
	n := 7
	if item.DescriptionIndex >= 0 {
		n += 4
	}
	if item.URLIndex >= 0 {
		n += 4
	}

	return n, nil
}
