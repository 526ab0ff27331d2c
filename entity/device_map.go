package entity

import (
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// Map names a logical grouping of dataset content (for example a vendor or
// data-tier map). Maps are always resident.
type Map struct {
	// NameIndex is the map name's string offset.
	NameIndex int32
}

// MapFactory decodes the 4-byte map record, identical in both schema
// versions.
type MapFactory struct{}

var _ Factory[Map] = MapFactory{}

func NewMapFactory() MapFactory {
	return MapFactory{}
}

func (MapFactory) Create(_ int32, r *reader.Reader) (Map, error) {
	nameIndex, err := r.ReadInt32()
	if err != nil {
		return Map{}, err
	}

	return Map{NameIndex: nameIndex}, nil
}

func (MapFactory) Stride() (int, error) {
	return 4, nil
}

func (MapFactory) Length(Map) (int, error) {
	return 0, errs.ErrUnsupportedOperation
}
