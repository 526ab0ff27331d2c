package entity

import (
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// componentMaxHeaders is the number of HTTP-header slots in a V32 component
// record. The record stays fixed-length; unused slots hold -1.
const componentMaxHeaders = 3

// Component is one of the detectable device facets (hardware platform,
// software platform, browser, crawler). Components are always resident.
type Component struct {
	// ComponentID is the stable identifier used in device ids.
	ComponentID uint8
	// NameIndex is the component name's string offset.
	NameIndex int32
	// DefaultProfileID is the profile used when no signature matched the
	// component.
	DefaultProfileID int32
	// HTTPHeaderIndexes are string offsets of the HTTP header names
	// relevant to this component. Empty for V31 datasets, where matching
	// considers User-Agent only.
	HTTPHeaderIndexes []int32
}

// ComponentFactoryV31 decodes the 9-byte V31 component record.
type ComponentFactoryV31 struct{}

var _ Factory[Component] = ComponentFactoryV31{}

func NewComponentFactoryV31() ComponentFactoryV31 {
	return ComponentFactoryV31{}
}

func (ComponentFactoryV31) Create(_ int32, r *reader.Reader) (Component, error) {
	var c Component
	var err error

	if c.ComponentID, err = r.ReadUint8(); err != nil {
		return Component{}, err
	}
	if c.NameIndex, err = r.ReadInt32(); err != nil {
		return Component{}, err
	}
	if c.DefaultProfileID, err = r.ReadInt32(); err != nil {
		return Component{}, err
	}

	return c, nil
}

func (ComponentFactoryV31) Stride() (int, error) {
	return 9, nil
}

func (ComponentFactoryV31) Length(Component) (int, error) {
	return 0, errs.ErrUnsupportedOperation
}

// ComponentFactoryV32 decodes the 23-byte V32 component record, which adds
// a header count and three HTTP-header name slots to the V31 layout.
type ComponentFactoryV32 struct{}

var _ Factory[Component] = ComponentFactoryV32{}

func NewComponentFactoryV32() ComponentFactoryV32 {
	return ComponentFactoryV32{}
}

func (ComponentFactoryV32) Create(_ int32, r *reader.Reader) (Component, error) {
	var c Component
	var err error

	if c.ComponentID, err = r.ReadUint8(); err != nil {
		return Component{}, err
	}
	if c.NameIndex, err = r.ReadInt32(); err != nil {
		return Component{}, err
	}
	if c.DefaultProfileID, err = r.ReadInt32(); err != nil {
		return Component{}, err
	}

	count, err := r.ReadUint16()
	if err != nil {
		return Component{}, err
	}
	if count > componentMaxHeaders {
		return Component{}, errs.ErrMalformed
	}

	slots := make([]int32, 0, count)
	for i := 0; i < componentMaxHeaders; i++ {
		idx, err := r.ReadInt32()
		if err != nil {
			return Component{}, err
		}
		if i < int(count) {
			slots = append(slots, idx)
		}
	}
	c.HTTPHeaderIndexes = slots

	return c, nil
}

func (ComponentFactoryV32) Stride() (int, error) {
	return 9 + 2 + 4*componentMaxHeaders, nil
}

func (ComponentFactoryV32) Length(Component) (int, error) {
	return 0, errs.ErrUnsupportedOperation
}
