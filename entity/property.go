package entity

import (
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// PropertyType classifies the values a property can take.
type PropertyType uint8

const (
	PropertyTypeString     PropertyType = 0
	PropertyTypeInt        PropertyType = 1
	PropertyTypeDouble     PropertyType = 2
	PropertyTypeBool       PropertyType = 3
	PropertyTypeJavaScript PropertyType = 4
)

func (t PropertyType) String() string {
	switch t {
	case PropertyTypeString:
		return "String"
	case PropertyTypeInt:
		return "Int"
	case PropertyTypeDouble:
		return "Double"
	case PropertyTypeBool:
		return "Bool"
	case PropertyTypeJavaScript:
		return "JavaScript"
	default:
		return "Unknown"
	}
}

// Property describes one detectable attribute (for example IsMobile).
// Properties are always resident and additionally indexed by name.
//
// DefaultValueIndex, FirstValueIndex and LastValueIndex are byte offsets
// into the values section; -1 means none. All values of a property sit
// contiguously between first and last inclusive.
type Property struct {
	ComponentIndex    uint8
	ValueType         PropertyType
	DefaultValueIndex int32
	NameIndex         int32
	DescriptionIndex  int32
	CategoryIndex     int32
	URLIndex          int32
	FirstValueIndex   int32
	LastValueIndex    int32
}

// PropertyFactory decodes the 30-byte property record, identical in both
// schema versions.
type PropertyFactory struct{}

var _ Factory[Property] = PropertyFactory{}

func NewPropertyFactory() PropertyFactory {
	return PropertyFactory{}
}

func (PropertyFactory) Create(_ int32, r *reader.Reader) (Property, error) {
	var p Property
	var err error

	if p.ComponentIndex, err = r.ReadUint8(); err != nil {
		return Property{}, err
	}
	valueType, err := r.ReadUint8()
	if err != nil {
		return Property{}, err
	}
	if valueType > uint8(PropertyTypeJavaScript) {
		return Property{}, errs.ErrMalformed
	}
	p.ValueType = PropertyType(valueType)

	for _, field := range []*int32{
		&p.DefaultValueIndex, &p.NameIndex, &p.DescriptionIndex,
		&p.CategoryIndex, &p.URLIndex, &p.FirstValueIndex, &p.LastValueIndex,
	} {
		if *field, err = r.ReadInt32(); err != nil {
			return Property{}, err
		}
	}

	return p, nil
}

func (PropertyFactory) Stride() (int, error) {
	return 30, nil
}

func (PropertyFactory) Length(Property) (int, error) {
	return 0, errs.ErrUnsupportedOperation
}
