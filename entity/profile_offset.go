package entity

import (
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// ProfileOffset maps a public profile id to the profile's byte offset
// within the profiles section. Profile offsets are always resident and
// support lookup of profiles by id.
type ProfileOffset struct {
	// ProfileID is the stable public identifier.
	ProfileID int32
	// Offset is the profile's byte offset within the profiles section.
	Offset int32
}

// ProfileOffsetFactory decodes the 8-byte profile offset record, identical
// in both schema versions.
type ProfileOffsetFactory struct{}

var _ Factory[ProfileOffset] = ProfileOffsetFactory{}

func NewProfileOffsetFactory() ProfileOffsetFactory {
	return ProfileOffsetFactory{}
}

func (ProfileOffsetFactory) Create(_ int32, r *reader.Reader) (ProfileOffset, error) {
	var po ProfileOffset
	var err error

	if po.ProfileID, err = r.ReadInt32(); err != nil {
		return ProfileOffset{}, err
	}
	if po.Offset, err = r.ReadInt32(); err != nil {
		return ProfileOffset{}, err
	}

	return po, nil
}

func (ProfileOffsetFactory) Stride() (int, error) {
	return 8, nil
}

func (ProfileOffsetFactory) Length(ProfileOffset) (int, error) {
	return 0, errs.ErrUnsupportedOperation
}
