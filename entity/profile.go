package entity

import (
	"fmt"

	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// maxProfileValues bounds the value list of a single profile. Real
// datasets stay far below this; the bound stops a corrupted count from
// driving a huge allocation.
const maxProfileValues = 1 << 20

// Profile is a collection of property values describing one component of a
// device. Profiles are a variable-length kind addressed by byte offset;
// lookup by profile id goes through the profileOffsets section.
type Profile struct {
	// Offset is the record's byte offset within the profiles section.
	Offset int32
	// ComponentIndex is the ordinal of the component this profile
	// describes.
	ComponentIndex uint8
	// ProfileID is the stable public identifier used in device ids.
	ProfileID int32
	// ValueIndexes are byte offsets into the values section, sorted
	// ascending by the reference tool.
	ValueIndexes []int32
}

// ProfileFactory decodes profile records, identical in both schema
// versions.
type ProfileFactory struct{}

var _ Factory[Profile] = ProfileFactory{}

func NewProfileFactory() ProfileFactory {
	return ProfileFactory{}
}

func (ProfileFactory) Create(index int32, r *reader.Reader) (Profile, error) {
	p := Profile{Offset: index}
	var err error

	if p.ComponentIndex, err = r.ReadUint8(); err != nil {
		return Profile{}, err
	}
	if p.ProfileID, err = r.ReadInt32(); err != nil {
		return Profile{}, err
	}

	count, err := r.ReadInt32()
	if err != nil {
		return Profile{}, err
	}
	if count < 0 || count > maxProfileValues {
		return Profile{}, fmt.Errorf("profile at offset %d has value count %d: %w", index, count, errs.ErrMalformed)
	}

	p.ValueIndexes = make([]int32, count)
	for i := range p.ValueIndexes {
		if p.ValueIndexes[i], err = r.ReadInt32(); err != nil {
			return Profile{}, err
		}
	}

	return p, nil
}

func (ProfileFactory) Stride() (int, error) {
	return 0, errs.ErrUnsupportedOperation
}

// Length reports the on-disk record size.
func (ProfileFactory) Length(item Profile) (int, error) {
	return 9 + 4*len(item.ValueIndexes), nil
}
