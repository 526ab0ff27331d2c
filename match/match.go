package match

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/uaforge/pattern/dataset"
	"github.com/uaforge/pattern/entity"
	"github.com/uaforge/pattern/errs"
)

// Match is the result of one detection: the matched signature (nil for a
// default or device-id match) and the profiles describing the device, one
// per component.
type Match struct {
	ds        *dataset.Dataset
	signature *entity.Signature
	profiles  []entity.Profile
}

// Signature returns the matched signature, or nil when the match was built
// from defaults or a stored device id.
func (m *Match) Signature() *entity.Signature {
	return m.signature
}

// Profiles returns the matched profiles in component order.
func (m *Match) Profiles() []entity.Profile {
	return m.profiles
}

// ProfileIDs returns the public profile ids in component order.
func (m *Match) ProfileIDs() []int32 {
	ids := make([]int32, len(m.profiles))
	for i, p := range m.profiles {
		ids[i] = p.ProfileID
	}

	return ids
}

// DeviceID returns the device id string: the profile ids joined with '-'.
// Store it to reconstruct the match later with Provider.MatchDeviceID.
func (m *Match) DeviceID() string {
	parts := make([]string, len(m.profiles))
	for i, p := range m.profiles {
		parts[i] = strconv.FormatInt(int64(p.ProfileID), 10)
	}

	return strings.Join(parts, "-")
}

// DeviceIDBytes returns the device id as a packed little-endian int32
// array, four bytes per profile. The most compact storage form.
func (m *Match) DeviceIDBytes() []byte {
	buf := make([]byte, 0, 4*len(m.profiles))
	for _, p := range m.profiles {
		id := uint32(p.ProfileID)
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24))
	}

	return buf
}

// Values returns the texts of the named property's values across the
// matched profiles. When no matched profile carries a value for the
// property, the property's default value is returned, so every property
// with a default value resolves to at least one value.
func (m *Match) Values(property string) ([]string, error) {
	prop, ok := m.ds.Properties().ByName(property)
	if !ok {
		return nil, fmt.Errorf("property %q: %w", property, errs.ErrIndexOutOfRange)
	}
	propIndex := m.ds.Properties().IndexOf(property)

	var texts []string
	for _, profile := range m.profiles {
		if profile.ComponentIndex != prop.ComponentIndex {
			continue
		}
		for _, off := range profile.ValueIndexes {
			value, err := m.ds.Values().At(off)
			if err != nil {
				return nil, err
			}
			if int32(value.PropertyIndex) != propIndex {
				continue
			}
			text, err := m.ds.String(value.NameIndex)
			if err != nil {
				return nil, err
			}
			texts = append(texts, text)
		}
	}

	if len(texts) == 0 && prop.DefaultValueIndex >= 0 {
		value, err := m.ds.Values().At(prop.DefaultValueIndex)
		if err != nil {
			return nil, err
		}
		text, err := m.ds.String(value.NameIndex)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}

	return texts, nil
}

// PropertyNames returns the names of every property the dataset carries.
func (m *Match) PropertyNames() ([]string, error) {
	names := make([]string, 0, m.ds.Properties().Size())
	for _, p := range m.ds.Properties().All() {
		name, err := m.ds.String(p.NameIndex)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}
