package dataset

import (
	"fmt"
	"time"

	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/format"
	"github.com/uaforge/pattern/reader"
)

// Meta is the dataset's common header: format version, identity tags,
// publication dates, and the count and threshold numbers the matcher and
// the signature factories depend on.
type Meta struct {
	VersionMajor    int32
	VersionMinor    int32
	VersionBuild    int32
	VersionRevision int32

	// Tag identifies the dataset build; ExportTag the export that
	// produced it (V32 only, zero for V31).
	Tag       [16]byte
	ExportTag [16]byte

	// CopyrightOffset is the copyright notice's string offset.
	CopyrightOffset int32
	// Age is the data age in months at publication.
	Age int16
	// MinUserAgentCount is the minimum number of observed User-Agents
	// behind any record.
	MinUserAgentCount int32

	Published  time.Time
	NextUpdate time.Time

	// DeviceCombinations counts the device combinations the dataset
	// distinguishes.
	DeviceCombinations int32

	MaxUserAgentLength int16
	MinUserAgentLength int16
	LowestCharacter    uint8
	HighestCharacter   uint8

	// MaxSignatures caps the signatures inspected during one match.
	MaxSignatures int32
	// ProfilesPerSignature is the profile slot count of every signature
	// record.
	ProfilesPerSignature int32
	// NodesPerSignature is the node-offset slot count of every V31
	// signature record.
	NodesPerSignature int32
	// MaxValues is the largest value count of any profile.
	MaxValues int32

	CsvBufferLength  int32
	JsonBufferLength int32
	XmlBufferLength  int32

	// MaxSignaturesClosest is the confidence threshold for closest-match
	// detection.
	MaxSignaturesClosest int32
	// MaximumRank is the highest signature rank (V32 only, zero for V31).
	MaximumRank int32

	// Version is derived from VersionMajor.VersionMinor.
	Version format.Version
}

// readMeta decodes the common header at the reader's current position and
// derives the schema version. An unrecognised version fails with
// errs.ErrUnsupportedVersion; the loader never guesses.
func readMeta(r *reader.Reader) (Meta, error) {
	var m Meta
	var err error

	for _, field := range []*int32{&m.VersionMajor, &m.VersionMinor, &m.VersionBuild, &m.VersionRevision} {
		if *field, err = r.ReadInt32(); err != nil {
			return Meta{}, fmt.Errorf("common header version: %w", err)
		}
	}

	m.Version = format.VersionOf(m.VersionMajor, m.VersionMinor)
	if m.Version == format.VersionUnknown {
		return Meta{}, fmt.Errorf("format version %d.%d: %w", m.VersionMajor, m.VersionMinor, errs.ErrUnsupportedVersion)
	}

	tag, err := r.ReadBytes(16)
	if err != nil {
		return Meta{}, fmt.Errorf("common header tag: %w", err)
	}
	copy(m.Tag[:], tag)

	if m.Version == format.PatternV32 {
		exportTag, err := r.ReadBytes(16)
		if err != nil {
			return Meta{}, fmt.Errorf("common header export tag: %w", err)
		}
		copy(m.ExportTag[:], exportTag)
	}

	if m.CopyrightOffset, err = r.ReadInt32(); err != nil {
		return Meta{}, err
	}
	if m.Age, err = r.ReadInt16(); err != nil {
		return Meta{}, err
	}
	if m.MinUserAgentCount, err = r.ReadInt32(); err != nil {
		return Meta{}, err
	}

	published, err := r.ReadInt64()
	if err != nil {
		return Meta{}, err
	}
	nextUpdate, err := r.ReadInt64()
	if err != nil {
		return Meta{}, err
	}
	m.Published = time.Unix(published, 0).UTC()
	m.NextUpdate = time.Unix(nextUpdate, 0).UTC()

	if m.DeviceCombinations, err = r.ReadInt32(); err != nil {
		return Meta{}, err
	}
	if m.MaxUserAgentLength, err = r.ReadInt16(); err != nil {
		return Meta{}, err
	}
	if m.MinUserAgentLength, err = r.ReadInt16(); err != nil {
		return Meta{}, err
	}
	if m.LowestCharacter, err = r.ReadUint8(); err != nil {
		return Meta{}, err
	}
	if m.HighestCharacter, err = r.ReadUint8(); err != nil {
		return Meta{}, err
	}

	for _, field := range []*int32{
		&m.MaxSignatures, &m.ProfilesPerSignature, &m.NodesPerSignature, &m.MaxValues,
		&m.CsvBufferLength, &m.JsonBufferLength, &m.XmlBufferLength, &m.MaxSignaturesClosest,
	} {
		if *field, err = r.ReadInt32(); err != nil {
			return Meta{}, err
		}
	}

	if m.Version == format.PatternV32 {
		if m.MaximumRank, err = r.ReadInt32(); err != nil {
			return Meta{}, err
		}
	}

	if m.ProfilesPerSignature <= 0 || m.NodesPerSignature < 0 {
		return Meta{}, fmt.Errorf("signature slot counts %d/%d: %w",
			m.ProfilesPerSignature, m.NodesPerSignature, errs.ErrMalformed)
	}

	return m, nil
}
