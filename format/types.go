// Package format defines the small enum types shared across the pattern
// module: the dataset schema version and the compression wrapper applied to
// distributed dataset files.
package format

type (
	Version         uint8
	CompressionType uint8
)

const (
	VersionUnknown Version = 0
	// PatternV31 is schema version 3.1: signatures carry inline node
	// offsets and nodes carry inline ranked-signature indices.
	PatternV31 Version = 31
	// PatternV32 is schema version 3.2: signatures and nodes reference the
	// packed signatureNodeOffsets and nodeRankedSignatureIndexes lists.
	PatternV32 Version = 32

	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.
)

// VersionOf maps a dataset file's major.minor version pair to its Version.
// Unrecognised pairs map to VersionUnknown.
func VersionOf(major, minor int32) Version {
	switch {
	case major == 3 && minor == 1:
		return PatternV31
	case major == 3 && minor == 2:
		return PatternV32
	default:
		return VersionUnknown
	}
}

func (v Version) String() string {
	switch v {
	case PatternV31:
		return "3.1"
	case PatternV32:
		return "3.2"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}
