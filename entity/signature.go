package entity

import (
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// Signature is an ordered set of profile references representing a matched
// device fingerprint. Signatures are fixed-length in both schema versions;
// the versions differ in how node references are stored.
type Signature struct {
	// ProfileOffsets are byte offsets into the profiles section. The record
	// has one slot per component; empty (-1) slots are dropped.
	ProfileOffsets []int32
	// Rank is the signature's popularity rank; lower is more common.
	Rank int32

	// NodeOffsets are byte offsets of the signature's nodes. Populated
	// directly for V31; -1-padded slots are dropped. For V32 the loader
	// resolves them through the signatureNodeOffsets list instead.
	NodeOffsets []int32

	// NodeCount and FirstNodeOffsetIndex locate the signature's node
	// offsets inside the signatureNodeOffsets list. V32 only.
	NodeCount            uint8
	FirstNodeOffsetIndex int32
	// Flags carries V32 signature flags (bit 0: exact match only).
	Flags uint8
}

// SignatureFactoryV31 decodes V31 signature records: fixed profile and
// node-offset slots followed by the rank.
type SignatureFactoryV31 struct {
	profilesPerSignature int32
	nodesPerSignature    int32
}

var _ Factory[Signature] = SignatureFactoryV31{}

// NewSignatureFactoryV31 creates a factory for the slot counts declared in
// the dataset's common header.
func NewSignatureFactoryV31(profilesPerSignature, nodesPerSignature int32) SignatureFactoryV31 {
	return SignatureFactoryV31{
		profilesPerSignature: profilesPerSignature,
		nodesPerSignature:    nodesPerSignature,
	}
}

func (f SignatureFactoryV31) Create(_ int32, r *reader.Reader) (Signature, error) {
	var s Signature

	profiles, err := readSlots(r, f.profilesPerSignature)
	if err != nil {
		return Signature{}, err
	}
	s.ProfileOffsets = profiles

	nodes := make([]int32, 0, f.nodesPerSignature)
	for i := int32(0); i < f.nodesPerSignature; i++ {
		off, err := r.ReadInt32()
		if err != nil {
			return Signature{}, err
		}
		if off >= 0 {
			nodes = append(nodes, off)
		}
	}
	s.NodeOffsets = nodes

	if s.Rank, err = r.ReadInt32(); err != nil {
		return Signature{}, err
	}

	return s, nil
}

func (f SignatureFactoryV31) Stride() (int, error) {
	return int(4*f.profilesPerSignature + 4*f.nodesPerSignature + 4), nil
}

func (SignatureFactoryV31) Length(Signature) (int, error) {
	return 0, errs.ErrUnsupportedOperation
}

// SignatureFactoryV32 decodes V32 signature records: fixed profile slots,
// then node count, first node-offset index, rank and flags.
type SignatureFactoryV32 struct {
	profilesPerSignature int32
}

var _ Factory[Signature] = SignatureFactoryV32{}

// NewSignatureFactoryV32 creates a factory for the profile slot count
// declared in the dataset's common header.
func NewSignatureFactoryV32(profilesPerSignature int32) SignatureFactoryV32 {
	return SignatureFactoryV32{profilesPerSignature: profilesPerSignature}
}

func (f SignatureFactoryV32) Create(_ int32, r *reader.Reader) (Signature, error) {
	var s Signature

	profiles, err := readSlots(r, f.profilesPerSignature)
	if err != nil {
		return Signature{}, err
	}
	s.ProfileOffsets = profiles

	if s.NodeCount, err = r.ReadUint8(); err != nil {
		return Signature{}, err
	}
	if s.FirstNodeOffsetIndex, err = r.ReadInt32(); err != nil {
		return Signature{}, err
	}
	if s.Rank, err = r.ReadInt32(); err != nil {
		return Signature{}, err
	}
	if s.Flags, err = r.ReadUint8(); err != nil {
		return Signature{}, err
	}

	return s, nil
}

func (f SignatureFactoryV32) Stride() (int, error) {
	return int(4*f.profilesPerSignature + 10), nil
}

func (SignatureFactoryV32) Length(Signature) (int, error) {
	return 0, errs.ErrUnsupportedOperation
}

// readSlots reads n int32 slots keeping only the populated (>= 0) ones.
func readSlots(r *reader.Reader, n int32) ([]int32, error) {
	slots := make([]int32, 0, n)
	for i := int32(0); i < n; i++ {
		v, err := r.ReadInt32()
		if err != nil {
			return nil, err
		}
		if v >= 0 {
			slots = append(slots, v)
		}
	}

	return slots, nil
}
