package entity

import (
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"

	"github.com/uaforge/pattern/endian"
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

var engine = endian.GetLittleEndianEngine()

func appendInt32(buf []byte, v int32) []byte {
	return engine.AppendUint32(buf, uint32(v))
}

func newReader(t *testing.T, data []byte) *reader.Reader {
	t.Helper()

	return reader.New(reader.NewBufferSource(data))
}

func TestReadHeader(t *testing.T) {
	payload := []byte{0xAA, 0xBB, 0xCC, 0xDD}

	var buf []byte
	buf = engine.AppendUint32(buf, 2)
	buf = engine.AppendUint32(buf, uint32(len(payload)))
	buf = engine.AppendUint64(buf, xxhash.Sum64(payload))
	buf = append(buf, payload...)

	r := newReader(t, buf)
	h, err := ReadHeader(r)
	require.NoError(t, err)
	require.Equal(t, uint32(2), h.Count)
	require.Equal(t, uint32(len(payload)), h.Length)
	require.Equal(t, int64(HeaderSize), h.Start())
	require.Equal(t, int64(HeaderSize+len(payload)), h.End())
	// The reader is left at the next section.
	require.Equal(t, h.End(), r.Pos())

	require.NoError(t, h.Verify(r))
}

func TestReadHeaderOverrun(t *testing.T) {
	var buf []byte
	buf = engine.AppendUint32(buf, 1)
	buf = engine.AppendUint32(buf, 100) // longer than the remaining file
	buf = engine.AppendUint64(buf, 0)
	buf = append(buf, 0x00)

	_, err := ReadHeader(newReader(t, buf))
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)
}

func TestHeaderVerifyMismatch(t *testing.T) {
	payload := []byte{0x01, 0x02}

	var buf []byte
	buf = engine.AppendUint32(buf, 1)
	buf = engine.AppendUint32(buf, uint32(len(payload)))
	buf = engine.AppendUint64(buf, 0xBAD)
	buf = append(buf, payload...)

	r := newReader(t, buf)
	h, err := ReadHeader(r)
	require.NoError(t, err)
	require.ErrorIs(t, h.Verify(r), errs.ErrChecksumMismatch)
}

func TestAsciiStringFactory(t *testing.T) {
	var buf []byte
	buf = engine.AppendUint16(buf, 6)
	buf = append(buf, []byte("iPhone")...)
	buf = append(buf, 0x00)

	f := NewAsciiStringFactory()
	s, err := f.Create(0, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, "iPhone", s.Value)

	n, err := f.Length(s)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)

	_, err = f.Stride()
	require.ErrorIs(t, err, errs.ErrUnsupportedOperation)
}

func TestComponentFactories(t *testing.T) {
	t.Run("V31", func(t *testing.T) {
		var buf []byte
		buf = append(buf, 1) // component id
		buf = appendInt32(buf, 16)
		buf = appendInt32(buf, 12345)

		f := NewComponentFactoryV31()
		stride, err := f.Stride()
		require.NoError(t, err)
		require.Equal(t, len(buf), stride)

		c, err := f.Create(0, newReader(t, buf))
		require.NoError(t, err)
		require.Equal(t, uint8(1), c.ComponentID)
		require.Equal(t, int32(16), c.NameIndex)
		require.Equal(t, int32(12345), c.DefaultProfileID)
		require.Empty(t, c.HTTPHeaderIndexes)

		_, err = f.Length(c)
		require.ErrorIs(t, err, errs.ErrUnsupportedOperation)
	})

	t.Run("V32", func(t *testing.T) {
		var buf []byte
		buf = append(buf, 2)
		buf = appendInt32(buf, 20)
		buf = appendInt32(buf, 67890)
		buf = engine.AppendUint16(buf, 2) // header count
		buf = appendInt32(buf, 100)
		buf = appendInt32(buf, 140)
		buf = appendInt32(buf, -1) // unused slot

		f := NewComponentFactoryV32()
		stride, err := f.Stride()
		require.NoError(t, err)
		require.Equal(t, len(buf), stride)

		c, err := f.Create(0, newReader(t, buf))
		require.NoError(t, err)
		require.Equal(t, []int32{100, 140}, c.HTTPHeaderIndexes)
	})

	t.Run("V32 bad header count", func(t *testing.T) {
		var buf []byte
		buf = append(buf, 2)
		buf = appendInt32(buf, 20)
		buf = appendInt32(buf, 67890)
		buf = engine.AppendUint16(buf, 9)
		for i := 0; i < componentMaxHeaders; i++ {
			buf = appendInt32(buf, -1)
		}

		_, err := NewComponentFactoryV32().Create(0, newReader(t, buf))
		require.ErrorIs(t, err, errs.ErrMalformed)
	})
}

func TestMapFactory(t *testing.T) {
	buf := appendInt32(nil, 42)

	f := NewMapFactory()
	m, err := f.Create(0, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, int32(42), m.NameIndex)

	stride, err := f.Stride()
	require.NoError(t, err)
	require.Equal(t, 4, stride)
}

func TestPropertyFactory(t *testing.T) {
	var buf []byte
	buf = append(buf, 0)                        // component index
	buf = append(buf, uint8(PropertyTypeBool))  // value type
	for _, v := range []int32{64, 8, -1, 24, -1, 64, 80} {
		buf = appendInt32(buf, v)
	}

	f := NewPropertyFactory()
	stride, err := f.Stride()
	require.NoError(t, err)
	require.Equal(t, len(buf), stride)

	p, err := f.Create(0, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, PropertyTypeBool, p.ValueType)
	require.Equal(t, int32(64), p.DefaultValueIndex)
	require.Equal(t, int32(8), p.NameIndex)
	require.Equal(t, int32(-1), p.DescriptionIndex)
	require.Equal(t, int32(64), p.FirstValueIndex)
	require.Equal(t, int32(80), p.LastValueIndex)
}

func TestPropertyFactoryBadType(t *testing.T) {
	var buf []byte
	buf = append(buf, 0, 0xEE)
	for i := 0; i < 7; i++ {
		buf = appendInt32(buf, 0)
	}

	_, err := NewPropertyFactory().Create(0, newReader(t, buf))
	require.ErrorIs(t, err, errs.ErrMalformed)
}

func TestValueFactory(t *testing.T) {
	f := NewValueFactory()

	t.Run("All fields", func(t *testing.T) {
		var buf []byte
		buf = append(buf, valueFlagDescription|valueFlagURL)
		buf = engine.AppendUint16(buf, 3) // property index
		buf = appendInt32(buf, 10)
		buf = appendInt32(buf, 20)
		buf = appendInt32(buf, 30)

		v, err := f.Create(7, newReader(t, buf))
		require.NoError(t, err)
		require.Equal(t, int32(7), v.Offset)
		require.Equal(t, int16(3), v.PropertyIndex)
		require.Equal(t, int32(10), v.NameIndex)
		require.Equal(t, int32(20), v.DescriptionIndex)
		require.Equal(t, int32(30), v.URLIndex)

		n, err := f.Length(v)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
	})

	t.Run("Name only", func(t *testing.T) {
		var buf []byte
		buf = append(buf, 0)
		buf = engine.AppendUint16(buf, 1)
		buf = appendInt32(buf, 10)

		v, err := f.Create(0, newReader(t, buf))
		require.NoError(t, err)
		require.Equal(t, int32(-1), v.DescriptionIndex)
		require.Equal(t, int32(-1), v.URLIndex)

		n, err := f.Length(v)
		require.NoError(t, err)
		require.Equal(t, 7, n)
	})

	t.Run("Bad flags", func(t *testing.T) {
		buf := []byte{0xF0, 0, 0, 0, 0, 0, 0}
		_, err := f.Create(0, newReader(t, buf))
		require.ErrorIs(t, err, errs.ErrMalformed)
	})
}

func TestProfileFactory(t *testing.T) {
	var buf []byte
	buf = append(buf, 1)
	buf = appendInt32(buf, 17779)
	buf = appendInt32(buf, 2)
	buf = appendInt32(buf, 0)
	buf = appendInt32(buf, 7)

	f := NewProfileFactory()
	p, err := f.Create(64, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, int32(64), p.Offset)
	require.Equal(t, int32(17779), p.ProfileID)
	require.Equal(t, []int32{0, 7}, p.ValueIndexes)

	n, err := f.Length(p)
	require.NoError(t, err)
	require.Equal(t, len(buf), n)
}

func TestProfileFactoryBadCount(t *testing.T) {
	var buf []byte
	buf = append(buf, 1)
	buf = appendInt32(buf, 17779)
	buf = appendInt32(buf, -5)

	_, err := NewProfileFactory().Create(0, newReader(t, buf))
	require.ErrorIs(t, err, errs.ErrMalformed)
}

func TestSignatureFactoryV31(t *testing.T) {
	f := NewSignatureFactoryV31(2, 3)

	var buf []byte
	buf = appendInt32(buf, 0)
	buf = appendInt32(buf, 96)
	buf = appendInt32(buf, 0)
	buf = appendInt32(buf, 33)
	buf = appendInt32(buf, -1)
	buf = appendInt32(buf, 5) // rank

	stride, err := f.Stride()
	require.NoError(t, err)
	require.Equal(t, len(buf), stride)

	s, err := f.Create(0, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, []int32{0, 96}, s.ProfileOffsets)
	require.Equal(t, []int32{0, 33}, s.NodeOffsets)
	require.Equal(t, int32(5), s.Rank)
}

func TestSignatureFactoryV32(t *testing.T) {
	f := NewSignatureFactoryV32(2)

	var buf []byte
	buf = appendInt32(buf, 0)
	buf = appendInt32(buf, -1)
	buf = append(buf, 2)       // node count
	buf = appendInt32(buf, 4)  // first node offset index
	buf = appendInt32(buf, 1)  // rank
	buf = append(buf, 1)       // flags

	stride, err := f.Stride()
	require.NoError(t, err)
	require.Equal(t, len(buf), stride)

	s, err := f.Create(0, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, []int32{0}, s.ProfileOffsets)
	require.Equal(t, uint8(2), s.NodeCount)
	require.Equal(t, int32(4), s.FirstNodeOffsetIndex)
	require.Equal(t, int32(1), s.Rank)
	require.Equal(t, uint8(1), s.Flags)
}

func nodeCommonBytes(children []NodeChild, rankedCount uint16) []byte {
	var buf []byte
	buf = appendInt32(buf, -1) // parent
	buf = append(buf, 'M')
	buf = engine.AppendUint16(buf, uint16(len(children)))
	buf = engine.AppendUint16(buf, rankedCount)
	for _, c := range children {
		buf = append(buf, c.Character)
		buf = appendInt32(buf, c.NodeOffset)
	}

	return buf
}

func TestNodeFactoryV31(t *testing.T) {
	children := []NodeChild{{Character: 'o', NodeOffset: 40}, {Character: 'z', NodeOffset: 80}}
	buf := nodeCommonBytes(children, 2)
	buf = appendInt32(buf, 3)
	buf = appendInt32(buf, 9)

	f := NewNodeFactoryV31()
	n, err := f.Create(0, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, uint8('M'), n.Character)
	require.Equal(t, children, n.Children)
	require.Equal(t, []int32{3, 9}, n.RankedSignatureIndexes)

	length, err := f.Length(n)
	require.NoError(t, err)
	require.Equal(t, len(buf), length)
}

func TestNodeFactoryV32(t *testing.T) {
	f := NewNodeFactoryV32()

	t.Run("With signatures", func(t *testing.T) {
		buf := nodeCommonBytes(nil, 4)
		buf = appendInt32(buf, 12)

		n, err := f.Create(16, newReader(t, buf))
		require.NoError(t, err)
		require.Equal(t, int32(16), n.Offset)
		require.Equal(t, uint16(4), n.RankedSignatureCount)
		require.Equal(t, int32(12), n.FirstRankedSignatureIndex)

		length, err := f.Length(n)
		require.NoError(t, err)
		require.Equal(t, len(buf), length)
	})

	t.Run("Without signatures", func(t *testing.T) {
		buf := nodeCommonBytes([]NodeChild{{Character: 'a', NodeOffset: 4}}, 0)

		n, err := f.Create(0, newReader(t, buf))
		require.NoError(t, err)
		require.Equal(t, int32(-1), n.FirstRankedSignatureIndex)

		length, err := f.Length(n)
		require.NoError(t, err)
		require.Equal(t, len(buf), length)
	})
}

func TestRootNodeAndProfileOffsetFactories(t *testing.T) {
	buf := appendInt32(nil, 128)
	rn, err := NewRootNodeFactory().Create(0, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, int32(128), rn.NodeOffset)

	buf = appendInt32(nil, 17779)
	buf = appendInt32(buf, 512)
	po, err := NewProfileOffsetFactory().Create(0, newReader(t, buf))
	require.NoError(t, err)
	require.Equal(t, int32(17779), po.ProfileID)
	require.Equal(t, int32(512), po.Offset)
}
