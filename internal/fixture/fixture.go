// Package fixture builds small synthetic dataset files for tests.
//
// The generated dataset describes three components (hardware platform,
// software platform, browser) with profiles and signatures for two known
// User-Agents — one mobile, one desktop — plus default profiles covering
// every property. Both schema versions can be produced from the same
// logical content, so version-independence properties can be asserted
// directly.
package fixture

import (
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/uaforge/pattern/endian"
	"github.com/uaforge/pattern/format"
)

// User-Agents embedded in the generated trie.
const (
	MobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 7_1 like Mac OS X) " +
		"AppleWebKit/537.51.2 (KHTML, like Gecko) Version/7.0 Mobile/11D167 Safari/9537.53"
	DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/51.0.2704.103 Safari/537.36"
)

// Profile ids of the generated dataset.
var (
	MobileProfileIDs  = []int32{17779, 21460, 32069}
	DesktopProfileIDs = []int32{11000, 22000, 33000}
	DefaultProfileIDs = []int32{10000, 20000, 30000}
)

// Property names of the generated dataset.
var PropertyNames = []string{"IsMobile", "ScreenPixelsWidth", "PlatformName", "BrowserName"}

const (
	profilesPerSignature = 3
	nodesPerSignature    = 4
)

var engine = endian.GetLittleEndianEngine()

// Build produces a complete dataset file for the given schema version.
func Build(version format.Version) []byte {
	b := newBuilder(version)

	return b.bytes()
}

type builder struct {
	version format.Version

	strings stringTable

	valuesBuf   []byte
	valueCount  uint32
	valueOffs   map[string]int32 // property|value -> record offset
	firstValue  map[int]int32
	lastValue   map[int]int32
	valueOrder  []valueSpec
	profilesBuf []byte
	profileOffs map[int32]int32 // profile id -> record offset
	profileList []profileSpec

	nodesBuf  []byte
	nodeCount uint32
	rootOffs  []int32

	signatureNodeOffsets       []int32
	nodeRankedSignatureIndexes []int32
	rankedSignatureIndexes     []int32

	sigLeafOffsets [][]int32 // per signature, node offsets
}

type valueSpec struct {
	property    int
	name        string
	description string
}

type profileSpec struct {
	component uint8
	id        int32
	values    []string // "property|name" keys
}

type componentSpec struct {
	id             uint8
	name           string
	defaultProfile int32
	httpHeaders    []string
}

var components = []componentSpec{
	{id: 1, name: "HardwarePlatform", defaultProfile: 10000, httpHeaders: []string{"User-Agent"}},
	{id: 2, name: "SoftwarePlatform", defaultProfile: 20000, httpHeaders: []string{"User-Agent"}},
	{id: 3, name: "BrowserUA", defaultProfile: 30000, httpHeaders: []string{"User-Agent", "X-Device-User-Agent"}},
}

// property specs: component ordinal, value type (0 string, 1 int, 3 bool),
// category, default value key.
type propertySpec struct {
	component uint8
	valueType uint8
	name      string
	category  string
	defValue  string
}

var properties = []propertySpec{
	{component: 0, valueType: 3, name: "IsMobile", category: "Device", defValue: "False"},
	{component: 0, valueType: 1, name: "ScreenPixelsWidth", category: "Screen", defValue: "1920"},
	{component: 1, valueType: 0, name: "PlatformName", category: "Platform", defValue: "Unknown"},
	{component: 2, valueType: 0, name: "BrowserName", category: "Browser", defValue: "Unknown"},
}

var valueSpecs = []valueSpec{
	{property: 0, name: "True", description: "Device is a mobile device."},
	{property: 0, name: "False"},
	{property: 1, name: "640"},
	{property: 1, name: "1920"},
	{property: 2, name: "iOS"},
	{property: 2, name: "Windows"},
	{property: 2, name: "Unknown"},
	{property: 3, name: "Mobile Safari"},
	{property: 3, name: "Chrome"},
	{property: 3, name: "Unknown"},
}

var profileSpecs = []profileSpec{
	{component: 0, id: 10000, values: []string{"0|False", "1|1920"}},
	{component: 0, id: 17779, values: []string{"0|True", "1|640"}},
	{component: 0, id: 11000, values: []string{"0|False", "1|1920"}},
	{component: 1, id: 20000, values: []string{"2|Unknown"}},
	{component: 1, id: 21460, values: []string{"2|iOS"}},
	{component: 1, id: 22000, values: []string{"2|Windows"}},
	{component: 2, id: 30000, values: []string{"3|Unknown"}},
	{component: 2, id: 32069, values: []string{"3|Mobile Safari"}},
	{component: 2, id: 33000, values: []string{"3|Chrome"}},
}

// signatures, in rank order: rank 0 is the mobile UA, rank 1 the desktop.
var signatureProfiles = [][]int32{
	{17779, 21460, 32069},
	{11000, 22000, 33000},
}

func newBuilder(version format.Version) *builder {
	b := &builder{
		version:     version,
		strings:     newStringTable(),
		valueOffs:   make(map[string]int32),
		firstValue:  make(map[int]int32),
		lastValue:   make(map[int]int32),
		profileOffs: make(map[int32]int32),
		valueOrder:  valueSpecs,
		profileList: profileSpecs,
	}

	b.internStrings()
	b.buildValues()
	b.buildProfiles()
	b.buildNodes()
	b.rankedSignatureIndexes = []int32{0, 1}

	return b
}

func (b *builder) internStrings() {
	b.strings.add("Copyright Example Data 2015")
	for _, c := range components {
		b.strings.add(c.name)
		for _, h := range c.httpHeaders {
			b.strings.add(h)
		}
	}
	for _, p := range properties {
		b.strings.add(p.name)
		b.strings.add(p.category)
	}
	for _, v := range valueSpecs {
		b.strings.add(v.name)
		if v.description != "" {
			b.strings.add(v.description)
		}
	}
	b.strings.add("Lite")
}

func (b *builder) buildValues() {
	for _, v := range b.valueOrder {
		off := int32(len(b.valuesBuf))
		key := valueKey(v.property, v.name)
		b.valueOffs[key] = off
		if _, ok := b.firstValue[v.property]; !ok {
			b.firstValue[v.property] = off
		}
		b.lastValue[v.property] = off

		var flags uint8
		if v.description != "" {
			flags |= 1
		}
		b.valuesBuf = append(b.valuesBuf, flags)
		b.valuesBuf = engine.AppendUint16(b.valuesBuf, uint16(v.property))
		b.valuesBuf = appendInt32(b.valuesBuf, b.strings.add(v.name))
		if v.description != "" {
			b.valuesBuf = appendInt32(b.valuesBuf, b.strings.add(v.description))
		}
		b.valueCount++
	}
}

func (b *builder) buildProfiles() {
	for _, p := range b.profileList {
		off := int32(len(b.profilesBuf))
		b.profileOffs[p.id] = off

		b.profilesBuf = append(b.profilesBuf, p.component)
		b.profilesBuf = appendInt32(b.profilesBuf, p.id)
		b.profilesBuf = appendInt32(b.profilesBuf, int32(len(p.values)))
		for _, key := range p.values {
			b.profilesBuf = appendInt32(b.profilesBuf, b.valueOffs[key])
		}
	}
}

func valueKey(property int, name string) string {
	return string(rune('0'+property)) + "|" + name
}

// trieNode is the in-memory node used to lay out the nodes section.
type trieNode struct {
	ch       byte
	parent   *trieNode
	children []*trieNode
	ranks    []int32

	offset int32
}

func (n *trieNode) child(ch byte) *trieNode {
	for _, c := range n.children {
		if c.ch == ch {
			return c
		}
	}

	return nil
}

func (n *trieNode) insert(ua string, rank int32) *trieNode {
	cur := n
	for i := 0; i < len(ua); i++ {
		next := cur.child(ua[i])
		if next == nil {
			next = &trieNode{ch: ua[i], parent: cur}
			cur.children = append(cur.children, next)
		}
		cur = next
	}
	cur.ranks = append(cur.ranks, rank)

	return cur
}

func (b *builder) nodeSize(n *trieNode) int {
	size := 9 + 5*len(n.children)
	if b.version == format.PatternV31 {
		size += 4 * len(n.ranks)
	} else if len(n.ranks) > 0 {
		size += 4
	}

	return size
}

func (b *builder) buildNodes() {
	root := &trieNode{}
	mobileLeaf := root.insert(MobileUserAgent, 0)
	desktopLeaf := root.insert(DesktopUserAgent, 1)

	// One root per component; the extra roots are empty entry points.
	extraRoots := []*trieNode{{}, {}}

	// Pre-order layout: offsets are assigned before serialisation because
	// child references point forward and backward freely.
	var ordered []*trieNode
	var walk func(n *trieNode)
	walk = func(n *trieNode) {
		ordered = append(ordered, n)
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(root)
	for _, r := range extraRoots {
		ordered = append(ordered, r)
	}

	offset := int32(0)
	for _, n := range ordered {
		n.offset = offset
		offset += int32(b.nodeSize(n))
	}

	for _, n := range ordered {
		parentOff := int32(-1)
		if n.parent != nil {
			parentOff = n.parent.offset
		}
		b.nodesBuf = appendInt32(b.nodesBuf, parentOff)
		b.nodesBuf = append(b.nodesBuf, n.ch)
		b.nodesBuf = engine.AppendUint16(b.nodesBuf, uint16(len(n.children)))
		b.nodesBuf = engine.AppendUint16(b.nodesBuf, uint16(len(n.ranks)))
		for _, c := range n.children {
			b.nodesBuf = append(b.nodesBuf, c.ch)
			b.nodesBuf = appendInt32(b.nodesBuf, c.offset)
		}
		switch {
		case b.version == format.PatternV31:
			for _, rank := range n.ranks {
				b.nodesBuf = appendInt32(b.nodesBuf, rank)
			}
		case len(n.ranks) > 0:
			b.nodesBuf = appendInt32(b.nodesBuf, int32(len(b.nodeRankedSignatureIndexes)))
			b.nodeRankedSignatureIndexes = append(b.nodeRankedSignatureIndexes, n.ranks...)
		}
		b.nodeCount++
	}

	b.rootOffs = []int32{root.offset, extraRoots[0].offset, extraRoots[1].offset}
	b.sigLeafOffsets = [][]int32{{mobileLeaf.offset}, {desktopLeaf.offset}}
}

func (b *builder) signaturesPayload() []byte {
	var buf []byte
	for i, profileIDs := range signatureProfiles {
		for _, id := range profileIDs {
			buf = appendInt32(buf, b.profileOffs[id])
		}
		leaves := b.sigLeafOffsets[i]
		if b.version == format.PatternV31 {
			for s := 0; s < nodesPerSignature; s++ {
				off := int32(-1)
				if s < len(leaves) {
					off = leaves[s]
				}
				buf = appendInt32(buf, off)
			}
			buf = appendInt32(buf, int32(i)) // rank
		} else {
			buf = append(buf, uint8(len(leaves)))
			buf = appendInt32(buf, int32(len(b.signatureNodeOffsets)))
			b.signatureNodeOffsets = append(b.signatureNodeOffsets, leaves...)
			buf = appendInt32(buf, int32(i)) // rank
			buf = append(buf, 0)             // flags
		}
	}

	return buf
}

func (b *builder) componentsPayload() []byte {
	var buf []byte
	for _, c := range components {
		buf = append(buf, c.id)
		buf = appendInt32(buf, b.strings.add(c.name))
		buf = appendInt32(buf, c.defaultProfile)
		if b.version == format.PatternV32 {
			buf = engine.AppendUint16(buf, uint16(len(c.httpHeaders)))
			for s := 0; s < 3; s++ {
				idx := int32(-1)
				if s < len(c.httpHeaders) {
					idx = b.strings.add(c.httpHeaders[s])
				}
				buf = appendInt32(buf, idx)
			}
		}
	}

	return buf
}

func (b *builder) propertiesPayload() []byte {
	var buf []byte
	for i, p := range properties {
		buf = append(buf, p.component)
		buf = append(buf, p.valueType)
		buf = appendInt32(buf, b.valueOffs[valueKey(i, p.defValue)])
		buf = appendInt32(buf, b.strings.add(p.name))
		buf = appendInt32(buf, -1) // description
		buf = appendInt32(buf, b.strings.add(p.category))
		buf = appendInt32(buf, -1) // url
		buf = appendInt32(buf, b.firstValue[i])
		buf = appendInt32(buf, b.lastValue[i])
	}

	return buf
}

func (b *builder) profileOffsetsPayload() []byte {
	var buf []byte
	for _, p := range b.profileList {
		buf = appendInt32(buf, p.id)
		buf = appendInt32(buf, b.profileOffs[p.id])
	}

	return buf
}

func (b *builder) commonHeader() []byte {
	var buf []byte
	minor := int32(1)
	if b.version == format.PatternV32 {
		minor = 2
	}
	for _, v := range []int32{3, minor, 7, 1} {
		buf = appendInt32(buf, v)
	}
	tag := [16]byte{0x51, 0xDE, 0x6E, 0x01}
	buf = append(buf, tag[:]...)
	if b.version == format.PatternV32 {
		exportTag := [16]byte{0x51, 0xDE, 0x6E, 0x02}
		buf = append(buf, exportTag[:]...)
	}
	buf = appendInt32(buf, b.strings.add("Copyright Example Data 2015"))
	buf = engine.AppendUint16(buf, uint16(3)) // age, months
	buf = appendInt32(buf, 5)                 // min user agent count
	published := time.Date(2015, 6, 1, 0, 0, 0, 0, time.UTC).Unix()
	buf = engine.AppendUint64(buf, uint64(published))
	buf = engine.AppendUint64(buf, uint64(published+30*24*3600))
	buf = appendInt32(buf, int32(len(signatureProfiles))) // device combinations
	buf = engine.AppendUint16(buf, uint16(len(MobileUserAgent)))
	buf = engine.AppendUint16(buf, 0)
	buf = append(buf, ' ')  // lowest character
	buf = append(buf, '~')  // highest character
	buf = appendInt32(buf, 64)                   // max signatures
	buf = appendInt32(buf, profilesPerSignature) // profiles per signature
	buf = appendInt32(buf, nodesPerSignature)    // nodes per signature
	buf = appendInt32(buf, 4)                    // max values
	buf = appendInt32(buf, 512)                  // csv buffer
	buf = appendInt32(buf, 1024)                 // json buffer
	buf = appendInt32(buf, 2048)                 // xml buffer
	buf = appendInt32(buf, 16)                   // max signatures closest
	if b.version == format.PatternV32 {
		buf = appendInt32(buf, int32(len(signatureProfiles)-1)) // maximum rank
	}

	return buf
}

func (b *builder) bytes() []byte {
	// The signatures payload populates the packed V32 lists, so it must
	// be assembled before they are emitted.
	signatures := b.signaturesPayload()
	componentsPayload := b.componentsPayload()
	propertiesPayload := b.propertiesPayload()
	mapsPayload := appendInt32(nil, b.strings.add("Lite"))

	out := b.commonHeader()
	out = writeSection(out, b.strings.count, b.strings.buf)
	out = writeSection(out, uint32(len(components)), componentsPayload)
	out = writeSection(out, 1, mapsPayload)
	out = writeSection(out, uint32(len(properties)), propertiesPayload)
	out = writeSection(out, b.valueCount, b.valuesBuf)
	out = writeSection(out, uint32(len(b.profileList)), b.profilesBuf)
	out = writeSection(out, uint32(len(signatureProfiles)), signatures)
	if b.version == format.PatternV32 {
		out = writeSection(out, uint32(len(b.signatureNodeOffsets)), intsPayload(b.signatureNodeOffsets))
		out = writeSection(out, uint32(len(b.nodeRankedSignatureIndexes)), intsPayload(b.nodeRankedSignatureIndexes))
	}
	out = writeSection(out, uint32(len(b.rankedSignatureIndexes)), intsPayload(b.rankedSignatureIndexes))
	out = writeSection(out, b.nodeCount, b.nodesBuf)
	out = writeSection(out, uint32(len(b.rootOffs)), intsPayload(b.rootOffs))
	out = writeSection(out, uint32(len(b.profileList)), b.profileOffsetsPayload())

	return out
}

func writeSection(out []byte, count uint32, payload []byte) []byte {
	out = engine.AppendUint32(out, count)
	out = engine.AppendUint32(out, uint32(len(payload)))
	out = engine.AppendUint64(out, xxhash.Sum64(payload))

	return append(out, payload...)
}

func intsPayload(vals []int32) []byte {
	var buf []byte
	for _, v := range vals {
		buf = appendInt32(buf, v)
	}

	return buf
}

func appendInt32(buf []byte, v int32) []byte {
	return engine.AppendUint32(buf, uint32(v))
}

type stringTable struct {
	buf     []byte
	offsets map[string]int32
	count   uint32
}

func newStringTable() stringTable {
	return stringTable{offsets: make(map[string]int32)}
}

// add interns a string, returning its record offset. Adding an already
// interned string returns the existing offset.
func (st *stringTable) add(s string) int32 {
	if off, ok := st.offsets[s]; ok {
		return off
	}
	off := int32(len(st.buf))
	st.buf = engine.AppendUint16(st.buf, uint16(len(s)))
	st.buf = append(st.buf, s...)
	st.buf = append(st.buf, 0)
	st.offsets[s] = off
	st.count++

	return off
}
