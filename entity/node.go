package entity

import (
	"fmt"

	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// maxNodeChildren bounds the child list of a single node; User-Agent bytes
// are the alphabet, so a corrupted count past 256 is never legitimate.
const maxNodeChildren = 256

// NodeChild is one labelled edge out of a node.
type NodeChild struct {
	// Character is the next User-Agent byte this edge consumes.
	Character uint8
	// NodeOffset is the child's byte offset within the nodes section.
	NodeOffset int32
}

// Node is a trie vertex in the matching graph. Nodes are a variable-length
// kind addressed by byte offset; child references between nodes use the
// same offsets.
type Node struct {
	// Offset is the record's byte offset within the nodes section.
	Offset int32
	// ParentOffset is the parent node's byte offset, -1 for a root.
	ParentOffset int32
	// Character is the User-Agent byte that led to this node.
	Character uint8
	// Children are the outgoing edges, in the order the record stores them.
	Children []NodeChild

	// RankedSignatureIndexes are indices into the rankedSignatureIndexes
	// list for signatures containing this node. Populated directly for
	// V31.
	RankedSignatureIndexes []int32

	// RankedSignatureCount and FirstRankedSignatureIndex locate this
	// node's entries inside the nodeRankedSignatureIndexes list. V32 only.
	RankedSignatureCount      uint16
	FirstRankedSignatureIndex int32
}

// readNodeCommon decodes the prefix and children shared by both versions.
func readNodeCommon(index int32, r *reader.Reader) (Node, uint16, error) {
	n := Node{Offset: index, FirstRankedSignatureIndex: -1}
	var err error

	if n.ParentOffset, err = r.ReadInt32(); err != nil {
		return Node{}, 0, err
	}
	if n.Character, err = r.ReadUint8(); err != nil {
		return Node{}, 0, err
	}

	childrenCount, err := r.ReadUint16()
	if err != nil {
		return Node{}, 0, err
	}
	if childrenCount > maxNodeChildren {
		return Node{}, 0, fmt.Errorf("node at offset %d has %d children: %w", index, childrenCount, errs.ErrMalformed)
	}
	rankedCount, err := r.ReadUint16()
	if err != nil {
		return Node{}, 0, err
	}

	n.Children = make([]NodeChild, childrenCount)
	for i := range n.Children {
		if n.Children[i].Character, err = r.ReadUint8(); err != nil {
			return Node{}, 0, err
		}
		if n.Children[i].NodeOffset, err = r.ReadInt32(); err != nil {
			return Node{}, 0, err
		}
	}
	n.RankedSignatureCount = rankedCount

	return n, rankedCount, nil
}

// NodeFactoryV31 decodes V31 node records with inline ranked-signature
// indices.
type NodeFactoryV31 struct{}

var _ Factory[Node] = NodeFactoryV31{}

func NewNodeFactoryV31() NodeFactoryV31 {
	return NodeFactoryV31{}
}

func (NodeFactoryV31) Create(index int32, r *reader.Reader) (Node, error) {
	n, rankedCount, err := readNodeCommon(index, r)
	if err != nil {
		return Node{}, err
	}

	n.RankedSignatureIndexes = make([]int32, rankedCount)
	for i := range n.RankedSignatureIndexes {
		if n.RankedSignatureIndexes[i], err = r.ReadInt32(); err != nil {
			return Node{}, err
		}
	}

	return n, nil
}

func (NodeFactoryV31) Stride() (int, error) {
	return 0, errs.ErrUnsupportedOperation
}

// Length reports the on-disk record size.
func (NodeFactoryV31) Length(item Node) (int, error) {
	return 9 + 5*len(item.Children) + 4*len(item.RankedSignatureIndexes), nil
}

// NodeFactoryV32 decodes V32 node records, which replace the inline index
// list with a single index into nodeRankedSignatureIndexes.
type NodeFactoryV32 struct{}

var _ Factory[Node] = NodeFactoryV32{}

func NewNodeFactoryV32() NodeFactoryV32 {
	return NodeFactoryV32{}
}

func (NodeFactoryV32) Create(index int32, r *reader.Reader) (Node, error) {
	n, rankedCount, err := readNodeCommon(index, r)
	if err != nil {
		return Node{}, err
	}

	if rankedCount > 0 {
		if n.FirstRankedSignatureIndex, err = r.ReadInt32(); err != nil {
			return Node{}, err
		}
	}

	return n, nil
}

func (NodeFactoryV32) Stride() (int, error) {
	return 0, errs.ErrUnsupportedOperation
}

// Length reports the on-disk record size; the trailing index is present
// only when the node belongs to at least one signature.
func (NodeFactoryV32) Length(item Node) (int, error) {
	n := 9 + 5*len(item.Children)
	if item.RankedSignatureCount > 0 {
		n += 4
	}

	return n, nil
}
