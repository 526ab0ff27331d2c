package entity

import (
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/reader"
)

// RootNode is an entry point into the node trie. Well-formed V32 datasets
// carry one root node per component; root nodes are always resident.
type RootNode struct {
	// NodeOffset is the root's byte offset within the nodes section.
	NodeOffset int32
}

// RootNodeFactory decodes the 4-byte root node record, identical in both
// schema versions.
type RootNodeFactory struct{}

var _ Factory[RootNode] = RootNodeFactory{}

func NewRootNodeFactory() RootNodeFactory {
	return RootNodeFactory{}
}

func (RootNodeFactory) Create(_ int32, r *reader.Reader) (RootNode, error) {
	off, err := r.ReadInt32()
	if err != nil {
		return RootNode{}, err
	}

	return RootNode{NodeOffset: off}, nil
}

func (RootNodeFactory) Stride() (int, error) {
	return 4, nil
}

func (RootNodeFactory) Length(RootNode) (int, error) {
	return 0, errs.ErrUnsupportedOperation
}
