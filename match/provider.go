// Package match provides the consumer surface over a stream-mode dataset:
// matching a User-Agent (or a bundle of HTTP headers) to a signature and
// its profiles, and reconstructing matches from stored device ids.
//
// The walk is a plain trie descent over the User-Agent bytes. Each root
// node is an entry point; the deepest node reached that belongs to at
// least one signature contributes its ranked signatures, and the best
// (lowest) rank wins. A User-Agent that reaches no signature — including
// the empty User-Agent — yields the default profile of every component, so
// a Match is always produced.
package match

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/uaforge/pattern/dataset"
	"github.com/uaforge/pattern/entity"
	"github.com/uaforge/pattern/errs"
)

// Provider performs device detection against one dataset.
//
// A Provider is stateless beyond the dataset handle and is safe for
// concurrent use.
type Provider struct {
	ds *dataset.Dataset
}

// NewProvider creates a provider over ds.
func NewProvider(ds *dataset.Dataset) *Provider {
	return &Provider{ds: ds}
}

// Dataset returns the underlying dataset handle.
func (p *Provider) Dataset() *dataset.Dataset {
	return p.ds
}

// Match detects the device that produced userAgent. The result is never
// nil on success: an unmatched or empty User-Agent produces a default
// match carrying each component's default profile.
func (p *Provider) Match(userAgent string) (*Match, error) {
	rank, found, err := p.bestRank(userAgent)
	if err != nil {
		return nil, err
	}
	if !found {
		return p.defaultMatch()
	}

	sigIndex, err := p.ds.RankedSignatureIndexes().At(rank)
	if err != nil {
		return nil, err
	}
	sig, err := p.ds.Signatures().At(sigIndex)
	if err != nil {
		return nil, err
	}

	profiles := make([]entity.Profile, 0, len(sig.ProfileOffsets))
	for _, off := range sig.ProfileOffsets {
		profile, err := p.ds.Profiles().At(off)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	return &Match{ds: p.ds, signature: &sig, profiles: profiles}, nil
}

// MatchHeaders detects the device from a bundle of HTTP headers. The first
// recognised header with a non-empty value is matched as a User-Agent;
// bundles with no recognised header, or where every recognised header maps
// to an empty value, behave exactly like an empty User-Agent.
func (p *Provider) MatchHeaders(headers map[string]string) (*Match, error) {
	userAgent := ""
	for _, name := range p.ds.HTTPHeaders() {
		if v, ok := headers[name]; ok && v != "" {
			userAgent = v
			break
		}
	}

	return p.Match(userAgent)
}

// MatchDeviceID reconstructs a Match from a device id string produced by
// Match.DeviceID.
func (p *Provider) MatchDeviceID(deviceID string) (*Match, error) {
	parts := strings.Split(deviceID, "-")
	ids := make([]int32, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("device id %q: %w", deviceID, errs.ErrMalformed)
		}
		ids = append(ids, int32(id))
	}

	return p.MatchDeviceIDs(ids)
}

// MatchDeviceIDBytes reconstructs a Match from a device id byte array
// produced by Match.DeviceIDBytes.
func (p *Provider) MatchDeviceIDBytes(deviceID []byte) (*Match, error) {
	if len(deviceID) == 0 || len(deviceID)%4 != 0 {
		return nil, fmt.Errorf("device id of %d bytes: %w", len(deviceID), errs.ErrMalformed)
	}
	ids := make([]int32, 0, len(deviceID)/4)
	for i := 0; i < len(deviceID); i += 4 {
		ids = append(ids, int32(uint32(deviceID[i])|uint32(deviceID[i+1])<<8|
			uint32(deviceID[i+2])<<16|uint32(deviceID[i+3])<<24))
	}

	return p.MatchDeviceIDs(ids)
}

// MatchDeviceIDs reconstructs a Match from a list of profile ids.
func (p *Provider) MatchDeviceIDs(profileIDs []int32) (*Match, error) {
	profiles := make([]entity.Profile, 0, len(profileIDs))
	for _, id := range profileIDs {
		profile, err := p.ds.ProfileByID(id)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	return &Match{ds: p.ds, profiles: profiles}, nil
}

// bestRank walks every root node over the User-Agent bytes and returns the
// lowest signature rank reached.
func (p *Provider) bestRank(userAgent string) (int32, bool, error) {
	best := int32(-1)
	found := false

	for _, root := range p.ds.RootNodes().All() {
		node, err := p.ds.Nodes().At(root.NodeOffset)
		if err != nil {
			return 0, false, err
		}

		var deepest []int32
		for i := 0; i < len(userAgent); i++ {
			next := int32(-1)
			for _, child := range node.Children {
				if child.Character == userAgent[i] {
					next = child.NodeOffset
					break
				}
			}
			if next < 0 {
				break
			}
			if node, err = p.ds.Nodes().At(next); err != nil {
				return 0, false, err
			}
			ranks, err := p.ds.NodeRankedSignatureIndexes(node)
			if err != nil {
				return 0, false, err
			}
			if len(ranks) > 0 {
				deepest = ranks
			}
		}

		for _, rank := range deepest {
			if !found || rank < best {
				best = rank
				found = true
			}
		}
	}

	return best, found, nil
}

// defaultMatch builds the fallback match from every component's default
// profile.
func (p *Provider) defaultMatch() (*Match, error) {
	profiles := make([]entity.Profile, 0, p.ds.Components().Size())
	for _, c := range p.ds.Components().All() {
		profile, err := p.ds.ProfileByID(c.DefaultProfileID)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	return &Match{ds: p.ds, profiles: profiles}, nil
}
