package dataset

import (
	"fmt"
	"os"
	"time"

	"github.com/uaforge/pattern/entity"
	"github.com/uaforge/pattern/errs"
	"github.com/uaforge/pattern/format"
	"github.com/uaforge/pattern/reader"
)

// FromBuffer constructs a stream-mode dataset over an in-memory buffer
// (memory-mapped mode). The buffer is not copied and must stay immutable
// while the dataset is live.
//
//	ds, err := dataset.FromBuffer(data, dataset.WithDefaultCaches())
func FromBuffer(data []byte, opts ...Option) (*Dataset, error) {
	cfg := buildConfig(opts)

	ds := &Dataset{
		src:          reader.NewBufferSource(data),
		lastModified: cfg.lastModified,
	}
	if ds.lastModified.IsZero() {
		ds.lastModified = time.Now().UTC()
	}
	ds.pool = reader.NewPool(ds.src)

	if err := loadForStreaming(ds, cfg); err != nil {
		_ = ds.Close()
		return nil, err
	}

	return ds, nil
}

// Open constructs a stream-mode dataset over the file at path.
//
//	ds, err := dataset.Open(path,
//	    dataset.WithDefaultCaches(),
//	    dataset.WithTempFile(),
//	    dataset.WithLastModified(date),
//	)
func Open(path string, opts ...Option) (*Dataset, error) {
	cfg := buildConfig(opts)

	src, err := reader.OpenFileSource(path)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		src:          src,
		path:         path,
		isTemp:       cfg.isTemp,
		lastModified: cfg.lastModified,
	}
	ds.pool = reader.NewPool(src)

	if err := loadForStreaming(ds, cfg); err != nil {
		// Close releases the partially-built resources, including the
		// temp file when one was requested.
		_ = ds.Close()
		return nil, err
	}

	return ds, nil
}

// loadForStreaming parses the common header, reads the section headers in
// their mandated order, wires up the lazy lists with their configured
// caches, and materialises the always-resident tables. Any failure leaves
// the dataset for the caller to close.
func loadForStreaming(ds *Dataset, cfg *config) error {
	r, err := ds.pool.Acquire()
	if err != nil {
		return err
	}
	defer ds.pool.Release(r)

	if err := r.SetPos(0); err != nil {
		return err
	}
	if ds.meta, err = readMeta(r); err != nil {
		return err
	}
	if ds.lastModified.IsZero() {
		ds.lastModified = fileModTime(ds.path)
	}

	ds.sectionHeaders = make(map[string]entity.Header, 13)
	section := func(name string) (entity.Header, error) {
		h, err := entity.ReadHeader(r)
		if err != nil {
			return entity.Header{}, fmt.Errorf("section %s: %w", name, err)
		}
		ds.sectionHeaders[name] = h

		return h, nil
	}

	// Strings.
	h, err := section("strings")
	if err != nil {
		return err
	}
	stringsLoader, err := newLoader[entity.AsciiString](h, ds.pool, entity.NewAsciiStringFactory(), cfg.cacheFor(StringsCache))
	if err != nil {
		return err
	}
	ds.strings = &StreamList[entity.AsciiString]{loader: stringsLoader}

	// Components; the factory depends on the schema version.
	if h, err = section("components"); err != nil {
		return err
	}
	var componentFactory entity.Factory[entity.Component]
	switch ds.meta.Version {
	case format.PatternV31:
		componentFactory = entity.NewComponentFactoryV31()
	case format.PatternV32:
		componentFactory = entity.NewComponentFactoryV32()
	default:
		return errs.ErrUnsupportedVersion
	}
	if ds.components, err = newFixedList(h, componentFactory, &ds.closed); err != nil {
		return err
	}

	// Maps.
	if h, err = section("maps"); err != nil {
		return err
	}
	if ds.maps, err = newFixedList[entity.Map](h, entity.NewMapFactory(), &ds.closed); err != nil {
		return err
	}

	// Properties.
	if h, err = section("properties"); err != nil {
		return err
	}
	if ds.properties, err = newPropertiesList(h, entity.NewPropertyFactory(), &ds.closed); err != nil {
		return err
	}

	// Values.
	if h, err = section("values"); err != nil {
		return err
	}
	valuesLoader, err := newLoader[entity.Value](h, ds.pool, entity.NewValueFactory(), cfg.cacheFor(ValuesCache))
	if err != nil {
		return err
	}
	ds.values = &StreamList[entity.Value]{loader: valuesLoader}

	// Profiles.
	if h, err = section("profiles"); err != nil {
		return err
	}
	profilesLoader, err := newLoader[entity.Profile](h, ds.pool, entity.NewProfileFactory(), cfg.cacheFor(ProfilesCache))
	if err != nil {
		return err
	}
	ds.profiles = &StreamList[entity.Profile]{loader: profilesLoader}

	// Signatures; V32 adds the two packed integer sections.
	if h, err = section("signatures"); err != nil {
		return err
	}
	var signatureFactory entity.Factory[entity.Signature]
	if ds.meta.Version == format.PatternV31 {
		signatureFactory = entity.NewSignatureFactoryV31(ds.meta.ProfilesPerSignature, ds.meta.NodesPerSignature)
	} else {
		signatureFactory = entity.NewSignatureFactoryV32(ds.meta.ProfilesPerSignature)
	}
	signaturesLoader, err := newLoader(h, ds.pool, signatureFactory, cfg.cacheFor(SignaturesCache))
	if err != nil {
		return err
	}
	ds.signatures = &StreamList[entity.Signature]{loader: signaturesLoader}

	if ds.meta.Version == format.PatternV32 {
		if h, err = section("signatureNodeOffsets"); err != nil {
			return err
		}
		if ds.signatureNodeOffsets, err = newIntegerList(h, ds.pool); err != nil {
			return err
		}
		if h, err = section("nodeRankedSignatureIndexes"); err != nil {
			return err
		}
		if ds.nodeRankedSignatureIndexes, err = newIntegerList(h, ds.pool); err != nil {
			return err
		}
	}

	if h, err = section("rankedSignatureIndexes"); err != nil {
		return err
	}
	if ds.rankedSignatureIndexes, err = newIntegerList(h, ds.pool); err != nil {
		return err
	}

	// Nodes; the factory depends on the schema version.
	if h, err = section("nodes"); err != nil {
		return err
	}
	var nodeFactory entity.Factory[entity.Node]
	if ds.meta.Version == format.PatternV31 {
		nodeFactory = entity.NewNodeFactoryV31()
	} else {
		nodeFactory = entity.NewNodeFactoryV32()
	}
	nodesLoader, err := newLoader(h, ds.pool, nodeFactory, cfg.cacheFor(NodesCache))
	if err != nil {
		return err
	}
	ds.nodes = &StreamList[entity.Node]{loader: nodesLoader}

	// Root nodes.
	if h, err = section("rootNodes"); err != nil {
		return err
	}
	if ds.rootNodes, err = newFixedList[entity.RootNode](h, entity.NewRootNodeFactory(), &ds.closed); err != nil {
		return err
	}

	// Profile offsets.
	if h, err = section("profileOffsets"); err != nil {
		return err
	}
	if ds.profileOffsets, err = newFixedList[entity.ProfileOffset](h, entity.NewProfileOffsetFactory(), &ds.closed); err != nil {
		return err
	}

	// Read into memory all small lists which are frequently accessed.
	if err = ds.components.read(r); err != nil {
		return fmt.Errorf("components: %w", err)
	}
	if err = ds.maps.read(r); err != nil {
		return fmt.Errorf("maps: %w", err)
	}
	if err = ds.properties.read(r); err != nil {
		return fmt.Errorf("properties: %w", err)
	}
	if err = ds.rootNodes.read(r); err != nil {
		return fmt.Errorf("rootNodes: %w", err)
	}
	if err = ds.profileOffsets.read(r); err != nil {
		return fmt.Errorf("profileOffsets: %w", err)
	}

	if err = ds.properties.index(ds.String); err != nil {
		return err
	}

	ds.profileOffsetByID = make(map[int32]int32, ds.profileOffsets.Size())
	for _, po := range ds.profileOffsets.All() {
		ds.profileOffsetByID[po.ProfileID] = po.Offset
	}

	return loadHTTPHeaders(ds)
}

// loadHTTPHeaders collects the distinct header names referenced by the
// components. V31 components carry no header list, so matching falls back
// to User-Agent only.
func loadHTTPHeaders(ds *Dataset) error {
	seen := make(map[string]struct{})
	var headers []string
	for _, c := range ds.components.All() {
		for _, idx := range c.HTTPHeaderIndexes {
			name, err := ds.String(idx)
			if err != nil {
				return fmt.Errorf("component %d http header: %w", c.ComponentID, err)
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				headers = append(headers, name)
			}
		}
	}
	if len(headers) == 0 {
		headers = []string{"User-Agent"}
	}
	ds.httpHeaders = headers

	return nil
}

func fileModTime(path string) time.Time {
	if path == "" {
		return time.Now().UTC()
	}
	info, err := os.Stat(path)
	if err != nil {
		return time.Now().UTC()
	}

	return info.ModTime().UTC()
}
