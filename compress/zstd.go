package compress

// ZstdCompressor provides Zstandard compression for dataset files.
//
// Zstd is the default distribution format for full datasets: high
// compression ratio matters more than compression speed because a file is
// compressed once by the publisher and decompressed once per process
// start.
//
// Two implementations exist behind build tags: the pure-Go
// klauspost/compress decoder (default) and the cgo gozstd binding
// (build tag "cgo_zstd") for deployments that already link libzstd.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
