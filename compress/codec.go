// Package compress provides the codecs that live beneath archive files
// and chunks.
//
// Three codecs exist: zlib deflate (TES4 v103/104 and FO4 chunks),
// LZ4 frame (TES4 v105), and LZX (Xbox archives, delegated to the
// external XMEM proxy and only reachable on Windows). Each codec is
// stateless and safe for concurrent use; reusable compressor state is
// pooled internally.
package compress

// Codec is a single compression algorithm.
type Codec interface {
	// Compress compresses data and returns a newly-allocated result.
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data, whose original length is known to be
	// decompressedSize, and returns a newly-allocated result. A result
	// shorter or longer than decompressedSize fails with
	// errs.ErrSizeMismatch; corrupt input fails with errs.ErrCompression.
	Decompress(data []byte, decompressedSize int) ([]byte, error)

	// CompressBound returns an upper bound on the compressed size of n
	// input bytes.
	CompressBound(n int) int
}

var (
	_ Codec = (*ZlibCodec)(nil)
	_ Codec = (*LZ4Codec)(nil)
	_ Codec = (*LZXCodec)(nil)
)
