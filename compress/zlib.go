package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zlib"
	"github.com/tesvault/bsarc/errs"
)

// zlibWriterPool pools zlib writers for reuse; the deflate state is
// expensive to construct relative to typical archive payload sizes.
var zlibWriterPool = sync.Pool{
	New: func() any {
		w, err := zlib.NewWriterLevel(io.Discard, zlib.DefaultCompression)
		if err != nil {
			panic(fmt.Sprintf("zlib writer init: %v", err))
		}
		return w
	},
}

// ZlibCodec implements the deflate codec in its zlib framing (RFC 1950
// wrapper, RFC 1951 stream), at the library default level the original
// tooling used.
type ZlibCodec struct{}

// NewZlibCodec creates a new zlib codec.
func NewZlibCodec() ZlibCodec {
	return ZlibCodec{}
}

// Compress compresses data with zlib at the default level.
func (ZlibCodec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w, _ := zlibWriterPool.Get().(*zlib.Writer)
	defer zlibWriterPool.Put(w)

	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}

	return buf.Bytes(), nil
}

// Decompress inflates data into a buffer of exactly decompressedSize
// bytes.
func (ZlibCodec) Decompress(data []byte, decompressedSize int) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}
	defer r.Close()

	return readExactly(r, decompressedSize)
}

// CompressBound mirrors zlib's compressBound worst-case estimate.
func (ZlibCodec) CompressBound(n int) int {
	return n + n>>12 + n>>14 + n>>25 + 13
}

// readExactly drains r expecting exactly size bytes of output.
func readExactly(r io.Reader, size int) ([]byte, error) {
	out := make([]byte, size)
	if _, err := io.ReadFull(r, out); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, errs.ErrSizeMismatch
		}

		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}

	// The stream must end exactly at size; trailing output means the
	// recorded decompressed size was wrong.
	var probe [1]byte
	switch n, err := r.Read(probe[:]); {
	case n != 0:
		return nil, errs.ErrSizeMismatch
	case err != nil && err != io.EOF:
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}

	return out, nil
}
