package compress

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/pierrec/lz4/v4"
	"github.com/tesvault/bsarc/errs"
)

// lz4WriterPool pools frame writers; they are configured once for the
// high-compression level the original tooling emits.
var lz4WriterPool = sync.Pool{
	New: func() any {
		w := lz4.NewWriter(io.Discard)
		if err := w.Apply(lz4.CompressionLevelOption(lz4.Level9)); err != nil {
			panic(fmt.Sprintf("lz4 writer init: %v", err))
		}
		return w
	},
}

// LZ4Codec implements the LZ4 frame codec used by TES4 v105 archives.
// Frames are produced at the HC default level; the decoder accepts
// arbitrary frame block sizes.
type LZ4Codec struct{}

// NewLZ4Codec creates a new LZ4 frame codec.
func NewLZ4Codec() LZ4Codec {
	return LZ4Codec{}
}

// Compress wraps data in a single LZ4 frame.
func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data)/2 + 64)

	w, _ := lz4WriterPool.Get().(*lz4.Writer)
	defer lz4WriterPool.Put(w)

	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCompression, err)
	}

	return buf.Bytes(), nil
}

// Decompress reads a whole LZ4 frame into a buffer of exactly
// decompressedSize bytes.
func (LZ4Codec) Decompress(data []byte, decompressedSize int) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(data))
	return readExactly(r, decompressedSize)
}

// CompressBound returns the frame-compression worst case: the block
// bound plus frame header and footer overhead.
func (LZ4Codec) CompressBound(n int) int {
	return lz4.CompressBlockBound(n) + 15 + 8
}
