package compress

import (
	"github.com/tesvault/bsarc/compress/xmem"
	"github.com/tesvault/bsarc/errs"
)

// LZXCodec implements the Xbox 360 LZX codec by delegating to the
// external XMEM proxy process. The proxy only exists on Windows; on any
// other platform, and whenever the helper binary is missing, every
// operation fails with errs.ErrUnsupportedCodec.
type LZXCodec struct{}

// NewLZXCodec creates a new LZX codec handle.
func NewLZXCodec() LZXCodec {
	return LZXCodec{}
}

// Compress compresses data through the XMEM proxy.
func (LZXCodec) Compress(data []byte) ([]byte, error) {
	p, err := xmem.Default()
	if err != nil {
		return nil, err
	}

	return p.Compress(data)
}

// Decompress decompresses data through the XMEM proxy.
func (LZXCodec) Decompress(data []byte, decompressedSize int) ([]byte, error) {
	p, err := xmem.Default()
	if err != nil {
		return nil, err
	}

	out, err := p.Decompress(data, decompressedSize)
	if err != nil {
		return nil, err
	}
	if len(out) != decompressedSize {
		return nil, errs.ErrSizeMismatch
	}

	return out, nil
}

// CompressBound returns a conservative local estimate. The exact bound
// requires the payload itself; callers holding the data can query
// xmem.Proxy.CompressBound directly.
func (LZXCodec) CompressBound(n int) int {
	return n + n>>1 + 32
}
