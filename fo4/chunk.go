package fo4

import (
	"github.com/tesvault/bsarc/compress"
	"github.com/tesvault/bsarc/errs"
	"github.com/tesvault/bsarc/internal/blob"
)

// chunkSentinel terminates every chunk record on disk.
const chunkSentinel = 0xBAADF00D

// Mips is the mip range a chunk covers, used by the directx format only.
type Mips struct {
	First uint16
	Last  uint16
}

// Chunk is a sub-range of a file's payload: the unit of compression and,
// for directx archives, of mip selection.
type Chunk struct {
	blob.Data
	Mips Mips
}

// NewChunk creates a chunk owning the given bytes.
func NewChunk(data []byte) *Chunk {
	c := &Chunk{}
	c.SetData(data)

	return c
}

// Clear resets the chunk's data and mip range.
func (c *Chunk) Clear() {
	c.Data.Clear()
	c.Mips = Mips{}
}

// Compress compresses the chunk in place with zlib. The chunk must not
// already be compressed; on error the contents are left unchanged.
func (c *Chunk) Compress() error {
	if c.Compressed() {
		return errs.ErrStateMismatch
	}

	out, err := compress.NewZlibCodec().Compress(c.AsBytes())
	if err != nil {
		return err
	}

	c.SetCompressedData(out, uint32(c.Len()))

	return nil
}

// CompressBound returns an upper bound on the chunk's compressed size.
// The chunk must not already be compressed.
func (c *Chunk) CompressBound() (int, error) {
	if c.Compressed() {
		return 0, errs.ErrStateMismatch
	}

	return compress.NewZlibCodec().CompressBound(c.Len()), nil
}

// Decompress decompresses the chunk in place. The chunk must be
// compressed; on error the contents are left unchanged.
func (c *Chunk) Decompress() error {
	if !c.Compressed() {
		return errs.ErrStateMismatch
	}

	out, err := compress.NewZlibCodec().Decompress(c.AsBytes(), int(c.DecompressedSize()))
	if err != nil {
		return err
	}

	c.SetData(out)

	return nil
}
