package fo4

import (
	"github.com/tesvault/bsarc/errs"
	"github.com/tesvault/bsarc/stream"
)

// DefaultMipChunkMax is the default pixel budget of a single directx
// chunk: one 512x512 mip level.
const DefaultMipChunkMax = 512 * 512

// FileHeader is the DDS-derived metadata a directx file carries.
type FileHeader struct {
	Height   uint16
	Width    uint16
	MipCount uint8
	Format   uint8 // DXGI format id
	Flags    uint8
	TileMode uint8
}

// File is a non-empty ordered sequence of chunks plus, for directx
// archives, a DDS-like header.
type File struct {
	Header FileHeader
	chunks []*Chunk

	// modIndex is zero for files created here and preserved from
	// whatever a read archive carried; it is written back as held.
	modIndex uint8
}

// NewFile creates a file holding one chunk that owns the given bytes.
func NewFile(data []byte) *File {
	f := &File{}
	f.Append(NewChunk(data))

	return f
}

// Len returns the number of chunks.
func (f *File) Len() int {
	return len(f.chunks)
}

// Empty reports whether the file holds no chunks.
func (f *File) Empty() bool {
	return len(f.chunks) == 0
}

// Chunk returns the chunk at position i.
func (f *File) Chunk(i int) *Chunk {
	return f.chunks[i]
}

// Chunks returns the file's chunk list in order.
func (f *File) Chunks() []*Chunk {
	return f.chunks
}

// Append adds a chunk at the end of the file.
func (f *File) Append(c *Chunk) {
	f.chunks = append(f.chunks, c)
}

// Clear removes every chunk and resets the header.
func (f *File) Clear() {
	f.chunks = nil
	f.Header = FileHeader{}
}

// readOptions configures ReadFrom.
type readOptions struct {
	mipChunkMax int
	compress    bool
}

// ReadOption customizes how a file is built from raw bytes.
type ReadOption func(*readOptions)

// WithMipChunkMax bounds the pixel count a single directx chunk may
// cover. Chunk boundaries always align with mip boundaries.
func WithMipChunkMax(pixels int) ReadOption {
	return func(o *readOptions) { o.mipChunkMax = pixels }
}

// WithCompressedChunks compresses every produced chunk.
func WithCompressedChunks() ReadOption {
	return func(o *readOptions) { o.compress = true }
}

// ReadFrom replaces the file's contents with data interpreted for the
// given format. General files become a single chunk; directx files have
// their DDS header parsed and their mips split into aligned chunks.
// The bytes are copied, never borrowed.
func (f *File) ReadFrom(data []byte, format Format, opts ...ReadOption) error {
	o := readOptions{mipChunkMax: DefaultMipChunkMax}
	for _, opt := range opts {
		opt(&o)
	}

	switch format {
	case FormatGeneral:
		f.readGeneral(data)
	case FormatDirectX:
		if err := f.readDirectX(data, o.mipChunkMax); err != nil {
			return err
		}
	default:
		return errs.ErrBadFormat
	}

	if o.compress {
		for _, c := range f.chunks {
			if err := c.Compress(); err != nil {
				return err
			}
		}
	}

	return nil
}

func (f *File) readGeneral(data []byte) {
	owned := make([]byte, len(data))
	copy(owned, data)

	f.Clear()
	f.Append(NewChunk(owned))
}

func (f *File) readDirectX(data []byte, mipChunkMax int) error {
	info, err := parseDDS(data)
	if err != nil {
		return err
	}

	f.Clear()
	f.Header = FileHeader{
		Height:   uint16(info.height),
		Width:    uint16(info.width),
		MipCount: uint8(info.mipCount),
		Format:   info.format,
		TileMode: 8,
	}

	type mipSpan struct {
		pixels uint64
		size   uint32
	}
	mips := make([]mipSpan, info.mipCount)
	for i := range mips {
		w := mipDim(info.width, uint32(i))
		h := mipDim(info.height, uint32(i))
		mips[i] = mipSpan{
			pixels: uint64(w) * uint64(h),
			size:   mipSize(info.format, w, h),
		}
	}

	offset := info.dataOff
	for first := 0; first < len(mips); {
		last := first
		total := mips[first].pixels
		size := mips[first].size
		for last+1 < len(mips) && total+mips[last+1].pixels <= uint64(mipChunkMax) {
			last++
			total += mips[last].pixels
			size += mips[last].size
		}

		if offset+int(size) > len(data) {
			return errs.ErrTruncatedInput
		}
		owned := make([]byte, size)
		copy(owned, data[offset:offset+int(size)])

		c := NewChunk(owned)
		c.Mips = Mips{First: uint16(first), Last: uint16(last)}
		f.Append(c)

		offset += int(size)
		first = last + 1
	}

	return nil
}

// WriteTo serializes the file back to its raw form: a DDS image for
// directx, the concatenated payload for general. Every chunk must be
// decompressed.
func (f *File) WriteTo(format Format) ([]byte, error) {
	var total int
	for _, c := range f.chunks {
		if c.Compressed() {
			return nil, errs.ErrStateMismatch
		}
		total += c.Len()
	}

	data := make([]byte, 0, total)
	for _, c := range f.chunks {
		data = append(data, c.AsBytes()...)
	}

	switch format {
	case FormatGeneral:
		return data, nil
	case FormatDirectX:
		w := stream.NewWriter()
		writeDDS(w, f.Header, data)

		out := make([]byte, w.Len())
		copy(out, w.Bytes())

		return out, nil
	default:
		return nil, errs.ErrBadFormat
	}
}
