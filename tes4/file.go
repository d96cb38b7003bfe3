package tes4

import (
	"github.com/tesvault/bsarc/compress"
	"github.com/tesvault/bsarc/errs"
	"github.com/tesvault/bsarc/internal/blob"
)

// Size-field bits of the on-disk file record. The low 30 bits carry the
// stored size.
const (
	sizeCompressionToggle = 1 << 30
	sizeSecondaryArchive  = 1 << 31
	sizeMask              = sizeCompressionToggle - 1
)

// File is a single payload within a directory. A compressed file keeps
// its decompressed length as an annotation; the 1-bit secondary-archive
// marker from the size field is preserved across round-trips.
type File struct {
	blob.Data
	secondaryArchive bool
}

// NewFile creates a file owning the given bytes.
func NewFile(data []byte) *File {
	f := &File{}
	f.SetData(data)

	return f
}

// SecondaryArchive reports the preserved secondary-archive marker.
func (f *File) SecondaryArchive() bool {
	return f.secondaryArchive
}

// SetSecondaryArchive sets the secondary-archive marker.
func (f *File) SetSecondaryArchive(v bool) {
	f.secondaryArchive = v
}

// Compress compresses the file in place with the version's native codec.
// The file must not already be compressed.
func (f *File) Compress(v Version) error {
	return f.CompressWith(v, CodecNormal)
}

// CompressWith compresses the file in place with an explicit codec
// choice. On error the contents are left unchanged.
func (f *File) CompressWith(v Version, codec CompressionCodec) error {
	if f.Compressed() {
		return errs.ErrStateMismatch
	}

	c, err := codecFor(v, codec)
	if err != nil {
		return err
	}

	out, err := c.Compress(f.AsBytes())
	if err != nil {
		return err
	}

	f.SetCompressedData(out, uint32(f.Len()))

	return nil
}

// Decompress decompresses the file in place with the version's native
// codec. The file must be compressed.
func (f *File) Decompress(v Version) error {
	return f.DecompressWith(v, CodecNormal)
}

// DecompressWith decompresses the file in place with an explicit codec
// choice. On error the contents are left unchanged.
func (f *File) DecompressWith(v Version, codec CompressionCodec) error {
	if !f.Compressed() {
		return errs.ErrStateMismatch
	}

	c, err := codecFor(v, codec)
	if err != nil {
		return err
	}

	out, err := c.Decompress(f.AsBytes(), int(f.DecompressedSize()))
	if err != nil {
		return err
	}

	f.SetData(out)

	return nil
}

func codecFor(v Version, codec CompressionCodec) (compress.Codec, error) {
	if codec == CodecXMem {
		return compress.NewLZXCodec(), nil
	}

	switch v {
	case VersionTES4, VersionFO3:
		return compress.NewZlibCodec(), nil
	case VersionSSE:
		return compress.NewLZ4Codec(), nil
	default:
		return nil, errs.ErrBadVersion
	}
}
