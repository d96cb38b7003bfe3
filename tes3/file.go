package tes3

import "github.com/tesvault/bsarc/internal/blob"

// File is a single opaque payload within the archive. The format has no
// per-file compression; the payload is always stored verbatim.
type File struct {
	blob.Data
}

// NewFile creates a file owning the given bytes.
func NewFile(data []byte) *File {
	f := &File{}
	f.SetData(data)

	return f
}
