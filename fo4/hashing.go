// Package fo4 implements the flat chunked archive format of the third
// engine generation: per-file chunk lists, "general" and DDS-aware
// "directx" sub-formats, and an optional trailing string table.
package fo4

import (
	"hash/crc32"

	"github.com/tesvault/bsarc/internal/pathutil"
)

// Hash is the key that locates a file inside an archive. Only equality
// matters; archives keep files in insertion order.
type Hash struct {
	// File is the CRC of the path's stem.
	File uint32

	// Extension packs the first four bytes of the extension.
	Extension uint32

	// Directory is the CRC of the parent path.
	Directory uint32
}

var crcTable = crc32.MakeTable(crc32.IEEE)

// crc computes the reflected IEEE CRC with a zero initial value and no
// final inversion; hash/crc32's ChecksumIEEE applies both, so the table
// recurrence is run directly.
func crc(s string) uint32 {
	var r uint32
	for i := 0; i < len(s); i++ {
		r = r>>8 ^ crcTable[(r^uint32(s[i]))&0xFF]
	}

	return r
}

// HashFile hashes a file path. The path is byte-wise normalized first;
// non-ASCII bytes feed the CRC untouched.
func HashFile(path string) Hash {
	p := pathutil.NormalizePath(path)
	parent, stem, extension := pathutil.Split(p)

	var h Hash
	h.Directory = crc(parent)
	h.File = crc(stem)

	for i := 0; i < len(extension) && i < 4; i++ {
		h.Extension |= uint32(extension[i]) << (i * 8)
	}

	return h
}
