// Package tes4 implements the two-level archive format of the second
// engine generation: directories of files with optional string tables,
// per-file compression, embedded filenames, and an Xbox big-endian
// variant, across on-disk versions 103, 104, and 105.
package tes4

import (
	"github.com/tesvault/bsarc/internal/pathutil"
)

// Hash is the key that locates a directory or file inside an archive.
type Hash struct {
	Last   uint8
	Last2  uint8
	Length uint8
	First  uint8
	CRC    uint32
}

// Numeric packs the hash into the 64-bit value it is ordered and
// serialized by.
func (h Hash) Numeric() uint64 {
	return uint64(h.Last) |
		uint64(h.Last2)<<8 |
		uint64(h.Length)<<16 |
		uint64(h.First)<<24 |
		uint64(h.CRC)<<32
}

// hashFromNumeric unpacks a serialized hash.
func hashFromNumeric(v uint64) Hash {
	return Hash{
		Last:   uint8(v),
		Last2:  uint8(v >> 8),
		Length: uint8(v >> 16),
		First:  uint8(v >> 24),
		CRC:    uint32(v >> 32),
	}
}

// crc32 computes the value the format stores in the hash's crc field.
// It is a multiplicative accumulator, not a true cyclic redundancy
// check.
func crc32(s string) uint32 {
	var h uint32
	for i := 0; i < len(s); i++ {
		h = h*0x1003F + uint32(s[i])
	}

	return h
}

// HashDirectory hashes a directory path.
func HashDirectory(path string) Hash {
	return hashDirectoryNormalized(pathutil.NormalizeDirectory(path))
}

func hashDirectoryNormalized(p string) Hash {
	var h Hash

	if len(p) >= 3 {
		h.Last2 = p[len(p)-2]
	}
	if len(p) >= 1 {
		h.Last = p[len(p)-1]
		h.First = p[0]
	}

	h.Length = uint8(len(p))
	if len(p) > 3 {
		// skip first and last two chars -> already processed
		h.CRC = crc32(p[1 : len(p)-2])
	}

	return h
}

// fileExtension packs the first four bytes of an extension (dot
// included) into the lookup key used for the hash bump table.
func fileExtension(ext string) uint32 {
	var v uint32
	for i := 0; i < len(ext) && i < 4; i++ {
		v |= uint32(ext[i]) << (i * 8)
	}

	return v
}

// extensionLUT is the fixed table of extensions that perturb file
// hashes. The index of a match feeds a bit-patterned bump of the first,
// last, and last2 bytes.
var extensionLUT = [6]uint32{
	fileExtension(""),
	fileExtension(".nif"),
	fileExtension(".kf"),
	fileExtension(".dds"),
	fileExtension(".wav"),
	fileExtension(".adp"),
}

// HashFile hashes a filename. Only the filename component of path is
// considered. An empty stem, a stem of 260 or more bytes, or an
// extension of 16 or more bytes produces the zero hash.
func HashFile(path string) Hash {
	name := pathutil.FileName(pathutil.NormalizePath(path))
	if name == "" || len(name) >= pathutil.MaxPathLength {
		name = "."
	}

	stem := name
	extension := ""
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			stem = name[:i]
			extension = name[i:]
			break
		}
	}

	if stem == "" || len(stem) >= pathutil.MaxPathLength || len(extension) >= 16 {
		return Hash{}
	}

	h := hashDirectoryNormalized(stem)
	h.CRC += crc32(extension)

	key := fileExtension(extension)
	for i, ext := range extensionLUT {
		if ext == key {
			h.First += uint8(32 * (i & 0xFC))
			h.Last += uint8((i & 0xFE) << 6)
			h.Last2 += uint8(i << 7)
			break
		}
	}

	return h
}
