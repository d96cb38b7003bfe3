// Package tes3 implements the flat archive format used by the first
// generation of the engine: a hash table, a separate name-offset table,
// and concatenated file bodies.
package tes3

import (
	"math/bits"

	"github.com/tesvault/bsarc/internal/pathutil"
)

// Hash is the key that locates a file inside an archive. Two 32-bit
// halves are computed independently over the two halves of the path.
type Hash struct {
	Lo uint32
	Hi uint32
}

// Numeric packs the hash into the 64-bit value entries sort by.
func (h Hash) Numeric() uint64 {
	return uint64(h.Lo)<<32 | uint64(h.Hi)
}

// HashFile hashes a file path. Hashing is pure and matches the original
// tooling bit for bit; paths are directory-normalized first, so case and
// separator style never matter.
func HashFile(path string) Hash {
	p := pathutil.NormalizeDirectory(path)

	var h Hash
	mid := len(p) / 2

	for i := 0; i < mid; i++ {
		// rotate between first 4 bytes
		h.Lo ^= uint32(p[i]) << ((i % 4) * 8)
	}

	for i := mid; i < len(p); i++ {
		// rotate between last 4 bytes
		rot := uint32(p[i]) << (((i - mid) % 4) * 8)
		h.Hi = bits.RotateLeft32(h.Hi^rot, -int(rot%32))
	}

	return h
}
