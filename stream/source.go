// Package stream implements the byte I/O layer shared by the archive codecs.
//
// A Source is an immutable run of bytes backed by an owned buffer, a
// borrowed slice, or a memory-mapped file. A Reader is a bounded cursor
// over a Source that decodes integers with a configurable byte order and
// fails with errs.ErrTruncatedInput instead of reading past the end. A
// Writer accumulates an in-memory image of an archive and flushes it to
// disk atomically.
package stream

import "os"

type sourceKind uint8

const (
	sourceOwned sourceKind = iota
	sourceBorrowed
	sourceMapped
)

// Source is a read-only byte buffer an archive decodes from.
//
// Entries read out of an archive borrow slices of the Source, so the
// Source must stay open for as long as any borrowed entry is in use.
// DeepCopy on the borrowing entry lifts that restriction.
type Source struct {
	data []byte
	kind sourceKind
	f    *os.File
}

// OpenSource memory-maps the file at path. Platforms without mmap support
// fall back to reading the whole file into memory.
func OpenSource(path string) (*Source, error) {
	return openMapped(path)
}

// SourceFromBytes wraps a caller-owned slice. The Source borrows the
// slice; the caller must not mutate it while the Source is in use.
func SourceFromBytes(data []byte) *Source {
	return &Source{data: data, kind: sourceBorrowed}
}

// Data returns the full byte run of the source.
func (s *Source) Data() []byte {
	return s.data
}

// Len returns the number of bytes in the source.
func (s *Source) Len() int {
	return len(s.data)
}

// Close releases the memory map or backing file, if any. Borrowed slices
// into a mapped source become invalid once it is closed.
func (s *Source) Close() error {
	if s.kind != sourceMapped {
		s.data = nil
		return nil
	}

	err := s.unmap()
	if s.f != nil {
		if cerr := s.f.Close(); err == nil {
			err = cerr
		}
		s.f = nil
	}
	s.data = nil

	return err
}
