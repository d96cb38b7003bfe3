package tes3

import (
	"iter"
	"math"
	"sort"

	"github.com/tesvault/bsarc/errs"
	"github.com/tesvault/bsarc/internal/omap"
	"github.com/tesvault/bsarc/internal/pathutil"
	"github.com/tesvault/bsarc/stream"
)

const (
	// magic is the constant leading u32 of every archive.
	magic = 0x100

	headerSize     = 0xC
	fileRecordSize = 8
	hashSize       = 8
)

// Key identifies an entry: the hash plus the normalized name it was
// derived from, when known.
type Key struct {
	Hash Hash
	Name string
}

// Archive is the in-memory virtual filesystem for the format. Iteration
// preserves insertion order; serialization emits entries in
// hash-ascending order.
type Archive struct {
	entries *omap.Map[Hash, *File]
	src     *stream.Source
}

// NewArchive creates an empty archive.
func NewArchive() *Archive {
	return &Archive{entries: omap.NewInsertionOrdered[Hash, *File]()}
}

// Len returns the number of files.
func (a *Archive) Len() int {
	return a.entries.Len()
}

// Empty reports whether the archive holds no files.
func (a *Archive) Empty() bool {
	return a.entries.Len() == 0
}

// Insert adds or replaces the file keyed by path and reports whether an
// entry was replaced.
func (a *Archive) Insert(path string, f *File) bool {
	return a.entries.Insert(HashFile(path), pathutil.NormalizeDirectory(path), f)
}

// InsertHashed adds or replaces a file by precomputed hash, with no name.
func (a *Archive) InsertHashed(h Hash, f *File) bool {
	return a.entries.Insert(h, "", f)
}

// Get returns the file keyed by path.
func (a *Archive) Get(path string) (*File, error) {
	return a.GetHashed(HashFile(path))
}

// GetHashed returns the file keyed by a precomputed hash.
func (a *Archive) GetHashed(h Hash) (*File, error) {
	e := a.entries.Get(h)
	if e == nil {
		return nil, errs.ErrNotFound
	}

	return e.Value, nil
}

// Delete removes the file keyed by path and reports whether it existed.
func (a *Archive) Delete(path string) bool {
	return a.entries.Delete(HashFile(path))
}

// Clear removes every file.
func (a *Archive) Clear() {
	a.entries.Clear()
}

// All iterates the archive in insertion order.
func (a *Archive) All() iter.Seq2[Key, *File] {
	return func(yield func(Key, *File) bool) {
		for i := 0; i < a.entries.Len(); i++ {
			e := a.entries.At(i)
			if !yield(Key{Hash: e.Hash, Name: e.Name}, e.Value) {
				return
			}
		}
	}
}

// Read replaces the archive's contents with the archive file at path.
// The file is memory-mapped where possible and entries borrow from the
// mapping; Close releases it.
func (a *Archive) Read(path string) error {
	src, err := stream.OpenSource(path)
	if err != nil {
		return err
	}

	if err := a.readSource(src); err != nil {
		src.Close()
		return err
	}

	a.closeSource()
	a.src = src

	return nil
}

// ReadBytes replaces the archive's contents with the archive image in
// data. Entries borrow from data, which must outlive them.
func (a *Archive) ReadBytes(data []byte) error {
	return a.readSource(stream.SourceFromBytes(data))
}

// Close releases the memory-mapped source backing borrowed entries, if
// any. Borrowed payloads are invalid afterwards.
func (a *Archive) Close() error {
	return a.closeSource()
}

func (a *Archive) closeSource() error {
	if a.src == nil {
		return nil
	}

	err := a.src.Close()
	a.src = nil

	return err
}

func (a *Archive) readSource(src *stream.Source) error {
	r := stream.NewReader(src)

	m, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if m != magic {
		return errs.ErrBadMagic
	}

	hashOffset, err := r.ReadUint32()
	if err != nil {
		return err
	}
	count, err := r.ReadUint32()
	if err != nil {
		return err
	}

	type record struct {
		size   uint32
		offset uint32
	}
	records := make([]record, count)
	for i := range records {
		if records[i].size, err = r.ReadUint32(); err != nil {
			return err
		}
		if records[i].offset, err = r.ReadUint32(); err != nil {
			return err
		}
	}

	nameOffsets := make([]uint32, count)
	for i := range nameOffsets {
		if nameOffsets[i], err = r.ReadUint32(); err != nil {
			return err
		}
	}

	namesStart := headerSize + (fileRecordSize+4)*int(count)
	names := make([]string, count)
	for i, off := range nameOffsets {
		r.SeekAbsolute(namesStart + int(off))
		name, err := r.ReadZString()
		if err != nil {
			return err
		}
		names[i] = string(name)
	}

	r.SeekAbsolute(headerSize + int(hashOffset))
	hashes := make([]Hash, count)
	for i := range hashes {
		if hashes[i].Lo, err = r.ReadUint32(); err != nil {
			return err
		}
		if hashes[i].Hi, err = r.ReadUint32(); err != nil {
			return err
		}
	}

	dataStart := headerSize + int(hashOffset) + hashSize*int(count)

	entries := omap.NewInsertionOrdered[Hash, *File]()
	for i := range records {
		r.SeekAbsolute(dataStart + int(records[i].offset))
		data, err := r.ReadBytes(int(records[i].size))
		if err != nil {
			return err
		}

		f := &File{}
		f.SetBorrowed(data)
		entries.Insert(hashes[i], names[i], f)
	}

	a.entries = entries

	return nil
}

// Write serializes the archive to path atomically.
func (a *Archive) Write(path string) error {
	w, err := a.build()
	if err != nil {
		return err
	}

	return w.WriteFile(path)
}

// Bytes serializes the archive into a fresh byte slice.
func (a *Archive) Bytes() ([]byte, error) {
	w, err := a.build()
	if err != nil {
		return nil, err
	}

	out := make([]byte, w.Len())
	copy(out, w.Bytes())

	return out, nil
}

// sortedEntries returns the entries in hash-ascending order, the order
// every table is serialized in.
func (a *Archive) sortedEntries() []*omap.Entry[Hash, *File] {
	out := make([]*omap.Entry[Hash, *File], a.entries.Len())
	for i := range out {
		out[i] = a.entries.At(i)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Hash.Numeric() < out[j].Hash.Numeric()
	})

	return out
}

// VerifyOffsets reports whether the archive can be serialized within the
// format's 32-bit offset fields.
func (a *Archive) VerifyOffsets() bool {
	var total uint64
	for i := 0; i < a.entries.Len(); i++ {
		total += uint64(a.entries.At(i).Value.Len())
		if total > math.MaxUint32 {
			return false
		}
	}

	return true
}

func (a *Archive) build() (*stream.Writer, error) {
	if !a.VerifyOffsets() {
		return nil, errs.ErrOffsetOverflow
	}

	sorted := a.sortedEntries()

	var namesSize uint32
	for _, e := range sorted {
		namesSize += uint32(len(e.Name)) + 1
	}

	count := uint32(len(sorted))
	hashOffset := (fileRecordSize+4)*count + namesSize

	w := stream.NewWriter()
	w.PutUint32(magic)
	w.PutUint32(hashOffset)
	w.PutUint32(count)

	var dataOffset uint32
	for _, e := range sorted {
		w.PutUint32(uint32(e.Value.Len()))
		w.PutUint32(dataOffset)
		dataOffset += uint32(e.Value.Len())
	}

	var nameOffset uint32
	for _, e := range sorted {
		w.PutUint32(nameOffset)
		nameOffset += uint32(len(e.Name)) + 1
	}

	for _, e := range sorted {
		w.PutZString([]byte(e.Name))
	}

	for _, e := range sorted {
		w.PutUint32(e.Hash.Lo)
		w.PutUint32(e.Hash.Hi)
	}

	for _, e := range sorted {
		w.PutBytes(e.Value.AsBytes())
	}

	return w, nil
}
