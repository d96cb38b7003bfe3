package tes4

import (
	"iter"

	"github.com/tesvault/bsarc/errs"
	"github.com/tesvault/bsarc/internal/omap"
	"github.com/tesvault/bsarc/internal/pathutil"
)

// Key identifies a directory or file entry: the hash plus the normalized
// name it was derived from, when known.
type Key struct {
	Hash Hash
	Name string
}

// Directory is an ordered mapping from file hash to file. Iteration is
// ascending by the hash's packed numeric value.
type Directory struct {
	files *omap.Map[Hash, *File]
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{files: newFileMap()}
}

func newFileMap() *omap.Map[Hash, *File] {
	return omap.NewSorted[Hash, *File](Hash.Numeric)
}

// Len returns the number of files.
func (d *Directory) Len() int {
	return d.files.Len()
}

// Empty reports whether the directory holds no files.
func (d *Directory) Empty() bool {
	return d.files.Len() == 0
}

// Insert adds or replaces the file keyed by the filename component of
// path and reports whether an entry was replaced.
func (d *Directory) Insert(path string, f *File) bool {
	name := pathutil.FileName(pathutil.NormalizePath(path))
	return d.files.Insert(HashFile(name), name, f)
}

// InsertHashed adds or replaces a file by precomputed hash, with no name.
func (d *Directory) InsertHashed(h Hash, f *File) bool {
	return d.files.Insert(h, "", f)
}

// Get returns the file keyed by the filename component of path.
func (d *Directory) Get(path string) (*File, error) {
	return d.GetHashed(HashFile(path))
}

// GetHashed returns the file keyed by a precomputed hash.
func (d *Directory) GetHashed(h Hash) (*File, error) {
	e := d.files.Get(h)
	if e == nil {
		return nil, errs.ErrNotFound
	}

	return e.Value, nil
}

// Delete removes the file keyed by path and reports whether it existed.
func (d *Directory) Delete(path string) bool {
	return d.files.Delete(HashFile(path))
}

// Clear removes every file.
func (d *Directory) Clear() {
	d.files.Clear()
}

// All iterates the directory ascending by file hash.
func (d *Directory) All() iter.Seq2[Key, *File] {
	return func(yield func(Key, *File) bool) {
		for i := 0; i < d.files.Len(); i++ {
			e := d.files.At(i)
			if !yield(Key{Hash: e.Hash, Name: e.Name}, e.Value) {
				return
			}
		}
	}
}
