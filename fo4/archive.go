package fo4

import (
	"iter"

	"github.com/tesvault/bsarc/errs"
	"github.com/tesvault/bsarc/internal/omap"
	"github.com/tesvault/bsarc/internal/pathutil"
	"github.com/tesvault/bsarc/stream"
)

// Format selects the archive sub-format.
type Format uint32

const (
	// FormatGeneral holds opaque payloads.
	FormatGeneral Format = Format(0x4C524E47) // "GNRL"
	// FormatDirectX holds DDS textures with per-chunk mip ranges.
	FormatDirectX Format = Format(0x30315844) // "DX10"
)

const (
	archiveVersion = 1
	headerSize     = 0x18

	chunkHeaderSizeGeneral = 0x10
	chunkHeaderSizeDirectX = 0x18

	chunkSizeGeneral = 0x14
	chunkSizeDirectX = 0x18
)

var headerMagic = [4]byte{'B', 'T', 'D', 'X'}

// Key identifies an entry: the hash plus the normalized name it was
// derived from, when known.
type Key struct {
	Hash Hash
	Name string
}

// Archive is the in-memory virtual filesystem for the format. Iteration
// preserves insertion order, which is also the serialization order.
type Archive struct {
	files *omap.Map[Hash, *File]
	src   *stream.Source
}

// NewArchive creates an empty archive.
func NewArchive() *Archive {
	return &Archive{files: omap.NewInsertionOrdered[Hash, *File]()}
}

// Len returns the number of files.
func (a *Archive) Len() int {
	return a.files.Len()
}

// Empty reports whether the archive holds no files.
func (a *Archive) Empty() bool {
	return a.files.Len() == 0
}

// Insert adds or replaces the file keyed by path and reports whether an
// entry was replaced.
func (a *Archive) Insert(path string, f *File) bool {
	return a.files.Insert(HashFile(path), pathutil.NormalizePath(path), f)
}

// InsertHashed adds or replaces a file by precomputed hash, with no name.
func (a *Archive) InsertHashed(h Hash, f *File) bool {
	return a.files.Insert(h, "", f)
}

// Get returns the file keyed by path.
func (a *Archive) Get(path string) (*File, error) {
	return a.GetHashed(HashFile(path))
}

// GetHashed returns the file keyed by a precomputed hash.
func (a *Archive) GetHashed(h Hash) (*File, error) {
	e := a.files.Get(h)
	if e == nil {
		return nil, errs.ErrNotFound
	}

	return e.Value, nil
}

// Delete removes the file keyed by path and reports whether it existed.
func (a *Archive) Delete(path string) bool {
	return a.files.Delete(HashFile(path))
}

// Clear removes every file.
func (a *Archive) Clear() {
	a.files.Clear()
}

// All iterates the archive in insertion order.
func (a *Archive) All() iter.Seq2[Key, *File] {
	return func(yield func(Key, *File) bool) {
		for i := 0; i < a.files.Len(); i++ {
			e := a.files.At(i)
			if !yield(Key{Hash: e.Hash, Name: e.Name}, e.Value) {
				return
			}
		}
	}
}

// Read replaces the archive's contents with the archive file at path and
// returns its format. The file is memory-mapped where possible and
// entries borrow from the mapping; Close releases it.
func (a *Archive) Read(path string) (Format, error) {
	src, err := stream.OpenSource(path)
	if err != nil {
		return 0, err
	}

	format, err := a.readSource(src)
	if err != nil {
		src.Close()
		return 0, err
	}

	a.closeSource()
	a.src = src

	return format, nil
}

// ReadBytes replaces the archive's contents with the archive image in
// data and returns its format. Entries borrow from data, which must
// outlive them.
func (a *Archive) ReadBytes(data []byte) (Format, error) {
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

func (a *Archive) readSource(src *stream.Source) (Format, error) {
	r := stream.NewReader(src)

	m, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	if [4]byte(m) != headerMagic {
		return 0, errs.ErrBadMagic
	}

	version, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	if version != archiveVersion {
		return 0, errs.ErrBadVersion
	}

	rawFormat, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	format := Format(rawFormat)
	if format != FormatGeneral && format != FormatDirectX {
		return 0, errs.ErrBadFormat
	}

	fileCount, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	stringTableOffset, err := r.ReadUint64()
	if err != nil {
		return 0, err
	}

	files := omap.NewInsertionOrdered[Hash, *File]()
	strpos := int(stringTableOffset)

	for i := uint32(0); i < fileCount; i++ {
		var hash Hash
		if hash.File, err = r.ReadUint32(); err != nil {
			return 0, err
		}
		if hash.Extension, err = r.ReadUint32(); err != nil {
			return 0, err
		}
		if hash.Directory, err = r.ReadUint32(); err != nil {
			return 0, err
		}

		var name string
		if strpos != 0 {
			restore := r.Checkpoint()
			r.SeekAbsolute(strpos)
			raw, err := r.ReadWString()
			if err != nil {
				return 0, err
			}
			name = string(raw)
			strpos = r.Tell()
			restore()
		}

		f := &File{}
		if err := a.readFile(f, r, format); err != nil {
			return 0, err
		}

		files.Insert(hash, name, f)
	}

	a.files = files

	return format, nil
}

func (a *Archive) readFile(f *File, r *stream.Reader, format Format) error {
	modIndex, err := r.ReadByte()
	if err != nil {
		return err
	}
	f.modIndex = modIndex

	count, err := r.ReadByte()
	if err != nil {
		return err
	}
	chunkHdrSize, err := r.ReadUint16()
	if err != nil {
		return err
	}

	switch format {
	case FormatGeneral:
		if chunkHdrSize != chunkHeaderSizeGeneral {
			return errs.ErrBadFormat
		}
	case FormatDirectX:
		if chunkHdrSize != chunkHeaderSizeDirectX {
			return errs.ErrBadFormat
		}
		if f.Header.Height, err = r.ReadUint16(); err != nil {
			return err
		}
		if f.Header.Width, err = r.ReadUint16(); err != nil {
			return err
		}
		if f.Header.MipCount, err = r.ReadByte(); err != nil {
			return err
		}
		if f.Header.Format, err = r.ReadByte(); err != nil {
			return err
		}
		if f.Header.Flags, err = r.ReadByte(); err != nil {
			return err
		}
		if f.Header.TileMode, err = r.ReadByte(); err != nil {
			return err
		}
	}

	for i := 0; i < int(count); i++ {
		c := &Chunk{}
		if err := a.readChunk(c, r, format); err != nil {
			return err
		}
		f.Append(c)
	}

	return nil
}

func (a *Archive) readChunk(c *Chunk, r *stream.Reader, format Format) error {
	dataOffset, err := r.ReadUint64()
	if err != nil {
		return err
	}
	compressedSize, err := r.ReadUint32()
	if err != nil {
		return err
	}
	decompressedSize, err := r.ReadUint32()
	if err != nil {
		return err
	}

	if format == FormatDirectX {
		if c.Mips.First, err = r.ReadUint16(); err != nil {
			return err
		}
		if c.Mips.Last, err = r.ReadUint16(); err != nil {
			return err
		}
	}

	sentinel, err := r.ReadUint32()
	if err != nil {
		return err
	}
	if sentinel != chunkSentinel {
		return errs.ErrBadSentinel
	}

	size := decompressedSize
	if compressedSize != 0 {
		size = compressedSize
	}

	restore := r.Checkpoint()
	defer restore()
	r.SeekAbsolute(int(dataOffset))

	data, err := r.ReadBytes(int(size))
	if err != nil {
		return err
	}

	if compressedSize != 0 {
		c.SetBorrowedCompressed(data, decompressedSize)
	} else {
		c.SetBorrowed(data)
	}

	return nil
}

// Write serializes the archive to path atomically. The string table is
// emitted when withStrings is true.
func (a *Archive) Write(path string, format Format, withStrings bool) error {
	w, err := a.build(format, withStrings)
	if err != nil {
		return err
	}

	return w.WriteFile(path)
}

// Bytes serializes the archive into a fresh byte slice.
func (a *Archive) Bytes(format Format, withStrings bool) ([]byte, error) {
	w, err := a.build(format, withStrings)
	if err != nil {
		return nil, err
	}

	out := make([]byte, w.Len())
	copy(out, w.Bytes())

	return out, nil
}

func (a *Archive) build(format Format, withStrings bool) (*stream.Writer, error) {
	if format != FormatGeneral && format != FormatDirectX {
		return nil, errs.ErrBadFormat
	}

	chunkHeaderSize := uint64(chunkHeaderSizeGeneral)
	chunkSize := uint64(chunkSizeGeneral)
	if format == FormatDirectX {
		chunkHeaderSize = chunkHeaderSizeDirectX
		chunkSize = chunkSizeDirectX
	}

	dataOffset := uint64(headerSize) + chunkHeaderSize*uint64(a.files.Len())
	var dataSize uint64
	for i := 0; i < a.files.Len(); i++ {
		f := a.files.At(i).Value
		dataOffset += chunkSize * uint64(f.Len())
		for _, c := range f.Chunks() {
			dataSize += uint64(c.Len())
		}
	}

	var stringTableOffset uint64
	if withStrings {
		stringTableOffset = dataOffset + dataSize
	}

	w := stream.NewWriter()
	w.PutBytes(headerMagic[:])
	w.PutUint32(archiveVersion)
	w.PutUint32(uint32(format))
	w.PutUint32(uint32(a.files.Len()))
	w.PutUint64(stringTableOffset)

	offset := dataOffset
	for i := 0; i < a.files.Len(); i++ {
		e := a.files.At(i)
		f := e.Value

		w.PutUint32(e.Hash.File)
		w.PutUint32(e.Hash.Extension)
		w.PutUint32(e.Hash.Directory)
		w.PutByte(f.modIndex)
		w.PutByte(byte(f.Len()))
		w.PutUint16(uint16(chunkHeaderSize))

		if format == FormatDirectX {
			w.PutUint16(f.Header.Height)
			w.PutUint16(f.Header.Width)
			w.PutByte(f.Header.MipCount)
			w.PutByte(f.Header.Format)
			w.PutByte(f.Header.Flags)
			w.PutByte(f.Header.TileMode)
		}

		for _, c := range f.Chunks() {
			w.PutUint64(offset)
			if c.Compressed() {
				w.PutUint32(uint32(c.Len()))
			} else {
				w.PutUint32(0)
			}
			w.PutUint32(c.DecompressedSize())
			if format == FormatDirectX {
				w.PutUint16(c.Mips.First)
				w.PutUint16(c.Mips.Last)
			}
			w.PutUint32(chunkSentinel)
			offset += uint64(c.Len())
		}
	}

	for i := 0; i < a.files.Len(); i++ {
		for _, c := range a.files.At(i).Value.Chunks() {
			w.PutBytes(c.AsBytes())
		}
	}

	if withStrings {
		for i := 0; i < a.files.Len(); i++ {
			w.PutWString([]byte(a.files.At(i).Name))
		}
	}

	return w, nil
}
