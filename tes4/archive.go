package tes4

import (
	"iter"
	"math"

	"github.com/tesvault/bsarc/endian"
	"github.com/tesvault/bsarc/errs"
	"github.com/tesvault/bsarc/internal/omap"
	"github.com/tesvault/bsarc/internal/pathutil"
	"github.com/tesvault/bsarc/stream"
)

const (
	headerSize          = 36
	directoryRecordSize = 16

	// directoryRecordSizeWide is the 105 directory record with the
	// 64-bit file-records offset.
	directoryRecordSizeWide = 24

	fileRecordSize = 16
)

var headerMagic = [4]byte{'B', 'S', 'A', 0}

// Archive is the in-memory virtual filesystem for the format: an
// ordered mapping from directory hash to directory, ascending by hash.
type Archive struct {
	dirs  *omap.Map[Hash, *Directory]
	flags ArchiveFlag
	types ArchiveType
	src   *stream.Source
}

// NewArchive creates an empty archive with no flags set.
func NewArchive() *Archive {
	return &Archive{dirs: newDirMap()}
}

func newDirMap() *omap.Map[Hash, *Directory] {
	return omap.NewSorted[Hash, *Directory](Hash.Numeric)
}

// ArchiveFlags returns the behavior bitset.
func (a *Archive) ArchiveFlags() ArchiveFlag {
	return a.flags
}

// SetArchiveFlags replaces the behavior bitset.
func (a *Archive) SetArchiveFlags(flags ArchiveFlag) {
	a.flags = flags
}

// ArchiveTypes returns the content-kind bitset.
func (a *Archive) ArchiveTypes() ArchiveType {
	return a.types
}

// SetArchiveTypes replaces the content-kind bitset.
func (a *Archive) SetArchiveTypes(types ArchiveType) {
	a.types = types
}

func (a *Archive) testFlag(f ArchiveFlag) bool {
	return a.flags&f != 0
}

// Compressed reports whether file data is compressed by default.
func (a *Archive) Compressed() bool { return a.testFlag(FlagCompressed) }

// DirectoryStrings reports whether directory names are stored.
func (a *Archive) DirectoryStrings() bool { return a.testFlag(FlagDirectoryStrings) }

// EmbeddedFileNames reports whether payloads carry their own paths.
func (a *Archive) EmbeddedFileNames() bool { return a.testFlag(FlagEmbeddedFileNames) }

// FileStrings reports whether a file-name table is stored.
func (a *Archive) FileStrings() bool { return a.testFlag(FlagFileStrings) }

// RetainDirectoryNames reports the corresponding engine hint flag.
func (a *Archive) RetainDirectoryNames() bool { return a.testFlag(FlagRetainDirectoryNames) }

// RetainFileNameOffsets reports the corresponding engine hint flag.
func (a *Archive) RetainFileNameOffsets() bool { return a.testFlag(FlagRetainFileNameOffsets) }

// RetainFileNames reports the corresponding engine hint flag.
func (a *Archive) RetainFileNames() bool { return a.testFlag(FlagRetainFileNames) }

// RetainStringsDuringStartup reports the corresponding engine hint flag.
func (a *Archive) RetainStringsDuringStartup() bool { return a.testFlag(FlagRetainStringsDuringStart) }

// XboxArchive reports whether record tables use big-endian byte order.
func (a *Archive) XboxArchive() bool { return a.testFlag(FlagXboxArchive) }

// XboxCompressed reports whether file data uses the Xbox LZX codec.
func (a *Archive) XboxCompressed() bool { return a.testFlag(FlagXboxCompressed) }

func (a *Archive) testType(t ArchiveType) bool {
	return a.types&t != 0
}

// Fonts reports whether the archive is tagged as carrying fonts.
func (a *Archive) Fonts() bool { return a.testType(TypeFonts) }

// Menus reports whether the archive is tagged as carrying menus.
func (a *Archive) Menus() bool { return a.testType(TypeMenus) }

// Meshes reports whether the archive is tagged as carrying meshes.
func (a *Archive) Meshes() bool { return a.testType(TypeMeshes) }

// Misc reports whether the archive is tagged as carrying misc files.
func (a *Archive) Misc() bool { return a.testType(TypeMisc) }

// Shaders reports whether the archive is tagged as carrying shaders.
func (a *Archive) Shaders() bool { return a.testType(TypeShaders) }

// Sounds reports whether the archive is tagged as carrying sounds.
func (a *Archive) Sounds() bool { return a.testType(TypeSounds) }

// Textures reports whether the archive is tagged as carrying textures.
func (a *Archive) Textures() bool { return a.testType(TypeTextures) }

// Trees reports whether the archive is tagged as carrying trees.
func (a *Archive) Trees() bool { return a.testType(TypeTrees) }

// Voices reports whether the archive is tagged as carrying voices.
func (a *Archive) Voices() bool { return a.testType(TypeVoices) }

// Len returns the number of directories.
func (a *Archive) Len() int {
	return a.dirs.Len()
}

// Empty reports whether the archive holds no directories.
func (a *Archive) Empty() bool {
	return a.dirs.Len() == 0
}

// Insert adds or replaces the directory keyed by path and reports
// whether an entry was replaced.
func (a *Archive) Insert(path string, d *Directory) bool {
	return a.dirs.Insert(HashDirectory(path), pathutil.NormalizeDirectory(path), d)
}

// InsertHashed adds or replaces a directory by precomputed hash, with no
// name.
func (a *Archive) InsertHashed(h Hash, d *Directory) bool {
	return a.dirs.Insert(h, "", d)
}

// Get returns the directory keyed by path.
func (a *Archive) Get(path string) (*Directory, error) {
	return a.GetHashed(HashDirectory(path))
}

// GetHashed returns the directory keyed by a precomputed hash.
func (a *Archive) GetHashed(h Hash) (*Directory, error) {
	e := a.dirs.Get(h)
	if e == nil {
		return nil, errs.ErrNotFound
	}

	return e.Value, nil
}

// GetFile resolves a full virtual path to a file in one step.
func (a *Archive) GetFile(path string) (*File, error) {
	p := pathutil.NormalizePath(path)
	parent, _, _ := pathutil.Split(p)

	d, err := a.Get(parent)
	if err != nil {
		return nil, err
	}

	return d.Get(pathutil.FileName(p))
}

// Delete removes the directory keyed by path and reports whether it
// existed.
func (a *Archive) Delete(path string) bool {
	return a.dirs.Delete(HashDirectory(path))
}

// Clear removes every directory and resets the flag bitsets.
func (a *Archive) Clear() {
	a.dirs.Clear()
	a.flags = FlagNone
	a.types = TypeNone
}

// All iterates the archive ascending by directory hash.
func (a *Archive) All() iter.Seq2[Key, *Directory] {
	return func(yield func(Key, *Directory) bool) {
		for i := 0; i < a.dirs.Len(); i++ {
			e := a.dirs.At(i)
			if !yield(Key{Hash: e.Hash, Name: e.Name}, e.Value) {
				return
			}
		}
	}
}

// Read replaces the archive's contents with the archive file at path and
// returns its version. The file is memory-mapped where possible and
// entries borrow from the mapping; Close releases it.
func (a *Archive) Read(path string) (Version, error) {
	src, err := stream.OpenSource(path)
	if err != nil {
		return 0, err
	}

	v, err := a.readSource(src)
	if err != nil {
		src.Close()
		return 0, err
	}

	a.closeSource()
	a.src = src

	return v, nil
}

// ReadBytes replaces the archive's contents with the archive image in
// data and returns its version. Entries borrow from data, which must
// outlive them.
func (a *Archive) ReadBytes(data []byte) (Version, error) {
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

type directoryRecord struct {
	hash   Hash
	name   string
	count  uint32
	offset uint64
	files  []fileRecord
}

type fileRecord struct {
	hash Hash
	name string
	size uint32
	off  uint32
}

func (a *Archive) readSource(src *stream.Source) (Version, error) {
	r := stream.NewReader(src)

	m, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	if [4]byte(m) != headerMagic {
		return 0, errs.ErrBadMagic
	}

	rawVersion, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	version := Version(rawVersion)
	if !version.valid() {
		return 0, errs.ErrBadVersion
	}

	// directory-records offset, constant 36
	if _, err := r.ReadUint32(); err != nil {
		return 0, err
	}

	rawFlags, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	dirCount, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	fileCount, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	if _, err := r.ReadUint32(); err != nil { // directory names length
		return 0, err
	}
	fileNamesLen, err := r.ReadUint32()
	if err != nil {
		return 0, err
	}
	rawTypes, err := r.ReadUint16()
	if err != nil {
		return 0, err
	}
	r.SeekRelative(2) // header padding

	flags := ArchiveFlag(rawFlags)
	types := ArchiveType(rawTypes)

	// The header is always little-endian; the record tables after it
	// honor the archive's byte order.
	if flags&FlagXboxArchive != 0 {
		r.SetEngine(endian.GetBigEndianEngine())
	}

	records := make([]directoryRecord, dirCount)
	for i := range records {
		raw, err := r.ReadUint64()
		if err != nil {
			return 0, err
		}
		records[i].hash = hashFromNumeric(raw)

		if records[i].count, err = r.ReadUint32(); err != nil {
			return 0, err
		}

		if version == VersionSSE {
			if _, err := r.ReadUint32(); err != nil { // padding
				return 0, err
			}
			if records[i].offset, err = r.ReadUint64(); err != nil {
				return 0, err
			}
		} else {
			off, err := r.ReadUint32()
			if err != nil {
				return 0, err
			}
			records[i].offset = uint64(off)
		}
	}

	for i := range records {
		rec := &records[i]
		blockStart := int64(rec.offset) - int64(fileNamesLen)
		if blockStart < 0 || blockStart > int64(r.Len()) {
			return 0, errs.ErrTruncatedInput
		}
		r.SeekAbsolute(int(blockStart))

		if flags&FlagDirectoryStrings != 0 {
			name, err := r.ReadBZString()
			if err != nil {
				return 0, err
			}
			rec.name = string(name)
		}

		rec.files = make([]fileRecord, rec.count)
		for j := range rec.files {
			raw, err := r.ReadUint64()
			if err != nil {
				return 0, err
			}
			rec.files[j].hash = hashFromNumeric(raw)
			if rec.files[j].size, err = r.ReadUint32(); err != nil {
				return 0, err
			}
			if rec.files[j].off, err = r.ReadUint32(); err != nil {
				return 0, err
			}
		}
	}

	// The file-name table sits directly after the last directory block.
	if flags&FlagFileStrings != 0 {
		var total uint32
		for i := range records {
			for j := range records[i].files {
				name, err := r.ReadZString()
				if err != nil {
					return 0, err
				}
				records[i].files[j].name = string(name)
				total++
			}
		}
		if total != fileCount {
			return 0, errs.ErrBadFormat
		}
	}

	dirs := newDirMap()
	archiveCompressed := flags&FlagCompressed != 0
	embedded := flags&FlagEmbeddedFileNames != 0 && version != VersionTES4

	for i := range records {
		rec := &records[i]
		d := NewDirectory()

		for j := range rec.files {
			fr := &rec.files[j]
			stored := int(fr.size & sizeMask)
			compressed := archiveCompressed != (fr.size&sizeCompressionToggle != 0)

			r.SeekAbsolute(int(fr.off))

			if embedded {
				full, err := r.ReadBString()
				if err != nil {
					return 0, err
				}
				stored -= 1 + len(full)

				parent, _, _ := pathutil.Split(string(full))
				if fr.name == "" {
					fr.name = pathutil.FileName(string(full))
				}
				if rec.name == "" && parent != "" {
					rec.name = parent
				}
			}

			var decompSize uint32
			if compressed {
				if decompSize, err = r.ReadUint32(); err != nil {
					return 0, err
				}
				stored -= 4
			}

			if stored < 0 {
				return 0, errs.ErrBadFormat
			}
			payload, err := r.ReadBytes(stored)
			if err != nil {
				return 0, err
			}

			f := &File{}
			if compressed {
				f.SetBorrowedCompressed(payload, decompSize)
			} else {
				f.SetBorrowed(payload)
			}
			f.secondaryArchive = fr.size&sizeSecondaryArchive != 0

			d.files.Insert(fr.hash, fr.name, f)
		}

		dirs.Insert(rec.hash, rec.name, d)
	}

	a.dirs = dirs
	a.flags = flags
	a.types = types

	return version, nil
}

// layoutEntry is the serialization plan for one file.
type layoutEntry struct {
	file     *omap.Entry[Hash, *File]
	offset   uint64 // absolute offset of the entry in the data section
	stored   uint64 // embedded name + size prefix + payload
	embedded string
}

type layout struct {
	dirNamesLen    uint32
	fileNamesLen   uint32
	fileRecOffsets []uint64 // per directory, before the names-length quirk
	dataStart      uint64
	entries        []layoutEntry
	end            uint64
}

func (a *Archive) computeLayout(version Version) layout {
	var l layout

	dirRecSize := directoryRecordSize
	if version == VersionSSE {
		dirRecSize = directoryRecordSizeWide
	}

	embedded := a.EmbeddedFileNames() && version != VersionTES4

	if a.DirectoryStrings() {
		for i := 0; i < a.dirs.Len(); i++ {
			l.dirNamesLen += uint32(len(a.dirs.At(i).Name)) + 1
		}
	}
	if a.FileStrings() {
		for i := 0; i < a.dirs.Len(); i++ {
			d := a.dirs.At(i).Value
			for j := 0; j < d.files.Len(); j++ {
				l.fileNamesLen += uint32(len(d.files.At(j).Name)) + 1
			}
		}
	}

	pos := uint64(headerSize) + uint64(dirRecSize)*uint64(a.dirs.Len())
	l.fileRecOffsets = make([]uint64, a.dirs.Len())
	for i := 0; i < a.dirs.Len(); i++ {
		e := a.dirs.At(i)
		l.fileRecOffsets[i] = pos
		if a.DirectoryStrings() {
			pos += uint64(len(e.Name)) + 2
		}
		pos += fileRecordSize * uint64(e.Value.files.Len())
	}
	pos += uint64(l.fileNamesLen)
	l.dataStart = pos

	for i := 0; i < a.dirs.Len(); i++ {
		de := a.dirs.At(i)
		for j := 0; j < de.Value.files.Len(); j++ {
			fe := de.Value.files.At(j)

			entry := layoutEntry{file: fe, offset: pos}
			if embedded {
				entry.embedded = de.Name + "\\" + fe.Name
				entry.stored += uint64(len(entry.embedded)) + 1
			}
			if fe.Value.Compressed() {
				entry.stored += 4
			}
			entry.stored += uint64(fe.Value.Len())

			pos += entry.stored
			l.entries = append(l.entries, entry)
		}
	}
	l.end = pos

	return l
}

// VerifyOffsets reports whether the archive can be serialized for the
// given version within the format's offset fields: every file's data
// offset must fit a signed 32-bit integer, the total size must fit an
// unsigned one, and for versions 103 and 104 the per-directory
// file-records offset must too.
func (a *Archive) VerifyOffsets(version Version) bool {
	if !version.valid() {
		return false
	}

	l := a.computeLayout(version)

	for _, e := range l.entries {
		if e.offset > math.MaxInt32 {
			return false
		}
	}
	if l.end > math.MaxUint32 {
		return false
	}
	if version != VersionSSE {
		for _, off := range l.fileRecOffsets {
			if off+uint64(l.fileNamesLen) > math.MaxUint32 {
				return false
			}
		}
	}

	return true
}

// Write serializes the archive for the given version to path atomically.
func (a *Archive) Write(path string, version Version) error {
	w, err := a.build(version)
	if err != nil {
		return err
	}

	return w.WriteFile(path)
}

// Bytes serializes the archive for the given version into a fresh byte
// slice.
func (a *Archive) Bytes(version Version) ([]byte, error) {
	w, err := a.build(version)
	if err != nil {
		return nil, err
	}

	out := make([]byte, w.Len())
	copy(out, w.Bytes())

	return out, nil
}

func (a *Archive) build(version Version) (*stream.Writer, error) {
	if !version.valid() {
		return nil, errs.ErrBadVersion
	}
	if !a.VerifyOffsets(version) {
		return nil, errs.ErrOffsetOverflow
	}

	l := a.computeLayout(version)

	var fileCount uint32
	for i := 0; i < a.dirs.Len(); i++ {
		fileCount += uint32(a.dirs.At(i).Value.files.Len())
	}

	w := stream.NewWriter()
	w.PutBytes(headerMagic[:])
	w.PutUint32(uint32(version))
	w.PutUint32(headerSize)
	w.PutUint32(uint32(a.flags))
	w.PutUint32(uint32(a.dirs.Len()))
	w.PutUint32(fileCount)
	w.PutUint32(l.dirNamesLen)
	w.PutUint32(l.fileNamesLen)
	w.PutUint16(uint16(a.types))
	w.PutUint16(0)

	if a.XboxArchive() {
		w.SetEngine(endian.GetBigEndianEngine())
	}

	for i := 0; i < a.dirs.Len(); i++ {
		e := a.dirs.At(i)
		w.PutUint64(e.Hash.Numeric())
		w.PutUint32(uint32(e.Value.files.Len()))
		if version == VersionSSE {
			w.PutUint32(0)
			w.PutUint64(l.fileRecOffsets[i] + uint64(l.fileNamesLen))
		} else {
			w.PutUint32(uint32(l.fileRecOffsets[i] + uint64(l.fileNamesLen)))
		}
	}

	archiveCompressed := a.Compressed()
	next := 0
	for i := 0; i < a.dirs.Len(); i++ {
		e := a.dirs.At(i)
		if a.DirectoryStrings() {
			w.PutBZString([]byte(e.Name))
		}

		for j := 0; j < e.Value.files.Len(); j++ {
			entry := &l.entries[next]
			next++

			f := entry.file.Value
			size := uint32(entry.stored)
			if f.Compressed() != archiveCompressed {
				size |= sizeCompressionToggle
			}
			if f.secondaryArchive {
				size |= sizeSecondaryArchive
			}

			w.PutUint64(entry.file.Hash.Numeric())
			w.PutUint32(size)
			w.PutUint32(uint32(entry.offset))
		}
	}

	if a.FileStrings() {
		for i := 0; i < a.dirs.Len(); i++ {
			d := a.dirs.At(i).Value
			for j := 0; j < d.files.Len(); j++ {
				w.PutZString([]byte(d.files.At(j).Name))
			}
		}
	}

	for _, entry := range l.entries {
		if entry.embedded != "" {
			w.PutBString([]byte(entry.embedded))
		}
		f := entry.file.Value
		if f.Compressed() {
			w.PutUint32(f.DecompressedSize())
		}
		w.PutBytes(f.AsBytes())
	}

	return w, nil
}
