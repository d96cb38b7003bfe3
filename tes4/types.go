package tes4

// Version selects the on-disk revision of the format.
type Version uint32

const (
	// VersionTES4 is the original revision of the format.
	VersionTES4 Version = 103
	// VersionFO3 is the revision that introduced embedded filenames.
	VersionFO3 Version = 104
	// VersionTES5 shares the 104 layout with VersionFO3.
	VersionTES5 Version = 104
	// VersionSSE widened file-record offsets to 64 bits and switched the
	// data compression to LZ4 frames.
	VersionSSE Version = 105
)

// valid reports whether v is in the supported set.
func (v Version) valid() bool {
	switch v {
	case VersionTES4, VersionFO3, VersionSSE:
		return true
	default:
		return false
	}
}

// ArchiveFlag is the archive-level behavior bitset stored in the header.
type ArchiveFlag uint32

const (
	FlagNone ArchiveFlag = 0

	// FlagDirectoryStrings stores directory names in the records.
	FlagDirectoryStrings ArchiveFlag = 1 << 0
	// FlagFileStrings stores a file-name table.
	FlagFileStrings ArchiveFlag = 1 << 1
	// FlagCompressed compresses file data by default; individual files
	// toggle against it via bit 30 of their size field.
	FlagCompressed ArchiveFlag = 1 << 2

	FlagRetainDirectoryNames     ArchiveFlag = 1 << 3
	FlagRetainFileNames          ArchiveFlag = 1 << 4
	FlagRetainFileNameOffsets    ArchiveFlag = 1 << 5
	FlagXboxArchive              ArchiveFlag = 1 << 6
	FlagRetainStringsDuringStart ArchiveFlag = 1 << 7

	// FlagEmbeddedFileNames prepends each file payload with its own
	// path, version 104 and later.
	FlagEmbeddedFileNames ArchiveFlag = 1 << 8
	FlagXboxCompressed    ArchiveFlag = 1 << 9
)

// ArchiveType is the content-kind bitset stored in the header.
type ArchiveType uint16

const (
	TypeNone ArchiveType = 0

	TypeMeshes   ArchiveType = 1 << 0
	TypeTextures ArchiveType = 1 << 1
	TypeMenus    ArchiveType = 1 << 2
	TypeSounds   ArchiveType = 1 << 3
	TypeVoices   ArchiveType = 1 << 4
	TypeShaders  ArchiveType = 1 << 5
	TypeTrees    ArchiveType = 1 << 6
	TypeFonts    ArchiveType = 1 << 7
	TypeMisc     ArchiveType = 1 << 8
)

// CompressionCodec selects the compression backend for a file.
type CompressionCodec uint8

const (
	// CodecNormal uses the version's native codec: zlib for 103 and 104,
	// LZ4 frames for 105.
	CodecNormal CompressionCodec = iota
	// CodecXMem uses the Xbox LZX codec via the external proxy.
	CodecXMem
)
