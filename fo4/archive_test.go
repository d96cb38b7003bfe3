package fo4

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tesvault/bsarc/errs"
)

func TestArchiveStartsEmpty(t *testing.T) {
	a := NewArchive()
	require.True(t, a.Empty())
	require.Equal(t, 0, a.Len())
}

func TestArchiveInsertLookup(t *testing.T) {
	a := NewArchive()
	f := NewFile([]byte("payload"))

	require.False(t, a.Insert("Meshes\\Clutter\\Chair.nif", f))

	got, err := a.Get("meshes/clutter/chair.nif")
	require.NoError(t, err)
	require.Equal(t, f, got)

	_, err = a.Get("meshes/missing.nif")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.True(t, a.Delete("Meshes/Clutter/Chair.nif"))
	require.True(t, a.Empty())
}

func roundTripFO4(t *testing.T, a *Archive, format Format, strings bool) *Archive {
	t.Helper()

	image, err := a.Bytes(format, strings)
	require.NoError(t, err)

	b := NewArchive()
	got, err := b.ReadBytes(image)
	require.NoError(t, err)
	require.Equal(t, format, got)

	again, err := b.Bytes(format, strings)
	require.NoError(t, err)
	require.Equal(t, image, again)

	return b
}

func TestArchiveGeneralRoundTrip(t *testing.T) {
	files := map[string][]byte{
		"strings\\main_en.strings":  []byte("string table payload"),
		"meshes\\clutter\\cup.nif":  []byte("cup mesh"),
		"sound\\fx\\gun\\shot.wav":  []byte("pew pew pew"),
		"textures\\hud\\compass.dd": []byte("compass bits"),
	}

	a := NewArchive()
	for path, data := range files {
		a.Insert(path, NewFile(data))
	}

	for _, withStrings := range []bool{true, false} {
		b := roundTripFO4(t, a, FormatGeneral, withStrings)
		require.Equal(t, len(files), b.Len())

		for path, data := range files {
			f, err := b.Get(path)
			require.NoError(t, err)
			require.Equal(t, 1, f.Len())
			require.Equal(t, data, f.Chunk(0).AsBytes())
		}
	}
}

func TestArchivePreservesInsertionOrder(t *testing.T) {
	paths := []string{
		"zzz\\last.bin",
		"aaa\\first.bin",
		"mmm\\middle.bin",
	}

	a := NewArchive()
	for _, p := range paths {
		a.Insert(p, NewFile([]byte(p)))
	}

	b := roundTripFO4(t, a, FormatGeneral, true)

	var got []string
	for key := range b.All() {
		got = append(got, key.Name)
	}
	require.Equal(t, paths, got)
}

func TestArchiveCompressedChunks(t *testing.T) {
	payload := []byte("compressible compressible compressible compressible")

	a := NewArchive()
	f := NewFile(append([]byte(nil), payload...))
	require.NoError(t, f.Chunk(0).Compress())
	a.Insert("docs\\readme.txt", f)

	b := roundTripFO4(t, a, FormatGeneral, true)

	got, err := b.Get("docs/readme.txt")
	require.NoError(t, err)
	require.True(t, got.Chunk(0).Compressed())
	require.Equal(t, uint32(len(payload)), got.Chunk(0).DecompressedSize())

	require.NoError(t, got.Chunk(0).Decompress())
	require.Equal(t, payload, got.Chunk(0).AsBytes())
}

func TestArchiveDirectXRoundTrip(t *testing.T) {
	dds := makeDXT1(t, 1024, 1024, 11)

	f := &File{}
	require.NoError(t, f.ReadFrom(dds, FormatDirectX, WithCompressedChunks()))

	a := NewArchive()
	a.Insert("textures\\land\\rock_d.dds", f)

	b := roundTripFO4(t, a, FormatDirectX, true)

	got, err := b.Get("textures/land/rock_d.dds")
	require.NoError(t, err)
	require.Equal(t, f.Header, got.Header)
	require.Equal(t, 3, got.Len())

	for i, c := range got.Chunks() {
		require.Equal(t, f.Chunk(i).Mips, c.Mips)
		require.True(t, c.Compressed())
		require.NoError(t, c.Decompress())
	}

	out, err := got.WriteTo(FormatDirectX)
	require.NoError(t, err)

	info, err := parseDDS(out)
	require.NoError(t, err)
	orig, err := parseDDS(dds)
	require.NoError(t, err)
	require.Equal(t, dds[orig.dataOff:], out[info.dataOff:])
}

func TestArchiveModIndexPreserved(t *testing.T) {
	a := NewArchive()
	f := NewFile([]byte("payload"))
	f.modIndex = 7
	a.Insert("a\\b.bin", f)

	b := roundTripFO4(t, a, FormatGeneral, true)
	got, err := b.Get("a/b.bin")
	require.NoError(t, err)
	require.Equal(t, uint8(7), got.modIndex)
}

func TestArchiveBadInput(t *testing.T) {
	a := NewArchive()

	_, err := a.ReadBytes([]byte("NOPEnopenopenopenopenope"))
	require.ErrorIs(t, err, errs.ErrBadMagic)

	good := NewArchive()
	good.Insert("x\\y.bin", NewFile([]byte("data")))
	image, err := good.Bytes(FormatGeneral, true)
	require.NoError(t, err)

	bad := append([]byte(nil), image...)
	bad[4] = 9 // version
	_, err = a.ReadBytes(bad)
	require.ErrorIs(t, err, errs.ErrBadVersion)

	bad = append([]byte(nil), image...)
	bad[8] = 'X' // format tag
	_, err = a.ReadBytes(bad)
	require.ErrorIs(t, err, errs.ErrBadFormat)

	// Chunk sentinels are validated on read.
	bad = append([]byte(nil), image...)
	sentinelOff := headerSize + 12 + 4 + 16
	bad[sentinelOff] ^= 0xFF
	_, err = a.ReadBytes(bad)
	require.ErrorIs(t, err, errs.ErrBadSentinel)

	_, err = a.ReadBytes(image[:10])
	require.ErrorIs(t, err, errs.ErrTruncatedInput)
}

func TestArchiveOnDiskRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.ba2")

	a := NewArchive()
	a.Insert("interface\\hud.swf", NewFile([]byte("flash widget")))
	require.NoError(t, a.Write(path, FormatGeneral, true))

	b := NewArchive()
	format, err := b.Read(path)
	require.NoError(t, err)
	require.Equal(t, FormatGeneral, format)
	defer b.Close()

	f, err := b.Get("interface/hud.swf")
	require.NoError(t, err)
	require.Equal(t, []byte("flash widget"), f.Chunk(0).AsBytes())

	f.Chunk(0).DeepCopy()
	require.False(t, f.Chunk(0).Borrowed())
}
