package tes3

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

func TestFileStartsEmpty(t *testing.T) {
	f := &File{}
	require.True(t, f.Empty())
	require.Equal(t, 0, f.Len())
	require.False(t, f.Compressed())
}

func TestArchiveInsertLookup(t *testing.T) {
	a := NewArchive()

	payload := []byte("nif payload")
	replaced := a.Insert("meshes/c/artifact_bloodring_01.nif", NewFile(payload))
	require.False(t, replaced)

	f, err := a.Get("MESHES\\C\\ARTIFACT_BLOODRING_01.NIF")
	require.NoError(t, err)
	require.Equal(t, payload, f.AsBytes())

	f, err = a.GetHashed(HashFile("meshes/c/artifact_bloodring_01.nif"))
	require.NoError(t, err)
	require.Equal(t, payload, f.AsBytes())

	_, err = a.Get("meshes/missing.nif")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.True(t, a.Delete("meshes/c/artifact_bloodring_01.nif"))
	require.False(t, a.Delete("meshes/c/artifact_bloodring_01.nif"))
	require.True(t, a.Empty())
}

func TestArchiveRoundTrip(t *testing.T) {
	files := map[string][]byte{
		"meshes/c/artifact_bloodring_01.nif": []byte("bloodring mesh"),
		"textures/tx_rope_woven.dds":         []byte("rope texture bytes"),
		"icons/m/misc_prongs00.dds":          []byte("prongs icon"),
	}

	a := NewArchive()
	for path, data := range files {
		a.Insert(path, NewFile(data))
	}

	image, err := a.Bytes()
	require.NoError(t, err)

	b := NewArchive()
	require.NoError(t, b.ReadBytes(image))
	require.Equal(t, len(files), b.Len())

	for path, data := range files {
		f, err := b.Get(path)
		require.NoError(t, err)
		require.Equal(t, data, f.AsBytes())
		require.True(t, f.Borrowed())
	}

	// The decoded archive must re-serialize to the identical image.
	again, err := b.Bytes()
	require.NoError(t, err)
	require.Equal(t, image, again)
}

func TestArchiveReadPreservesNames(t *testing.T) {
	a := NewArchive()
	a.Insert("meshes/r/xkwama worker.nif", NewFile([]byte("worker")))
	a.Insert("icons/a/tx_templar_skirt.dds", NewFile([]byte("skirt")))

	image, err := a.Bytes()
	require.NoError(t, err)

	b := NewArchive()
	require.NoError(t, b.ReadBytes(image))

	var names []string
	for key, f := range b.All() {
		require.NotNil(t, f)
		names = append(names, key.Name)
	}
	// On-disk tables are hash-ascending, so read-back order is too.
	require.Equal(t, []string{
		"icons\\a\\tx_templar_skirt.dds",
		"meshes\\r\\xkwama worker.nif",
	}, names)
}

func TestArchiveDataOffsetsIncrease(t *testing.T) {
	a := NewArchive()
	a.Insert("zzz/last.nif", NewFile(make([]byte, 16)))
	a.Insert("aaa/first.nif", NewFile(make([]byte, 8)))

	image, err := a.Bytes()
	require.NoError(t, err)

	b := NewArchive()
	require.NoError(t, b.ReadBytes(image))

	// Payload slices borrow the image in strictly increasing order.
	last := -1
	for _, f := range b.All() {
		off := sliceOffset(image, f.AsBytes())
		require.Greater(t, off, last)
		last = off
	}
}

func sliceOffset(base, sub []byte) int {
	if len(sub) == 0 {
		return -1
	}
	for i := range base {
		if &base[i] == &sub[0] {
			return i
		}
	}

	return -1
}

func TestArchiveBadMagic(t *testing.T) {
	a := NewArchive()
	err := a.ReadBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 0, 0, 0})
	require.ErrorIs(t, err, errs.ErrBadMagic)
}

func TestArchiveTruncated(t *testing.T) {
	a := NewArchive()
	a.Insert("meshes/a.nif", NewFile([]byte("payload")))
	image, err := a.Bytes()
	require.NoError(t, err)

	for _, cut := range []int{2, 11, len(image) / 2, len(image) - 1} {
		b := NewArchive()
		require.ErrorIs(t, b.ReadBytes(image[:cut]), errs.ErrTruncatedInput)
	}
}

func TestArchiveFileRoundTripOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.bsa")

	a := NewArchive()
	a.Insert("meshes/a.nif", NewFile([]byte("mesh a")))
	a.Insert("meshes/b.nif", NewFile([]byte("mesh b")))
	require.NoError(t, a.Write(path))

	b := NewArchive()
	require.NoError(t, b.Read(path))
	defer b.Close()

	f, err := b.Get("meshes/a.nif")
	require.NoError(t, err)
	require.Equal(t, []byte("mesh a"), f.AsBytes())

	// Deep copies must survive closing the mapping.
	f.DeepCopy()
	require.False(t, f.Borrowed())
}

func TestVerifyOffsets(t *testing.T) {
	a := NewArchive()
	require.True(t, a.VerifyOffsets())

	a.Insert("small.bin", NewFile(make([]byte, 16)))
	require.True(t, a.VerifyOffsets())
}
