package bsarc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tesvault/bsarc/fo4"
	"github.com/tesvault/bsarc/tes3"
	"github.com/tesvault/bsarc/tes4"
)

func TestGuessFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want FileFormat
	}{
		{"tes3", []byte{0x00, 0x01, 0x00, 0x00, 0xAA}, FormatTES3},
		{"tes4", []byte("BSA\x00rest"), FormatTES4},
		{"fo4", []byte("BTDXrest"), FormatFO4},
		{"garbage", []byte("GARBAGE!"), FormatUnknown},
		{"short", []byte{0x42}, FormatUnknown},
		{"empty", nil, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, GuessFormat(tt.data))
		})
	}
}

func TestFileFormatString(t *testing.T) {
	require.Equal(t, "TES3", FormatTES3.String())
	require.Equal(t, "TES4", FormatTES4.String())
	require.Equal(t, "FO4", FormatFO4.String())
	require.Equal(t, "Unknown", FormatUnknown.String())
}

func TestGuessFileFormat(t *testing.T) {
	dir := t.TempDir()

	tes3Path := filepath.Join(dir, "morrowind.bsa")
	a3 := tes3.NewArchive()
	a3.Insert("meshes/a.nif", tes3.NewFile([]byte("mesh")))
	require.NoError(t, a3.Write(tes3Path))

	tes4Path := filepath.Join(dir, "skyrim.bsa")
	a4 := tes4.NewArchive()
	a4.SetArchiveFlags(tes4.FlagDirectoryStrings | tes4.FlagFileStrings)
	d := tes4.NewDirectory()
	d.Insert("a.nif", tes4.NewFile([]byte("mesh")))
	a4.Insert("meshes", d)
	require.NoError(t, a4.Write(tes4Path, tes4.VersionSSE))

	fo4Path := filepath.Join(dir, "fallout4.ba2")
	af := fo4.NewArchive()
	af.Insert("meshes\\a.nif", fo4.NewFile([]byte("mesh")))
	require.NoError(t, af.Write(fo4Path, fo4.FormatGeneral, true))

	got, err := GuessFileFormat(tes3Path)
	require.NoError(t, err)
	require.Equal(t, FormatTES3, got)

	got, err = GuessFileFormat(tes4Path)
	require.NoError(t, err)
	require.Equal(t, FormatTES4, got)

	got, err = GuessFileFormat(fo4Path)
	require.NoError(t, err)
	require.Equal(t, FormatFO4, got)

	_, err = GuessFileFormat(filepath.Join(dir, "missing.bsa"))
	require.Error(t, err)
}
