package fo4

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashStartsEmpty(t *testing.T) {
	h := Hash{}
	require.Equal(t, uint32(0), h.File)
	require.Equal(t, uint32(0), h.Extension)
	require.Equal(t, uint32(0), h.Directory)
}

func TestHashFileReferenceValues(t *testing.T) {
	tests := []struct {
		path string
		want Hash
	}{
		// The í is the single latin-1 byte 0xED, as the engine stores it.
		{"Sound\\Voice\\Fallout4.esm\\RobotMrHandy\\Mar\xeda_M.fuz", Hash{0xC9FB26F9, 0x007A7566, 0x8A9C014E}},
		{"Strings\\ccBGSFO4001-PipBoy(Black)_en.DLSTRINGS", Hash{0x1985075C, 0x74736C64, 0x29F6B58B}},
		{"Textures\\CreationClub\\BGSFO4001\\AnimObjects\\PipBoy\\PipBoy02(Black)_d.DDS", Hash{0x69E1E82C, 0x00736464, 0x23157A84}},
		{"Materials\\CreationClub\\BGSFO4003\\AnimObjects\\PipBoy\\PipBoyLabels01(Camo01).BGSM", Hash{0x0785843B, 0x6D736762, 0x818374CC}},
		{"Strings\\ccBGSFO4004-PipBoy(Camo02)_esmx.DLSTRINGS", Hash{0xC26B77C1, 0x74736C64, 0x29F6B58B}},
		{"Strings\\ccBGSFO4006-PipBoy(Chrome)_es.STRINGS", Hash{0xA94A4503, 0x69727473, 0x29F6B58B}},
		{"Meshes\\CreationClub\\BGSFO4016\\Clothes\\Prey\\MorganSpaceSuit_M_First.nif", Hash{0x212E5DAD, 0x0066696E, 0x741DAAC0}},
		{"Textures\\CreationClub\\BGSFO4016\\Clothes\\Prey\\Morgan_Male_Body_s.DDS", Hash{0x9C672F34, 0x00736464, 0x1D5F0EDF}},
		{"Materials\\CreationClub\\BGSFO4038\\Actors\\PowerArmor\\HorsePAHelmet.BGSM", Hash{0xE90B72CC, 0x6D736762, 0x44676566}},
		{"Textures\\CreationClub\\BGSFO4038\\Actors\\PowerArmor\\HorsePATorso_teal_d.DDS", Hash{0x0A6251B3, 0x00736464, 0xC1AC59B4}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			require.Equal(t, tt.want, HashFile(tt.path))
		})
	}
}

func TestHashFileSeparators(t *testing.T) {
	require.Equal(t,
		HashFile("Sound/Voice/Fallout4.esm/RobotMrHandy/Mar\xeda_M.fuz"),
		HashFile("Sound\\Voice\\Fallout4.esm\\RobotMrHandy\\Mar\xeda_M.fuz"))
}

func TestHashFilePure(t *testing.T) {
	const path = "Textures\\a\\b.dds"
	require.Equal(t, HashFile(path), HashFile(path))
}
