// Package bsarc reads, manipulates, and writes the three archive
// container formats used by a family of game engines.
//
// Each format lives in its own package (tes3, tes4, fo4) exposing
// an Archive type that behaves as an in-memory virtual filesystem with
// bit-exact serialization. This package only sniffs which decoder a
// given file needs.
package bsarc

import (
	"github.com/tesvault/bsarc/stream"
)

// FileFormat identifies which archive codec a file requires.
type FileFormat uint8

const (
	FormatUnknown FileFormat = iota
	FormatTES3
	FormatTES4
	FormatFO4
)

func (f FileFormat) String() string {
	switch f {
	case FormatTES3:
		return "TES3"
	case FormatTES4:
		return "TES4"
	case FormatFO4:
		return "FO4"
	default:
		return "Unknown"
	}
}

// GuessFormat inspects the leading bytes of an archive image.
func GuessFormat(data []byte) FileFormat {
	if len(data) < 4 {
		return FormatUnknown
	}

	switch {
	case data[0] == 0x00 && data[1] == 0x01 && data[2] == 0x00 && data[3] == 0x00:
		return FormatTES3
	case data[0] == 'B' && data[1] == 'S' && data[2] == 'A' && data[3] == 0:
		return FormatTES4
	case data[0] == 'B' && data[1] == 'T' && data[2] == 'D' && data[3] == 'X':
		return FormatFO4
	default:
		return FormatUnknown
	}
}

// GuessFileFormat memory-maps the file at path and inspects its magic.
func GuessFileFormat(path string) (FileFormat, error) {
	src, err := stream.OpenSource(path)
	if err != nil {
		return FormatUnknown, err
	}
	defer src.Close()

	return GuessFormat(src.Data()), nil
}
