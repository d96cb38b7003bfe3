package fo4

import (
	"fmt"

	"github.com/tesvault/bsarc/errs"
	"github.com/tesvault/bsarc/stream"
)

// DDS container constants, just enough of the format to compute mip
// chunking. No pixel data is interpreted.
const (
	ddsMagic          = 0x20534444 // "DDS "
	ddsHeaderSize     = 124
	ddsPixelFormatLen = 32
	ddsDX10HeaderSize = 20

	ddsFlagCaps        = 0x1
	ddsFlagHeight      = 0x2
	ddsFlagWidth       = 0x4
	ddsFlagPixelFormat = 0x1000
	ddsFlagMipMapCount = 0x20000
	ddsFlagLinearSize  = 0x80000

	ddsPFFourCC = 0x4

	ddsCapsComplex = 0x8
	ddsCapsTexture = 0x1000
	ddsCapsMipMap  = 0x400000
)

// DXGI format ids the chunker understands.
const (
	dxgiR8G8B8A8UNorm = 28
	dxgiR8UNorm       = 61
	dxgiBC1UNorm      = 71
	dxgiBC1UNormSRGB  = 72
	dxgiBC2UNorm      = 74
	dxgiBC2UNormSRGB  = 75
	dxgiBC3UNorm      = 77
	dxgiBC3UNormSRGB  = 78
	dxgiBC4UNorm      = 80
	dxgiBC5UNorm      = 83
	dxgiB8G8R8A8UNorm = 87
	dxgiBC6HUF16      = 95
	dxgiBC7UNorm      = 98
	dxgiBC7UNormSRGB  = 99
)

func fourCC(s string) uint32 {
	return uint32(s[0]) | uint32(s[1])<<8 | uint32(s[2])<<16 | uint32(s[3])<<24
}

// ddsInfo is the decoded shape of a DDS file.
type ddsInfo struct {
	width    uint32
	height   uint32
	mipCount uint32
	format   uint8 // DXGI format id
	dataOff  int   // offset of the first mip's bytes
}

// parseDDS decodes the DDS magic and header, mapping legacy fourCC pixel
// formats onto their DXGI ids.
func parseDDS(data []byte) (ddsInfo, error) {
	var info ddsInfo
	r := stream.NewReaderBytes(data)

	magic, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	if magic != ddsMagic {
		return info, errs.ErrBadMagic
	}

	size, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	if size != ddsHeaderSize {
		return info, errs.ErrBadFormat
	}

	if _, err = r.ReadUint32(); err != nil { // flags
		return info, err
	}
	if info.height, err = r.ReadUint32(); err != nil {
		return info, err
	}
	if info.width, err = r.ReadUint32(); err != nil {
		return info, err
	}
	r.SeekRelative(8) // pitch/linear size, depth
	if info.mipCount, err = r.ReadUint32(); err != nil {
		return info, err
	}
	if info.mipCount == 0 {
		info.mipCount = 1
	}
	r.SeekRelative(11 * 4) // reserved

	pfSize, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	if pfSize != ddsPixelFormatLen {
		return info, errs.ErrBadFormat
	}
	pfFlags, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	pfFourCC, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	bitCount, err := r.ReadUint32()
	if err != nil {
		return info, err
	}
	r.SeekRelative(4 * 4) // channel masks
	r.SeekRelative(5 * 4) // caps1-4, reserved2

	info.dataOff = 4 + ddsHeaderSize

	if pfFlags&ddsPFFourCC != 0 && pfFourCC == fourCC("DX10") {
		dxgi, err := r.ReadUint32()
		if err != nil {
			return info, err
		}
		r.SeekRelative(4 * 4) // dimension, misc, array size, misc2
		info.format = uint8(dxgi)
		info.dataOff += ddsDX10HeaderSize
	} else if pfFlags&ddsPFFourCC != 0 {
		switch pfFourCC {
		case fourCC("DXT1"):
			info.format = dxgiBC1UNorm
		case fourCC("DXT2"), fourCC("DXT3"):
			info.format = dxgiBC2UNorm
		case fourCC("DXT4"), fourCC("DXT5"):
			info.format = dxgiBC3UNorm
		case fourCC("ATI1"), fourCC("BC4U"):
			info.format = dxgiBC4UNorm
		case fourCC("ATI2"), fourCC("BC5U"):
			info.format = dxgiBC5UNorm
		default:
			return info, fmt.Errorf("%w: unsupported dds fourcc %08X", errs.ErrBadFormat, pfFourCC)
		}
	} else {
		switch bitCount {
		case 32:
			info.format = dxgiB8G8R8A8UNorm
		case 8:
			info.format = dxgiR8UNorm
		default:
			return info, fmt.Errorf("%w: unsupported dds bit count %d", errs.ErrBadFormat, bitCount)
		}
	}

	if _, ok := formatPitch(info.format); !ok {
		return info, fmt.Errorf("%w: unsupported dxgi format %d", errs.ErrBadFormat, info.format)
	}

	return info, nil
}

// pitchInfo describes how a DXGI format maps texels to bytes.
type pitchInfo struct {
	block     bool
	blockSize uint32 // bytes per 4x4 block when block is true
	bpp       uint32 // bits per pixel otherwise
}

func formatPitch(format uint8) (pitchInfo, bool) {
	switch format {
	case dxgiBC1UNorm, dxgiBC1UNormSRGB, dxgiBC4UNorm:
		return pitchInfo{block: true, blockSize: 8}, true
	case dxgiBC2UNorm, dxgiBC2UNormSRGB, dxgiBC3UNorm, dxgiBC3UNormSRGB,
		dxgiBC5UNorm, dxgiBC6HUF16, dxgiBC7UNorm, dxgiBC7UNormSRGB:
		return pitchInfo{block: true, blockSize: 16}, true
	case dxgiR8G8B8A8UNorm, dxgiB8G8R8A8UNorm:
		return pitchInfo{bpp: 32}, true
	case dxgiR8UNorm:
		return pitchInfo{bpp: 8}, true
	default:
		return pitchInfo{}, false
	}
}

// mipSize returns the byte length of one mip level.
func mipSize(format uint8, width, height uint32) uint32 {
	p, _ := formatPitch(format)
	if p.block {
		bw := max(1, (width+3)/4)
		bh := max(1, (height+3)/4)

		return bw * bh * p.blockSize
	}

	return width * height * p.bpp / 8
}

// mipDim halves a dimension, clamping at one texel.
func mipDim(d uint32, level uint32) uint32 {
	d >>= level
	return max(1, d)
}

// writeDDS reassembles a DDS image from the file header and raw mip
// bytes. The DX10 extension header is always emitted.
func writeDDS(w *stream.Writer, hdr FileHeader, data []byte) {
	w.PutUint32(ddsMagic)
	w.PutUint32(ddsHeaderSize)
	w.PutUint32(ddsFlagCaps | ddsFlagHeight | ddsFlagWidth | ddsFlagPixelFormat | ddsFlagMipMapCount | ddsFlagLinearSize)
	w.PutUint32(uint32(hdr.Height))
	w.PutUint32(uint32(hdr.Width))
	w.PutUint32(mipSize(hdr.Format, uint32(hdr.Width), uint32(hdr.Height)))
	w.PutUint32(0) // depth
	w.PutUint32(uint32(hdr.MipCount))
	for range 11 {
		w.PutUint32(0) // reserved
	}
	w.PutUint32(ddsPixelFormatLen)
	w.PutUint32(ddsPFFourCC)
	w.PutUint32(fourCC("DX10"))
	for range 5 {
		w.PutUint32(0) // bit count and channel masks
	}
	w.PutUint32(ddsCapsComplex | ddsCapsTexture | ddsCapsMipMap)
	for range 4 {
		w.PutUint32(0) // caps2-4, reserved2
	}
	w.PutUint32(uint32(hdr.Format))
	w.PutUint32(3) // texture2d
	w.PutUint32(0)
	w.PutUint32(1) // array size
	w.PutUint32(0)

	w.PutBytes(data)
}
