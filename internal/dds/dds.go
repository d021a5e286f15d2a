// Package dds reads and writes DirectDraw Surface textures.
package dds

import (
	"encoding/binary"
	"fmt"
)

const (
	magic      = "DDS "
	headerSize = 124
	dataStart  = len(magic) + headerSize

	// pixel format block offset inside the header
	pfOffset = 72
	pfSize   = 32

	// DDSD flags
	ddsdCaps        = 0x1
	ddsdHeight      = 0x2
	ddsdWidth       = 0x4
	ddsdPitch       = 0x8
	ddsdPixelFormat = 0x1000

	// pixel format flags
	ddpfAlphaPixels = 0x1
	ddpfFourCC      = 0x4
	ddpfRGB         = 0x40

	ddsCapsTexture = 0x1000
)

// header is the subset of DDS_HEADER the codec reads and writes.
type header struct {
	height, width uint32
	pitch         uint32
	pfFlags       uint32
	fourCC        string
	bitCount      uint32
	masks         [4]uint32 // r, g, b, a
}

func parseHeader(b []byte) (header, error) {
	if len(b) < dataStart {
		return header{}, fmt.Errorf("dds: data too short for header: %d < %d", len(b), dataStart)
	}
	if string(b[:4]) != magic {
		return header{}, fmt.Errorf("dds: missing magic %q", magic)
	}
	hdr := b[4:dataStart]
	if size := binary.LittleEndian.Uint32(hdr[0:4]); size != headerSize {
		return header{}, fmt.Errorf("dds: header size %d, want %d", size, headerSize)
	}
	pf := hdr[pfOffset : pfOffset+pfSize]
	h := header{
		height:   binary.LittleEndian.Uint32(hdr[8:12]),
		width:    binary.LittleEndian.Uint32(hdr[12:16]),
		pitch:    binary.LittleEndian.Uint32(hdr[16:20]),
		pfFlags:  binary.LittleEndian.Uint32(pf[4:8]),
		fourCC:   string(pf[8:12]),
		bitCount: binary.LittleEndian.Uint32(pf[12:16]),
	}
	for i := range h.masks {
		h.masks[i] = binary.LittleEndian.Uint32(pf[16+4*i:])
	}
	if h.pfFlags&ddpfFourCC == 0 {
		h.fourCC = ""
	}
	if h.width == 0 || h.height == 0 {
		return header{}, fmt.Errorf("dds: empty image %dx%d", h.width, h.height)
	}
	return h, nil
}

// marshal returns the magic and header of an uncompressed texture.
func (h header) marshal() []byte {
	b := make([]byte, dataStart)
	copy(b, magic)
	hdr := b[4:]
	put := func(off int, v uint32) {
		binary.LittleEndian.PutUint32(hdr[off:], v)
	}
	put(0, headerSize)
	put(4, ddsdCaps|ddsdHeight|ddsdWidth|ddsdPixelFormat|ddsdPitch)
	put(8, h.height)
	put(12, h.width)
	put(16, h.pitch)
	put(pfOffset, pfSize)
	put(pfOffset+4, h.pfFlags)
	put(pfOffset+12, h.bitCount)
	for i, m := range h.masks {
		put(pfOffset+16+4*i, m)
	}
	put(104, ddsCapsTexture)
	return b
}
