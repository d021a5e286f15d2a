package dds

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"io"
	"math/bits"

	"github.com/mauserzjeh/dxt"
)

func init() {
	image.RegisterFormat("dds", magic, func(r io.Reader) (image.Image, error) {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		m, err := Decode(b)
		if err != nil {
			return nil, err
		}
		return m, nil
	}, DecodeConfig)
}

// DecodeConfig returns the dimensions of a DDS texture.
func DecodeConfig(r io.Reader) (image.Config, error) {
	b := make([]byte, dataStart)
	if _, err := io.ReadFull(r, b); err != nil {
		return image.Config{}, fmt.Errorf("dds: reading header: %w", err)
	}
	h, err := parseHeader(b)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{Width: int(h.width), Height: int(h.height), ColorModel: color.NRGBAModel}, nil
}

// Decode parses a DDS file. DXT1, DXT3, DXT5 and uncompressed 24 or 32 bit
// RGB(A) with arbitrary byte masks are supported. Only the top mip level is
// read.
func Decode(data []byte) (*image.NRGBA, error) {
	h, err := parseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.fourCC == "" && h.bitCount == 0 {
		h.fourCC = detectFourCC(data)
	}
	pix := data[dataStart:]
	if len(pix) == 0 {
		return nil, fmt.Errorf("dds: no image data")
	}
	w, ht := uint(h.width), uint(h.height)

	var rgba []byte
	switch h.fourCC {
	case "DXT1":
		rgba, err = dxt.DecodeDXT1(pix, w, ht)
	case "DXT3":
		rgba, err = dxt.DecodeDXT3(pix, w, ht)
	case "DXT5":
		rgba, err = dxt.DecodeDXT5(pix, w, ht)
	case "":
		rgba, err = decodeUncompressed(pix, h)
	default:
		return nil, fmt.Errorf("dds: unsupported FourCC %q", h.fourCC)
	}
	if err != nil {
		return nil, fmt.Errorf("dds: decode %dx%d: %w", w, ht, err)
	}

	want := int(w * ht * 4)
	if len(rgba) < want {
		return nil, fmt.Errorf("dds: decoded %d bytes, want %d", len(rgba), want)
	}
	img := image.NewNRGBA(image.Rect(0, 0, int(w), int(ht)))
	copy(img.Pix, rgba[:want])
	return img, nil
}

func decodeUncompressed(pix []byte, h header) ([]byte, error) {
	if h.bitCount != 24 && h.bitCount != 32 {
		return nil, fmt.Errorf("unsupported bit count %d", h.bitCount)
	}
	bpp := int(h.bitCount / 8)
	pitch := int(h.width) * bpp
	if h.pitch >= uint32(pitch) {
		pitch = int(h.pitch)
	}
	need := pitch*(int(h.height)-1) + int(h.width)*bpp
	if len(pix) < need {
		return nil, fmt.Errorf("have %d bytes, need %d", len(pix), need)
	}

	masks := h.masks
	if masks == ([4]uint32{}) {
		masks = [4]uint32{0x00FF0000, 0x0000FF00, 0x000000FF, 0}
		if bpp == 4 {
			masks[3] = 0xFF000000
		}
	}
	if h.pfFlags&ddpfAlphaPixels == 0 && bpp == 3 {
		masks[3] = 0
	}

	out := make([]byte, int(h.width*h.height)*4)
	var word [4]byte
	for y := range int(h.height) {
		row := pix[y*pitch:]
		for x := range int(h.width) {
			word = [4]byte{}
			copy(word[:], row[x*bpp:x*bpp+bpp])
			v := binary.LittleEndian.Uint32(word[:])
			o := (y*int(h.width) + x) * 4
			for c, m := range masks {
				out[o+c] = extract(v, m)
			}
			if masks[3] == 0 {
				out[o+3] = 0xFF
			}
		}
	}
	return out, nil
}

// extract returns the channel selected by mask scaled to eight bits.
func extract(v, mask uint32) byte {
	if mask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(mask)
	width := bits.OnesCount32(mask)
	c := (v & mask) >> shift
	switch {
	case width == 8:
		return byte(c)
	case width > 8:
		return byte(c >> (width - 8))
	}
	maxV := uint32(1)<<width - 1
	return byte((c*255 + maxV/2) / maxV)
}

// detectFourCC recovers a FourCC from writers that leave the pixel format
// flags unset.
func detectFourCC(data []byte) string {
	hdr := data[4:dataStart]
	for _, s := range []string{"DXT1", "DXT3", "DXT5"} {
		if bytes.Contains(hdr[pfOffset:pfOffset+pfSize], []byte(s)) {
			return s
		}
	}
	return ""
}
