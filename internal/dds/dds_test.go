package dds

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
)

func dxtHeader(w, h uint32, fourCC string) []byte {
	b := header{width: w, height: h, pfFlags: ddpfFourCC}.marshal()
	copy(b[4+pfOffset+8:], fourCC)
	return b
}

func TestDecode_DXT1(t *testing.T) {
	data := dxtHeader(4, 4, "DXT1")
	block := make([]byte, 8)
	binary.LittleEndian.PutUint16(block[0:], 0xF800) // pure red
	binary.LittleEndian.PutUint16(block[2:], 0x0000)
	data = append(data, block...)

	img, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 4), img.Bounds())
	for y := range 4 {
		for x := range 4 {
			require.Equal(t, color.NRGBA{R: 255, A: 255}, img.NRGBAAt(x, y))
		}
	}
}

func TestEncodeDecode_Lossless(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	for y := range 3 {
		for x := range 5 {
			src.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 50), G: uint8(y * 80), B: 7, A: uint8(255 - x)})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src))
	require.Len(t, buf.Bytes(), dataStart+5*3*4)

	got, err := Decode(buf.Bytes())
	require.NoError(t, err)
	require.Equal(t, src.Pix, got.Pix)

	cfg, err := DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Width)
	require.Equal(t, 3, cfg.Height)
}

func TestDecode_Uncompressed24(t *testing.T) {
	h := header{
		width: 2, height: 1, pitch: 6,
		pfFlags: ddpfRGB, bitCount: 24,
		masks: [4]uint32{0xFF0000, 0x00FF00, 0x0000FF, 0},
	}
	// BGR byte order
	data := append(h.marshal(), 3, 2, 1, 30, 20, 10)
	img, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, img.NRGBAAt(0, 0))
	require.Equal(t, color.NRGBA{R: 10, G: 20, B: 30, A: 255}, img.NRGBAAt(1, 0))
}

func TestDecode_Errors(t *testing.T) {
	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"short", []byte("DDS ")},
		{"magic", append([]byte("XXXX"), make([]byte, headerSize)...)},
		{"fourcc", append(dxtHeader(4, 4, "ATI2"), make([]byte, 16)...)},
		{"no data", dxtHeader(4, 4, "DXT1")},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			require.Error(t, err)
		})
	}
}

func TestExtract(t *testing.T) {
	require.Equal(t, byte(255), extract(0xF800, 0xF800))
	require.Equal(t, byte(0), extract(0x07FF, 0xF800))
	require.Equal(t, byte(0xAB), extract(0xAB00, 0xFF00))
	require.Equal(t, byte(0), extract(0xFFFF, 0))
}
