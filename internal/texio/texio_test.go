package texio

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testImage() *image.NRGBA {
	im := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := range 2 {
		for x := range 3 {
			im.SetNRGBA(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(100 * y), B: uint8(10 + x + y), A: 255})
		}
	}
	return im
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"a.png":        PNG,
		"dir/b.BMP":    BMP,
		"c.tga":        TGA,
		"d.Dds":        DDS,
		"e.jpg":        Unknown,
		"no_extension": Unknown,
	} {
		require.Equal(t, want, FormatFromPath(path), path)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	src := testImage()
	dir := t.TempDir()
	for _, ext := range []string{"png", "bmp", "tga", "dds"} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "out."+ext)
			require.NoError(t, Write(path, src))

			got, err := Read(path)
			require.NoError(t, err)
			require.Equal(t, 3, got.Dims.Width)
			require.Equal(t, 2, got.Dims.Height)
			require.Equal(t, src.Pix, got.ToNRGBA().Pix)
		})
	}
}

func TestDecode_HandBuiltTGA(t *testing.T) {
	data := []byte{
		0, 0, 2, // no id, no colormap, truecolor
		0, 0, 0, 0, 0,
		0, 0, 0, 0, // origin
		1, 0, 1, 0, // 1x1
		24, 0x20,
		30, 20, 10, // BGR
	}
	m, err := Decode(bytes.NewReader(data), TGA)
	require.NoError(t, err)
	r, g, b, a := m.At(0, 0).RGBA()
	require.Equal(t, []uint32{10, 20, 30, 255}, []uint32{r >> 8, g >> 8, b >> 8, a >> 8})
}

func TestUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.jpg")
	require.ErrorIs(t, Write(path, testImage()), ErrUnknownFormat)

	require.NoError(t, os.WriteFile(path, []byte{1}, 0o644))
	_, err := Read(path)
	require.ErrorIs(t, err, ErrUnknownFormat)
}
