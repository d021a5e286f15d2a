package dds

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
)

// Encode writes m as an uncompressed 32 bit RGBA DDS texture with a single
// mip level.
func Encode(w io.Writer, m image.Image) error {
	bounds := m.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("dds: cannot encode empty image")
	}
	h := header{
		width:    uint32(width),
		height:   uint32(height),
		pitch:    uint32(width * 4),
		pfFlags:  ddpfRGB | ddpfAlphaPixels,
		bitCount: 32,
		masks:    [4]uint32{0x000000FF, 0x0000FF00, 0x00FF0000, 0xFF000000},
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(h.marshal()); err != nil {
		return fmt.Errorf("dds: write header: %w", err)
	}
	row := make([]byte, width*4)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			o := (x - bounds.Min.X) * 4
			row[o], row[o+1], row[o+2], row[o+3] = c.R, c.G, c.B, c.A
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("dds: write row %d: %w", y, err)
		}
	}
	return bw.Flush()
}
