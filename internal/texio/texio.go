// Package texio reads and writes the texture formats used for bake inputs
// and outputs.
package texio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dblezek/tga"
	"github.com/erinpentecost/meshbake/internal/dds"
	"github.com/erinpentecost/meshbake/internal/raster"
	"golang.org/x/image/bmp"
)

// Format identifies a texture file format.
type Format int

const (
	Unknown Format = iota
	PNG
	BMP
	TGA
	DDS
)

var ErrUnknownFormat = errors.New("unknown texture format")

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case BMP:
		return "bmp"
	case TGA:
		return "tga"
	case DDS:
		return "dds"
	}
	return "unknown"
}

// FormatFromPath picks a format by file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG
	case ".bmp":
		return BMP
	case ".tga":
		return TGA
	case ".dds":
		return DDS
	}
	return Unknown
}

// Decode reads an image of the given format.
func Decode(r io.Reader, f Format) (image.Image, error) {
	switch f {
	case PNG:
		return png.Decode(r)
	case BMP:
		return bmp.Decode(r)
	case TGA:
		return tga.Decode(r)
	case DDS:
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		m, err := dds.Decode(b)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("decode %v: %w", f, ErrUnknownFormat)
}

// Encode writes m in the given format.
func Encode(w io.Writer, m image.Image, f Format) error {
	switch f {
	case PNG:
		return png.Encode(w, m)
	case BMP:
		return bmp.Encode(w, m)
	case TGA:
		return tga.Encode(w, m)
	case DDS:
		return dds.Encode(w, m)
	}
	return fmt.Errorf("encode %v: %w", f, ErrUnknownFormat)
}

// Read loads a texture file into a raster image with four channels.
func Read(path string) (*raster.Image, error) {
	f := FormatFromPath(path)
	if f == Unknown {
		return nil, fmt.Errorf("read %q: %w", path, ErrUnknownFormat)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read texture: %w", err)
	}
	m, err := Decode(bytes.NewReader(b), f)
	if err != nil {
		return nil, fmt.Errorf("decode %q: %w", path, err)
	}
	return raster.FromImage(m), nil
}

// Write saves img to path in the format implied by its extension.
func Write(path string, img image.Image) error {
	f := FormatFromPath(path)
	if f == Unknown {
		return fmt.Errorf("write %q: %w", path, ErrUnknownFormat)
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write texture: %w", err)
	}
	return nil
}
