package raster

// Tile is a rectangle of texels in image coordinates.
type Tile struct {
	X, Y          int
	Width, Height int
}

// Num returns the number of texels in the tile.
func (t Tile) Num() int { return t.Width * t.Height }

// Contains reports whether image texel (x, y) lies in the tile.
func (t Tile) Contains(x, y int) bool {
	return x >= t.X && y >= t.Y && x < t.X+t.Width && y < t.Y+t.Height
}

// Index returns the tile-local linear index of image texel (x, y).
func (t Tile) Index(x, y int) int {
	return (y-t.Y)*t.Width + (x - t.X)
}

// Coords returns the image texel of tile-local linear index i.
func (t Tile) Coords(i int) (x, y int) {
	return t.X + i%t.Width, t.Y + i/t.Width
}

// PaddedTile pairs a tile with the same tile grown by a padding border and
// clipped to the image.
type PaddedTile struct {
	Tile
	Padded Tile
}

// Tiling splits an image into a grid of tiles.
type Tiling struct {
	Dims     Dimensions
	TileSize int
	Padding  int

	cols, rows int
}

// NewTiling splits dims into tiles of at most tileSize texels per side.
func NewTiling(dims Dimensions, tileSize, padding int) Tiling {
	tileSize = max(tileSize, 1)
	return Tiling{
		Dims:     dims,
		TileSize: tileSize,
		Padding:  max(padding, 0),
		cols:     (dims.Width + tileSize - 1) / tileSize,
		rows:     (dims.Height + tileSize - 1) / tileSize,
	}
}

// Num returns the number of tiles.
func (t Tiling) Num() int { return t.cols * t.rows }

// Tile returns tile i in row-major order.
func (t Tiling) Tile(i int) PaddedTile {
	cx, cy := i%t.cols, i/t.cols
	x0, y0 := cx*t.TileSize, cy*t.TileSize
	x1 := min(x0+t.TileSize, t.Dims.Width)
	y1 := min(y0+t.TileSize, t.Dims.Height)

	px0, py0 := max(x0-t.Padding, 0), max(y0-t.Padding, 0)
	px1 := min(x1+t.Padding, t.Dims.Width)
	py1 := min(y1+t.Padding, t.Dims.Height)
	return PaddedTile{
		Tile:   Tile{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0},
		Padded: Tile{X: px0, Y: py0, Width: px1 - px0, Height: py1 - py0},
	}
}
