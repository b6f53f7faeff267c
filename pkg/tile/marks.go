package tile

import (
	"image"
	"image/color"
	"image/draw"
)

// Mark is an X-shaped cross made of two 1px diagonals.
type Mark struct {
	Center image.Point
	Size   int // half-length of each diagonal
	Color  color.Color
}

// SizeFunc returns the corner-mark half-length for a grid position.
type SizeFunc func(row, col int) int

// LinearSize grows marks by step pixels per unit of grid distance from the
// origin tile.
func LinearSize(base, step int) SizeFunc {
	return func(row, col int) int {
		return base + step*(row+col)
	}
}

// Mark defaults.
const (
	CornerInset     = 5
	CornerBase      = 10
	CornerStep      = 5
	OverlapMarkSize = 6
)

var (
	Black = color.RGBA{A: 0xff}
	Red   = color.RGBA{R: 0xff, A: 0xff}
)

// MarkRenderer draws alignment marks onto tile canvases. The zero value is
// not usable; start from NewMarkRenderer.
type MarkRenderer struct {
	CornerSize   SizeFunc
	CornerInset  int
	CornerColor  color.Color
	OverlapSize  int
	OverlapColor color.Color
}

// NewMarkRenderer returns a renderer with the default sizes and colors.
func NewMarkRenderer() *MarkRenderer {
	return &MarkRenderer{
		CornerSize:   LinearSize(CornerBase, CornerStep),
		CornerInset:  CornerInset,
		CornerColor:  Black,
		OverlapSize:  OverlapMarkSize,
		OverlapColor: Red,
	}
}

// OverlapLayout locates a tile within the grid and its canvas.
type OverlapLayout struct {
	Border     int
	TileWidth  int
	TileHeight int
	Overlap    int
	Row, Col   int
	Rows, Cols int
}

// Layout returns the OverlapLayout of the tile at (row, col).
func (g Geometry) Layout(row, col int) OverlapLayout {
	return OverlapLayout{
		Border:     g.Border,
		TileWidth:  g.TileWidth,
		TileHeight: g.TileHeight,
		Overlap:    g.Overlap,
		Row:        row,
		Col:        col,
		Rows:       g.Rows,
		Cols:       g.Cols,
	}
}

// CornerMarks returns the four corner marks of a canvas with the given bounds.
func (r *MarkRenderer) CornerMarks(bounds image.Rectangle, row, col int) []Mark {
	size := r.CornerSize(row, col)
	in := r.CornerInset
	pts := []image.Point{
		{bounds.Min.X + in, bounds.Min.Y + in},
		{bounds.Max.X - in, bounds.Min.Y + in},
		{bounds.Min.X + in, bounds.Max.Y - in},
		{bounds.Max.X - in, bounds.Max.Y - in},
	}
	marks := make([]Mark, len(pts))
	for i, p := range pts {
		marks[i] = Mark{Center: p, Size: size, Color: r.CornerColor}
	}
	return marks
}

// OverlapMarks returns the marks at the centre of the bands shared with the
// right and lower neighbours. Tiles without a neighbour, or grids without
// overlap, get none.
func (r *MarkRenderer) OverlapMarks(l OverlapLayout) []Mark {
	if l.Overlap <= 0 {
		return nil
	}
	var marks []Mark
	if l.Col < l.Cols-1 {
		marks = append(marks, Mark{
			Center: image.Pt(l.Border+l.TileWidth-l.Overlap/2, l.Border+l.TileHeight/2),
			Size:   r.OverlapSize,
			Color:  r.OverlapColor,
		})
	}
	if l.Row < l.Rows-1 {
		marks = append(marks, Mark{
			Center: image.Pt(l.Border+l.TileWidth/2, l.Border+l.TileHeight-l.Overlap/2),
			Size:   r.OverlapSize,
			Color:  r.OverlapColor,
		})
	}
	return marks
}

// RenderCorners draws the corner marks of the tile at (row, col) onto dst.
func (r *MarkRenderer) RenderCorners(dst draw.Image, row, col int) {
	for _, m := range r.CornerMarks(dst.Bounds(), row, col) {
		m.Draw(dst)
	}
}

// RenderOverlapMarks draws the overlap registration marks onto dst.
func (r *MarkRenderer) RenderOverlapMarks(dst draw.Image, l OverlapLayout) {
	for _, m := range r.OverlapMarks(l) {
		m.Draw(dst)
	}
}

// Draw paints m onto dst. Pixels outside dst are skipped.
func (m Mark) Draw(dst draw.Image) {
	c := m.Center
	line(dst, c.X-m.Size, c.Y-m.Size, c.X+m.Size, c.Y+m.Size, m.Color)
	line(dst, c.X-m.Size, c.Y+m.Size, c.X+m.Size, c.Y-m.Size, m.Color)
}

// line draws an aliased 1px segment with Bresenham's algorithm, endpoints
// included.
func line(dst draw.Image, x0, y0, x1, y1 int, c color.Color) {
	b := dst.Bounds()
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if image.Pt(x0, y0).In(b) {
			dst.Set(x0, y0, c)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
