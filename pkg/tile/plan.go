package tile

import (
	"image"
	"math"
)

// DefaultAspectTolerance is the largest difference between the source and
// layout aspect ratios that goes unreported.
const DefaultAspectTolerance = 0.05

// Size limits. MaxPixels bounds both the scaled source and a single tile
// canvas, MaxTiles bounds rows*cols.
const (
	MaxTiles  = 1000
	MaxPixels = 10000 * 10000
)

// PlanOption configures Plan.
type PlanOption func(*planner)

type planner struct {
	tolerance float64
}

// WithAspectTolerance overrides DefaultAspectTolerance.
func WithAspectTolerance(t float64) PlanOption {
	return func(p *planner) { p.tolerance = t }
}

// Validate checks the physical parameters of s.
func (s Spec) Validate() error {
	switch {
	case !(s.DPI > 0):
		return invalid("dpi", "must be positive, got %g", s.DPI)
	case !(s.TileWidth > 0):
		return invalid("tile width", "must be positive, got %g", s.TileWidth)
	case !(s.TileHeight > 0):
		return invalid("tile height", "must be positive, got %g", s.TileHeight)
	case s.Rows <= 0:
		return invalid("rows", "must be positive, got %d", s.Rows)
	case s.Cols <= 0:
		return invalid("cols", "must be positive, got %d", s.Cols)
	case !(s.Border >= 0):
		return invalid("border", "must not be negative, got %g", s.Border)
	case !(s.Overlap >= 0):
		return invalid("overlap", "must not be negative, got %g", s.Overlap)
	case s.Overlap >= math.Min(s.TileWidth, s.TileHeight):
		return invalid("overlap", "%g must be smaller than the tile (%g x %g)", s.Overlap, s.TileWidth, s.TileHeight)
	case s.Rows > MaxTiles || s.Cols > MaxTiles || s.Rows*s.Cols > MaxTiles:
		return invalid("grid", "%dx%d exceeds %d tiles", s.Rows, s.Cols, MaxTiles)
	}

	// Checked in floating point so oversized inputs are rejected before the
	// int conversion can overflow.
	tw, th := s.TileWidth*s.DPI, s.TileHeight*s.DPI
	cw, ch := tw+2*s.Border*s.DPI, th+2*s.Border*s.DPI
	if cw*ch > MaxPixels {
		return invalid("tile size", "%.0fx%.0f pixel canvas exceeds %d pixels", cw, ch, MaxPixels)
	}
	ov := s.Overlap * s.DPI
	totalW := tw*float64(s.Cols) - ov*float64(s.Cols-1)
	totalH := th*float64(s.Rows) - ov*float64(s.Rows-1)
	if totalW*totalH > MaxPixels {
		return invalid("poster size", "%.0fx%.0f pixels exceeds %d pixels", totalW, totalH, MaxPixels)
	}
	return nil
}

// Geometry converts s to pixels.
func (s Spec) Geometry() (Geometry, error) {
	if err := s.Validate(); err != nil {
		return Geometry{}, err
	}

	g := Geometry{
		TileWidth:  toPixels(s.TileWidth, s.DPI),
		TileHeight: toPixels(s.TileHeight, s.DPI),
		Overlap:    toPixels(s.Overlap, s.DPI),
		Border:     toPixels(s.Border, s.DPI),
		Rows:       s.Rows,
		Cols:       s.Cols,
	}
	if g.TileWidth <= 0 || g.TileHeight <= 0 {
		return Geometry{}, invalid("tile size", "rounds to %dx%d pixels at %g dpi", g.TileWidth, g.TileHeight, s.DPI)
	}

	g.StepX = g.TileWidth - g.Overlap
	g.StepY = g.TileHeight - g.Overlap
	if g.StepX <= 0 || g.StepY <= 0 {
		return Geometry{}, invalid("overlap", "%dpx leaves no step between %dx%dpx tiles", g.Overlap, g.TileWidth, g.TileHeight)
	}

	g.TotalWidth = g.TileWidth*g.Cols - g.Overlap*(g.Cols-1)
	g.TotalHeight = g.TileHeight*g.Rows - g.Overlap*(g.Rows-1)
	// Rounding can nudge the pixel sizes past the limit Validate checked.
	cw, ch := g.CanvasSize()
	if int64(cw)*int64(ch) > MaxPixels {
		return Geometry{}, invalid("tile size", "%dx%d pixel canvas exceeds %d pixels", cw, ch, MaxPixels)
	}
	if int64(g.TotalWidth)*int64(g.TotalHeight) > MaxPixels {
		return Geometry{}, invalid("poster size", "%dx%d pixels exceeds %d pixels", g.TotalWidth, g.TotalHeight, MaxPixels)
	}
	return g, nil
}

// Tile returns the plan for the tile at (row, col). It does not check that
// the position lies inside the grid.
func (g Geometry) Tile(row, col int) TilePlan {
	left := col * g.StepX
	upper := row * g.StepY
	w, h := g.CanvasSize()
	return TilePlan{
		Row:    row,
		Col:    col,
		Index:  g.Index(row, col),
		Crop:   image.Rect(left, upper, left+g.TileWidth, upper+g.TileHeight),
		Canvas: image.Pt(w, h),
		Offset: image.Pt(g.Border, g.Border),
	}
}

// Bounds returns the rectangle covered by the scaled source image.
func (g Geometry) Bounds() image.Rectangle {
	return image.Rect(0, 0, g.TotalWidth, g.TotalHeight)
}

// Plan computes the tile layout for a source image of the given size.
// Tiles are returned in row-major order starting at (0, 0).
func Plan(sourceWidth, sourceHeight int, s Spec, opts ...PlanOption) (*Result, error) {
	p := planner{tolerance: DefaultAspectTolerance}
	for _, opt := range opts {
		opt(&p)
	}

	if sourceWidth <= 0 || sourceHeight <= 0 {
		return nil, invalid("source image", "must have positive dimensions, got %dx%d", sourceWidth, sourceHeight)
	}

	g, err := s.Geometry()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Geometry: g,
		Tiles:    make([]TilePlan, 0, g.Rows*g.Cols),
	}

	bounds := g.Bounds()
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			t := g.Tile(row, col)
			if t.Crop.Empty() || !t.Crop.In(bounds) {
				return nil, invalid("tile", "(%d,%d) crop %v escapes the %v image", row, col, t.Crop, bounds)
			}
			res.Tiles = append(res.Tiles, t)
		}
	}

	src := float64(sourceWidth) / float64(sourceHeight)
	dst := float64(g.TotalWidth) / float64(g.TotalHeight)
	if math.Abs(src-dst) > p.tolerance {
		res.Mismatch = &AspectMismatch{SourceRatio: src, TargetRatio: dst, Tolerance: p.tolerance}
	}

	return res, nil
}
