package tile

import (
	"image"
	"math"
)

// Spec describes the physical layout of a poster: paper size, resolution,
// grid dimensions, border and overlap. Lengths are in inches.
type Spec struct {
	DPI        float64 `json:"dpi"`
	TileWidth  float64 `json:"tile_width_in"`
	TileHeight float64 `json:"tile_height_in"`
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	Border     float64 `json:"border_in"`
	Overlap    float64 `json:"overlap_in"`
}

// Geometry holds the pixel dimensions derived from a Spec.
type Geometry struct {
	TileWidth   int `json:"tile_width_px"`
	TileHeight  int `json:"tile_height_px"`
	Overlap     int `json:"overlap_px"`
	Border      int `json:"border_px"`
	StepX       int `json:"step_x"`
	StepY       int `json:"step_y"`
	TotalWidth  int `json:"total_width_px"`
	TotalHeight int `json:"total_height_px"`
	Rows        int `json:"rows"`
	Cols        int `json:"cols"`
}

// CanvasSize returns the size of a bordered tile canvas.
func (g Geometry) CanvasSize() (width, height int) {
	return g.TileWidth + 2*g.Border, g.TileHeight + 2*g.Border
}

// Index returns the 1-based sequential number of the tile at (row, col).
func (g Geometry) Index(row, col int) int {
	return row*g.Cols + col + 1
}

// TilePlan describes how a single tile is cut from the scaled source image and
// placed on its canvas.
type TilePlan struct {
	Row    int             `json:"row"`
	Col    int             `json:"col"`
	Index  int             `json:"index"`
	Crop   image.Rectangle `json:"crop"`
	Canvas image.Point     `json:"canvas"`
	Offset image.Point     `json:"offset"`
}

// Result is the outcome of planning a poster.
type Result struct {
	Geometry Geometry
	Tiles    []TilePlan

	// Mismatch is set when the source aspect ratio differs noticeably from
	// the tiled area. It is advisory; the image is stretched regardless.
	Mismatch *AspectMismatch
}

// Paper is a named paper size in inches.
type Paper struct {
	Name   string
	Width  float64
	Height float64
}

// Papers lists the built-in paper presets.
var Papers = []Paper{
	{Name: "letter", Width: 8.5, Height: 11},
	{Name: "legal", Width: 8.5, Height: 14},
	{Name: "tabloid", Width: 11, Height: 17},
	{Name: "a4", Width: 8.27, Height: 11.69},
}

// LookupPaper returns the preset with the given name.
func LookupPaper(name string) (Paper, bool) {
	for _, p := range Papers {
		if p.Name == name {
			return p, true
		}
	}
	return Paper{}, false
}

// Defaults used by the command line and the HTTP API.
const (
	DefaultDPI     = 300
	DefaultRows    = 2
	DefaultCols    = 4
	DefaultBorder  = 0.25
	DefaultOverlap = 0.0
	DefaultPaper   = "letter"
)

// toPixels converts inches to pixels, rounding half away from zero.
func toPixels(inches, dpi float64) int {
	return int(math.Round(inches * dpi))
}
