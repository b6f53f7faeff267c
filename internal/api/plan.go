package api

import "github.com/kiesman99/postertile/pkg/tile"

// NewPlanResponse converts a tiling result to its wire form. Filenames use
// the default JPEG extension.
func NewPlanResponse(res *tile.Result) PlanResponse {
	g := res.Geometry
	cw, ch := g.CanvasSize()
	resp := PlanResponse{
		Geometry: Geometry{
			TileWidthPx:   g.TileWidth,
			TileHeightPx:  g.TileHeight,
			OverlapPx:     g.Overlap,
			BorderPx:      g.Border,
			StepX:         g.StepX,
			StepY:         g.StepY,
			TotalWidthPx:  g.TotalWidth,
			TotalHeightPx: g.TotalHeight,
			CanvasWidth:   cw,
			CanvasHeight:  ch,
		},
		Tiles: make([]TilePlan, len(res.Tiles)),
	}
	for i, t := range res.Tiles {
		resp.Tiles[i] = TilePlan{
			Index:    t.Index,
			Row:      t.Row,
			Col:      t.Col,
			Filename: tile.Filename(t.Index, tile.FormatJPEG),
			Crop: Rect{
				Left:  t.Crop.Min.X,
				Upper: t.Crop.Min.Y,
				Right: t.Crop.Max.X,
				Lower: t.Crop.Max.Y,
			},
			OffsetX: t.Offset.X,
			OffsetY: t.Offset.Y,
		}
	}
	if res.Mismatch != nil {
		msg := res.Mismatch.Error()
		resp.Warning = &msg
	}
	return resp
}
