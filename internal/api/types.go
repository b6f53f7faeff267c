// Package api defines the HTTP contract of the postertile service: request
// parameters, response bodies and the chi wiring that binds query strings
// onto them.
package api

import "time"

// HealthResponseStatus is the service state reported by /health.
type HealthResponseStatus string

const (
	Healthy   HealthResponseStatus = "healthy"
	Unhealthy HealthResponseStatus = "unhealthy"
)

// PosterFormat selects the body returned by CreatePoster.
type PosterFormat string

const (
	Pdf PosterFormat = "pdf"
	Zip PosterFormat = "zip"
)

// Error codes.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidGeometry = "INVALID_GEOMETRY"
	CodeInvalidImage    = "INVALID_IMAGE"
	CodeInternal        = "INTERNAL_ERROR"
)

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status    HealthResponseStatus `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Uptime    *int                 `json:"uptime,omitempty"`
	Version   *string              `json:"version,omitempty"`
}

// ErrorResponse defines model for ErrorResponse.
type ErrorResponse struct {
	Error     string                  `json:"error"`
	Message   string                  `json:"message"`
	RequestId *string                 `json:"request_id,omitempty"`
	Details   *map[string]interface{} `json:"details,omitempty"`
}

// Rect is a pixel rectangle, right and lower edges exclusive.
type Rect struct {
	Left  int `json:"left"`
	Upper int `json:"upper"`
	Right int `json:"right"`
	Lower int `json:"lower"`
}

// Geometry defines model for Geometry.
type Geometry struct {
	TileWidthPx   int `json:"tile_width_px"`
	TileHeightPx  int `json:"tile_height_px"`
	OverlapPx     int `json:"overlap_px"`
	BorderPx      int `json:"border_px"`
	StepX         int `json:"step_x"`
	StepY         int `json:"step_y"`
	TotalWidthPx  int `json:"total_width_px"`
	TotalHeightPx int `json:"total_height_px"`
	CanvasWidth   int `json:"canvas_width_px"`
	CanvasHeight  int `json:"canvas_height_px"`
}

// TilePlan defines model for TilePlan.
type TilePlan struct {
	Index    int    `json:"index"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Filename string `json:"filename"`
	Crop     Rect   `json:"crop"`
	OffsetX  int    `json:"offset_x"`
	OffsetY  int    `json:"offset_y"`
}

// PlanResponse defines model for PlanResponse.
type PlanResponse struct {
	Geometry Geometry   `json:"geometry"`
	Tiles    []TilePlan `json:"tiles"`
	Warning  *string    `json:"warning,omitempty"`
}

// LayoutParams are the tiling parameters shared by every endpoint.
// Unset values fall back to the server defaults.
type LayoutParams struct {
	Dpi        *float64 `form:"dpi,omitempty" json:"dpi,omitempty"`
	Paper      *string  `form:"paper,omitempty" json:"paper,omitempty"`
	TileWidth  *float64 `form:"tile_width,omitempty" json:"tile_width,omitempty"`
	TileHeight *float64 `form:"tile_height,omitempty" json:"tile_height,omitempty"`
	Rows       *int     `form:"rows,omitempty" json:"rows,omitempty"`
	Cols       *int     `form:"cols,omitempty" json:"cols,omitempty"`
	Border     *float64 `form:"border,omitempty" json:"border,omitempty"`
	Overlap    *float64 `form:"overlap,omitempty" json:"overlap,omitempty"`
}

// GetPlanParams defines parameters for GetPlan.
type GetPlanParams struct {
	SourceWidth  int `form:"source_width" json:"source_width"`
	SourceHeight int `form:"source_height" json:"source_height"`
	LayoutParams
}

// CreatePosterParams defines parameters for CreatePoster.
type CreatePosterParams struct {
	LayoutParams
	Format       *PosterFormat `form:"format,omitempty" json:"format,omitempty"`
	CornerMarks  *bool         `form:"corner_marks,omitempty" json:"corner_marks,omitempty"`
	OverlapMarks *bool         `form:"overlap_marks,omitempty" json:"overlap_marks,omitempty"`
	Labels       *bool         `form:"labels,omitempty" json:"labels,omitempty"`
	Quality      *int          `form:"quality,omitempty" json:"quality,omitempty"`
}
