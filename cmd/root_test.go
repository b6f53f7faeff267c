package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/kiesman99/postertile/internal/api"
	"github.com/kiesman99/postertile/pkg/tile"
)

func newViper(values map[string]interface{}) *viper.Viper {
	v := viper.New()
	v.SetDefault("dpi", tile.DefaultDPI)
	v.SetDefault("paper", tile.DefaultPaper)
	v.SetDefault("rows", tile.DefaultRows)
	v.SetDefault("cols", tile.DefaultCols)
	v.SetDefault("border", tile.DefaultBorder)
	v.SetDefault("corner-marks", true)
	v.SetDefault("overlap-marks", true)
	for k, val := range values {
		v.Set(k, val)
	}
	return v
}

func TestPosterOptions(t *testing.T) {
	tests := []struct {
		name          string
		values        map[string]interface{}
		width, height float64
		wantErr       string
	}{
		{"default letter", nil, 8.5, 11, ""},
		{"a4 preset", map[string]interface{}{"paper": "A4"}, 8.27, 11.69, ""},
		{"preset with width override", map[string]interface{}{"paper": "tabloid", "width": 10.0}, 10, 17, ""},
		{"custom", map[string]interface{}{"paper": "custom", "width": 24.0, "height": 36.0}, 24, 36, ""},
		{"custom missing height", map[string]interface{}{"paper": "custom", "width": 24.0}, 0, 0, "requires"},
		{"unknown paper", map[string]interface{}{"paper": "folio"}, 0, 0, "unknown paper"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts, err := posterOptions(newViper(tc.values))
			if tc.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
					t.Fatalf("posterOptions() error = %v, want %q", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("posterOptions() error = %v", err)
			}
			if opts.Spec.TileWidth != tc.width || opts.Spec.TileHeight != tc.height {
				t.Errorf("tile = %vx%v, want %vx%v", opts.Spec.TileWidth, opts.Spec.TileHeight, tc.width, tc.height)
			}
			if opts.Spec.Rows != tile.DefaultRows || opts.Spec.Cols != tile.DefaultCols || opts.Spec.DPI != tile.DefaultDPI {
				t.Errorf("unexpected grid %+v", opts.Spec)
			}
			if !opts.CornerMarks || !opts.OverlapMarks {
				t.Error("marks should be enabled by default")
			}
		})
	}
}

func TestPrintPlan(t *testing.T) {
	s := tile.Spec{DPI: 100, TileWidth: 0.8, TileHeight: 0.8, Rows: 2, Cols: 2, Border: 0.1, Overlap: 0.2}
	res, err := tile.Plan(140, 140, s)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printPlan(&buf, res); err != nil {
		t.Fatalf("printPlan() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"tile_01.jpg", "tile_04.jpg", "FILE", "140"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPlanJSON(t *testing.T) {
	s := tile.Spec{DPI: 100, TileWidth: 0.8, TileHeight: 0.8, Rows: 2, Cols: 2, Border: 0.1, Overlap: 0.2}
	res, err := tile.Plan(140, 140, s)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := printPlanJSON(&buf, res); err != nil {
		t.Fatalf("printPlanJSON() error = %v", err)
	}

	var got api.PlanResponse
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a plan response: %v", err)
	}
	if got.Geometry.TotalWidthPx != 140 || got.Geometry.CanvasWidth != 100 {
		t.Errorf("geometry = %+v", got.Geometry)
	}
	if len(got.Tiles) != 4 {
		t.Fatalf("got %d tiles, want 4", len(got.Tiles))
	}
	if want := (api.Rect{Left: 60, Upper: 0, Right: 140, Lower: 80}); got.Tiles[1].Crop != want {
		t.Errorf("tile 2 crop = %+v, want %+v", got.Tiles[1].Crop, want)
	}

	// Field names match the HTTP API, not the Go structs.
	for _, key := range []string{`"left"`, `"lower"`, `"tile_width_px"`, `"filename"`} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("output missing %s", key)
		}
	}
	if strings.Contains(buf.String(), `"Min"`) {
		t.Error("crop encoded as an image.Rectangle")
	}
}
