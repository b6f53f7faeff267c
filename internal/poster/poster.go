// Package poster turns a source image into a set of printable, bordered and
// marked tile canvases, and writes them as image files, a zip archive or a
// multi-page PDF.
package poster

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"runtime"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/kiesman99/postertile/internal/logging"
	"github.com/kiesman99/postertile/pkg/tile"
)

// Options contains all poster parameters.
type Options struct {
	Spec tile.Spec

	CornerMarks  bool
	OverlapMarks bool
	Labels       bool

	// AspectTolerance overrides tile.DefaultAspectTolerance when positive.
	AspectTolerance float64

	// Workers bounds the number of tiles composed concurrently.
	// Zero means runtime.GOMAXPROCS.
	Workers int
}

// DefaultOptions mirrors the defaults of the command line.
func DefaultOptions() *Options {
	p, _ := tile.LookupPaper(tile.DefaultPaper)
	return &Options{
		Spec: tile.Spec{
			DPI:        tile.DefaultDPI,
			TileWidth:  p.Width,
			TileHeight: p.Height,
			Rows:       tile.DefaultRows,
			Cols:       tile.DefaultCols,
			Border:     tile.DefaultBorder,
			Overlap:    tile.DefaultOverlap,
		},
		CornerMarks:  true,
		OverlapMarks: true,
	}
}

// Poster describes a finished build. The canvases themselves went to the
// Sink passed to Build.
type Poster struct {
	Geometry tile.Geometry
	Tiles    []tile.TilePlan
	DPI      float64
	Mismatch *tile.AspectMismatch
}

// Sink receives finished tile canvases one at a time, in row-major order.
// WriteTile is never called concurrently and page must not be retained
// after it returns.
type Sink interface {
	WriteTile(t tile.TilePlan, page *image.NRGBA) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(t tile.TilePlan, page *image.NRGBA) error

// WriteTile calls f(t, page).
func (f SinkFunc) WriteTile(t tile.TilePlan, page *image.NRGBA) error {
	return f(t, page)
}

// MultiSink hands every tile to each sink in turn.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(t tile.TilePlan, page *image.NRGBA) error {
		for _, s := range sinks {
			if err := s.WriteTile(t, page); err != nil {
				return err
			}
		}
		return nil
	})
}

// Builder composes tile canvases.
type Builder struct {
	marks *tile.MarkRenderer
}

// New creates a builder using the default mark renderer.
func New() *Builder {
	return &Builder{marks: tile.NewMarkRenderer()}
}

// NewWithRenderer creates a builder drawing marks with r.
func NewWithRenderer(r *tile.MarkRenderer) *Builder {
	return &Builder{marks: r}
}

// Plan validates opts against a source of the given size without touching
// any pixels.
func (b *Builder) Plan(width, height int, opts *Options) (*tile.Result, error) {
	var planOpts []tile.PlanOption
	if opts.AspectTolerance > 0 {
		planOpts = append(planOpts, tile.WithAspectTolerance(opts.AspectTolerance))
	}
	return tile.Plan(width, height, opts.Spec, planOpts...)
}

// Build scales src to the tiled area, composes every tile canvas and
// hands it to sink in row-major order. At most Workers canvases exist at
// any time. Geometry errors are returned before any image work starts.
func (b *Builder) Build(ctx context.Context, src image.Image, opts *Options, sink Sink) (*Poster, error) {
	log := logging.FromContext(ctx)

	bounds := src.Bounds()
	res, err := b.Plan(bounds.Dx(), bounds.Dy(), opts)
	if err != nil {
		return nil, err
	}
	if res.Mismatch != nil {
		log.Warn(res.Mismatch.Error())
	}

	g := res.Geometry
	log.Debug("Planned poster",
		"grid", fmt.Sprintf("%dx%d", g.Cols, g.Rows),
		"tile", fmt.Sprintf("%dx%d", g.TileWidth, g.TileHeight),
		"total", fmt.Sprintf("%dx%d", g.TotalWidth, g.TotalHeight),
		"overlap", g.Overlap,
		"border", g.Border)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scaled := scale(src, g.TotalWidth, g.TotalHeight)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Each tile gets its own slot so the sink sees row-major order whatever
	// the completion order. slots caps canvases composed but not yet written.
	ready := make([]chan *image.NRGBA, len(res.Tiles))
	for i := range ready {
		ready[i] = make(chan *image.NRGBA, 1)
	}
	slots := make(chan struct{}, workers)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for i, t := range res.Tiles {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			i, t := i, t
			eg.Go(func() error {
				ready[i] <- b.compose(scaled, g, t, opts)
				log.Debug("Composed tile", "index", t.Index, "row", t.Row, "col", t.Col, "crop", t.Crop)
				return nil
			})
		}
		return nil
	})
	eg.Go(func() error {
		for i, t := range res.Tiles {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case page := <-ready[i]:
				if err := sink.WriteTile(t, page); err != nil {
					return fmt.Errorf("tile %d: %w", t.Index, err)
				}
				<-slots
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &Poster{
		Geometry: g,
		Tiles:    res.Tiles,
		DPI:      opts.Spec.DPI,
		Mismatch: res.Mismatch,
	}, nil
}

// compose cuts one tile out of the scaled image and lays it on a white,
// bordered canvas with the requested marks.
func (b *Builder) compose(scaled *image.NRGBA, g tile.Geometry, t tile.TilePlan, opts *Options) *image.NRGBA {
	canvas := imaging.New(t.Canvas.X, t.Canvas.Y, color.White)
	canvas = imaging.Paste(canvas, imaging.Crop(scaled, t.Crop), t.Offset)

	if opts.CornerMarks {
		b.marks.RenderCorners(canvas, t.Row, t.Col)
	}
	if opts.OverlapMarks {
		b.marks.RenderOverlapMarks(canvas, g.Layout(t.Row, t.Col))
	}
	if opts.Labels {
		drawLabel(canvas, g, t)
	}
	return canvas
}

// scale stretches src to exactly width x height. A source that already has
// the target size is only copied, so its pixels survive unchanged.
func scale(src image.Image, width, height int) *image.NRGBA {
	b := src.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(src)
	}
	return imaging.Resize(src, width, height, imaging.Lanczos)
}
