package poster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kiesman99/postertile/pkg/tile"
)

var labelColor = color.Gray{Y: 0x80}

// drawLabel writes the tile number and grid position into the bottom
// border. Borders too thin for the glyphs get no label.
func drawLabel(dst draw.Image, g tile.Geometry, t tile.TilePlan) {
	face := basicfont.Face7x13
	m := face.Metrics()
	height := (m.Ascent + m.Descent).Ceil()
	if g.Border < height {
		return
	}

	b := dst.Bounds()
	baseline := b.Max.Y - g.Border + (g.Border-height)/2 + m.Ascent.Ceil()
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(labelColor),
		Face: face,
		Dot:  fixed.P(b.Min.X+g.Border, baseline),
	}
	d.DrawString(label(t))
}

func label(t tile.TilePlan) string {
	return fmt.Sprintf("%d (r%d c%d)", t.Index, t.Row+1, t.Col+1)
}
