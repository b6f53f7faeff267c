package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/postertile/internal/api"
	"github.com/kiesman99/postertile/internal/poster"
	"github.com/kiesman99/postertile/internal/source"
	"github.com/kiesman99/postertile/pkg/tile"
)

var planCmd = &cobra.Command{
	Use:   "plan [image]",
	Short: "Show the tile layout without writing any files",
	Long: `Print the pixel geometry and the crop rectangle of every tile.

The source size is taken from the image if one is given, otherwise from
--source-width and --source-height.

Examples:
  postertile plan photo.jpg --rows 3 --cols 3 --overlap 0.5
  postertile plan --source-width 4000 --source-height 3000 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().Int("source-width", 0, "source image width in pixels")
	planCmd.Flags().Int("source-height", 0, "source image height in pixels")
	planCmd.Flags().Bool("json", false, "print the plan as JSON")

	viper.BindPFlag("plan.source-width", planCmd.Flags().Lookup("source-width"))
	viper.BindPFlag("plan.source-height", planCmd.Flags().Lookup("source-height"))
	viper.BindPFlag("plan.json", planCmd.Flags().Lookup("json"))
}

func runPlan(cmd *cobra.Command, args []string) error {
	opts, err := posterOptions(viper.GetViper())
	if err != nil {
		return err
	}

	width := viper.GetInt("plan.source-width")
	height := viper.GetInt("plan.source-height")
	if len(args) == 1 {
		src, err := source.New(version).Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		width, height = src.Bounds().Dx(), src.Bounds().Dy()
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("either give an image or --source-width and --source-height")
	}

	res, err := poster.New().Plan(width, height, opts)
	if err != nil {
		return err
	}

	if viper.GetBool("plan.json") {
		return printPlanJSON(cmd.OutOrStdout(), res)
	}
	return printPlan(cmd.OutOrStdout(), res)
}

// printPlanJSON writes the plan in the same shape as GET /api/v1/plan.
func printPlanJSON(w io.Writer, res *tile.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewPlanResponse(res))
}

func printPlan(w io.Writer, res *tile.Result) error {
	g := res.Geometry
	cw, ch := g.CanvasSize()

	fmt.Fprintf(w, "Grid:    %d rows x %d cols (%d tiles)\n", g.Rows, g.Cols, len(res.Tiles))
	fmt.Fprintf(w, "Tile:    %dx%d px, overlap %d px, border %d px\n", g.TileWidth, g.TileHeight, g.Overlap, g.Border)
	fmt.Fprintf(w, "Canvas:  %dx%d px\n", cw, ch)
	fmt.Fprintf(w, "Scaled:  %dx%d px\n", g.TotalWidth, g.TotalHeight)
	if res.Mismatch != nil {
		fmt.Fprintf(w, "Warning: %s\n", res.Mismatch.Error())
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FILE", "ROW", "COL", "LEFT", "UPPER", "RIGHT", "LOWER")
	for _, p := range res.Tiles {
		t.Row(
			tile.Filename(p.Index, tile.FormatJPEG),
			strconv.Itoa(p.Row),
			strconv.Itoa(p.Col),
			strconv.Itoa(p.Crop.Min.X),
			strconv.Itoa(p.Crop.Min.Y),
			strconv.Itoa(p.Crop.Max.X),
			strconv.Itoa(p.Crop.Max.Y),
		)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
