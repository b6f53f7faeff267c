package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/postertile/internal/logging"
	"github.com/kiesman99/postertile/internal/poster"
	"github.com/kiesman99/postertile/internal/source"
	"github.com/kiesman99/postertile/pkg/tile"
)

// version is set at build time with -ldflags "-X ...cmd.version=...".
var version = "dev"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "postertile [image]",
	Short: "Split an image into printable poster tiles with alignment marks",
	Long: `postertile scales an image to a grid of paper-sized tiles, adds a border
and alignment marks to every tile, and writes them as numbered image files
(tile_01.jpg, tile_02.jpg, ...) ready for printing. Optionally all tiles are
bundled into a single multi-page PDF.

Corner marks are black crosses that grow with the distance from the first
tile; overlap marks are red crosses at the centre of the band shared with
the neighbouring tile.

Examples:
  # 2x4 letter-sized tiles at 300 dpi into ./slices
  postertile photo.jpg

  # 3x3 A4 tiles with half an inch of overlap, plus a PDF
  postertile photo.jpg --paper a4 --rows 3 --cols 3 --overlap 0.5 --pdf

  # Custom 10x10 inch tiles at 150 dpi as PNG
  postertile photo.png --paper custom --width 10 --height 10 --dpi 150 -f png

  # Fetch the source image over HTTP
  postertile https://example.com/map.png --rows 4 --cols 4

  # Show the layout without writing anything
  postertile plan photo.jpg --rows 3 --cols 2

  # Start HTTP server
  postertile serve --port 8080`,
	Version:      version,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := log.InfoLevel
		if viper.GetBool("verbose") {
			level = log.DebugLevel
		}
		cmd.SetContext(logging.WithLogger(cmd.Context(), logging.New(os.Stderr, level)))
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runTiles(cmd, args[0])
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.postertile.yaml)")
	pf.BoolP("verbose", "v", false, "enable debug logging")

	// Layout options, shared with plan and serve
	pf.Float64("dpi", tile.DefaultDPI, "print resolution in dots per inch")
	pf.String("paper", tile.DefaultPaper, "paper size ("+paperNames()+"|custom)")
	pf.Float64("width", 0, "tile width in inches (custom paper)")
	pf.Float64("height", 0, "tile height in inches (custom paper)")
	pf.Int("rows", tile.DefaultRows, "number of tile rows")
	pf.Int("cols", tile.DefaultCols, "number of tile columns")
	pf.Float64("border", tile.DefaultBorder, "blank border around each tile in inches")
	pf.Float64("overlap", tile.DefaultOverlap, "overlap between neighbouring tiles in inches")
	pf.Float64("aspect-tolerance", tile.DefaultAspectTolerance, "aspect ratio difference that triggers a stretch warning")

	// Marks
	pf.Bool("corner-marks", true, "draw corner alignment crosses")
	pf.Bool("overlap-marks", true, "draw crosses in the overlap bands")
	pf.Bool("labels", false, "print the tile number in the bottom border")

	// Output options
	f := rootCmd.Flags()
	f.StringP("output-dir", "o", poster.DefaultOutputDir, "output directory")
	f.StringP("format", "f", "jpeg", "tile image format (jpeg|png)")
	f.Int("quality", tile.DefaultQuality, "JPEG quality (1-100)")
	f.Bool("pdf", false, "also write all tiles into one PDF")
	f.String("pdf-name", poster.DefaultPDFName, "PDF file name inside the output directory")
	f.Int("workers", 0, "tiles composed in parallel (0 = number of CPUs)")

	for _, name := range []string{
		"verbose", "dpi", "paper", "width", "height", "rows", "cols", "border", "overlap",
		"aspect-tolerance", "corner-marks", "overlap-marks", "labels",
	} {
		viper.BindPFlag(name, pf.Lookup(name))
	}
	for _, name := range []string{"output-dir", "format", "quality", "pdf", "pdf-name", "workers"} {
		viper.BindPFlag(name, f.Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".postertile" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".postertile")
	}

	viper.SetEnvPrefix("postertile")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func paperNames() string {
	names := make([]string, len(tile.Papers))
	for i, p := range tile.Papers {
		names[i] = p.Name
	}
	return strings.Join(names, "|")
}

// posterOptions assembles poster options from flags, config and environment.
func posterOptions(v *viper.Viper) (*poster.Options, error) {
	spec := tile.Spec{
		DPI:     v.GetFloat64("dpi"),
		Rows:    v.GetInt("rows"),
		Cols:    v.GetInt("cols"),
		Border:  v.GetFloat64("border"),
		Overlap: v.GetFloat64("overlap"),
	}

	paper := strings.ToLower(v.GetString("paper"))
	width, height := v.GetFloat64("width"), v.GetFloat64("height")
	if paper == "custom" {
		if width <= 0 || height <= 0 {
			return nil, fmt.Errorf("custom paper requires --width and --height")
		}
	} else {
		p, ok := tile.LookupPaper(paper)
		if !ok {
			return nil, fmt.Errorf("unknown paper size: %s", paper)
		}
		if width <= 0 {
			width = p.Width
		}
		if height <= 0 {
			height = p.Height
		}
	}
	spec.TileWidth, spec.TileHeight = width, height

	return &poster.Options{
		Spec:            spec,
		CornerMarks:     v.GetBool("corner-marks"),
		OverlapMarks:    v.GetBool("overlap-marks"),
		Labels:          v.GetBool("labels"),
		AspectTolerance: v.GetFloat64("aspect-tolerance"),
		Workers:         v.GetInt("workers"),
	}, nil
}

func runTiles(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()
	logger := logging.FromContext(ctx)

	opts, err := posterOptions(viper.GetViper())
	if err != nil {
		return err
	}
	format, err := tile.ParseFormat(viper.GetString("format"))
	if err != nil {
		return err
	}
	quality := viper.GetInt("quality")
	if quality < 1 || quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", quality)
	}

	// Reject bad geometry before touching any file.
	if _, err := opts.Spec.Geometry(); err != nil {
		return err
	}

	src, err := source.New(version).Load(ctx, path)
	if err != nil {
		return err
	}
	b := src.Bounds()
	logger.Info("Loaded image", "path", path, "size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()))

	dir := viper.GetString("output-dir")
	files, err := poster.NewFileSink(dir, format, quality, opts.Spec.DPI)
	if err != nil {
		return err
	}
	var sink poster.Sink = files
	var pdf *poster.PDFSink
	if viper.GetBool("pdf") {
		pdf = poster.NewPDFSink(opts.Spec.DPI, quality)
		sink = poster.MultiSink(files, pdf)
	}

	if _, err := poster.New().Build(ctx, src, opts, sink); err != nil {
		return err
	}
	for _, written := range files.Paths {
		logger.Debug("Wrote tile", "path", written)
	}

	if pdf != nil {
		pdfPath := filepath.Join(dir, viper.GetString("pdf-name"))
		if err := pdf.Save(pdfPath); err != nil {
			return fmt.Errorf("failed to write PDF: %w", err)
		}
		logger.Info("Wrote PDF", "path", pdfPath, "pages", pdf.Pages())
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tiles to '%s'\n", len(files.Paths), dir)
	return nil
}
