package poster

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/klauspost/compress/zip"

	"github.com/kiesman99/postertile/pkg/tile"
)

// Output defaults.
const (
	DefaultOutputDir = "slices"
	DefaultPDFName   = "poster_tiles.pdf"
)

// FileSink saves every tile into a directory as tile_NN.<ext>. Files
// written before a failure are left in place.
type FileSink struct {
	dir     string
	format  tile.Format
	quality int
	dpi     float64

	// Paths lists the files written so far, in tile order.
	Paths []string
}

// NewFileSink creates dir if needed and returns a sink writing into it.
func NewFileSink(dir string, f tile.Format, quality int, dpi float64) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("can't create output directory: %w", err)
	}
	return &FileSink{dir: dir, format: f, quality: quality, dpi: dpi}, nil
}

// WriteTile implements Sink.
func (s *FileSink) WriteTile(t tile.TilePlan, page *image.NRGBA) error {
	path := filepath.Join(s.dir, tile.Filename(t.Index, s.format))
	if err := writeImage(path, page, s.format, s.dpi, s.quality); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	s.Paths = append(s.Paths, path)
	return nil
}

func writeImage(path string, img image.Image, f tile.Format, dpi float64, quality int) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); err == nil {
			err = cerr
		}
	}()
	return tile.Encode(file, img, f, dpi, quality)
}

// ZipSink writes tiles as image files into a zip archive. Close finishes
// the archive.
type ZipSink struct {
	zw      *zip.Writer
	format  tile.Format
	quality int
	dpi     float64
}

// NewZipSink returns a sink writing a zip archive to w.
func NewZipSink(w io.Writer, f tile.Format, quality int, dpi float64) *ZipSink {
	return &ZipSink{zw: zip.NewWriter(w), format: f, quality: quality, dpi: dpi}
}

// WriteTile implements Sink.
func (s *ZipSink) WriteTile(t tile.TilePlan, page *image.NRGBA) error {
	fw, err := s.zw.Create(tile.Filename(t.Index, s.format))
	if err != nil {
		return err
	}
	return tile.Encode(fw, page, s.format, s.dpi, s.quality)
}

// Close writes the zip central directory.
func (s *ZipSink) Close() error {
	return s.zw.Close()
}

// PDFSink collects one PDF page per tile, each sized to its canvas at the
// poster's resolution. Only the JPEG-encoded pages are kept.
type PDFSink struct {
	doc     *fpdf.Fpdf
	dpi     float64
	quality int
	pages   int
}

// NewPDFSink returns an empty document for tiles printed at dpi.
func NewPDFSink(dpi float64, quality int) *PDFSink {
	doc := fpdf.NewCustom(&fpdf.InitType{UnitStr: "in", SizeStr: "Letter"})
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	doc.SetCreator("postertile", true)
	return &PDFSink{doc: doc, dpi: dpi, quality: quality}
}

// WriteTile implements Sink.
func (s *PDFSink) WriteTile(t tile.TilePlan, page *image.NRGBA) error {
	var buf bytes.Buffer
	if err := tile.Encode(&buf, page, tile.FormatJPEG, s.dpi, s.quality); err != nil {
		return err
	}

	b := page.Bounds()
	size := fpdf.SizeType{
		Wd: float64(b.Dx()) / s.dpi,
		Ht: float64(b.Dy()) / s.dpi,
	}
	name := fmt.Sprintf("tile_%02d", t.Index)
	opts := fpdf.ImageOptions{ImageType: "JPG"}

	s.doc.AddPageFormat("P", size)
	s.doc.RegisterImageOptionsReader(name, opts, &buf)
	s.doc.ImageOptions(name, 0, 0, size.Wd, size.Ht, false, opts, 0, "")
	if s.doc.Err() {
		return s.doc.Error()
	}
	s.pages++
	return nil
}

// Pages returns the number of pages added so far.
func (s *PDFSink) Pages() int {
	return s.pages
}

// Output writes the finished document to w.
func (s *PDFSink) Output(w io.Writer) error {
	if s.pages == 0 {
		return fmt.Errorf("no pages to write")
	}
	return s.doc.Output(w)
}

// Save writes the document to path, creating its directory if needed.
func (s *PDFSink) Save(path string) (err error) {
	if s.pages == 0 {
		return fmt.Errorf("no pages to write")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("can't create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return s.Output(f)
}
