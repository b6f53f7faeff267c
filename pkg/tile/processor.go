package tile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"io"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// Format is an output image format.
type Format int

const (
	FormatJPEG Format = iota
	FormatPNG
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 95

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "jpg", "jpeg", "":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	}
	return 0, fmt.Errorf("unknown format: %s", s)
}

func (f Format) String() string {
	if f == FormatPNG {
		return "png"
	}
	return "jpeg"
}

// Ext returns the file extension for f, including the dot.
func (f Format) Ext() string {
	if f == FormatPNG {
		return ".png"
	}
	return ".jpg"
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}

// Filename returns the name of the index-th tile, e.g. tile_01.jpg.
func Filename(index int, f Format) string {
	return fmt.Sprintf("tile_%02d%s", index, f.Ext())
}

// Open decodes the image file at path, honouring EXIF orientation.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("can't open image %s: %w", path, err)
	}
	return img, nil
}

// Decode reads an image from r, honouring EXIF orientation.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("can't decode image: %w", err)
	}
	return img, nil
}

// Encode writes img to w in format f with dpi recorded as the resolution
// metadata. quality only applies to JPEG.
func Encode(w io.Writer, img image.Image, f Format, dpi float64, quality int) error {
	if quality <= 0 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	switch f {
	case FormatPNG:
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return err
		}
		data, err := setPNGDensity(buf.Bytes(), dpi)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return err
		}
		data, err := setJPEGDensity(buf.Bytes(), dpi)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	}
}

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	jpegSOI      = []byte{0xff, 0xd8}
)

// setJPEGDensity inserts (or replaces) the JFIF APP0 segment right after
// SOI with the given density in dots per inch.
func setJPEGDensity(data []byte, dpi float64) ([]byte, error) {
	if !bytes.HasPrefix(data, jpegSOI) {
		return nil, fmt.Errorf("not a JPEG stream")
	}
	d := clampUint16(dpi)

	app0 := make([]byte, 0, 18)
	app0 = append(app0, 0xff, 0xe0, 0x00, 0x10)
	app0 = append(app0, "JFIF\x00"...)
	app0 = append(app0, 0x01, 0x01) // version 1.01
	app0 = append(app0, 0x01)       // units: dots per inch
	app0 = binary.BigEndian.AppendUint16(app0, d)
	app0 = binary.BigEndian.AppendUint16(app0, d)
	app0 = append(app0, 0x00, 0x00) // no thumbnail

	rest := data[2:]
	if len(rest) >= 4 && rest[0] == 0xff && rest[1] == 0xe0 {
		n := int(binary.BigEndian.Uint16(rest[2:4]))
		if 2+n > len(rest) {
			return nil, fmt.Errorf("truncated APP0 segment")
		}
		rest = rest[2+n:]
	}

	out := make([]byte, 0, len(data)+len(app0))
	out = append(out, jpegSOI...)
	out = append(out, app0...)
	return append(out, rest...), nil
}

// setPNGDensity inserts a pHYs chunk after IHDR. PNG stores pixels per metre.
func setPNGDensity(data []byte, dpi float64) ([]byte, error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, fmt.Errorf("not a PNG stream")
	}
	// signature, then IHDR: length(4) type(4) data(13) crc(4)
	ihdrEnd := len(pngSignature) + 4 + 4 + 13 + 4
	if len(data) < ihdrEnd || string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("missing IHDR chunk")
	}

	ppm := uint32(math.Round(dpi / 0.0254))
	body := make([]byte, 0, 13)
	body = append(body, "pHYs"...)
	body = binary.BigEndian.AppendUint32(body, ppm)
	body = binary.BigEndian.AppendUint32(body, ppm)
	body = append(body, 0x01) // unit: metre

	chunk := binary.BigEndian.AppendUint32(nil, 9)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(body))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, data[ihdrEnd:]...), nil
}

func clampUint16(v float64) uint16 {
	v = math.Round(v)
	if v < 1 {
		return 1
	}
	if v > math.MaxUint16 {
		return math.MaxUint16
	}
	return uint16(v)
}
