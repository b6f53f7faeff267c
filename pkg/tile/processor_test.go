package tile

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"testing"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"jpeg", FormatJPEG, false},
		{"JPG", FormatJPEG, false},
		{"", FormatJPEG, false},
		{"png", FormatPNG, false},
		{"geotiff", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseFormat(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		index int
		f     Format
		want  string
	}{
		{1, FormatJPEG, "tile_01.jpg"},
		{9, FormatJPEG, "tile_09.jpg"},
		{12, FormatPNG, "tile_12.png"},
		{100, FormatJPEG, "tile_100.jpg"},
	}
	for _, tc := range tests {
		if got := Filename(tc.index, tc.f); got != tc.want {
			t.Errorf("Filename(%d, %v) = %q, want %q", tc.index, tc.f, got, tc.want)
		}
	}
}

func testImage() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 16), uint8(y * 32), 0x80, 0xff})
		}
	}
	return img
}

func TestEncodeJPEGDensity(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), FormatJPEG, 300, 90); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	data := buf.Bytes()

	if !bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff, 0xe0}) {
		t.Fatalf("missing APP0 after SOI: % x", data[:4])
	}
	if string(data[6:11]) != "JFIF\x00" {
		t.Fatalf("APP0 identifier = %q", data[6:11])
	}
	if data[13] != 1 {
		t.Errorf("density units = %d, want 1 (dpi)", data[13])
	}
	if x, y := binary.BigEndian.Uint16(data[14:16]), binary.BigEndian.Uint16(data[16:18]); x != 300 || y != 300 {
		t.Errorf("density = %dx%d, want 300x300", x, y)
	}

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if img.Bounds().Dx() != 16 || img.Bounds().Dy() != 8 {
		t.Errorf("decoded size = %v, want 16x8", img.Bounds())
	}
}

func TestSetJPEGDensityReplacesAPP0(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, testImage(), FormatJPEG, 150, 0); err != nil {
		t.Fatal(err)
	}
	data, err := setJPEGDensity(buf.Bytes(), 600)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != buf.Len() {
		t.Errorf("length changed from %d to %d, APP0 should be replaced", buf.Len(), len(data))
	}
	if got := binary.BigEndian.Uint16(data[14:16]); got != 600 {
		t.Errorf("density = %d, want 600", got)
	}
}

func TestEncodePNGDensity(t *testing.T) {
	src := testImage()
	var buf bytes.Buffer
	if err := Encode(&buf, src, FormatPNG, 254, 0); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	data := buf.Bytes()

	// pHYs follows the 33-byte signature+IHDR block.
	chunk := data[33:]
	if n := binary.BigEndian.Uint32(chunk[0:4]); n != 9 {
		t.Fatalf("pHYs length = %d, want 9", n)
	}
	if string(chunk[4:8]) != "pHYs" {
		t.Fatalf("chunk type = %q, want pHYs", chunk[4:8])
	}
	// 254 dpi is exactly 10000 pixels per metre.
	if ppm := binary.BigEndian.Uint32(chunk[8:12]); ppm != 10000 {
		t.Errorf("pixels per metre = %d, want 10000", ppm)
	}
	if chunk[16] != 1 {
		t.Errorf("unit = %d, want 1 (metre)", chunk[16])
	}

	img, err := Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode() error = %v (bad CRC?)", err)
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			r1, g1, b1, a1 := src.At(x, y).RGBA()
			r2, g2, b2, a2 := img.At(x, y).RGBA()
			if r1 != r2 || g1 != g2 || b1 != b2 || a1 != a2 {
				t.Fatalf("pixel (%d,%d) changed after PNG round trip", x, y)
			}
		}
	}
}

func TestSetDensityRejectsForeignData(t *testing.T) {
	if _, err := setJPEGDensity([]byte("GIF89a"), 300); err == nil {
		t.Error("setJPEGDensity accepted a GIF")
	}
	if _, err := setPNGDensity([]byte("\xff\xd8\xff"), 300); err == nil {
		t.Error("setPNGDensity accepted a JPEG")
	}
}
