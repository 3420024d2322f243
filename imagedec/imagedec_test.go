package imagedec

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 200, A: 255})
		}
	}
	return img
}

func TestDecodeFormats(t *testing.T) {
	src := testImage(4, 3)

	tests := []struct {
		format string
		encode func(*bytes.Buffer) error
	}{
		{"png", func(b *bytes.Buffer) error { return png.Encode(b, src) }},
		{"bmp", func(b *bytes.Buffer) error { return bmp.Encode(b, src) }},
		{"tiff", func(b *bytes.Buffer) error { return tiff.Encode(b, src, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := tt.encode(&buf); err != nil {
				t.Fatalf("encode error = %v", err)
			}
			m, err := Decode(&buf)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if m.Format != tt.format {
				t.Errorf("Format = %q, want %q", m.Format, tt.format)
			}
			if m.Width != 4 || m.Height != 3 {
				t.Fatalf("size = %dx%d, want 4x3", m.Width, m.Height)
			}
			if len(m.Pix) != 4*3*4 {
				t.Fatalf("len(Pix) = %d, want %d", len(m.Pix), 4*3*4)
			}
			got := m.NRGBA().NRGBAAt(3, 2)
			if got != (color.NRGBA{R: 30, G: 20, B: 200, A: 255}) {
				t.Errorf("pixel (3,2) = %v", got)
			}
		})
	}
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("definitely not an image")))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode() error = %v, want ErrDecode", err)
	}
	if !errors.Is(err, image.ErrFormat) {
		t.Errorf("Decode() error = %v, want it to wrap image.ErrFormat", err)
	}
}

func TestDecodeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tex.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, testImage(8, 8)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	m, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile() error = %v", err)
	}
	if m.Width != 8 || m.BytesPerRow() != 32 {
		t.Errorf("Width = %d, BytesPerRow = %d", m.Width, m.BytesPerRow())
	}

	missing := filepath.Join(dir, "missing.png")
	_, err = DecodeFile(missing)
	var de *DecodeError
	if !errors.As(err, &de) || de.Path != missing {
		t.Errorf("DecodeFile(missing) error = %v, want DecodeError with path", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("DecodeFile(missing) error = %v, want os.ErrNotExist", err)
	}

	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("xx"), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err = DecodeFile(bad)
	if !errors.As(err, &de) || de.Path != bad {
		t.Errorf("DecodeFile(bad) error = %v, want DecodeError with path", err)
	}
}

func TestFit(t *testing.T) {
	m, err := FromImage(testImage(200, 100))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		limit int
		w, h  int
	}{
		{0, 200, 100},
		{256, 200, 100},
		{100, 100, 50},
		{1, 1, 1},
	}
	for _, tt := range tests {
		got := Fit(m, tt.limit)
		if got.Width != tt.w || got.Height != tt.h {
			t.Errorf("Fit(%d) = %dx%d, want %dx%d", tt.limit, got.Width, got.Height, tt.w, tt.h)
		}
		if len(got.Pix) != got.Width*got.Height*4 {
			t.Errorf("Fit(%d) Pix len = %d", tt.limit, len(got.Pix))
		}
	}

	tall, _ := FromImage(testImage(10, 40))
	if got := Fit(tall, 20); got.Width != 5 || got.Height != 20 {
		t.Errorf("Fit(tall) = %dx%d, want 5x20", got.Width, got.Height)
	}
}

func TestCheckerboard(t *testing.T) {
	white := color.NRGBA{255, 255, 255, 255}
	black := color.NRGBA{0, 0, 0, 255}
	m := Checkerboard(8, 2, white, black)

	img := m.NRGBA()
	tests := []struct {
		x, y int
		want color.NRGBA
	}{
		{0, 0, white},
		{1, 1, white},
		{2, 0, black},
		{0, 2, black},
		{2, 2, white},
		{7, 7, white},
	}
	for _, tt := range tests {
		if got := img.NRGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestFromImageEmpty(t *testing.T) {
	_, err := FromImage(image.NewNRGBA(image.Rect(0, 0, 0, 0)))
	if !errors.Is(err, ErrDecode) {
		t.Errorf("FromImage(empty) error = %v, want ErrDecode", err)
	}
}
