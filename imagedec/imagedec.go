// Package imagedec decodes encoded image files into RGBA8 pixel buffers for
// texture upload.
//
// PNG, JPEG and GIF are decoded by the standard library; BMP, TIFF and WebP
// by golang.org/x/image.
package imagedec

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"io"
	"os"

	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // register BMP
	_ "golang.org/x/image/tiff" // register TIFF
	_ "golang.org/x/image/webp" // register WebP
)

// ErrDecode is matched by every *DecodeError.
var ErrDecode = errors.New("imagedec: decode failed")

// DecodeError reports an image that could not be decoded.
type DecodeError struct {
	// Path is the file name, empty for Decode.
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("imagedec: %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("imagedec: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches ErrDecode.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// Image is a tightly packed, non-premultiplied RGBA8 pixel buffer.
type Image struct {
	Pix    []byte
	Width  int
	Height int
	// Format is the name of the source encoding, such as "png".
	Format string
}

// BytesPerRow returns the row pitch of Pix.
func (m *Image) BytesPerRow() int { return m.Width * 4 }

// NRGBA returns an *image.NRGBA sharing Pix.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.BytesPerRow(),
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// Decode reads an encoded image from r.
func Decode(r io.Reader) (*Image, error) {
	src, format, err := image.Decode(r)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	m, err := FromImage(src)
	if err != nil {
		return nil, err
	}
	m.Format = format
	return m, nil
}

// DecodeFile decodes the image stored at path.
func DecodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	return m, nil
}

// FromImage converts any image.Image to a tightly packed Image.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, &DecodeError{Err: errors.New("empty image")}
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return &Image{Pix: dst.Pix, Width: b.Dx(), Height: b.Dy()}, nil
}

// Fit returns m scaled down with Catmull-Rom filtering so that neither
// dimension exceeds limit, keeping the aspect ratio. Images already within
// the limit are returned unchanged.
func Fit(m *Image, limit int) *Image {
	if limit <= 0 || (m.Width <= limit && m.Height <= limit) {
		return m
	}
	w, h := m.Width, m.Height
	if w >= h {
		h = max(1, h*limit/w)
		w = limit
	} else {
		w = max(1, w*limit/h)
		h = limit
	}

	src := m.NRGBA()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return &Image{Pix: dst.Pix, Width: w, Height: h, Format: m.Format}
}

// Checkerboard returns a size x size image of alternating cell x cell
// squares, used when a texture file cannot be loaded.
func Checkerboard(size, cell int, a, b color.NRGBA) *Image {
	if cell <= 0 {
		cell = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := a
			if (x/cell+y/cell)%2 == 1 {
				c = b
			}
			dst.SetNRGBA(x, y, c)
		}
	}
	return &Image{Pix: dst.Pix, Width: size, Height: size, Format: "checkerboard"}
}
