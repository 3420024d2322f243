package backend

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/gpures/frame"
	"github.com/gogpu/gpures/resource"
)

// SoftwareRenderer draws into software swap chains.
type SoftwareRenderer struct{}

var _ frame.Renderer = (*SoftwareRenderer)(nil)

// Clear fills the back buffer behind target with c.
func (r *SoftwareRenderer) Clear(target *resource.Handle, c gputypes.Color) error {
	rtv, err := resource.ObjectAs[*swRenderTargetView](target)
	if err != nil {
		return err
	}
	back := rtv.swap.back
	draw.Draw(back, back.Bounds(), image.NewUniform(toRGBA(c)), image.Point{}, draw.Src)
	return nil
}

// Draw rasterizes the triangle list in the default vertex buffer, using
// the pipeline's input layout, or the bare input layout when no pipeline
// is live.
func (r *SoftwareRenderer) Draw(target *resource.Handle, res resource.Resolver) error {
	rtv, err := resource.ObjectAs[*swRenderTargetView](target)
	if err != nil {
		return err
	}
	layout, err := inputLayout(res)
	if err != nil {
		return err
	}
	vbh, err := res.Get(resource.VertexBuffer)
	if err != nil {
		return fmt.Errorf("vertex buffer: %w", err)
	}
	vb, err := resource.ObjectAs[*swBuffer](vbh)
	if err != nil {
		return err
	}

	verts, err := decodeVertices(vb.data, layout)
	if err != nil {
		return err
	}
	back := rtv.swap.back
	for i := 0; i+2 < len(verts); i += 3 {
		fillTriangle(back, verts[i], verts[i+1], verts[i+2])
	}
	return nil
}

// Present copies the back buffer to the front buffer.
func (r *SoftwareRenderer) Present(swap *resource.Handle) error {
	sc, err := resource.ObjectAs[*swSwapChain](swap)
	if err != nil {
		return err
	}
	copy(sc.front.Pix, sc.back.Pix)
	sc.presents++
	return nil
}

func inputLayout(res resource.Resolver) (VertexLayout, error) {
	if h, err := res.Get(resource.RenderPipeline); err == nil {
		p, err := resource.ObjectAs[*swPipeline](h)
		if err != nil {
			return VertexLayout{}, err
		}
		return p.layout.layout, nil
	}
	h, err := res.Get(resource.InputLayout)
	if err != nil {
		return VertexLayout{}, fmt.Errorf("input layout: %w", err)
	}
	il, err := resource.ObjectAs[*swInputLayout](h)
	if err != nil {
		return VertexLayout{}, err
	}
	return il.layout, nil
}

// vertex is a decoded vertex: clip-space position and linear color.
type vertex struct {
	x, y       float32
	r, g, b, a float32
}

// decodeVertices reads position from location 0 and color from location 1.
// A missing color attribute draws white.
func decodeVertices(data []byte, l VertexLayout) ([]vertex, error) {
	pos, ok := l.Attribute(0)
	if !ok || pos.Format != gputypes.VertexFormatFloat32x2 {
		return nil, fmt.Errorf("%w: location 0 must be float32x2", ErrInvalidDescriptor)
	}
	col, hasColor := l.Attribute(1)
	if hasColor && col.Format != gputypes.VertexFormatFloat32x4 {
		return nil, fmt.Errorf("%w: location 1 must be float32x4", ErrInvalidDescriptor)
	}

	n := uint64(len(data)) / l.Stride
	out := make([]vertex, n)
	for i := range out {
		base := uint64(i) * l.Stride
		v := vertex{r: 1, g: 1, b: 1, a: 1}
		v.x = readFloat(data, base+pos.Offset)
		v.y = readFloat(data, base+pos.Offset+4)
		if hasColor {
			o := base + col.Offset
			v.r, v.g, v.b, v.a = readFloat(data, o), readFloat(data, o+4), readFloat(data, o+8), readFloat(data, o+12)
		}
		out[i] = v
	}
	return out, nil
}

func readFloat(data []byte, off uint64) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
}

// fillTriangle rasterizes a triangle with edge functions, sampling pixel
// centers and interpolating color barycentrically. Both windings are drawn.
func fillTriangle(dst *image.RGBA, v0, v1, v2 vertex) {
	w := float32(dst.Bounds().Dx())
	h := float32(dst.Bounds().Dy())
	toPixel := func(v vertex) (float32, float32) {
		return (v.x + 1) * 0.5 * w, (1 - v.y) * 0.5 * h
	}
	x0, y0 := toPixel(v0)
	x1, y1 := toPixel(v1)
	x2, y2 := toPixel(v2)

	area := edge(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		return
	}

	minX := max(0, int(floor32(min(x0, x1, x2))))
	maxX := min(int(w)-1, int(ceil32(max(x0, x1, x2))))
	minY := max(0, int(floor32(min(y0, y1, y2))))
	maxY := min(int(h)-1, int(ceil32(max(y0, y1, y2))))

	for py := minY; py <= maxY; py++ {
		for px := minX; px <= maxX; px++ {
			cx, cy := float32(px)+0.5, float32(py)+0.5
			w0 := edge(x1, y1, x2, y2, cx, cy) / area
			w1 := edge(x2, y2, x0, y0, cx, cy) / area
			w2 := edge(x0, y0, x1, y1, cx, cy) / area
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			dst.SetRGBA(px, py, rgba8(
				float64(w0*v0.r+w1*v1.r+w2*v2.r),
				float64(w0*v0.g+w1*v1.g+w2*v2.g),
				float64(w0*v0.b+w1*v1.b+w2*v2.b),
				float64(w0*v0.a+w1*v1.a+w2*v2.a),
			))
		}
	}
}

func edge(ax, ay, bx, by, cx, cy float32) float32 {
	return (bx-ax)*(cy-ay) - (by-ay)*(cx-ax)
}

func floor32(v float32) float32 { return float32(math.Floor(float64(v))) }
func ceil32(v float32) float32  { return float32(math.Ceil(float64(v))) }

// toRGBA converts a [0,1] color to premultiplied 8-bit RGBA.
func toRGBA(c gputypes.Color) color.RGBA {
	return rgba8(float64(c.R), float64(c.G), float64(c.B), float64(c.A))
}

func rgba8(r, g, b, a float64) color.RGBA {
	a = clamp01(a)
	return color.RGBA{
		R: uint8(clamp01(r)*a*255 + 0.5),
		G: uint8(clamp01(g)*a*255 + 0.5),
		B: uint8(clamp01(b)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	return min(1, max(0, v))
}
