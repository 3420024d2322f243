package backend

import (
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/graph"
	"github.com/gogpu/gpures/imagedec"
	"github.com/gogpu/gpures/internal/assets"
	"github.com/gogpu/gpures/resource"
	"github.com/gogpu/gpures/shader"
)

// Assets are the inputs of the triangle plan.
type Assets struct {
	Shaders       shader.Provider
	ShaderSource  string
	VertexEntry   string
	FragmentEntry string
	// Vertices are interleaved position xy and color rgba float32s.
	Vertices []float32
	// TexturePath is decoded for the texture step. When empty, or when
	// decoding fails, a checkerboard is used instead.
	TexturePath string
	// TextureLimit caps the texture size; 0 keeps the decoded size.
	TextureLimit int
}

// DefaultAssets returns the embedded triangle shader, compiled with naga,
// and the hardcoded triangle.
func DefaultAssets() Assets {
	return Assets{
		Shaders:       shader.NewNagaProvider(assets.Shaders),
		ShaderSource:  assets.TriangleShader,
		VertexEntry:   assets.VertexEntry,
		FragmentEntry: assets.FragmentEntry,
		Vertices:      assets.Triangle,
		TextureLimit:  1024,
	}
}

// TriangleLayout is the input layout of the triangle vertices.
var TriangleLayout = VertexLayout{
	Stride: assets.VertexStride,
	Attributes: []VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: 0, Location: 0},
		{Format: gputypes.VertexFormatFloat32x4, Offset: assets.ColorOffset, Location: 1},
	},
}

// TrianglePlan returns the acquisition plan of the textured triangle demo
// on b: device, context, swap chain and render target, shaders, input
// layout, vertex buffer, pipeline, then texture, sampler and view.
//
// The texture step falls back to a checkerboard, and the view over it is
// optional, so a missing image never aborts startup.
func TrianglePlan(b Backend, window uintptr, a Assets, opts ...graph.Option) *graph.Plan {
	dep := func(env graph.Env, k resource.Kind) (*resource.Handle, error) {
		return env.Deps.Get(k)
	}

	shaderStep := func(entry string, stage shader.Stage) graph.BuildFunc {
		return func(env graph.Env) (resource.Object, error) {
			bc, err := a.Shaders.Compile(a.ShaderSource, entry, stage)
			if err != nil {
				return nil, err
			}
			dev, err := dep(env, resource.Device)
			if err != nil {
				return nil, err
			}
			return b.CreateShader(dev, bc)
		}
	}

	texture := func(load func() (*imagedec.Image, error)) graph.BuildFunc {
		return func(env graph.Env) (resource.Object, error) {
			img, err := load()
			if err != nil {
				return nil, err
			}
			dev, err := dep(env, resource.Device)
			if err != nil {
				return nil, err
			}
			return b.CreateTexture2D(dev, imagedec.Fit(img, a.TextureLimit))
		}
	}
	decode := func() (*imagedec.Image, error) {
		if a.TexturePath == "" {
			return checkerboard(), nil
		}
		return imagedec.DecodeFile(a.TexturePath)
	}
	fallback := func() (*imagedec.Image, error) { return checkerboard(), nil }

	return graph.New([]graph.Step{
		{Kind: resource.Device, Build: func(graph.Env) (resource.Object, error) {
			return b.CreateDevice()
		}},
		{Kind: resource.ImmediateContext, Build: func(env graph.Env) (resource.Object, error) {
			dev, err := dep(env, resource.Device)
			if err != nil {
				return nil, err
			}
			return b.ImmediateContext(dev)
		}},
		{Kind: resource.SwapChain, Build: func(env graph.Env) (resource.Object, error) {
			dev, err := dep(env, resource.Device)
			if err != nil {
				return nil, err
			}
			return b.CreateSwapChain(dev, window, env.Extent.Width, env.Extent.Height)
		}},
		{Kind: resource.RenderTargetView, Build: func(env graph.Env) (resource.Object, error) {
			dev, err := dep(env, resource.Device)
			if err != nil {
				return nil, err
			}
			swap, err := dep(env, resource.SwapChain)
			if err != nil {
				return nil, err
			}
			return b.CreateRenderTargetView(dev, swap)
		}},
		{Kind: resource.VertexShader, Build: shaderStep(a.VertexEntry, shader.Vertex)},
		{Kind: resource.PixelShader, Build: shaderStep(a.FragmentEntry, shader.Fragment)},
		{Kind: resource.InputLayout, Build: func(env graph.Env) (resource.Object, error) {
			dev, err := dep(env, resource.Device)
			if err != nil {
				return nil, err
			}
			vs, err := dep(env, resource.VertexShader)
			if err != nil {
				return nil, err
			}
			return b.CreateInputLayout(dev, vs, TriangleLayout)
		}},
		{Kind: resource.VertexBuffer, Build: func(env graph.Env) (resource.Object, error) {
			dev, err := dep(env, resource.Device)
			if err != nil {
				return nil, err
			}
			return b.CreateBuffer(dev, BufferDesc{
				Label: "triangle",
				Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
				Data:  assets.VertexBytes(a.Vertices),
			})
		}},
		{Kind: resource.RenderPipeline, Build: func(env graph.Env) (resource.Object, error) {
			handles := make([]*resource.Handle, 0, 4)
			for _, k := range []resource.Kind{resource.Device, resource.VertexShader, resource.PixelShader, resource.InputLayout} {
				h, err := dep(env, k)
				if err != nil {
					return nil, err
				}
				handles = append(handles, h)
			}
			return b.CreateRenderPipeline(handles[0], handles[1], handles[2], handles[3])
		}},
		{
			Kind:     resource.Texture,
			Build:    texture(decode),
			Optional: true,
			Fallback: texture(fallback),
		},
		{Kind: resource.SamplerState, Build: func(env graph.Env) (resource.Object, error) {
			dev, err := dep(env, resource.Device)
			if err != nil {
				return nil, err
			}
			return b.CreateSampler(dev, DefaultSampler)
		}},
		{
			Kind:     resource.ShaderResourceView,
			Optional: true,
			Build: func(env graph.Env) (resource.Object, error) {
				dev, err := dep(env, resource.Device)
				if err != nil {
					return nil, err
				}
				tex, err := dep(env, resource.Texture)
				if err != nil {
					return nil, err
				}
				return b.CreateShaderResourceView(dev, tex)
			},
		},
	}, opts...)
}

func checkerboard() *imagedec.Image {
	return imagedec.Checkerboard(64, 8,
		color.NRGBA{R: 255, G: 255, B: 255, A: 255},
		color.NRGBA{R: 255, G: 0, B: 255, A: 255})
}
