// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures/backend"
	"github.com/gogpu/gpures/imagedec"
	"github.com/gogpu/gpures/resource"
	"github.com/gogpu/gpures/shader"
)

// Device is an open HAL device and its queue.
type Device struct {
	device  hal.Device
	queue   hal.Queue
	format  gputypes.TextureFormat
	capture bool
	timeout time.Duration
	// owned is false for devices borrowed from a provider.
	owned    bool
	released bool
}

// HalDevice returns the underlying hal.Device.
func (d *Device) HalDevice() any { return d.device }

// HalQueue returns the underlying hal.Queue.
func (d *Device) HalQueue() any { return d.queue }

// Format returns the swap-chain color format.
func (d *Device) Format() gputypes.TextureFormat { return d.format }

// Release destroys the device unless it is borrowed.
func (d *Device) Release() error {
	if d.released {
		return backend.ErrReleased
	}
	d.released = true
	if d.owned {
		d.device.Destroy()
	}
	return nil
}

// Context is the immediate submission context. It owns no HAL object.
type Context struct {
	dev      *Device
	released bool
}

// Release invalidates the context.
func (c *Context) Release() error {
	if c.released {
		return backend.ErrReleased
	}
	c.released = true
	return nil
}

// SwapChain is an offscreen color texture standing in for a window
// surface.
type SwapChain struct {
	dev     *Device
	window  uintptr
	texture hal.Texture
	width   uint32
	height  uint32
	// frame receives the presented image when capture is enabled.
	frame    *image.RGBA
	presents int
	released bool
}

// Size returns the swap-chain extent.
func (s *SwapChain) Size() (width, height uint32) { return s.width, s.height }

// Frame returns the last presented frame, or nil without capture.
func (s *SwapChain) Frame() *image.RGBA { return s.frame }

// Presents returns how many frames were presented.
func (s *SwapChain) Presents() int { return s.presents }

// Release destroys the back-buffer texture.
func (s *SwapChain) Release() error {
	if s.released {
		return backend.ErrReleased
	}
	s.released = true
	s.dev.device.DestroyTexture(s.texture)
	return nil
}

// Capture returns the last frame presented to the swap chain behind h.
// It is nil when the backend was created without WithCapture.
func Capture(h *resource.Handle) *image.RGBA {
	sc, err := resource.ObjectAs[*SwapChain](h)
	if err != nil {
		return nil
	}
	return sc.frame
}

// RenderTargetView is a color attachment view of a swap chain.
type RenderTargetView struct {
	swap     *SwapChain
	view     hal.TextureView
	released bool
}

// Release destroys the view.
func (v *RenderTargetView) Release() error {
	if v.released {
		return backend.ErrReleased
	}
	v.released = true
	v.swap.dev.device.DestroyTextureView(v.view)
	return nil
}

// Buffer is a GPU buffer.
type Buffer struct {
	dev      *Device
	buffer   hal.Buffer
	size     uint64
	released bool
}

// Size returns the byte size requested at creation.
func (b *Buffer) Size() uint64 { return b.size }

// Release destroys the buffer.
func (b *Buffer) Release() error {
	if b.released {
		return backend.ErrReleased
	}
	b.released = true
	b.dev.device.DestroyBuffer(b.buffer)
	return nil
}

// Shader is a shader module with one entry point.
type Shader struct {
	dev      *Device
	module   hal.ShaderModule
	stage    shader.Stage
	entry    string
	released bool
}

// Release destroys the shader module.
func (s *Shader) Release() error {
	if s.released {
		return backend.ErrReleased
	}
	s.released = true
	s.dev.device.DestroyShaderModule(s.module)
	return nil
}

// InputLayout is the vertex buffer layout of a vertex shader. WebGPU has
// no standalone input-layout object; it is consumed by the pipeline.
type InputLayout struct {
	layout   backend.VertexLayout
	buffers  []gputypes.VertexBufferLayout
	released bool
}

// Release invalidates the layout.
func (l *InputLayout) Release() error {
	if l.released {
		return backend.ErrReleased
	}
	l.released = true
	return nil
}

// Texture is a sampled RGBA8 texture.
type Texture struct {
	dev      *Device
	texture  hal.Texture
	width    uint32
	height   uint32
	released bool
}

// Release destroys the texture.
func (t *Texture) Release() error {
	if t.released {
		return backend.ErrReleased
	}
	t.released = true
	t.dev.device.DestroyTexture(t.texture)
	return nil
}

// Sampler is a sampler state.
type Sampler struct {
	dev      *Device
	sampler  hal.Sampler
	released bool
}

// Release destroys the sampler.
func (s *Sampler) Release() error {
	if s.released {
		return backend.ErrReleased
	}
	s.released = true
	s.dev.device.DestroySampler(s.sampler)
	return nil
}

// ShaderResourceView is a sampled view of a texture.
type ShaderResourceView struct {
	tex      *Texture
	view     hal.TextureView
	released bool
}

// Release destroys the view.
func (v *ShaderResourceView) Release() error {
	if v.released {
		return backend.ErrReleased
	}
	v.released = true
	v.tex.dev.device.DestroyTextureView(v.view)
	return nil
}

// Pipeline is a render pipeline and its layout.
type Pipeline struct {
	dev      *Device
	pipeline hal.RenderPipeline
	layout   hal.PipelineLayout
	stride   uint64
	released bool
}

// Release destroys the pipeline, then its layout.
func (p *Pipeline) Release() error {
	if p.released {
		return backend.ErrReleased
	}
	p.released = true
	p.dev.device.DestroyRenderPipeline(p.pipeline)
	p.dev.device.DestroyPipelineLayout(p.layout)
	return nil
}

// device recovers a live *Device from h.
func device(h *resource.Handle) (*Device, error) {
	dev, err := resource.ObjectAs[*Device](h)
	if err != nil {
		return nil, err
	}
	if dev.released {
		return nil, backend.ErrReleased
	}
	return dev, nil
}

// CreateSwapChain creates an offscreen back buffer of width x height.
func (b *Backend) CreateSwapChain(h *resource.Handle, window uintptr, width, height uint32) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", backend.ErrInvalidExtent, width, height)
	}
	tex, err := dev.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "swapchain_back_buffer",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        dev.format,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create swap chain: %w", err)
	}
	sc := &SwapChain{dev: dev, window: window, texture: tex, width: width, height: height}
	if dev.capture {
		sc.frame = image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	}
	b.log().Debug("wgpu: swap chain created", "width", width, "height", height, "format", dev.format)
	return sc, nil
}

// CreateRenderTargetView creates a color attachment view of swap.
func (b *Backend) CreateRenderTargetView(h, swap *resource.Handle) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	sc, err := resource.ObjectAs[*SwapChain](swap)
	if err != nil {
		return nil, err
	}
	view, err := dev.device.CreateTextureView(sc.texture, &hal.TextureViewDescriptor{
		Label:         "swapchain_rtv",
		Format:        dev.format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create render target view: %w", err)
	}
	return &RenderTargetView{swap: sc, view: view}, nil
}

// CreateBuffer creates a buffer and writes desc.Data through the queue.
// The size is rounded up to a multiple of 4.
func (b *Backend) CreateBuffer(h *resource.Handle, desc backend.BufferDesc) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	size := desc.Size
	if size == 0 {
		size = uint64(len(desc.Data))
	}
	if size == 0 || uint64(len(desc.Data)) > size {
		return nil, fmt.Errorf("%w: buffer %q size %d data %d", backend.ErrInvalidDescriptor, desc.Label, size, len(desc.Data))
	}
	usage := desc.Usage
	if len(desc.Data) > 0 {
		usage |= gputypes.BufferUsageCopyDst
	}
	buf, err := dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  (size + 3) &^ 3,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Data) > 0 {
		data := desc.Data
		if pad := len(data) % 4; pad != 0 {
			data = append(append([]byte(nil), data...), make([]byte, 4-pad)...)
		}
		if err := dev.queue.WriteBuffer(buf, 0, data); err != nil {
			dev.device.DestroyBuffer(buf)
			return nil, fmt.Errorf("wgpu: upload buffer %q: %w", desc.Label, err)
		}
	}
	return &Buffer{dev: dev, buffer: buf, size: size}, nil
}

// CreateShader creates a shader module from SPIR-V, or from WGSL when the
// bytecode carries no SPIR-V.
func (b *Backend) CreateShader(h *resource.Handle, bc *shader.Bytecode) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	if bc == nil || (len(bc.SPIRV) == 0 && bc.Source == "") {
		return nil, fmt.Errorf("%w: empty shader", backend.ErrInvalidDescriptor)
	}
	src := hal.ShaderSource{SPIRV: bc.SPIRV}
	if len(bc.SPIRV) == 0 {
		src = hal.ShaderSource{WGSL: bc.Source}
	}
	module, err := dev.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  bc.Label,
		Source: src,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader %s %s: %w", bc.Label, bc.EntryPoint, err)
	}
	return &Shader{dev: dev, module: module, stage: bc.Stage, entry: bc.EntryPoint}, nil
}

// CreateInputLayout converts layout to a WebGPU vertex buffer layout.
func (b *Backend) CreateInputLayout(h, vs *resource.Handle, layout backend.VertexLayout) (resource.Object, error) {
	if _, err := device(h); err != nil {
		return nil, err
	}
	s, err := resource.ObjectAs[*Shader](vs)
	if err != nil {
		return nil, err
	}
	if s.stage != shader.Vertex {
		return nil, fmt.Errorf("%w: input layout needs a vertex shader, got %s", backend.ErrInvalidDescriptor, s.stage)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	attrs := make([]gputypes.VertexAttribute, 0, len(layout.Attributes))
	for _, a := range layout.Attributes {
		attrs = append(attrs, gputypes.VertexAttribute{
			Format:         a.Format,
			Offset:         a.Offset,
			ShaderLocation: a.Location,
		})
	}
	return &InputLayout{
		layout: layout,
		buffers: []gputypes.VertexBufferLayout{{
			ArrayStride: layout.Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		}},
	}, nil
}

// CreateTexture2D creates an RGBA8 texture and uploads img.
func (b *Backend) CreateTexture2D(h *resource.Handle, img *imagedec.Image) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return nil, backend.ErrInvalidExtent
	}
	w, ht := uint32(img.Width), uint32(img.Height)
	size := hal.Extent3D{Width: w, Height: ht, DepthOrArrayLayers: 1}
	tex, err := dev.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "texture_" + img.Format,
		Size:          size,
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage:         gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create texture: %w", err)
	}
	err = dev.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		img.Pix,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(img.BytesPerRow()), RowsPerImage: ht},
		&size,
	)
	if err != nil {
		dev.device.DestroyTexture(tex)
		return nil, fmt.Errorf("wgpu: upload texture: %w", err)
	}
	return &Texture{dev: dev, texture: tex, width: w, height: ht}, nil
}

// CreateSampler creates a sampler state.
func (b *Backend) CreateSampler(h *resource.Handle, desc backend.SamplerDesc) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	s, err := dev.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: desc.Address,
		AddressModeV: desc.Address,
		AddressModeW: desc.Address,
		MagFilter:    desc.Filter,
		MinFilter:    desc.Filter,
		MipmapFilter: desc.Filter,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create sampler: %w", err)
	}
	return &Sampler{dev: dev, sampler: s}, nil
}

// CreateShaderResourceView creates a sampled view of texture.
func (b *Backend) CreateShaderResourceView(h, texture *resource.Handle) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	tex, err := resource.ObjectAs[*Texture](texture)
	if err != nil {
		return nil, err
	}
	view, err := dev.device.CreateTextureView(tex.texture, &hal.TextureViewDescriptor{
		Label:         "texture_srv",
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader resource view: %w", err)
	}
	return &ShaderResourceView{tex: tex, view: view}, nil
}

// CreateRenderPipeline creates a triangle-list pipeline writing the
// swap-chain format.
func (b *Backend) CreateRenderPipeline(h, vs, ps, layout *resource.Handle) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	v, err := resource.ObjectAs[*Shader](vs)
	if err != nil {
		return nil, err
	}
	f, err := resource.ObjectAs[*Shader](ps)
	if err != nil {
		return nil, err
	}
	il, err := resource.ObjectAs[*InputLayout](layout)
	if err != nil {
		return nil, err
	}

	pipeLayout, err := dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "triangle_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}
	pipeline, err := dev.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "triangle_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     v.module,
			EntryPoint: v.entry,
			Buffers:    il.buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     f.module,
			EntryPoint: f.entry,
			Targets: []gputypes.ColorTargetState{{
				Format:    dev.format,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		dev.device.DestroyPipelineLayout(pipeLayout)
		return nil, fmt.Errorf("wgpu: create render pipeline: %w", err)
	}
	return &Pipeline{dev: dev, pipeline: pipeline, layout: pipeLayout, stride: il.layout.Stride}, nil
}
