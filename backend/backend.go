package backend

import (
	"errors"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/frame"
	"github.com/gogpu/gpures/imagedec"
	"github.com/gogpu/gpures/resource"
	"github.com/gogpu/gpures/shader"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrNotInitialized is returned when operations are called before Init.
	ErrNotInitialized = errors.New("backend: not initialized")

	// ErrInvalidExtent is returned for a zero-size swap chain or texture.
	ErrInvalidExtent = errors.New("backend: invalid extent")

	// ErrInvalidDescriptor is returned for an unusable creation descriptor.
	ErrInvalidDescriptor = errors.New("backend: invalid descriptor")

	// ErrReleased is returned when a native object is released twice.
	ErrReleased = errors.New("backend: object already released")
)

// Backend name constants.
const (
	// BackendSoftware is the name of the CPU backend.
	BackendSoftware = "software"
	// BackendWGPU is the name of the gogpu/wgpu HAL backend.
	BackendWGPU = "wgpu"
)

// Backend is the native graphics backend contract.
//
// Every Create method is a factory body for resource.Registry: it receives
// the live handles the new object depends on and returns the native object
// the registry will own. Backends recover their own concrete types from
// handles with resource.ObjectAs.
type Backend interface {
	// Name returns the backend identifier (e.g., "software", "wgpu").
	Name() string

	// Init prepares the backend. It must be called before any Create method.
	Init() error

	// Close releases backend-wide state. Objects created by the backend
	// must have been released through their registry first.
	Close()

	// CreateDevice opens the logical device.
	CreateDevice() (resource.Object, error)

	// ImmediateContext returns the submission context of device.
	ImmediateContext(device *resource.Handle) (resource.Object, error)

	// CreateSwapChain creates the back buffers for window at the given size.
	CreateSwapChain(device *resource.Handle, window uintptr, width, height uint32) (resource.Object, error)

	// CreateRenderTargetView creates a color target view of the current
	// back buffer of swap.
	CreateRenderTargetView(device, swap *resource.Handle) (resource.Object, error)

	// CreateBuffer creates a buffer and uploads desc.Data into it.
	CreateBuffer(device *resource.Handle, desc BufferDesc) (resource.Object, error)

	// CreateShader creates a shader module from compiled bytecode.
	CreateShader(device *resource.Handle, bc *shader.Bytecode) (resource.Object, error)

	// CreateInputLayout describes how vertex data feeds the vertex shader vs.
	CreateInputLayout(device, vs *resource.Handle, layout VertexLayout) (resource.Object, error)

	// CreateTexture2D creates a sampled RGBA8 texture and uploads img.
	CreateTexture2D(device *resource.Handle, img *imagedec.Image) (resource.Object, error)

	// CreateSampler creates a sampler state.
	CreateSampler(device *resource.Handle, desc SamplerDesc) (resource.Object, error)

	// CreateShaderResourceView creates a view binding texture to shaders.
	CreateShaderResourceView(device, texture *resource.Handle) (resource.Object, error)

	// CreateRenderPipeline binds the shaders and the input layout.
	CreateRenderPipeline(device, vs, ps, layout *resource.Handle) (resource.Object, error)

	// NewRenderer returns the per-frame command issuer of the backend.
	NewRenderer() frame.Renderer
}

// BufferDesc describes a buffer.
type BufferDesc struct {
	Label string
	// Size defaults to len(Data) when zero.
	Size  uint64
	Usage gputypes.BufferUsage
	// Data is uploaded at creation when non-empty.
	Data []byte
}

// VertexAttribute maps one vertex field to a shader input location.
type VertexAttribute struct {
	Format   gputypes.VertexFormat
	Offset   uint64
	Location uint32
}

// VertexLayout is the input layout of one interleaved vertex buffer.
type VertexLayout struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// Attribute returns the attribute bound to location.
func (l VertexLayout) Attribute(location uint32) (VertexAttribute, bool) {
	for _, a := range l.Attributes {
		if a.Location == location {
			return a, true
		}
	}
	return VertexAttribute{}, false
}

// SamplerDesc describes a sampler state.
type SamplerDesc struct {
	Label   string
	Filter  gputypes.FilterMode
	Address gputypes.AddressMode
}

// DefaultSampler is a linear, clamp-to-edge sampler.
var DefaultSampler = SamplerDesc{
	Label:   "default",
	Filter:  gputypes.FilterModeLinear,
	Address: gputypes.AddressModeClampToEdge,
}

// vertexFormatSize returns the byte size of the formats backends understand.
func vertexFormatSize(f gputypes.VertexFormat) uint64 {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 4
	case gputypes.VertexFormatFloat32x2:
		return 8
	case gputypes.VertexFormatFloat32x4:
		return 16
	default:
		return 0
	}
}

// Validate checks that every attribute has a known format and fits in the
// stride.
func (l VertexLayout) Validate() error {
	if l.Stride == 0 || len(l.Attributes) == 0 {
		return ErrInvalidDescriptor
	}
	for _, a := range l.Attributes {
		size := vertexFormatSize(a.Format)
		if size == 0 || a.Offset+size > l.Stride {
			return ErrInvalidDescriptor
		}
	}
	return nil
}
