package backend

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/frame"
	"github.com/gogpu/gpures/imagedec"
	"github.com/gogpu/gpures/resource"
	"github.com/gogpu/gpures/shader"
)

// SoftwareBackend is a CPU backend. Swap chains are *image.RGBA back
// buffers; draws are rasterized on the CPU.
//
// It counts live native objects, so tests and the demo can check that a
// registry teardown released everything it created.
type SoftwareBackend struct {
	initialized bool
	live        int
	nextID      uint64
	faults      map[resource.Kind]error
	logger      *slog.Logger
}

// init registers the software backend on package import.
func init() {
	Register(BackendSoftware, func() Backend {
		return NewSoftwareBackend()
	})
}

// NewSoftwareBackend creates a new software backend.
func NewSoftwareBackend() *SoftwareBackend {
	return &SoftwareBackend{faults: make(map[resource.Kind]error)}
}

// Name returns the backend identifier.
func (b *SoftwareBackend) Name() string {
	return BackendSoftware
}

// Init initializes the backend.
func (b *SoftwareBackend) Init() error {
	b.initialized = true
	return nil
}

// Close marks the backend unusable. Objects still live are reported.
func (b *SoftwareBackend) Close() {
	if b.live > 0 {
		b.log().Warn("backend: software closed with live objects", "live", b.live)
	}
	b.initialized = false
}

// SetLogger sets a logger for this backend instead of the package logger.
func (b *SoftwareBackend) SetLogger(l *slog.Logger) {
	b.logger = l
}

// Live returns the number of native objects created and not yet released.
func (b *SoftwareBackend) Live() int {
	return b.live
}

// FailNext makes the next creation of kind fail with err, as a driver
// error would. It exercises rollback paths.
func (b *SoftwareBackend) FailNext(kind resource.Kind, err error) {
	b.faults[kind] = err
}

func (b *SoftwareBackend) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return gpures.Logger()
}

// begin checks backend state and pending faults before a creation.
func (b *SoftwareBackend) begin(kind resource.Kind) error {
	if !b.initialized {
		return ErrNotInitialized
	}
	if err, ok := b.faults[kind]; ok {
		delete(b.faults, kind)
		return err
	}
	return nil
}

// swObject is embedded in every software native object.
type swObject struct {
	owner    *SoftwareBackend
	id       uint64
	released bool
}

func (b *SoftwareBackend) track() swObject {
	b.live++
	b.nextID++
	return swObject{owner: b, id: b.nextID}
}

// Release drops the object from the live count.
func (o *swObject) Release() error {
	if o.released {
		return ErrReleased
	}
	o.released = true
	o.owner.live--
	return nil
}

type swDevice struct{ swObject }

type swContext struct {
	swObject
	device *swDevice
}

type swSwapChain struct {
	swObject
	window uintptr
	back   *image.RGBA
	front  *image.RGBA
	// presents counts Present calls on this swap chain.
	presents int
}

type swRenderTargetView struct {
	swObject
	swap *swSwapChain
}

type swBuffer struct {
	swObject
	desc BufferDesc
	data []byte
}

type swShader struct {
	swObject
	bc *shader.Bytecode
}

type swInputLayout struct {
	swObject
	layout VertexLayout
}

type swTexture struct {
	swObject
	img *imagedec.Image
}

type swSampler struct {
	swObject
	desc SamplerDesc
}

type swShaderResourceView struct {
	swObject
	tex *swTexture
}

type swPipeline struct {
	swObject
	vs, ps *swShader
	layout *swInputLayout
}

// CreateDevice opens the CPU device.
func (b *SoftwareBackend) CreateDevice() (resource.Object, error) {
	if err := b.begin(resource.Device); err != nil {
		return nil, err
	}
	return &swDevice{b.track()}, nil
}

// ImmediateContext returns the CPU submission context.
func (b *SoftwareBackend) ImmediateContext(device *resource.Handle) (resource.Object, error) {
	dev, err := resource.ObjectAs[*swDevice](device)
	if err != nil {
		return nil, err
	}
	if err := b.begin(resource.ImmediateContext); err != nil {
		return nil, err
	}
	return &swContext{swObject: b.track(), device: dev}, nil
}

// CreateSwapChain allocates a back buffer of width x height.
func (b *SoftwareBackend) CreateSwapChain(device *resource.Handle, window uintptr, width, height uint32) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	if err := b.begin(resource.SwapChain); err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidExtent, width, height)
	}
	rect := image.Rect(0, 0, int(width), int(height))
	return &swSwapChain{
		swObject: b.track(),
		window:   window,
		back:     image.NewRGBA(rect),
		front:    image.NewRGBA(rect),
	}, nil
}

// CreateRenderTargetView views the back buffer of swap.
func (b *SoftwareBackend) CreateRenderTargetView(device, swap *resource.Handle) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	sc, err := resource.ObjectAs[*swSwapChain](swap)
	if err != nil {
		return nil, err
	}
	if err := b.begin(resource.RenderTargetView); err != nil {
		return nil, err
	}
	return &swRenderTargetView{swObject: b.track(), swap: sc}, nil
}

// CreateBuffer copies desc.Data into a CPU buffer.
func (b *SoftwareBackend) CreateBuffer(device *resource.Handle, desc BufferDesc) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	if err := b.begin(resource.VertexBuffer); err != nil {
		return nil, err
	}
	size := desc.Size
	if size == 0 {
		size = uint64(len(desc.Data))
	}
	if size == 0 || uint64(len(desc.Data)) > size {
		return nil, fmt.Errorf("%w: buffer %q size %d, data %d", ErrInvalidDescriptor, desc.Label, size, len(desc.Data))
	}
	data := make([]byte, size)
	copy(data, desc.Data)
	return &swBuffer{swObject: b.track(), desc: desc, data: data}, nil
}

// CreateShader keeps the bytecode; the CPU rasterizer interpolates vertex
// colors instead of running it.
func (b *SoftwareBackend) CreateShader(device *resource.Handle, bc *shader.Bytecode) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	if bc == nil {
		return nil, fmt.Errorf("%w: nil bytecode", ErrInvalidDescriptor)
	}
	kind := resource.VertexShader
	if bc.Stage == shader.Fragment {
		kind = resource.PixelShader
	}
	if err := b.begin(kind); err != nil {
		return nil, err
	}
	return &swShader{swObject: b.track(), bc: bc}, nil
}

// CreateInputLayout validates layout against the vertex shader stage.
func (b *SoftwareBackend) CreateInputLayout(device, vs *resource.Handle, layout VertexLayout) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	sh, err := resource.ObjectAs[*swShader](vs)
	if err != nil {
		return nil, err
	}
	if sh.bc.Stage != shader.Vertex {
		return nil, fmt.Errorf("%w: input layout needs a vertex shader, got %s", ErrInvalidDescriptor, sh.bc.Stage)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if err := b.begin(resource.InputLayout); err != nil {
		return nil, err
	}
	return &swInputLayout{swObject: b.track(), layout: layout}, nil
}

// CreateTexture2D keeps img as the texture contents.
func (b *SoftwareBackend) CreateTexture2D(device *resource.Handle, img *imagedec.Image) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	if err := b.begin(resource.Texture); err != nil {
		return nil, err
	}
	if img == nil || img.Width == 0 || img.Height == 0 {
		return nil, ErrInvalidExtent
	}
	return &swTexture{swObject: b.track(), img: img}, nil
}

// CreateSampler records desc.
func (b *SoftwareBackend) CreateSampler(device *resource.Handle, desc SamplerDesc) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	if err := b.begin(resource.SamplerState); err != nil {
		return nil, err
	}
	return &swSampler{swObject: b.track(), desc: desc}, nil
}

// CreateShaderResourceView views texture.
func (b *SoftwareBackend) CreateShaderResourceView(device, texture *resource.Handle) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	tex, err := resource.ObjectAs[*swTexture](texture)
	if err != nil {
		return nil, err
	}
	if err := b.begin(resource.ShaderResourceView); err != nil {
		return nil, err
	}
	return &swShaderResourceView{swObject: b.track(), tex: tex}, nil
}

// CreateRenderPipeline links the shaders with the input layout.
func (b *SoftwareBackend) CreateRenderPipeline(device, vs, ps, layout *resource.Handle) (resource.Object, error) {
	if _, err := resource.ObjectAs[*swDevice](device); err != nil {
		return nil, err
	}
	v, err := resource.ObjectAs[*swShader](vs)
	if err != nil {
		return nil, err
	}
	p, err := resource.ObjectAs[*swShader](ps)
	if err != nil {
		return nil, err
	}
	il, err := resource.ObjectAs[*swInputLayout](layout)
	if err != nil {
		return nil, err
	}
	if err := b.begin(resource.RenderPipeline); err != nil {
		return nil, err
	}
	return &swPipeline{swObject: b.track(), vs: v, ps: p, layout: il}, nil
}

// NewRenderer returns a CPU renderer.
func (b *SoftwareBackend) NewRenderer() frame.Renderer {
	return &SoftwareRenderer{}
}

// FrontBuffer returns the last presented image of the swap chain held by
// h, or nil if h is not a software swap chain.
func FrontBuffer(h *resource.Handle) *image.RGBA {
	sc, err := resource.ObjectAs[*swSwapChain](h)
	if err != nil {
		return nil
	}
	return sc.front
}
