// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/backend"
	"github.com/gogpu/gpures/frame"
	"github.com/gogpu/gpures/resource"
)

const defaultTimeout = 5 * time.Second

// Backend is a backend.Backend on the gogpu/wgpu HAL.
type Backend struct {
	api      InstanceCreator
	provider any
	format   gputypes.TextureFormat
	capture  bool
	debug    bool
	timeout  time.Duration
	logger   *slog.Logger

	instance    hal.Instance
	initialized bool
}

var _ backend.Backend = (*Backend)(nil)

// init registers the HAL backend on package import.
func init() {
	backend.Register(backend.BackendWGPU, func() backend.Backend {
		return New()
	})
}

// New creates a HAL backend. Init must be called before use.
func New(opts ...Option) *Backend {
	b := &Backend{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend identifier.
func (b *Backend) Name() string {
	return backend.BackendWGPU
}

// Init creates the HAL instance. With a device provider no instance is
// created and the provider's device is used as is.
func (b *Backend) Init() error {
	if b.initialized {
		return nil
	}
	if b.provider != nil {
		b.initialized = true
		return nil
	}
	api := b.api
	if api == nil {
		vk, ok := hal.GetBackend(gputypes.BackendVulkan)
		if !ok {
			return ErrNoGPU
		}
		api = vk
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: b.instanceFlags()})
	if err != nil {
		return fmt.Errorf("wgpu: create instance: %w", err)
	}
	b.instance = instance
	b.initialized = true
	b.log().Info("wgpu: backend initialized", "debug", b.debug)
	return nil
}

func (b *Backend) instanceFlags() gputypes.InstanceFlags {
	if b.debug {
		return gputypes.InstanceFlagsDebug | gputypes.InstanceFlagsValidation
	}
	return gputypes.InstanceFlagsNone
}

// Close destroys the HAL instance. Devices must have been released.
func (b *Backend) Close() {
	if b.instance != nil {
		b.instance.Destroy()
		b.instance = nil
	}
	b.initialized = false
}

// SetLogger sets a logger for this backend instead of the package logger.
func (b *Backend) SetLogger(l *slog.Logger) {
	b.logger = l
}

func (b *Backend) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return gpures.Logger()
}

// NewRenderer returns a renderer that records one render pass per call.
func (b *Backend) NewRenderer() frame.Renderer {
	return &Renderer{}
}

// CreateDevice opens a device on the best adapter, preferring discrete
// and integrated GPUs, or borrows the provider's device.
func (b *Backend) CreateDevice() (resource.Object, error) {
	if !b.initialized {
		return nil, backend.ErrNotInitialized
	}
	if b.provider != nil {
		return b.borrowDevice()
	}

	adapters := b.instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}
	b.log().Info("wgpu: device opened", "adapter", selected.Info.Name)
	return &Device{
		device:  openDev.Device,
		queue:   openDev.Queue,
		format:  b.surfaceFormat(gputypes.TextureFormatUndefined),
		capture: b.capture,
		timeout: b.timeout,
		owned:   true,
	}, nil
}

// borrowDevice recovers HAL device and queue from the provider. The
// provider must implement HalDevice() any and HalQueue() any.
func (b *Backend) borrowDevice() (resource.Object, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := b.provider.(halProvider)
	if !ok {
		return nil, ErrProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrProvider)
	}

	hint := gputypes.TextureFormatUndefined
	if sf, ok := b.provider.(interface {
		SurfaceFormat() gputypes.TextureFormat
	}); ok {
		hint = sf.SurfaceFormat()
	}
	b.log().Debug("wgpu: using shared device")
	return &Device{
		device:  device,
		queue:   queue,
		format:  b.surfaceFormat(hint),
		capture: b.capture,
		timeout: b.timeout,
	}, nil
}

// surfaceFormat resolves the swap-chain format: explicit option, then the
// provider's hint, then BGRA8Unorm.
func (b *Backend) surfaceFormat(hint gputypes.TextureFormat) gputypes.TextureFormat {
	if b.format != gputypes.TextureFormatUndefined {
		return b.format
	}
	if hint != gputypes.TextureFormatUndefined {
		return hint
	}
	return gputypes.TextureFormatBGRA8Unorm
}

// ImmediateContext returns the device queue as a submission context.
func (b *Backend) ImmediateContext(h *resource.Handle) (resource.Object, error) {
	dev, err := device(h)
	if err != nil {
		return nil, err
	}
	return &Context{dev: dev}, nil
}
