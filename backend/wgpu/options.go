// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"log/slog"
	"time"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// InstanceCreator creates HAL instances. hal.Backend values returned by
// hal.GetBackend and the noop API satisfy it.
type InstanceCreator interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// Option configures a Backend.
type Option func(*Backend)

// WithAPI selects the HAL API instead of the registered Vulkan backend.
//
// Example:
//
//	b := wgpu.New(wgpu.WithAPI(&noop.API{}))
func WithAPI(api InstanceCreator) Option {
	return func(b *Backend) {
		b.api = api
	}
}

// WithDeviceProvider borrows the device and queue of a host application.
// The provider must also implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. A borrowed device is never destroyed
// by the backend.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(b *Backend) {
		b.provider = p
	}
}

// WithSurfaceFormat sets the swap-chain color format. Without it the
// provider's surface format is used, or BGRA8Unorm.
func WithSurfaceFormat(f gputypes.TextureFormat) Option {
	return func(b *Backend) {
		b.format = f
	}
}

// WithCapture makes Present read every frame back into the swap chain's
// Frame image.
func WithCapture(enabled bool) Option {
	return func(b *Backend) {
		b.capture = enabled
	}
}

// WithDebug enables the API debug and validation layers on the instance.
// It has no effect with a device provider.
func WithDebug(enabled bool) Option {
	return func(b *Backend) {
		b.debug = enabled
	}
}

// WithTimeout sets how long a submission may take. The default is 5s.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) {
		b.timeout = d
	}
}

// WithLogger sets a logger for this backend instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		b.logger = l
	}
}
