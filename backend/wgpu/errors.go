// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import "errors"

// Backend errors.
var (
	// ErrNoGPU is returned by Init when no HAL backend is linked in.
	ErrNoGPU = errors.New("wgpu: no GPU backend available")

	// ErrNoAdapter is returned when the instance exposes no adapter.
	ErrNoAdapter = errors.New("wgpu: no adapter found")

	// ErrProvider is returned when a device provider does not expose HAL
	// device and queue.
	ErrProvider = errors.New("wgpu: device provider does not expose HAL types")

	// ErrTimeout is returned when a submission does not complete in time.
	ErrTimeout = errors.New("wgpu: GPU wait timed out")

	// ErrNoPipeline is returned by Draw when no render pipeline is live.
	ErrNoPipeline = errors.New("wgpu: no render pipeline")
)
