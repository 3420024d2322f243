// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu implements backend.Backend on the gogpu/wgpu hardware
// abstraction layer.
//
// The backend opens a HAL device itself (Vulkan by default, or any API
// passed with WithAPI, such as the noop API in tests) or borrows one from
// a host application through WithDeviceProvider. Swap chains are offscreen
// color textures; presenting optionally reads the frame back into an
// *image.RGBA, which makes the backend usable headless.
//
// Importing the package registers the backend under backend.BackendWGPU:
//
//	import (
//		_ "github.com/gogpu/gpures/backend/wgpu"
//		_ "github.com/gogpu/wgpu/hal/vulkan"
//	)
//
// Every native object returned by the Create methods is owned by a
// resource.Registry and destroyed through its Release method. All calls
// are synchronous: each submission waits for the queue to complete it.
package wgpu
