// Package backend defines the native graphics backend contract and ships
// the CPU implementation.
//
// A Backend turns resource.Registry factories into native calls: each
// Create method receives the live handles it depends on and returns the
// object the registry owns. The triangle demo plan is built from any
// Backend with TrianglePlan.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime.
// The software backend is automatically registered on import; the GPU
// backend registers itself when its package is imported:
//
//	import _ "github.com/gogpu/gpures/backend/wgpu"
//
// # Backend Selection
//
// Use Default() to get the best available backend, Get() to request one by
// name, or InitDefault() to initialize the first backend that works:
//
//	b, err := backend.InitDefault()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer b.Close()
//
//	reg := resource.NewRegistry()
//	plan := backend.TrianglePlan(b, hwnd, backend.DefaultAssets())
//	loop := frame.NewLoop(reg, plan, b.NewRenderer())
//
// # Available Backends
//
//   - "software": CPU rasterizer (always available)
//   - "wgpu": gogpu/wgpu HAL (Vulkan, Metal, DX12, GLES)
package backend
