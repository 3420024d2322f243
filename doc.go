// Package gpures manages the lifetime of a graph of GPU resources.
//
// # Overview
//
// A rendering application needs a device, an immediate context, a swap
// chain, a render-target view, buffers, shaders, textures and samplers, each
// created from the ones before it. gpures owns all of them in one place:
//
//   - resource: the Registry, the single owner of every live handle. It
//     checks the static dependency table on acquire and release and tears
//     everything down in reverse creation order.
//   - graph: an ordered acquisition Plan that rolls back everything on the
//     first failed step.
//   - frame: the Loop that clears, draws and presents each tick and rebuilds
//     the swap-chain dependent resources on resize.
//   - backend: the native backend contract, a software backend and a
//     gogpu/wgpu HAL backend (backend/wgpu).
//   - shader, imagedec: WGSL compilation through naga and texture decoding.
//
// # Quick Start
//
//	b := backend.NewSoftwareBackend()
//	if err := b.Init(); err != nil {
//		log.Fatal(err)
//	}
//	reg := resource.NewRegistry()
//	plan := backend.TrianglePlan(b, 0, backend.DefaultAssets())
//	loop := frame.NewLoop(reg, plan, b.NewRenderer())
//	if err := loop.Init(800, 600); err != nil {
//		log.Fatal(err)
//	}
//	if err := loop.Run(ctx, window); err != nil {
//		log.Fatal(err)
//	}
//
// # Threading
//
// Registries, plans and loops are single-threaded by contract: all calls
// happen on the thread that owns the window and the graphics context.
// Only the package logger may be swapped from other goroutines.
package gpures

// Version is the current version of the library.
const Version = "0.1.0"
