package frame

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures/resource"
)

// Renderer issues the per-frame commands of a backend.
//
// The loop looks up the swap chain and render-target view each frame and
// passes them in; a Renderer never owns resources.
type Renderer interface {
	// Clear fills the render target with c.
	Clear(target *resource.Handle, c gputypes.Color) error

	// Draw records and submits the draw work. res resolves the vertex
	// buffer, shaders and other live resources the draw needs.
	Draw(target *resource.Handle, res resource.Resolver) error

	// Present shows the back buffer of swap.
	Present(swap *resource.Handle) error
}
