package resource

import (
	"fmt"
	"slices"
)

// Handle is an opaque reference to one live GPU object in a Registry.
//
// The creation index is assigned at acquisition time, is never reused
// within a registry, and is the only ordering key for teardown.
type Handle struct {
	kind  Kind
	name  string
	index uint64
	deps  []Kind
	obj   Object
	owner *Registry
}

// Kind returns the resource kind.
func (h *Handle) Kind() Kind { return h.kind }

// Name returns the sub-registry name, or "" for the default instance.
func (h *Handle) Name() string { return h.name }

// Index returns the creation index.
func (h *Handle) Index() uint64 { return h.index }

// Object returns the native object.
func (h *Handle) Object() Object { return h.obj }

// Dependencies returns the kinds this handle declared a dependency on:
// the static table entries plus any extra kinds passed to Acquire.
func (h *Handle) Dependencies() []Kind { return slices.Clone(h.deps) }

// Live reports whether the handle is still owned by a registry.
func (h *Handle) Live() bool { return h != nil && h.owner != nil }

// dependsOn reports whether h declared a dependency on kind k.
func (h *Handle) dependsOn(k Kind) bool {
	return slices.Contains(h.deps, k)
}

func (h *Handle) String() string {
	if h.name != "" {
		return fmt.Sprintf("%s[%s]#%d", h.kind, h.name, h.index)
	}
	return fmt.Sprintf("%s#%d", h.kind, h.index)
}
