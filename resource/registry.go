package resource

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gpures"
)

// Factory performs the native creation call for one resource.
//
// deps gives read-only access to the live resources the new one depends
// on. A factory must not keep deps beyond the call.
type Factory func(deps Resolver) (Object, error)

// Resolver is the read-only view of a Registry handed to factories and
// renderers.
type Resolver interface {
	Get(kind Kind) (*Handle, error)
	GetNamed(kind Kind, name string) (*Handle, error)
	Has(kind Kind) bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets a logger for this registry instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

// Registry is the single owner of a set of live GPU resource handles.
//
// Handles are kept in creation order. At most one handle per (kind, name)
// pair is live; the empty name is the default instance returned by Get.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	entries []*Handle // ascending creation index
	next    uint64
	logger  *slog.Logger
}

var _ Resolver = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return gpures.Logger()
}

// Acquire creates the default instance of kind.
//
// Every kind in the static dependency table for kind, plus every kind in
// deps, must already be live. On success the new handle gets the next
// creation index. If the factory fails the registry is left unchanged and
// a *FactoryError is returned.
func (r *Registry) Acquire(kind Kind, deps []Kind, f Factory) (*Handle, error) {
	return r.AcquireNamed(kind, "", deps, f)
}

// AcquireNamed creates the instance of kind registered under name.
// Use it for kinds with more than one live instance, such as several
// vertex buffers.
func (r *Registry) AcquireNamed(kind Kind, name string, deps []Kind, f Factory) (*Handle, error) {
	if !kind.Valid() {
		return nil, ErrInvalidKind
	}
	if r.find(kind, name) != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyAcquired, label(kind, name))
	}

	required := requiredKinds(kind, deps)
	var missing []Kind
	for _, k := range required {
		if !r.Has(k) {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, &DependencyError{Kind: kind, Name: name, Missing: missing}
	}

	if f == nil {
		return nil, &FactoryError{Kind: kind, Name: name, Err: errNilFactory}
	}
	obj, err := f(r)
	if err != nil {
		return nil, &FactoryError{Kind: kind, Name: name, Err: err}
	}
	if obj == nil {
		return nil, &FactoryError{Kind: kind, Name: name, Err: errNilObject}
	}

	h := &Handle{
		kind:  kind,
		name:  name,
		index: r.next,
		deps:  required,
		obj:   obj,
		owner: r,
	}
	r.next++
	r.entries = append(r.entries, h)

	r.log().Debug("resource: acquired", "handle", h.String())
	return h, nil
}

// Release removes h from the registry and destroys its native object.
//
// Release fails with *DependentsError if a live handle created after h
// declared a dependency on h's kind. A native release failure is returned
// as *ReleaseError; the handle has left the registry either way.
func (r *Registry) Release(h *Handle) error {
	i := r.indexOf(h)
	if i < 0 {
		return ErrNotFound
	}

	var dependents []*Handle
	for _, e := range r.entries[i+1:] {
		if e.dependsOn(h.kind) {
			dependents = append(dependents, e)
		}
	}
	if len(dependents) > 0 {
		return &DependentsError{Handle: h, Dependents: dependents}
	}

	r.entries = slices.Delete(r.entries, i, i+1)
	if err := r.destroy(h); err != nil {
		return err
	}
	return nil
}

// ReleaseAll releases every live handle in strictly decreasing creation
// index. It never stops early: each failure is recorded and the next
// handle is released. The registry is empty afterwards.
//
// The returned *TeardownError lists exactly the releases that failed.
func (r *Registry) ReleaseAll() error {
	var failures []*ReleaseError
	for len(r.entries) > 0 {
		last := len(r.entries) - 1
		h := r.entries[last]
		r.entries[last] = nil
		r.entries = r.entries[:last]
		if err := r.destroy(h); err != nil {
			failures = append(failures, err)
		}
	}
	r.entries = nil

	if len(failures) > 0 {
		return &TeardownError{Failures: failures}
	}
	return nil
}

// destroy detaches h and calls its native release.
func (r *Registry) destroy(h *Handle) *ReleaseError {
	h.owner = nil
	if err := h.obj.Release(); err != nil {
		r.log().Warn("resource: release failed", "handle", h.String(), "err", err)
		return &ReleaseError{Handle: h, Err: err}
	}
	r.log().Debug("resource: released", "handle", h.String())
	return nil
}

// Get returns the default instance of kind.
func (r *Registry) Get(kind Kind) (*Handle, error) {
	return r.GetNamed(kind, "")
}

// GetNamed returns the instance of kind registered under name.
func (r *Registry) GetNamed(kind Kind, name string) (*Handle, error) {
	if h := r.find(kind, name); h != nil {
		return h, nil
	}
	return nil, ErrNotFound
}

// Has reports whether any instance of kind is live, named or not.
func (r *Registry) Has(kind Kind) bool {
	for _, e := range r.entries {
		if e.kind == kind {
			return true
		}
	}
	return false
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Live returns the live handles in creation order.
func (r *Registry) Live() []*Handle {
	return slices.Clone(r.entries)
}

// Dependents returns the live handles of kind together with every live
// handle whose dependency chain includes kind, in decreasing creation
// index. Releasing them in the returned order never fails with
// ErrDependentsStillLive.
func (r *Registry) Dependents(kind Kind) []*Handle {
	affected := map[Kind]bool{kind: true}
	var out []*Handle
	for _, e := range r.entries {
		hit := e.kind == kind
		for _, d := range e.deps {
			if affected[d] {
				hit = true
				break
			}
		}
		if hit {
			affected[e.kind] = true
			out = append(out, e)
		}
	}
	slices.Reverse(out)
	return out
}

func (r *Registry) find(kind Kind, name string) *Handle {
	for _, e := range r.entries {
		if e.kind == kind && e.name == name {
			return e
		}
	}
	return nil
}

func (r *Registry) indexOf(h *Handle) int {
	if h == nil || h.owner != r {
		return -1
	}
	return slices.Index(r.entries, h)
}
