package resource

import "fmt"

// Object is a native GPU object owned by a Registry.
//
// Release destroys the native object. The registry calls it exactly once,
// after the handle has been removed from the live set.
type Object interface {
	Release() error
}

// ReleaseFunc adapts a plain function to Object.
type ReleaseFunc func() error

// Release calls f. A nil ReleaseFunc releases nothing.
func (f ReleaseFunc) Release() error {
	if f == nil {
		return nil
	}
	return f()
}

// ObjectAs returns the native object of h as T.
//
// Backends use it to recover their concrete types from borrowed handles:
//
//	dev, err := resource.ObjectAs[*Device](h)
func ObjectAs[T Object](h *Handle) (T, error) {
	var zero T
	if h == nil {
		return zero, ErrNotFound
	}
	obj, ok := h.obj.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, want %T", ErrObjectType, h.kind, h.obj, zero)
	}
	return obj, nil
}
