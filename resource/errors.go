package resource

import (
	"errors"
	"fmt"
	"strings"
)

// Registry errors.
var (
	// ErrFactoryFailed is returned when the native creation call fails.
	ErrFactoryFailed = errors.New("resource: factory failed")

	// ErrDependencyMissing is returned when a required kind is not live.
	ErrDependencyMissing = errors.New("resource: dependency missing")

	// ErrDependentsStillLive is returned when releasing a handle that a
	// later-created live handle depends on.
	ErrDependentsStillLive = errors.New("resource: dependents still live")

	// ErrNotFound is returned when a kind, name or handle is not live.
	ErrNotFound = errors.New("resource: not found")

	// ErrAlreadyAcquired is returned when the (kind, name) pair is already live.
	ErrAlreadyAcquired = errors.New("resource: already acquired")

	// ErrReleaseFailed is returned when a native release call fails.
	ErrReleaseFailed = errors.New("resource: release failed")

	// ErrTeardown is returned by ReleaseAll when one or more releases fail.
	ErrTeardown = errors.New("resource: teardown incomplete")

	// ErrInvalidKind is returned for kinds outside the known set.
	ErrInvalidKind = errors.New("resource: invalid kind")

	// ErrObjectType is returned when a handle holds a different native type.
	ErrObjectType = errors.New("resource: unexpected object type")
)

// NativeError is a failed native call with its backend result code,
// the Go shape of an HRESULT or VkResult.
type NativeError struct {
	Op   string
	Code int64
	Msg  string
}

func (e *NativeError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: native error 0x%X: %s", e.Op, uint64(e.Code), e.Msg)
	}
	return fmt.Sprintf("%s: native error 0x%X", e.Op, uint64(e.Code))
}

// FactoryError reports a failed acquisition. The registry is unchanged.
type FactoryError struct {
	Kind Kind
	Name string
	Err  error
}

func (e *FactoryError) Error() string {
	return fmt.Sprintf("resource: create %s: %v", label(e.Kind, e.Name), e.Err)
}

func (e *FactoryError) Unwrap() error { return e.Err }

// Is matches ErrFactoryFailed.
func (e *FactoryError) Is(target error) bool { return target == ErrFactoryFailed }

// Code returns the native result code carried by the underlying error,
// or 0 when the backend did not report one.
func (e *FactoryError) Code() int64 {
	var ne *NativeError
	if errors.As(e.Err, &ne) {
		return ne.Code
	}
	return 0
}

// DependencyError reports kinds that must be live before Kind can be acquired.
type DependencyError struct {
	Kind    Kind
	Name    string
	Missing []Kind
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("resource: %s requires %s", label(e.Kind, e.Name), joinKinds(e.Missing))
}

// Is matches ErrDependencyMissing.
func (e *DependencyError) Is(target error) bool { return target == ErrDependencyMissing }

// DependentsError reports live handles that still depend on Handle.
type DependentsError struct {
	Handle     *Handle
	Dependents []*Handle
}

func (e *DependentsError) Error() string {
	names := make([]string, len(e.Dependents))
	for i, d := range e.Dependents {
		names[i] = d.String()
	}
	return fmt.Sprintf("resource: cannot release %s: still used by %s", e.Handle, strings.Join(names, ", "))
}

// Is matches ErrDependentsStillLive.
func (e *DependentsError) Is(target error) bool { return target == ErrDependentsStillLive }

// ReleaseError reports a native release failure. The handle has already
// left the registry.
type ReleaseError struct {
	Handle *Handle
	Err    error
}

func (e *ReleaseError) Error() string {
	return fmt.Sprintf("resource: release %s: %v", e.Handle, e.Err)
}

func (e *ReleaseError) Unwrap() error { return e.Err }

// Is matches ErrReleaseFailed.
func (e *ReleaseError) Is(target error) bool { return target == ErrReleaseFailed }

// TeardownError aggregates every release failure of one ReleaseAll call,
// in release order.
type TeardownError struct {
	Failures []*ReleaseError
}

func (e *TeardownError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "resource: teardown: %d release(s) failed", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("; ")
		b.WriteString(f.Handle.String())
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

// Unwrap returns the individual release errors.
func (e *TeardownError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// Is matches ErrTeardown.
func (e *TeardownError) Is(target error) bool { return target == ErrTeardown }

func label(k Kind, name string) string {
	if name != "" {
		return k.String() + "[" + name + "]"
	}
	return k.String()
}

func joinKinds(kinds []Kind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return strings.Join(names, ", ")
}

var (
	errNilFactory = errors.New("nil factory")
	errNilObject  = errors.New("factory returned no object")
)
