// Package resource owns live GPU resource handles.
//
// A Registry is the only owner of the native objects it tracks. Resources
// enter it through Acquire, which checks the static dependency table before
// calling the caller-supplied Factory, and leave it through Release or
// ReleaseAll, which always run in reverse creation order.
//
// Components that need a resource borrow it through Get or GetNamed; they
// never release it themselves.
//
// A Registry is not safe for concurrent use. All calls must come from the
// thread that owns the graphics context.
package resource
