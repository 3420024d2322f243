// Package frame runs the per-frame clear, draw and present cycle over a
// resource.Registry and rebuilds the swap-chain dependent resources when the
// window is resized.
//
// A Loop moves through a fixed set of states:
//
//	NotInitialized -> Initialized -> Running <-> Resizing
//	                                    |
//	                                    v
//	                             ShuttingDown -> Terminated
//
// Resize requests are recorded and applied at the start of the next Tick,
// never between clear and present. A zero-size request (a minimized window)
// pauses drawing until a non-zero size arrives. Any failure while rebuilding
// is fatal: the loop releases every resource and terminates.
package frame
