// Package graph drives a fixed acquisition plan through a resource.Registry.
//
// A Plan is an ordered list of steps, each naming the resource kind it
// produces and the function that builds the native object. Run acquires
// the steps in declared order and stops at the first failure; everything
// acquired so far is then released through Registry.ReleaseAll before the
// error is returned, so a failed startup never leaves live resources behind.
//
//	plan := graph.New([]graph.Step{
//		{Kind: resource.Device, Build: newDevice},
//		{Kind: resource.SwapChain, Build: newSwapChain},
//		{Kind: resource.RenderTargetView, Build: newRTV},
//	})
//	if err := plan.Run(reg, graph.Extent{Width: 800, Height: 600}); err != nil {
//		var se *graph.StepError
//		if errors.As(err, &se) {
//			log.Printf("step %d (%s) failed", se.Index, se.Kind)
//		}
//	}
//
// Plans are not sorted automatically. Declaring steps in dependency order is
// the caller's contract; Validate checks it ahead of time and the registry
// rejects out-of-order acquisitions at run time.
package graph
