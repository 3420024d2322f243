package frame

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/graph"
	"github.com/gogpu/gpures/resource"
)

// Loop owns the frame cycle of one window.
//
// A Loop is not safe for concurrent use; every method must be called from
// the thread that owns the window and the graphics context.
type Loop struct {
	reg      *resource.Registry
	plan     *graph.Plan
	renderer Renderer

	state   State
	extent  graph.Extent
	pending *graph.Extent
	paused  bool
	frames  uint64

	clear     gputypes.Color
	maxFrames uint64
	hook      func(from, to State)
	logger    *slog.Logger
}

// NewLoop creates a loop that builds reg from plan and draws with renderer.
func NewLoop(reg *resource.Registry, plan *graph.Plan, renderer Renderer, opts ...Option) *Loop {
	l := &Loop{
		reg:      reg,
		plan:     plan,
		renderer: renderer,
		clear:    DefaultClearColor,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loop) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return gpures.Logger()
}

// State returns the current state.
func (l *Loop) State() State { return l.state }

// Extent returns the size the swap chain was last built with.
func (l *Loop) Extent() graph.Extent { return l.extent }

// Paused reports whether drawing is suspended by a zero-size window.
func (l *Loop) Paused() bool { return l.paused }

// Frames returns the number of presented frames.
func (l *Loop) Frames() uint64 { return l.frames }

// Registry returns the registry the loop draws from.
func (l *Loop) Registry() *resource.Registry { return l.reg }

func (l *Loop) setState(s State) {
	from := l.state
	if from == s {
		return
	}
	l.state = s
	l.log().Info("frame: state", "from", from.String(), "to", s.String())
	if l.hook != nil {
		l.hook(from, s)
	}
}

// Init runs the acquisition plan at the given size.
//
// On failure the plan has already released everything it acquired, and
// the loop stays NotInitialized.
func (l *Loop) Init(width, height uint32) error {
	if l.state != NotInitialized {
		return stateError("init", l.state)
	}
	ext := graph.Extent{Width: width, Height: height}
	if err := l.plan.Run(l.reg, ext); err != nil {
		return fmt.Errorf("frame: init: %w", err)
	}
	l.extent = ext
	l.paused = ext.Empty()
	l.setState(Initialized)
	return nil
}

// Start begins producing frames.
func (l *Loop) Start() error {
	if l.state != Initialized {
		return stateError("start", l.state)
	}
	l.setState(Running)
	return nil
}

// Resize records a new window size. It is applied by the next Tick; only
// the latest request counts.
func (l *Loop) Resize(width, height uint32) error {
	switch l.state {
	case Initialized, Running:
	default:
		return stateError("resize", l.state)
	}
	l.pending = &graph.Extent{Width: width, Height: height}
	return nil
}

// Tick produces one frame: it applies a pending resize, then clears,
// draws and presents. While paused it returns nil without drawing.
//
// A resize failure terminates the loop; the returned error wraps ErrResize.
func (l *Loop) Tick() error {
	if l.state != Running {
		return stateError("tick", l.state)
	}
	if l.pending != nil {
		ext := *l.pending
		l.pending = nil
		if err := l.applyResize(ext); err != nil {
			return err
		}
	}
	if l.paused {
		return nil
	}

	swap, err := l.reg.Get(resource.SwapChain)
	if err != nil {
		return fmt.Errorf("frame: swap chain: %w", err)
	}
	rtv, err := l.reg.Get(resource.RenderTargetView)
	if err != nil {
		return fmt.Errorf("frame: render target: %w", err)
	}

	if err := l.renderer.Clear(rtv, l.clear); err != nil {
		return fmt.Errorf("frame: clear: %w", err)
	}
	if err := l.renderer.Draw(rtv, l.reg); err != nil {
		return fmt.Errorf("frame: draw: %w", err)
	}
	if err := l.renderer.Present(swap); err != nil {
		return fmt.Errorf("frame: present: %w", err)
	}
	l.frames++
	return nil
}

// applyResize releases every resource whose dependency chain includes the
// swap chain and re-acquires it at ext.
func (l *Loop) applyResize(ext graph.Extent) error {
	if ext.Empty() {
		if !l.paused {
			l.log().Info("frame: paused", "width", ext.Width, "height", ext.Height)
		}
		l.paused = true
		return nil
	}
	if l.paused {
		l.log().Info("frame: resumed", "width", ext.Width, "height", ext.Height)
		l.paused = false
	}
	if ext == l.extent {
		return nil
	}

	l.setState(Resizing)
	stale := l.reg.Dependents(resource.SwapChain)
	keys := make([]graph.Key, 0, len(stale))
	for _, h := range stale {
		keys = append(keys, graph.KeyOf(h))
		if err := l.reg.Release(h); err != nil {
			return l.fail(err)
		}
	}
	if err := l.plan.Rebuild(l.reg, ext, keys); err != nil {
		return l.fail(err)
	}

	l.log().Debug("frame: resized", "from_w", l.extent.Width, "from_h", l.extent.Height,
		"to_w", ext.Width, "to_h", ext.Height, "rebuilt", len(keys))
	l.extent = ext
	l.setState(Running)
	return nil
}

// fail tears the loop down after a fatal resize error.
func (l *Loop) fail(cause error) error {
	l.log().Error("frame: resize failed", "err", cause)
	teardown := l.Shutdown()
	return fmt.Errorf("%w: %w", ErrResize, errors.Join(cause, teardown))
}

// Shutdown releases every resource and terminates the loop. It returns the
// teardown error of the registry, if any. Calling Shutdown on a terminated
// loop is a no-op.
func (l *Loop) Shutdown() error {
	if l.state == Terminated {
		return nil
	}
	l.setState(ShuttingDown)
	err := l.reg.ReleaseAll()
	l.pending = nil
	l.setState(Terminated)
	return err
}

// Run drives the loop from window events until the window closes, ctx is
// cancelled, the frame limit is reached or a frame fails. It starts an
// initialized loop and always shuts it down before returning.
func (l *Loop) Run(ctx context.Context, w Window) (err error) {
	if l.state == Initialized {
		if err := l.Start(); err != nil {
			return err
		}
	}
	if l.state != Running {
		return stateError("run", l.state)
	}
	defer func() {
		err = errors.Join(err, l.Shutdown())
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, ev := range w.Poll() {
			switch ev.Kind {
			case EventClose:
				l.log().Info("frame: window closed", "frames", l.frames)
				return nil
			case EventResize:
				if err := l.Resize(ev.Width, ev.Height); err != nil {
					return err
				}
			}
		}
		if err := l.Tick(); err != nil {
			return err
		}
		if l.maxFrames > 0 && l.frames >= l.maxFrames {
			return nil
		}
	}
}
