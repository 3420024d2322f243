package frame

import (
	"log/slog"

	"github.com/gogpu/gputypes"
)

// DefaultClearColor is the dark blue background of the classic triangle demo.
var DefaultClearColor = gputypes.Color{R: 0, G: 0.125, B: 0.3, A: 1}

// Option configures a Loop.
//
// Example:
//
//	loop := frame.NewLoop(reg, plan, renderer,
//		frame.WithClearColor(gputypes.Color{A: 1}),
//		frame.WithMaxFrames(120),
//	)
type Option func(*Loop)

// WithLogger sets a logger for this loop instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		lp.logger = l
	}
}

// WithClearColor sets the color each frame is cleared to.
func WithClearColor(c gputypes.Color) Option {
	return func(lp *Loop) {
		lp.clear = c
	}
}

// WithMaxFrames makes Run return after n presented frames. Zero means no
// limit.
func WithMaxFrames(n uint64) Option {
	return func(lp *Loop) {
		lp.maxFrames = n
	}
}

// WithStateHook registers fn to be called on every state transition.
func WithStateHook(fn func(from, to State)) Option {
	return func(lp *Loop) {
		lp.hook = fn
	}
}
