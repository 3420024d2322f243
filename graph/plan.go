package graph

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gpures"
	"github.com/gogpu/gpures/resource"
)

// Extent is the size of the presentation surface, in pixels.
type Extent struct {
	Width  uint32
	Height uint32
}

// Empty reports whether either dimension is zero, as for a minimized window.
func (e Extent) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

// Env is passed to every Build call.
type Env struct {
	// Deps resolves the live resources the step depends on.
	Deps resource.Resolver
	// Extent is the current surface size.
	Extent Extent
}

// BuildFunc creates the native object for one step.
type BuildFunc func(env Env) (resource.Object, error)

// Step is one entry of a Plan.
type Step struct {
	// Kind is the resource kind the step produces.
	Kind resource.Kind
	// Name selects a named instance; empty for the default instance.
	Name string
	// Requires lists dependency kinds beyond the static table.
	Requires []resource.Kind
	// Build performs the native creation call.
	Build BuildFunc
	// Optional steps do not abort the plan. When Build fails, Fallback is
	// tried; if that fails too, or there is none, the step is skipped.
	Optional bool
	// Fallback is the alternative builder of an optional step.
	Fallback BuildFunc
}

func (s Step) String() string {
	return s.Key().String()
}

// Key returns the (kind, name) pair the step acquires.
func (s Step) Key() Key {
	return Key{Kind: s.Kind, Name: s.Name}
}

// Key identifies one resource instance in a registry.
type Key struct {
	Kind resource.Kind
	Name string
}

// KeyOf returns the key of a handle.
func KeyOf(h *resource.Handle) Key {
	return Key{Kind: h.Kind(), Name: h.Name()}
}

func (k Key) String() string {
	if k.Name != "" {
		return k.Kind.String() + "[" + k.Name + "]"
	}
	return k.Kind.String()
}

// Option configures a Plan.
type Option func(*Plan)

// WithLogger sets a logger for this plan instead of the package logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Plan) {
		p.logger = l
	}
}

// Plan is an ordered acquisition plan.
type Plan struct {
	steps  []Step
	logger *slog.Logger
}

// New creates a plan from steps. The slice is copied.
func New(steps []Step, opts ...Option) *Plan {
	p := &Plan{steps: slices.Clone(steps)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add appends steps to the plan.
func (p *Plan) Add(steps ...Step) *Plan {
	p.steps = append(p.steps, steps...)
	return p
}

// Steps returns a copy of the plan steps.
func (p *Plan) Steps() []Step {
	return slices.Clone(p.steps)
}

// Len returns the number of steps.
func (p *Plan) Len() int {
	return len(p.steps)
}

func (p *Plan) log() *slog.Logger {
	if p.logger != nil {
		return p.logger
	}
	return gpures.Logger()
}

// Validate checks that the plan is declared in dependency order: every kind
// a step depends on is produced by an earlier step, and no (kind, name)
// pair appears twice.
func (p *Plan) Validate() error {
	seen := make(map[Key]bool, len(p.steps))
	produced := make(map[resource.Kind]bool, len(p.steps))

	for i, s := range p.steps {
		if !s.Kind.Valid() {
			return fmt.Errorf("%w: step %d: %v", ErrPlanOrder, i, resource.ErrInvalidKind)
		}
		if s.Build == nil {
			return fmt.Errorf("%w: step %d (%s)", ErrNoBuild, i, s)
		}
		k := s.Key()
		if seen[k] {
			return fmt.Errorf("%w: step %d (%s) declared twice", ErrPlanOrder, i, s)
		}
		seen[k] = true

		deps := append(resource.DependenciesOf(s.Kind), s.Requires...)
		for _, d := range deps {
			if !produced[d] {
				return fmt.Errorf("%w: step %d (%s) needs %s before it", ErrPlanOrder, i, s, d)
			}
		}
		produced[s.Kind] = true
	}
	return nil
}

// Run acquires every step in declared order.
//
// On the first mandatory failure Run calls reg.ReleaseAll and returns a
// *StepError naming the step. Steps after the failing one are never built.
func (p *Plan) Run(reg *resource.Registry, extent Extent) error {
	for i, s := range p.steps {
		if err := p.acquire(reg, i, s, extent); err != nil {
			return err
		}
	}
	p.log().Info("graph: plan complete", "steps", len(p.steps), "live", reg.Len())
	return nil
}

// Rebuild re-acquires, in plan order, only the steps whose (kind, name)
// is in keys. The caller releases the old instances first. Failure
// handling is the same as Run: the whole registry is released.
func (p *Plan) Rebuild(reg *resource.Registry, extent Extent, keys []Key) error {
	n := 0
	for i, s := range p.steps {
		if !slices.Contains(keys, s.Key()) {
			continue
		}
		if err := p.acquire(reg, i, s, extent); err != nil {
			return err
		}
		n++
	}
	p.log().Debug("graph: rebuilt", "steps", n, "width", extent.Width, "height", extent.Height)
	return nil
}

func (p *Plan) acquire(reg *resource.Registry, i int, s Step, extent Extent) error {
	_, err := reg.AcquireNamed(s.Kind, s.Name, s.Requires, factory(s.Build, extent))
	if err == nil {
		return nil
	}

	if s.Optional {
		if s.Fallback != nil {
			_, ferr := reg.AcquireNamed(s.Kind, s.Name, s.Requires, factory(s.Fallback, extent))
			if ferr == nil {
				p.log().Warn("graph: optional step used fallback", "step", s.String(), "err", err)
				return nil
			}
			err = ferr
		}
		p.log().Warn("graph: optional step skipped", "step", s.String(), "err", err)
		return nil
	}

	se := &StepError{Index: i, Kind: s.Kind, Name: s.Name, Err: err}
	se.Rollback = reg.ReleaseAll()
	p.log().Warn("graph: step failed, rolled back", "step", s.String(), "index", i, "err", err)
	return se
}

func factory(build BuildFunc, extent Extent) resource.Factory {
	if build == nil {
		return nil
	}
	return func(deps resource.Resolver) (resource.Object, error) {
		return build(Env{Deps: deps, Extent: extent})
	}
}
