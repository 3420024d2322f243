package graph

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/gpures/resource"
)

// recorder counts builds per step and produces releasable objects.
type recorder struct {
	builds   []string
	released []string
	extents  []Extent
}

type object struct {
	label string
	r     *recorder
	err   error
}

func (o *object) Release() error {
	o.r.released = append(o.r.released, o.label)
	return o.err
}

func (r *recorder) ok(label string) BuildFunc {
	return func(env Env) (resource.Object, error) {
		r.builds = append(r.builds, label)
		r.extents = append(r.extents, env.Extent)
		return &object{label: label, r: r}, nil
	}
}

func (r *recorder) fail(label string, err error) BuildFunc {
	return func(Env) (resource.Object, error) {
		r.builds = append(r.builds, label)
		return nil, err
	}
}

func (r *recorder) leaky(label string, releaseErr error) BuildFunc {
	return func(Env) (resource.Object, error) {
		r.builds = append(r.builds, label)
		return &object{label: label, r: r, err: releaseErr}, nil
	}
}

func kindsOf(reg *resource.Registry) []resource.Kind {
	var kinds []resource.Kind
	for _, h := range reg.Live() {
		kinds = append(kinds, h.Kind())
	}
	return kinds
}

func TestRunAcquiresInDeclaredOrder(t *testing.T) {
	rec := &recorder{}
	plan := New([]Step{
		{Kind: resource.Device, Build: rec.ok("device")},
		{Kind: resource.SwapChain, Build: rec.ok("swap")},
		{Kind: resource.RenderTargetView, Build: rec.ok("rtv")},
	})
	reg := resource.NewRegistry()

	if err := plan.Run(reg, Extent{Width: 800, Height: 600}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	live := reg.Live()
	want := []resource.Kind{resource.Device, resource.SwapChain, resource.RenderTargetView}
	if !slices.Equal(kindsOf(reg), want) {
		t.Fatalf("live kinds = %v, want %v", kindsOf(reg), want)
	}
	for i, h := range live {
		if h.Index() != uint64(i) {
			t.Errorf("%s index = %d, want %d", h.Kind(), h.Index(), i)
		}
	}
	for _, e := range rec.extents {
		if e != (Extent{Width: 800, Height: 600}) {
			t.Errorf("build saw extent %v, want 800x600", e)
		}
	}
}

func TestRunRollsBackOnFailure(t *testing.T) {
	rec := &recorder{}
	boom := &resource.NativeError{Op: "CreateRenderTargetView", Code: 0x80070057}
	plan := New([]Step{
		{Kind: resource.Device, Build: rec.ok("device")},
		{Kind: resource.SwapChain, Build: rec.ok("swap")},
		{Kind: resource.RenderTargetView, Build: rec.fail("rtv", boom)},
		{Kind: resource.VertexBuffer, Build: rec.ok("vb")},
	})
	reg := resource.NewRegistry()

	err := plan.Run(reg, Extent{Width: 640, Height: 480})
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("Run() error = %v, want *StepError", err)
	}
	if se.Index != 2 || se.Kind != resource.RenderTargetView {
		t.Errorf("StepError = step %d (%s), want step 2 (RenderTargetView)", se.Index, se.Kind)
	}
	if se.Rollback != nil {
		t.Errorf("Rollback = %v, want nil", se.Rollback)
	}
	if !errors.Is(err, resource.ErrFactoryFailed) || !errors.Is(err, boom) {
		t.Errorf("StepError must unwrap to the factory failure, got %v", err)
	}

	if reg.Len() != 0 {
		t.Errorf("registry holds %d handles after rollback, want 0", reg.Len())
	}
	if want := []string{"device", "swap", "rtv"}; !slices.Equal(rec.builds, want) {
		t.Errorf("builds = %v, want %v", rec.builds, want)
	}
	if want := []string{"swap", "device"}; !slices.Equal(rec.released, want) {
		t.Errorf("released = %v, want %v", rec.released, want)
	}
}

func TestRunFailureAtEveryStep(t *testing.T) {
	kinds := []resource.Kind{
		resource.Device, resource.ImmediateContext, resource.SwapChain,
		resource.RenderTargetView, resource.VertexShader, resource.PixelShader,
		resource.InputLayout, resource.VertexBuffer,
	}
	boom := errors.New("boom")

	for k := range kinds {
		t.Run(kinds[k].String(), func(t *testing.T) {
			rec := &recorder{}
			steps := make([]Step, len(kinds))
			for i, kind := range kinds {
				build := rec.ok(kind.String())
				if i == k {
					build = rec.fail(kind.String(), boom)
				}
				steps[i] = Step{Kind: kind, Build: build}
			}
			reg := resource.NewRegistry()

			err := New(steps).Run(reg, Extent{Width: 1, Height: 1})
			if !errors.Is(err, boom) {
				t.Fatalf("Run() error = %v, want %v", err, boom)
			}
			if reg.Len() != 0 {
				t.Errorf("registry holds %d handles, want 0", reg.Len())
			}
			if len(rec.builds) != k+1 {
				t.Errorf("%d builds ran, want %d", len(rec.builds), k+1)
			}
			if len(rec.released) != k {
				t.Errorf("%d objects released, want %d", len(rec.released), k)
			}
		})
	}
}

func TestRunReportsRollbackFailures(t *testing.T) {
	rec := &recorder{}
	stuck := errors.New("stuck")
	plan := New([]Step{
		{Kind: resource.Device, Build: rec.ok("device")},
		{Kind: resource.SwapChain, Build: rec.leaky("swap", stuck)},
		{Kind: resource.RenderTargetView, Build: rec.fail("rtv", errors.New("no view"))},
	})
	reg := resource.NewRegistry()

	err := plan.Run(reg, Extent{Width: 1, Height: 1})
	if !errors.Is(err, resource.ErrTeardown) || !errors.Is(err, stuck) {
		t.Fatalf("Run() error = %v, want rollback teardown failure", err)
	}
	if reg.Len() != 0 {
		t.Errorf("registry holds %d handles, want 0", reg.Len())
	}
}

func TestRunOutOfOrderPlan(t *testing.T) {
	rec := &recorder{}
	plan := New([]Step{
		{Kind: resource.Device, Build: rec.ok("device")},
		{Kind: resource.RenderTargetView, Build: rec.ok("rtv")},
		{Kind: resource.SwapChain, Build: rec.ok("swap")},
	})
	reg := resource.NewRegistry()

	err := plan.Run(reg, Extent{Width: 1, Height: 1})
	if !errors.Is(err, resource.ErrDependencyMissing) {
		t.Fatalf("Run() error = %v, want ErrDependencyMissing", err)
	}
	if want := []string{"device"}; !slices.Equal(rec.builds, want) {
		t.Errorf("builds = %v, want %v", rec.builds, want)
	}
	if reg.Len() != 0 {
		t.Errorf("registry holds %d handles, want 0", reg.Len())
	}
}

func TestOptionalStepFallback(t *testing.T) {
	rec := &recorder{}
	plan := New([]Step{
		{Kind: resource.Device, Build: rec.ok("device")},
		{
			Kind:     resource.Texture,
			Build:    rec.fail("texture", errors.New("decode failed")),
			Optional: true,
			Fallback: rec.ok("checkerboard"),
		},
		{Kind: resource.ShaderResourceView, Build: rec.ok("srv")},
	})
	reg := resource.NewRegistry()

	if err := plan.Run(reg, Extent{Width: 1, Height: 1}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	h, err := reg.Get(resource.Texture)
	if err != nil {
		t.Fatalf("Get(Texture) error = %v", err)
	}
	if obj := h.Object().(*object); obj.label != "checkerboard" {
		t.Errorf("texture built by %q, want checkerboard", obj.label)
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
}

func TestOptionalStepSkipped(t *testing.T) {
	rec := &recorder{}
	plan := New([]Step{
		{Kind: resource.Device, Build: rec.ok("device")},
		{Kind: resource.SamplerState, Build: rec.fail("sampler", errors.New("unsupported")), Optional: true},
		{
			Kind:     resource.Texture,
			Build:    rec.fail("texture", errors.New("missing")),
			Optional: true,
			Fallback: rec.fail("checkerboard", errors.New("out of memory")),
		},
		{Kind: resource.VertexBuffer, Build: rec.ok("vb")},
	})
	reg := resource.NewRegistry()

	if err := plan.Run(reg, Extent{Width: 1, Height: 1}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []resource.Kind{resource.Device, resource.VertexBuffer}
	if !slices.Equal(kindsOf(reg), want) {
		t.Errorf("live kinds = %v, want %v", kindsOf(reg), want)
	}
	if wantBuilds := []string{"device", "sampler", "texture", "checkerboard", "vb"}; !slices.Equal(rec.builds, wantBuilds) {
		t.Errorf("builds = %v, want %v", rec.builds, wantBuilds)
	}
}

func TestValidate(t *testing.T) {
	noop := func(Env) (resource.Object, error) { return resource.ReleaseFunc(nil), nil }

	tests := []struct {
		name    string
		steps   []Step
		wantErr error
	}{
		{
			name: "ordered",
			steps: []Step{
				{Kind: resource.Device, Build: noop},
				{Kind: resource.SwapChain, Build: noop},
				{Kind: resource.RenderTargetView, Build: noop},
			},
		},
		{
			name: "dependency after dependent",
			steps: []Step{
				{Kind: resource.Device, Build: noop},
				{Kind: resource.InputLayout, Build: noop},
				{Kind: resource.VertexShader, Build: noop},
			},
			wantErr: ErrPlanOrder,
		},
		{
			name: "extra requirement missing",
			steps: []Step{
				{Kind: resource.Device, Build: noop},
				{Kind: resource.VertexBuffer, Requires: []resource.Kind{resource.InputLayout}, Build: noop},
			},
			wantErr: ErrPlanOrder,
		},
		{
			name: "duplicate step",
			steps: []Step{
				{Kind: resource.Device, Build: noop},
				{Kind: resource.Device, Build: noop},
			},
			wantErr: ErrPlanOrder,
		},
		{
			name: "named instances",
			steps: []Step{
				{Kind: resource.Device, Build: noop},
				{Kind: resource.VertexBuffer, Name: "a", Build: noop},
				{Kind: resource.VertexBuffer, Name: "b", Build: noop},
			},
		},
		{
			name:    "missing build",
			steps:   []Step{{Kind: resource.Device}},
			wantErr: ErrNoBuild,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.steps).Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRebuild(t *testing.T) {
	rec := &recorder{}
	plan := New([]Step{
		{Kind: resource.Device, Build: rec.ok("device")},
		{Kind: resource.SwapChain, Build: rec.ok("swap")},
		{Kind: resource.RenderTargetView, Build: rec.ok("rtv")},
		{Kind: resource.VertexBuffer, Build: rec.ok("vb")},
	})
	reg := resource.NewRegistry()
	if err := plan.Run(reg, Extent{Width: 800, Height: 600}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, h := range reg.Dependents(resource.SwapChain) {
		if err := reg.Release(h); err != nil {
			t.Fatalf("Release(%s) error = %v", h, err)
		}
	}
	rec.builds = nil
	rec.extents = nil

	keys := []Key{{Kind: resource.RenderTargetView}, {Kind: resource.SwapChain}}
	if err := plan.Rebuild(reg, Extent{Width: 1024, Height: 768}, keys); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if want := []string{"swap", "rtv"}; !slices.Equal(rec.builds, want) {
		t.Errorf("rebuilt = %v, want %v", rec.builds, want)
	}
	for _, e := range rec.extents {
		if e != (Extent{Width: 1024, Height: 768}) {
			t.Errorf("rebuild saw extent %v, want 1024x768", e)
		}
	}
	swap, _ := reg.Get(resource.SwapChain)
	rtv, _ := reg.Get(resource.RenderTargetView)
	if swap.Index() != 4 || rtv.Index() != 5 {
		t.Errorf("new indices = %d, %d, want 4, 5", swap.Index(), rtv.Index())
	}
}

func TestRebuildNamedInstances(t *testing.T) {
	rec := &recorder{}
	plan := New([]Step{
		{Kind: resource.Device, Build: rec.ok("device")},
		{Kind: resource.Texture, Name: "albedo", Build: rec.ok("albedo")},
		{Kind: resource.SwapChain, Build: rec.ok("swap")},
		{Kind: resource.RenderTargetView, Build: rec.ok("rtv")},
		{Kind: resource.Texture, Name: "offscreen", Requires: []resource.Kind{resource.SwapChain}, Build: rec.ok("offscreen")},
	})
	if err := plan.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	reg := resource.NewRegistry()
	if err := plan.Run(reg, Extent{Width: 800, Height: 600}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	albedo, _ := reg.GetNamed(resource.Texture, "albedo")

	var keys []Key
	for _, h := range reg.Dependents(resource.SwapChain) {
		keys = append(keys, KeyOf(h))
		if err := reg.Release(h); err != nil {
			t.Fatalf("Release(%s) error = %v", h, err)
		}
	}
	rec.builds = nil
	if err := plan.Rebuild(reg, Extent{Width: 1024, Height: 768}, keys); err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if want := []string{"swap", "rtv", "offscreen"}; !slices.Equal(rec.builds, want) {
		t.Errorf("rebuilt = %v, want %v", rec.builds, want)
	}
	if got, _ := reg.GetNamed(resource.Texture, "albedo"); got != albedo {
		t.Error("Texture[albedo] must survive a rebuild untouched")
	}
	if reg.Len() != 5 {
		t.Errorf("Len() = %d, want 5", reg.Len())
	}
}

func TestStepKey(t *testing.T) {
	plan := New([]Step{
		{Kind: resource.Device},
		{Kind: resource.Texture, Name: "albedo"},
	})
	steps := plan.Steps()
	if len(steps) != plan.Len() {
		t.Fatalf("Steps() returned %d steps, want %d", len(steps), plan.Len())
	}
	if got := steps[1].Key(); got != (Key{Kind: resource.Texture, Name: "albedo"}) {
		t.Errorf("Key() = %v", got)
	}
	if got := steps[1].String(); got != "Texture[albedo]" {
		t.Errorf("String() = %q, want Texture[albedo]", got)
	}
	if got := steps[0].String(); got != "Device" {
		t.Errorf("String() = %q, want Device", got)
	}

	steps[0].Name = "changed"
	if plan.Steps()[0].Name != "" {
		t.Error("Steps() must return a copy")
	}
}

func TestExtentEmpty(t *testing.T) {
	tests := []struct {
		e    Extent
		want bool
	}{
		{Extent{}, true},
		{Extent{Width: 10}, true},
		{Extent{Height: 10}, true},
		{Extent{Width: 1, Height: 1}, false},
	}
	for _, tt := range tests {
		if got := tt.e.Empty(); got != tt.want {
			t.Errorf("%v.Empty() = %v, want %v", tt.e, got, tt.want)
		}
	}
}
