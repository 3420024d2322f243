package graph

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpures/resource"
)

var (
	// ErrPlanOrder is returned by Validate when a step depends on a kind no
	// earlier step produces, or when two steps produce the same instance.
	ErrPlanOrder = errors.New("graph: invalid plan order")

	// ErrNoBuild is returned for a step without a Build function.
	ErrNoBuild = errors.New("graph: step has no build function")
)

// StepError reports the plan step that aborted a Run or Rebuild.
//
// Rollback holds the error of the teardown that followed, if any release
// failed during it.
type StepError struct {
	Index    int
	Kind     resource.Kind
	Name     string
	Err      error
	Rollback error
}

func (e *StepError) Error() string {
	step := e.Kind.String()
	if e.Name != "" {
		step += "[" + e.Name + "]"
	}
	msg := fmt.Sprintf("graph: step %d (%s): %v", e.Index, step, e.Err)
	if e.Rollback != nil {
		msg += "; rollback: " + e.Rollback.Error()
	}
	return msg
}

// Unwrap returns the step error and, when present, the rollback error.
func (e *StepError) Unwrap() []error {
	if e.Rollback != nil {
		return []error{e.Err, e.Rollback}
	}
	return []error{e.Err}
}
