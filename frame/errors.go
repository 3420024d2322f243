package frame

import (
	"errors"
	"fmt"
)

var (
	// ErrState is returned when an operation is not valid in the current state.
	ErrState = errors.New("frame: invalid state")

	// ErrResize wraps every fatal failure of the resize path.
	ErrResize = errors.New("frame: resize failed")
)

func stateError(op string, s State) error {
	return fmt.Errorf("%w: %s while %s", ErrState, op, s)
}
