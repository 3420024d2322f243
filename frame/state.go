package frame

import "fmt"

// State is the lifecycle state of a Loop.
type State int32

const (
	// NotInitialized is the state of a new loop and of a loop whose Init failed.
	NotInitialized State = iota
	// Initialized means the acquisition plan completed.
	Initialized
	// Running means frames are being produced.
	Running
	// Resizing is the transient state while swap-chain resources are rebuilt.
	Resizing
	// ShuttingDown means the registry is being released.
	ShuttingDown
	// Terminated is final.
	Terminated
)

func (s State) String() string {
	switch s {
	case NotInitialized:
		return "NotInitialized"
	case Initialized:
		return "Initialized"
	case Running:
		return "Running"
	case Resizing:
		return "Resizing"
	case ShuttingDown:
		return "ShuttingDown"
	case Terminated:
		return "Terminated"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}
