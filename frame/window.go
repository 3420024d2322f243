package frame

// EventKind identifies a window event.
type EventKind uint8

const (
	// EventResize reports a new client-area size.
	EventResize EventKind = iota + 1
	// EventClose asks the loop to stop.
	EventClose
)

// Event is a window notification consumed by Loop.Run.
type Event struct {
	Kind   EventKind
	Width  uint32
	Height uint32
}

// ResizeEvent returns a resize notification.
func ResizeEvent(width, height uint32) Event {
	return Event{Kind: EventResize, Width: width, Height: height}
}

// CloseEvent returns a close notification.
func CloseEvent() Event {
	return Event{Kind: EventClose}
}

// Window is the windowing collaborator. Poll returns the events that
// arrived since the previous call and must not block.
type Window interface {
	Poll() []Event
}

// ScriptedWindow replays a fixed event script, one batch per Poll.
// It drives headless runs and tests.
type ScriptedWindow struct {
	batches [][]Event
	polls   int
}

// NewScriptedWindow returns a window whose n-th Poll returns batches[n].
// Polls past the end of the script return nil.
func NewScriptedWindow(batches ...[]Event) *ScriptedWindow {
	return &ScriptedWindow{batches: batches}
}

// Poll returns the next batch.
func (w *ScriptedWindow) Poll() []Event {
	i := w.polls
	w.polls++
	if i < len(w.batches) {
		return w.batches[i]
	}
	return nil
}

// Polls returns how many times Poll was called.
func (w *ScriptedWindow) Polls() int {
	return w.polls
}
