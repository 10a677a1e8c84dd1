package interpreter

import "github.com/kairoscore/statechart/pkg/model"

// MetaKind enumerates the meta-event kinds delivered to listeners.
type MetaKind string

const (
	StepStarted         MetaKind = "step started"
	StepEnded           MetaKind = "step ended"
	EventConsumed       MetaKind = "event consumed"
	EventSent           MetaKind = "event sent"
	StateEntered        MetaKind = "state entered"
	StateExited         MetaKind = "state exited"
	TransitionProcessed MetaKind = "transition processed"

	// Contract violations are surfaced on the meta-event stream too, so
	// listeners observe them even when contract checking is disabled and no
	// error is raised.
	PreconditionViolation  MetaKind = "precondition violation"
	PostconditionViolation MetaKind = "postcondition violation"
	InvariantViolation     MetaKind = "invariant violation"
)

// MetaEvent is the payload delivered to listeners, synchronously, at the
// exact point its effect occurs.
type MetaEvent struct {
	Kind      MetaKind
	Time      float64
	Event     *model.Event
	State     string
	Source    string
	Target    string
	HasTarget bool
	Assertion string
}

// Listener consumes one meta-event. A listener that panics propagates to
// the caller of ExecuteOnce.
type Listener func(MetaEvent)

// ListenerHandle identifies a previously attached listener so it can later
// be detached. The zero value never identifies a real listener.
type ListenerHandle int

type listenerEntry struct {
	handle ListenerHandle
	fn     Listener
}

// Attach registers l to receive every meta-event this interpreter emits,
// synchronously, at the point each effect occurs. The returned handle can
// be passed to Detach.
func (in *Interpreter) Attach(l Listener) ListenerHandle {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.listenerSeq++
	h := ListenerHandle(in.listenerSeq)
	in.listeners = append(in.listeners, listenerEntry{handle: h, fn: l})
	return h
}

// Detach removes a previously attached listener. A no-op if h is unknown.
func (in *Interpreter) Detach(h ListenerHandle) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, e := range in.listeners {
		if e.handle == h {
			in.listeners = append(in.listeners[:i], in.listeners[i+1:]...)
			return
		}
	}
}

func (in *Interpreter) notify(me MetaEvent) {
	me.Time = in.time
	for _, e := range in.listeners {
		e.fn(me)
	}
}
