package observers

import (
	"sync"

	"github.com/kairoscore/statechart/pkg/interpreter"
)

// Metrics collects in-memory counters over a meta-event stream: macro
// steps, state visits, transitions, events, and contract violations.
type Metrics struct {
	mu sync.RWMutex

	steps            int
	stateEntries     map[string]int
	stateExits       map[string]int
	transitionCounts map[string]int
	eventCounts      map[string]int
	violationCounts  map[interpreter.MetaKind]int
}

// NewMetrics creates an empty Metrics observer.
func NewMetrics() *Metrics {
	return &Metrics{
		stateEntries:     map[string]int{},
		stateExits:       map[string]int{},
		transitionCounts: map[string]int{},
		eventCounts:      map[string]int{},
		violationCounts:  map[interpreter.MetaKind]int{},
	}
}

// Listener returns the interpreter.Listener function to Attach.
func (o *Metrics) Listener() interpreter.Listener {
	return o.onMetaEvent
}

func (o *Metrics) onMetaEvent(me interpreter.MetaEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch me.Kind {
	case interpreter.StepStarted:
		o.steps++
	case interpreter.StateEntered:
		o.stateEntries[me.State]++
	case interpreter.StateExited:
		o.stateExits[me.State]++
	case interpreter.TransitionProcessed:
		key := me.Source + "->" + me.Target
		if !me.HasTarget {
			key = me.Source + "->(internal)"
		}
		o.transitionCounts[key]++
	case interpreter.EventConsumed:
		if me.Event != nil {
			o.eventCounts[me.Event.Name]++
		}
	case interpreter.PreconditionViolation, interpreter.PostconditionViolation, interpreter.InvariantViolation:
		o.violationCounts[me.Kind]++
	}
}

// Steps returns the number of macro steps observed.
func (o *Metrics) Steps() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.steps
}

// StateEntries returns a copy of the per-state entry counts.
func (o *Metrics) StateEntries() map[string]int { return o.copyIntMap(o.stateEntries) }

// StateExits returns a copy of the per-state exit counts.
func (o *Metrics) StateExits() map[string]int { return o.copyIntMap(o.stateExits) }

// TransitionCounts returns a copy of the per-edge transition counts, keyed
// "source->target" ("source->(internal)" for internal transitions).
func (o *Metrics) TransitionCounts() map[string]int { return o.copyIntMap(o.transitionCounts) }

// EventCounts returns a copy of the per-event-name consumption counts.
func (o *Metrics) EventCounts() map[string]int { return o.copyIntMap(o.eventCounts) }

// ViolationCount returns how many times a given contract violation kind was
// observed.
func (o *Metrics) ViolationCount(kind interpreter.MetaKind) int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.violationCounts[kind]
}

func (o *Metrics) copyIntMap(m map[string]int) map[string]int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
