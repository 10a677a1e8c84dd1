// Package interpreter implements the statechart execution engine:
// transition selection under hierarchy and orthogonality, stabilization,
// clock and delayed-event handling, contract checking, and
// bound-interpreter event propagation.
package interpreter

import (
	"sync"

	"github.com/google/uuid"
	"github.com/kairoscore/statechart/pkg/clock"
	"github.com/kairoscore/statechart/pkg/evaluator"
	"github.com/kairoscore/statechart/pkg/eventqueue"
	"github.com/kairoscore/statechart/pkg/model"
)

// Options configures an Interpreter at construction time.
type Options struct {
	// Clock is the time source sampled once per tick. Defaults to a fresh
	// clock.Simulated starting at 0.
	Clock clock.Clock
	// ContractsEnabled controls whether contract violations raise typed
	// errors (true) or are only reported as meta-events (false). Defaults
	// to true.
	ContractsEnabled bool
	// ContractsEnabledSet distinguishes "ContractsEnabled explicitly set to
	// false" from "not set" in a functional-option-free Options literal.
	ContractsEnabledSet bool
}

// Option mutates an Options value.
type Option func(*Options)

// WithClock overrides the default clock.
func WithClock(c clock.Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// WithContractsDisabled turns contract violations into meta-events only.
func WithContractsDisabled() Option {
	return func(o *Options) { o.ContractsEnabled = false; o.ContractsEnabledSet = true }
}

// Interpreter executes one Statechart against a stream of events, one
// macro step per ExecuteOnce call. An Interpreter owns its configuration,
// queues, history memories, and timestamps exclusively; the Statechart it
// was built with is immutable and may be shared, while an Evaluator is
// owned by exactly one interpreter.
type Interpreter struct {
	mu sync.RWMutex

	sc   *model.Statechart
	eval evaluator.Evaluator
	clk  clock.Clock
	q    *eventqueue.Queue

	contractsEnabled bool

	config     map[string]bool
	configSeq  map[string]int // insertion sequence, for deterministic traversal
	seqCounter int

	historyShallow map[string]string   // history state -> remembered sibling
	historyDeep    map[string][]string // history state -> remembered leaf set

	entryTime          map[string]float64
	lastTransitionTime float64
	time               float64

	started bool
	final   bool

	listeners   []listenerEntry
	listenerSeq int
	trace       []MacroStep

	// propertyErr is set by an attached property statechart's listener when
	// it reaches a final state, and surfaced from the ExecuteOnce call that
	// triggered it (fail-fast property checking).
	propertyErr error

	// sentThisStep backs the sent() evaluator predicate, scoped to the
	// current macro step only.
	sentThisStep map[string]bool
	// pendingSends accumulates every send() buffered by micro steps in the
	// current macro step's batch, in occurrence order, for release into the
	// internal queue at the end of the batch.
	pendingSends []bufferedSend
}

// New builds an Interpreter over an immutable, validated Statechart and an
// Evaluator. The interpreter is not started; call ExecuteOnce to enter the
// initial configuration.
func New(sc *model.Statechart, eval evaluator.Evaluator, opts ...Option) *Interpreter {
	o := Options{}
	for _, apply := range opts {
		apply(&o)
	}
	if o.Clock == nil {
		o.Clock = clock.NewSimulated()
	}
	contractsEnabled := true
	if o.ContractsEnabledSet {
		contractsEnabled = o.ContractsEnabled
	}

	return &Interpreter{
		sc:               sc,
		eval:             eval,
		clk:              o.Clock,
		q:                eventqueue.New(),
		contractsEnabled: contractsEnabled,
		config:           map[string]bool{},
		configSeq:        map[string]int{},
		historyShallow:   map[string]string{},
		historyDeep:      map[string][]string{},
		entryTime:        map[string]float64{},
		sentThisStep:     map[string]bool{},
	}
}

// newEventID allocates a fresh, unique event correlation ID.
func newEventID() string { return uuid.NewString() }

// newStepID allocates a fresh macro-step ID, used to correlate a trace
// entry with external observability (e.g. a tracing backend's span).
func newStepID() string { return uuid.NewString() }

// Configuration returns the set of currently active state names.
func (in *Interpreter) Configuration() []string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	out := make([]string, 0, len(in.config))
	for name := range in.config {
		out = append(out, name)
	}
	return out
}

// Context returns a read-only snapshot of the evaluation context.
func (in *Interpreter) Context() map[string]interface{} {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.eval.Context()
}

// Time returns the clock value sampled at the start of the last executed
// step.
func (in *Interpreter) Time() float64 {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.time
}

// Final reports whether the interpreter has reached termination.
func (in *Interpreter) Final() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.final
}

// Trace returns every macro step executed so far.
func (in *Interpreter) Trace() []MacroStep {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]MacroStep(nil), in.trace...)
}

// Clock returns the interpreter's clock handle.
func (in *Interpreter) Clock() clock.Clock {
	return in.clk
}

// Statechart returns the immutable statechart this interpreter executes.
func (in *Interpreter) Statechart() *model.Statechart {
	return in.sc
}

// isActive reports whether name is in the live configuration. Exported via
// the evaluator.StepContext.Active hook, not directly.
func (in *Interpreter) isActive(name string) bool {
	return in.config[name]
}

func (in *Interpreter) addToConfig(name string) {
	if in.config[name] {
		return
	}
	in.config[name] = true
	in.configSeq[name] = in.seqCounter
	in.seqCounter++
}

func (in *Interpreter) removeFromConfig(name string) {
	delete(in.config, name)
	delete(in.configSeq, name)
}

func (in *Interpreter) configSnapshot() map[string]bool {
	out := make(map[string]bool, len(in.config))
	for k := range in.config {
		out[k] = true
	}
	return out
}

func (in *Interpreter) configList() []string {
	out := make([]string, 0, len(in.config))
	for k := range in.config {
		out = append(out, k)
	}
	return out
}
