// Package evaluator defines the narrow capability the interpreter depends
// on for guards, actions, and contracts. The interpreter is parametric in
// the expression language; this package only fixes the contract, plus a
// trivial NoOp adapter. Concrete expression-language evaluators live
// outside this module.
package evaluator

import "github.com/kairoscore/statechart/pkg/model"

// Sender buffers an internal event emission for release at the end of the
// enclosing micro step.
type Sender func(name string, params map[string]interface{}, delay float64)

// StepContext is the bundle of time/event predicates and buffers the
// interpreter hands to the evaluator for one guard/action/contract
// evaluation. It is assembled fresh for each call; evaluators must not
// retain it past the call.
type StepContext struct {
	// Event is the in-flight event, or nil for an eventless transition.
	Event *model.Event
	// Now is the clock value sampled at the start of the current macro step.
	Now float64
	// EntryTime is the current state's entry timestamp, used by after(x).
	EntryTime float64
	// LastTransitionTime is the interpreter's last-transition timestamp,
	// used by idle(x).
	LastTransitionTime float64
	// Active reports whether a state is in the live configuration, updated
	// incrementally as the current step's exits and entries apply rather
	// than frozen at step start.
	Active func(name string) bool
	// Sent reports whether an event of the given name was sent so far
	// during the current step.
	Sent func(name string) bool
	// Received reports whether the in-flight event has the given name.
	Received func(name string) bool
	// Old is the frozen context snapshot computed at the paired pre-point,
	// for postcondition/invariant evaluation. Nil when evaluating a
	// precondition (there is no "old" yet).
	Old map[string]interface{}
	// Send buffers an internal event emission; see Sender.
	Send Sender
}

// Evaluator is the capability the interpreter invokes for every code
// fragment a statechart carries. One Evaluator instance is owned by
// exactly one interpreter.
type Evaluator interface {
	// EvaluateGuard evaluates a transition or eventless-transition guard.
	EvaluateGuard(code string, sc StepContext) (bool, error)
	// ExecuteAction runs a transition action. Internal events it wants to
	// emit must go through sc.Send.
	ExecuteAction(code string, sc StepContext) error
	// ExecuteOnEntry runs a state's on_entry code fragment.
	ExecuteOnEntry(stateName, code string, sc StepContext) error
	// ExecuteOnExit runs a state's on_exit code fragment.
	ExecuteOnExit(stateName, code string, sc StepContext) error
	// EvaluatePreconditions checks every precondition, returning the first
	// one that fails (empty string if all hold).
	EvaluatePreconditions(conds []string, sc StepContext) (failed string, err error)
	// EvaluatePostconditions checks every postcondition.
	EvaluatePostconditions(conds []string, sc StepContext) (failed string, err error)
	// EvaluateInvariants checks every invariant.
	EvaluateInvariants(conds []string, sc StepContext) (failed string, err error)
	// Context returns a read-only snapshot of the full evaluation context.
	Context() map[string]interface{}
	// ContextFor returns the read-only, flattened scope visible to
	// stateName (child scope chains to parent).
	ContextFor(stateName string) map[string]interface{}
}

// NoOp is the trivial Evaluator: every guard is true, every action/contract
// check is a no-op. It suits statecharts with no code fragments at all,
// e.g. pure-UML structural fixtures.
type NoOp struct{}

var _ Evaluator = NoOp{}

func (NoOp) EvaluateGuard(string, StepContext) (bool, error)              { return true, nil }
func (NoOp) ExecuteAction(string, StepContext) error                      { return nil }
func (NoOp) ExecuteOnEntry(string, string, StepContext) error             { return nil }
func (NoOp) ExecuteOnExit(string, string, StepContext) error              { return nil }
func (NoOp) EvaluatePreconditions([]string, StepContext) (string, error)  { return "", nil }
func (NoOp) EvaluatePostconditions([]string, StepContext) (string, error) { return "", nil }
func (NoOp) EvaluateInvariants([]string, StepContext) (string, error)     { return "", nil }
func (NoOp) Context() map[string]interface{}                              { return map[string]interface{}{} }
func (NoOp) ContextFor(string) map[string]interface{}                     { return map[string]interface{}{} }
