package interpreter

import "fmt"

// Kind distinguishes the runtime error taxonomy.
type Kind string

const (
	KindNonDeterminism     Kind = "non_determinism"
	KindPrecondition       Kind = "precondition"
	KindPostcondition      Kind = "postcondition"
	KindInvariant          Kind = "invariant"
	KindPropertyStatechart Kind = "property_statechart"
	KindEvaluator          Kind = "evaluator"
)

// baseError is the common shape of every runtime error this package raises.
// Callers can switch on Kind or use errors.As for the concrete wrapper
// types below.
type baseError struct {
	Kind      Kind
	StateID   string
	Assertion string
	Step      string
	Config    []string
	Cause     error
}

func (e *baseError) Error() string {
	msg := fmt.Sprintf("%s", e.Kind)
	if e.StateID != "" {
		msg += fmt.Sprintf(" state=%s", e.StateID)
	}
	if e.Assertion != "" {
		msg += fmt.Sprintf(" assertion=%q", e.Assertion)
	}
	if e.Step != "" {
		msg += fmt.Sprintf(" step=%s", e.Step)
	}
	if len(e.Config) > 0 {
		msg += fmt.Sprintf(" config=%v", e.Config)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(" cause=%v", e.Cause)
	}
	return msg
}

func (e *baseError) Unwrap() error { return e.Cause }

// NonDeterminismError is raised when two or more candidate transitions
// remain in the same region after conflict resolution.
type NonDeterminismError struct{ *baseError }

// PreconditionError is raised when a precondition evaluates false. Its
// payload names the offending state, the assertion text, a description of
// the step in progress, and the active configuration at the time of
// failure.
type PreconditionError struct{ *baseError }

// PostconditionError is raised when a postcondition evaluates false.
type PostconditionError struct{ *baseError }

// InvariantError is raised when an invariant evaluates false.
type InvariantError struct{ *baseError }

// PropertyStatechartError is raised when an attached property statechart
// reaches a final state.
type PropertyStatechartError struct{ *baseError }

// EvaluatorError wraps an error surfaced by the evaluator while running a
// guard, action, or contract fragment.
type EvaluatorError struct{ *baseError }

func newNonDeterminism(config []string, sources []string) error {
	return &NonDeterminismError{&baseError{
		Kind:   KindNonDeterminism,
		Step:   fmt.Sprintf("conflicting sources: %v", sources),
		Config: config,
	}}
}

func newPrecondition(stateID, assertion, step string, config []string, cause error) error {
	return &PreconditionError{&baseError{Kind: KindPrecondition, StateID: stateID, Assertion: assertion, Step: step, Config: config, Cause: cause}}
}

func newPostcondition(stateID, assertion, step string, config []string, cause error) error {
	return &PostconditionError{&baseError{Kind: KindPostcondition, StateID: stateID, Assertion: assertion, Step: step, Config: config, Cause: cause}}
}

func newInvariant(stateID, assertion, step string, config []string, cause error) error {
	return &InvariantError{&baseError{Kind: KindInvariant, StateID: stateID, Assertion: assertion, Step: step, Config: config, Cause: cause}}
}

func newPropertyStatechart(name string, config []string) error {
	return &PropertyStatechartError{&baseError{Kind: KindPropertyStatechart, StateID: name, Config: config}}
}

func newEvaluatorError(stateID, step string, cause error) error {
	return &EvaluatorError{&baseError{Kind: KindEvaluator, StateID: stateID, Step: step, Cause: cause}}
}
