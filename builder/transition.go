package builder

import "github.com/kairoscore/statechart/pkg/model"

// TransitionBuilder configures one transition just opened from a state.
// Whether it ends up Internal or Eventless is inferred at Build time from
// whether To/On were ever called.
type TransitionBuilder struct {
	b     *Builder
	t     *model.Transition
	state *StateBuilder
}

// To sets the transition's target; a transition with no target is
// internal.
func (t *TransitionBuilder) To(target string) *TransitionBuilder {
	t.t.Target = target
	return t
}

// On sets the triggering event name; a transition with no event is
// eventless/automatic.
func (t *TransitionBuilder) On(event string) *TransitionBuilder {
	t.t.Event = event
	return t
}

// Guard sets the transition's guard expression.
func (t *TransitionBuilder) Guard(code string) *TransitionBuilder {
	t.t.Guard = code
	return t
}

// Action sets the transition's action code fragment.
func (t *TransitionBuilder) Action(code string) *TransitionBuilder {
	t.t.Action = code
	return t
}

// Priority sets the transition's priority (default 0; higher wins). See
// PriorityLow/PriorityHigh for the reserved-token values.
func (t *TransitionBuilder) Priority(p int) *TransitionBuilder {
	t.t.Priority = p
	return t
}

// Precondition adds a transition-level precondition.
func (t *TransitionBuilder) Precondition(code string) *TransitionBuilder {
	t.t.Contract.Preconditions = append(t.t.Contract.Preconditions, code)
	return t
}

// Postcondition adds a transition-level postcondition.
func (t *TransitionBuilder) Postcondition(code string) *TransitionBuilder {
	t.t.Contract.Postconditions = append(t.t.Contract.Postconditions, code)
	return t
}

// Invariant adds a transition-level invariant, checked before and after the
// transition fires.
func (t *TransitionBuilder) Invariant(code string) *TransitionBuilder {
	t.t.Contract.Invariants = append(t.t.Contract.Invariants, code)
	return t
}

// Transition opens another outgoing transition from the same source state.
func (t *TransitionBuilder) Transition() *TransitionBuilder { return t.state.Transition() }

// State returns to the originating state builder.
func (t *TransitionBuilder) State() *StateBuilder { return t.state }

// End returns to the top-level Builder for chaining.
func (t *TransitionBuilder) End() *Builder { return t.b }

// Build finalizes the whole statechart.
func (t *TransitionBuilder) Build() (*model.Statechart, error) { return t.b.Build() }
