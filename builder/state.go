package builder

import "github.com/kairoscore/statechart/pkg/model"

// StateBuilder configures one state just added to the draft, then hands
// control back to Builder (End) or opens a transition from it (Transition).
type StateBuilder struct {
	b  *Builder
	st *model.State
}

// Initial sets a compound state's initial child.
func (s *StateBuilder) Initial(name string) *StateBuilder {
	s.st.Initial = name
	return s
}

// Memory sets a history pseudo-state's optional immediate-sibling
// reference.
func (s *StateBuilder) Memory(name string) *StateBuilder {
	s.st.Memory = name
	return s
}

// OnEntry sets the state's on-entry code fragment.
func (s *StateBuilder) OnEntry(code string) *StateBuilder {
	s.st.OnEntry = code
	return s
}

// OnExit sets the state's on-exit code fragment.
func (s *StateBuilder) OnExit(code string) *StateBuilder {
	s.st.OnExit = code
	return s
}

// Precondition adds a state-level precondition, checked before on_entry
// whenever this state is entered.
func (s *StateBuilder) Precondition(code string) *StateBuilder {
	s.st.Contract.Preconditions = append(s.st.Contract.Preconditions, code)
	return s
}

// Postcondition adds a state-level postcondition, checked after on_exit
// whenever this state is exited.
func (s *StateBuilder) Postcondition(code string) *StateBuilder {
	s.st.Contract.Postconditions = append(s.st.Contract.Postconditions, code)
	return s
}

// Invariant adds a state-level invariant, checked after on_exit and at the
// end of every macro step while the state is active.
func (s *StateBuilder) Invariant(code string) *StateBuilder {
	s.st.Contract.Invariants = append(s.st.Contract.Invariants, code)
	return s
}

// Transition opens a new outgoing transition from this state.
func (s *StateBuilder) Transition() *TransitionBuilder {
	t := &model.Transition{Source: s.st.Name}
	s.b.draft.Transitions = append(s.b.draft.Transitions, t)
	return &TransitionBuilder{b: s.b, t: t, state: s}
}

// State starts declaring another state, returning to the top-level builder.
func (s *StateBuilder) State(name string) *StateBuilder { return s.b.Atomic(name) }

// End returns to the top-level Builder for chaining.
func (s *StateBuilder) End() *Builder { return s.b }

// Build finalizes the whole statechart; a convenience so a fluent chain can
// end on whichever builder it happens to hold.
func (s *StateBuilder) Build() (*model.Statechart, error) { return s.b.Build() }
