package builder

import (
	"github.com/rs/zerolog/log"

	"github.com/kairoscore/statechart/pkg/model"
)

// Reserved priority values: the "low" and "high" shorthands translate to
// fixed priority integers.
const (
	PriorityLow  = -100
	PriorityHigh = 100
)

// Builder assembles a model.Draft and validates it into a *model.Statechart
// via model.Build.
type Builder struct {
	draft *model.Draft
	c     collector
}

// New starts a builder for a statechart with the given name.
func New(name string) *Builder {
	return &Builder{
		draft: &model.Draft{
			Name:   name,
			States: map[string]*model.State{},
		},
	}
}

// Description sets the statechart's human-readable description.
func (b *Builder) Description(d string) *Builder {
	b.draft.Description = d
	return b
}

// Preamble sets the initialization code fragment run once before the first
// step.
func (b *Builder) Preamble(code string) *Builder {
	b.draft.Preamble = code
	return b
}

// Root declares the name of the root state. It must also be added via one
// of the state constructors below.
func (b *Builder) Root(name string) *Builder {
	b.draft.RootName = name
	return b
}

func (b *Builder) addState(st *model.State) *StateBuilder {
	if _, exists := b.draft.States[st.Name]; exists {
		b.c.add("state %q declared more than once", st.Name)
	}
	b.draft.States[st.Name] = st
	return &StateBuilder{b: b, st: st}
}

// Atomic declares a leaf state with no substates.
func (b *Builder) Atomic(name string) *StateBuilder {
	return b.addState(&model.State{Name: name, Kind: model.Atomic})
}

// Final declares a terminal leaf state.
func (b *Builder) Final(name string) *StateBuilder {
	return b.addState(&model.State{Name: name, Kind: model.Final})
}

// Compound declares a state with ordered children, exactly one active at a
// time. Initial must be set via StateBuilder.Initial before Build.
func (b *Builder) Compound(name string, children ...string) *StateBuilder {
	return b.addState(&model.State{Name: name, Kind: model.Compound, Children: children})
}

// Orthogonal declares a parallel state whose children are all active
// together.
func (b *Builder) Orthogonal(name string, children ...string) *StateBuilder {
	return b.addState(&model.State{Name: name, Kind: model.Orthogonal, Children: children})
}

// ShallowHistory declares a shallow-history pseudo-state; Memory may be set
// via StateBuilder.Memory.
func (b *Builder) ShallowHistory(name string) *StateBuilder {
	return b.addState(&model.State{Name: name, Kind: model.ShallowHistory})
}

// DeepHistory declares a deep-history pseudo-state; Memory may be set via
// StateBuilder.Memory.
func (b *Builder) DeepHistory(name string) *StateBuilder {
	return b.addState(&model.State{Name: name, Kind: model.DeepHistory})
}

// Reopen returns a StateBuilder for a state already declared under name,
// for callers (such as pkg/chartexport) that describe a state's
// transitions separately from its declaration. Reports a builder error if
// name was never declared.
func (b *Builder) Reopen(name string) *StateBuilder {
	st, ok := b.draft.States[name]
	if !ok {
		b.c.add("cannot reopen undeclared state %q", name)
		st = &model.State{Name: name}
	}
	return &StateBuilder{b: b, st: st}
}

// Build finalizes the draft: it infers Internal/Eventless flags on every
// transition from whether Target/Event were set, then hands the draft to
// model.Build. Builder-level errors (duplicate declarations) are reported
// before structural validation runs, aggregated the same way model.Build
// aggregates its own errors.
func (b *Builder) Build() (*model.Statechart, error) {
	if b.c.hasErrors() {
		err := &Error{Errors: append([]error(nil), b.c.errs...)}
		log.Debug().Err(err).Str("statechart", b.draft.Name).Msg("statechart assembly failed")
		return nil, err
	}
	for _, t := range b.draft.Transitions {
		t.Internal = t.Target == ""
		t.Eventless = t.Event == ""
	}
	sc, err := model.Build(b.draft)
	if err != nil {
		log.Debug().Err(err).Str("statechart", b.draft.Name).Msg("statechart validation failed")
		return nil, err
	}
	return sc, nil
}
