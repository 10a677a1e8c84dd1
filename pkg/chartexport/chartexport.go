// Package chartexport implements YAML export/import of a *model.Statechart:
// a textual form whose export/import round trip yields a structurally
// equal statechart, without a full indentation-based markup grammar.
package chartexport

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/kairoscore/statechart/builder"
	"github.com/kairoscore/statechart/pkg/model"
)

// Reserved tokens for the "type" field.
const (
	typeAtomic         = "atomic"
	typeCompound       = "compound"
	typeParallel       = "parallel"
	typeFinal          = "final"
	typeShallowHistory = "shallow history"
	typeDeepHistory    = "deep history"
)

// ContractSnapshot groups contract items by kind: before (preconditions),
// after (postconditions), always (invariants).
type ContractSnapshot struct {
	Before []string `json:"before,omitempty" yaml:"before,omitempty"`
	After  []string `json:"after,omitempty" yaml:"after,omitempty"`
	Always []string `json:"always,omitempty" yaml:"always,omitempty"`
}

func (c *ContractSnapshot) empty() bool {
	return c == nil || (len(c.Before) == 0 && len(c.After) == 0 && len(c.Always) == 0)
}

func exportContract(c model.Contract) *ContractSnapshot {
	if c.Empty() {
		return nil
	}
	return &ContractSnapshot{Before: c.Preconditions, After: c.Postconditions, Always: c.Invariants}
}

// StateSnapshot is one state's textual-form description.
type StateSnapshot struct {
	Name     string            `json:"name" yaml:"name"`
	Type     string            `json:"type,omitempty" yaml:"type,omitempty"`
	Initial  string            `json:"initial,omitempty" yaml:"initial,omitempty"`
	Memory   string            `json:"memory,omitempty" yaml:"memory,omitempty"`
	Children []string          `json:"children,omitempty" yaml:"children,omitempty"`
	OnEntry  string            `json:"on_entry,omitempty" yaml:"on_entry,omitempty"`
	OnExit   string            `json:"on_exit,omitempty" yaml:"on_exit,omitempty"`
	Contract *ContractSnapshot `json:"contract,omitempty" yaml:"contract,omitempty"`
}

// TransitionSnapshot is one transition's textual-form description.
type TransitionSnapshot struct {
	Source   string            `json:"source" yaml:"source"`
	Target   string            `json:"target,omitempty" yaml:"target,omitempty"`
	Event    string            `json:"event,omitempty" yaml:"event,omitempty"`
	Guard    string            `json:"guard,omitempty" yaml:"guard,omitempty"`
	Action   string            `json:"action,omitempty" yaml:"action,omitempty"`
	Priority int               `json:"priority,omitempty" yaml:"priority,omitempty"`
	Contract *ContractSnapshot `json:"contract,omitempty" yaml:"contract,omitempty"`
}

// Snapshot is the full textual form of a statechart.
type Snapshot struct {
	Name        string               `json:"name" yaml:"name"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Preamble    string               `json:"preamble,omitempty" yaml:"preamble,omitempty"`
	Root        string               `json:"root" yaml:"root"`
	States      []StateSnapshot      `json:"states" yaml:"states"`
	Transitions []TransitionSnapshot `json:"transitions,omitempty" yaml:"transitions,omitempty"`
}

func kindToType(k model.Kind) (string, error) {
	switch k {
	case model.Atomic:
		return typeAtomic, nil
	case model.Compound:
		return typeCompound, nil
	case model.Orthogonal:
		return typeParallel, nil
	case model.Final:
		return typeFinal, nil
	case model.ShallowHistory:
		return typeShallowHistory, nil
	case model.DeepHistory:
		return typeDeepHistory, nil
	default:
		return "", fmt.Errorf("chartexport: unknown state kind %v", k)
	}
}

func typeToKind(t string) (model.Kind, error) {
	switch t {
	case typeAtomic, "":
		return model.Atomic, nil
	case typeCompound:
		return model.Compound, nil
	case typeParallel:
		return model.Orthogonal, nil
	case typeFinal:
		return model.Final, nil
	case typeShallowHistory:
		return model.ShallowHistory, nil
	case typeDeepHistory:
		return model.DeepHistory, nil
	default:
		return 0, fmt.Errorf("chartexport: unknown type %q", t)
	}
}

// Export renders sc as a Snapshot, ready for YAML marshaling. States and
// transitions are emitted in the statechart's stable declaration order
// (model.OrderFor), so two exports of the same statechart produce
// byte-identical YAML.
func Export(sc *model.Statechart) (*Snapshot, error) {
	names := sc.AllStates()
	orderedNames := append([]string(nil), names...)
	sortByOrder(sc, orderedNames)

	snap := &Snapshot{
		Name:        sc.Name(),
		Description: sc.Description(),
		Preamble:    sc.Preamble(),
		Root:        sc.Root(),
	}

	for _, name := range orderedNames {
		st, _ := sc.StateFor(name)
		typ, err := kindToType(st.Kind)
		if err != nil {
			return nil, err
		}
		snap.States = append(snap.States, StateSnapshot{
			Name:     st.Name,
			Type:     typ,
			Initial:  st.Initial,
			Memory:   st.Memory,
			Children: append([]string(nil), st.Children...),
			OnEntry:  st.OnEntry,
			OnExit:   st.OnExit,
			Contract: exportContract(st.Contract),
		})
		for _, t := range sc.TransitionsFrom(name) {
			snap.Transitions = append(snap.Transitions, TransitionSnapshot{
				Source:   t.Source,
				Target:   t.Target,
				Event:    t.Event,
				Guard:    t.Guard,
				Action:   t.Action,
				Priority: t.Priority,
				Contract: exportContract(t.Contract),
			})
		}
	}

	return snap, nil
}

func sortByOrder(sc *model.Statechart, names []string) {
	for i := 1; i < len(names); i++ {
		for j := i; j > 0 && sc.OrderFor(names[j]) < sc.OrderFor(names[j-1]); j-- {
			names[j], names[j-1] = names[j-1], names[j]
		}
	}
}

// Marshal renders the snapshot as YAML.
func (s *Snapshot) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

// Parse reads a Snapshot from YAML.
func Parse(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		log.Debug().Err(err).Msg("statechart parse failed")
		return nil, fmt.Errorf("chartexport: parse: %w", err)
	}
	return &snap, nil
}

// Import rebuilds a *model.Statechart from the snapshot via the builder
// package: exporting a valid statechart and re-importing it yields a
// structurally equal statechart.
func (s *Snapshot) Import() (*model.Statechart, error) {
	b := builder.New(s.Name).Description(s.Description).Preamble(s.Preamble).Root(s.Root)

	for _, st := range s.States {
		kind, err := typeToKind(st.Type)
		if err != nil {
			return nil, err
		}
		var sb *builder.StateBuilder
		switch kind {
		case model.Atomic:
			sb = b.Atomic(st.Name)
		case model.Final:
			sb = b.Final(st.Name)
		case model.Compound:
			sb = b.Compound(st.Name, st.Children...)
		case model.Orthogonal:
			sb = b.Orthogonal(st.Name, st.Children...)
		case model.ShallowHistory:
			sb = b.ShallowHistory(st.Name)
		case model.DeepHistory:
			sb = b.DeepHistory(st.Name)
		}
		sb.Initial(st.Initial).Memory(st.Memory).OnEntry(st.OnEntry).OnExit(st.OnExit)
		applyContractToState(sb, st.Contract)
	}

	for _, t := range s.Transitions {
		// A Snapshot's transitions are a flat list separate from their source
		// state's declaration, so the source is re-opened rather than chained.
		tb := b.Reopen(t.Source).Transition()
		if t.Target != "" {
			tb.To(t.Target)
		}
		if t.Event != "" {
			tb.On(t.Event)
		}
		tb.Guard(t.Guard).Action(t.Action).Priority(t.Priority)
		applyContractToTransition(tb, t.Contract)
	}

	return b.Build()
}

func applyContractToState(sb *builder.StateBuilder, c *ContractSnapshot) {
	if c.empty() {
		return
	}
	for _, p := range c.Before {
		sb.Precondition(p)
	}
	for _, p := range c.After {
		sb.Postcondition(p)
	}
	for _, p := range c.Always {
		sb.Invariant(p)
	}
}

func applyContractToTransition(tb *builder.TransitionBuilder, c *ContractSnapshot) {
	if c.empty() {
		return
	}
	for _, p := range c.Before {
		tb.Precondition(p)
	}
	for _, p := range c.After {
		tb.Postcondition(p)
	}
	for _, p := range c.Always {
		tb.Invariant(p)
	}
}
