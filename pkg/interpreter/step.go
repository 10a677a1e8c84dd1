package interpreter

import "github.com/kairoscore/statechart/pkg/model"

// MicroStepKind distinguishes the two shapes a micro step can take.
type MicroStepKind string

const (
	// StepTransition is the application of one selected transition.
	StepTransition MicroStepKind = "transition"
	// StepStabilization is a pure configuration-completing step: entering a
	// composite's initial child, an orthogonal's regions, or a history
	// pseudo-state's remembered configuration.
	StepStabilization MicroStepKind = "stabilization"
)

// MicroStep records one atomic effect applied within a macro step.
type MicroStep struct {
	Kind      MicroStepKind
	Source    string
	Target    string
	HasTarget bool
	Event     *model.Event
	Exited    []string
	Entered   []string
}

// MacroStep is the full record of one ExecuteOnce call that made progress:
// the sampled time, every micro step applied, and every event released into
// the internal queue during the step.
type MacroStep struct {
	ID         string
	Time       float64
	Steps      []MicroStep
	SentEvents []model.Event
}
