package interpreter

import (
	"github.com/kairoscore/statechart/pkg/evaluator"
	"github.com/kairoscore/statechart/pkg/model"
)

// stepContext assembles the StepContext passed to the evaluator for one
// call, scoping the after(x)/idle(x) predicates to entrySubject (the state
// whose entry time after(x) should read).
func (in *Interpreter) stepContext(entrySubject string, ev *model.Event, old map[string]interface{}) evaluator.StepContext {
	return evaluator.StepContext{
		Event:              ev,
		Now:                in.time,
		EntryTime:          in.entryTime[entrySubject],
		LastTransitionTime: in.lastTransitionTime,
		Active:             in.isActive,
		Sent:               func(name string) bool { return in.sentThisStep[name] },
		Received:           func(name string) bool { return ev != nil && ev.Name == name },
		Old:                old,
		Send:               in.sendFunc(),
	}
}

func (in *Interpreter) sendFunc() evaluator.Sender {
	return func(name string, params map[string]interface{}, delay float64) {
		ev := model.Event{Name: name, Params: params, ID: newEventID()}
		in.pendingSends = append(in.pendingSends, bufferedSend{Event: ev, Delay: delay})
		in.sentThisStep[name] = true
		in.notify(MetaEvent{Kind: EventSent, Event: &ev})
	}
}

// runPreconditions evaluates conds and either raises a PreconditionError or,
// when contracts are disabled, reports the violation as a meta-event only.
func (in *Interpreter) runPreconditions(conds []string, objID, step string, ev *model.Event) error {
	if len(conds) == 0 {
		return nil
	}
	sc := in.stepContext(objID, ev, nil)
	failed, err := in.eval.EvaluatePreconditions(conds, sc)
	if err != nil {
		return newEvaluatorError(objID, step, err)
	}
	if failed == "" {
		return nil
	}
	in.notify(MetaEvent{Kind: PreconditionViolation, State: objID, Assertion: failed})
	if !in.contractsEnabled {
		return nil
	}
	return newPrecondition(objID, failed, step, in.configList(), nil)
}

// runPostconditions evaluates conds against the frozen old snapshot taken
// at the paired pre-point.
func (in *Interpreter) runPostconditions(conds []string, objID, step string, ev *model.Event, old map[string]interface{}) error {
	if len(conds) == 0 {
		return nil
	}
	sc := in.stepContext(objID, ev, old)
	failed, err := in.eval.EvaluatePostconditions(conds, sc)
	if err != nil {
		return newEvaluatorError(objID, step, err)
	}
	if failed == "" {
		return nil
	}
	in.notify(MetaEvent{Kind: PostconditionViolation, State: objID, Assertion: failed})
	if !in.contractsEnabled {
		return nil
	}
	return newPostcondition(objID, failed, step, in.configList(), nil)
}

// runInvariants evaluates conds against the frozen old snapshot.
func (in *Interpreter) runInvariants(conds []string, objID, step string, ev *model.Event, old map[string]interface{}) error {
	if len(conds) == 0 {
		return nil
	}
	sc := in.stepContext(objID, ev, old)
	failed, err := in.eval.EvaluateInvariants(conds, sc)
	if err != nil {
		return newEvaluatorError(objID, step, err)
	}
	if failed == "" {
		return nil
	}
	in.notify(MetaEvent{Kind: InvariantViolation, State: objID, Assertion: failed})
	if !in.contractsEnabled {
		return nil
	}
	return newInvariant(objID, failed, step, in.configList(), nil)
}

// checkAllActiveInvariants runs every active state's invariants at the end
// of a macro step, even when no transition fired.
func (in *Interpreter) checkAllActiveInvariants(ev *model.Event) error {
	for _, name := range in.orderedConfig() {
		st, ok := in.sc.StateFor(name)
		if !ok || len(st.Contract.Invariants) == 0 {
			continue
		}
		old := in.eval.ContextFor(name)
		if err := in.runInvariants(st.Contract.Invariants, name, "end-of-step invariant check", ev, old); err != nil {
			return err
		}
	}
	return nil
}

// orderedConfig returns the active configuration sorted by insertion
// sequence, for deterministic iteration during contract checks and traces.
func (in *Interpreter) orderedConfig() []string {
	type pair struct {
		name string
		seq  int
	}
	pairs := make([]pair, 0, len(in.config))
	for name := range in.config {
		pairs = append(pairs, pair{name, in.configSeq[name]})
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].seq < pairs[j-1].seq; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.name
	}
	return out
}

// bufferedSend is one emission captured during a micro step's action,
// awaiting release into the internal queue at the end of the macro step.
type bufferedSend struct {
	Event model.Event
	Delay float64
}
