package interpreter

import "github.com/kairoscore/statechart/pkg/model"

// queueOptions configures one Queue call.
type queueOptions struct {
	params   map[string]interface{}
	delay    float64
	internal bool
}

// QueueOption mutates the options for a single Queue call.
type QueueOption func(*queueOptions)

// WithParams attaches a parameter bag to the queued event.
func WithParams(params map[string]interface{}) QueueOption {
	return func(o *queueOptions) { o.params = params }
}

// WithDelay marks the queued event ineligible until the clock reaches
// queue-time + delay.
func WithDelay(delay float64) QueueOption {
	return func(o *queueOptions) { o.delay = delay }
}

// AsInternal enqueues the event on the internal queue instead of the
// external one, so it is drained with internal-event priority.
func AsInternal() QueueOption {
	return func(o *queueOptions) { o.internal = true }
}

// Queue enqueues an event by name, external by default.
func (in *Interpreter) Queue(name string, opts ...QueueOption) {
	var o queueOptions
	for _, apply := range opts {
		apply(&o)
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	ev := model.Event{Name: name, Params: o.params, ID: newEventID()}
	now := in.clk.Now()
	if o.internal {
		in.q.QueueInternal(ev, now, o.delay)
	} else {
		in.q.QueueExternal(ev, now, o.delay)
	}
}

// ExecuteOnce advances exactly one macro step, or returns a nil MacroStep
// if nothing could be done and no event was consumable. Once the
// interpreter is Final, it returns nil forever.
func (in *Interpreter) ExecuteOnce() (*MacroStep, error) {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.final {
		return nil, nil
	}

	now := in.clk.Now()
	in.time = now
	in.notify(MetaEvent{Kind: StepStarted, Time: now})
	in.sentThisStep = map[string]bool{}
	in.pendingSends = nil

	var steps []MicroStep
	var ev *model.Event

	if !in.started {
		in.started = true
		initSteps, err := in.enterInitialConfiguration(nil)
		steps = append(steps, initSteps...)
		if err != nil {
			return nil, err
		}
	} else {
		ordered, selected, consumed, err := in.selectTransitions()
		if err != nil {
			return nil, err
		}
		if len(ordered) == 0 && !consumed {
			if err := in.finishEmptyStep(); err != nil {
				return nil, err
			}
			return nil, nil
		}
		ev = selected
		if ev != nil {
			in.notify(MetaEvent{Kind: EventConsumed, Event: ev})
		}
		for _, c := range ordered {
			microSteps, terr := in.applyTransition(c.t, ev)
			steps = append(steps, microSteps...)
			if terr != nil {
				return nil, terr
			}
		}
		stabSteps, serr := in.stabilize(ev)
		steps = append(steps, stabSteps...)
		if serr != nil {
			return nil, serr
		}
	}

	sent, err := in.releasePendingSends()
	if err != nil {
		return nil, err
	}
	if err := in.checkAllActiveInvariants(ev); err != nil {
		return nil, err
	}
	in.updateFinal()

	ms := MacroStep{ID: newStepID(), Time: now, Steps: steps, SentEvents: sent}
	in.trace = append(in.trace, ms)
	in.notify(MetaEvent{Kind: StepEnded})

	if in.propertyErr != nil {
		perr := in.propertyErr
		in.propertyErr = nil
		return &ms, perr
	}
	return &ms, nil
}

// Execute repeatedly calls ExecuteOnce until it makes no further progress,
// or until maxSteps macro steps have run (maxSteps <= 0 means unbounded).
func (in *Interpreter) Execute(maxSteps int) ([]MacroStep, error) {
	var out []MacroStep
	for maxSteps <= 0 || len(out) < maxSteps {
		ms, err := in.ExecuteOnce()
		if err != nil {
			return out, err
		}
		if ms == nil {
			break
		}
		out = append(out, *ms)
	}
	return out, nil
}

// finishEmptyStep runs the tail of a macro step that selected no
// transition and consumed no event: buffered sends are released (there
// should be none), invariants are still checked, and step_ended still
// fires, but no MacroStep is recorded.
func (in *Interpreter) finishEmptyStep() error {
	if _, err := in.releasePendingSends(); err != nil {
		return err
	}
	if err := in.checkAllActiveInvariants(nil); err != nil {
		return err
	}
	in.notify(MetaEvent{Kind: StepEnded})
	return nil
}

// releasePendingSends drains this macro step's buffered send() emissions
// into the internal queue, in the order the producing micro steps ran.
func (in *Interpreter) releasePendingSends() ([]model.Event, error) {
	sent := make([]model.Event, 0, len(in.pendingSends))
	for _, bs := range in.pendingSends {
		in.q.QueueInternal(bs.Event, in.time, bs.Delay)
		sent = append(sent, bs.Event)
	}
	in.pendingSends = nil
	return sent, nil
}

// enterInitialConfiguration performs the very first macro step's work: run
// the preamble, enter the root state, then stabilize until the
// configuration is all atomic/final leaves.
func (in *Interpreter) enterInitialConfiguration(ev *model.Event) ([]MicroStep, error) {
	root := in.sc.Root()
	if code := in.sc.Preamble(); code != "" {
		sc := in.stepContext(root, ev, nil)
		if err := in.eval.ExecuteAction(code, sc); err != nil {
			return nil, newEvaluatorError(root, "preamble", err)
		}
	}
	if err := in.enterState(root, ev); err != nil {
		return nil, err
	}
	steps := []MicroStep{{Kind: StepStabilization, Target: root, HasTarget: true, Entered: []string{root}}}
	stabSteps, err := in.stabilize(ev)
	steps = append(steps, stabSteps...)
	return steps, err
}

// enterState runs one state's precondition check and on_entry, then adds it
// to the live configuration and records its entry timestamp.
func (in *Interpreter) enterState(name string, ev *model.Event) error {
	st, ok := in.sc.StateFor(name)
	if !ok {
		return newEvaluatorError(name, "state entry", errUnknownState(name))
	}
	if err := in.runPreconditions(st.Contract.Preconditions, name, "state entry precondition", ev); err != nil {
		return err
	}
	sc := in.stepContext(name, ev, nil)
	if err := in.eval.ExecuteOnEntry(name, st.OnEntry, sc); err != nil {
		return newEvaluatorError(name, "on_entry", err)
	}
	in.addToConfig(name)
	in.entryTime[name] = in.time
	in.notify(MetaEvent{Kind: StateEntered, State: name})
	return nil
}

// exitState runs one state's on_exit, removes it from the live
// configuration, then evaluates its postconditions and invariants against
// the frozen pre-exit context.
func (in *Interpreter) exitState(name string, ev *model.Event) error {
	st, ok := in.sc.StateFor(name)
	if !ok {
		return newEvaluatorError(name, "state exit", errUnknownState(name))
	}
	old := in.eval.ContextFor(name)
	sc := in.stepContext(name, ev, nil)
	if err := in.eval.ExecuteOnExit(name, st.OnExit, sc); err != nil {
		return newEvaluatorError(name, "on_exit", err)
	}
	in.removeFromConfig(name)
	in.notify(MetaEvent{Kind: StateExited, State: name})
	if err := in.runPostconditions(st.Contract.Postconditions, name, "state exit postcondition", ev, old); err != nil {
		return err
	}
	if err := in.runInvariants(st.Contract.Invariants, name, "state exit invariant", ev, old); err != nil {
		return err
	}
	return nil
}

// applyTransition executes one selected transition as a single micro step.
// Internal transitions (no target) skip exit/entry entirely but still run
// their action and contracts.
func (in *Interpreter) applyTransition(t *model.Transition, ev *model.Event) ([]MicroStep, error) {
	preContext := in.eval.Context()

	if err := in.runPreconditions(t.Contract.Preconditions, t.Source, "transition precondition", ev); err != nil {
		return nil, err
	}
	if err := in.runInvariants(t.Contract.Invariants, t.Source, "pre-transition invariant", ev, preContext); err != nil {
		return nil, err
	}

	if t.Internal {
		return in.applyInternalTransition(t, ev, preContext)
	}
	return in.applyExternalTransition(t, ev, preContext)
}

func (in *Interpreter) applyInternalTransition(t *model.Transition, ev *model.Event, preContext map[string]interface{}) ([]MicroStep, error) {
	if err := in.runAction(t, ev); err != nil {
		return nil, err
	}
	in.notify(MetaEvent{Kind: TransitionProcessed, Source: t.Source, Event: ev})
	steps := []MicroStep{{Kind: StepTransition, Source: t.Source, Event: ev}}

	if err := in.runPostconditions(t.Contract.Postconditions, t.Source, "transition postcondition", ev, preContext); err != nil {
		return steps, err
	}
	if err := in.runInvariants(t.Contract.Invariants, t.Source, "post-transition invariant", ev, preContext); err != nil {
		return steps, err
	}
	return steps, nil
}

func (in *Interpreter) applyExternalTransition(t *model.Transition, ev *model.Event, preContext map[string]interface{}) ([]MicroStep, error) {
	lca := in.sc.LCA(t.Source, t.Target)
	preExit := in.configSnapshot()

	exits := in.exitSet(t.Source, lca)
	var exited []string
	for _, name := range exits {
		if err := in.exitState(name, ev); err != nil {
			return []MicroStep{{Kind: StepTransition, Source: t.Source, Target: t.Target, HasTarget: true, Event: ev, Exited: exited}}, err
		}
		exited = append(exited, name)
	}
	for _, name := range exits {
		st, ok := in.sc.StateFor(name)
		if ok && (st.Kind == model.Compound || st.Kind == model.Orthogonal) {
			in.recordHistory(name, preExit)
		}
	}

	if err := in.runAction(t, ev); err != nil {
		return []MicroStep{{Kind: StepTransition, Source: t.Source, Target: t.Target, HasTarget: true, Event: ev, Exited: exited}}, err
	}
	in.notify(MetaEvent{Kind: TransitionProcessed, Source: t.Source, Target: t.Target, HasTarget: true, Event: ev})

	entryChain := in.entrySet(t.Target, lca)
	var entered []string
	for _, name := range entryChain {
		st, ok := in.sc.StateFor(name)
		if ok && st.Kind.IsHistory() {
			resolved, err := in.resolveEntryChain(name)
			if err != nil {
				return []MicroStep{{Kind: StepTransition, Source: t.Source, Target: t.Target, HasTarget: true, Event: ev, Exited: exited, Entered: entered}}, err
			}
			for _, r := range resolved {
				if err := in.enterState(r, ev); err != nil {
					return []MicroStep{{Kind: StepTransition, Source: t.Source, Target: t.Target, HasTarget: true, Event: ev, Exited: exited, Entered: entered}}, err
				}
				entered = append(entered, r)
			}
			continue
		}
		if err := in.enterState(name, ev); err != nil {
			return []MicroStep{{Kind: StepTransition, Source: t.Source, Target: t.Target, HasTarget: true, Event: ev, Exited: exited, Entered: entered}}, err
		}
		entered = append(entered, name)
	}

	in.lastTransitionTime = in.time
	steps := []MicroStep{{Kind: StepTransition, Source: t.Source, Target: t.Target, HasTarget: true, Event: ev, Exited: exited, Entered: entered}}

	if err := in.runPostconditions(t.Contract.Postconditions, t.Source, "transition postcondition", ev, preContext); err != nil {
		return steps, err
	}
	if err := in.runInvariants(t.Contract.Invariants, t.Source, "post-transition invariant", ev, preContext); err != nil {
		return steps, err
	}
	return steps, nil
}

// runAction executes a transition's action code fragment, if any.
func (in *Interpreter) runAction(t *model.Transition, ev *model.Event) error {
	if t.Action == "" {
		return nil
	}
	sc := in.stepContext(t.Source, ev, nil)
	if err := in.eval.ExecuteAction(t.Action, sc); err != nil {
		return newEvaluatorError(t.Source, "transition action", err)
	}
	return nil
}

// stabilize repeatedly extends the configuration until every compound
// state has exactly one active child and every orthogonal state has all of
// its children active, i.e. the configuration is entirely atomic/final
// leaves. Each stabilization target is recorded as one micro step: a single
// state, or every state a history pseudo-state resolves to.
func (in *Interpreter) stabilize(ev *model.Event) ([]MicroStep, error) {
	var steps []MicroStep
	for {
		target := in.findStabilizationTarget()
		if target == "" {
			break
		}
		st, ok := in.sc.StateFor(target)
		if !ok {
			return steps, newEvaluatorError(target, "stabilize", errUnknownState(target))
		}
		if st.Kind.IsHistory() {
			resolved, err := in.resolveEntryChain(target)
			if err != nil {
				return steps, err
			}
			var entered []string
			for _, r := range resolved {
				if err := in.enterState(r, ev); err != nil {
					return steps, err
				}
				entered = append(entered, r)
			}
			steps = append(steps, MicroStep{Kind: StepStabilization, Target: target, HasTarget: true, Entered: entered})
			continue
		}
		if err := in.enterState(target, ev); err != nil {
			return steps, err
		}
		steps = append(steps, MicroStep{Kind: StepStabilization, Target: target, HasTarget: true, Entered: []string{target}})
	}
	return steps, nil
}

// findStabilizationTarget scans the live configuration for the first
// compound state missing its active child, or orthogonal state missing one
// of its children, and returns the single state name that should be
// entered next. Returns "" once the configuration is fully stabilized.
func (in *Interpreter) findStabilizationTarget() string {
	for _, name := range in.orderedConfig() {
		st, ok := in.sc.StateFor(name)
		if !ok {
			continue
		}
		switch st.Kind {
		case model.Compound:
			if !in.hasActiveChild(st) {
				return st.Initial
			}
		case model.Orthogonal:
			for _, child := range st.Children {
				if !in.config[child] {
					return child
				}
			}
		}
	}
	return ""
}

func (in *Interpreter) hasActiveChild(st *model.State) bool {
	for _, c := range st.Children {
		if in.config[c] {
			return true
		}
	}
	return false
}

// updateFinal implements the finalization rule: the root being compound
// with an active final child, or orthogonal with every region's active
// leaf final, marks the interpreter Final.
func (in *Interpreter) updateFinal() {
	root := in.sc.Root()
	rst, ok := in.sc.StateFor(root)
	if !ok {
		return
	}
	switch rst.Kind {
	case model.Compound:
		for _, c := range rst.Children {
			if !in.config[c] {
				continue
			}
			if cs, ok := in.sc.StateFor(c); ok && cs.Kind == model.Final {
				in.final = true
			}
			return
		}
	case model.Orthogonal:
		for _, region := range rst.Children {
			if !in.regionAllFinal(region) {
				return
			}
		}
		in.final = true
	}
}

// regionAllFinal reports whether the active leaf reachable from name is (or
// all active leaves under name are, for nested orthogonal regions) Final.
func (in *Interpreter) regionAllFinal(name string) bool {
	st, ok := in.sc.StateFor(name)
	if !ok {
		return false
	}
	switch st.Kind {
	case model.Final:
		return in.config[name]
	case model.Compound:
		for _, c := range st.Children {
			if in.config[c] {
				return in.regionAllFinal(c)
			}
		}
		return false
	case model.Orthogonal:
		for _, c := range st.Children {
			if !in.regionAllFinal(c) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
