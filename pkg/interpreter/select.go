package interpreter

import (
	"sort"

	"github.com/kairoscore/statechart/pkg/model"
)

// candidate pairs a transition with the active source state it was
// collected from. No separate ancestor lookup is needed: ancestors of an
// active leaf are themselves active, so iterating the configuration
// already covers transitions declared on them.
type candidate struct {
	t      *model.Transition
	source string
}

// collectCandidates gathers every transition sourced at an active state,
// split into eventless and event-bearing groups.
func (in *Interpreter) collectCandidates() (eventless, eventful []candidate) {
	for _, name := range in.orderedConfig() {
		for _, t := range in.sc.TransitionsFrom(name) {
			c := candidate{t: t, source: name}
			if t.Eventless {
				eventless = append(eventless, c)
			} else {
				eventful = append(eventful, c)
			}
		}
	}
	return eventless, eventful
}

func (in *Interpreter) evalGuard(t *model.Transition, ev *model.Event) (bool, error) {
	if t.Guard == "" {
		return true, nil
	}
	sc := in.stepContext(t.Source, ev, nil)
	ok, err := in.eval.EvaluateGuard(t.Guard, sc)
	if err != nil {
		return false, newEvaluatorError(t.Source, "guard evaluation", err)
	}
	return ok, nil
}

// selectTransitions runs the full selection pipeline: candidate
// collection, event selection, guard filtering, priority filtering,
// inner-first resolution, non-determinism detection, and parallel
// ordering. It returns the ordered transitions to apply, the event consumed
// (nil for an eventless batch), and whether an event was consumable at all
// (used by the caller to decide between returning a MacroStep and nil).
func (in *Interpreter) selectTransitions() (ordered []candidate, ev *model.Event, consumed bool, err error) {
	eventlessCands, eventfulCands := in.collectCandidates()

	var satisfied []candidate
	for _, c := range eventlessCands {
		ok, gerr := in.evalGuard(c.t, nil)
		if gerr != nil {
			return nil, nil, false, gerr
		}
		if ok {
			satisfied = append(satisfied, c)
		}
	}

	var survivors []candidate
	if len(satisfied) > 0 {
		survivors = satisfied
	} else {
		popped, ok := in.q.Pop(in.time)
		if !ok {
			return nil, nil, false, nil
		}
		ev = &popped
		consumed = true
		for _, c := range eventfulCands {
			if c.t.Event != popped.Name {
				continue
			}
			ok, gerr := in.evalGuard(c.t, ev)
			if gerr != nil {
				return nil, ev, consumed, gerr
			}
			if ok {
				survivors = append(survivors, c)
			}
		}
	}

	survivors = filterByPriority(survivors)
	survivors = in.resolveInnerFirst(survivors)

	ordered, err = in.orderParallel(survivors)
	return ordered, ev, consumed, err
}

// filterByPriority keeps, within each distinct source state, only the
// candidate(s) carrying the maximum priority.
func filterByPriority(cands []candidate) []candidate {
	best := map[string]int{}
	for _, c := range cands {
		if p, ok := best[c.source]; !ok || c.t.Priority > p {
			best[c.source] = c.t.Priority
		}
	}
	out := make([]candidate, 0, len(cands))
	for _, c := range cands {
		if c.t.Priority == best[c.source] {
			out = append(out, c)
		}
	}
	return out
}

// resolveInnerFirst drops t2 whenever source(t1) is a strict descendant of
// source(t2), for every surviving pair: when two transitions would both
// fire, the one rooted at the deeper source wins. All survivors at this
// point contend for the same event (or all are eventless).
func (in *Interpreter) resolveInnerFirst(cands []candidate) []candidate {
	drop := make([]bool, len(cands))
	for i := range cands {
		for j := range cands {
			if i == j {
				continue
			}
			if in.sc.IsAncestor(cands[j].source, cands[i].source) {
				drop[j] = true
			}
		}
	}
	out := make([]candidate, 0, len(cands))
	for i, c := range cands {
		if !drop[i] {
			out = append(out, c)
		}
	}
	return out
}

// orderParallel enforces the region rule: surviving same-depth candidates
// must come from distinct orthogonal regions, else NonDeterminismError; the
// rest are ordered by decreasing source depth, lexicographic tiebreak.
func (in *Interpreter) orderParallel(cands []candidate) ([]candidate, error) {
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			a, b := cands[i], cands[j]
			if in.sc.DepthFor(a.source) == in.sc.DepthFor(b.source) && !in.distinctRegions(a.source, b.source) {
				return nil, newNonDeterminism(in.configList(), []string{a.source, b.source})
			}
		}
	}
	out := append([]candidate(nil), cands...)
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := in.sc.DepthFor(out[i].source), in.sc.DepthFor(out[j].source)
		if di != dj {
			return di > dj
		}
		return out[i].source < out[j].source
	})
	return out, nil
}

// distinctRegions reports whether a and b descend from different children
// of their lowest common orthogonal ancestor. Given the configuration
// invariant that a compound state never has two active children at once,
// any two distinct active, mutually-non-ancestor states are guaranteed to
// diverge at an orthogonal ancestor in a well-formed configuration; this
// still checks explicitly so a genuine conflict (e.g. two transitions from
// the very same source) is reported rather than assumed away.
func (in *Interpreter) distinctRegions(a, b string) bool {
	if a == b {
		return false
	}
	lca := in.sc.LCA(a, b)
	lcaState, ok := in.sc.StateFor(lca)
	if !ok || lcaState.Kind != model.Orthogonal {
		return false
	}
	return childTowards(in.sc, lca, a) != childTowards(in.sc, lca, b)
}

// childTowards returns the immediate child of ancestor that lies on the
// path down to descendant (descendant itself if it is that immediate
// child).
func childTowards(sc *model.Statechart, ancestor, descendant string) string {
	anc := sc.AncestorsFor(descendant)
	for i, a := range anc {
		if a == ancestor {
			if i+1 < len(anc) {
				return anc[i+1]
			}
			return descendant
		}
	}
	return ""
}
