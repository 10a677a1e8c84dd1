package interpreter

import "github.com/kairoscore/statechart/pkg/model"

// recordHistory runs when state s (a compound or orthogonal ancestor) is
// exited: any history pseudo-state among its direct children remembers the
// configuration that was active just before the exit began. preExit is the
// configuration snapshot taken at the very start of the micro step, before
// any state in the batch exited.
func (in *Interpreter) recordHistory(s string, preExit map[string]bool) {
	st, ok := in.sc.StateFor(s)
	if !ok {
		return
	}
	for _, childName := range st.Children {
		childState, ok := in.sc.StateFor(childName)
		if !ok || !childState.Kind.IsHistory() {
			continue
		}
		switch childState.Kind {
		case model.ShallowHistory:
			for _, sibling := range st.Children {
				sibState, _ := in.sc.StateFor(sibling)
				if sibState != nil && sibState.Kind.IsHistory() {
					continue
				}
				if preExit[sibling] {
					in.historyShallow[childName] = sibling
					break
				}
			}
		case model.DeepHistory:
			var leaves []string
			for _, d := range in.sc.DescendantsFor(s) {
				if !preExit[d] {
					continue
				}
				ds, ok := in.sc.StateFor(d)
				if ok && (ds.Kind == model.Atomic || ds.Kind == model.Final) {
					leaves = append(leaves, d)
				}
			}
			in.historyDeep[childName] = leaves
		}
	}
}

// resolveEntryChain expands a stabilization target into the concrete list
// of states to enter. For an ordinary state this is just the state itself;
// for a history pseudo-state it is the remembered configuration if one was
// recorded, the declared default memory otherwise, falling back to the
// owning compound's initial child.
func (in *Interpreter) resolveEntryChain(target string) ([]string, error) {
	st, ok := in.sc.StateFor(target)
	if !ok {
		return nil, newEvaluatorError(target, "resolve entry", errUnknownState(target))
	}
	if !st.Kind.IsHistory() {
		return []string{target}, nil
	}

	parentName, hasParent := in.sc.ParentFor(target)
	var parentState *model.State
	if hasParent {
		parentState, _ = in.sc.StateFor(parentName)
	}

	switch st.Kind {
	case model.ShallowHistory:
		if remembered, ok := in.historyShallow[target]; ok {
			return []string{remembered}, nil
		}
		if st.Memory != "" {
			return []string{st.Memory}, nil
		}
		if parentState != nil {
			return []string{parentState.Initial}, nil
		}
		return nil, nil
	case model.DeepHistory:
		if remembered, ok := in.historyDeep[target]; ok && len(remembered) > 0 {
			seen := map[string]bool{}
			var chain []string
			for _, leaf := range remembered {
				anc := in.sc.AncestorsFor(leaf)
				idx := indexOf(anc, parentName)
				var sub []string
				if idx >= 0 {
					sub = anc[idx+1:]
				} else {
					sub = anc
				}
				sub = append(sub, leaf)
				for _, s := range sub {
					if !seen[s] {
						seen[s] = true
						chain = append(chain, s)
					}
				}
			}
			return chain, nil
		}
		if st.Memory != "" {
			return []string{st.Memory}, nil
		}
		if parentState != nil {
			return []string{parentState.Initial}, nil
		}
		return nil, nil
	default:
		return []string{target}, nil
	}
}

type unknownStateError string

func (e unknownStateError) Error() string { return "unknown state: " + string(e) }

func errUnknownState(name string) error { return unknownStateError(name) }
