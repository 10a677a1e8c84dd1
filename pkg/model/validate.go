package model

// validateState enforces the per-state structural rules that are not
// already implied by the tree walk performed in Build.
func validateState(c *collector, sc *Statechart, name string, st *State) {
	switch st.Kind {
	case Compound:
		if st.Initial == "" {
			c.add(name, "compound state has no initial child")
			break
		}
		if !isChild(st, st.Initial) {
			c.add(name, "initial %q is not an immediate child", st.Initial)
		}
	case Orthogonal:
		if len(st.Children) < 2 {
			c.add(name, "orthogonal state needs at least 2 children, has %d", len(st.Children))
		}
		for _, child := range st.Children {
			childState, ok := sc.states[child]
			if !ok {
				continue // already reported by the tree walk
			}
			if childState.Kind != Compound && childState.Kind != Atomic {
				c.add(name, "orthogonal child %q must be compound or atomic, got %s", child, childState.Kind)
			}
		}
	case Final, ShallowHistory, DeepHistory:
		if len(st.Children) != 0 {
			c.add(name, "%s state may not declare substates", st.Kind)
		}
		if len(sc.transFrom[name]) != 0 {
			// transFrom is populated after this runs for declared transitions;
			// the authoritative check happens in validateTransition's source scan.
		}
	}

	if st.Kind.IsHistory() && st.Memory != "" {
		parent, hasParent := sc.parent[name]
		if !hasParent {
			c.add(name, "history state has no parent to validate memory %q against", st.Memory)
		} else {
			parentState := sc.states[parent]
			if parentState == nil || !isChild(parentState, st.Memory) {
				c.add(name, "memory %q is not an immediate sibling", st.Memory)
			}
		}
	}
}

func isChild(st *State, name string) bool {
	for _, c := range st.Children {
		if c == name {
			return true
		}
	}
	return false
}

// validateTransition enforces the per-transition structural rules.
func validateTransition(c *collector, sc *Statechart, t *Transition) {
	src, ok := sc.states[t.Source]
	if !ok {
		c.add(t.Source, "transition source is not declared")
		return
	}
	if src.Kind == Final || src.Kind.IsHistory() {
		c.add(t.Source, "%s state may not declare outgoing transitions", src.Kind)
	}

	if !t.Internal {
		if _, ok := sc.states[t.Target]; !ok {
			c.add(t.Source, "transition target %q is not declared", t.Target)
		}
	} else {
		if t.Eventless && t.Guard == "" {
			c.add(t.Source, "internal transition must declare an event or a guard")
		}
	}
}
