package model

import "sort"

// Draft is the unvalidated description assembled by a builder. Build
// consumes a Draft and either returns an immutable Statechart or a
// StatechartStructureError describing every problem found.
type Draft struct {
	Name        string
	Description string
	Preamble    string
	RootName    string
	States      map[string]*State
	Transitions []*Transition
}

// Statechart is the immutable, validated in-memory description of a
// hierarchical state machine. Every exported accessor is read-only and safe
// for concurrent use by multiple interpreters sharing one Statechart.
type Statechart struct {
	name        string
	description string
	preamble    string
	root        string
	states      map[string]*State
	parent      map[string]string
	transFrom   map[string][]*Transition
	depth       map[string]int
	ancestors   map[string][]string // root-first, excludes self
	descendants map[string][]string
	order       map[string]int // stable declaration order, tiebreaker only
}

// Build validates a Draft and, if it is well-formed, returns the resulting
// Statechart. A missing or undeclared root stops validation at once;
// otherwise every structural check runs before returning, so a single
// StatechartStructureError reports every violation found.
func Build(d *Draft) (*Statechart, error) {
	c := &collector{}

	if d.RootName == "" {
		c.add("", "draft has no root state name")
		return nil, c.err()
	}
	root, ok := d.States[d.RootName]
	if !ok {
		c.add(d.RootName, "root state %q is not declared", d.RootName)
		return nil, c.err()
	}

	sc := &Statechart{
		name:        d.Name,
		description: d.Description,
		preamble:    d.Preamble,
		root:        d.RootName,
		states:      d.States,
		parent:      map[string]string{},
		transFrom:   map[string][]*Transition{},
		depth:       map[string]int{},
		ancestors:   map[string][]string{},
		descendants: map[string][]string{},
		order:       map[string]int{},
	}

	if root.Kind == Orthogonal {
		c.add(d.RootName, "orthogonal state not allowed at top level; wrap it in a compound state")
	}

	seq := 0
	visited := map[string]bool{}
	var walk func(name string, anc []string, depth int)
	walk = func(name string, anc []string, depth int) {
		if visited[name] {
			c.add(name, "state reachable via more than one path (cycle or shared child)")
			return
		}
		visited[name] = true
		sc.order[name] = seq
		seq++
		sc.depth[name] = depth
		sc.ancestors[name] = append([]string(nil), anc...)
		if len(anc) > 0 {
			sc.parent[name] = anc[len(anc)-1]
		}

		st, ok := sc.states[name]
		if !ok {
			c.add(name, "referenced state is not declared")
			return
		}
		childAnc := append(append([]string(nil), anc...), name)
		for _, child := range st.Children {
			if _, ok := sc.states[child]; !ok {
				c.add(name, "child %q is not declared", child)
				continue
			}
			walk(child, childAnc, depth+1)
		}
	}
	walk(d.RootName, nil, 0)

	for name := range d.States {
		if !visited[name] {
			c.add(name, "state is not reachable from root %q", d.RootName)
		}
	}

	for name, st := range d.States {
		validateState(c, sc, name, st)
	}
	for _, t := range d.Transitions {
		validateTransition(c, sc, t)
		sc.transFrom[t.Source] = append(sc.transFrom[t.Source], t)
	}

	if err := c.err(); err != nil {
		return nil, err
	}

	for name := range sc.states {
		sc.descendants[name] = computeDescendants(sc, name)
	}

	return sc, nil
}

func computeDescendants(sc *Statechart, name string) []string {
	var out []string
	var walk func(string)
	walk = func(n string) {
		st := sc.states[n]
		for _, child := range st.Children {
			out = append(out, child)
			walk(child)
		}
	}
	walk(name)
	return out
}

// Name returns the statechart's declared name.
func (sc *Statechart) Name() string { return sc.name }

// Description returns the statechart's declared description, if any.
func (sc *Statechart) Description() string { return sc.description }

// Preamble returns the initialization code fragment run once before the
// first step, if any.
func (sc *Statechart) Preamble() string { return sc.preamble }

// Root returns the name of the root state.
func (sc *Statechart) Root() string { return sc.root }

// StateFor returns the named state and whether it exists.
func (sc *Statechart) StateFor(name string) (*State, bool) {
	st, ok := sc.states[name]
	return st, ok
}

// ParentFor returns the immediate parent of name, or "" if name is the root.
func (sc *Statechart) ParentFor(name string) (string, bool) {
	p, ok := sc.parent[name]
	return p, ok
}

// ChildrenFor returns the ordered immediate children of name.
func (sc *Statechart) ChildrenFor(name string) []string {
	st, ok := sc.states[name]
	if !ok {
		return nil
	}
	return append([]string(nil), st.Children...)
}

// TransitionsFrom returns the transitions declared with the given source.
func (sc *Statechart) TransitionsFrom(name string) []*Transition {
	return append([]*Transition(nil), sc.transFrom[name]...)
}

// AncestorsFor returns the strict ancestors of name, root-first, not
// including name itself.
func (sc *Statechart) AncestorsFor(name string) []string {
	return append([]string(nil), sc.ancestors[name]...)
}

// DescendantsFor returns every strict descendant of name, in a stable
// pre-order traversal.
func (sc *Statechart) DescendantsFor(name string) []string {
	return append([]string(nil), sc.descendants[name]...)
}

// DepthFor returns the depth of name, with the root at depth 0.
func (sc *Statechart) DepthFor(name string) int {
	return sc.depth[name]
}

// OrderFor returns the stable declaration-order index of name, used only as
// a deterministic tiebreaker in traversal, never for semantic priority.
func (sc *Statechart) OrderFor(name string) int {
	return sc.order[name]
}

// IsAncestor reports whether ancestor is a strict ancestor of descendant.
func (sc *Statechart) IsAncestor(ancestor, descendant string) bool {
	for _, a := range sc.ancestors[descendant] {
		if a == ancestor {
			return true
		}
	}
	return false
}

// IsSelfOrAncestor reports whether ancestor equals descendant or is a strict
// ancestor of it.
func (sc *Statechart) IsSelfOrAncestor(ancestor, descendant string) bool {
	return ancestor == descendant || sc.IsAncestor(ancestor, descendant)
}

// LCA returns the lowest common ancestor of a and b (which may itself be a
// or b, when one is an ancestor of the other).
func (sc *Statechart) LCA(a, b string) string {
	ancA := append(append([]string(nil), sc.ancestors[a]...), a)
	set := make(map[string]int, len(ancA))
	for i, s := range ancA {
		set[s] = i
	}
	ancB := append(append([]string(nil), sc.ancestors[b]...), b)
	best := sc.root
	bestDepth := -1
	for _, s := range ancB {
		if _, ok := set[s]; ok {
			if d := sc.depth[s]; d > bestDepth {
				bestDepth = d
				best = s
			}
		}
	}
	return best
}

// EventsFor returns the distinct event names referenced by transitions whose
// source is one of names, sorted for deterministic output.
func (sc *Statechart) EventsFor(names []string) []string {
	seen := map[string]bool{}
	for _, n := range names {
		for _, t := range sc.transFrom[n] {
			if !t.Eventless && t.Event != "" {
				seen[t.Event] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// AllStates returns every declared state name, sorted for deterministic
// iteration by callers that do not otherwise care about order.
func (sc *Statechart) AllStates() []string {
	out := make([]string, 0, len(sc.states))
	for n := range sc.states {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
