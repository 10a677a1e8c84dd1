package interpreter

import "sort"

// exitSet computes the ordered set of active states to exit for an
// external transition from source to a target whose lowest common ancestor
// with source is lca: every active descendant of source, deepest first,
// followed by the chain from source up to (but excluding) lca. When
// lca == source (target nested inside source), that chain is empty and
// only source's active descendants exit; source itself stays active.
func (in *Interpreter) exitSet(source, lca string) []string {
	var subDesc []string
	for _, d := range in.sc.DescendantsFor(source) {
		if in.config[d] {
			subDesc = append(subDesc, d)
		}
	}
	sort.SliceStable(subDesc, func(i, j int) bool {
		di, dj := in.sc.DepthFor(subDesc[i]), in.sc.DepthFor(subDesc[j])
		if di != dj {
			return di > dj
		}
		return subDesc[i] > subDesc[j]
	})

	chain := append(in.sc.AncestorsFor(source), source) // root-first, ends at source
	idx := indexOf(chain, lca)
	var onPath []string
	if idx == -1 {
		onPath = chain
	} else {
		onPath = chain[idx+1:]
	}
	reversed := make([]string, len(onPath))
	for i, s := range onPath {
		reversed[len(onPath)-1-i] = s
	}
	return append(subDesc, reversed...)
}

// entrySet computes the ordered set of states to enter for an external
// transition whose target's lowest common ancestor with the source is lca:
// the chain from lca (exclusive) down to target (inclusive), outer-first.
// When lca == target, the chain is empty: target was never exited, so it
// is not re-entered either.
func (in *Interpreter) entrySet(target, lca string) []string {
	chain := append(in.sc.AncestorsFor(target), target)
	idx := indexOf(chain, lca)
	if idx == -1 {
		return chain
	}
	return chain[idx+1:]
}

func indexOf(xs []string, v string) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}
