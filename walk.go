package grove

import "iter"

// WalkOptions controls a document-order walk.
type WalkOptions struct {
	// Predicate filters the yielded elements. nil yields everything.
	Predicate func(Element) bool

	// FirstID restarts the walk: every element up to and including the one
	// with this UID is skipped, in the chosen direction. Empty starts from
	// the beginning.
	FirstID string

	// Backwards yields the exact reverse of the forward walk.
	Backwards bool
}

// Walk returns a lazy document-order sequence over the group's subtree.
//
// Forward order is: the group itself, its direct non-group children in
// slice order, then each sub-group recursively in insertion order. Keyword
// sets are never yielded; placeholders and preserved text are. The backward
// walk yields exactly the reverse of the forward walk, whatever the
// predicate.
func (g *Group) Walk(opts WalkOptions) iter.Seq[Element] {
	return func(yield func(Element) bool) {
		started := opts.FirstID == ""
		visit := func(el Element) bool {
			if !started {
				if el.UID() != "" && el.UID() == opts.FirstID {
					started = true
				}
				return true
			}
			if opts.Predicate != nil && !opts.Predicate(el) {
				return true
			}
			return yield(el)
		}
		if opts.Backwards {
			g.walkBack(visit)
		} else {
			g.walkForward(visit)
		}
	}
}

func (g *Group) walkForward(visit func(Element) bool) bool {
	if !visit(g) {
		return false
	}
	for _, c := range g.children {
		if _, ok := c.(*KeywordSet); ok {
			continue
		}
		if !visit(c) {
			return false
		}
	}
	for _, sub := range g.groups {
		if !sub.walkForward(visit) {
			return false
		}
	}
	return true
}

func (g *Group) walkBack(visit func(Element) bool) bool {
	for i := len(g.groups) - 1; i >= 0; i-- {
		if !g.groups[i].walkBack(visit) {
			return false
		}
	}
	for i := len(g.children) - 1; i >= 0; i-- {
		c := g.children[i]
		if _, ok := c.(*KeywordSet); ok {
			continue
		}
		if !visit(c) {
			return false
		}
	}
	return visit(g)
}

// Neighbour returns the element nearest to el in the chosen direction that
// satisfies pred, or nil. withinGroup restricts the search to siblings under
// el's parent; pred nil accepts anything.
func Neighbour(el Element, backwards, withinGroup bool, pred func(Element) bool) Element {
	root := rootOf(el)
	if root == nil {
		return nil
	}
	for cand := range root.Walk(WalkOptions{FirstID: el.UID(), Backwards: backwards}) {
		if withinGroup && cand.Parent() != el.Parent() {
			// Siblings are contiguous in the walk; past them, stop.
			break
		}
		if pred == nil || pred(cand) {
			return cand
		}
	}
	return nil
}

// rootOf climbs to the root group of el's tree, or nil for a detached
// non-group element.
func rootOf(el Element) *Group {
	g, ok := el.(*Group)
	if !ok {
		g = el.Parent()
		if g == nil {
			return nil
		}
	}
	for g.parent != nil {
		g = g.parent
	}
	return g
}

// IsSnippetLike reports whether el can anchor an insertion position: a
// snippet, a markdown snippet or a placeholder.
func IsSnippetLike(el Element) bool {
	switch el.(type) {
	case *Snippet, *MarkdownSnippet, *PlaceHolder:
		return true
	}
	return false
}
