package grove

// position is one insertion slot: a reference element and the side of it
// where the moved element would land.
type position struct {
	ref   Element
	after bool
}

// SnippetPointer walks an insertion position for one snippet through the
// tree, one step per call. A new pointer is anchored at the snippet itself,
// which is a degenerate slot; the caller steps away from it before
// committing.
//
// Positions are canonical: within a group the slot between two snippets
// belongs to the later one as "before", and only the last snippet of a
// group carries an "after" slot. Adjacent flag states collapse by flipping
// the flag before the reference moves. Placeholders are always approached
// from "before".
//
// A pointer stays valid only while no other structural mutation touches the
// tree; finish or abandon the move first.
type SnippetPointer struct {
	target Element
	pos    position
}

// NewSnippetPointer returns a pointer for moving target, which must be an
// attached *Snippet or *MarkdownSnippet. ErrCannotMove reports that no
// valid destination exists anywhere in the tree.
func NewSnippetPointer(target Element) (*SnippetPointer, error) {
	if !isSnippet(target) {
		return nil, ErrCannotMove
	}
	if target.Parent() == nil {
		return nil, ErrNotAttached
	}
	p := &SnippetPointer{target: target, pos: position{ref: target}}
	if !p.hasDestination() {
		return nil, ErrCannotMove
	}
	return p, nil
}

// Ref returns the current reference element.
func (p *SnippetPointer) Ref() Element {
	return p.pos.ref
}

// Addr returns the current reference UID and side, for host display.
func (p *SnippetPointer) Addr() (string, bool) {
	return p.pos.ref.UID(), p.pos.after
}

// Move advances the pointer one insertion slot. Slots adjacent to the moved
// snippet are skipped, trying at most 3 steps; when all attempts land on
// degenerate slots, or the walk runs out of elements, the pointer restores
// its previous state and reports false.
func (p *SnippetPointer) Move(backwards bool) bool {
	saved := p.pos
	for attempt := 0; attempt < 3; attempt++ {
		if !p.step(backwards) {
			p.pos = saved
			return false
		}
		if !p.isNextTo(p.pos) {
			return true
		}
	}
	p.pos = saved
	return false
}

// step makes one raw movement without degeneracy checks.
func (p *SnippetPointer) step(backwards bool) bool {
	switch {
	case backwards && p.pos.after:
		p.pos.after = false
	case !backwards && !p.pos.after && !isPlaceHolder(p.pos.ref) && lastInGroup(p.pos.ref):
		p.pos.after = true
	default:
		next := Neighbour(p.pos.ref, backwards, false, IsSnippetLike)
		if next == nil {
			return false
		}
		p.pos = position{ref: next, after: approachAfter(next, backwards)}
	}
	return true
}

// approachAfter picks the side a freshly reached reference is approached
// from: placeholders always from before; a group's last snippet from behind
// when walking backwards; otherwise from before.
func approachAfter(ref Element, backwards bool) bool {
	if isPlaceHolder(ref) {
		return false
	}
	return backwards && lastInGroup(ref)
}

// isNextTo reports whether pos is degenerate for this move: committing
// there would leave the snippet where it already is.
func (p *SnippetPointer) isNextTo(pos position) bool {
	if pos.ref == p.target {
		return true
	}
	if pos.ref.Parent() != p.target.Parent() {
		return false
	}
	if pos.after {
		return pos.ref == Neighbour(p.target, true, true, nil)
	}
	return pos.ref == Neighbour(p.target, false, true, nil)
}

// hasDestination reports whether any non-degenerate slot exists.
func (p *SnippetPointer) hasDestination() bool {
	root := rootOf(p.target)
	if root == nil {
		return false
	}
	for el := range root.Walk(WalkOptions{Predicate: IsSnippetLike}) {
		if el == p.target {
			continue
		}
		if !p.isNextTo(position{ref: el}) || !p.isNextTo(position{ref: el, after: true}) {
			return true
		}
	}
	return false
}

// Commit performs the move: detach the snippet, insert it on the chosen
// side of the reference, and clean both affected groups. Committing a
// degenerate position is a no-op and reports false; afterwards the pointer
// is re-anchored at the snippet so a fresh move can start.
func (p *SnippetPointer) Commit() bool {
	if p.isNextTo(p.pos) {
		return false
	}
	src := p.target.Parent()
	dst := p.pos.ref.Parent()
	if src == nil || dst == nil {
		return false
	}
	src.Remove(p.target)
	if p.pos.after {
		dst.AddAfter(p.target, p.pos.ref)
	} else {
		dst.AddBefore(p.target, p.pos.ref)
	}
	src.Clean()
	if dst != src {
		dst.Clean()
	}
	p.pos = position{ref: p.target}
	return true
}

// lastInGroup reports whether el has no later snippet-like sibling.
func lastInGroup(el Element) bool {
	return Neighbour(el, false, true, IsSnippetLike) == nil
}

func isPlaceHolder(el Element) bool {
	_, ok := el.(*PlaceHolder)
	return ok
}

// GroupPointer is the insertion pointer for reordering whole groups. It
// steps over the group linearization the same way SnippetPointer steps over
// snippets; positions are sibling slots in the reference group's parent.
// The moved group's own subtree never anchors a position.
type GroupPointer struct {
	target *Group
	pos    position
}

// NewGroupPointer returns a pointer for moving target, which must not be
// the root. ErrCannotMove reports that the tree holds no other group that
// could anchor a destination.
func NewGroupPointer(target *Group) (*GroupPointer, error) {
	if target.Parent() == nil {
		return nil, ErrNotAttached
	}
	p := &GroupPointer{target: target, pos: position{ref: target}}
	if !p.hasDestination() {
		return nil, ErrCannotMove
	}
	return p, nil
}

// Ref returns the current reference group.
func (p *GroupPointer) Ref() *Group {
	return p.pos.ref.(*Group)
}

// Addr returns the current reference UID and side, for host display.
func (p *GroupPointer) Addr() (string, bool) {
	return p.pos.ref.UID(), p.pos.after
}

// Move advances the pointer one slot, with the same 3-attempt degeneracy
// handling as the snippet pointer.
func (p *GroupPointer) Move(backwards bool) bool {
	saved := p.pos
	for attempt := 0; attempt < 3; attempt++ {
		if !p.step(backwards) {
			p.pos = saved
			return false
		}
		if !p.isNextTo(p.pos) {
			return true
		}
	}
	p.pos = saved
	return false
}

func (p *GroupPointer) step(backwards bool) bool {
	ref := p.pos.ref.(*Group)
	switch {
	case backwards && p.pos.after:
		p.pos.after = false
	case !backwards && !p.pos.after && lastSibling(ref):
		p.pos.after = true
	default:
		next := Neighbour(p.pos.ref, backwards, false, p.stepRef)
		if next == nil {
			return false
		}
		g := next.(*Group)
		p.pos = position{ref: g, after: backwards && lastSibling(g)}
	}
	return true
}

// stepRef accepts groups that can anchor a position for this move: not the
// root, not the moved group, and nothing inside it.
func (p *GroupPointer) stepRef(el Element) bool {
	g, ok := el.(*Group)
	if !ok || g.parent == nil || g == p.target {
		return false
	}
	return !isDescendantOf(g, p.target)
}

func (p *GroupPointer) isNextTo(pos position) bool {
	ref, ok := pos.ref.(*Group)
	if !ok {
		return false
	}
	if ref == p.target {
		return true
	}
	if ref.parent == nil || ref.parent != p.target.parent {
		return false
	}
	idx := ref.parent.groupIndex(ref)
	tidx := ref.parent.groupIndex(p.target)
	if pos.after {
		return idx == tidx-1
	}
	return idx == tidx+1
}

func (p *GroupPointer) hasDestination() bool {
	root := rootOf(p.target)
	if root == nil {
		return false
	}
	for el := range root.Walk(WalkOptions{Predicate: p.stepRef}) {
		if !p.isNextTo(position{ref: el}) || !p.isNextTo(position{ref: el, after: true}) {
			return true
		}
	}
	return false
}

// Commit reparents the group to the chosen side of the reference and cleans
// both affected parents. It refuses, reporting false, a degenerate position
// and a destination that already has a different sibling with the moved
// group's name.
func (p *GroupPointer) Commit() bool {
	if p.isNextTo(p.pos) {
		return false
	}
	ref := p.pos.ref.(*Group)
	src := p.target.parent
	dst := ref.parent
	if src == nil || dst == nil {
		return false
	}
	if dup := dst.GroupNamed(p.target.name); dup != nil && dup != p.target {
		return false
	}
	src.removeGroup(p.target)
	idx := dst.groupIndex(ref)
	if p.pos.after {
		idx++
	}
	dst.insertGroupAt(p.target, idx)
	src.Clean()
	if dst != src {
		dst.Clean()
	}
	p.pos = position{ref: p.target}
	return true
}

// lastSibling reports whether g is the last sub-group of its parent.
func lastSibling(g *Group) bool {
	n := len(g.parent.groups)
	return n > 0 && g.parent.groups[n-1] == g
}

// isDescendantOf reports whether g sits anywhere under ancestor.
func isDescendantOf(g, ancestor *Group) bool {
	for cur := g.parent; cur != nil; cur = cur.parent {
		if cur == ancestor {
			return true
		}
	}
	return false
}
