package grove

import (
	"slices"
	"strings"
)

// rootName is the reserved name of the root group. It never appears in a
// file; headers name groups from just below the root.
const rootName = "<ROOT>"

// Group is a named node of the snippet tree. It owns an ordered slice of
// content children (keyword set first after Clean, then snippets, preserved
// text and at most one placeholder) and an ordered slice of sub-groups.
type Group struct {
	element
	name     string
	tags     []string
	children []Element
	groups   []*Group
}

func newGroup(t *Tree, name string) *Group {
	g := &Group{name: name}
	g.doc = t
	if t != nil {
		g.uid = t.ids.next("Group")
	}
	return g
}

// Name returns the group's own name.
func (g *Group) Name() string {
	return g.name
}

// FullName returns the ancestor chain joined with " : ", starting just
// below the root. The root group reports its reserved name.
func (g *Group) FullName() string {
	if g.parent == nil || g.parent.parent == nil {
		return g.name
	}
	return g.parent.FullName() + " : " + g.name
}

// Rename changes the group's name. It refuses the root group and any name
// already taken by a sibling.
func (g *Group) Rename(name string) error {
	name = strings.TrimSpace(name)
	if g.parent == nil {
		return ErrNotAttached
	}
	if sib := g.parent.GroupNamed(name); sib != nil && sib != g {
		return ErrDuplicateName
	}
	g.name = name
	g.markDirty()
	return nil
}

// Tags returns the group's tags in sorted order.
func (g *Group) Tags() []string {
	return slices.Clone(g.tags)
}

func (g *Group) addTags(tags []string) {
	for _, t := range tags {
		if t == "" || slices.Contains(g.tags, t) {
			continue
		}
		g.tags = append(g.tags, t)
		g.markDirty()
	}
	slices.Sort(g.tags)
}

// IsEmpty reports whether the group retains no children and no sub-groups.
// Clean gives every group a keyword set, so a cleaned group is never empty.
func (g *Group) IsEmpty() bool {
	return len(g.children) == 0 && len(g.groups) == 0
}

// Children returns the group's direct content children in order.
func (g *Group) Children() []Element {
	return slices.Clone(g.children)
}

// Groups returns the direct sub-groups in insertion order.
func (g *Group) Groups() []*Group {
	return slices.Clone(g.groups)
}

// GroupNamed returns the direct sub-group with the given name, or nil.
func (g *Group) GroupNamed(name string) *Group {
	for _, sub := range g.groups {
		if sub.name == name {
			return sub
		}
	}
	return nil
}

// KeywordSet returns the group's keyword set, or nil before the first Clean.
func (g *Group) KeywordSet() *KeywordSet {
	return g.findKeywordSet()
}

func (g *Group) findKeywordSet() *KeywordSet {
	for _, c := range g.children {
		if ks, ok := c.(*KeywordSet); ok {
			return ks
		}
	}
	return nil
}

// Add appends a child element. Adding a snippet displaces any placeholder;
// adding a *Group attaches it as the last sub-group.
func (g *Group) Add(el Element) {
	if sub, ok := el.(*Group); ok {
		sub.setParent(g)
		g.groups = append(g.groups, sub)
		g.markDirty()
		return
	}
	g.insertChild(el, len(g.children))
}

// AddBefore inserts a child immediately before ref. An unknown ref appends.
func (g *Group) AddBefore(el, ref Element) {
	g.insertChild(el, g.childIndex(ref))
}

// AddAfter inserts a child immediately after ref. An unknown ref appends.
func (g *Group) AddAfter(el, ref Element) {
	idx := g.childIndex(ref)
	if idx < len(g.children) {
		idx++
	}
	g.insertChild(el, idx)
}

func (g *Group) childIndex(ref Element) int {
	for i, c := range g.children {
		if c == ref {
			return i
		}
	}
	return len(g.children)
}

func (g *Group) insertChild(el Element, idx int) {
	el.setParent(g)
	g.children = slices.Insert(g.children, idx, el)
	if isSnippet(el) {
		g.dropPlaceHolders()
	}
	g.markDirty()
}

// Remove detaches a direct child or sub-group. Removing the last snippet of
// a non-root group leaves a placeholder behind.
func (g *Group) Remove(el Element) {
	if sub, ok := el.(*Group); ok {
		g.removeGroup(sub)
		return
	}
	for i, c := range g.children {
		if c == el {
			g.children = slices.Delete(g.children, i, i+1)
			el.setParent(nil)
			g.markDirty()
			break
		}
	}
	if g.parent != nil && !g.hasDirectSnippet() && !g.hasPlaceHolder() {
		ph := newPlaceHolder(g.doc)
		ph.setParent(g)
		g.children = append(g.children, ph)
	}
}

func (g *Group) removeGroup(sub *Group) {
	for i, s := range g.groups {
		if s == sub {
			g.groups = slices.Delete(g.groups, i, i+1)
			sub.setParent(nil)
			g.markDirty()
			return
		}
	}
}

func (g *Group) insertGroupAt(sub *Group, idx int) {
	sub.setParent(g)
	g.groups = slices.Insert(g.groups, idx, sub)
	g.markDirty()
}

func (g *Group) groupIndex(sub *Group) int {
	for i, s := range g.groups {
		if s == sub {
			return i
		}
	}
	return -1
}

// AddGroup returns the direct sub-group for spec, creating it when absent.
// spec is a bare name with an optional "[tag tag]" suffix. A new group
// inherits the parent's tags on top of its own; an existing group absorbs
// any new tags. This is how duplicate headers in a file merge into one
// group.
func (g *Group) AddGroup(spec string) *Group {
	name, tags := parseGroupSpec(spec)
	if name == "" {
		return g
	}
	if existing := g.GroupNamed(name); existing != nil {
		existing.addTags(tags)
		return existing
	}
	sub := newGroup(g.doc, name)
	sub.addTags(g.tags)
	sub.addTags(tags)
	sub.setParent(g)
	g.groups = append(g.groups, sub)
	g.markDirty()
	return sub
}

// parseGroupSpec splits "Name [tag tag]" into the bare name and its tags.
func parseGroupSpec(spec string) (string, []string) {
	spec = strings.TrimSpace(spec)
	open := strings.LastIndexByte(spec, '[')
	if open < 0 || !strings.HasSuffix(spec, "]") {
		return spec, nil
	}
	name := strings.TrimSpace(spec[:open])
	tags := strings.Fields(spec[open+1 : len(spec)-1])
	return name, tags
}

// Clean restores the group subtree's structural invariants:
//
//   - textual children are normalized and empty ones dropped
//   - all direct keyword sets merge into one, placed first
//   - every sub-group is cleaned recursively
//   - a non-root group holds exactly one placeholder when it has no direct
//     snippets, and none otherwise
func (g *Group) Clean() {
	var merged *KeywordSet
	kept := g.children[:0]
	for _, c := range g.children {
		switch el := c.(type) {
		case *KeywordSet:
			if merged == nil {
				merged = el
				el.clean()
			} else {
				merged.absorb(el)
				el.setParent(nil)
			}
			continue
		case *Snippet:
			el.clean()
		case *MarkdownSnippet:
			el.clean()
		}
		if c.IsEmpty() {
			c.setParent(nil)
			continue
		}
		kept = append(kept, c)
	}
	if merged == nil {
		merged = newKeywordSet(g.doc)
	}
	merged.setParent(g)
	g.children = append([]Element{merged}, kept...)

	for _, sub := range g.groups {
		sub.Clean()
	}

	if g.parent != nil {
		g.fixPlaceHolder()
	}
}

// fixPlaceHolder enforces the placeholder rule on a non-root group.
func (g *Group) fixPlaceHolder() {
	has := g.hasDirectSnippet()
	kept := false
	out := g.children[:0]
	for _, c := range g.children {
		if _, ok := c.(*PlaceHolder); ok {
			if has || kept {
				c.setParent(nil)
				continue
			}
			kept = true
		}
		out = append(out, c)
	}
	g.children = out
	if !has && !kept {
		ph := newPlaceHolder(g.doc)
		ph.setParent(g)
		g.children = append(g.children, ph)
	}
}

func (g *Group) dropPlaceHolders() {
	out := g.children[:0]
	for _, c := range g.children {
		if _, ok := c.(*PlaceHolder); ok {
			c.setParent(nil)
			continue
		}
		out = append(out, c)
	}
	g.children = out
}

func (g *Group) hasDirectSnippet() bool {
	for _, c := range g.children {
		if isSnippet(c) {
			return true
		}
	}
	return false
}

func (g *Group) hasPlaceHolder() bool {
	for _, c := range g.children {
		if _, ok := c.(*PlaceHolder); ok {
			return true
		}
	}
	return false
}

// isSnippet reports whether el is a real snippet, placeholders excluded.
func isSnippet(el Element) bool {
	switch el.(type) {
	case *Snippet, *MarkdownSnippet:
		return true
	}
	return false
}

func isGroup(el Element) bool {
	_, ok := el.(*Group)
	return ok
}
