package grove

import "strconv"

// Element is the interface shared by every node of a snippet tree.
//
// The set of element kinds is closed: *Group, *Snippet, *MarkdownSnippet,
// *PlaceHolder, *PreservedText, *KeywordSet and *Title. Code that switches
// over element kinds may rely on there being no others.
type Element interface {
	// UID returns the element's process-unique identifier, of the form
	// "<Kind>-<n>". PreservedText elements carry no identifier and
	// return "".
	UID() string

	// Parent returns the owning group, or nil for the root group and
	// detached elements.
	Parent() *Group

	// Depth returns the number of ancestors above this element.
	Depth() int

	// IsEmpty reports whether the element holds no retained content.
	IsEmpty() bool

	// Dirty reports whether the element changed since the flag was last
	// cleared. Hosts that cache derived renderings key off this.
	Dirty() bool

	// ClearDirty resets the dirty flag.
	ClearDirty()

	setParent(*Group)
	document() *Tree
}

// element carries the state common to all kinds. The parent pointer is
// non-owning; ownership runs downward through Group child slices.
type element struct {
	doc    *Tree
	parent *Group
	uid    string
	dirty  bool
}

func (e *element) UID() string         { return e.uid }
func (e *element) Parent() *Group      { return e.parent }
func (e *element) Dirty() bool         { return e.dirty }
func (e *element) ClearDirty()         { e.dirty = false }
func (e *element) markDirty()          { e.dirty = true }
func (e *element) setParent(g *Group)  { e.parent = g }
func (e *element) document() *Tree     { return e.doc }

// Depth returns the number of ancestors above this element.
func (e *element) Depth() int {
	d := 0
	for p := e.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// idAllocator hands out per-kind monotonic identifiers. Counters only ever
// grow, so an identifier is never reused within one Tree even after its
// element is discarded.
type idAllocator struct {
	counters map[string]int
}

func newIDAllocator() *idAllocator {
	return &idAllocator{counters: make(map[string]int)}
}

// next returns the next identifier for the given kind name.
func (a *idAllocator) next(kind string) string {
	a.counters[kind]++
	return kind + "-" + strconv.Itoa(a.counters[kind])
}

// textElement is the base for kinds that carry raw source lines.
type textElement struct {
	element
	lines []string
}

// IsEmpty reports whether no lines are retained.
func (e *textElement) IsEmpty() bool {
	return len(e.lines) == 0
}

// Lines returns a copy of the retained source lines.
func (e *textElement) Lines() []string {
	out := make([]string, len(e.lines))
	copy(out, e.lines)
	return out
}

func (e *textElement) appendLine(line string) {
	e.lines = append(e.lines, line)
}

// PlaceHolder is an empty stand-in that occupies a group while the group has
// no snippets of its own, so the group stays addressable. Placeholders are
// never written to a file.
type PlaceHolder struct {
	element
}

func newPlaceHolder(t *Tree) *PlaceHolder {
	p := &PlaceHolder{}
	p.doc = t
	if t != nil {
		p.uid = t.ids.next("PlaceHolder")
	}
	return p
}

// IsEmpty always reports false; a placeholder is structural, not textual.
func (p *PlaceHolder) IsEmpty() bool {
	return false
}

// PreservedText is an inert block of verbatim lines: comments and deliberate
// blank runs. It is written back exactly as read, with no indentation added
// or removed, and carries no identifier.
type PreservedText struct {
	textElement
}

func newPreservedText() *PreservedText {
	return &PreservedText{}
}

// clean is a no-op; preserved text is never rewritten.
func (p *PreservedText) clean() *PreservedText {
	return nil
}

// trimTrailingBlanks drops blank lines off the end of the block and reports
// whether any were dropped.
func (p *PreservedText) trimTrailingBlanks() bool {
	n := len(p.lines)
	for n > 0 && isBlank(p.lines[n-1]) {
		n--
	}
	if n == len(p.lines) {
		return false
	}
	p.lines = p.lines[:n]
	return true
}

// Title is the document title. It lives on the Tree rather than inside any
// group and serializes as the leading "@title:" line.
type Title struct {
	element
	text string
}

func newTitle(t *Tree, text string) *Title {
	ti := &Title{text: text}
	ti.doc = t
	if t != nil {
		ti.uid = t.ids.next("Title")
	}
	return ti
}

// Text returns the title text.
func (t *Title) Text() string {
	return t.text
}

func (t *Title) setText(text string) {
	t.text = text
	t.markDirty()
}

// IsEmpty reports whether the title text is empty.
func (t *Title) IsEmpty() bool {
	return t.text == ""
}

func isBlank(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}
