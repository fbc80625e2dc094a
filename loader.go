package grove

import (
	"regexp"
	"strings"
)

var (
	titlePattern  = regexp.MustCompile(`^@title:\s*(.*)$`)
	markerPattern = regexp.MustCompile(`^\s*@(text|md|keywords)@\s*$`)
)

// accumulator is an element still collecting raw lines during a parse.
type accumulator interface {
	Element
	appendLine(string)
	clean() *PreservedText
}

// loader is the parse state: the group new content attaches to, and the one
// open accumulator. Parsing is a single forward pass; malformed input is
// absorbed as content, never rejected.
type loader struct {
	tree  *Tree
	group *Group
	acc   accumulator
}

// parse consumes the whole document. The only fatal condition at this level
// is a document with no groups at all.
func (l *loader) parse(data []byte) error {
	l.group = l.tree.root
	l.acc = newPreservedText()

	lines := strings.Split(string(data), "\n")
	// A trailing newline terminates the last line; it does not open an
	// extra empty one.
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for _, line := range lines {
		l.handleLine(strings.TrimSuffix(line, "\r"))
	}
	l.store()

	l.tree.root.Clean()
	if len(l.tree.root.groups) == 0 {
		return ErrNoGroups
	}
	pruneTrailingBlanks(l.tree.root)
	resetHighlights(l.tree.root)

	// A freshly parsed document starts clean.
	clearGroupDirty(l.tree.root)
	if l.tree.title != nil {
		l.tree.title.ClearDirty()
	}
	return nil
}

// handleLine dispatches one line. Order matters: comment, title and group
// headers are all unindented forms, and marker-shaped lines are never group
// headers whatever their indent.
func (l *loader) handleLine(line string) {
	switch {
	case strings.HasPrefix(line, "#"):
		l.comment(line)
	case titlePattern.MatchString(line):
		l.title(titlePattern.FindStringSubmatch(line)[1])
	case isGroupHeader(line):
		l.groupHeader(line)
	case markerPattern.MatchString(line):
		l.marker(markerPattern.FindStringSubmatch(line)[1])
	default:
		l.append(line)
	}
}

// isGroupHeader reports whether line opens a group: unindented, non-blank,
// and not one of the other unindented forms.
func isGroupHeader(line string) bool {
	if line == "" || line[0] == ' ' || line[0] == '\t' {
		return false
	}
	return !markerPattern.MatchString(line)
}

func (l *loader) comment(line string) {
	if pt, ok := l.acc.(*PreservedText); ok {
		pt.appendLine(line)
		return
	}
	l.store()
	pt := newPreservedText()
	pt.appendLine(line)
	l.acc = pt
}

func (l *loader) title(text string) {
	l.store()
	l.tree.SetTitle(strings.TrimSpace(text))
	l.acc = newPreservedText()
}

func (l *loader) groupHeader(line string) {
	l.store()
	g := l.tree.root
	for _, segment := range strings.Split(line, ":") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		g = g.AddGroup(segment)
	}
	l.group = g
	l.acc = newPreservedText()
}

func (l *loader) marker(kind string) {
	l.store()
	switch kind {
	case "text":
		l.acc = newSnippet(l.tree)
	case "md":
		l.acc = newMarkdownSnippet(l.tree)
	case "keywords":
		l.acc = newKeywordSet(l.tree)
	}
}

func (l *loader) append(line string) {
	l.acc.appendLine(line)
}

// store cleans and attaches the open accumulator. An accumulator that
// cleans down to nothing is dropped; trailing blank lines popped off a
// snippet become a preserved sibling right after it.
func (l *loader) store() {
	acc := l.acc
	l.acc = nil
	if acc == nil {
		return
	}
	trailing := acc.clean()
	if !acc.IsEmpty() {
		l.group.Add(acc)
	}
	if trailing != nil && !trailing.IsEmpty() {
		l.group.Add(trailing)
	}
}

// pruneTrailingBlanks drops blank-only content off the very end of the
// document, so a file ending in stray blank lines does not accrete them on
// every load/save cycle. Placeholders never serialize, so they are skipped
// when looking for the last written element.
func pruneTrailingBlanks(root *Group) {
	for {
		var last Element
		for el := range root.Walk(WalkOptions{Backwards: true}) {
			if isGroup(el) || isPlaceHolder(el) {
				continue
			}
			last = el
			break
		}
		pt, ok := last.(*PreservedText)
		if !ok {
			return
		}
		pt.trimTrailingBlanks()
		if !pt.IsEmpty() {
			return
		}
		pt.Parent().Remove(pt)
	}
}

// resetHighlights invalidates every snippet's marked rendering.
func resetHighlights(root *Group) {
	for el := range root.Walk(WalkOptions{}) {
		switch s := el.(type) {
		case *Snippet:
			s.Reset()
		case *MarkdownSnippet:
			s.Reset()
		}
	}
}
