package grove

import (
	"strings"
)

// ElementByID returns the element with the given unique ID, or nil if no
// attached element carries it. The title and group keyword sets are
// addressable even though the walker never yields them.
func (t *Tree) ElementByID(id string) Element {
	if id == "" {
		return nil
	}
	if t.title != nil && t.title.UID() == id {
		return t.title
	}
	for el := range t.Walk(WalkOptions{}) {
		if el.UID() == id {
			return el
		}
		if g, ok := el.(*Group); ok {
			if ks := g.findKeywordSet(); ks != nil && ks.UID() == id {
				return ks
			}
		}
	}
	return nil
}

// MatchText returns a walk predicate that accepts snippets whose body
// contains query and groups whose name contains it. Matching is
// case-insensitive. An empty query accepts everything.
func MatchText(query string) func(Element) bool {
	query = strings.ToLower(query)
	return func(el Element) bool {
		if query == "" {
			return true
		}
		switch v := el.(type) {
		case *Group:
			return strings.Contains(strings.ToLower(v.Name()), query)
		case *MarkdownSnippet:
			return strings.Contains(strings.ToLower(v.Body()), query)
		case *Snippet:
			return strings.Contains(strings.ToLower(v.Body()), query)
		}
		return false
	}
}

// HasKeyword returns a walk predicate that accepts snippets and place
// holders governed by the given keyword, meaning some group on the
// parent chain declares it. Comparison is case-insensitive.
func HasKeyword(word string) func(Element) bool {
	word = strings.TrimSpace(word)
	return func(el Element) bool {
		if word == "" || !IsSnippetLike(el) {
			return false
		}
		for g := el.Parent(); g != nil; g = g.Parent() {
			if ks := g.findKeywordSet(); ks != nil && ks.hasFold(word) {
				return true
			}
		}
		return false
	}
}

// Counts reports the number of groups (excluding the root) and snippets
// in the tree. Place holders do not count as snippets.
func (t *Tree) Counts() (groups, snippets int) {
	for el := range t.Walk(WalkOptions{}) {
		switch {
		case el == Element(t.root):
		case isGroup(el):
			groups++
		case isSnippet(el):
			snippets++
		}
	}
	return groups, snippets
}

// Repr returns a multi-line sketch of the whole tree in document order:
// one line per group, its keyword set on the next line, then one line per
// snippet. Place holders and preserved text are omitted.
func (t *Tree) Repr() string {
	var b strings.Builder
	for el := range t.Walk(WalkOptions{}) {
		switch el.(type) {
		case *PlaceHolder, *PreservedText:
			continue
		}
		b.WriteString(Repr(el))
		b.WriteByte('\n')
		if g, ok := el.(*Group); ok {
			if ks := g.findKeywordSet(); ks != nil {
				b.WriteString(Repr(ks))
				b.WriteByte('\n')
			}
		}
	}
	return b.String()
}

// Repr returns a one-line description of an element, used by hosts for
// listings and move prompts.
func Repr(el Element) string {
	switch v := el.(type) {
	case *Group:
		return "Group: " + v.Name()
	case *KeywordSet:
		words := v.Words()
		if len(words) == 0 {
			return "KeywordSet:"
		}
		return "KeywordSet: [" + strings.Join(words, " ") + "]"
	case *MarkdownSnippet:
		return "MarkdownSnippet: " + firstLine(v.Lines())
	case *Snippet:
		return "Snippet: " + firstLine(v.Lines())
	case *PlaceHolder:
		return "PlaceHolder"
	case *PreservedText:
		return "PreservedText"
	case *Title:
		return "Title: " + v.Text()
	}
	return ""
}

func firstLine(lines []string) string {
	for _, l := range lines {
		if !isBlank(l) {
			return strings.TrimSpace(l)
		}
	}
	return ""
}
