package grove

import "strings"

const (
	markerIndent = "  "
	bodyIndent   = "    "
)

// FileText renders the whole document in canonical form: title first, then
// every element in document order. Keyword lines come out sorted, marker
// lines at two spaces, body lines at four; preserved text is written
// verbatim and placeholders not at all.
func (t *Tree) FileText() string {
	var b strings.Builder
	if t.title != nil && !t.title.IsEmpty() {
		b.WriteString("@title: " + t.title.Text() + "\n")
	}
	for el := range t.root.Walk(WalkOptions{}) {
		switch el := el.(type) {
		case *Group:
			if el.parent != nil {
				b.WriteString(el.headerLine() + "\n")
			}
			if ks := el.findKeywordSet(); ks != nil && !ks.IsEmpty() {
				writeKeywordSet(&b, ks)
			}
		case *Snippet:
			writeTextual(&b, el.Marker(), el.lines)
		case *MarkdownSnippet:
			writeTextual(&b, el.Marker(), el.lines)
		case *PreservedText:
			for _, line := range el.lines {
				b.WriteString(line + "\n")
			}
		case *PlaceHolder:
			// Structural only; never serialized.
		}
	}
	return b.String()
}

// headerLine renders a group header: the full name, then the sorted tags in
// brackets when the group has any.
func (g *Group) headerLine() string {
	if len(g.tags) == 0 {
		return g.FullName()
	}
	return g.FullName() + " [" + strings.Join(g.tags, " ") + "]"
}

func writeKeywordSet(b *strings.Builder, ks *KeywordSet) {
	b.WriteString(markerIndent + "@keywords@\n")
	b.WriteString(bodyIndent + strings.Join(ks.Words(), " ") + "\n")
}

func writeTextual(b *strings.Builder, marker string, lines []string) {
	b.WriteString(markerIndent + marker + "\n")
	for _, line := range lines {
		out := strings.TrimRight(bodyIndent+line, " \t")
		b.WriteString(out + "\n")
	}
}
