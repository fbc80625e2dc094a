package grove

import (
	"regexp"
	"slices"
	"strings"
)

// tabWidth is the column width used when expanding tabs in snippet bodies.
const tabWidth = 8

// Snippet is a plain-text snippet. Its retained lines are the body only;
// the "@text@" marker line is regenerated on save.
type Snippet struct {
	textElement
	marked []string
}

func newSnippet(t *Tree) *Snippet {
	s := &Snippet{}
	s.doc = t
	if t != nil {
		s.uid = t.ids.next("Snippet")
	}
	return s
}

// Marker returns the in-file delimiter for this kind.
func (s *Snippet) Marker() string {
	return "@text@"
}

// Body returns the snippet text as a single string.
func (s *Snippet) Body() string {
	return strings.Join(s.lines, "\n")
}

// SetText replaces the snippet body. A single trailing newline is not kept
// as an extra blank line. The snippet becomes dirty and its marked rendering
// is invalidated.
func (s *Snippet) SetText(text string) {
	lines := strings.Split(text, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	s.lines = lines
	s.marked = nil
	s.markDirty()
}

// Reset drops the cached marked rendering, forcing a recompute on the next
// MarkedLines call, and marks the snippet dirty. Call it after changing the
// keywords that apply to this snippet.
func (s *Snippet) Reset() {
	s.marked = nil
	s.markDirty()
}

// Duplicate returns a detached copy of the snippet with a fresh identifier.
// The caller decides where to insert it.
func (s *Snippet) Duplicate() *Snippet {
	d := newSnippet(s.doc)
	d.lines = slices.Clone(s.lines)
	return d
}

// MarkedLines returns the body lines with every keyword occurrence wrapped
// in MarkStart/MarkEnd sentinels carrying the keyword's colour code. The
// result is computed lazily and cached until Reset or SetText.
func (s *Snippet) MarkedLines() []string {
	if s.marked == nil {
		s.marked = markLines(s.lines, s.keywordMatcher(), false)
	}
	return s.marked
}

// ClipboardText returns the snippet body as it should reach the system
// clipboard: verbatim, newline-terminated.
func (s *Snippet) ClipboardText() string {
	return s.Body() + "\n"
}

// clean normalizes the body: tabs expanded, lines right-trimmed, trailing
// blank lines popped, the remainder dedented as one block. Popped blanks are
// returned wrapped in a PreservedText so the caller can keep them as inert
// content; nil when nothing was popped.
func (s *Snippet) clean() *PreservedText {
	for i, line := range s.lines {
		s.lines[i] = strings.TrimRight(expandTabs(line, tabWidth), " ")
	}
	popped := 0
	for n := len(s.lines); n > 0 && s.lines[n-1] == ""; n-- {
		s.lines = s.lines[:n-1]
		popped++
	}
	s.lines = dedentBlock(s.lines)
	s.marked = nil
	if popped == 0 {
		return nil
	}
	pt := newPreservedText()
	pt.lines = make([]string, popped)
	return pt
}

// keywordMatcher builds the matcher for every keyword set on the owning
// group chain, root included.
func (s *Snippet) keywordMatcher() *keywordMatcher {
	var words []string
	seen := make(map[string]struct{})
	for g := s.parent; g != nil; g = g.parent {
		ks := g.findKeywordSet()
		if ks == nil {
			continue
		}
		for _, w := range ks.Words() {
			key := strings.ToLower(w)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			words = append(words, w)
		}
	}
	return newKeywordMatcher(words, s.doc)
}

// MarkdownSnippet is a snippet whose body is markdown source. It shares the
// Snippet lifecycle; marking never reaches into code spans or fenced blocks,
// and clipboard export resolves backslash escapes.
type MarkdownSnippet struct {
	Snippet
}

func newMarkdownSnippet(t *Tree) *MarkdownSnippet {
	m := &MarkdownSnippet{}
	m.doc = t
	if t != nil {
		m.uid = t.ids.next("MarkdownSnippet")
	}
	return m
}

// Marker returns the in-file delimiter for this kind.
func (m *MarkdownSnippet) Marker() string {
	return "@md@"
}

// Duplicate returns a detached copy with a fresh identifier.
func (m *MarkdownSnippet) Duplicate() *MarkdownSnippet {
	d := newMarkdownSnippet(m.doc)
	d.lines = slices.Clone(m.lines)
	return d
}

// MarkedLines is the markdown-aware variant: fenced code blocks and inline
// code spans are left unmarked.
func (m *MarkdownSnippet) MarkedLines() []string {
	if m.marked == nil {
		m.marked = markLines(m.lines, m.keywordMatcher(), true)
	}
	return m.marked
}

// ClipboardText resolves backslash escapes of markdown punctuation and
// returns the result newline-terminated.
func (m *MarkdownSnippet) ClipboardText() string {
	return mdEscapePattern.ReplaceAllString(m.Body(), "$1") + "\n"
}

var mdEscapePattern = regexp.MustCompile("\\\\([\\\\`*_{}\\[\\]()#+\\-.!>~|])")

// keywordMatcher wraps a compiled alternation over a keyword list together
// with the registry that resolves colour codes.
type keywordMatcher struct {
	pattern *regexp.Regexp
	doc     *Tree
}

func newKeywordMatcher(words []string, doc *Tree) *keywordMatcher {
	if len(words) == 0 {
		return &keywordMatcher{}
	}
	// Longest alternative first, so overlapping keywords prefer the longer.
	slices.SortFunc(words, func(a, b string) int {
		return len(b) - len(a)
	})
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	pattern := regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	return &keywordMatcher{pattern: pattern, doc: doc}
}

// mark wraps every keyword occurrence in text with colour sentinels.
func (km *keywordMatcher) mark(text string) string {
	if km.pattern == nil {
		return text
	}
	return km.pattern.ReplaceAllStringFunc(text, func(match string) string {
		var code byte = '0'
		if km.doc != nil {
			code = km.doc.keywords.code(match)
		}
		return string(MarkStart) + string(code) + match + string(MarkEnd)
	})
}

// markLines applies the matcher to every line. In markdown mode, fenced code
// blocks and inline code spans are passed through untouched.
func markLines(lines []string, km *keywordMatcher, markdown bool) []string {
	out := make([]string, len(lines))
	inFence := false
	for i, line := range lines {
		if !markdown {
			out[i] = km.mark(line)
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "```") {
			inFence = !inFence
			out[i] = line
			continue
		}
		if inFence {
			out[i] = line
			continue
		}
		// Segments at even index sit outside inline code spans.
		segs := strings.Split(line, "`")
		for j := 0; j < len(segs); j += 2 {
			segs[j] = km.mark(segs[j])
		}
		out[i] = strings.Join(segs, "`")
	}
	return out
}

// expandTabs replaces tabs with spaces, honouring tab stops every width
// columns.
func expandTabs(line string, width int) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := width - col%width
			for k := 0; k < n; k++ {
				b.WriteByte(' ')
			}
			col += n
			continue
		}
		b.WriteRune(r)
		col++
	}
	return b.String()
}

// dedentBlock strips the longest common leading-space run from a block of
// lines. Blank lines neither constrain nor receive the margin.
func dedentBlock(lines []string) []string {
	margin := -1
	for _, line := range lines {
		if line == "" {
			continue
		}
		n := 0
		for n < len(line) && line[n] == ' ' {
			n++
		}
		if margin < 0 || n < margin {
			margin = n
		}
	}
	if margin <= 0 {
		return lines
	}
	for i, line := range lines {
		if len(line) >= margin {
			lines[i] = line[margin:]
		}
	}
	return lines
}
