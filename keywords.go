package grove

import (
	"slices"
	"strings"
)

// Sentinel runes wrapping a highlighted keyword in marked snippet text. The
// wrapped form is MarkStart, one colour code character, the keyword, MarkEnd.
// Both runes are from the Unicode private use area and never occur in
// snippet files.
const (
	MarkStart = ''
	MarkEnd   = ''
)

// colourPalette is the ordered set of colour code characters handed out to
// keywords. Codes are reused round-robin once the palette is exhausted.
const colourPalette = "0123456789"

// keywordRegistry assigns a stable colour code to every keyword seen by a
// Tree. The same word (case-insensitive) always maps to the same code for
// the lifetime of the registry.
type keywordRegistry struct {
	codes map[string]byte
	next  int
}

func newKeywordRegistry() *keywordRegistry {
	return &keywordRegistry{codes: make(map[string]byte)}
}

// code returns the colour code for word, assigning the next palette entry on
// first sight.
func (r *keywordRegistry) code(word string) byte {
	key := strings.ToLower(word)
	if c, ok := r.codes[key]; ok {
		return c
	}
	c := colourPalette[r.next%len(colourPalette)]
	r.next++
	r.codes[key] = c
	return c
}

// lookup returns the colour code for word without assigning one.
func (r *keywordRegistry) lookup(word string) (byte, bool) {
	c, ok := r.codes[strings.ToLower(word)]
	return c, ok
}

// KeywordSet is the per-group bag of highlighting keywords. Every group owns
// exactly one after cleaning, stored as its first child; parsing may create
// several, which Clean merges by word union.
type KeywordSet struct {
	textElement
	words map[string]struct{}
}

func newKeywordSet(t *Tree) *KeywordSet {
	k := &KeywordSet{words: make(map[string]struct{})}
	k.doc = t
	if t != nil {
		k.uid = t.ids.next("KeywordSet")
	}
	return k
}

// AddWord adds a keyword and registers it for colour assignment.
func (k *KeywordSet) AddWord(word string) {
	word = strings.TrimSpace(word)
	if word == "" {
		return
	}
	if _, ok := k.words[word]; ok {
		return
	}
	k.words[word] = struct{}{}
	if k.doc != nil {
		k.doc.keywords.code(word)
	}
	k.markDirty()
}

// RemoveWord drops a keyword from the set. The word keeps its colour code;
// codes are never reassigned.
func (k *KeywordSet) RemoveWord(word string) {
	if _, ok := k.words[word]; ok {
		delete(k.words, word)
		k.markDirty()
	}
}

// Has reports whether the set contains word.
func (k *KeywordSet) Has(word string) bool {
	_, ok := k.words[word]
	return ok
}

// hasFold reports whether the set contains word under case folding.
func (k *KeywordSet) hasFold(word string) bool {
	if k.Has(word) {
		return true
	}
	for w := range k.words {
		if strings.EqualFold(w, word) {
			return true
		}
	}
	return false
}

// Words returns the keywords in sorted order.
func (k *KeywordSet) Words() []string {
	out := make([]string, 0, len(k.words))
	for w := range k.words {
		out = append(out, w)
	}
	slices.Sort(out)
	return out
}

// IsEmpty reports whether the set holds no words and no unparsed lines.
func (k *KeywordSet) IsEmpty() bool {
	return len(k.words) == 0 && len(k.lines) == 0
}

// clean folds any accumulated source lines into the word set. Trailing
// content never escapes a keyword block, so clean always returns nil.
func (k *KeywordSet) clean() *PreservedText {
	for _, line := range k.lines {
		for _, word := range strings.Fields(line) {
			k.AddWord(word)
		}
	}
	k.lines = nil
	return nil
}

// absorb merges the words of other into this set.
func (k *KeywordSet) absorb(other *KeywordSet) {
	other.clean()
	for w := range other.words {
		k.AddWord(w)
	}
}
