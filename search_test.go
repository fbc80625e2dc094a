package grove

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const searchFixture = "@title: Search Me\n" +
	"Recipes\n" +
	"  @keywords@\n    Bake mix\n" +
	"  @text@\n    fold the batter\n" +
	"Recipes : Cakes\n" +
	"  @md@\n    whisk **gently**\n" +
	"Tools\n"

func TestElementByID(t *testing.T) {
	tr := mustOpen(t, searchFixture)
	recipes := tr.Root().Groups()[0]
	batter := snippetWithBody(tr, "fold the batter")

	if got := tr.ElementByID(recipes.UID()); got != Element(recipes) {
		t.Errorf("group lookup = %v, want the group", got)
	}
	if got := tr.ElementByID(batter.UID()); got != batter {
		t.Errorf("snippet lookup = %v, want the snippet", got)
	}

	// Keyword sets and the title are addressable even though the walker
	// never yields them.
	ks := recipes.KeywordSet()
	if got := tr.ElementByID(ks.UID()); got != Element(ks) {
		t.Errorf("keyword set lookup = %v, want the set", got)
	}
	title := tr.ElementByID(tr.title.UID())
	if _, ok := title.(*Title); !ok {
		t.Errorf("title lookup = %v, want the title element", title)
	}

	if got := tr.ElementByID("Snippet-99"); got != nil {
		t.Errorf("unknown UID = %v, want nil", got)
	}
	if got := tr.ElementByID(""); got != nil {
		t.Errorf("empty UID = %v, want nil", got)
	}
}

func TestMatchText(t *testing.T) {
	tr := mustOpen(t, searchFixture)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"snippet_body", "batter", []string{"Snippet: fold the batter"}},
		{"case_insensitive", "WHISK", []string{"MarkdownSnippet: whisk **gently**"}},
		{"group_name", "cake", []string{"Group: Cakes"}},
		{"no_match", "pasta", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := collectReprs(tr, WalkOptions{Predicate: MatchText(tt.query)})
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("matches (-want +got):\n%s", diff)
			}
		})
	}

	// An empty query accepts every walked element.
	all := len(collectReprs(tr, WalkOptions{}))
	if got := len(collectReprs(tr, WalkOptions{Predicate: MatchText("")})); got != all {
		t.Errorf("empty query matched %d of %d elements", got, all)
	}
}

func TestHasKeyword(t *testing.T) {
	tr := mustOpen(t, searchFixture)

	// The keyword governs snippets in the declaring group and below it.
	want := []string{
		"Snippet: fold the batter",
		"MarkdownSnippet: whisk **gently**",
	}
	got := collectReprs(tr, WalkOptions{Predicate: HasKeyword("bake")})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("governed snippets (-want +got):\n%s", diff)
	}

	// Matching folds case both ways; the stored word is "Bake".
	if got := collectReprs(tr, WalkOptions{Predicate: HasKeyword("BAKE")}); len(got) != 2 {
		t.Errorf("case-folded match found %d snippets, want 2", len(got))
	}
	if got := collectReprs(tr, WalkOptions{Predicate: HasKeyword("knead")}); len(got) != 0 {
		t.Errorf("unknown keyword matched %v", got)
	}
	if got := collectReprs(tr, WalkOptions{Predicate: HasKeyword("")}); len(got) != 0 {
		t.Errorf("empty keyword matched %v", got)
	}
}

func TestCounts(t *testing.T) {
	tr := mustOpen(t, searchFixture)
	groups, snippets := tr.Counts()
	if groups != 3 {
		t.Errorf("groups = %d, want 3", groups)
	}
	// The empty group's placeholder is not a snippet.
	if snippets != 2 {
		t.Errorf("snippets = %d, want 2", snippets)
	}
}

func TestReprForms(t *testing.T) {
	tr := mustOpen(t, searchFixture)
	recipes := tr.Root().Groups()[0]
	tools := tr.Root().GroupNamed("Tools")

	tests := []struct {
		name string
		el   Element
		want string
	}{
		{"group", recipes, "Group: Recipes"},
		{"keyword_set", recipes.KeywordSet(), "KeywordSet: [Bake mix]"},
		{"empty_keyword_set", tools.KeywordSet(), "KeywordSet:"},
		{"snippet", snippetWithBody(tr, "fold the batter"), "Snippet: fold the batter"},
		{"markdown", snippetWithBody(tr, "whisk **gently**"), "MarkdownSnippet: whisk **gently**"},
		{"placeholder", tools.Children()[1], "PlaceHolder"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Repr(tt.el); got != tt.want {
				t.Errorf("Repr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReprSkipsBlankLeadingLines(t *testing.T) {
	tr := mustOpen(t, "Main\n  @text@\n\n    below a blank\n")
	s := snippetWithBody(tr, "\nbelow a blank")
	if s == nil {
		t.Fatal("snippet not found")
	}
	if got := Repr(s); got != "Snippet: below a blank" {
		t.Errorf("Repr = %q, want first non-blank line", got)
	}
}

func TestTreeRepr(t *testing.T) {
	tr := mustOpen(t, searchFixture)
	want := "Group: <ROOT>\n" +
		"KeywordSet:\n" +
		"Group: Recipes\n" +
		"KeywordSet: [Bake mix]\n" +
		"Snippet: fold the batter\n" +
		"Group: Cakes\n" +
		"KeywordSet:\n" +
		"MarkdownSnippet: whisk **gently**\n" +
		"Group: Tools\n" +
		"KeywordSet:\n"
	if diff := cmp.Diff(want, tr.Repr()); diff != "" {
		t.Errorf("Repr mismatch (-want +got):\n%s", diff)
	}
}
