package grove

import (
	"errors"
	"slices"
	"testing"
)

func TestAddGroupCreatesAndMerges(t *testing.T) {
	tr := New()
	a := tr.Root().AddGroup("Recipes")
	b := tr.Root().AddGroup("Recipes")
	if a != b {
		t.Fatal("AddGroup created a second group for the same name")
	}
	if n := len(tr.Root().Groups()); n != 1 {
		t.Errorf("root has %d groups, want 1", n)
	}

	// A repeated spec with new tags absorbs them into the existing group.
	c := tr.Root().AddGroup("Recipes [sweet]")
	if c != a {
		t.Fatal("tagged respec created a second group")
	}
	if got := a.Tags(); !slices.Equal(got, []string{"sweet"}) {
		t.Errorf("Tags() = %v, want [sweet]", got)
	}
}

func TestAddGroupInheritsTags(t *testing.T) {
	tr := New()
	parent := tr.Root().AddGroup("Proj [work]")
	sub := parent.AddGroup("Sub [draft]")
	if got := sub.Tags(); !slices.Equal(got, []string{"draft", "work"}) {
		t.Errorf("Tags() = %v, want [draft work]", got)
	}
}

func TestParseGroupSpec(t *testing.T) {
	tests := []struct {
		spec     string
		wantName string
		wantTags []string
	}{
		{"Name", "Name", nil},
		{"Name [a b]", "Name", []string{"a", "b"}},
		{"Name[x]", "Name", []string{"x"}},
		{"  spaced  ", "spaced", nil},
		{"A [b] c", "A [b] c", nil},
		{"x []", "x", nil},
		{"[a]", "", []string{"a"}},
	}
	for _, tt := range tests {
		name, tags := parseGroupSpec(tt.spec)
		if name != tt.wantName {
			t.Errorf("parseGroupSpec(%q) name = %q, want %q", tt.spec, name, tt.wantName)
		}
		if !slices.Equal(tags, tt.wantTags) {
			t.Errorf("parseGroupSpec(%q) tags = %v, want %v", tt.spec, tags, tt.wantTags)
		}
	}
}

func TestAddGroupEmptyName(t *testing.T) {
	tr := New()
	if got := tr.Root().AddGroup("[x]"); got != tr.Root() {
		t.Error("empty name should return the receiver unchanged")
	}
	if len(tr.Root().Groups()) != 0 {
		t.Error("empty name created a group")
	}
}

func TestRename(t *testing.T) {
	tr := New()
	a := tr.Root().AddGroup("A")
	tr.Root().AddGroup("B")

	if err := tr.Root().Rename("X"); !errors.Is(err, ErrNotAttached) {
		t.Errorf("renaming root = %v, want %v", err, ErrNotAttached)
	}
	if err := a.Rename("B"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("renaming onto sibling = %v, want %v", err, ErrDuplicateName)
	}
	if err := a.Rename("A"); err != nil {
		t.Errorf("renaming to own name = %v, want nil", err)
	}
	if err := a.Rename("C"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	if a.Name() != "C" {
		t.Errorf("Name() = %q, want %q", a.Name(), "C")
	}
}

func TestPlaceHolderRule(t *testing.T) {
	tr := mustOpen(t, "Main\n  @text@\n    only\n")
	g := tr.Root().Groups()[0]
	s := snippetWithBody(tr, "only")

	// Removing the last snippet leaves a placeholder behind.
	g.Remove(s)
	if !g.hasPlaceHolder() {
		t.Fatal("group lost its last snippet but has no placeholder")
	}

	// Adding a snippet displaces it again.
	fresh := tr.NewSnippet()
	fresh.SetText("back\n")
	g.Add(fresh)
	if g.hasPlaceHolder() {
		t.Error("placeholder survived a snippet insertion")
	}
}

func TestRootNeverGetsPlaceHolder(t *testing.T) {
	tr := New()
	s := tr.NewSnippet()
	s.SetText("x\n")
	tr.Root().Add(s)
	tr.Root().Remove(s)
	if tr.Root().hasPlaceHolder() {
		t.Error("root group acquired a placeholder")
	}
	tr.Root().Clean()
	if tr.Root().hasPlaceHolder() {
		t.Error("Clean added a placeholder to the root")
	}
}

func TestCleanMergesKeywordSets(t *testing.T) {
	tr := New()
	g := tr.Root().AddGroup("Main")
	one := newKeywordSet(tr)
	one.AddWord("alpha")
	two := newKeywordSet(tr)
	two.AddWord("beta")
	g.Add(one)
	g.Add(two)

	g.Clean()

	ks := g.KeywordSet()
	if ks == nil {
		t.Fatal("no keyword set after Clean")
	}
	if got := ks.Words(); !slices.Equal(got, []string{"alpha", "beta"}) {
		t.Errorf("Words() = %v, want [alpha beta]", got)
	}
	if g.Children()[0] != Element(ks) {
		t.Error("keyword set is not the first child")
	}
	// The merged-in set is gone.
	count := 0
	for _, c := range g.Children() {
		if _, ok := c.(*KeywordSet); ok {
			count++
		}
	}
	if count != 1 {
		t.Errorf("group holds %d keyword sets, want 1", count)
	}
}

func TestCleanDropsEmptySnippets(t *testing.T) {
	tr := New()
	g := tr.Root().AddGroup("Main")
	g.Add(tr.NewSnippet()) // never given text
	g.Clean()

	if got := snippetBodies(tr); len(got) != 0 {
		t.Errorf("snippets after Clean = %v, want none", got)
	}
	if !g.hasPlaceHolder() {
		t.Error("emptied group has no placeholder")
	}
}

func TestFullName(t *testing.T) {
	tr := New()
	a := tr.Root().AddGroup("A")
	b := a.AddGroup("B")
	c := b.AddGroup("C")

	if got := tr.Root().FullName(); got != rootName {
		t.Errorf("root FullName() = %q, want %q", got, rootName)
	}
	if got := a.FullName(); got != "A" {
		t.Errorf("FullName() = %q, want %q", got, "A")
	}
	if got := c.FullName(); got != "A : B : C" {
		t.Errorf("FullName() = %q, want %q", got, "A : B : C")
	}
}

func TestGroupNamed(t *testing.T) {
	tr := New()
	a := tr.Root().AddGroup("A")
	if got := tr.Root().GroupNamed("A"); got != a {
		t.Errorf("GroupNamed(A) = %v, want the group", got)
	}
	if got := tr.Root().GroupNamed("missing"); got != nil {
		t.Errorf("GroupNamed(missing) = %v, want nil", got)
	}
}

func TestChildrenReturnsCopy(t *testing.T) {
	tr := mustOpen(t, "Main\n  @text@\n    x\n")
	g := tr.Root().Groups()[0]

	kids := g.Children()
	kids[0] = nil
	if g.Children()[0] == nil {
		t.Error("mutating the returned slice reached the group")
	}

	groups := tr.Root().Groups()
	groups[0] = nil
	if tr.Root().Groups()[0] == nil {
		t.Error("mutating the returned group slice reached the root")
	}
}
