package grove

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sevenSnippetDoc() string {
	var b strings.Builder
	b.WriteString("Stack\n")
	for _, w := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
		b.WriteString("  @text@\n    " + w + "\n")
	}
	return b.String()
}

func TestMoveSnippetBeforeEarlier(t *testing.T) {
	tr := mustOpen(t, sevenSnippetDoc())
	six := snippetWithBody(tr, "six")

	p, err := NewSnippetPointer(six)
	if err != nil {
		t.Fatalf("NewSnippetPointer failed: %v", err)
	}
	if uid, after := p.Addr(); uid != six.UID() || after {
		t.Fatalf("fresh pointer Addr = (%s, %v), want (%s, false)", uid, after, six.UID())
	}

	// Three upward steps put the slot just before snippet three.
	wantRefs := []string{"five", "four", "three"}
	for _, want := range wantRefs {
		if !p.Move(true) {
			t.Fatalf("Move(backwards) stalled before %q", want)
		}
		ref := p.Ref()
		if ref != snippetWithBody(tr, want) {
			t.Fatalf("pointer ref = %s, want snippet %q", Repr(ref), want)
		}
		if _, after := p.Addr(); after {
			t.Fatalf("pointer side at %q = after, want before", want)
		}
	}

	if !p.Commit() {
		t.Fatal("Commit failed")
	}
	want := []string{"one", "two", "six", "three", "four", "five", "seven"}
	if diff := cmp.Diff(want, snippetBodies(tr)); diff != "" {
		t.Errorf("order after move (-want +got):\n%s", diff)
	}
}

func TestMoveBetweenGroups(t *testing.T) {
	doc := "G1\n  @text@\n    one\n  @text@\n    two\n  @text@\n    three\n" +
		"G2\n  @text@\n    four\n  @text@\n    five\n  @text@\n    six\n" +
		"G3\n  @text@\n    seven\n"
	tr := mustOpen(t, doc)
	six := snippetWithBody(tr, "six")
	three := snippetWithBody(tr, "three")

	p, err := NewSnippetPointer(six)
	if err != nil {
		t.Fatalf("NewSnippetPointer failed: %v", err)
	}
	// The slot immediately after "two" is canonically (three, before).
	for i := 0; ; i++ {
		uid, after := p.Addr()
		if uid == three.UID() && !after {
			break
		}
		if i > 20 || !p.Move(true) {
			t.Fatalf("never reached the slot before %q", "three")
		}
	}
	if !p.Commit() {
		t.Fatal("Commit failed")
	}

	want := []string{"one", "two", "six", "three", "four", "five", "seven"}
	if diff := cmp.Diff(want, snippetBodies(tr)); diff != "" {
		t.Errorf("order after cross-group move (-want +got):\n%s", diff)
	}
	if got := six.Parent().Name(); got != "G1" {
		t.Errorf("moved snippet parent = %q, want G1", got)
	}
}

func TestMoveReversibility(t *testing.T) {
	tr := mustOpen(t, "G1\n  @text@\n    one\n  @text@\n    two\n" +
		"G2\n  @text@\n    four\n  @text@\n    five\n  @text@\n    six\n")
	var original []string
	for el := range tr.Walk(WalkOptions{Predicate: isSnippet}) {
		original = append(original, el.UID())
	}
	six := snippetWithBody(tr, "six")
	five := snippetWithBody(tr, "five")

	// Out: six goes to the top of the document.
	p, err := NewSnippetPointer(six)
	if err != nil {
		t.Fatalf("NewSnippetPointer failed: %v", err)
	}
	for p.Move(true) {
	}
	if !p.Commit() {
		t.Fatal("first Commit failed")
	}

	// Back: re-attach six right behind its original neighbour.
	p, err = NewSnippetPointer(six)
	if err != nil {
		t.Fatalf("second NewSnippetPointer failed: %v", err)
	}
	for i := 0; ; i++ {
		uid, after := p.Addr()
		if uid == five.UID() && after {
			break
		}
		if i > 20 || !p.Move(false) {
			t.Fatalf("never reached the slot after %q", "five")
		}
	}
	if !p.Commit() {
		t.Fatal("second Commit failed")
	}

	var got []string
	for el := range tr.Walk(WalkOptions{Predicate: isSnippet}) {
		got = append(got, el.UID())
	}
	if diff := cmp.Diff(original, got); diff != "" {
		t.Errorf("moving there and back changed the order (-want +got):\n%s", diff)
	}
}

const crossGroupDoc = "A\n" +
	"  @text@\n    s1\n" +
	"  @text@\n    s2\n" +
	"B\n" +
	"  @text@\n    s3\n" +
	"C\n"

func TestForwardSlotSequence(t *testing.T) {
	tr := mustOpen(t, crossGroupDoc)
	s1 := snippetWithBody(tr, "s1")
	s2 := snippetWithBody(tr, "s2")
	s3 := snippetWithBody(tr, "s3")

	p, err := NewSnippetPointer(s1)
	if err != nil {
		t.Fatalf("NewSnippetPointer failed: %v", err)
	}

	steps := []struct {
		ref   Element
		after bool
	}{
		{s2, true},  // bottom of A; before s2 is where s1 already sits
		{s3, false}, // top of B
		{s3, true},  // bottom of B
	}
	for i, want := range steps {
		if !p.Move(false) {
			t.Fatalf("Move %d stalled", i+1)
		}
		uid, after := p.Addr()
		if uid != want.ref.UID() || after != want.after {
			t.Fatalf("slot %d = (%s, %v), want (%s, %v)", i+1, uid, after, want.ref.UID(), want.after)
		}
	}

	// The last slot is the empty group's placeholder, approached from before.
	if !p.Move(false) {
		t.Fatal("Move into empty group stalled")
	}
	ref := p.Ref()
	if !isPlaceHolder(ref) || ref.Parent().Name() != "C" {
		t.Fatalf("final ref = %s in %q, want placeholder in C", Repr(ref), ref.Parent().Name())
	}

	// Past the end the pointer stays put.
	if p.Move(false) {
		t.Error("Move past document end succeeded")
	}
	if got := p.Ref(); got != ref {
		t.Errorf("failed move changed ref to %s", Repr(got))
	}
}

func TestCommitIntoEmptyGroup(t *testing.T) {
	tr := mustOpen(t, crossGroupDoc)
	s1 := snippetWithBody(tr, "s1")
	c := tr.Root().GroupNamed("C")

	p, _ := NewSnippetPointer(s1)
	for p.Ref().Parent() != c {
		if !p.Move(false) {
			t.Fatal("never reached group C")
		}
	}
	if !p.Commit() {
		t.Fatal("Commit failed")
	}

	if s1.Parent() != c {
		t.Errorf("snippet parent = %v, want group C", s1.Parent())
	}
	if c.hasPlaceHolder() {
		t.Error("placeholder survived the arriving snippet")
	}
	// The pointer is re-anchored at the snippet for the next round.
	if uid, after := p.Addr(); uid != s1.UID() || after {
		t.Errorf("Addr after commit = (%s, %v), want (%s, false)", uid, after, s1.UID())
	}
}

func TestMoveBackwardsAtTop(t *testing.T) {
	tr := mustOpen(t, crossGroupDoc)
	s1 := snippetWithBody(tr, "s1")

	p, _ := NewSnippetPointer(s1)
	if p.Move(true) {
		t.Error("Move above the first snippet succeeded")
	}
	if uid, after := p.Addr(); uid != s1.UID() || after {
		t.Errorf("Addr after failed move = (%s, %v), want unchanged", uid, after)
	}
}

func TestCommitDegenerateRefused(t *testing.T) {
	tr := mustOpen(t, crossGroupDoc)
	p, _ := NewSnippetPointer(snippetWithBody(tr, "s1"))
	if p.Commit() {
		t.Error("Commit on a fresh pointer succeeded")
	}
	if got := snippetBodies(tr); got[0] != "s1" {
		t.Errorf("order changed: %v", got)
	}
}

func TestSourceGroupGainsPlaceHolder(t *testing.T) {
	tr := mustOpen(t, "A\n  @text@\n    a1\nB\n  @text@\n    b1\n")
	a := tr.Root().GroupNamed("A")
	a1 := snippetWithBody(tr, "a1")

	p, _ := NewSnippetPointer(a1)
	if !p.Move(false) {
		t.Fatal("Move failed")
	}
	if !p.Commit() {
		t.Fatal("Commit failed")
	}

	if !a.hasPlaceHolder() {
		t.Error("emptied source group has no placeholder")
	}
	want := []string{"a1", "b1"}
	if diff := cmp.Diff(want, snippetBodies(tr)); diff != "" {
		t.Errorf("order after move (-want +got):\n%s", diff)
	}
}

func TestNewSnippetPointerErrors(t *testing.T) {
	tr := mustOpen(t, "Only\n  @text@\n    x\n")

	if _, err := NewSnippetPointer(tr.Root()); !errors.Is(err, ErrCannotMove) {
		t.Errorf("pointer on group = %v, want %v", err, ErrCannotMove)
	}

	detached := tr.NewSnippet()
	detached.SetText("loose\n")
	if _, err := NewSnippetPointer(detached); !errors.Is(err, ErrNotAttached) {
		t.Errorf("pointer on detached snippet = %v, want %v", err, ErrNotAttached)
	}

	// The only snippet of the only group has nowhere to go.
	if _, err := NewSnippetPointer(snippetWithBody(tr, "x")); !errors.Is(err, ErrCannotMove) {
		t.Errorf("pointer with no destination = %v, want %v", err, ErrCannotMove)
	}
}

func TestGroupPointerMoveAfterSibling(t *testing.T) {
	tr := mustOpen(t, "A\nA : In\nB\n")
	a := tr.Root().GroupNamed("A")
	b := tr.Root().GroupNamed("B")

	p, err := NewGroupPointer(a)
	if err != nil {
		t.Fatalf("NewGroupPointer failed: %v", err)
	}
	// The only forward slot is after B; A's own subtree anchors nothing.
	if !p.Move(false) {
		t.Fatal("Move failed")
	}
	if p.Ref() != b {
		t.Fatalf("ref = %q, want B", p.Ref().Name())
	}
	if _, after := p.Addr(); !after {
		t.Fatal("slot side = before, want after")
	}
	if !p.Commit() {
		t.Fatal("Commit failed")
	}

	groups := tr.Root().Groups()
	if groups[0] != b || groups[1] != a {
		t.Errorf("root order = [%s %s], want [B A]", groups[0].Name(), groups[1].Name())
	}
	if in := a.GroupNamed("In"); in == nil || in.Parent() != a {
		t.Error("subtree did not travel with the moved group")
	}
}

func TestGroupPointerBackwards(t *testing.T) {
	tr := mustOpen(t, "A\nB\nC\n")
	c := tr.Root().GroupNamed("C")

	p, _ := NewGroupPointer(c)
	if !p.Move(true) {
		t.Fatal("Move failed")
	}
	if !p.Commit() {
		t.Fatal("Commit failed")
	}

	want := []string{"A", "C", "B"}
	var got []string
	for _, g := range tr.Root().Groups() {
		got = append(got, g.Name())
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("root order (-want +got):\n%s", diff)
	}
}

func TestGroupCommitNameCollision(t *testing.T) {
	tr := mustOpen(t, "A\nA : X\n  @text@\n    ax\nB\nB : X\n  @text@\n    bx\n")
	a := tr.Root().GroupNamed("A")
	b := tr.Root().GroupNamed("B")
	ax := a.GroupNamed("X")

	p, err := NewGroupPointer(ax)
	if err != nil {
		t.Fatalf("NewGroupPointer failed: %v", err)
	}
	// Walk the slot into B, which already holds its own X.
	for p.Ref().Parent() != b {
		if !p.Move(false) {
			t.Fatal("never reached a slot inside B")
		}
	}

	if p.Commit() {
		t.Error("Commit into a name collision succeeded")
	}
	if ax.Parent() != a {
		t.Error("refused commit still moved the group")
	}
	// The pointer keeps its position so the host can step elsewhere.
	if p.Ref().Parent() != b {
		t.Error("refused commit reset the pointer")
	}
}

func TestNewGroupPointerErrors(t *testing.T) {
	tr := mustOpen(t, "Only\n")
	if _, err := NewGroupPointer(tr.Root()); !errors.Is(err, ErrNotAttached) {
		t.Errorf("pointer on root = %v, want %v", err, ErrNotAttached)
	}
	if _, err := NewGroupPointer(tr.Root().Groups()[0]); !errors.Is(err, ErrCannotMove) {
		t.Errorf("pointer on only group = %v, want %v", err, ErrCannotMove)
	}
}

func TestGroupPointerOnlyDescendants(t *testing.T) {
	tr := mustOpen(t, "A\nA : In\n")
	a := tr.Root().Groups()[0]
	if _, err := NewGroupPointer(a); !errors.Is(err, ErrCannotMove) {
		t.Errorf("pointer with only descendant anchors = %v, want %v", err, ErrCannotMove)
	}
}
