package grove

import (
	"fmt"
	"iter"

	"github.com/rs/zerolog"
)

// Options configures how a Tree is opened.
type Options struct {
	// Data source (exactly one must be provided)
	Path       string // load from file path
	Data       []byte // literal byte content
	DataString string // literal string content

	// FS is the file system used for loading, saving and backups.
	// Defaults to the local file system.
	FS FileSystemInterface

	// Logger receives structured load and save events. The zero value
	// discards everything.
	Logger zerolog.Logger

	// Backups is the number of rotating backups kept when saving.
	// Zero means DefaultBackups; a negative count disables backups.
	Backups int
}

// Tree is a snippet document: a hierarchy of named groups holding snippets,
// preserved commentary, and per-group keyword sets. A Tree is not safe for
// concurrent use.
type Tree struct {
	root  *Group
	title *Title
	path  string

	fs      FileSystemInterface
	log     zerolog.Logger
	backups int

	// Identity and highlight state, shared by every element of this tree
	ids      *idAllocator
	keywords *keywordRegistry
}

// New returns an empty tree holding only the root group. Hosts that build
// documents programmatically start here.
func New() *Tree {
	return newTree(Options{})
}

func newTree(options Options) *Tree {
	t := &Tree{
		path:     options.Path,
		fs:       options.FS,
		log:      options.Logger,
		backups:  options.Backups,
		ids:      newIDAllocator(),
		keywords: newKeywordRegistry(),
	}
	if t.fs == nil {
		t.fs = &localFileSystem{}
	}
	if t.backups == 0 {
		t.backups = DefaultBackups
	}
	t.root = newGroup(t, rootName)
	return t
}

// Open loads a tree from the single data source named in options.
func Open(options Options) (*Tree, error) {
	sourceCount := 0
	if options.Path != "" {
		sourceCount++
	}
	if options.Data != nil {
		sourceCount++
	}
	if options.DataString != "" {
		sourceCount++
	}
	if sourceCount == 0 {
		return nil, ErrNoDataSource
	}
	if sourceCount > 1 {
		return nil, ErrMultipleDataSources
	}

	t := newTree(options)

	data := options.Data
	switch {
	case options.DataString != "":
		data = []byte(options.DataString)
	case options.Path != "":
		var err error
		data, err = t.fs.ReadFile(options.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", options.Path, err)
		}
	}

	if err := t.parse(data); err != nil {
		if options.Path != "" {
			return nil, fmt.Errorf("loading %s: %w", options.Path, err)
		}
		return nil, err
	}

	groups, snippets := t.Counts()
	t.log.Debug().Str("path", t.path).Int("groups", groups).Int("snippets", snippets).Msg("tree loaded")
	return t, nil
}

// Load opens the snippet file at path with default options.
func Load(path string) (*Tree, error) {
	return Open(Options{Path: path})
}

func (t *Tree) parse(data []byte) error {
	l := &loader{tree: t}
	return l.parse(data)
}

// Root returns the root group. The root never appears in the file as a
// header; its direct children form the top level of the document.
func (t *Tree) Root() *Group { return t.root }

// Path returns the file path the tree is bound to, or "" for trees built
// from literal data.
func (t *Tree) Path() string { return t.path }

// Title returns the document title, or "" when none is set.
func (t *Tree) Title() string {
	if t.title == nil {
		return ""
	}
	return t.title.Text()
}

// SetTitle sets the document title. An empty text removes the title line
// from the document.
func (t *Tree) SetTitle(text string) {
	switch {
	case text == "":
		if t.title == nil {
			return
		}
		t.title = nil
		t.root.markDirty()
	case t.title == nil:
		t.title = newTitle(t, text)
		t.title.markDirty()
	default:
		t.title.setText(text)
	}
}

// Walk walks the whole document in document order. See Group.Walk for
// ordering and option semantics.
func (t *Tree) Walk(opts WalkOptions) iter.Seq[Element] {
	return t.root.Walk(opts)
}

// NewSnippet returns a detached snippet belonging to this tree. Attach it
// with Group.Add or its siblings.
func (t *Tree) NewSnippet() *Snippet {
	return newSnippet(t)
}

// NewMarkdownSnippet returns a detached markdown snippet belonging to this
// tree.
func (t *Tree) NewMarkdownSnippet() *MarkdownSnippet {
	return newMarkdownSnippet(t)
}

// Dirty reports whether anything changed since the last load, save, or
// ClearDirty sweep.
func (t *Tree) Dirty() bool {
	if t.title != nil && t.title.Dirty() {
		return true
	}
	return groupDirty(t.root)
}

// Save writes the tree back to the path it is bound to, rotating backups
// first. Trees built from literal data have no path and cannot Save until
// SaveAs binds them to one.
func (t *Tree) Save() error {
	if t.path == "" {
		return ErrNoPath
	}
	return t.SaveAs(t.path)
}

// SaveAs writes the tree to path and re-binds the tree to it. Existing
// content at path is kept in rotating backups. Backup trouble is logged
// but never fails the save.
func (t *Tree) SaveAs(path string) error {
	if path == "" {
		return ErrNoPath
	}
	backupFile(t.fs, path, t.backups, t.log)
	text := t.FileText()
	if err := t.fs.WriteFile(path, []byte(text)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	t.path = path
	if t.title != nil {
		t.title.ClearDirty()
	}
	clearGroupDirty(t.root)
	t.log.Debug().Str("path", path).Int("bytes", len(text)).Msg("tree saved")
	return nil
}

// Reload discards the in-memory tree and re-parses the bound file. Element
// IDs are never reused: the reloaded document gets fresh ones. On a parse
// failure the previous tree stays in place.
func (t *Tree) Reload() error {
	if t.path == "" {
		return ErrNoPath
	}
	data, err := t.fs.ReadFile(t.path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", t.path, err)
	}

	root, title := t.root, t.title
	t.root = newGroup(t, rootName)
	t.title = nil
	if err := t.parse(data); err != nil {
		t.root, t.title = root, title
		return fmt.Errorf("loading %s: %w", t.path, err)
	}
	t.log.Debug().Str("path", t.path).Msg("tree reloaded")
	return nil
}

func groupDirty(g *Group) bool {
	if g.Dirty() {
		return true
	}
	for _, child := range g.children {
		if child.Dirty() {
			return true
		}
	}
	for _, sub := range g.groups {
		if groupDirty(sub) {
			return true
		}
	}
	return false
}

func clearGroupDirty(g *Group) {
	g.ClearDirty()
	for _, child := range g.children {
		child.ClearDirty()
	}
	for _, sub := range g.groups {
		clearGroupDirty(sub)
	}
}
