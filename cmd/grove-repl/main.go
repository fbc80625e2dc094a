package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/phroun/grove"
)

// config is the optional YAML configuration for the REPL.
type config struct {
	SnippetFile string `yaml:"snippet_file"`
	Backups     int    `yaml:"backups"`
	LogLevel    string `yaml:"log_level"`
}

// REPL holds the state of the interactive session
type REPL struct {
	tree     *grove.Tree
	snipPtr  *grove.SnippetPointer
	groupPtr *grove.GroupPointer
	reader   *bufio.Reader
	prompt   bool
	colour   bool
	cfg      config
	log      zerolog.Logger
}

func main() {
	cfg := loadConfig()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.WarnLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).Level(level).With().Timestamp().Logger()

	repl := &REPL{
		reader: bufio.NewReader(os.Stdin),
		prompt: isatty.IsTerminal(os.Stdin.Fd()),
		colour: isatty.IsTerminal(os.Stdout.Fd()),
		cfg:    cfg,
		log:    logger,
	}

	path := cfg.SnippetFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	if path != "" {
		tree, err := grove.Open(grove.Options{Path: path, Logger: logger, Backups: cfg.Backups})
		if err != nil {
			fmt.Printf("Error opening %s: %v\n", path, err)
			os.Exit(1)
		}
		repl.tree = tree
		groups, snippets := tree.Counts()
		fmt.Printf("Opened %s: %d groups, %d snippets\n", path, groups, snippets)
	}

	if repl.prompt {
		fmt.Println("Grove REPL - Interactive Snippet Tree Demo")
		fmt.Println("Type 'help' for available commands, 'quit' to exit")
		fmt.Println()
	}

	// Main loop
	for {
		if repl.prompt {
			fmt.Print("grove> ")
		}
		input, err := repl.reader.ReadString('\n')
		if err != nil {
			if repl.prompt {
				fmt.Println("\nGoodbye!")
			}
			break
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if !repl.handleCommand(input) {
			break
		}
	}
}

// loadConfig reads the first config file that exists; a missing config is
// not an error.
func loadConfig() config {
	cfg := config{LogLevel: "warn"}
	for _, path := range configPaths() {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Ignoring config %s: %v\n", path, err)
		}
		break
	}
	return cfg
}

func configPaths() []string {
	paths := []string{"grove-repl.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "grove", "repl.yaml"))
	}
	return paths
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help":
		r.printHelp()

	case "quit", "exit":
		fmt.Println("Goodbye!")
		return false

	case "new":
		r.cmdNew()

	case "open":
		r.cmdOpen(args)

	case "save":
		r.cmdSave(args)

	case "reload":
		r.cmdReload()

	case "status":
		r.cmdStatus()

	case "title":
		r.cmdTitle(args)

	case "tree":
		r.cmdTree()

	case "dump":
		r.cmdDump()

	case "counts":
		r.cmdCounts()

	case "show":
		r.cmdShow(args)

	case "find":
		r.cmdFind(args)

	case "kw":
		r.cmdKeywordSearch(args)

	case "addgroup":
		r.cmdAddGroup(args)

	case "add":
		r.cmdAdd(args, false)

	case "addmd":
		r.cmdAdd(args, true)

	case "edit":
		r.cmdEdit(args)

	case "dup":
		r.cmdDup(args)

	case "rm":
		r.cmdRemove(args)

	case "keywords":
		r.cmdKeywords(args)

	case "copy":
		r.cmdCopy(args)

	case "move":
		r.cmdMove(args)

	case "movegroup":
		r.cmdMoveGroup(args)

	case "j":
		r.cmdStep(false)

	case "k":
		r.cmdStep(true)

	case "commit":
		r.cmdCommit()

	case "abort":
		r.cmdAbort()

	default:
		fmt.Printf("Unknown command: %s. Type 'help' for available commands.\n", cmd)
	}

	return true
}

func (r *REPL) printHelp() {
	help := `
Available Commands:
-------------------

FILE OPERATIONS:
  new                     Start an empty tree
  open <path>             Open a snippet file
  save [path]             Save the tree (optionally to a new path)
  reload                  Re-read the bound file from disk
  status                  Show tree status

INSPECTION:
  tree                    Show the full hierarchy with element IDs
  show <id>               Show a snippet with keyword highlighting
  dump                    Print the document in file form
  counts                  Show group and snippet counts
  find <text>             List groups and snippets matching text
  kw <word>               List snippets governed by a keyword

EDITING:
  title [text]            Show or set the document title
  addgroup <spec>         Add a group ("Parent : Child [tag tag]")
  add <group>             Add a snippet to a group (body ends with '.')
  addmd <group>           Add a markdown snippet to a group
  edit <id>               Replace a snippet body (ends with '.')
  dup <id>                Duplicate a snippet after the original
  rm <id>                 Remove a snippet or group
  keywords <group> [+w|-w ...]  Show or edit a group's keywords
  copy <id>               Copy snippet text to the system clipboard

MOVING:
  move <id>               Start moving a snippet
  movegroup <id>          Start moving a group
  j / k                   Step the pointer forward / backward
  commit                  Commit the move at the current position
  abort                   Abandon the move

NOTE: While a move is in progress, leave the tree alone until you
      commit or abort; other edits invalidate the pointer.

OTHER:
  help                    Show this help message
  quit, exit              Exit the REPL
`
	fmt.Println(help)
}

func (r *REPL) cmdNew() {
	r.tree = grove.New()
	r.snipPtr = nil
	r.groupPtr = nil
	fmt.Println("Created an empty tree")
}

func (r *REPL) cmdOpen(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: open <path>")
		return
	}

	tree, err := grove.Open(grove.Options{Path: args[0], Logger: r.log, Backups: r.cfg.Backups})
	if err != nil {
		fmt.Printf("Open error: %v\n", err)
		return
	}

	r.tree = tree
	r.snipPtr = nil
	r.groupPtr = nil
	groups, snippets := tree.Counts()
	fmt.Printf("Opened %s: %d groups, %d snippets\n", args[0], groups, snippets)
}

func (r *REPL) cmdSave(args []string) {
	if !r.ensureTree() {
		return
	}

	var err error
	if len(args) > 0 {
		err = r.tree.SaveAs(args[0])
	} else {
		err = r.tree.Save()
	}
	if err != nil {
		fmt.Printf("Save error: %v\n", err)
		return
	}
	fmt.Printf("Saved to %s\n", r.tree.Path())
}

func (r *REPL) cmdReload() {
	if !r.ensureTree() {
		return
	}

	if err := r.tree.Reload(); err != nil {
		fmt.Printf("Reload error: %v\n", err)
		return
	}
	r.snipPtr = nil
	r.groupPtr = nil
	groups, snippets := r.tree.Counts()
	fmt.Printf("Reloaded %s: %d groups, %d snippets\n", r.tree.Path(), groups, snippets)
}

func (r *REPL) cmdStatus() {
	if !r.ensureTree() {
		return
	}

	groups, snippets := r.tree.Counts()
	path := r.tree.Path()
	if path == "" {
		path = "(none)"
	}
	title := r.tree.Title()
	if title == "" {
		title = "(none)"
	}

	fmt.Println("Tree Status:")
	fmt.Printf("  Path:     %s\n", path)
	fmt.Printf("  Title:    %s\n", title)
	fmt.Printf("  Groups:   %d\n", groups)
	fmt.Printf("  Snippets: %d\n", snippets)
	fmt.Printf("  Dirty:    %v\n", r.tree.Dirty())
	if r.snipPtr != nil || r.groupPtr != nil {
		fmt.Println("  Move in progress")
	}
}

func (r *REPL) cmdTitle(args []string) {
	if !r.ensureTree() {
		return
	}

	if len(args) == 0 {
		if t := r.tree.Title(); t != "" {
			fmt.Printf("Title: %s\n", t)
		} else {
			fmt.Println("No title set")
		}
		return
	}
	r.tree.SetTitle(strings.Join(args, " "))
	fmt.Printf("Title set to %q\n", r.tree.Title())
}

func (r *REPL) cmdTree() {
	if !r.ensureTree() {
		return
	}

	if title := r.tree.Title(); title != "" {
		fmt.Printf("Title: %s\n", title)
	}
	for el := range r.tree.Walk(grove.WalkOptions{}) {
		indent := strings.Repeat("  ", el.Depth())
		fmt.Printf("%s%s (%s)\n", indent, grove.Repr(el), el.UID())
		if g, ok := el.(*grove.Group); ok {
			if ks := g.KeywordSet(); ks != nil && !ks.IsEmpty() {
				fmt.Printf("%s  %s (%s)\n", indent, grove.Repr(ks), ks.UID())
			}
		}
	}
}

func (r *REPL) cmdDump() {
	if !r.ensureTree() {
		return
	}

	fmt.Println("--------")
	fmt.Print(r.tree.FileText())
	fmt.Println("--------")
}

func (r *REPL) cmdCounts() {
	if !r.ensureTree() {
		return
	}

	groups, snippets := r.tree.Counts()
	fmt.Printf("%d groups, %d snippets\n", groups, snippets)
}

func (r *REPL) cmdShow(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: show <id>")
		return
	}

	el := r.tree.ElementByID(args[0])
	if el == nil {
		fmt.Printf("No element %s\n", args[0])
		return
	}

	var lines []string
	switch sn := el.(type) {
	case *grove.MarkdownSnippet:
		lines = sn.MarkedLines()
	case *grove.Snippet:
		lines = sn.MarkedLines()
	default:
		fmt.Printf("%s\n", grove.Repr(el))
		return
	}

	if p := el.Parent(); p != nil {
		fmt.Printf("[%s]\n", p.FullName())
	}
	for _, line := range lines {
		fmt.Println(r.renderMarked(line))
	}
}

func (r *REPL) cmdFind(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: find <text>")
		return
	}

	query := strings.Join(args, " ")
	found := 0
	for el := range r.tree.Walk(grove.WalkOptions{Predicate: grove.MatchText(query)}) {
		fmt.Printf("%s (%s)\n", grove.Repr(el), el.UID())
		found++
	}
	if found == 0 {
		fmt.Println("No matches")
	}
}

func (r *REPL) cmdKeywordSearch(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: kw <word>")
		return
	}

	found := 0
	for el := range r.tree.Walk(grove.WalkOptions{Predicate: grove.HasKeyword(args[0])}) {
		fmt.Printf("%s (%s)\n", grove.Repr(el), el.UID())
		found++
	}
	if found == 0 {
		fmt.Println("No matches")
	}
}

func (r *REPL) cmdAddGroup(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: addgroup <spec>   (e.g. addgroup Linux : Shell [unix])")
		return
	}

	spec := strings.Join(args, " ")
	g := r.tree.Root()
	for _, segment := range strings.Split(spec, ":") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		g = g.AddGroup(segment)
	}
	g.Clean()
	fmt.Printf("Group %s (%s)\n", g.FullName(), g.UID())
}

func (r *REPL) cmdAdd(args []string, markdown bool) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: add <group>  /  addmd <group>")
		return
	}

	g := r.findGroup(strings.Join(args, " "))
	if g == nil {
		fmt.Println("No such group")
		return
	}

	body := r.readBody()
	if len(body) == 0 {
		fmt.Println("Empty body, nothing added")
		return
	}

	if markdown {
		sn := r.tree.NewMarkdownSnippet()
		sn.SetText(strings.Join(body, "\n"))
		g.Add(sn)
		fmt.Printf("Added %s to %s\n", sn.UID(), g.FullName())
	} else {
		sn := r.tree.NewSnippet()
		sn.SetText(strings.Join(body, "\n"))
		g.Add(sn)
		fmt.Printf("Added %s to %s\n", sn.UID(), g.FullName())
	}
}

func (r *REPL) cmdEdit(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: edit <id>")
		return
	}

	el := r.tree.ElementByID(args[0])
	if el == nil {
		fmt.Printf("No element %s\n", args[0])
		return
	}

	body := r.readBody()
	text := strings.Join(body, "\n")

	switch sn := el.(type) {
	case *grove.MarkdownSnippet:
		sn.SetText(text)
	case *grove.Snippet:
		sn.SetText(text)
	default:
		fmt.Println("Only snippets can be edited")
		return
	}
	fmt.Printf("Updated %s\n", el.UID())
}

func (r *REPL) cmdDup(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: dup <id>")
		return
	}

	el := r.tree.ElementByID(args[0])
	if el == nil {
		fmt.Printf("No element %s\n", args[0])
		return
	}
	parent := el.Parent()
	if parent == nil {
		fmt.Println("Element is not attached")
		return
	}

	switch sn := el.(type) {
	case *grove.MarkdownSnippet:
		d := sn.Duplicate()
		parent.AddAfter(d, sn)
		fmt.Printf("Duplicated as %s\n", d.UID())
	case *grove.Snippet:
		d := sn.Duplicate()
		parent.AddAfter(d, sn)
		fmt.Printf("Duplicated as %s\n", d.UID())
	default:
		fmt.Println("Only snippets can be duplicated")
	}
}

func (r *REPL) cmdRemove(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: rm <id>")
		return
	}

	el := r.tree.ElementByID(args[0])
	if el == nil {
		fmt.Printf("No element %s\n", args[0])
		return
	}
	parent := el.Parent()
	if parent == nil {
		fmt.Println("Cannot remove the root")
		return
	}

	parent.Remove(el)
	fmt.Printf("Removed %s\n", args[0])
}

func (r *REPL) cmdKeywords(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: keywords <group> [+word|-word ...]")
		return
	}

	// The group name runs up to the first +word or -word
	split := len(args)
	for i, a := range args {
		if strings.HasPrefix(a, "+") || strings.HasPrefix(a, "-") {
			split = i
			break
		}
	}

	g := r.findGroup(strings.Join(args[:split], " "))
	if g == nil {
		fmt.Println("No such group")
		return
	}
	if g.KeywordSet() == nil {
		g.Clean()
	}
	ks := g.KeywordSet()

	for _, a := range args[split:] {
		switch {
		case strings.HasPrefix(a, "+"):
			ks.AddWord(a[1:])
		case strings.HasPrefix(a, "-"):
			ks.RemoveWord(a[1:])
		}
	}

	words := ks.Words()
	if len(words) == 0 {
		fmt.Printf("%s has no keywords\n", g.FullName())
		return
	}
	fmt.Printf("%s: [%s]\n", g.FullName(), strings.Join(words, " "))
}

func (r *REPL) cmdCopy(args []string) {
	if !r.ensureTree() {
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: copy <id>")
		return
	}

	el := r.tree.ElementByID(args[0])
	if el == nil {
		fmt.Printf("No element %s\n", args[0])
		return
	}

	var text string
	switch sn := el.(type) {
	case *grove.MarkdownSnippet:
		text = sn.ClipboardText()
	case *grove.Snippet:
		text = sn.ClipboardText()
	default:
		fmt.Println("Only snippets can be copied")
		return
	}

	if err := clipboard.WriteAll(text); err != nil {
		fmt.Printf("Clipboard error: %v\n", err)
		return
	}
	fmt.Printf("Copied %s to clipboard\n", el.UID())
}

func (r *REPL) cmdMove(args []string) {
	if !r.ensureTree() {
		return
	}
	if r.snipPtr != nil || r.groupPtr != nil {
		fmt.Println("A move is already in progress; commit or abort it first")
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: move <id>")
		return
	}

	el := r.tree.ElementByID(args[0])
	if el == nil {
		fmt.Printf("No element %s\n", args[0])
		return
	}

	p, err := grove.NewSnippetPointer(el)
	if err != nil {
		fmt.Printf("Cannot move: %v\n", err)
		return
	}
	r.snipPtr = p
	fmt.Printf("Moving %s. Use j/k to step, commit or abort to finish.\n", el.UID())
}

func (r *REPL) cmdMoveGroup(args []string) {
	if !r.ensureTree() {
		return
	}
	if r.snipPtr != nil || r.groupPtr != nil {
		fmt.Println("A move is already in progress; commit or abort it first")
		return
	}
	if len(args) < 1 {
		fmt.Println("Usage: movegroup <id>")
		return
	}

	g := r.findGroup(strings.Join(args, " "))
	if g == nil {
		fmt.Println("No such group")
		return
	}

	p, err := grove.NewGroupPointer(g)
	if err != nil {
		fmt.Printf("Cannot move: %v\n", err)
		return
	}
	r.groupPtr = p
	fmt.Printf("Moving %s. Use j/k to step, commit or abort to finish.\n", g.FullName())
}

func (r *REPL) cmdStep(backwards bool) {
	switch {
	case r.snipPtr != nil:
		if !r.snipPtr.Move(backwards) {
			fmt.Println("No further position in that direction")
			return
		}
		_, after := r.snipPtr.Addr()
		r.printSlot(r.snipPtr.Ref(), after)

	case r.groupPtr != nil:
		if !r.groupPtr.Move(backwards) {
			fmt.Println("No further position in that direction")
			return
		}
		_, after := r.groupPtr.Addr()
		r.printSlot(r.groupPtr.Ref(), after)

	default:
		fmt.Println("No move in progress. Use 'move <id>' or 'movegroup <id>'.")
	}
}

func (r *REPL) cmdCommit() {
	switch {
	case r.snipPtr != nil:
		if r.snipPtr.Commit() {
			fmt.Println("Moved")
		} else {
			fmt.Println("Pointer has not left the original position; nothing moved")
		}
		r.snipPtr = nil

	case r.groupPtr != nil:
		if r.groupPtr.Commit() {
			fmt.Println("Moved")
		} else {
			fmt.Println("Cannot commit here; nothing moved")
		}
		r.groupPtr = nil

	default:
		fmt.Println("No move in progress")
	}
}

func (r *REPL) cmdAbort() {
	if r.snipPtr == nil && r.groupPtr == nil {
		fmt.Println("No move in progress")
		return
	}
	r.snipPtr = nil
	r.groupPtr = nil
	fmt.Println("Move abandoned")
}

// printSlot describes an insertion position for the user.
func (r *REPL) printSlot(ref grove.Element, after bool) {
	side := "before"
	if after {
		side = "after"
	}
	where := ""
	if g := ref.Parent(); g != nil {
		where = " in " + g.FullName()
	}
	fmt.Printf("Pointer %s [%s]%s\n", side, grove.Repr(ref), where)
}

// readBody collects snippet text up to a line holding only ".".
func (r *REPL) readBody() []string {
	if r.prompt {
		fmt.Println("Enter text, '.' on its own line to finish:")
	}
	var lines []string
	for {
		line, err := r.reader.ReadString('\n')
		if err != nil {
			break
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "." {
			break
		}
		lines = append(lines, line)
	}
	return lines
}

// findGroup resolves a group by element ID, full name, or plain name.
func (r *REPL) findGroup(arg string) *grove.Group {
	if el := r.tree.ElementByID(arg); el != nil {
		if g, ok := el.(*grove.Group); ok {
			return g
		}
		return nil
	}
	for el := range r.tree.Walk(grove.WalkOptions{}) {
		if g, ok := el.(*grove.Group); ok {
			if g.FullName() == arg || g.Name() == arg {
				return g
			}
		}
	}
	return nil
}

// renderMarked converts highlight sentinels to ANSI colours, or strips them
// when stdout is not a terminal.
func (r *REPL) renderMarked(line string) string {
	var b strings.Builder
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case grove.MarkStart:
			if i+1 < len(runes) {
				i++
				if r.colour {
					b.WriteString(colourFor(runes[i]))
				}
			}
		case grove.MarkEnd:
			if r.colour {
				b.WriteString("\x1b[0m")
			}
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

// colourFor maps a palette code character to an ANSI foreground colour.
func colourFor(code rune) string {
	colours := [...]string{
		"\x1b[31m", "\x1b[32m", "\x1b[33m", "\x1b[34m", "\x1b[35m",
		"\x1b[36m", "\x1b[91m", "\x1b[92m", "\x1b[93m", "\x1b[94m",
	}
	if code >= '0' && code <= '9' {
		return colours[code-'0']
	}
	return ""
}

func (r *REPL) ensureTree() bool {
	if r.tree == nil {
		fmt.Println("No tree is open. Use 'open <path>' or 'new' first.")
		return false
	}
	return true
}
