// grove-bench is a benchmark and stress test for the grove library.
// It builds a large snippet document and measures common operations.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/phroun/grove"
)

const (
	topGroups    = 100
	subsPerGroup = 4
	snippetsPer  = 5
	linesPer     = 8
	saveRounds   = 12 // enough to cycle the whole backup rotation
)

type BenchResult struct {
	Name     string
	Duration time.Duration
	Ops      int
	Extra    string
}

func (r BenchResult) String() string {
	if r.Ops > 0 {
		opsPerSec := float64(r.Ops) / r.Duration.Seconds()
		if r.Extra != "" {
			return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec) %s", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec, r.Extra)
		}
		return fmt.Sprintf("%-40s %12v  (%d ops, %.2f ops/sec)", r.Name, r.Duration.Round(time.Millisecond), r.Ops, opsPerSec)
	}
	if r.Extra != "" {
		return fmt.Sprintf("%-40s %12v  %s", r.Name, r.Duration.Round(time.Millisecond), r.Extra)
	}
	return fmt.Sprintf("%-40s %12v", r.Name, r.Duration.Round(time.Millisecond))
}

func main() {
	fmt.Println("Grove Benchmark and Stress Test")
	fmt.Println("================================")
	fmt.Printf("Document: %d top groups x %d sub-groups x %d snippets\n", topGroups, subsPerGroup, snippetsPer)
	fmt.Printf("Go version: %s\n", runtime.Version())
	fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
	fmt.Println()

	tmpDir, err := os.MkdirTemp("", "grove-bench-*")
	if err != nil {
		fmt.Printf("Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(tmpDir)

	testFile := filepath.Join(tmpDir, "bench.snippets")

	var results []BenchResult

	runBench := func(name string, fn func() BenchResult) {
		fmt.Printf("  %-40s ", name+"...")
		result := fn()
		fmt.Printf("%v\n", result.Duration.Round(time.Millisecond))
		results = append(results, result)
	}

	// Build the document and put it on disk
	fmt.Println("Building test document...")
	tree, result := buildDocument()
	results = append(results, result)
	fmt.Println(result)

	if err := tree.SaveAs(testFile); err != nil {
		fmt.Printf("Failed to write test file: %v\n", err)
		os.Exit(1)
	}
	info, _ := os.Stat(testFile)
	fmt.Printf("Test file: %d bytes\n\n", info.Size())

	fmt.Println("Running benchmarks...")
	fmt.Println()

	fmt.Println("Loading:")
	runBench("Open file", func() BenchResult { return benchOpen(testFile) })

	g, err := grove.Load(testFile)
	if err != nil {
		fmt.Printf("Failed to open test file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nTraversal:")
	runBench("Full document walks", func() BenchResult { return benchWalk(g) })
	runBench("Backward walks", func() BenchResult { return benchWalkBack(g) })
	runBench("Text search walks", func() BenchResult { return benchFind(g) })
	runBench("Keyword search walks", func() BenchResult { return benchKeyword(g) })

	fmt.Println("\nRendering:")
	runBench("Keyword highlighting", func() BenchResult { return benchMarked(g) })
	runBench("Serialization", func() BenchResult { return benchSerialize(g) })

	fmt.Println("\nReordering:")
	runBench("Snippet moves", func() BenchResult { return benchMoves(g) })
	runBench("Group moves", func() BenchResult { return benchGroupMoves(g) })

	fmt.Println("\nPersistence:")
	runBench("Save with backup rotation", func() BenchResult { return benchSaveRotation(g) })
	runBench("Reload", func() BenchResult { return benchReload(g) })

	fmt.Println("\n========")
	fmt.Println("SUMMARY")
	fmt.Println("========")
	for _, r := range results {
		fmt.Println(r)
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Println()
	fmt.Printf("Peak heap allocation: %d MB\n", m.HeapSys/(1024*1024))
	fmt.Printf("Total allocations: %d MB\n", m.TotalAlloc/(1024*1024))
}

var keywordPool = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "theta", "kappa"}

// buildDocument assembles the benchmark tree through the public API, the
// way an interactive host would.
func buildDocument() (*grove.Tree, BenchResult) {
	start := time.Now()

	tree := grove.New()
	root := tree.Root()

	for i := 0; i < topGroups; i++ {
		top := root.AddGroup(fmt.Sprintf("Section %03d", i))
		for j := 0; j < subsPerGroup; j++ {
			sub := top.AddGroup(fmt.Sprintf("Topic %d [bench tier%d]", j, j%3))
			sub.Clean()
			ks := sub.KeywordSet()
			ks.AddWord(keywordPool[(i+j)%len(keywordPool)])
			ks.AddWord(keywordPool[(i+j+3)%len(keywordPool)])

			for k := 0; k < snippetsPer; k++ {
				if k%3 == 0 {
					md := tree.NewMarkdownSnippet()
					md.SetText(snippetBody(i, j, k, true))
					sub.Add(md)
				} else {
					sn := tree.NewSnippet()
					sn.SetText(snippetBody(i, j, k, false))
					sub.Add(sn)
				}
			}
		}
	}
	root.Clean()

	groups, total := tree.Counts()
	return tree, BenchResult{
		Name:     "Build document",
		Duration: time.Since(start),
		Extra:    fmt.Sprintf("%d groups, %d snippets", groups, total),
	}
}

func snippetBody(i, j, k int, markdown bool) string {
	word := keywordPool[(i+j)%len(keywordPool)]
	if markdown {
		return fmt.Sprintf("## Note %d-%d-%d\n\nThe `%s` flag controls this path.\nSee also **%s** handling:\n\n    example --%s\n\nDone.",
			i, j, k, word, word, word)
	}
	return fmt.Sprintf("case %d-%d-%d:\n    run(%q)\n    # %s appears here\n    emit(%s)\nend", i, j, k, word, word, word)
}

func benchOpen(path string) BenchResult {
	ops := 0
	start := time.Now()

	for i := 0; i < 20; i++ {
		if _, err := grove.Load(path); err != nil {
			return BenchResult{Name: "Open file", Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err)}
		}
		ops++
	}

	return BenchResult{
		Name:     "Open file",
		Duration: time.Since(start),
		Ops:      ops,
	}
}

func benchWalk(g *grove.Tree) BenchResult {
	ops := 0
	visited := 0
	start := time.Now()

	for i := 0; i < 100; i++ {
		for range g.Walk(grove.WalkOptions{}) {
			visited++
		}
		ops++
	}

	return BenchResult{
		Name:     "Full document walks",
		Duration: time.Since(start),
		Ops:      ops,
		Extra:    fmt.Sprintf("%d elements/walk", visited/ops),
	}
}

func benchWalkBack(g *grove.Tree) BenchResult {
	ops := 0
	start := time.Now()

	for i := 0; i < 100; i++ {
		for range g.Walk(grove.WalkOptions{Backwards: true}) {
		}
		ops++
	}

	return BenchResult{
		Name:     "Backward walks",
		Duration: time.Since(start),
		Ops:      ops,
	}
}

func benchFind(g *grove.Tree) BenchResult {
	ops := 0
	matches := 0
	start := time.Now()

	for i := 0; i < 50; i++ {
		for range g.Walk(grove.WalkOptions{Predicate: grove.MatchText("emit(alpha)")}) {
			matches++
		}
		ops++
	}

	return BenchResult{
		Name:     "Text search walks",
		Duration: time.Since(start),
		Ops:      ops,
		Extra:    fmt.Sprintf("%d matches/walk", matches/ops),
	}
}

func benchKeyword(g *grove.Tree) BenchResult {
	ops := 0
	matches := 0
	start := time.Now()

	for i := 0; i < 50; i++ {
		for range g.Walk(grove.WalkOptions{Predicate: grove.HasKeyword("delta")}) {
			matches++
		}
		ops++
	}

	return BenchResult{
		Name:     "Keyword search walks",
		Duration: time.Since(start),
		Ops:      ops,
		Extra:    fmt.Sprintf("%d matches/walk", matches/ops),
	}
}

func benchMarked(g *grove.Tree) BenchResult {
	ops := 0
	start := time.Now()

	for round := 0; round < 5; round++ {
		for el := range g.Walk(grove.WalkOptions{Predicate: grove.IsSnippetLike}) {
			switch sn := el.(type) {
			case *grove.MarkdownSnippet:
				sn.Reset()
				sn.MarkedLines()
			case *grove.Snippet:
				sn.Reset()
				sn.MarkedLines()
			}
			ops++
		}
	}

	return BenchResult{
		Name:     "Keyword highlighting",
		Duration: time.Since(start),
		Ops:      ops,
	}
}

func benchSerialize(g *grove.Tree) BenchResult {
	ops := 0
	bytes := 0
	start := time.Now()

	for i := 0; i < 50; i++ {
		bytes = len(g.FileText())
		ops++
	}

	return BenchResult{
		Name:     "Serialization",
		Duration: time.Since(start),
		Ops:      ops,
		Extra:    fmt.Sprintf("%d bytes", bytes),
	}
}

func benchMoves(g *grove.Tree) BenchResult {
	// Collect one snippet per top-level group up front; moving while
	// holding the walk open would invalidate it.
	var targets []grove.Element
	for _, top := range g.Root().Groups() {
		for el := range top.Walk(grove.WalkOptions{Predicate: grove.IsSnippetLike}) {
			targets = append(targets, el)
			break
		}
	}

	ops := 0
	start := time.Now()

	for _, target := range targets {
		p, err := grove.NewSnippetPointer(target)
		if err != nil {
			continue
		}
		for step := 0; step < 4; step++ {
			if !p.Move(false) {
				break
			}
		}
		if p.Commit() {
			ops++
		}
	}

	return BenchResult{
		Name:     "Snippet moves",
		Duration: time.Since(start),
		Ops:      ops,
	}
}

func benchGroupMoves(g *grove.Tree) BenchResult {
	tops := g.Root().Groups()

	ops := 0
	start := time.Now()

	for i := 0; i < len(tops) && i < 50; i++ {
		p, err := grove.NewGroupPointer(tops[i])
		if err != nil {
			continue
		}
		for step := 0; step < 3; step++ {
			if !p.Move(false) {
				break
			}
		}
		if p.Commit() {
			ops++
		}
	}

	return BenchResult{
		Name:     "Group moves",
		Duration: time.Since(start),
		Ops:      ops,
	}
}

func benchSaveRotation(g *grove.Tree) BenchResult {
	ops := 0
	start := time.Now()

	for i := 0; i < saveRounds; i++ {
		if err := g.Save(); err != nil {
			return BenchResult{Name: "Save with backup rotation", Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err)}
		}
		ops++
	}

	return BenchResult{
		Name:     "Save with backup rotation",
		Duration: time.Since(start),
		Ops:      ops,
	}
}

func benchReload(g *grove.Tree) BenchResult {
	ops := 0
	start := time.Now()

	for i := 0; i < 10; i++ {
		if err := g.Reload(); err != nil {
			return BenchResult{Name: "Reload", Duration: time.Since(start), Extra: fmt.Sprintf("ERROR: %v", err)}
		}
		ops++
	}

	return BenchResult{
		Name:     "Reload",
		Duration: time.Since(start),
		Ops:      ops,
	}
}
