//go:build ignore

// generate_testdata.go writes tree datasets for benchmarking and manual
// scroll testing.
// Usage: go run scripts/generate_testdata.go
//
// Creates:
//
//	testdata/benchmark/small.jsonl   (100 nodes)
//	testdata/benchmark/medium.jsonl  (1000 nodes)
//	testdata/benchmark/large.jsonl   (10000 nodes)
//	testdata/benchmark/huge.jsonl    (100000 nodes)
package main

import (
	"bufio"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/vtree/internal/datasource"
)

type datasetSpec struct {
	name string
	size int
	// parentShare is the fraction of nodes that are parents.
	parentShare float64
}

var datasets = []datasetSpec{
	{"small", 100, 0.3},
	{"medium", 1000, 0.2},
	{"large", 10000, 0.1},
	{"huge", 100000, 0.05},
}

var titles = []string{
	"Architecture notes",
	"Meeting minutes",
	"Release checklist",
	"Incident review",
	"Onboarding guide",
	"API reference",
	"Design sketch",
	"Open questions",
}

// bodies have different heights so rows measure differently.
var bodies = []string{
	"",
	"One line of context.",
	"## Summary\n\nShort summary paragraph.",
	"## Steps\n\n- Research\n- Implement\n- Test\n- Ship",
	"## Details\n\nA longer paragraph that wraps on narrow terminals and pushes the rows below it further down the list.\n\n```go\nfmt.Println(\"hello\")\n```",
}

func main() {
	outputDir := "testdata/benchmark"
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, ds := range datasets {
		fmt.Printf("Generating %s dataset (%d nodes)...\n", ds.name, ds.size)
		items := generate(ds)

		outputPath := filepath.Join(outputDir, ds.name+".jsonl")
		if err := writeJSONL(outputPath, items); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", outputPath, err)
			os.Exit(1)
		}
		fmt.Printf("  Written %s\n", outputPath)
	}

	fmt.Println("\nDone! Datasets created in", outputDir)
}

// generate returns items in parent_id form. Each node hangs below a random
// earlier parent, or at the top level, so depth grows slowly with size.
func generate(ds datasetSpec) []datasource.Item {
	rng := rand.New(rand.NewPCG(uint64(ds.size), 42))
	items := make([]datasource.Item, 0, ds.size)
	var parents []string

	for i := range ds.size {
		it := datasource.Item{
			ID:       fmt.Sprintf("n%06d", i),
			Title:    fmt.Sprintf("%s #%d", titles[i%len(titles)], i),
			Body:     bodies[rng.IntN(len(bodies))],
			Kind:     datasource.KindLeaf,
			Position: i,
		}
		if len(parents) > 0 && rng.Float64() > 0.1 {
			it.ParentID = parents[rng.IntN(len(parents))]
		}
		if i == 0 || rng.Float64() < ds.parentShare {
			it.Kind = datasource.KindParent
			it.Body = ""
			parents = append(parents, it.ID)
		}
		items = append(items, it)
	}
	return items
}

func writeJSONL(path string, items []datasource.Item) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, it := range items {
		line, err := json.Marshal(it)
		if err != nil {
			return err
		}
		if _, err := w.WriteString(strings.TrimSpace(string(line)) + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
