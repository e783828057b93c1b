package datasource

import (
	"context"
	"fmt"
	"io"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/vtree/pkg/debug"
	"github.com/vanderheijden86/vtree/pkg/metrics"
)

// maxParallelLoads bounds concurrent source loads (file descriptors, HTTP
// connections).
const maxParallelLoads = 32

// LoadResult is the outcome of loading one source.
type LoadResult struct {
	Source DataSource
	Items  []Item
	Error  error
}

// LoadFromSource loads the items of a single source.
func LoadFromSource(ctx context.Context, source DataSource) ([]Item, error) {
	defer metrics.Timer(metrics.SourceLoad)()

	switch source.Type {
	case SourceTypeJSON:
		return LoadJSONFile(source.Path)
	case SourceTypeJSONL:
		return LoadJSONLFile(source.Path, func(msg string) {
			debug.Log("%s: %s", source.Path, msg)
		})
	case SourceTypeYAML:
		return LoadYAMLFile(source.Path)
	case SourceTypeSQLite:
		r, err := NewSQLiteReader(source)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return r.LoadItems(ctx)
	case SourceTypeGraphQL:
		return LoadGraphQL(ctx, NewGraphQLExecutor(source.Path), source.Query, source.Variables)
	default:
		return nil, fmt.Errorf("%s: %w", source, ErrUnknownFormat)
	}
}

// Loader loads several sources in parallel.
type Loader struct {
	logger *log.Logger
}

// NewLoader returns a loader that discards its log output.
func NewLoader() *Loader {
	return &Loader{logger: log.New(io.Discard, "", 0)}
}

// SetLogger sets a custom logger for per-source failures.
func (l *Loader) SetLogger(logger *log.Logger) {
	l.logger = logger
}

// LoadAll loads every source concurrently and merges the items in source
// order. A failing source is logged and skipped; LoadAll only fails when
// every source failed.
func (l *Loader) LoadAll(ctx context.Context, sources []DataSource) ([]Item, []LoadResult, error) {
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no sources to load")
	}

	results := make([]LoadResult, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)

	for i, src := range sources {
		g.Go(func() error {
			select {
			case <-ctx.Done():
				results[i] = LoadResult{Source: src, Error: ctx.Err()}
				return nil
			default:
			}
			items, err := LoadFromSource(ctx, src)
			results[i] = LoadResult{Source: src, Items: items, Error: err}
			return nil // per-source errors are reported in results
		})
	}
	if err := g.Wait(); err != nil {
		return nil, results, err
	}

	var all []Item
	var lastErr error
	failed := 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			lastErr = r.Error
			l.logger.Printf("warning: failed to load %s: %v", r.Source, r.Error)
			continue
		}
		all = append(all, r.Items...)
	}
	if failed == len(results) {
		return nil, results, fmt.Errorf("all sources failed: %w", lastErr)
	}
	return all, results, nil
}
