package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/vanderheijden86/vtree/internal/datasource"
	"github.com/vanderheijden86/vtree/pkg/config"
	"github.com/vanderheijden86/vtree/pkg/debug"
	"github.com/vanderheijden86/vtree/pkg/tree"
)

var errNoSources = errors.New("no sources given; pass a file or run vt --init-config")

// resolveSources combines the configured sources, the command line paths and
// the GraphQL query, if any.
func resolveSources(cfg config.Config, args []string) ([]datasource.DataSource, error) {
	sources, err := datasource.DetectSources(cfg.ResolveSources(args...))
	if err != nil {
		return nil, err
	}
	if cfg.GraphQL.Enabled() {
		sources = append(sources, datasource.DataSource{
			Type:      datasource.SourceTypeGraphQL,
			Path:      cfg.GraphQL.Endpoint,
			Query:     cfg.GraphQL.Query,
			Variables: cfg.GraphQL.Variables,
		})
	}
	if len(sources) == 0 {
		return nil, errNoSources
	}
	return sources, nil
}

// loadTree loads every source and builds one tree from the merged items.
// Per-source failures and validation problems go to logger.
func loadTree(ctx context.Context, sources []datasource.DataSource, logger *log.Logger) (*tree.Node, error) {
	loader := datasource.NewLoader()
	loader.SetLogger(logger)

	items, results, err := loader.LoadAll(ctx, sources)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Error == nil {
			debug.Log("loaded %d items from %s", len(r.Items), r.Source)
		}
	}

	if err := tree.Validate(datasource.Records(items)); err != nil {
		// Build still attaches what it can.
		logger.Printf("warning: %v", err)
	}
	return datasource.BuildTree(items), nil
}

// reloadLogger returns the logger used while the TUI owns the terminal.
func reloadLogger() *log.Logger {
	if debug.Enabled() {
		return log.Default()
	}
	return log.New(io.Discard, "", 0)
}

func stderrLogger() *log.Logger {
	return log.New(os.Stderr, "vt: ", 0)
}
