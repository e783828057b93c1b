package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"strconv"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	json "github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/vtree/internal/datasource"
	"github.com/vanderheijden86/vtree/pkg/config"
	"github.com/vanderheijden86/vtree/pkg/debug"
	"github.com/vanderheijden86/vtree/pkg/metrics"
	"github.com/vanderheijden86/vtree/pkg/tree"
	"github.com/vanderheijden86/vtree/pkg/ui"
	"github.com/vanderheijden86/vtree/pkg/version"
	"github.com/vanderheijden86/vtree/pkg/watcher"
)

// initialLoadTimeout bounds the first load before the TUI starts.
const initialLoadTimeout = 60 * time.Second

func main() {
	cpuProfile := flag.String("cpu-profile", "", "Write CPU profile to file")
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	configPath := flag.String("config", "", "Config file (default: $XDG_CONFIG_HOME/vt/config.yaml)")
	initConfig := flag.Bool("init-config", false, "Run the interactive configuration wizard")
	dump := flag.Bool("dump", false, "Print one settled screen to stdout and exit")
	metricsFlag := flag.Bool("metrics", false, "Write a JSON metrics summary to stderr on exit")
	noWatch := flag.Bool("no-watch", false, "Do not reload when source files change")
	flag.Parse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not create CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Could not start CPU profile: %v\n", err)
			os.Exit(1)
		}
		defer pprof.StopCPUProfile()
	}

	if *help {
		fmt.Println("Usage: vt [options] [source...]")
		fmt.Println("\nA virtualized tree viewer for JSON, YAML, SQLite and GraphQL node lists.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("vt %s\n", version.Version)
		os.Exit(0)
	}

	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	if *initConfig {
		if path == "" {
			fmt.Fprintln(os.Stderr, "Error: cannot determine config directory")
			os.Exit(1)
		}
		if err := runConfigWizard(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadFrom(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		} else {
			cfg = loaded
		}
	}

	sources, err := resolveSources(cfg, flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), initialLoadTimeout)
	root, err := loadTree(ctx, sources, stderrLogger())
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading nodes: %v\n", err)
		os.Exit(1)
	}
	debug.Log("loaded %d nodes from %d sources", tree.Count(root), len(sources))

	opts := ui.ModelOptions{
		Tree:      ui.OptionsFromConfig(cfg.Tree),
		OpenDepth: cfg.Tree.OpenDepth(),
		Load: func(ctx context.Context) (*tree.Node, error) {
			return loadTree(ctx, sources, reloadLogger())
		},
	}
	if cfg.Tree.Persist() {
		opts.StatePath = config.OpenStatePath()
	}

	if *dump {
		md := ui.NewMarkdown("notty")
		md.Sync = true
		opts.Markdown = md
		m := ui.NewModel(root, opts)
		w, h := terminalSize()
		fmt.Print(ui.Dump(m, w, h))
		m.Stop()
		writeMetrics(*metricsFlag)
		os.Exit(0)
	}

	opts.Markdown = ui.NewMarkdown("")
	if !*noWatch {
		opts.Watcher = startWatcher(sources)
	}

	if debug.Enabled() {
		f, err := tea.LogToFile("vt-debug.log", "vt")
		if err == nil {
			debug.SetOutput(f)
			defer f.Close()
		}
	}

	m := ui.NewModel(root, opts)
	defer m.Stop()

	if err := runTUIProgram(m); err != nil {
		fmt.Printf("Error running vt: %v\n", err)
		os.Exit(1)
	}
	writeMetrics(*metricsFlag)
}

func runTUIProgram(m ui.Model) error {
	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithoutSignalHandler(),
	)

	runDone := make(chan struct{})
	defer close(runDone)

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-runDone:
			return
		case <-sigCh:
		}

		p.Quit()

		select {
		case <-runDone:
			return
		case <-sigCh:
		case <-time.After(5 * time.Second):
		}

		p.Kill()
	}()

	// Optional auto-quit for automated tests: set VT_TUI_AUTOCLOSE_MS.
	if v := os.Getenv("VT_TUI_AUTOCLOSE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			go func() {
				timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer timer.Stop()

				select {
				case <-runDone:
					return
				case <-timer.C:
				}

				p.Quit()
			}()
		}
	}

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) || errors.Is(err, tea.ErrInterrupted) {
		return nil
	}
	return err
}

// startWatcher watches every local source. It returns nil when there is
// nothing to watch or watching failed.
func startWatcher(sources []datasource.DataSource) *watcher.Watcher {
	var paths []string
	for _, src := range sources {
		if src.Watchable() {
			paths = append(paths, src.Path)
		}
	}
	if len(paths) == 0 {
		return nil
	}
	w, err := watcher.New(paths, watcher.WithErrorHandler(func(path string, err error) {
		debug.Log("watch %s: %v", path, err)
	}))
	if err == nil {
		err = w.Start()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cannot watch sources: %v\n", err)
		return nil
	}
	return w
}

// terminalSize returns the size of stdout, or 80x24 when it is not a
// terminal.
func terminalSize() (int, int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return 80, 24
	}
	return w, h
}

func writeMetrics(enabled bool) {
	if !enabled {
		return
	}
	data, err := json.MarshalIndent(metrics.Snapshot(), "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding metrics: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, string(data))
}
