package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/vtree/pkg/config"
)

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

// wizardAnswers holds the form values as the widgets edit them.
type wizardAnswers struct {
	sources    string
	showRoot   bool
	measure    bool
	indent     string
	openDepth  int
	persist    bool
	endpoint   string
	query      string
	useGraphQL bool
}

func answersFrom(cfg config.Config) wizardAnswers {
	indent := 0
	if p := cfg.Tree.Indent(); p != nil {
		indent = *p
	}
	return wizardAnswers{
		sources:    strings.Join(cfg.Sources, ", "),
		showRoot:   cfg.Tree.ShowRoot,
		measure:    cfg.Tree.Measure(),
		indent:     strconv.Itoa(indent),
		openDepth:  cfg.Tree.OpenDepth(),
		persist:    cfg.Tree.Persist(),
		endpoint:   cfg.GraphQL.Endpoint,
		query:      cfg.GraphQL.Query,
		useGraphQL: cfg.GraphQL.Enabled(),
	}
}

// apply writes the answers back into cfg.
func (a wizardAnswers) apply(cfg config.Config) config.Config {
	cfg.Sources = nil
	for _, s := range strings.Split(a.sources, ",") {
		if s = strings.TrimSpace(s); s != "" {
			cfg.Sources = append(cfg.Sources, s)
		}
	}
	cfg.Tree.ShowRoot = a.showRoot
	measure, persist, depth := a.measure, a.persist, a.openDepth
	cfg.Tree.ShouldMeasure = &measure
	cfg.Tree.PersistOpenState = &persist
	cfg.Tree.DefaultOpenDepth = &depth
	if n, err := strconv.Atoi(strings.TrimSpace(a.indent)); err == nil {
		cfg.Tree.IndentSize = &n
	}
	if a.useGraphQL {
		cfg.GraphQL.Endpoint = strings.TrimSpace(a.endpoint)
		cfg.GraphQL.Query = a.query
	} else {
		cfg.GraphQL.Query = ""
	}
	return cfg
}

func validateIndent(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > 16 {
		return fmt.Errorf("enter a number between 0 and 16")
	}
	return nil
}

// runConfigWizard asks for the settings and writes them to path.
func runConfigWizard(path string) error {
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return err
	}
	a := answersFrom(cfg)

	fmt.Println("vt configuration")
	fmt.Println("────────────────")

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Sources").
				Description("Comma separated JSON, JSONL, YAML or SQLite files").
				Placeholder("~/notes/tree.json").
				Value(&a.sources),
			huh.NewSelect[int]().
				Title("Open levels on first start").
				Options(
					huh.NewOption("None", 0),
					huh.NewOption("Top level", 1),
					huh.NewOption("Two levels", 2),
					huh.NewOption("Three levels", 3),
				).
				Value(&a.openDepth),
			huh.NewConfirm().
				Title("Remember open folders between runs?").
				Value(&a.persist),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Measure row heights?").
				Description("Select No to give every row one line").
				Value(&a.measure),
			huh.NewInput().
				Title("Indent per level").
				Value(&a.indent).
				Validate(validateIndent),
			huh.NewConfirm().
				Title("Show the root row?").
				Value(&a.showRoot),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Load nodes from a GraphQL endpoint?").
				Value(&a.useGraphQL),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Endpoint").
				Placeholder(config.DefaultGraphQLEndpoint).
				Value(&a.endpoint),
			huh.NewText().
				Title("Query").
				Description("Must return a nodes list").
				Value(&a.query),
		).WithHideFunc(func() bool { return !a.useGraphQL }),
	)

	if err := form.Run(); err != nil {
		return err
	}

	if err := config.SaveTo(a.apply(cfg), path); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	return nil
}
