package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"typequiz/internal/catalog"
)

func runCatalog(args []string, workspacePath string, logger *zap.Logger) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s catalog: missing subcommand (show, diff)", appName)
	}

	switch args[0] {
	case "show":
		return runCatalogShow(args[1:], workspacePath, logger)
	case "diff":
		return runCatalogDiff(args[1:], workspacePath, logger)
	default:
		return fmt.Errorf("%s catalog: unknown subcommand %q", appName, args[0])
	}
}

func runCatalogShow(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("catalog show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asYAML := fs.Bool("yaml", false, "Print the canonical YAML instead of a table")
	axisName := fs.String("axis", "", "Only list statements on this axis (Mind, Energy, Nature, Tactics, Identity)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	var axis catalog.Axis
	if *axisName != "" {
		if axis, err = catalog.ParseAxis(*axisName); err != nil {
			return err
		}
	}

	e, err := openEnv(workspacePath, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	run := beginAudit(e.audit, "catalog_show", map[string]any{
		"source":      e.catalog.Source(),
		"fingerprint": e.catalog.Fingerprint(),
		"axis":        string(axis),
	})
	defer func() { run.finish(err) }()

	if *asYAML {
		_, err = os.Stdout.Write(e.catalog.Canonical())
		return err
	}
	statements := e.catalog.Statements()
	if axis != "" {
		statements = e.catalog.ByAxis(axis)
	}
	fmt.Fprintf(os.Stdout, "Catalog: %s (%d statements)\n", e.catalog.Source(), e.catalog.Len())
	fmt.Fprintf(os.Stdout, "Fingerprint: %s\n\n", e.catalog.Fingerprint())
	for _, st := range statements {
		fmt.Fprintf(os.Stdout, "  Q%-3d %-8s %+d  %s\n", st.ID+1, st.Axis, st.Weight, st.Text)
	}
	return nil
}

func runCatalogDiff(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("catalog diff", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sessionID := fs.String("session", "", "Session id (default: last started)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := openEnv(workspacePath, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	run := beginAudit(e.audit, "catalog_diff", map[string]any{"session": *sessionID})
	defer func() { run.finish(err) }()

	id, err := e.resolveSessionID(*sessionID)
	if err != nil {
		return err
	}
	run.set("session", id)
	snap, err := e.store.Load(id)
	if err != nil {
		return err
	}
	diff, err := e.catalog.Diff([]byte(snap.CatalogYAML), "session "+id)
	if err != nil {
		return err
	}
	run.set("changed", diff != "")
	if diff == "" {
		fmt.Fprintf(os.Stdout, "Session %s matches the current catalog.\n", id)
		return nil
	}
	fmt.Fprint(os.Stdout, diff)
	return nil
}
