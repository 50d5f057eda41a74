package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"typequiz/internal/audit"
	"typequiz/internal/catalog"
	"typequiz/internal/config"
	"typequiz/internal/logging"
	"typequiz/internal/responses"
	"typequiz/internal/session"
	"typequiz/internal/sessionstore"
	"typequiz/internal/workspace"
)

const appName = "typequiz"

func main() {
	flag.String("workspace", "", "Path to workspace root (default: $TYPEQUIZ_WORKSPACE)")
	flag.Bool("verbose", false, "Enable debug logging on stderr")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s: five-axis personality type questionnaire\n\n", appName)
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [command] [flags]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  init     Initialize a new workspace")
		fmt.Fprintln(os.Stderr, "  start    Start a new session")
		fmt.Fprintln(os.Stderr, "  show     Show the current page")
		fmt.Fprintln(os.Stderr, "  answer   Record answers for the current page")
		fmt.Fprintln(os.Stderr, "  next     Record answers and go to the next page")
		fmt.Fprintln(os.Stderr, "  prev     Record answers and go to the previous page")
		fmt.Fprintln(os.Stderr, "  submit   Record answers and submit the last page")
		fmt.Fprintln(os.Stderr, "  result   Show, export or send the result")
		fmt.Fprintln(os.Stderr, "  reset    Clear every answer of a session")
		fmt.Fprintln(os.Stderr, "  discard  Delete a session")
		fmt.Fprintln(os.Stderr, "  list     List sessions")
		fmt.Fprintln(os.Stderr, "  catalog  Inspect the statement catalog")
		fmt.Fprintln(os.Stderr, "  help     Show this help")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	workspacePath, remaining, err := extractWorkspaceFlag(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	verbose, args := logging.ExtractVerbose(remaining)

	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		flag.Usage()
		return
	}

	logger, err := logging.New(verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	workspacePath = workspace.RootFromEnv(workspacePath)
	commands := map[string]func([]string, string, *zap.Logger) error{
		"init":    runInit,
		"start":   runStart,
		"show":    runShow,
		"answer":  runAnswer,
		"next":    runNext,
		"prev":    runPrev,
		"submit":  runSubmit,
		"result":  runResult,
		"reset":   runReset,
		"discard": runDiscard,
		"list":    runList,
		"catalog": runCatalog,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
	if err := cmd(args[1:], workspacePath, logger); err != nil {
		logger.Debug("command failed", zap.String("command", args[0]), zap.Error(err))
		_ = logger.Sync()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func extractWorkspaceFlag(args []string) (string, []string, error) {
	var workspacePath string
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--workspace" {
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--workspace requires a value")
			}
			workspacePath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--workspace=") {
			workspacePath = strings.TrimPrefix(arg, "--workspace=")
			continue
		}
		remaining = append(remaining, arg)
	}
	return workspacePath, remaining, nil
}

// parseInterspersed parses flags that may appear after positional arguments.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// env bundles everything a command needs from an initialized workspace.
type env struct {
	ws      *workspace.Workspace
	cfg     config.Config
	catalog *catalog.Catalog
	store   *sessionstore.Store
	audit   *audit.Logger
	log     *zap.Logger
}

func openEnv(workspacePath string, logger *zap.Logger) (*env, error) {
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		return nil, err
	}
	cat, err := loadCatalog(ws, cfg)
	if err != nil {
		return nil, err
	}
	store, err := sessionstore.Open(ws.StateDBPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("workspace opened",
		zap.String("root", ws.Root),
		zap.String("catalog", cat.Source()),
		zap.Int("statements", cat.Len()),
		zap.Int("page_size", cfg.PageSize),
	)
	return &env{
		ws:      ws,
		cfg:     cfg,
		catalog: cat,
		store:   store,
		audit:   audit.NewLogger(ws.AuditDBPath),
		log:     logger,
	}, nil
}

func (e *env) Close() {
	if err := e.store.Close(); err != nil {
		e.log.Warn("close session store", zap.Error(err))
	}
}

// loadCatalog prefers the configured path, then <root>/catalog.yml, then the
// built-in catalog.
func loadCatalog(ws *workspace.Workspace, cfg config.Config) (*catalog.Catalog, error) {
	if cfg.Catalog != "" {
		path, err := ws.ResolvePath(cfg.Catalog)
		if err != nil {
			return nil, fmt.Errorf("resolve catalog path: %w", err)
		}
		return catalog.LoadFile(path)
	}
	if _, err := os.Stat(ws.CatalogPath); err == nil {
		return catalog.LoadFile(ws.CatalogPath)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat %s: %w", ws.CatalogPath, err)
	}
	return catalog.Default(), nil
}

// resolveSessionID falls back to the last started session.
func (e *env) resolveSessionID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id != "" {
		return id, nil
	}
	last, err := e.store.GetKV(sessionstore.KeyLastSession)
	if err != nil {
		return "", err
	}
	if last == "" {
		return "", fmt.Errorf("no session selected: run %s start or pass --session", appName)
	}
	return last, nil
}

func (e *env) loadSession(id string) (*session.Session, error) {
	id, err := e.resolveSessionID(id)
	if err != nil {
		return nil, err
	}
	snap, err := e.store.Load(id)
	if err != nil {
		return nil, err
	}
	sess, err := session.Restore(e.catalog, snap)
	if errors.Is(err, session.ErrCatalogMismatch) {
		return nil, fmt.Errorf("%w\nsee: %s catalog diff --session %s", err, appName, id)
	}
	if err != nil {
		return nil, err
	}
	e.log.Debug("session restored",
		zap.String("session", sess.ID),
		zap.Int("page", sess.Page()),
		zap.Bool("finished", sess.Finished()),
	)
	return sess, nil
}

func (e *env) saveSession(sess *session.Session) error {
	if err := e.store.Save(sess.Snapshot()); err != nil {
		return err
	}
	e.log.Debug("session saved", zap.String("session", sess.ID), zap.Int("page", sess.Page()))
	return nil
}

// auditRun records a <name>_started event now and a <name>_finished event on
// finish.
type auditRun struct {
	logger  *audit.Logger
	name    string
	payload map[string]any
}

func beginAudit(logger *audit.Logger, name string, payload map[string]any) *auditRun {
	if payload == nil {
		payload = map[string]any{}
	}
	if err := logger.LogEvent(audit.ActorCLI, name+"_started", payload); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}
	return &auditRun{logger: logger, name: name, payload: payload}
}

func (r *auditRun) set(key string, value any) {
	r.payload[key] = value
}

func (r *auditRun) finish(err error) {
	finishPayload := make(map[string]any, len(r.payload)+1)
	for k, v := range r.payload {
		finishPayload[k] = v
	}
	if err != nil {
		finishPayload["error"] = err.Error()
	}
	if logErr := r.logger.LogEvent(audit.ActorCLI, r.name+"_finished", finishPayload); logErr != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", logErr)
	}
}

// parseAnswers reads Q=V pairs where Q is the 1-based statement number shown
// on the page. Values are normalized, so out-of-range input becomes neutral.
func parseAnswers(args []string, cat *catalog.Catalog) (map[int]int, error) {
	values := make(map[int]int, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid answer %q: expected Q=V (for example 7=2)", arg)
		}
		key = strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(key)), "Q")
		number, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid statement number in %q", arg)
		}
		if _, ok := cat.Statement(number - 1); !ok {
			return nil, fmt.Errorf("statement %d does not exist (1-%d)", number, cat.Len())
		}
		values[number-1] = responses.NormalizeString(raw)
	}
	return values, nil
}

// parseValueList maps a comma-separated list onto the ids of the current page
// in order.
func parseValueList(list string, ids []int) (map[int]int, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	if len(parts) > len(ids) {
		return nil, fmt.Errorf("--values has %d entries but the page has %d statements", len(parts), len(ids))
	}
	values := make(map[int]int, len(parts))
	for i, part := range parts {
		values[ids[i]] = responses.NormalizeString(part)
	}
	return values, nil
}

func writeFileIfMissing(path string, contents []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("ensure dir for %s: %w", path, err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	return true, nil
}
