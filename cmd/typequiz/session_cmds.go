package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"typequiz/internal/audit"
	"typequiz/internal/catalog"
	"typequiz/internal/config"
	"typequiz/internal/pager"
	"typequiz/internal/session"
	"typequiz/internal/sessionstore"
	"typequiz/internal/workspace"
)

func runInit(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	if err := fs.Parse(args); err != nil {
		return err
	}

	root, err := workspace.ResolveRoot(workspacePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create workspace root: %w", err)
	}
	ws, err := workspace.Resolve(root)
	if err != nil {
		return err
	}

	run := beginAudit(audit.NewLogger(ws.AuditDBPath), "workspace_init", map[string]any{
		"workspace": ws.Root,
	})
	defer func() { run.finish(err) }()

	if err := ws.EnsureDirs(); err != nil {
		return err
	}
	created := []string{}
	wrote, err := writeFileIfMissing(ws.ConfigPath, []byte(config.Template))
	if err != nil {
		return err
	}
	if wrote {
		created = append(created, ws.ConfigPath)
	}
	wrote, err = writeFileIfMissing(ws.CatalogPath, catalog.DefaultYAML())
	if err != nil {
		return err
	}
	if wrote {
		created = append(created, ws.CatalogPath)
	}
	store, err := sessionstore.Open(ws.StateDBPath)
	if err != nil {
		return err
	}
	if err := store.Close(); err != nil {
		return err
	}
	run.set("created", created)
	logger.Debug("workspace initialized", zap.String("root", ws.Root), zap.Strings("created", created))

	fmt.Fprintf(os.Stdout, "Initialized workspace: %s\n", ws.Root)
	fmt.Fprintln(os.Stdout, "Next steps:")
	fmt.Fprintf(os.Stdout, "  %s start --workspace %s --name <your name>\n", appName, ws.Root)
	fmt.Fprintf(os.Stdout, "  %s next --workspace %s 1=2 2=-1 ...\n", appName, ws.Root)
	return nil
}

func runStart(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "Respondent name (optional)")
	gender := fs.String("gender", string(session.GenderUndisclosed), "Respondent gender: male, female, other, undisclosed")
	pageSize := fs.Int("page-size", -1, "Statements per page (default: page_size from typequiz.yml; 0 = single page)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := openEnv(workspacePath, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	size := e.cfg.PageSize
	if *pageSize >= 0 {
		size = *pageSize
	}
	run := beginAudit(e.audit, "start", map[string]any{
		"page_size":           size,
		"catalog_fingerprint": e.catalog.Fingerprint(),
	})
	defer func() { run.finish(err) }()

	sess := session.New(e.catalog, session.Options{
		PageSize: size,
		Name:     *name,
		Gender:   *gender,
		Now:      time.Now,
	})
	run.set("session", sess.ID)
	if err := e.saveSession(sess); err != nil {
		return err
	}
	if err := e.store.SetKV(sessionstore.KeyLastSession, sess.ID); err != nil {
		return err
	}
	logger.Info("session started", zap.String("session", sess.ID), zap.Int("pages", sess.Pager().TotalPages()))

	renderPage(os.Stdout, sess)
	return nil
}

func runShow(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("show", flag.ContinueOnError)
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

	run := beginAudit(e.audit, "show", map[string]any{"session": *sessionID})
	defer func() { run.finish(err) }()

	sess, err := e.loadSession(*sessionID)
	if err != nil {
		return err
	}
	run.set("session", sess.ID)
	renderPage(os.Stdout, sess)
	return nil
}

type pageAction int

const (
	actionAnswer pageAction = iota
	actionNavigate
	actionSubmit
)

func runAnswer(args []string, workspacePath string, logger *zap.Logger) error {
	return runPageCommand("answer", actionAnswer, args, workspacePath, logger)
}

func runNext(args []string, workspacePath string, logger *zap.Logger) error {
	return runPageCommand("next", actionNavigate, args, workspacePath, logger)
}

func runPrev(args []string, workspacePath string, logger *zap.Logger) error {
	return runPageCommand("prev", actionNavigate, args, workspacePath, logger)
}

func runSubmit(args []string, workspacePath string, logger *zap.Logger) error {
	return runPageCommand("submit", actionSubmit, args, workspacePath, logger)
}

// runPageCommand stages answers for the current page, then applies action.
// Navigation commands take their direction from name.
func runPageCommand(name string, action pageAction, args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sessionID := fs.String("session", "", "Session id (default: last started)")
	valueList := fs.String("values", "", "Comma-separated answers for the current page, in order")
	positional, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	var dir session.Direction
	if action == actionNavigate {
		if dir, err = session.ParseDirection(name); err != nil {
			return err
		}
	}

	e, err := openEnv(workspacePath, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	run := beginAudit(e.audit, name, map[string]any{"session": *sessionID})
	defer func() { run.finish(err) }()

	sess, err := e.loadSession(*sessionID)
	if err != nil {
		return err
	}
	run.set("session", sess.ID)
	run.set("page", sess.Page())
	if sess.Finished() {
		return fmt.Errorf("session %s is already submitted: run %s result, or %s reset to start over", sess.ID, appName, appName)
	}

	values, err := parseValueList(*valueList, sess.Pager().PageIDs(sess.Page()))
	if err != nil {
		return err
	}
	explicit, err := parseAnswers(positional, e.catalog)
	if err != nil {
		return err
	}
	if values == nil {
		values = make(map[int]int, len(explicit))
	}
	for id, v := range explicit {
		values[id] = v
	}

	page := sess.Page()
	dropped := 0
	for id, v := range values {
		if !sess.Edit(id, v) {
			dropped++
		}
	}
	if len(values) > 0 {
		run.set("recorded", len(values)-dropped)
	}
	if dropped > 0 {
		run.set("dropped", dropped)
		e.log.Warn("answers outside the current page ignored",
			zap.String("session", sess.ID),
			zap.Int("page", page),
			zap.Int("dropped", dropped),
		)
		fmt.Fprintf(os.Stderr, "ignored %d answer(s) not on page %d\n", dropped, page+1)
	}

	switch action {
	case actionAnswer:
		sess.RecordPageInput(page, sess.Pager().Pending())
	case actionNavigate:
		moved, err := sess.Navigate(dir)
		if err != nil {
			return err
		}
		if dir == session.Next && moved == page {
			fmt.Fprintf(os.Stdout, "Already on the last page. Run: %s submit\n\n", appName)
		}
	case actionSubmit:
		if submitErr := sess.Submit(); submitErr != nil {
			// Keep the staged answers even though the session stays open.
			sess.RecordPageInput(page, sess.Pager().Pending())
			if err := e.saveSession(sess); err != nil {
				return err
			}
			if errors.Is(submitErr, pager.ErrNotLastPage) {
				return fmt.Errorf("cannot submit from page %d of %d: %w", page+1, sess.Pager().TotalPages(), submitErr)
			}
			return submitErr
		}
	}

	if err := e.saveSession(sess); err != nil {
		return err
	}
	run.set("page_after", sess.Page())
	run.set("finished", sess.Finished())

	if action == actionSubmit {
		fmt.Fprintf(os.Stdout, "Submitted session %s.\n", sess.ID)
		fmt.Fprintf(os.Stdout, "Next: %s result\n", appName)
		return nil
	}
	renderPage(os.Stdout, sess)
	return nil
}

func runReset(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
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

	run := beginAudit(e.audit, "reset", map[string]any{"session": *sessionID})
	defer func() { run.finish(err) }()

	sess, err := e.loadSession(*sessionID)
	if err != nil {
		return err
	}
	run.set("session", sess.ID)
	sess.Reset()
	if err := e.saveSession(sess); err != nil {
		return err
	}
	logger.Info("session reset", zap.String("session", sess.ID))

	renderPage(os.Stdout, sess)
	return nil
}

func runDiscard(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("discard", flag.ContinueOnError)
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

	run := beginAudit(e.audit, "discard", map[string]any{"session": *sessionID})
	defer func() { run.finish(err) }()

	id, err := e.resolveSessionID(*sessionID)
	if err != nil {
		return err
	}
	run.set("session", id)
	if _, err := e.store.Load(id); err != nil {
		return err
	}
	if err := e.store.Delete(id); err != nil {
		return err
	}
	last, err := e.store.GetKV(sessionstore.KeyLastSession)
	if err != nil {
		return err
	}
	if last == id {
		if err := e.store.SetKV(sessionstore.KeyLastSession, ""); err != nil {
			return err
		}
	}
	logger.Info("session discarded", zap.String("session", id))

	fmt.Fprintf(os.Stdout, "Discarded session %s\n", id)
	return nil
}

func runList(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("limit", 20, "Maximum number of sessions to list")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	e, err := openEnv(workspacePath, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	run := beginAudit(e.audit, "list", map[string]any{"limit": *limit})
	defer func() { run.finish(err) }()

	sessions, err := e.store.List(*limit)
	if err != nil {
		return err
	}
	run.set("count", len(sessions))
	if len(sessions) == 0 {
		fmt.Fprintln(os.Stdout, "No sessions.")
		return nil
	}
	last, err := e.store.GetKV(sessionstore.KeyLastSession)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "  %-36s  %-20s  %-5s  %-9s  %s\n", "ID", "NAME", "PAGE", "STATUS", "UPDATED")
	for _, s := range sessions {
		marker := " "
		if s.ID == last {
			marker = "*"
		}
		status := "active"
		if s.Finished {
			status = "submitted"
		}
		name := s.Name
		if name == "" {
			name = "-"
		}
		fmt.Fprintf(os.Stdout, "%s %-36s  %-20s  %-5d  %-9s  %s\n",
			marker, s.ID, name, s.CurrentPage+1, status, s.UpdatedAt.Local().Format(time.RFC3339))
	}
	return nil
}
