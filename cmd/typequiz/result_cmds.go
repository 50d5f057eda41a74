package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"typequiz/internal/audit"
	"typequiz/internal/export"
	"typequiz/internal/notify"
	"typequiz/internal/report"
	"typequiz/internal/session"
)

const mailTimeout = 30 * time.Second

func runResult(args []string, workspacePath string, logger *zap.Logger) (err error) {
	fs := flag.NewFlagSet("result", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sessionID := fs.String("session", "", "Session id (default: last started)")
	csvPath := fs.String("csv", "", "Write the CSV export to this path")
	exportCSV := fs.Bool("export", false, "Write the CSV export to <workspace>/exports")
	persona := fs.Bool("persona", false, "Print the persona JSON")
	email := fs.Bool("email", false, "Send the result and CSV by mail (needs SENDER_EMAIL and SENDER_PASSWORD)")
	to := fs.String("to", "", "Mail recipient (default: mail.recipient from typequiz.yml)")
	desktop := fs.Bool("notify", false, "Show a desktop notification")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := openEnv(workspacePath, logger)
	if err != nil {
		return err
	}
	defer e.Close()

	run := beginAudit(e.audit, "result", map[string]any{"session": *sessionID})
	defer func() { run.finish(err) }()

	sess, err := e.loadSession(*sessionID)
	if err != nil {
		return err
	}
	run.set("session", sess.ID)

	res, err := sess.Finalize()
	if errors.Is(err, session.ErrNotFinished) {
		return fmt.Errorf("session %s: %w: answer every page and run %s submit", sess.ID, err, appName)
	}
	if err != nil {
		return err
	}
	run.set("type", res.Code)

	profile := report.LookupProfile(res.Code, e.cfg.ImageDir)
	who := report.Respondent{Name: sess.Name, Gender: string(sess.Gender)}
	summary := report.Summary(res, who, profile)
	fmt.Fprint(os.Stdout, summary)

	row := export.Row{
		Name:    sess.Name,
		Gender:  string(sess.Gender),
		Result:  res,
		Answers: sess.Responses().Values(),
	}
	fileName := export.FileName(sess.Name, res.Code)

	if *persona {
		text, err := report.PersonaJSON(res, string(sess.Gender))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\n%s\n", text)
	}

	var exported []string
	if *exportCSV {
		exported = append(exported, filepath.Join(e.ws.ExportsDir, fileName))
	}
	if strings.TrimSpace(*csvPath) != "" {
		path, err := e.ws.ResolvePath(*csvPath)
		if err != nil {
			return fmt.Errorf("resolve --csv: %w", err)
		}
		exported = append(exported, path)
	}
	for _, path := range exported {
		if err := export.WriteFile(path, row); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "\nWrote %s\n", path)
	}
	if len(exported) > 0 {
		run.set("exports", exported)
	}

	var senders []notify.Sender
	var msg notify.Message
	if *email {
		creds := e.cfg.Credentials()
		recipient := strings.TrimSpace(*to)
		if recipient == "" {
			recipient = e.cfg.Mail.Recipient
		}
		data, err := export.Encode(row)
		if err != nil {
			return err
		}
		msg = notify.Message{
			To:      recipient,
			Subject: notify.FormatResultSubject(sess.Name, res.Code),
			Body:    notify.FormatResultBody(summary),
			Attachment: &notify.Attachment{
				FileName:    fileName,
				ContentType: "text/csv; charset=utf-8",
				Data:        data,
			},
		}
		senders = append(senders, &notify.SMTPSender{
			Host:          e.cfg.Mail.SMTPHost,
			Port:          e.cfg.Mail.SMTPPort,
			From:          creds.From,
			Password:      creds.Password,
			AllowInsecure: e.cfg.Mail.AllowInsecure,
		})
	}
	if *desktop || e.cfg.Desktop {
		if msg.Subject == "" {
			msg.Subject = notify.FormatResultSubject(sess.Name, res.Code)
			msg.Body = fmt.Sprintf("%s (%s)", res.Code, profile.Nickname)
		}
		senders = append(senders, &notify.DesktopNotifier{Enabled: true})
	}

	for _, sender := range senders {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		outcome := sender.Send(ctx, msg)
		cancel()
		deliverPayload := map[string]any{
			"session": sess.ID,
			"sender":  sender.Name(),
			"ok":      outcome.OK,
			"message": outcome.Message,
		}
		if err := e.audit.LogEvent(audit.ActorNotify, "result_delivered", deliverPayload); err != nil {
			fmt.Fprintln(os.Stderr, "audit log failed:", err)
		}
		if !outcome.OK {
			logger.Warn("delivery failed", zap.String("sender", sender.Name()), zap.String("message", outcome.Message))
			fmt.Fprintf(os.Stderr, "%s: %s\n", sender.Name(), outcome.Message)
			continue
		}
		fmt.Fprintf(os.Stdout, "%s: %s\n", sender.Name(), outcome.Message)
	}
	return nil
}
