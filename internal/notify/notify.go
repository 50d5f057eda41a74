package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Attachment is a file carried alongside a message.
type Attachment struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Message is a rendered summary plus an optional attachment.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// Outcome is passed straight through to the caller; senders never retry.
type Outcome struct {
	OK      bool
	Message string
}

func failed(format string, args ...any) Outcome {
	return Outcome{OK: false, Message: fmt.Sprintf(format, args...)}
}

// Sender delivers a message.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) Outcome
}

// DesktopNotifier shows a system notification with the subject and the first
// line of the body. Attachments are ignored.
type DesktopNotifier struct {
	Enabled bool
}

// Name returns "desktop".
func (n *DesktopNotifier) Name() string { return "desktop" }

// Send displays the notification. On macOS it uses osascript; elsewhere it is
// a no-op that still reports success.
func (n *DesktopNotifier) Send(ctx context.Context, msg Message) Outcome {
	if !n.Enabled {
		return Outcome{OK: true, Message: "desktop notifications disabled"}
	}
	if runtime.GOOS != "darwin" {
		return Outcome{OK: true, Message: "desktop notifications unsupported on " + runtime.GOOS}
	}
	line, _, _ := strings.Cut(strings.TrimSpace(msg.Body), "\n")
	if err := sendMacOSNotification(ctx, msg.Subject, line); err != nil {
		return failed("desktop notification failed: %v", err)
	}
	return Outcome{OK: true, Message: "notification shown"}
}

// appleScriptString quotes s as an AppleScript string literal. Backslashes
// are escaped before quotes.
func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func sendMacOSNotification(ctx context.Context, title, message string) error {
	script := fmt.Sprintf(`display notification %s with title %s`, appleScriptString(message), appleScriptString(title))
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// FormatResultSubject formats the subject line for a finished session.
func FormatResultSubject(name, code string) string {
	if strings.TrimSpace(name) == "" {
		name = "Anonymous"
	}
	return fmt.Sprintf("[Personality type result] %s: %s", name, code)
}

// FormatResultBody wraps a rendered summary with the mail preamble.
func FormatResultBody(summary string) string {
	var b strings.Builder
	b.WriteString("Your personality type result is ready.\n\n")
	b.WriteString(summary)
	b.WriteString("\nThe full answer sheet is attached as CSV.\n")
	b.WriteString("This message was sent automatically by typequiz.\n")
	return b.String()
}
