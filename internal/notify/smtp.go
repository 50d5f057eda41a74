package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPSender delivers mail over SMTP with PLAIN auth. STARTTLS is required
// unless AllowInsecure is set.
type SMTPSender struct {
	Host          string
	Port          int
	From          string
	Password      string
	AllowInsecure bool
	Now           func() time.Time
}

// Name returns "smtp".
func (s *SMTPSender) Name() string { return "smtp" }

// Send builds and delivers msg. Every failure, including missing credentials,
// is reported in the Outcome rather than as an error.
func (s *SMTPSender) Send(ctx context.Context, msg Message) Outcome {
	if s.From == "" || s.Password == "" {
		return failed("mail credentials missing: set SENDER_EMAIL and SENDER_PASSWORD")
	}
	if msg.To == "" {
		return failed("mail recipient missing")
	}
	m, err := s.compose(msg)
	if err != nil {
		return failed("build message: %v", err)
	}
	client, err := s.client()
	if err != nil {
		return failed("send failed: %v", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		if isAuthFailure(err) {
			return failed("authentication failed: check sender address and password")
		}
		return failed("send failed: %v", err)
	}
	return Outcome{OK: true, Message: "mail sent to " + msg.To}
}

// Build renders msg as it would go over the wire.
func (s *SMTPSender) Build(msg Message) ([]byte, error) {
	m, err := s.compose(msg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render message: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *SMTPSender) compose(msg Message) (*mail.Msg, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	m := mail.NewMsg()
	if err := m.From(s.From); err != nil {
		return nil, fmt.Errorf("sender %q: %w", s.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetDateWithValue(now())
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	if att := msg.Attachment; att != nil {
		contentType := att.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		err := m.AttachReader(att.FileName, bytes.NewReader(att.Data),
			mail.WithFileContentType(mail.ContentType(contentType)))
		if err != nil {
			return nil, fmt.Errorf("attach %s: %w", att.FileName, err)
		}
	}
	return m, nil
}

func (s *SMTPSender) client() (*mail.Client, error) {
	auth, policy := mail.SMTPAuthPlain, mail.TLSMandatory
	if s.AllowInsecure {
		auth, policy = mail.SMTPAuthPlainNoEnc, mail.TLSOpportunistic
	}
	return mail.NewClient(s.Host,
		mail.WithPort(s.Port),
		mail.WithSMTPAuth(auth),
		mail.WithUsername(s.From),
		mail.WithPassword(s.Password),
		mail.WithTLSPolicy(policy),
		mail.WithTimeout(30*time.Second),
	)
}

// isAuthFailure reports a 535 reply from the server.
func isAuthFailure(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code == 535
	}
	return strings.Contains(err.Error(), "535")
}
