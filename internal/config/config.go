package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPageSize = 6
	DefaultSMTPHost = "smtp.gmail.com"
	DefaultSMTPPort = 587

	EnvSenderEmail    = "SENDER_EMAIL"
	EnvSenderPassword = "SENDER_PASSWORD"
)

// Config is the contents of typequiz.yml.
type Config struct {
	PageSize int    `yaml:"page_size" validate:"min=0,max=1000"`
	Catalog  string `yaml:"catalog"`
	ImageDir string `yaml:"image_dir"`
	Desktop  bool   `yaml:"desktop_notifications"`
	Mail     Mail   `yaml:"mail"`
}

// Mail holds the non-secret SMTP settings. The password only ever comes from
// SENDER_PASSWORD.
type Mail struct {
	SMTPHost  string `yaml:"smtp_host" validate:"required,hostname|ip"`
	SMTPPort  int    `yaml:"smtp_port" validate:"required,min=1,max=65535"`
	Sender    string `yaml:"sender" validate:"omitempty,email"`
	Recipient string `yaml:"recipient" validate:"omitempty,email"`
	// AllowInsecure permits plaintext relays without STARTTLS.
	AllowInsecure bool `yaml:"allow_insecure"`
}

// Credentials identify the SMTP account.
type Credentials struct {
	From     string
	Password string
}

var validate = validator.New()

// ValidationError captures a single configuration problem.
type ValidationError struct {
	File    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
}

// ValidationErrors aggregates configuration problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// Default returns the configuration used when typequiz.yml is absent.
func Default() Config {
	return Config{
		PageSize: DefaultPageSize,
		Mail: Mail{
			SMTPHost: DefaultSMTPHost,
			SMTPPort: DefaultSMTPPort,
		},
	}
}

// Load reads path. A missing file yields Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse unmarshals data over the defaults and validates the result.
func Parse(data []byte, source string) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, ValidationErrors{{File: source, Field: "yaml", Message: err.Error()}}
	}
	cfg.Catalog = strings.TrimSpace(cfg.Catalog)
	cfg.Mail.SMTPHost = strings.TrimSpace(cfg.Mail.SMTPHost)
	cfg.Mail.Sender = strings.TrimSpace(cfg.Mail.Sender)
	cfg.Mail.Recipient = strings.TrimSpace(cfg.Mail.Recipient)
	if err := cfg.Validate(source); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints, reporting every failure.
func (c Config) Validate(source string) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{File: source, Field: "config", Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			File:    source,
			Field:   fieldPath(fe.Namespace()),
			Message: describe(fe),
		})
	}
	return out
}

// Credentials reads the SMTP account from the environment. SENDER_EMAIL falls
// back to mail.sender.
func (c Config) Credentials() Credentials {
	from := strings.TrimSpace(os.Getenv(EnvSenderEmail))
	if from == "" {
		from = c.Mail.Sender
	}
	return Credentials{From: from, Password: os.Getenv(EnvSenderPassword)}
}

func fieldPath(namespace string) string {
	replacer := strings.NewReplacer(
		"Config.", "",
		"PageSize", "page_size",
		"Mail.", "mail.",
		"SMTPHost", "smtp_host",
		"SMTPPort", "smtp_port",
		"Sender", "sender",
		"Recipient", "recipient",
	)
	return replacer.Replace(namespace)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be an email address"
	case "hostname|ip":
		return "must be a hostname or IP address"
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}

// Template is the typequiz.yml written by init.
const Template = `# typequiz workspace configuration
page_size: 6
# catalog: catalog.yml
# image_dir: images
desktop_notifications: false
mail:
  smtp_host: smtp.gmail.com
  smtp_port: 587
  # sender: quiz@example.com
  # recipient: results@example.com
  # allow_insecure: false
`
