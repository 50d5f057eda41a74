package catalog

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

//go:embed default.yml
var defaultYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Catalog is an ordered, immutable sequence of statements.
type Catalog struct {
	statements []Statement
	byAxis     map[Axis][]int
	source     string
}

type rawDocument struct {
	Statements []rawStatement `yaml:"statements"`
}

type rawStatement struct {
	Text   string `yaml:"text" validate:"required"`
	Axis   string `yaml:"axis" validate:"required,oneof=Mind Energy Nature Tactics Identity"`
	Weight *int   `yaml:"weight" validate:"required,oneof=-1 1"`
}

var validate = validator.New()

// ValidationError captures a single field-specific problem.
type ValidationError struct {
	File    string
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
}

// ValidationErrors aggregates multiple validation problems.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "\n")
}

// Default returns the built-in reference catalog.
func Default() *Catalog {
	defaultOnce.Do(func() {
		cat, err := Parse(defaultYAML, "default.yml")
		if err != nil {
			panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
		}
		defaultCatalog = cat
	})
	return defaultCatalog
}

// DefaultYAML returns the embedded catalog document.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

// LoadFile reads and validates a catalog YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse unmarshals and validates a catalog document. Ids are assigned by
// position, ascending and gapless.
func Parse(data []byte, source string) (*Catalog, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, ValidationErrors{{File: source, Field: "yaml", Message: err.Error()}}
	}
	if len(raw.Statements) == 0 {
		return nil, ValidationErrors{{File: source, Field: "statements", Message: "at least one statement is required"}}
	}

	var errs ValidationErrors
	statements := make([]Statement, 0, len(raw.Statements))
	for i, rs := range raw.Statements {
		rs.Text = strings.TrimSpace(rs.Text)
		if err := validate.Struct(rs); err != nil {
			errs = append(errs, fieldErrors(source, i, err)...)
			continue
		}
		statements = append(statements, Statement{
			ID:     i,
			Text:   rs.Text,
			Axis:   Axis(rs.Axis),
			Weight: Weight(*rs.Weight),
		})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return New(statements, source), nil
}

func fieldErrors(source string, index int, err error) ValidationErrors {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{File: source, Field: fmt.Sprintf("statements[%d]", index), Message: err.Error()}}
	}
	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		msg := fmt.Sprintf("failed %q", fe.Tag())
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "oneof":
			msg = fmt.Sprintf("must be one of [%s]", fe.Param())
		}
		out = append(out, ValidationError{
			File:    source,
			Field:   fmt.Sprintf("statements[%d].%s", index, strings.ToLower(fe.Field())),
			Message: msg,
		})
	}
	return out
}

// New builds a catalog from statements, renumbering ids by position.
func New(statements []Statement, source string) *Catalog {
	c := &Catalog{
		statements: make([]Statement, len(statements)),
		byAxis:     make(map[Axis][]int),
		source:     source,
	}
	for i, st := range statements {
		st.ID = i
		c.statements[i] = st
		c.byAxis[st.Axis] = append(c.byAxis[st.Axis], i)
	}
	return c
}

// Len returns the number of statements.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.statements)
}

// Source names where the catalog was loaded from.
func (c *Catalog) Source() string {
	return c.source
}

// Statement returns the statement with id.
func (c *Catalog) Statement(id int) (Statement, bool) {
	if c == nil || id < 0 || id >= len(c.statements) {
		return Statement{}, false
	}
	return c.statements[id], true
}

// Statements returns a copy of every statement in id order.
func (c *Catalog) Statements() []Statement {
	out := make([]Statement, len(c.statements))
	copy(out, c.statements)
	return out
}

// ByAxis returns the statements tagged with axis, in id order.
func (c *Catalog) ByAxis(axis Axis) []Statement {
	ids := c.byAxis[axis]
	out := make([]Statement, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.statements[id])
	}
	return out
}

// Canonical renders the catalog as normalized YAML. Two catalogs with the same
// statements in the same order render identically.
func (c *Catalog) Canonical() []byte {
	doc := rawDocument{Statements: make([]rawStatement, len(c.statements))}
	for i, st := range c.statements {
		weight := int(st.Weight)
		doc.Statements[i] = rawStatement{Text: st.Text, Axis: string(st.Axis), Weight: &weight}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		panic(fmt.Sprintf("encode canonical catalog: %v", err))
	}
	if err := enc.Close(); err != nil {
		panic(fmt.Sprintf("encode canonical catalog: %v", err))
	}
	return buf.Bytes()
}

// Fingerprint identifies the catalog version.
func (c *Catalog) Fingerprint() string {
	sum := sha256.Sum256(c.Canonical())
	return hex.EncodeToString(sum[:])
}
