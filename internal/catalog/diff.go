package catalog

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Diff renders a unified diff between a previously recorded canonical catalog
// and c. It returns "" when they are identical.
func (c *Catalog) Diff(recorded []byte, recordedName string) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(recorded)),
		B:        difflib.SplitLines(string(c.Canonical())),
		FromFile: recordedName,
		ToFile:   c.source,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("diff catalog: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	return text, nil
}
