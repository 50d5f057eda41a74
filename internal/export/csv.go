package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"typequiz/internal/catalog"
	"typequiz/internal/classify"
	"typequiz/internal/report"
)

// utf8BOM makes spreadsheet tools detect UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const missingName = "(not provided)"

// Row is one flattened session.
type Row struct {
	Name    string
	Gender  string
	Result  classify.Result
	Answers []int
}

// Header returns the column names for a catalog of n statements.
func Header(n int) []string {
	cols := []string{"User_Name", "Result_Type", "Gender", "AI_Prompt_JSON"}
	for _, axis := range catalog.Axes {
		cols = append(cols, string(axis)+"_Trait", string(axis)+"_Pct")
	}
	for i := 1; i <= n; i++ {
		cols = append(cols, "Q"+strconv.Itoa(i))
	}
	return cols
}

// Record returns the CSV fields for row in Header order.
func (r Row) Record() ([]string, error) {
	persona, err := report.PersonaJSON(r.Result, r.Gender)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(r.Name)
	if name == "" {
		name = missingName
	}
	fields := []string{name, r.Result.Code, r.Gender, persona}
	for _, axis := range catalog.Axes {
		a, ok := r.Result.Axis(axis)
		if !ok {
			fields = append(fields, "", "")
			continue
		}
		fields = append(fields, a.Label, strconv.Itoa(a.Percent))
	}
	for _, v := range r.Answers {
		fields = append(fields, strconv.Itoa(v))
	}
	return fields, nil
}

// Encode renders row as a two-line CSV document with a UTF-8 BOM.
func Encode(row Row) ([]byte, error) {
	record, err := row.Record()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(Header(len(row.Answers))); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	if err := w.Write(record); err != nil {
		return nil, fmt.Errorf("write csv row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName builds "personality_<name>_<code>.csv". Spaces in the name become
// underscores and path separators are stripped; an empty name becomes "user".
func FileName(name, code string) string {
	safe := strings.TrimSpace(name)
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = strings.NewReplacer("/", "", "\\", "", string(filepath.Separator), "").Replace(safe)
	if safe == "" {
		safe = "user"
	}
	return fmt.Sprintf("personality_%s_%s.csv", safe, code)
}

// WriteFile encodes row and writes it to path, creating parent directories.
func WriteFile(path string, row Row) error {
	data, err := Encode(row)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure export dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write export %s: %w", path, err)
	}
	return nil
}
