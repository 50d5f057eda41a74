package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typequiz/internal/catalog"
	"typequiz/internal/classify"
	"typequiz/internal/responses"
)

func sampleRow() Row {
	cat := catalog.Default()
	store := responses.New(cat.Len())
	store.Set(0, 3)
	store.Set(59, -2)
	return Row{
		Name:    "Ada Lovelace",
		Gender:  "female",
		Result:  classify.Classify(store, cat),
		Answers: store.Values(),
	}
}

func TestHeader(t *testing.T) {
	h := Header(3)
	assert.Equal(t, []string{
		"User_Name", "Result_Type", "Gender", "AI_Prompt_JSON",
		"Mind_Trait", "Mind_Pct", "Energy_Trait", "Energy_Pct",
		"Nature_Trait", "Nature_Pct", "Tactics_Trait", "Tactics_Pct",
		"Identity_Trait", "Identity_Pct",
		"Q1", "Q2", "Q3",
	}, h)
}

func TestEncode(t *testing.T) {
	row := sampleRow()
	data, err := Encode(row)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, utf8BOM))

	records, err := csv.NewReader(bytes.NewReader(data[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	header, values := records[0], records[1]
	require.Len(t, header, 14+60)
	require.Len(t, values, len(header))

	col := func(name string) string {
		for i, h := range header {
			if h == name {
				return values[i]
			}
		}
		t.Fatalf("missing column %s", name)
		return ""
	}
	assert.Equal(t, "Ada Lovelace", col("User_Name"))
	assert.Equal(t, row.Result.Code, col("Result_Type"))
	assert.Equal(t, "female", col("Gender"))
	assert.Contains(t, col("AI_Prompt_JSON"), `"target_persona"`)
	assert.Equal(t, "Extraverted", col("Mind_Trait"))
	assert.Equal(t, "54", col("Mind_Pct"))
	assert.Equal(t, "3", col("Q1"))
	assert.Equal(t, "0", col("Q2"))
	assert.Equal(t, "-2", col("Q60"))
}

func TestEncodeMissingName(t *testing.T) {
	row := sampleRow()
	row.Name = "  "
	record, err := row.Record()
	require.NoError(t, err)
	assert.Equal(t, missingName, record[0])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "personality_Ada_Lovelace_ENFJ-A.csv", FileName("Ada Lovelace", "ENFJ-A"))
	assert.Equal(t, "personality_user_ISTP-T.csv", FileName("", "ISTP-T"))
	assert.Equal(t, "personality_etcpasswd_ISTP-T.csv", FileName("/etc/passwd", "ISTP-T"))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exports", "out.csv")
	require.NoError(t, WriteFile(path, sampleRow()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, utf8BOM))
}
