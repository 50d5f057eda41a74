package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogShape(t *testing.T) {
	cat := Default()
	require.Equal(t, 60, cat.Len())
	for i, st := range cat.Statements() {
		assert.Equal(t, i, st.ID)
	}
	for _, axis := range Axes {
		stmts := cat.ByAxis(axis)
		require.Len(t, stmts, 12, axis)
		pos, neg := 0, 0
		for _, st := range stmts {
			switch st.Weight {
			case WeightPositive:
				pos++
			case WeightNegative:
				neg++
			default:
				t.Fatalf("statement %d has weight %d", st.ID, st.Weight)
			}
		}
		assert.Equal(t, 6, pos, "%s positive statements", axis)
		assert.Equal(t, 6, neg, "%s negative statements", axis)
	}
}

func TestParseAssignsPositionalIDs(t *testing.T) {
	yml := `
statements:
  - text: first
    axis: Mind
    weight: 1
  - text: second
    axis: Identity
    weight: -1
`
	cat, err := Parse([]byte(yml), "test.yml")
	require.NoError(t, err)

	st, ok := cat.Statement(1)
	require.True(t, ok)
	assert.Equal(t, Statement{ID: 1, Text: "second", Axis: AxisIdentity, Weight: WeightNegative}, st)

	_, ok = cat.Statement(2)
	assert.False(t, ok)
	_, ok = cat.Statement(-1)
	assert.False(t, ok)
}

func TestParseCollectsValidationErrors(t *testing.T) {
	yml := `
statements:
  - text: ""
    axis: Mind
    weight: 1
  - text: bad axis
    axis: Soul
    weight: 1
  - text: bad weight
    axis: Mind
    weight: 2
  - text: missing weight
    axis: Mind
`
	_, err := Parse([]byte(yml), "bad.yml")
	require.Error(t, err)

	var ves ValidationErrors
	require.True(t, errors.As(err, &ves))
	require.Len(t, ves, 4)
	for _, field := range []string{"statements[0].text", "statements[1].axis", "statements[2].weight", "statements[3].weight"} {
		assert.Contains(t, err.Error(), field)
	}
}

func TestParseRejectsEmptyAndMalformed(t *testing.T) {
	_, err := Parse([]byte("statements: []\n"), "empty.yml")
	assert.Error(t, err)
	_, err = Parse([]byte("statements: [\n"), "broken.yml")
	assert.Error(t, err)
}

func TestFingerprintTracksOrder(t *testing.T) {
	a := New([]Statement{
		{Text: "one", Axis: AxisMind, Weight: WeightPositive},
		{Text: "two", Axis: AxisMind, Weight: WeightNegative},
	}, "a")
	b := New([]Statement{
		{Text: "one", Axis: AxisMind, Weight: WeightPositive},
		{Text: "two", Axis: AxisMind, Weight: WeightNegative},
	}, "b")
	c := New([]Statement{
		{Text: "two", Axis: AxisMind, Weight: WeightNegative},
		{Text: "one", Axis: AxisMind, Weight: WeightPositive},
	}, "c")

	assert.Equal(t, a.Fingerprint(), b.Fingerprint(), "identical catalogs share a fingerprint")
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint(), "reordering changes the fingerprint")
}

func TestCanonicalRoundTrip(t *testing.T) {
	cat := Default()
	again, err := Parse(cat.Canonical(), "canonical")
	require.NoError(t, err)
	assert.Equal(t, cat.Fingerprint(), again.Fingerprint())
	assert.Equal(t, cat.Statements(), again.Statements())
}

func TestCanonicalRoundTripUnusualText(t *testing.T) {
	texts := []string{
		"人と話すのが好きだ",
		"Emoji 🙂 and \"double\" 'single' quotes",
		"tab\there and a back\\slash",
		"control \x7f char",
		"yes",
		"- looks like a list: item",
		"123",
		"# not a comment",
		"line one\nline two",
	}
	stmts := make([]Statement, len(texts))
	for i, text := range texts {
		stmts[i] = Statement{Text: text, Axis: AxisNature, Weight: WeightNegative}
	}
	cat := New(stmts, "unusual")

	again, err := Parse(cat.Canonical(), "canonical")
	require.NoError(t, err)
	require.Equal(t, cat.Len(), again.Len())
	for i, text := range texts {
		st, ok := again.Statement(i)
		require.True(t, ok)
		assert.Equal(t, text, st.Text)
		assert.Equal(t, AxisNature, st.Axis)
		assert.Equal(t, WeightNegative, st.Weight)
	}
	assert.Equal(t, cat.Fingerprint(), again.Fingerprint())
	assert.Equal(t, cat.Canonical(), again.Canonical())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yml")
	require.NoError(t, os.WriteFile(path, DefaultYAML(), 0o644))

	cat, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, cat.Source())
	assert.Equal(t, Default().Fingerprint(), cat.Fingerprint())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestAxisInfo(t *testing.T) {
	info, ok := Info(AxisTactics)
	require.True(t, ok)
	assert.Equal(t, "J", info.Positive.Letter)
	assert.Equal(t, "P", info.Negative.Letter)

	_, err := ParseAxis("Soul")
	assert.Error(t, err)
	axis, err := ParseAxis("Energy")
	require.NoError(t, err)
	assert.Equal(t, AxisEnergy, axis)
}

func TestDiff(t *testing.T) {
	cat := Default()
	same, err := cat.Diff(cat.Canonical(), "recorded")
	require.NoError(t, err)
	assert.Empty(t, same)

	first, ok := cat.Statement(0)
	require.True(t, ok)
	old := New([]Statement{first}, "old")
	text, err := cat.Diff(old.Canonical(), "session")
	require.NoError(t, err)
	assert.Contains(t, text, "--- session")
	assert.Contains(t, text, "+++ default.yml")

	added := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "+") && strings.Contains(line, "text:") {
			added++
		}
	}
	assert.Equal(t, cat.Len()-1, added, "every statement after the first is new")
}
