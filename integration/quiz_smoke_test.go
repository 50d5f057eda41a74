package integration_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typequiz/integration/harness"
)

func values(n int, v string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = v
	}
	return strings.Join(parts, ",")
}

// initWorkspace creates a fresh workspace and returns a runner bound to it.
func initWorkspace(t *testing.T) (*harness.CLI, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "ws")
	cli := harness.New(t).In(root)
	cli.MustRun("init")
	return cli, root
}

// requireFailure asserts a non-zero exit whose stderr mentions want.
func requireFailure(t *testing.T, res harness.Result, want string) {
	t.Helper()
	require.NotZero(t, res.Code, "expected failure\n%s", res.Output())
	require.Contains(t, res.Stderr, want, res.Output())
}

func TestQuizWalkthroughSmoke(t *testing.T) {
	cli, ws := initWorkspace(t)

	res := cli.MustRun("start", "--name", "Ada Lovelace", "--gender", "female", "--page-size", "30")
	assert.Contains(t, res.Stdout, "Page 1/2")

	requireFailure(t, cli.Run("result"), "not finished")
	requireFailure(t, cli.Run("submit"), "cannot submit from page 1 of 2")

	res = cli.MustRun("next", "--values", values(30, "3"), "60=3")
	assert.Contains(t, res.Stdout, "Page 2/2")
	assert.Contains(t, res.Stderr, "ignored 1 answer(s) not on page 1")

	res = cli.MustRun("prev")
	assert.Contains(t, res.Stdout, "Page 1/2")
	assert.Contains(t, res.Stdout, "[+3]", "answers survive navigation")
	cli.MustRun("next")

	cli.MustRun("submit", "--values", values(30, "3"))
	requireFailure(t, cli.Run("next"), "already submitted")

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	res = cli.MustRun("result", "--export", "--csv", csvPath, "--persona")
	for _, want := range []string{"Respondent: Ada Lovelace", "ENFJ-A (Protagonist, Diplomats)", `"target_persona"`} {
		assert.Contains(t, res.Stdout, want)
	}

	exported := filepath.Join(ws, "exports", "personality_Ada_Lovelace_ENFJ-A.csv")
	for _, path := range []string{exported, csvPath} {
		data, err := os.ReadFile(path)
		require.NoError(t, err, "read export %s", path)
		assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, data[:3], "export %s carries the UTF-8 BOM", path)
		assert.Contains(t, string(data), "User_Name,Result_Type,Gender,AI_Prompt_JSON")
	}

	auditPath := filepath.Join(ws, "audit", "audit.sqlite")
	requireAuditEvents(t, auditPath, []string{
		"start_started", "start_finished",
		"next_started", "next_finished",
		"prev_finished",
		"submit_started", "submit_finished",
		"result_started", "result_finished",
	})
	payload := lastAuditPayload(t, auditPath, "result_finished")
	assert.Equal(t, "ENFJ-A", payload["type"])
	assert.NotContains(t, payload, "error")
}

func TestResetAndDiscardSmoke(t *testing.T) {
	cli, ws := initWorkspace(t)

	cli.MustRun("start", "--page-size", "0")
	cli.MustRun("submit", "--values", values(60, "-3"))

	res := cli.MustRun("reset")
	assert.Contains(t, res.Stdout, "[+0]", "reset shows neutral answers")

	res = cli.MustRun("list")
	assert.Contains(t, res.Stdout, "active")

	cli.MustRun("discard")
	requireFailure(t, cli.Run("show"), "no session selected")
	requireAuditEvents(t, filepath.Join(ws, "audit", "audit.sqlite"), []string{
		"reset_finished", "discard_finished", "list_finished",
	})
}

func TestCatalogShowAxisSmoke(t *testing.T) {
	cli, _ := initWorkspace(t)

	res := cli.MustRun("catalog", "show", "--axis", "Tactics")
	rows := 0
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.HasPrefix(line, "  Q") {
			rows++
			assert.Contains(t, line, "Tactics")
		}
	}
	assert.Equal(t, 12, rows)

	requireFailure(t, cli.Run("catalog", "show", "--axis", "Colour"), "unknown axis")
}

func TestCatalogDiffSmoke(t *testing.T) {
	cli, ws := initWorkspace(t)

	cli.MustRun("start")
	res := cli.MustRun("catalog", "diff")
	assert.Contains(t, res.Stdout, "matches the current catalog")

	catalogPath := filepath.Join(ws, "catalog.yml")
	data, err := os.ReadFile(catalogPath)
	require.NoError(t, err)
	extra := "  - text: I enjoy long walks.\n    axis: Mind\n    weight: -1\n"
	require.NoError(t, os.WriteFile(catalogPath, append(data, []byte(extra)...), 0o644))

	requireFailure(t, cli.Run("show"), "different catalog")

	res = cli.MustRun("catalog", "diff")
	added := false
	for _, line := range strings.Split(res.Stdout, "\n") {
		if strings.HasPrefix(line, "+") && strings.Contains(line, "I enjoy long walks.") {
			added = true
		}
	}
	assert.True(t, added, "diff shows the added statement\n%s", res.Output())
}
