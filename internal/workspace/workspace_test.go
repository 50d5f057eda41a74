package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLayout(t *testing.T) {
	root := t.TempDir()
	ws, err := Resolve(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "typequiz.yml"), ws.ConfigPath)
	assert.Equal(t, filepath.Join(root, "catalog.yml"), ws.CatalogPath)
	assert.Equal(t, filepath.Join(root, "state", "sessions.sqlite"), ws.StateDBPath)
	assert.Equal(t, filepath.Join(root, "audit", "audit.sqlite"), ws.AuditDBPath)
	assert.Equal(t, filepath.Join(root, "exports"), ws.ExportsDir)

	require.NoError(t, ws.EnsureDirs())
	for _, dir := range []string{ws.StateDir, ws.AuditDir, ws.ExportsDir} {
		assert.DirExists(t, dir)
	}
}

func TestResolveRejectsMissingAndFiles(t *testing.T) {
	_, err := Resolve("")
	assert.Error(t, err, "empty root")

	_, err = Resolve(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err, "missing root")

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = Resolve(file)
	assert.Error(t, err, "file root")
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	ws, err := Resolve(root)
	require.NoError(t, err)

	got, err := ws.ResolvePath("custom/catalog.yml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "custom", "catalog.yml"), got)

	abs := filepath.Join(t.TempDir(), "abs.yml")
	got, _ = ws.ResolvePath(abs)
	assert.Equal(t, abs, got, "absolute path kept")

	got, _ = ws.ResolvePath("  ")
	assert.Empty(t, got, "blank path stays blank")
}

func TestRootFromEnv(t *testing.T) {
	t.Setenv(EnvWorkspace, "/tmp/from-env")
	assert.Equal(t, "/tmp/from-env", RootFromEnv(""))
	assert.Equal(t, "explicit", RootFromEnv("explicit"), "explicit root wins")
}
