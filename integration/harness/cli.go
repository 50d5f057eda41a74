// Package harness builds the typequiz binary and drives it from integration
// tests.
package harness

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	buildOnce sync.Once
	binPath   string
	buildErr  error
)

// CLI runs the compiled binary. The zero Workspace runs without --workspace.
type CLI struct {
	t         *testing.T
	bin       string
	Workspace string
	env       []string
}

// Result is the captured outcome of one invocation.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Output joins stdout and stderr for failure messages.
func (r Result) Output() string {
	return "stdout:\n" + r.Stdout + "\nstderr:\n" + r.Stderr
}

// New compiles the CLI once per test binary and returns a runner for it.
func New(t *testing.T) *CLI {
	t.Helper()
	buildOnce.Do(func() { binPath, buildErr = build() })
	require.NoError(t, buildErr, "build typequiz binary")
	return &CLI{t: t, bin: binPath}
}

// In returns a copy of c bound to the workspace root.
func (c *CLI) In(workspace string) *CLI {
	clone := *c
	clone.Workspace = workspace
	return &clone
}

// WithEnv returns a copy of c with one environment override added.
func (c *CLI) WithEnv(key, value string) *CLI {
	clone := *c
	clone.env = append(append([]string(nil), c.env...), key+"="+value)
	return &clone
}

// Run executes the binary from a scratch directory. A non-zero exit is
// reported in Result.Code; failing to start the process fails the test.
func (c *CLI) Run(args ...string) Result {
	c.t.Helper()
	if c.Workspace != "" {
		args = append([]string{"--workspace", c.Workspace}, args...)
	}
	cmd := exec.Command(c.bin, args...)
	cmd.Dir = c.t.TempDir()
	if len(c.env) > 0 {
		// exec keeps the last value for duplicate keys.
		cmd.Env = append(os.Environ(), c.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		require.True(c.t, errors.As(err, &exitErr), "run %s: %v", c.bin, err)
		res.Code = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

// MustRun is Run that also requires a zero exit code.
func (c *CLI) MustRun(args ...string) Result {
	c.t.Helper()
	res := c.Run(args...)
	require.Zero(c.t, res.Code, "typequiz %s\n%s", strings.Join(args, " "), res.Output())
	return res
}

func build() (string, error) {
	root, err := moduleRoot()
	if err != nil {
		return "", err
	}
	dir, err := os.MkdirTemp("", "typequiz-bin-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	out := filepath.Join(dir, "typequiz")

	cmd := exec.Command("go", "build", "-o", out, "./cmd/typequiz")
	cmd.Dir = root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("go build: %w\n%s", err, stderr.String())
	}
	return out, nil
}

// moduleRoot walks up from the test's working directory to the nearest go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("go.mod not found above working directory")
		}
		dir = parent
	}
}
