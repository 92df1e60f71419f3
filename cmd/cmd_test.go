package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags puts every flag back to its default so commands don't see
// values from an earlier run.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func executeWithInput(t *testing.T, stdin io.Reader, args ...string) string {
	t.Helper()

	resetFlags(rootCmd)
	exitStatus = 0

	out := &bytes.Buffer{}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	defer rootCmd.SetIn(nil)

	if err := rootCmd.Execute(); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func execute(t *testing.T, args ...string) string {
	t.Helper()
	return executeWithInput(t, nil, args...)
}

func TestParseCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out := execute(t, "parse", "-c", "a | b && c > out", "--format", "text")
		assert.Equal(t, "{ a | b; } && c > out\n", out)
	})

	t.Run("tree", func(t *testing.T) {
		out := execute(t, "parse", "-c", "sleep 1 &", "--format", "tree")
		assert.Equal(t, "Background\n  SimpleCommand [\"sleep\" \"1\"]\n", out)
	})

	t.Run("yaml", func(t *testing.T) {
		out := execute(t, "parse", "-c", "ls -l", "--format", "yaml")
		assert.Contains(t, out, "kind: SimpleCommand")
	})

	t.Run("file", func(t *testing.T) {
		script := t.TempDir() + "/script.sh"
		assert.Nil(t, os.WriteFile(script, []byte("true; false\n"), 0644))

		out := execute(t, "parse", script, "--format", "text")
		assert.Equal(t, "true; false\n", out)
	})
}

func TestRunCommand(t *testing.T) {
	t.Run("exit status", func(t *testing.T) {
		execute(t, "run", "--config", t.TempDir(), "-c", `sh -c "exit 3"`)
		assert.Equal(t, 3, exitStatus)
	})

	t.Run("sequence and redirect", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "f")

		execute(t, "run", "--config", dir, "-c", "true && echo x > "+out)
		assert.Equal(t, 0, exitStatus)

		b, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "x\n", string(b))
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		script := filepath.Join(dir, "script.sh")
		require.NoError(t, os.WriteFile(script, []byte("true\nfalse\n"), 0644))

		execute(t, "run", "--config", dir, script)
		assert.Equal(t, 1, exitStatus)
	})

	t.Run("stdin", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "f")

		executeWithInput(t, strings.NewReader("echo piped | cat > "+out+"\n"), "run", "--config", dir)
		assert.Equal(t, 0, exitStatus)

		b, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Equal(t, "piped\n", string(b))
	})

	t.Run("background job drained", func(t *testing.T) {
		dir := t.TempDir()
		out := filepath.Join(dir, "f")

		execute(t, "run", "--config", dir, "-c", "sh -c 'sleep 0.2; echo late > "+out+"' &")
		assert.Equal(t, 0, exitStatus)

		b, err := os.ReadFile(out)
		require.NoError(t, err, "run returned before the background job finished")
		assert.Equal(t, "late\n", string(b))
	})

	t.Run("syntax error", func(t *testing.T) {
		resetFlags(rootCmd)
		rootCmd.SetOut(io.Discard)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs([]string{"run", "--config", t.TempDir(), "-c", "a &&"})
		defer rootCmd.SetArgs(nil)

		assert.ErrorContains(t, rootCmd.Execute(), "syntax error")
	})
}

func TestExecCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")

	// The line is split with shell quoting: $0 receives "a b" as one word.
	execute(t, "exec", "--config", dir, "--", `sh -c 'printf %s "$0" > `+out+`' 'a b'`)
	assert.Equal(t, 0, exitStatus)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "a b", string(b))

	execute(t, "exec", "--config", dir, "--", "sh", "-c", `"exit 7"`)
	assert.Equal(t, 7, exitStatus)

	// Operators are plain arguments, so nothing is redirected.
	execute(t, "exec", "--config", dir, "--", "true > "+filepath.Join(dir, "never"))
	assert.NoFileExists(t, filepath.Join(dir, "never"))
}

func TestEventsReport(t *testing.T) {
	dir := t.TempDir()

	execute(t, "init", "--config", dir)
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	execute(t, "run", "--config", dir, "-c", "true; nonexistent-command-for-report")
	assert.Equal(t, 2, exitStatus)

	out := execute(t, "events", "report", "--config", dir)
	assert.Contains(t, out, "sessions: 1")
	assert.Contains(t, out, "evaluations: 1")
	assert.Contains(t, out, "nonexistent-command-for-report")

	var report struct {
		Sessions    int            `json:"sessions"`
		Evaluations int            `json:"evaluations"`
		Commands    map[string]int `json:"command_names"`
	}
	out = execute(t, "events", "report", "--config", dir, "--format", "json")
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Sessions)
	assert.Equal(t, 1, report.Commands["true"])

	out = execute(t, "events", "report", "--config", dir, "--format", "json", "--session", "no-such-session")
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0, report.Sessions)
	assert.Equal(t, 0, report.Evaluations)
}

func TestKindsCommand(t *testing.T) {
	out := execute(t, "kinds")
	assert.Contains(t, out, "SimpleCommand")
	assert.Contains(t, out, "Background")
	assert.Contains(t, out, "cmd &> file")
	assert.Contains(t, out, "cmd 2>> file")
}

func TestPrompt(t *testing.T) {
	cp := &ColorPrinter{value: colorNever, out: os.Stdout}
	assert.Equal(t, "[0] $ ", prompt(cp, "$ ", 0))
	assert.Equal(t, "[127] $ ", prompt(cp, "$ ", 127))

	cp.value = colorAlways
	assert.NotEqual(t, "[1] $ ", prompt(cp, "$ ", 1))
	assert.Contains(t, prompt(cp, "$ ", 1), "[1] ")
}
