package sandbox_test

import (
	"path/filepath"
	"testing"
	"time"

	tu "github.com/jlrickert/xargs-groupby/sandbox"
	"github.com/stretchr/testify/require"
)

func TestSandbox_BasicSetup(t *testing.T) {
	t.Parallel()

	sandbox := tu.NewSandbox(t, nil)

	ctx := sandbox.Context()
	require.NotNil(t, ctx)
	require.NotNil(t, sandbox.Runtime())
	require.NotNil(t, sandbox.Runtime().Env)
	require.NotNil(t, sandbox.Runtime().FS)
}

func TestSandbox_WithEnv(t *testing.T) {
	t.Parallel()

	sandbox := tu.NewSandbox(t, nil, tu.WithEnv("XARGS_GROUPBY_TEST", "1"))
	require.Equal(t, "1", sandbox.Runtime().Env.Get("XARGS_GROUPBY_TEST"))
}

func TestSandbox_WriteAndReadFile(t *testing.T) {
	t.Parallel()

	sandbox := tu.NewSandbox(t, nil)
	sandbox.MustWriteFile("note.txt", []byte("hello"), 0o644)
	require.Equal(t, "hello", string(sandbox.MustReadFile("note.txt")))
}

func TestSandbox_ClockAdvance(t *testing.T) {
	t.Parallel()

	sandbox := tu.NewSandbox(t, nil)
	start := sandbox.Now()
	sandbox.Advance(time.Hour)
	require.Equal(t, start.Add(time.Hour), sandbox.Now())
}

func TestSandbox_MultipleSandboxesAreIsolated(t *testing.T) {
	t.Parallel()

	sandbox1 := tu.NewSandbox(t, nil, tu.WithEnv("TEST_KEY", "value1"))
	sandbox2 := tu.NewSandbox(t, nil, tu.WithEnv("TEST_KEY", "value2"))

	require.Equal(t, "value1", sandbox1.Runtime().Env.Get("TEST_KEY"))
	require.Equal(t, "value2", sandbox2.Runtime().Env.Get("TEST_KEY"))
}

func TestSandbox_ResolvePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
		cwd      string
	}{
		{name: "relative path", input: "test.txt", expected: filepath.Join("/", "home", "testuser", "test.txt")},
		{name: "tilde expansion", input: "~/test.txt", expected: filepath.Join("/", "home", "testuser", "test.txt")},
		{name: "escape attempt with dot dot", input: "../../../escape.txt", expected: filepath.Join("/escape.txt")},
		{name: "absolute path", input: "/opt/etc/passwd", expected: filepath.Join("/", "opt", "etc", "passwd")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sandbox := tu.NewSandbox(t, nil)

			resolved, err := sandbox.ResolvePath(tc.input)
			require.NoError(t, err)
			require.Equal(t, tc.expected, resolved)
		})
	}
}
