package toolkit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jlrickert/xargs-groupby/toolkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefault(t *testing.T) {
	jail := t.TempDir()
	env := toolkit.NewTestEnv(jail, "", "")
	require.NoError(t, env.Set("EXIST", "val"))

	assert.Equal(t, "val", toolkit.GetDefault(env, "EXIST", "other"))

	// empty value should fall back to provided default
	require.NoError(t, env.Set("EMPTY", ""))
	assert.Equal(t, "def", toolkit.GetDefault(env, "EMPTY", "def"))

	// missing key should return fallback
	assert.Equal(t, "fallback", toolkit.GetDefault(env, "MISSING", "fallback"))
}

// Ensure changing the TestEnv does not modify the real process environment.
func TestTestEnvDoesNotChangeOsEnv(t *testing.T) {
	const key = "GO_STD_TEST_OS_ENV_KEY"

	// Preserve original OS env value and restore on exit.
	orig, ok := os.LookupEnv(key)
	t.Cleanup(func() {
		if ok {
			_ = os.Setenv(key, orig)
		} else {
			_ = os.Unsetenv(key)
		}
	})

	// Set a known value in the real OS environment.
	require.NoError(t, os.Setenv(key, "os-value"))

	// Create a test env and change the same key in the TestEnv.
	jail := t.TempDir()
	env := toolkit.NewTestEnv(jail, "", "")
	require.NoError(t, env.Set(key, "test-value"))

	// The real OS environment should remain unchanged.
	assert.Equal(t, "os-value", os.Getenv(key))

	// Unsetting in the TestEnv should not affect the real OS env either.
	env.Unset(key)
	assert.Equal(t, "os-value", os.Getenv(key))
}

func TestExpandEnv(t *testing.T) {
	jail := t.TempDir()
	// Do not run this test in parallel because it temporarily sets real OS env.
	env := toolkit.NewTestEnv(jail, "", "")
	require.NoError(t, env.Set("FOO", "bar"))
	require.NoError(t, env.Set("EMPTY", ""))

	// Simple $VAR expansion
	got := toolkit.ExpandEnv(env, "$FOO/baz")
	assert.Equal(t, filepath.Join("bar", "baz"), got)

	// Braced form, missing and empty values
	got2 := toolkit.ExpandEnv(env, "${FOO}_${MISSING}_${EMPTY}")
	assert.Equal(t, "bar__", got2)

	// When env is nil, ExpandEnv falls back to the real OS environment
	// (OsEnv). Verify by setting a real OS env var.
	const oskey = "GO_STD_TEST_EXPAND_ENV_OS"
	orig, ok := os.LookupEnv(oskey)
	t.Cleanup(func() {
		if ok {
			_ = os.Setenv(oskey, orig)
		} else {
			_ = os.Unsetenv(oskey)
		}
	})
	require.NoError(t, os.Setenv(oskey, "osval"))

	got3 := toolkit.ExpandEnv(nil, "$"+oskey)
	assert.Equal(t, "osval", got3)
}

func TestTestEnvGlob(t *testing.T) {
	jail := t.TempDir()
	rt, err := toolkit.NewTestRuntime(jail, "", "")
	require.NoError(t, err)

	// Create test files in the jailed environment
	require.NoError(t, rt.WriteFile("file1.txt", []byte("content1"), 0644))
	require.NoError(t, rt.WriteFile("file2.txt", []byte("content2"), 0644))
	require.NoError(t, rt.WriteFile("file3.md", []byte("content3"), 0644))
	require.NoError(t, rt.Mkdir("subdir", 0755, true))
	require.NoError(t, rt.WriteFile("subdir/file4.txt", []byte("content4"), 0644))

	// Test glob with *.txt pattern
	matches, err := rt.Glob("*.txt")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"file1.txt", "file2.txt"}, matches)

	// Test glob with */*.txt pattern
	matches, err = rt.Glob("subdir/*.txt")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"subdir/file4.txt"}, matches)

	// Test glob with no matches
	matches, err = rt.Glob("*.nonexistent")
	require.NoError(t, err)
	assert.Empty(t, matches)

	// Test glob with multiple wildcards
	matches, err = rt.Glob("*.*")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"file1.txt", "file2.txt", "file3.md"}, matches)
}

func TestOsEnvGlob(t *testing.T) {
	// Create a temporary directory with test files
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "file1.txt"), []byte("content1"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "file2.txt"), []byte("content2"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "file3.md"), []byte("content3"), 0644))

	rt, err := toolkit.NewRuntime(toolkit.WithRuntimeEnv(&toolkit.OsEnv{}))
	require.NoError(t, err)

	// Test glob with absolute path
	pattern := filepath.Join(tmpDir, "*.txt")
	matches, err := rt.Glob(pattern)
	require.NoError(t, err)
	// Normalize paths for comparison
	var expectedFiles []string
	for _, f := range []string{"file1.txt", "file2.txt"} {
		expectedFiles = append(expectedFiles, filepath.Join(tmpDir, f))
	}
	assert.ElementsMatch(t, expectedFiles, matches)
}
