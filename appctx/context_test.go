package appctx_test

import (
	"path/filepath"
	"testing"

	"github.com/jlrickert/xargs-groupby/appctx"
	"github.com/jlrickert/xargs-groupby/sandbox"
	"github.com/jlrickert/xargs-groupby/toolkit"
	"github.com/stretchr/testify/require"
)

func TestNewAppContext_DerivesUserScopedRoots(t *testing.T) {
	t.Parallel()

	sb := sandbox.NewSandbox(t, &sandbox.Options{Home: "/home/testuser", User: "testuser"})
	ac, err := appctx.NewAppContext(sb.Runtime(), "/home/testuser/repo", "myapp")
	require.NoError(t, err)

	require.Equal(t, filepath.FromSlash("/home/testuser/repo"), ac.Root)

	ucfg, err := toolkit.UserConfigPath(sb.Runtime().Env)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(ucfg, "myapp"), ac.ConfigRoot)

	require.Equal(t, filepath.Join(ac.Root, ".myapp"), ac.LocalConfigRoot)
}

func TestFindGitRoot_NonGitDirectoryReturnsEmpty(t *testing.T) {
	t.Parallel()

	sb := sandbox.NewSandbox(t, &sandbox.Options{Home: "/home/testuser", User: "testuser"})
	require.NoError(t, sb.Mkdir("repo", true))

	root := appctx.FindGitRoot(sb.Context(), sb.Runtime(), "/home/testuser/repo")
	require.Empty(t, root)
}

func TestNewAppContext_NilRuntimeErrors(t *testing.T) {
	t.Parallel()

	_, err := appctx.NewAppContext(nil, "/x", "myapp")
	require.Error(t, err)
}
