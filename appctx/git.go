package appctx

import (
	"context"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/jlrickert/xargs-groupby/mylog"
	"github.com/jlrickert/xargs-groupby/toolkit"
)

// FindGitRoot determines the repository top-level directory starting from
// start. It first shells out to the git CLI; if that fails (git missing,
// not inside a worktree, command error), it falls back to an upward
// filesystem search for a .git entry.
func FindGitRoot(ctx context.Context, rt *toolkit.Runtime, start string) string {
	if rt == nil {
		return ""
	}
	lg := mylog.OrDefault(rt.Logger)

	if fi, err := rt.Stat(start, false); err == nil && !fi.IsDir() {
		start = filepath.Dir(start)
	}

	args := []string{"-C", start, "rev-parse", "--show-toplevel"}
	if out, err := exec.CommandContext(ctx, "git", args...).Output(); err == nil {
		if p := strings.TrimSpace(string(out)); p != "" {
			lg.Log(ctx, slog.LevelDebug, "git rev-parse succeeded", slog.String("root", p))
			return p
		}
		lg.Log(ctx, slog.LevelDebug, "git rev-parse returned empty output")
	} else {
		lg.Log(ctx, slog.LevelDebug, "git rev-parse failed, falling back",
			slog.String("start", start), slog.Any("error", err))
	}

	p := start
	for {
		gitPath := filepath.Join(p, ".git")
		if fi, err := rt.Stat(gitPath, false); err == nil {
			if fi.IsDir() || fi.Mode().IsRegular() {
				lg.Log(ctx, slog.LevelDebug, "found .git entry", slog.String("root", p))
				return p
			}
		}
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		p = parent
	}
	lg.Log(ctx, slog.LevelDebug, "git root not found", slog.String("start", start))
	return ""
}
