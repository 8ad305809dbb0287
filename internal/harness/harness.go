//go:build unix

// Package harness wires the external collaborators (tokenizer, grouping
// expression, command templates) to the scheduler and computes the
// aggregate exit code, mirroring the upstream tool's top-level driver and
// its ExceptHook-style fatal error formatting.
package harness

import (
	"bytes"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"runtime"

	"github.com/jlrickert/xargs-groupby/internal/command"
	"github.com/jlrickert/xargs-groupby/internal/errs"
	"github.com/jlrickert/xargs-groupby/internal/expression"
	"github.com/jlrickert/xargs-groupby/internal/group"
	"github.com/jlrickert/xargs-groupby/internal/pipeline"
	"github.com/jlrickert/xargs-groupby/internal/procio"
	"github.com/jlrickert/xargs-groupby/internal/scheduler"
	"github.com/jlrickert/xargs-groupby/mylog"
	"github.com/jlrickert/xargs-groupby/toolkit"
)

// Options configures one end-to-end run.
type Options struct {
	// GroupExpr is the user-supplied grouping expression source.
	GroupExpr string

	// Command is the argv xargs ultimately invokes per batch of bucket
	// arguments, e.g. []string{"echo"}. Placeholder, if non-empty, is
	// substituted with the group key everywhere it occurs in Command —
	// distinct from any literal "{}" xargs replacement token, which is
	// passed through untouched for the real xargs binary to interpret.
	Command     []string
	Placeholder string

	// Preexec, if non-empty, is run once per group before the xargs stage,
	// with PreexecPlaceholder substituted by the group key. Preexec
	// receives no stdin.
	Preexec            []string
	PreexecPlaceholder string

	// Delimiter, if non-nil, fixes the separator byte between arguments
	// and disables auto-delimiter eligibility tracking.
	Delimiter *byte

	// MaxProcs is the scheduler's pipeline concurrency cap.
	MaxProcs int

	// XargsSwitches are user passthrough switches merged into every
	// rendered xargs invocation.
	XargsSwitches []command.Switch

	Stdout, Stderr *os.File

	Logger *slog.Logger

	// Hasher computes the digest logged alongside each group's bucket at
	// debug level, so bucket contents can be correlated across log lines
	// without printing every argument. Defaults to toolkit.DefaultHasher.
	Hasher toolkit.Hasher
}

// Result reports the outcome of a run.
type Result struct {
	RunCount      int
	FailuresCount int
}

// ExitCode computes the aggregate exit code from a Result:
//
//	0   if FailuresCount == 0 (including zero pipelines admitted)
//	100 if every admitted pipeline failed
//	otherwise min(10+FailuresCount, 99)
func (r Result) ExitCode() int {
	if r.FailuresCount == 0 {
		return 0
	}
	if r.FailuresCount == r.RunCount {
		return 100
	}
	code := 10 + r.FailuresCount
	if code > 99 {
		code = 99
	}
	return code
}

// FatalExitCode returns the process exit code for a fatal (pre-admission)
// error: 3 for user-attributable errors, 1 for unexpected internal errors.
func FatalExitCode(err error) int {
	switch err.(type) {
	case *errs.UserArgumentsError,
		*errs.UserCommandError,
		*errs.UserExpressionRuntimeError,
		*errs.UserExpressionCompileError:
		return 3
	default:
		return 1
	}
}

// Run groups tokens, builds one pipeline per group, and drains them through
// the scheduler. It returns the aggregate Result, or a non-nil error for a
// fatal ingest-level failure (delimiter exhaustion, expression compile or
// runtime failure) — in which case no pipeline was admitted.
func Run(tokens iter.Seq[string], opts Options) (Result, error) {
	logger := mylog.OrDefault(opts.Logger).With(slog.String("package", "harness"))

	compiled, err := expression.Compile(opts.GroupExpr)
	if err != nil {
		return Result{}, err
	}

	prepper := group.NewPrepper(compiled.Func(), opts.Delimiter)
	for tok := range tokens {
		if err := prepper.Add(tok); err != nil {
			return Result{}, err
		}
	}

	keys := prepper.Keys()
	if len(keys) == 0 {
		return Result{}, nil
	}

	mainCmd := command.NewGroupCommand(command.NewTemplate(opts.Command, opts.Placeholder))
	xc := command.NewXargsCommand([]string{"xargs"}, mainCmd)
	xc.SetParallel(runtime.NumCPU(), len(keys))
	xc.SetOptions(opts.XargsSwitches)

	var preexecCmd *command.GroupCommand
	if len(opts.Preexec) > 0 {
		preexecCmd = command.NewGroupCommand(command.NewTemplate(opts.Preexec, opts.PreexecPlaceholder))
	}

	hasher := toolkit.OrDefaultHasher(opts.Hasher)

	pipelines := make([]*pipeline.Pipeline, 0, len(keys))
	for _, key := range keys {
		keyStr := fmt.Sprint(key)

		bucket, _ := prepper.Bucket(key)
		delim, err := prepper.Delimiter(key)
		if err != nil {
			return Result{}, err
		}
		xc.SetDelimiter(delim)

		logger.Debug("built pipeline for group",
			slog.String("key", keyStr),
			slog.Int("tokens", len(bucket.Tokens)),
			slog.String("hash", hasher.Hash(bytes.Join(bucket.Tokens, []byte{' '}))),
		)

		var stages []pipeline.Stage
		if preexecCmd != nil {
			stages = append(stages, pipeline.Stage{
				Argv: preexecCmd.Render(keyStr),
				Src:  procio.NewSliceSource(nil),
			})
		}
		stages = append(stages, pipeline.Stage{
			Argv: xc.Render(keyStr),
			Src:  procio.NewSliceSource(bucket.Tokens),
			Sep:  ptr(delim),
		})

		pipelines = append(pipelines, pipeline.New(pipeline.NewSliceStages(stages), opts.Stdout, opts.Stderr))
	}

	runner := scheduler.New(opts.MaxProcs, logger)
	runner.Run(scheduler.NewSlicePipelines(pipelines))

	return Result{RunCount: runner.RunCount(), FailuresCount: runner.FailuresCount()}, nil
}

func ptr(b byte) *byte { return &b }
