// Package cli wires xargs-groupby's flags to the grouping harness, mirroring
// the upstream tool's switch names where they carry over unchanged.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/jlrickert/xargs-groupby/appctx"
	"github.com/jlrickert/xargs-groupby/internal/command"
	"github.com/jlrickert/xargs-groupby/internal/config"
	"github.com/jlrickert/xargs-groupby/internal/harness"
	"github.com/jlrickert/xargs-groupby/internal/tokenizer"
	"github.com/jlrickert/xargs-groupby/mylog"
	"github.com/jlrickert/xargs-groupby/toolkit"
	"github.com/spf13/cobra"
)

const appName = "xargs-groupby"

// exitError carries a specific process exit code out of RunE without
// cobra printing it as a normal error (the result has already been
// reported by the pipelines themselves).
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute builds and runs the root command against os.Args, translating a
// non-zero aggregate result into the process exit code.
func Execute() error {
	err := NewRootCommand().Execute()
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	return err
}

type flags struct {
	placeholder        string
	preexec            string
	preexecPlaceholder string
	delimiter          string
	null               bool
	maxProcs           int
	verbose            bool
	exitOnOversize     bool
	interactive        bool
	maxArgs            string
	maxChars           string
	argFile            string
	logLevel           string
}

// NewRootCommand builds the xargs-groupby root command.
func NewRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "xargs-groupby GROUP-EXPR COMMAND [ARG...]",
		Short: "Partition input tokens into groups and fan each group out to xargs",
		Long: `xargs-groupby reads whitespace- or delimiter-separated tokens from stdin,
partitions them into groups using a grouping expression evaluated once per
token, and runs COMMAND through xargs once per group, up to a configurable
number of groups running concurrently.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoot(cmd, args, f)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Flags().StringVarP(&f.placeholder, "replace", "I", "{}", "Replace this string in COMMAND with the group key")
	cmd.Flags().StringVar(&f.preexec, "preexec", "", "Command to run once per group before COMMAND (shell-quoted)")
	cmd.Flags().StringVar(&f.preexecPlaceholder, "preexec-replace", "{}", "Replace this string in --preexec with the group key")
	cmd.Flags().StringVarP(&f.delimiter, "delimiter", "d", "", `Input separator byte; escapes \0 \a \b \f \n \r \t \v recognized`)
	cmd.Flags().BoolVarP(&f.null, "null", "0", false, "Use the null character as the input delimiter")
	cmd.Flags().IntVarP(&f.maxProcs, "max-procs", "P", 0, "Maximum number of groups to run concurrently (0: use config default)")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "t", false, "Write each xargs invocation to stderr before running it")
	cmd.Flags().BoolVarP(&f.exitOnOversize, "exit", "x", false, "Exit if a command line exceeds --max-chars")
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "p", false, "Prompt before running each xargs invocation")
	cmd.Flags().StringVarP(&f.maxArgs, "max-args", "n", "", "Maximum number of arguments per xargs invocation")
	cmd.Flags().StringVarP(&f.maxChars, "max-chars", "s", "", "Maximum number of characters per xargs invocation")
	cmd.Flags().StringVarP(&f.argFile, "arg-file", "a", "", "Read input tokens from FILE instead of stdin")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Logging level: debug, info, warn, error")

	cmd.AddCommand(newConfigCommand())

	return cmd
}

func runRoot(cmd *cobra.Command, args []string, f *flags) error {
	groupExpr := args[0]
	mainCommand := args[1:]

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: mylog.ParseLevel(f.logLevel)}))

	rt, err := toolkit.NewOsRuntime()
	if err != nil {
		return fmt.Errorf("xargs-groupby: %w", err)
	}
	rt.Logger = logger

	ac, err := appctx.NewGitAppContext(cmd.Context(), rt, appName)
	if err != nil {
		return fmt.Errorf("xargs-groupby: %w", err)
	}

	cfg, err := config.Load(rt, ac)
	if err != nil {
		return fmt.Errorf("xargs-groupby: %w", err)
	}

	maxProcs := cfg.MaxProcs
	if f.maxProcs > 0 {
		maxProcs = f.maxProcs
	}

	placeholder := f.placeholder
	if !cmd.Flags().Changed("replace") {
		placeholder = cfg.Placeholder
	}

	delimStr := f.delimiter
	if delimStr == "" {
		delimStr = cfg.Delimiter
	}
	if f.null {
		delimStr = `\0`
	}
	var delimByte *byte
	if delimStr != "" {
		b, err := delimiterByte(delimStr)
		if err != nil {
			return fmt.Errorf("xargs-groupby: %w", err)
		}
		delimByte = &b
	}

	switches, err := cfg.Switches()
	if err != nil {
		return fmt.Errorf("xargs-groupby: %w", err)
	}
	switches = append(switches, passthroughSwitches(f)...)

	var preexecArgv []string
	if f.preexec != "" {
		for tok := range tokenizer.Shlexer(strings.NewReader(f.preexec)) {
			preexecArgv = append(preexecArgv, tok)
		}
	}

	tokens, closeInput, err := inputTokens(cmd.InOrStdin(), f, delimStr)
	if err != nil {
		return fmt.Errorf("xargs-groupby: %w", err)
	}
	if closeInput != nil {
		defer closeInput()
	}

	opts := harness.Options{
		GroupExpr:          groupExpr,
		Command:            mainCommand,
		Placeholder:        placeholder,
		Preexec:            preexecArgv,
		PreexecPlaceholder: f.preexecPlaceholder,
		Delimiter:          delimByte,
		MaxProcs:           maxProcs,
		XargsSwitches:      switches,
		Stdout:             os.Stdout,
		Stderr:             os.Stderr,
		Logger:             logger,
	}

	result, err := harness.Run(tokens, opts)
	if err != nil {
		return &exitError{code: harness.FatalExitCode(err)}
	}

	if code := result.ExitCode(); code != 0 {
		return &exitError{code: code}
	}
	return nil
}

func inputTokens(defaultIn io.Reader, f *flags, delimStr string) (func(func(string) bool), func(), error) {
	r := defaultIn
	var closer func()

	if f.argFile != "" {
		file, err := os.Open(f.argFile)
		if err != nil {
			return nil, nil, fmt.Errorf("opening --arg-file %s: %w", f.argFile, err)
		}
		r = file
		closer = func() { _ = file.Close() }
	}

	if delimStr == "" {
		return tokenizer.Shlexer(r), closer, nil
	}
	b, err := delimiterByte(delimStr)
	if err != nil {
		return nil, closer, err
	}
	return tokenizer.Splitter(r, b), closer, nil
}

// delimiterByte resolves a --delimiter argument into a single separator
// byte, recognizing the backslash escapes xargs itself recognizes.
func delimiterByte(s string) (byte, error) {
	switch s {
	case `\0`:
		return 0, nil
	case `\a`:
		return '\a', nil
	case `\b`:
		return '\b', nil
	case `\f`:
		return '\f', nil
	case `\n`:
		return '\n', nil
	case `\r`:
		return '\r', nil
	case `\t`:
		return '\t', nil
	case `\v`:
		return '\v', nil
	}
	if len(s) == 1 {
		return s[0], nil
	}
	n, err := strconv.Atoi(s)
	if err == nil && n >= 0 && n <= 255 {
		return byte(n), nil
	}
	return 0, fmt.Errorf("--delimiter: invalid separator %q", s)
}

// passthroughSwitches maps the xargs-compatible convenience flags onto the
// rendered switch list, alongside anything configured in config.yaml.
func passthroughSwitches(f *flags) []command.Switch {
	var out []command.Switch
	if f.exitOnOversize {
		out = append(out, command.Switch{Kind: command.SwitchBool, Key: "exit", Bool: true})
	}
	if f.verbose {
		out = append(out, command.Switch{Kind: command.SwitchBool, Key: "verbose", Bool: true})
	}
	if f.interactive {
		out = append(out, command.Switch{Kind: command.SwitchBool, Key: "interactive", Bool: true})
	}
	if f.maxArgs != "" {
		out = append(out, command.Switch{Kind: command.SwitchLong, Key: "max-args", Value: f.maxArgs})
	}
	if f.maxChars != "" {
		out = append(out, command.Switch{Kind: command.SwitchLong, Key: "max-chars", Value: f.maxChars})
	}
	return out
}
