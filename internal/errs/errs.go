// Package errs defines the user-attributable error kinds shared across the
// grouping, expression, and process-execution packages. The aggregate
// harness distinguishes these from unexpected internal errors when choosing
// an exit code.
package errs

import "fmt"

// UserArgumentsError indicates the supplied arguments cannot be grouped at
// all, e.g. a bucket whose tokens use every possible delimiter byte.
type UserArgumentsError struct {
	Msg string
}

func (e *UserArgumentsError) Error() string { return e.Msg }

// NewUserArgumentsError returns a UserArgumentsError with the given message.
func NewUserArgumentsError(msg string) *UserArgumentsError {
	return &UserArgumentsError{Msg: msg}
}

// UserCommandError wraps a failure to spawn a child process, naming the
// program that could not be started.
type UserCommandError struct {
	Argv0 string
	Err   error
}

func (e *UserCommandError) Error() string {
	return fmt.Sprintf("exec %s: %v", e.Argv0, e.Err)
}

func (e *UserCommandError) Unwrap() error { return e.Err }

// NewUserCommandError wraps err as a UserCommandError for the given program.
func NewUserCommandError(argv0 string, err error) *UserCommandError {
	return &UserCommandError{Argv0: argv0, Err: err}
}

// UserExpressionRuntimeError wraps a failure raised by the grouping callable
// while evaluating a specific token.
type UserExpressionRuntimeError struct {
	Token string
	Err   error
}

func (e *UserExpressionRuntimeError) Error() string {
	return fmt.Sprintf("group expression failed on token %q: %v", e.Token, e.Err)
}

func (e *UserExpressionRuntimeError) Unwrap() error { return e.Err }

// NewUserExpressionRuntimeError wraps err as a UserExpressionRuntimeError for
// the given token.
func NewUserExpressionRuntimeError(token string, err error) *UserExpressionRuntimeError {
	return &UserExpressionRuntimeError{Token: token, Err: err}
}

// UserExpressionCompileError wraps a failure to compile the user-supplied
// grouping expression, surfaced before any token is processed.
type UserExpressionCompileError struct {
	Err error
}

func (e *UserExpressionCompileError) Error() string {
	return fmt.Sprintf("group expression failed to compile: %v", e.Err)
}

func (e *UserExpressionCompileError) Unwrap() error { return e.Err }

// NewUserExpressionCompileError wraps err as a UserExpressionCompileError.
func NewUserExpressionCompileError(err error) *UserExpressionCompileError {
	return &UserExpressionCompileError{Err: err}
}
