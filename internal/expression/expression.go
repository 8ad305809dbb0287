// Package expression compiles the user-supplied grouping expression into
// the group.GroupFunc callable the core consumes.
//
// The expression is evaluated in a restricted environment exposing only a
// small, fixed set of names — mirroring the upstream tool's sandboxed
// NameChecker/UserExpression pair, which this package supplements with a
// concrete implementation using a real expression engine instead of a
// bespoke AST-walking evaluator.
package expression

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/jlrickert/xargs-groupby/internal/errs"
)

// env is the fixed whitelist of names visible to a grouping expression. Only
// Token (the current text token) and a few pure helpers are exposed —
// there is no way to reach the filesystem, network, or process environment
// from inside an expression.
type env struct {
	Token string

	Len      func(s string) int
	Upper    func(s string) string
	Lower    func(s string) string
	Basename func(s string) string
	Dirname  func(s string) string
	Ext      func(s string) string
	Split    func(s, sep string) []string
}

func newEnv(token string) env {
	return env{
		Token:    token,
		Len:      func(s string) int { return len(s) },
		Upper:    strings.ToUpper,
		Lower:    strings.ToLower,
		Basename: filepath.Base,
		Dirname:  filepath.Dir,
		Ext:      filepath.Ext,
		Split:    strings.Split,
	}
}

// Compiled holds a compiled grouping expression, ready to evaluate per
// token.
type Compiled struct {
	program *vm.Program
	src     string
}

// Compile compiles src once against the fixed whitelist environment. Any
// compile error (syntax error, or an identifier outside the whitelist) is
// wrapped as errs.UserExpressionCompileError and must be surfaced before any
// token is processed.
func Compile(src string) (*Compiled, error) {
	program, err := expr.Compile(src, expr.Env(newEnv("")))
	if err != nil {
		return nil, errs.NewUserExpressionCompileError(err)
	}
	return &Compiled{program: program, src: src}, nil
}

// Func returns a group.GroupFunc-shaped callable (string -> (any, error))
// backed by the compiled expression. A runtime failure for a specific token
// is wrapped as errs.UserExpressionRuntimeError.
func (c *Compiled) Func() func(token string) (any, error) {
	return func(token string) (any, error) {
		out, err := expr.Run(c.program, newEnv(token))
		if err != nil {
			return nil, errs.NewUserExpressionRuntimeError(token, err)
		}
		if out != nil && !reflect.TypeOf(out).Comparable() {
			return nil, errs.NewUserExpressionRuntimeError(token, fmt.Errorf("group key of type %T is not hashable", out))
		}
		return out, nil
	}
}

// Source returns the original expression text, for diagnostics.
func (c *Compiled) Source() string {
	return c.src
}
