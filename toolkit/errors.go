package toolkit

import (
	"errors"

	jailpkg "github.com/jlrickert/xargs-groupby/toolkit/jail"
)

var (
	ErrNoEnvKey      = errors.New("env key missing")
	ErrEscapeAttempt = jailpkg.ErrEscapeAttempt
)
