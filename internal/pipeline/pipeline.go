//go:build unix

// Package pipeline sequentially drives the stages of a single group's
// command pipeline: an optional pre-command followed by the fan-out
// command, each a separately spawned child process.
package pipeline

import (
	"os"

	"github.com/jlrickert/xargs-groupby/internal/procio"
)

// Stage describes one child-process step: its argv, the token source to
// feed its stdin, and the separator byte inserted after each token.
type Stage struct {
	Argv []string
	Src  procio.TokenSource
	Sep  *byte
}

// StageIterator yields a pipeline's stages in order, forward-only.
type StageIterator interface {
	Next() (Stage, bool)
}

// SliceStages adapts an in-memory slice of Stage to StageIterator.
type SliceStages struct {
	stages []Stage
	pos    int
}

// NewSliceStages wraps stages as a StageIterator.
func NewSliceStages(stages []Stage) *SliceStages {
	return &SliceStages{stages: stages}
}

func (s *SliceStages) Next() (Stage, bool) {
	if s.pos >= len(s.stages) {
		return Stage{}, false
	}
	st := s.stages[s.pos]
	s.pos++
	return st, true
}

type outcome int

const (
	outcomeUnknown outcome = iota
	outcomeSuccess
	outcomeFailure
)

// Pipeline sequentially drives the stages of a single group, spawning a
// stage only after its predecessor has reported success.
//
// Invariant: at most one stage writer exists at any time.
type Pipeline struct {
	stages StageIterator
	stdout *os.File
	stderr *os.File

	lastWriter *procio.ProcessWriter
	result     outcome
	spawnErr   error
}

// New constructs a Pipeline over the given stage sequence. stdout/stderr are
// connected to every spawned stage's corresponding streams.
func New(stages StageIterator, stdout, stderr *os.File) *Pipeline {
	return &Pipeline{stages: stages, stdout: stdout, stderr: stderr}
}

// Advance is the pipeline's single driver operation.
//
//  1. If the pipeline has already finished, live is false.
//  2. If there was a previous writer, its Success() is consulted; false
//     marks the pipeline failed and subsequent stages are not started.
//  3. Otherwise the next stage is pulled. Exhaustion marks the pipeline
//     succeeded. Otherwise a new ProcessWriter is spawned, stored, and
//     returned with live=true.
//
// A spawn failure also marks the pipeline failed (Err reports the cause)
// rather than propagating — callers must not halt the scheduler on it.
func (p *Pipeline) Advance() (w *procio.ProcessWriter, live bool) {
	if p.result != outcomeUnknown {
		return nil, false
	}

	if p.lastWriter != nil {
		if !p.lastWriter.Success() {
			p.result = outcomeFailure
			return nil, false
		}
	}

	stage, ok := p.stages.Next()
	if !ok {
		p.result = outcomeSuccess
		return nil, false
	}

	nw, err := procio.New(stage.Argv, stage.Src, stage.Sep, p.stdout, p.stderr)
	if err != nil {
		p.result = outcomeFailure
		p.spawnErr = err
		return nil, false
	}

	p.lastWriter = nw
	return nw, true
}

// Finished reports whether the pipeline has reached a terminal outcome.
func (p *Pipeline) Finished() bool {
	return p.result != outcomeUnknown
}

// Success reports the pipeline's terminal outcome. It is only meaningful
// once Finished returns true.
func (p *Pipeline) Success() bool {
	return p.result == outcomeSuccess
}

// Err returns the spawn error that caused a failure, if any.
func (p *Pipeline) Err() error {
	return p.spawnErr
}
