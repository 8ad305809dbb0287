//go:build unix

// Package scheduler is the top-level concurrent pipeline dispatcher:
// admission up to a configured parallelism cap, non-blocking write
// progress, and stage advancement across every admitted pipeline.
package scheduler

import (
	"log/slog"
	"time"

	"github.com/jlrickert/xargs-groupby/internal/pipeline"
	"github.com/jlrickert/xargs-groupby/internal/procio"
	"github.com/jlrickert/xargs-groupby/mylog"
)

// writeReadyPollInterval bounds how long writeReadyPhase blocks when some
// but not all running pipelines are between stages, so control returns to
// the advance phase reasonably promptly. The exact value is not
// load-justified upstream; it is preserved as a hardcoded constant rather
// than promoted to a tunable flag.
const writeReadyPollInterval = 100 * time.Millisecond

// PipelineIterator yields pipelines to admit, forward-only.
type PipelineIterator interface {
	Next() (*pipeline.Pipeline, bool)
}

// SlicePipelines adapts an in-memory slice of pipelines to PipelineIterator.
type SlicePipelines struct {
	pipelines []*pipeline.Pipeline
	pos       int
}

// NewSlicePipelines wraps pipelines as a PipelineIterator.
func NewSlicePipelines(pipelines []*pipeline.Pipeline) *SlicePipelines {
	return &SlicePipelines{pipelines: pipelines}
}

func (s *SlicePipelines) Next() (*pipeline.Pipeline, bool) {
	if s.pos >= len(s.pipelines) {
		return nil, false
	}
	p := s.pipelines[s.pos]
	s.pos++
	return p, true
}

type runningEntry struct {
	p *pipeline.Pipeline
	w *procio.ProcessWriter
}

// Runner is the top-level scheduler: admission, poll loop, and completion
// accounting. It owns a single MultiWriter and the set of currently
// running pipelines.
type Runner struct {
	maxProcs int
	logger   *slog.Logger

	mw      *procio.MultiWriter
	running []*runningEntry

	runCount      int
	failuresCount int
}

// New constructs a Runner with the given concurrency cap (coerced up to 1).
func New(maxProcs int, logger *slog.Logger) *Runner {
	if maxProcs < 1 {
		maxProcs = 1
	}
	return &Runner{
		maxProcs: maxProcs,
		logger:   mylog.OrDefault(logger).With(slog.String("package", "scheduler")),
		mw:       procio.NewMultiWriter(),
	}
}

// Run drains pipelines to completion:
//
//	for {
//	    startPipelines()    // admission
//	    if running is empty: break
//	    writeReadyPhase()   // I/O progress
//	    advancePipelines()  // reap finished stages, move to next
//	}
func (r *Runner) Run(pipelines PipelineIterator) {
	for {
		r.startPipelines(pipelines)
		if len(r.running) == 0 {
			break
		}
		r.writeReadyPhase()
		r.advancePipelines()
	}
}

// startPipelines admits pipelines while under the concurrency cap. Each
// admitted pipeline's first Advance is guaranteed to produce its first
// writer or finish immediately.
func (r *Runner) startPipelines(pipelines PipelineIterator) {
	for len(r.running) < r.maxProcs {
		p, ok := pipelines.Next()
		if !ok {
			return
		}
		entry := &runningEntry{p: p}
		if w, live := p.Advance(); live {
			entry.w = w
			r.mw.Add(w)
		}
		r.running = append(r.running, entry)
		r.runCount++
	}
}

// writeReadyPhase drives non-blocking write progress:
//
//   - no one writing: return immediately so advance can reap idle pipelines.
//   - some but not all writing: poll with a bounded timeout.
//   - all running pipelines writing: block until at least one finishes.
func (r *Runner) writeReadyPhase() {
	w := r.mw.WritingCount()
	n := len(r.running)

	switch {
	case w == 0:
		return
	case w < n:
		if err := r.mw.WriteReady(writeReadyPollInterval); err != nil {
			r.logger.Warn("write-ready poll failed", slog.Any("error", err))
		}
	default:
		for r.mw.WritingCount() == n {
			if err := r.mw.WriteReady(-1); err != nil {
				r.logger.Warn("write-ready poll failed", slog.Any("error", err))
				return
			}
		}
	}
}

// advancePipelines reaps pipelines whose current stage has exited and
// drives each to its next stage (or terminal outcome).
func (r *Runner) advancePipelines() {
	kept := r.running[:0]
	for _, e := range r.running {
		if e.w != nil {
			if _, done := e.w.Poll(); !done {
				kept = append(kept, e)
				continue
			}
		}

		w, live := e.p.Advance()
		if live {
			e.w = w
			r.mw.Add(w)
			kept = append(kept, e)
			continue
		}

		if !e.p.Success() {
			r.failuresCount++
			if err := e.p.Err(); err != nil {
				r.logger.Debug("pipeline failed", slog.Any("error", err))
			}
		}
	}
	r.running = kept
}

// RunCount returns the number of pipelines admitted so far.
func (r *Runner) RunCount() int {
	return r.runCount
}

// FailuresCount returns the number of admitted pipelines that did not
// succeed.
func (r *Runner) FailuresCount() int {
	return r.failuresCount
}
