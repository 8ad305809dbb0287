//go:build unix

package procio

import (
	"time"

	"golang.org/x/sys/unix"
)

// MultiWriter wraps a system-level POLLOUT poller over PipeBuf, driving
// write progress across every currently-registered ProcessWriter.
//
// Invariant: a writer is registered iff it has pending bytes and has not
// errored.
type MultiWriter struct {
	writers map[int]*ProcessWriter
}

// NewMultiWriter returns an empty MultiWriter.
func NewMultiWriter() *MultiWriter {
	return &MultiWriter{writers: make(map[int]*ProcessWriter)}
}

// Add registers w for POLLOUT readiness, unless it is already done writing.
func (m *MultiWriter) Add(w *ProcessWriter) {
	if w.DoneWriting() {
		return
	}
	m.writers[w.Fileno()] = w
}

// WriteReady polls registered writers for POLLOUT readiness and drives one
// bounded write attempt for each ready descriptor. A negative timeout
// blocks indefinitely; zero returns immediately. Writers that finish
// writing during this call are unregistered.
func (m *MultiWriter) WriteReady(timeout time.Duration) error {
	if len(m.writers) == 0 {
		return nil
	}

	fds := make([]unix.PollFd, 0, len(m.writers))
	for fd := range m.writers {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: unix.POLLOUT})
	}

	ms := -1
	if timeout >= 0 {
		ms = int(timeout.Milliseconds())
	}

	_, err := unix.Poll(fds, ms)
	if err != nil {
		if err == unix.EINTR {
			return nil
		}
		return err
	}

	for _, pfd := range fds {
		if pfd.Revents == 0 {
			continue
		}
		w, ok := m.writers[int(pfd.Fd)]
		if !ok {
			continue
		}
		w.Write(PipeBuf)
		if w.DoneWriting() {
			delete(m.writers, int(pfd.Fd))
		}
	}
	return nil
}

// WritingCount returns the number of writers still registered.
func (m *MultiWriter) WritingCount() int {
	return len(m.writers)
}
