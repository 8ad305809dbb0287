//go:build unix

// Package procio drives a single spawned child's stdin as a non-blocking
// state machine, and multiplexes write-readiness across many such children
// with a single system poller.
package procio

import (
	"os"
	"os/exec"

	"github.com/jlrickert/xargs-groupby/internal/errs"
	"golang.org/x/sys/unix"
)

// PipeBuf is the assumed atomic-write granularity for pipes on this host.
// POSIX guarantees at least 512 bytes; Linux and most BSDs use 4096. A
// single write attempt never exceeds this many bytes.
const PipeBuf = 4096

// TokenSource yields encoded argument tokens one at a time.
type TokenSource interface {
	// Next returns the next token, or ok=false once exhausted. Once false
	// is returned, subsequent calls must keep returning false.
	Next() ([]byte, bool)
}

// SliceSource adapts an in-memory slice of encoded tokens to TokenSource.
type SliceSource struct {
	tokens [][]byte
	pos    int
}

// NewSliceSource wraps tokens as a TokenSource.
func NewSliceSource(tokens [][]byte) *SliceSource {
	return &SliceSource{tokens: tokens}
}

func (s *SliceSource) Next() ([]byte, bool) {
	if s.pos >= len(s.tokens) {
		return nil, false
	}
	tok := s.tokens[s.pos]
	s.pos++
	return tok, true
}

// ProcessWriter is the state machine for one spawned child: buffered,
// non-blocking stdin writes with separator insertion after every token.
//
// Lifecycle: Created -> Writing -> DoneWriting -> Reaped. Transitions are
// monotonic: once DoneWriting, stdin stays closed; once a write error is
// recorded it is never cleared.
type ProcessWriter struct {
	cmd *exec.Cmd
	src TokenSource
	sep *byte

	writeFD   int
	buf       []byte
	exhausted bool

	writeErr error
	closed   bool

	exited     bool
	returncode int
}

// New spawns argv with stdin connected to a pipe this ProcessWriter owns,
// and immediately attempts to refill the internal buffer with one token.
// If src is already exhausted, stdin is closed immediately. Spawn failure
// is wrapped as errs.UserCommandError.
func New(argv []string, src TokenSource, sep *byte, stdout, stderr *os.File) (*ProcessWriter, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return nil, errs.NewUserCommandError(argv[0], err)
	}
	readFD, writeFD := fds[0], fds[1]

	if err := unix.SetNonblock(writeFD, true); err != nil {
		unix.Close(readFD)
		unix.Close(writeFD)
		return nil, errs.NewUserCommandError(argv[0], err)
	}

	childStdin := os.NewFile(uintptr(readFD), "child-stdin")

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = childStdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		childStdin.Close()
		unix.Close(writeFD)
		return nil, errs.NewUserCommandError(argv[0], err)
	}
	// The child has its own copy of the read end; the parent's is no
	// longer needed and must be closed so EOF is observable.
	childStdin.Close()

	w := &ProcessWriter{cmd: cmd, src: src, sep: sep, writeFD: writeFD}
	if !w.refillOne() {
		w.closeStdin()
	}
	return w, nil
}

// refillOne pulls a single token (plus optional separator) into the
// buffer. It returns false once the source is exhausted.
func (w *ProcessWriter) refillOne() bool {
	tok, ok := w.src.Next()
	if !ok {
		w.exhausted = true
		return false
	}
	w.buf = append(w.buf, tok...)
	if w.sep != nil {
		w.buf = append(w.buf, *w.sep)
	}
	return true
}

// Write repeatedly pulls tokens into the buffer until it holds at least
// nbytes or the source is exhausted, then attempts a single non-blocking
// write of min(nbytes, len(buffer)) bytes, retaining any remainder. I/O
// errors are captured in the writer rather than returned. After the
// attempt, stdin is closed iff an error was recorded, or the buffer is now
// empty and the source is exhausted.
func (w *ProcessWriter) Write(nbytes int) {
	if w.closed {
		return
	}

	for len(w.buf) < nbytes && !w.exhausted {
		w.refillOne()
	}

	n := nbytes
	if len(w.buf) < n {
		n = len(w.buf)
	}

	if n > 0 {
		written, err := unix.Write(w.writeFD, w.buf[:n])
		switch {
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK:
			// Pipe not currently writable; nothing consumed this round.
		case err != nil:
			w.writeErr = err
		default:
			w.buf = w.buf[written:]
		}
	}

	if w.writeErr != nil || (len(w.buf) == 0 && w.exhausted) {
		w.closeStdin()
	}
}

func (w *ProcessWriter) closeStdin() {
	if w.closed {
		return
	}
	w.closed = true
	unix.Close(w.writeFD)
}

// DoneWriting reports whether stdin has been closed.
func (w *ProcessWriter) DoneWriting() bool {
	return w.closed
}

// Poll samples the child's status without blocking, latching the
// returncode the first time the child is observed to have exited.
func (w *ProcessWriter) Poll() (returncode int, done bool) {
	if w.exited {
		return w.returncode, true
	}
	var ws unix.WaitStatus
	pid, err := unix.Wait4(w.cmd.Process.Pid, &ws, unix.WNOHANG, nil)
	if err != nil || pid == 0 {
		return 0, false
	}
	w.exited = true
	w.returncode = ws.ExitStatus()
	return w.returncode, true
}

// Success reports whether the writer completed cleanly: no write error was
// recorded and the most recently polled exit status is zero. Callers must
// only rely on the result once Poll has reported the child has exited.
func (w *ProcessWriter) Success() bool {
	if w.writeErr != nil {
		return false
	}
	code, done := w.Poll()
	return done && code == 0
}

// Fileno exposes the stdin write descriptor for external polling.
func (w *ProcessWriter) Fileno() int {
	return w.writeFD
}

// Argv0 returns the spawned program name, used for diagnostics.
func (w *ProcessWriter) Argv0() string {
	if len(w.cmd.Args) == 0 {
		return ""
	}
	return w.cmd.Args[0]
}

// WriteErr returns any error recorded during a write attempt.
func (w *ProcessWriter) WriteErr() error {
	return w.writeErr
}
