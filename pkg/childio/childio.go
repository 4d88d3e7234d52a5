// Package childio pumps a harness child process's stdin/stdout/stderr to
// completion. Two policies are offered: a threaded pump that spawns one
// goroutine per stdin writer and stderr reader while the caller's goroutine
// drains stdout, and a single-thread non-blocking pump that rotates among
// all three descriptors without ever spawning a goroutine, trading extra
// wake-ups for a single-threaded call stack.
package childio

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	pkgerrors "github.com/arch-tools/pkgbuild/pkg/errors"
	"github.com/arch-tools/pkgbuild/pkg/logger"
	"golang.org/x/sys/unix"
)

// Policy selects how Pipes.Work drives the child's descriptors.
type Policy int

const (
	// Threaded spawns a goroutine for the stdin writer and one for the
	// stderr reader; the caller's own goroutine drains stdout. This is the
	// default: it costs two goroutines per invocation but never busy-polls.
	Threaded Policy = iota

	// SingleThreadNonBlocking sets all three descriptors O_NONBLOCK and
	// rotates among them on the caller's own goroutine. Pages are read and
	// written PIPE_BUF bytes at a time to avoid ever jamming the child.
	SingleThreadNonBlocking
)

// pipeBufSize is the POSIX-guaranteed atomic pipe write size; we use it as
// our per-iteration read/write chunk in the non-blocking pump.
const pipeBufSize = 4096

// Pipes holds a harness child's three standard descriptors, already
// connected via exec.Cmd's *Pipe methods but not yet started.
type Pipes struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// NewPipes wires cmd's stdin/stdout/stderr to OS pipes and returns the write
// and read ends. cmd must not have been started yet.
func NewPipes(cmd *exec.Cmd) (*Pipes, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrTypeIO, "failed to open child stdin pipe")
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrTypeIO, "failed to open child stdout pipe")
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.ErrTypeIO, "failed to open child stderr pipe")
	}

	stdinFile, ok := stdin.(*os.File)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ErrTypeIO, "child stdin pipe is not backed by an *os.File")
	}

	stdoutFile, ok := stdout.(*os.File)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ErrTypeIO, "child stdout pipe is not backed by an *os.File")
	}

	stderrFile, ok := stderr.(*os.File)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.ErrTypeIO, "child stderr pipe is not backed by an *os.File")
	}

	return &Pipes{Stdin: stdinFile, Stdout: stdoutFile, Stderr: stderrFile}, nil
}

// Work writes input to the child's stdin and collects everything the child
// writes to stdout/stderr until both are closed (EOF). The child process
// itself must already be started by the caller; Work only pumps descriptors.
func (p *Pipes) Work(policy Policy, input []byte) (stdout, stderr []byte, err error) {
	if policy == SingleThreadNonBlocking {
		return p.workSingleThread(input)
	}

	return p.workThreaded(input)
}

// workThreaded mirrors a classic three-way pump: a goroutine writes stdin to
// completion and closes it, a goroutine reads stderr to EOF, and the calling
// goroutine reads stdout to EOF. All three are joined before any error is
// reported, so a stdin write failure never hides a stderr read failure
// (and vice versa) — the last error observed, in stdin/stderr priority over
// stdout, is the one returned, matching the aggregation order of an ordinary
// write-then-drain pump.
func (p *Pipes) workThreaded(input []byte) ([]byte, []byte, error) {
	var wg sync.WaitGroup

	var stdinErr, stderrErr error

	var stderrBuf []byte

	wg.Add(2)

	go func() {
		defer wg.Done()

		_, writeErr := p.Stdin.Write(input)
		if closeErr := p.Stdin.Close(); writeErr == nil {
			writeErr = closeErr
		}

		if writeErr != nil {
			logger.Error("child stdin writer encountered an I/O error", "error", writeErr)
			stdinErr = writeErr
		}
	}()

	go func() {
		defer wg.Done()

		buf, readErr := io.ReadAll(p.Stderr)
		stderrBuf = buf

		if readErr != nil {
			logger.Error("child stderr reader encountered an I/O error", "error", readErr)
			stderrErr = readErr
		}
	}()

	stdoutBuf, stdoutErr := io.ReadAll(p.Stdout)
	if stdoutErr != nil {
		logger.Error("child stdout reader encountered an I/O error", "error", stdoutErr)
	}

	wg.Wait()

	var lastErr error
	if stdoutErr != nil {
		lastErr = stdoutErr
	}

	if stdinErr != nil {
		lastErr = stdinErr
	}

	if stderrErr != nil {
		lastErr = stderrErr
	}

	if lastErr != nil {
		return stdoutBuf, stderrBuf, pkgerrors.Wrap(lastErr, pkgerrors.ErrTypeIO, "child I/O pump failed")
	}

	return stdoutBuf, stderrBuf, nil
}

// workSingleThread rotates among stdin, stdout and stderr on the calling
// goroutine, never spawning one of its own. Every descriptor is set
// O_NONBLOCK first; a write or read that would block surfaces as EAGAIN,
// which is treated as purely informational and simply retried on the next
// rotation rather than as a failure.
func (p *Pipes) workSingleThread(input []byte) ([]byte, []byte, error) {
	if err := setNonblock(p.Stdin); err != nil {
		return nil, nil, err
	}

	if err := setNonblock(p.Stdout); err != nil {
		return nil, nil, err
	}

	if err := setNonblock(p.Stderr); err != nil {
		return nil, nil, err
	}

	var stdout, stderr []byte

	buffer := make([]byte, pipeBufSize)

	written := 0
	total := len(input)
	stdinDone := total == 0
	stdoutDone := false
	stderrDone := false

	if stdinDone {
		if err := p.Stdin.Close(); err != nil {
			return nil, nil, pkgerrors.Wrap(err, pkgerrors.ErrTypeIO, "failed to close child stdin")
		}
	}

	for !stdinDone || !stdoutDone || !stderrDone {
		if !stdinDone {
			end := written + pipeBufSize
			if end > total {
				end = total
			}

			n, writeErr := p.Stdin.Write(input[written:end])
			written += n

			switch {
			case writeErr == nil && written >= total:
				if err := p.Stdin.Close(); err != nil {
					return stdout, stderr, pkgerrors.Wrap(err, pkgerrors.ErrTypeIO, "failed to close child stdin")
				}

				stdinDone = true
			case isEAGAIN(writeErr):
				logger.Debug("child stdin write blocked, retrying")
			case writeErr != nil:
				return stdout, stderr, pkgerrors.Wrap(writeErr, pkgerrors.ErrTypeIO, "failed to write to child stdin")
			}
		}

		if !stdoutDone {
			n, readErr := p.Stdout.Read(buffer)

			switch {
			case n > 0:
				stdout = append(stdout, buffer[:n]...)
			case readErr == io.EOF || (readErr == nil && n == 0):
				stdoutDone = true
			case isEAGAIN(readErr):
				logger.Debug("child stdout read blocked, retrying")
			case readErr != nil:
				return stdout, stderr, pkgerrors.Wrap(readErr, pkgerrors.ErrTypeIO, "failed to read from child stdout")
			}
		}

		if !stderrDone {
			n, readErr := p.Stderr.Read(buffer)

			switch {
			case n > 0:
				stderr = append(stderr, buffer[:n]...)
			case readErr == io.EOF || (readErr == nil && n == 0):
				stderrDone = true
			case isEAGAIN(readErr):
				logger.Debug("child stderr read blocked, retrying")
			case readErr != nil:
				return stdout, stderr, pkgerrors.Wrap(readErr, pkgerrors.ErrTypeIO, "failed to read from child stderr")
			}
		}
	}

	return stdout, stderr, nil
}

func setNonblock(f *os.File) error {
	if err := unix.SetNonblock(int(f.Fd()), true); err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrTypeIO, "failed to set child descriptor non-blocking")
	}

	return nil
}

func isEAGAIN(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, unix.EAGAIN)
}
