// Package session starts a process and exposes its output as chunk
// channels. It backs both the local and the podman providers.
package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/creack/pty"
	"github.com/joomcode/errorx"
)

const DefaultWaitDelay = 5 * time.Second

type Options struct {
	Env []string
	Dir string

	// SeparateStderr keeps stderr on its own channel instead of merging it
	// into stdout.
	SeparateStderr bool

	// Terminal runs the process under a pseudo-terminal. Both streams end up
	// on the terminal, so SeparateStderr is ignored. CRLF is turned back
	// into LF.
	Terminal bool

	// WaitDelay bounds how long pipes are kept open after the process is
	// killed.
	WaitDelay time.Duration

	// MapExitCode lets wrappers such as `podman exec` turn their own exit
	// codes into errors.
	MapExitCode func(code int, err error) (int, error)
}

type Session struct {
	cmd *exec.Cmd

	stdoutC chan []byte
	stderrC chan []byte
	done    chan error

	mapExit  func(int, error) (int, error)
	waitOnce sync.Once
	exitCode int
	waitErr  error
}

func Start(ctx context.Context, argv []string, opts Options) (*Session, error) {
	if len(argv) == 0 {
		return nil, errorx.IllegalArgument.New("empty argv")
	}

	c := exec.CommandContext(ctx, argv[0], argv[1:]...)
	c.Env = opts.Env
	c.Dir = opts.Dir
	c.WaitDelay = opts.WaitDelay
	if c.WaitDelay <= 0 {
		c.WaitDelay = DefaultWaitDelay
	}

	s := &Session{
		cmd:     c,
		stdoutC: make(chan []byte),
		done:    make(chan error, 1),
		mapExit: opts.MapExitCode,
	}

	if opts.Terminal {
		return s.startTerminal()
	}

	stdout := &chunkWriter{ch: s.stdoutC}
	c.Stdout = stdout
	// the same writer for both streams makes exec share one pipe
	c.Stderr = stdout

	var stderr *chunkWriter
	if opts.SeparateStderr {
		s.stderrC = make(chan []byte)
		stderr = &chunkWriter{ch: s.stderrC}
		c.Stderr = stderr
	}

	if err := c.Start(); err != nil {
		return nil, err
	}

	go func() {
		err := c.Wait()
		stdout.Close()
		if stderr != nil {
			stderr.Close()
		}
		s.done <- err
	}()

	return s, nil
}

func (s *Session) startTerminal() (*Session, error) {
	ptmx, err := pty.Start(s.cmd)
	if err != nil {
		return nil, err
	}

	go func() {
		defer close(s.stdoutC)
		var buf bytes.Buffer
		// reading the terminal ends with EIO once the child is gone
		_, _ = io.Copy(&buf, ptmx)
		_ = ptmx.Close()
		s.stdoutC <- bytes.ReplaceAll(buf.Bytes(), []byte("\r\n"), []byte("\n"))
	}()

	go func() {
		s.done <- s.cmd.Wait()
	}()

	return s, nil
}

// Stdout must be drained for the process to make progress.
func (s *Session) Stdout() <-chan []byte {
	return s.stdoutC
}

// Stderr is nil unless SeparateStderr was requested.
func (s *Session) Stderr() <-chan []byte {
	return s.stderrC
}

func (s *Session) Wait() (int, error) {
	s.waitOnce.Do(func() {
		s.exitCode, s.waitErr = s.resolve(<-s.done)
	})
	return s.exitCode, s.waitErr
}

func (s *Session) resolve(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if s.mapExit != nil {
			return s.mapExit(code, err)
		}
		return code, nil
	}
	return -1, err
}

func (s *Session) Interrupt() error {
	if s.cmd.Process == nil {
		return os.ErrInvalid
	}
	return s.cmd.Process.Signal(os.Interrupt)
}

type chunkWriter struct {
	mu     sync.Mutex
	ch     chan []byte
	closed bool
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, os.ErrClosed
	}
	w.ch <- bytes.Clone(p)
	return len(p), nil
}

func (w *chunkWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.ch)
	}
}
