package mockbdd

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joomcode/errorx"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// StartWithFlag runs executable with a single flag, stderr merged into
// stdout, waits for it to exit and records the result into sc.
// expectedReturnCode is accepted in addition to 0.
func StartWithFlag(ctx context.Context, p Provider, sc *ScenarioContext, executable, flag string, expectedReturnCode int) error {
	if p == nil {
		return errorx.IllegalArgument.New("provider is required")
	}
	if sc == nil {
		return errorx.IllegalArgument.New("scenario context is required")
	}

	runID := uuid.NewString()
	argv := []string{executable, flag}
	log.Debug().Str("run_id", runID).Strs("argv", argv).Msg("Starting executable")

	session, err := p.StartCommand(ctx, argv)
	if err != nil {
		return SpawnFailure.Wrap(err, "failed to start %s", executable)
	}
	if session == nil {
		return SpawnFailure.New("no process handle for %s", executable)
	}

	return processOutput(ctx, sc, session, expectedReturnCode, runID)
}

// ProcessExecutableOutput drains the session until end of stream, waits
// for the process and validates it: nothing on stderr, some stdout
// capture, exit code 0 or expectedReturnCode. On success sc holds the
// decoded output lines and raw buffers.
func ProcessExecutableOutput(ctx context.Context, sc *ScenarioContext, session Session, expectedReturnCode int) error {
	if sc == nil {
		return errorx.IllegalArgument.New("scenario context is required")
	}
	if session == nil {
		return SpawnFailure.New("no process handle")
	}
	return processOutput(ctx, sc, session, expectedReturnCode, uuid.NewString())
}

func processOutput(ctx context.Context, sc *ScenarioContext, session Session, expectedReturnCode int, runID string) error {
	var wg sync.WaitGroup
	var stdout, stderr []byte

	collect := func(ch <-chan []byte, dst *[]byte) {
		if ch == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			buf := []byte{}
			for chunk := range ch {
				buf = append(buf, chunk...)
			}
			*dst = buf
		}()
	}
	collect(session.Stdout(), &stdout)
	collect(session.Stderr(), &stderr)

	exitCode, waitErr := session.Wait()
	wg.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil && (waitErr != nil || exitCode < 0) {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return Timeout.Wrap(ctxErr, "executable did not finish in time")
		}
		return errorx.Decorate(ctxErr, "executable run cancelled")
	}
	if waitErr != nil {
		return SpawnFailure.Wrap(waitErr, "error waiting for process")
	}

	log.Debug().
		Str("run_id", runID).
		Int("exit_code", exitCode).
		Int("stdout_bytes", len(stdout)).
		Int("stderr_bytes", len(stderr)).
		Msg("Executable finished")

	if len(stderr) > 0 {
		return StreamInvariant.New("Error during check: unexpected output on stderr: %q", stderr)
	}
	if stdout == nil {
		return StreamInvariant.New("No output from executable")
	}

	if exitCode != 0 && exitCode != expectedReturnCode {
		return ExitCodeMismatch.New("Return code is %d", exitCode).
			WithProperty(PropertyExitCode, exitCode)
	}

	text, err := decodeUTF8(stdout)
	if err != nil {
		return err
	}

	sc.Output = strings.Split(text, "\n")
	sc.Stdout = stdout
	sc.Stderr = stderr
	sc.ExitCode = exitCode
	sc.RunID = runID

	return nil
}

// decodeUTF8 never substitutes invalid sequences.
func decodeUTF8(raw []byte) (string, error) {
	text, _, err := transform.Bytes(unicode.UTF8Validator, raw)
	if err != nil {
		return "", DecodeFailure.Wrap(err, "output is not valid UTF-8")
	}
	return string(text), nil
}

// ContextWithTimeout bounds a run. A zero or negative timeout keeps the
// wait unbounded.
func ContextWithTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, timeout)
}
