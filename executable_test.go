package mockbdd_test

import (
	"context"
	"testing"
	"time"

	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedHatInsights/mockbdd"
	"github.com/RedHatInsights/mockbdd/internal/testutil"
	"github.com/RedHatInsights/mockbdd/providers/local"
)

func fakeProvider(opts ...local.LocalOption) mockbdd.Provider {
	return local.Provider(append([]local.LocalOption{local.WithEnv(testutil.FakeServiceEnviron()...)}, opts...)...)
}

func startFake(t *testing.T, p mockbdd.Provider, flag string) (*mockbdd.ScenarioContext, error) {
	t.Helper()
	sc := mockbdd.NewScenarioContext()
	err := mockbdd.StartWithFlag(context.Background(), p, sc, testutil.FakeServiceExecutable(t), flag, mockbdd.DefaultReturnCode)
	return sc, err
}

func TestStartWithFlag_Help(t *testing.T) {
	sc, err := startFake(t, fakeProvider(), "help")
	require.NoError(t, err)

	assert.Contains(t, []int{0, mockbdd.DefaultReturnCode}, sc.ExitCode)
	assert.NotNil(t, sc.Output)
	assert.Nil(t, sc.Stderr)
	assert.NotEmpty(t, sc.RunID)
	assert.NoError(t, mockbdd.CheckHelp(sc))
}

func TestStartWithFlag_Version(t *testing.T) {
	sc, err := startFake(t, fakeProvider(), "version")
	require.NoError(t, err)
	assert.NoError(t, mockbdd.CheckVersion(sc))
}

func TestStartWithFlag_Authors(t *testing.T) {
	sc, err := startFake(t, fakeProvider(), "authors")
	require.NoError(t, err)
	assert.NoError(t, mockbdd.CheckAuthors(sc))
}

func TestStartWithFlag_LinesKeepTrailingEmptyLine(t *testing.T) {
	sc, err := startFake(t, fakeProvider(), "authors")
	require.NoError(t, err)
	assert.Equal(t, []string{"Authors:", "", "Pavel Tisnovsky <ptisnovs@redhat.com>", ""}, sc.Output)
}

func TestStartWithFlag_ExpectedNonZeroCode(t *testing.T) {
	sc, err := startFake(t, fakeProvider(), "early-exit")
	require.NoError(t, err)
	assert.Equal(t, 2, sc.ExitCode)
}

func TestStartWithFlag_UnexpectedCode(t *testing.T) {
	sc, err := startFake(t, fakeProvider(), "no-such-flag")
	require.Error(t, err)

	assert.True(t, errorx.IsOfType(err, mockbdd.ExitCodeMismatch))
	assert.Contains(t, err.Error(), "Return code is 5")
	code, ok := mockbdd.ExitCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, testutil.ExitInvalidCommand, code)

	// the context is left untouched on failure
	assert.Nil(t, sc.Output)
}

func TestStartWithFlag_StderrIsMerged(t *testing.T) {
	sc, err := startFake(t, fakeProvider(), "warn")
	require.NoError(t, err)

	assert.Nil(t, sc.Stderr)
	assert.Contains(t, sc.Output, "service output")
	assert.Contains(t, sc.Output, "warning: written to stderr")
}

func TestStartWithFlag_SeparateStderrBreaksInvariant(t *testing.T) {
	_, err := startFake(t, fakeProvider(local.WithSeparateStderr()), "warn")
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, mockbdd.StreamInvariant))
}

func TestStartWithFlag_SeparateStderrQuietCommand(t *testing.T) {
	sc, err := startFake(t, fakeProvider(local.WithSeparateStderr()), "version")
	require.NoError(t, err)
	assert.NotNil(t, sc.Stderr)
	assert.Empty(t, sc.Stderr)
}

func TestStartWithFlag_InvalidUTF8(t *testing.T) {
	_, err := startFake(t, fakeProvider(), "invalid-utf8")
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, mockbdd.DecodeFailure))
}

func TestStartWithFlag_EmptyOutput(t *testing.T) {
	sc, err := startFake(t, fakeProvider(), "silent")
	require.NoError(t, err)

	assert.NotNil(t, sc.Stdout)
	assert.Empty(t, sc.Stdout)
	assert.Equal(t, []string{""}, sc.Output)
}

func TestStartWithFlag_Timeout(t *testing.T) {
	ctx, cancel := mockbdd.ContextWithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := mockbdd.StartWithFlag(ctx, fakeProvider(), mockbdd.NewScenarioContext(),
		testutil.FakeServiceExecutable(t), "hang", mockbdd.DefaultReturnCode)
	require.Error(t, err)

	assert.True(t, errorx.IsOfType(err, mockbdd.Timeout))
	assert.True(t, errorx.IsTimeout(err))
	assert.Less(t, time.Since(start), 30*time.Second)
}

func TestStartWithFlag_MissingExecutable(t *testing.T) {
	err := mockbdd.StartWithFlag(context.Background(), fakeProvider(),
		mockbdd.NewScenarioContext(), "no-such-executable-5c0b1e", "help", 2)
	require.Error(t, err)
	assert.True(t, errorx.IsOfType(err, mockbdd.SpawnFailure))
}

func TestStartWithFlag_RequiresProviderAndContext(t *testing.T) {
	err := mockbdd.StartWithFlag(context.Background(), nil, mockbdd.NewScenarioContext(), "true", "help", 2)
	assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))

	err = mockbdd.StartWithFlag(context.Background(), fakeProvider(), nil, "true", "help", 2)
	assert.True(t, errorx.IsOfType(err, errorx.IllegalArgument))
}

func TestStartWithFlag_Terminal(t *testing.T) {
	sc, err := startFake(t, fakeProvider(local.WithTerminal()), "version")
	if errorx.IsOfType(err, mockbdd.SpawnFailure) {
		t.Skipf("pseudo-terminal not available: %v", err)
	}
	require.NoError(t, err)

	assert.Nil(t, sc.Stderr)
	assert.NoError(t, mockbdd.CheckVersion(sc))
}

type stubSession struct {
	stdout   chan []byte
	stderr   chan []byte
	exitCode int
}

func newStubSession(exitCode int, stdout, stderr []string) *stubSession {
	s := &stubSession{exitCode: exitCode}
	fill := func(chunks []string) chan []byte {
		if chunks == nil {
			return nil
		}
		ch := make(chan []byte, len(chunks))
		for _, c := range chunks {
			ch <- []byte(c)
		}
		close(ch)
		return ch
	}
	s.stdout = fill(stdout)
	s.stderr = fill(stderr)
	return s
}

func (s *stubSession) Stdout() <-chan []byte { return s.stdout }
func (s *stubSession) Stderr() <-chan []byte { return s.stderr }
func (s *stubSession) Wait() (int, error)    { return s.exitCode, nil }
func (s *stubSession) Interrupt() error      { return nil }

func TestProcessExecutableOutput(t *testing.T) {
	sc := mockbdd.NewScenarioContext()
	session := newStubSession(0, []string{"Version:", "\t0.1\nBuild time:\t*not set*\n"}, nil)

	require.NoError(t, mockbdd.ProcessExecutableOutput(context.Background(), sc, session, 2))
	assert.Equal(t, []string{"Version:\t0.1", "Build time:\t*not set*", ""}, sc.Output)
	assert.Equal(t, []byte("Version:\t0.1\nBuild time:\t*not set*\n"), sc.Stdout)
}

func TestProcessExecutableOutput_Invariants(t *testing.T) {
	tests := []struct {
		name     string
		session  *stubSession
		expected int
		errType  *errorx.Type
	}{
		{name: "no stdout capture", session: newStubSession(0, nil, nil), errType: mockbdd.StreamInvariant},
		{name: "stderr content", session: newStubSession(0, []string{"ok\n"}, []string{"boom\n"}), errType: mockbdd.StreamInvariant},
		{name: "exit code outside allowed set", session: newStubSession(1, []string{"ok\n"}, nil), expected: 2, errType: mockbdd.ExitCodeMismatch},
		{name: "undecodable output", session: newStubSession(0, []string{"\xc3\x28"}, nil), errType: mockbdd.DecodeFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mockbdd.ProcessExecutableOutput(context.Background(), mockbdd.NewScenarioContext(), tt.session, tt.expected)
			require.Error(t, err)
			assert.True(t, errorx.IsOfType(err, tt.errType), "got %v", err)
		})
	}
}

func TestProcessExecutableOutput_AllowsZeroAndExpected(t *testing.T) {
	for _, code := range []int{0, 2} {
		sc := mockbdd.NewScenarioContext()
		err := mockbdd.ProcessExecutableOutput(context.Background(), sc, newStubSession(code, []string{"x"}, nil), 2)
		require.NoError(t, err)
		assert.Equal(t, code, sc.ExitCode)
	}
}
