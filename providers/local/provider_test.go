package local_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RedHatInsights/mockbdd"
	"github.com/RedHatInsights/mockbdd/internal/testutil"
	"github.com/RedHatInsights/mockbdd/providers/local"
)

func TestMain(m *testing.M) {
	testutil.RunFakeServiceIfRequested()
	os.Exit(m.Run())
}

func run(t *testing.T, p mockbdd.Provider, flag string) *mockbdd.ScenarioContext {
	t.Helper()
	sc := mockbdd.NewScenarioContext()
	require.NoError(t, mockbdd.StartWithFlag(context.Background(), p, sc, testutil.FakeServiceExecutable(t), flag, 2))
	return sc
}

func TestProvider_MergesStderr(t *testing.T) {
	p := local.Provider(local.WithEnv(testutil.FakeServiceEnviron()...))

	sc := run(t, p, "warn")
	assert.Nil(t, sc.Stderr)
	assert.Equal(t, "service output\nwarning: written to stderr\n", string(sc.Stdout))
}

func TestProvider_WithDir(t *testing.T) {
	dir := t.TempDir()
	p := local.Provider(local.WithEnv(testutil.FakeServiceEnviron()...), local.WithDir(dir))

	sc := run(t, p, "version")
	assert.NoError(t, mockbdd.CheckVersion(sc))
}

func TestProvider_RunsBinaryFromPath(t *testing.T) {
	sc := mockbdd.NewScenarioContext()
	p := local.Provider(local.WithEnv("PATH=" + os.Getenv("PATH")))

	err := mockbdd.StartWithFlag(context.Background(), p, sc, "sh", "-c", 2)
	if err != nil {
		t.Skipf("sh not usable here: %v", err)
	}
	// `sh -c` without a command string fails with exit code 2
	assert.Equal(t, 2, sc.ExitCode)
}

func TestProvider_Interrupt(t *testing.T) {
	p := local.Provider(local.WithEnv(testutil.FakeServiceEnviron()...))

	s, err := p.StartCommand(context.Background(), []string{testutil.FakeServiceExecutable(t), "hang"})
	require.NoError(t, err)
	require.NoError(t, s.Interrupt())

	for range s.Stdout() {
	}
	code, err := s.Wait()
	require.NoError(t, err)
	assert.NotZero(t, code)
}
