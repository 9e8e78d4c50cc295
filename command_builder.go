package mockbdd

import (
	"context"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/gkampitakis/go-snaps/snaps"
)

type CommandBuilder interface {
	Executable

	WithTimeout(duration time.Duration) CommandBuilder

	// AllowExitCode sets the non-zero exit code accepted next to 0.
	AllowExitCode(code int) CommandBuilder
	// ExpectExitCode requires exactly this exit code.
	ExpectExitCode(code int) CommandBuilder

	ExpectHelp() CommandBuilder
	ExpectVersion() CommandBuilder
	ExpectAuthors() CommandBuilder
	ExpectOutputLine(line string) CommandBuilder

	// ExpectOutputMatchesSnapshot compares stdout with a go-snaps snapshot
	// stored next to the calling test file unless opts say otherwise.
	ExpectOutputMatchesSnapshot(opts ...func(*snaps.Config)) CommandBuilder
}

type check struct {
	name string
	fn   func(*ScenarioContext) error
}

type commandBuilder struct {
	provider   Provider
	executable string
	flag       string
	timeout    time.Duration

	allowedExitCode  int
	expectedExitCode *int
	checks           []check
	matchSnapshot    bool
	snapshotOpts     []func(*snaps.Config)
}

func (c *commandBuilder) WithTimeout(duration time.Duration) CommandBuilder {
	c.timeout = duration
	return c
}

func (c *commandBuilder) AllowExitCode(code int) CommandBuilder {
	c.allowedExitCode = code
	return c
}

func (c *commandBuilder) ExpectExitCode(code int) CommandBuilder {
	c.expectedExitCode = &code
	if code != 0 {
		c.allowedExitCode = code
	}
	return c
}

func (c *commandBuilder) ExpectHelp() CommandBuilder {
	c.checks = append(c.checks, check{"help", CheckHelp})
	return c
}

func (c *commandBuilder) ExpectVersion() CommandBuilder {
	c.checks = append(c.checks, check{"version", CheckVersion})
	return c
}

func (c *commandBuilder) ExpectAuthors() CommandBuilder {
	c.checks = append(c.checks, check{"authors", CheckAuthors})
	return c
}

func (c *commandBuilder) ExpectOutputLine(line string) CommandBuilder {
	c.checks = append(c.checks, check{"line " + line, func(sc *ScenarioContext) error {
		return CheckOutputLine(sc, line)
	}})
	return c
}

func (c *commandBuilder) ExpectOutputMatchesSnapshot(opts ...func(*snaps.Config)) CommandBuilder {
	var defaults []func(*snaps.Config)
	if _, file, _, ok := runtime.Caller(1); ok {
		defaults = append(defaults,
			snaps.Dir(filepath.Join(filepath.Dir(file), "__snapshots__")),
			snaps.Filename(strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))),
		)
	}
	c.matchSnapshot = true
	c.snapshotOpts = append(defaults, opts...)
	return c
}

func (c *commandBuilder) Run(t *testing.T) *ScenarioContext {
	t.Helper()

	ctx, cancel := ContextWithTimeout(context.Background(), c.timeout)
	defer cancel()

	sc := NewScenarioContext()
	if err := StartWithFlag(ctx, c.provider, sc, c.executable, c.flag, c.allowedExitCode); err != nil {
		t.Fatalf("failed to run %s %s: %v", c.executable, c.flag, err)
	}

	c.validateResults(sc, t)
	return sc
}

func (c *commandBuilder) validateResults(sc *ScenarioContext, t *testing.T) {
	t.Helper()

	if c.expectedExitCode != nil {
		if err := CheckExitCode(sc, *c.expectedExitCode); err != nil {
			t.Errorf("unexpected exit code: %v", err)
		}
	}

	for _, chk := range c.checks {
		if err := chk.fn(sc); err != nil {
			t.Errorf("%s check failed: %v", chk.name, err)
		}
	}

	if c.matchSnapshot {
		snaps.WithConfig(c.snapshotOpts...).MatchSnapshot(t, string(sc.Stdout))
	}
}
