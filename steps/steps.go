// Package steps binds the mock service checks to godog step phrases.
package steps

import (
	"context"
	"embed"
	"time"

	"github.com/cucumber/godog"
	"github.com/joomcode/errorx"

	"github.com/RedHatInsights/mockbdd"
)

// Features holds the feature files shipped with the suite.
//
//go:embed features/*.feature
var Features embed.FS

type scenarioKey struct{}

// scenario is the per-scenario state stored in the godog context.
type scenario struct {
	sc      *mockbdd.ScenarioContext
	lastErr error
}

type Suite struct {
	Provider           mockbdd.Provider
	Executable         string
	ExpectedReturnCode int
	// Timeout bounds every run; zero waits forever.
	Timeout time.Duration
}

// Run executes the feature files selected by opts. Without paths the
// embedded features are used.
func (s *Suite) Run(name string, opts *godog.Options) int {
	if opts == nil {
		opts = &godog.Options{Format: "pretty"}
	}
	if len(opts.Paths) == 0 && opts.FS == nil {
		opts.FS = Features
		opts.Paths = []string{"features"}
	}

	suite := godog.TestSuite{
		Name:                name,
		ScenarioInitializer: s.InitializeScenario,
		Options:             opts,
	}
	return suite.Run()
}

func (s *Suite) InitializeScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return context.WithValue(ctx, scenarioKey{}, &scenario{sc: mockbdd.NewScenarioContext()}), nil
	})

	ctx.Step(`^I start the mock service with the (\S+) command line flag$`, s.startWithFlag)
	ctx.Step(`^I try to start the mock service with the (\S+) command line flag$`, s.tryStartWithFlag)
	ctx.Step(`^I should see help messages displayed on standard output$`, checkStep(mockbdd.CheckHelp))
	ctx.Step(`^I should see version info displayed on standard output$`, checkStep(mockbdd.CheckVersion))
	ctx.Step(`^I should see info about authors displayed on standard output$`, checkStep(mockbdd.CheckAuthors))
	ctx.Step(`^the mock service should exit with return code (\d+)$`, exitedWith)
	ctx.Step(`^the mock service should fail with return code (\d+)$`, failedWith)
}

func scenarioFrom(ctx context.Context) (*scenario, error) {
	st, ok := ctx.Value(scenarioKey{}).(*scenario)
	if !ok {
		return nil, errorx.IllegalState.New("scenario state is missing from context")
	}
	return st, nil
}

func (s *Suite) run(ctx context.Context, st *scenario, flag string) error {
	ctx, cancel := mockbdd.ContextWithTimeout(ctx, s.Timeout)
	defer cancel()
	return mockbdd.StartWithFlag(ctx, s.Provider, st.sc, s.Executable, flag, s.ExpectedReturnCode)
}

func (s *Suite) startWithFlag(ctx context.Context, flag string) error {
	st, err := scenarioFrom(ctx)
	if err != nil {
		return err
	}
	return s.run(ctx, st, flag)
}

// tryStartWithFlag keeps the failure for a later step instead of failing.
func (s *Suite) tryStartWithFlag(ctx context.Context, flag string) error {
	st, err := scenarioFrom(ctx)
	if err != nil {
		return err
	}
	st.lastErr = s.run(ctx, st, flag)
	return nil
}

func checkStep(check func(*mockbdd.ScenarioContext) error) func(context.Context) error {
	return func(ctx context.Context) error {
		st, err := scenarioFrom(ctx)
		if err != nil {
			return err
		}
		return check(st.sc)
	}
}

func exitedWith(ctx context.Context, code int) error {
	st, err := scenarioFrom(ctx)
	if err != nil {
		return err
	}
	if st.lastErr != nil {
		return errorx.Decorate(st.lastErr, "the mock service run failed")
	}
	return mockbdd.CheckExitCode(st.sc, code)
}

func failedWith(ctx context.Context, code int) error {
	st, err := scenarioFrom(ctx)
	if err != nil {
		return err
	}
	if st.lastErr == nil {
		return mockbdd.ExitCodeMismatch.New("expected the mock service to fail, it exited with return code %d", st.sc.ExitCode)
	}
	actual, ok := mockbdd.ExitCodeOf(st.lastErr)
	if !ok {
		return errorx.Decorate(st.lastErr, "the mock service failed without an exit code")
	}
	if actual != code {
		return mockbdd.ExitCodeMismatch.New("Return code is %d, want %d", actual, code)
	}
	return nil
}
