package local

import (
	"context"

	"github.com/RedHatInsights/mockbdd"
	"github.com/RedHatInsights/mockbdd/internal/session"
)

type LocalOption func(*localProvider)

// WithEnv replaces the environment of started commands.
func WithEnv(env ...string) LocalOption {
	return func(p *localProvider) {
		p.opts.Env = env
	}
}

func WithDir(dir string) LocalOption {
	return func(p *localProvider) {
		p.opts.Dir = dir
	}
}

// WithSeparateStderr captures stderr on its own stream instead of merging
// it into stdout.
func WithSeparateStderr() LocalOption {
	return func(p *localProvider) {
		p.opts.SeparateStderr = true
	}
}

// WithTerminal runs commands under a pseudo-terminal.
func WithTerminal() LocalOption {
	return func(p *localProvider) {
		p.opts.Terminal = true
	}
}

type localProvider struct {
	opts session.Options
}

func Provider(opts ...LocalOption) *localProvider {
	p := &localProvider{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *localProvider) StartCommand(ctx context.Context, cmd []string) (mockbdd.Session, error) {
	s, err := session.Start(ctx, cmd, p.opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}
