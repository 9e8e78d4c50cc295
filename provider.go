package mockbdd

import "context"

type Provider interface {
	StartCommand(ctx context.Context, cmd []string) (Session, error)
}

type PreparableProvider interface {
	Provider
	Prepare() error
	Cleanup() error
}

// Session is a started executable. Stdout carries the combined output
// stream; Stderr is nil when stderr is merged into stdout.
type Session interface {
	Stdout() <-chan []byte
	Stderr() <-chan []byte

	Wait() (exitCode int, err error)
	Interrupt() error
}
