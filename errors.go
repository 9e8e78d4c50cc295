package mockbdd

import "github.com/joomcode/errorx"

var (
	ErrNamespace = errorx.NewNamespace("mockbdd")

	SpawnFailure     = ErrNamespace.NewType("spawn_failure")
	StreamInvariant  = ErrNamespace.NewType("stream_invariant")
	ExitCodeMismatch = ErrNamespace.NewType("exit_code_mismatch")
	DecodeFailure    = ErrNamespace.NewType("decode_failure")
	ContentMismatch  = ErrNamespace.NewType("content_mismatch")
	Timeout          = ErrNamespace.NewType("timeout", errorx.Timeout())

	// PropertyExitCode holds the exit code observed when a run fails.
	PropertyExitCode = errorx.RegisterProperty("exit_code")
)

// ExitCodeOf returns the exit code attached to err, if any.
func ExitCodeOf(err error) (int, bool) {
	v, ok := errorx.ExtractProperty(err, PropertyExitCode)
	if !ok {
		return 0, false
	}
	code, ok := v.(int)
	return code, ok
}
