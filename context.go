package mockbdd

// ScenarioContext holds the result of the latest executable run of one
// scenario. It is owned by the scenario runner and filled in by
// ProcessExecutableOutput; assertion steps only read it.
type ScenarioContext struct {
	Output []string // decoded stdout split on newlines
	Stdout []byte
	Stderr []byte // nil when stderr was merged into stdout

	ExitCode int
	RunID    string
}

func NewScenarioContext() *ScenarioContext {
	return &ScenarioContext{}
}
