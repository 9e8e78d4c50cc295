package mockbdd

import "testing"

type Runner interface {
	// Command prepares a run of executable with a single flag.
	Command(executable, flag string) CommandBuilder
}

type Executable interface {
	Run(t *testing.T) *ScenarioContext
}

type runner struct {
	p Provider
}

func (r *runner) Command(executable, flag string) CommandBuilder {
	return &commandBuilder{
		provider:        r.p,
		executable:      executable,
		flag:            flag,
		allowedExitCode: DefaultReturnCode,
	}
}

func NewRunner(p Provider) Runner {
	return &runner{p}
}
