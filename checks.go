package mockbdd

import (
	"slices"
	"strings"

	"github.com/joomcode/errorx"
)

const (
	ExecutableName = "insights-results-aggregator-mock"

	ExpectedVersionLine = "Version:\t0.1"
	AuthorsHeader       = "Authors:"
	ExpectedAuthor      = "Pavel Tisnovsky <ptisnovs@redhat.com>"

	// DefaultReturnCode is the non-zero exit code tolerated for flag runs.
	DefaultReturnCode = 2
)

// HelpMessage is the help block printed by the mock service, tabs
// already expanded to four spaces.
const HelpMessage = `
Service to provide content for OCP rules

Usage:

    insights-results-aggregator-mock [command]

The commands are:

    <EMPTY>                      starts content service
    start-service                starts content service
    help     print-help          prints help
    config   print-config        prints current configuration set by files & env variables
    version  print-version-info  prints version info
    authors  print-authors       prints authors

`

// NormalizeHelp decodes captured stdout, expands tabs to four spaces and
// trims surrounding whitespace.
func NormalizeHelp(stdout []byte) (string, error) {
	text, err := decodeUTF8(stdout)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ReplaceAll(text, "\t", "    ")), nil
}

func CheckHelp(sc *ScenarioContext) error {
	if sc == nil || sc.Stdout == nil {
		return StreamInvariant.New("stdout object should exist")
	}

	actual, err := NormalizeHelp(sc.Stdout)
	if err != nil {
		return err
	}

	expected := strings.TrimSpace(HelpMessage)
	if actual != expected {
		return ContentMismatch.New("%s != %s", actual, expected)
	}
	return nil
}

func CheckVersion(sc *ScenarioContext) error {
	return CheckOutputLine(sc, ExpectedVersionLine)
}

func CheckAuthors(sc *ScenarioContext) error {
	if err := CheckOutputLine(sc, AuthorsHeader); err != nil {
		return errorx.Decorate(err, "Authors: header is expected")
	}
	return CheckOutputLine(sc, ExpectedAuthor)
}

// CheckOutputLine requires line to be one of the captured output lines,
// compared exactly.
func CheckOutputLine(sc *ScenarioContext, line string) error {
	if sc == nil || sc.Output == nil {
		return StreamInvariant.New("wrong type of output: no output lines captured")
	}
	if !slices.Contains(sc.Output, line) {
		return ContentMismatch.New("line %q not found, caught output: %q", line, sc.Output)
	}
	return nil
}

func CheckExitCode(sc *ScenarioContext, code int) error {
	if sc == nil {
		return errorx.IllegalArgument.New("scenario context is required")
	}
	if sc.ExitCode != code {
		return ExitCodeMismatch.New("Return code is %d, want %d", sc.ExitCode, code).
			WithProperty(PropertyExitCode, sc.ExitCode)
	}
	return nil
}
