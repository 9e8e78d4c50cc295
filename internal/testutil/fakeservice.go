// Package testutil turns a test binary into a stand-in for the
// insights-results-aggregator-mock executable.
//
// A package opts in from TestMain:
//
//	func TestMain(m *testing.M) {
//		testutil.RunFakeServiceIfRequested()
//		os.Exit(m.Run())
//	}
//
// and then starts FakeServiceExecutable(t) with FakeServiceEnviron().
package testutil

import (
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

const FakeServiceEnv = "MOCK_BDD_FAKE_SERVICE"

// ExitInvalidCommand is returned for commands the fake does not know.
const ExitInvalidCommand = 5

const helpMessage = `
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

func RunFakeServiceIfRequested() {
	if os.Getenv(FakeServiceEnv) != "1" {
		return
	}
	os.Exit(FakeServiceMain(os.Args[1:], os.Stdout, os.Stderr))
}

func FakeServiceEnviron() []string {
	return append(os.Environ(), FakeServiceEnv+"=1")
}

func FakeServiceExecutable(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("failed to locate test binary: %v", err)
	}
	return exe
}

// FakeServiceMain mirrors the command switch of the real service. A few
// extra commands produce the odd results tests need.
func FakeServiceMain(args []string, stdout, stderr io.Writer) int {
	command := "start-service"
	if len(args) >= 1 {
		command = strings.ToLower(strings.TrimSpace(args[0]))
	}

	switch command {
	case "start-service":
		fmt.Fprintln(stdout, "starting content service")
	case "help", "print-help":
		fmt.Fprint(stdout, helpMessage)
	case "config", "print-config":
		fmt.Fprintln(stdout, `{"server": {"address": ":8080"}}`)
	case "version", "print-version-info":
		printInfo(stdout, "Version:", "0.1")
		printInfo(stdout, "Build time:", "*not set*")
		printInfo(stdout, "Branch:", "*not set*")
		printInfo(stdout, "Commit:", "*not set*")
	case "authors", "print-authors":
		fmt.Fprint(stdout, "Authors:\n\nPavel Tisnovsky <ptisnovs@redhat.com>\n")
	case "early-exit":
		fmt.Fprintln(stdout, "exiting early")
		return 2
	case "warn":
		fmt.Fprintln(stdout, "service output")
		fmt.Fprintln(stderr, "warning: written to stderr")
	case "invalid-utf8":
		_, _ = stdout.Write([]byte{0xff, 0xfe, '\n'})
	case "silent":
	case "hang":
		time.Sleep(time.Hour)
	default:
		fmt.Fprintf(stderr, "\nCommand '%v' not found\n", command)
		return ExitInvalidCommand
	}
	return 0
}

func printInfo(w io.Writer, msg, val string) {
	fmt.Fprintf(w, "%s\t%s\n", msg, val)
}
