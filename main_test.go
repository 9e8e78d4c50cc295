package mockbdd_test

import (
	"os"
	"testing"

	"github.com/RedHatInsights/mockbdd/internal/testutil"
)

func TestMain(m *testing.M) {
	testutil.RunFakeServiceIfRequested()
	os.Exit(m.Run())
}
