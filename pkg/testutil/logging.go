package testutil

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Importing this package silences logrus unless the test binary runs with
// -test.v. Levels stay at Trace so log calls are still exercised.
func init() {
	logrus.SetLevel(logrus.TraceLevel)
	if !isVerbose(os.Args) {
		logrus.SetOutput(io.Discard)
	}
}

func isVerbose(args []string) bool {
	for _, arg := range args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=") && arg != "-test.v=false" {
			return true
		}
	}
	return false
}
