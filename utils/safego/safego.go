package safego

import (
	"os"
	"runtime/debug"

	"github.com/reservoir-data/tap-tally/utils/logger"
)

// Recovery converts a panic into a logged error so a crashing stream cannot
// take out the process without a trace. Use with defer.
func Recovery(fatal bool) {
	if r := recover(); r != nil {
		logger.Errorf("panic recovered: %v\n%s", r, string(debug.Stack()))
		if fatal {
			os.Exit(1)
		}
	}
}
