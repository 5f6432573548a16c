// logging.go - Diagnostic logging seam for the synthesis core.
//
// The RT path (worker block loop, mixer combine, the audio callback) never
// logs. Only init, shutdown, hot-reload, and priority-elevation-failure
// paths call through here.

package sp3ctra

import (
	"log"
	"os"
)

// Logger is the minimal logging surface the engine depends on.
type Logger interface {
	Printf(format string, v ...any)
}

// defaultLogger wraps the standard library logger writing to stderr.
func defaultLogger() Logger {
	return log.New(os.Stderr, "sp3ctra: ", log.LstdFlags)
}

type noopLogger struct{}

func (noopLogger) Printf(string, ...any) {}
