// logging.go - structured logging for the governor package.
//
// Package-level configuration: a global, swappable logger so every part of
// the scheduler, actor runtime, and monitor subsystem can log without an
// instance threaded through every call. Backed by
// github.com/joeycumines/logiface, with github.com/joeycumines/stumpy's
// zero-dependency JSON encoder as its concrete event sink (see DESIGN.md's
// Open Question resolution on this point).
package governor

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

var globalLogger struct {
	sync.RWMutex
	logger *logiface.Logger[*stumpy.Event]
}

func init() {
	globalLogger.logger = stumpy.L.New(stumpy.L.WithStumpy())
}

// SetLogger installs the package-wide structured logger.
func SetLogger(logger *logiface.Logger[*stumpy.Event]) {
	globalLogger.Lock()
	defer globalLogger.Unlock()
	globalLogger.logger = logger
}

// getLogger safely retrieves the package-wide structured logger.
func getLogger() *logiface.Logger[*stumpy.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

// logBug emits a structured error-level record for a bug found during
// exploration, including the iteration number and scheduling step count,
// reporting requirements.
func logBug(iteration, steps int, strategyDesc string, err error) {
	getLogger().Err().
		Int(`iteration`, iteration).
		Int(`steps`, steps).
		Str(`strategy`, strategyDesc).
		Err(err).
		Log(`governor: bug found`)
}

// logIterationOK emits a debug-level record for a clean iteration.
func logIterationOK(iteration, steps int, strategyDesc string) {
	getLogger().Debug().
		Int(`iteration`, iteration).
		Int(`steps`, steps).
		Str(`strategy`, strategyDesc).
		Log(`governor: iteration completed without finding a bug`)
}
