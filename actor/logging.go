package actor

import (
	"sync"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// dropLimiter rate-limits the non-bug diagnostics below, per-actor, so a
// tight loop sending to a halted actor (or overflowing a bounded mailbox)
// cannot flood the log: at most 5 records per second, 60 per minute, per
// actor id.
var dropLimiter = catrate.NewLimiter(map[time.Duration]int{
	time.Second: 5,
	time.Minute: 60,
})

// Package-scoped structured logger, following the same swappable-global
// convention as the root package's logging.go: every actor runtime needs
// to log non-bug diagnostics (dropped sends to a halted actor) without
// threading a logger through every constructor.
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

func getLogger() *logiface.Logger[*stumpy.Event] {
	globalLogger.RLock()
	defer globalLogger.RUnlock()
	return globalLogger.logger
}

// logDroppedSend records a non-bug diagnostic: a send to an already-halted
// actor, dropped halt semantics.
func logDroppedSend(actorID string, evType EventType) {
	if _, ok := dropLimiter.Allow(actorID); !ok {
		return
	}
	getLogger().Info().
		Str(`actor`, actorID).
		Str(`event`, string(evType)).
		Log(`actor: dropped send to halted actor`)
}

// logMailboxOverflow records that a bounded mailbox rejected an enqueue.
func logMailboxOverflow(actorID string, evType EventType, cap int) {
	if _, ok := dropLimiter.Allow(actorID); !ok {
		return
	}
	getLogger().Err().
		Str(`actor`, actorID).
		Str(`event`, string(evType)).
		Int(`cap`, cap).
		Log(`actor: mailbox overflow`)
}
