package governor

import (
	"sync"
	"sync/atomic"
)

// List is a non-concurrent collection instrumented with reader/writer
// counters, : when the scheduler's
// IsCollectionAccessRaceCheckingEnabled flag is set, an overlapping
// read/write or write/write access raises a [DataRaceError] instead of
// corrupting silently. The counters are kept and checked under every
// policy; List operations themselves emit no scheduling point.
//
// Unlike [Task]'s any-typed result (see sync_task.go), List is generic:
// it is a leaf data structure with no interface boundary to keep lean, so
// there is no reason to give up compile-time element typing here.
type List[T any] struct {
	sched *Scheduler
	name  string

	mu      sync.Mutex
	items   []T
	readers atomic.Int32
	writers atomic.Int32
}

// NewList constructs a List bound to sched, named for DataRaceError
// reporting.
func NewList[T any](sched *Scheduler, name string) *List[T] {
	return &List[T]{sched: sched, name: name}
}

func (l *List[T]) raceCheckingEnabled() bool {
	return l.sched.cfg.IsCollectionAccessRaceCheckingEnabled
}

func (l *List[T]) enterRead() func() {
	if !l.raceCheckingEnabled() {
		return func() {}
	}
	if l.writers.Load() > 0 {
		panic(newCanceledError(&DataRaceError{
			Collection: l.name,
			Readers:    int(l.readers.Load()) + 1,
			Writers:    int(l.writers.Load()),
		}))
	}
	l.readers.Add(1)
	return func() { l.readers.Add(-1) }
}

func (l *List[T]) enterWrite() func() {
	if !l.raceCheckingEnabled() {
		return func() {}
	}
	if l.readers.Load() > 0 || l.writers.Load() > 0 {
		panic(newCanceledError(&DataRaceError{
			Collection: l.name,
			Readers:    int(l.readers.Load()),
			Writers:    int(l.writers.Load()) + 1,
		}))
	}
	l.writers.Add(1)
	return func() { l.writers.Add(-1) }
}

// Append adds v to the end of the collection.
func (l *List[T]) Append(v T) {
	done := l.enterWrite()
	defer done()
	l.mu.Lock()
	l.items = append(l.items, v)
	l.mu.Unlock()
}

// Get returns the item at index i.
func (l *List[T]) Get(i int) T {
	done := l.enterRead()
	defer done()
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.items[i]
}

// Len returns the number of items currently in the collection.
func (l *List[T]) Len() int {
	done := l.enterRead()
	defer done()
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
