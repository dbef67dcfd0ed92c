package governor

// SchedulingPointType tags the kind of scheduling point being emitted.
// Strategies may use the tag to bias their choice (e.g. FairPCT forcing
// progress at Receive points while a monitor is hot).
type SchedulingPointType int

const (
	// PointDefault is the general-purpose tag, emitted by Mutex.TryLock,
	// Semaphore.TryAcquire and Cond.Signal.
	PointDefault SchedulingPointType = iota
	// PointCreate tags a scheduling point a caller emits after starting a
	// new operation; StartOperation itself emits no scheduling point.
	PointCreate
	// PointSend is emitted after an event is enqueued on an actor mailbox.
	PointSend
	// PointReceive is emitted when an actor parks waiting for an event it
	// can dequeue.
	PointReceive
	// PointYield is emitted by the controlled thread adapter's Yield.
	PointYield
	// PointContextSwitch is emitted around cooperative hand-off points that
	// don't otherwise fit a more specific tag.
	PointContextSwitch
	// PointAcquireLock is emitted by Mutex.Lock and Semaphore.Acquire, both
	// while parked waiting and after taking the lock or permit.
	PointAcquireLock
	// PointReleaseLock is emitted by Mutex.Unlock and Semaphore.Release,
	// after the lock or permit is given back.
	PointReleaseLock
	// PointWait is emitted while an operation waits for another to
	// complete (Task.Await, Thread.Join, WhenAny, actor Join) and by
	// DelayOperation.
	PointWait
	// PointSignalWait is emitted by Cond.Wait as it parks until a signal.
	PointSignalWait
	// PointComplete is emitted when an operation transitions to Completed.
	PointComplete
	// PointSuppress is accepted by ScheduleNextOperation as a no-op that
	// never suspends; it opens no suppression scope.
	PointSuppress
	// PointResume is accepted by ScheduleNextOperation as a no-op that
	// never suspends.
	PointResume
)

// String returns a human-readable scheduling-point tag, used in trace files
// and log records.
func (t SchedulingPointType) String() string {
	switch t {
	case PointDefault:
		return "Default"
	case PointCreate:
		return "Create"
	case PointSend:
		return "Send"
	case PointReceive:
		return "Receive"
	case PointYield:
		return "Yield"
	case PointContextSwitch:
		return "ContextSwitch"
	case PointAcquireLock:
		return "AcquireLock"
	case PointReleaseLock:
		return "ReleaseLock"
	case PointWait:
		return "Wait"
	case PointSignalWait:
		return "SignalWait"
	case PointComplete:
		return "Complete"
	case PointSuppress:
		return "Suppress"
	case PointResume:
		return "Resume"
	default:
		return "Unknown"
	}
}

// parseSchedulingPointType is the inverse of String, used by trace replay.
func parseSchedulingPointType(s string) (SchedulingPointType, bool) {
	for _, t := range []SchedulingPointType{
		PointDefault, PointCreate, PointSend, PointReceive, PointYield,
		PointContextSwitch, PointAcquireLock, PointReleaseLock, PointWait,
		PointSignalWait, PointComplete, PointSuppress, PointResume,
	} {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}
