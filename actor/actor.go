package actor

import (
	"sync"

	"github.com/pipeline-foundation/sct"
)

// Actor is one running instance of a [Machine]: a mailbox, a state stack
// (the top is the current active state; Push leaves the rest underneath),
// and the [governor.Operation] the scheduler interleaves it as.
type Actor struct {
	ID      string
	sched   *governor.Scheduler
	machine *Machine
	op      *governor.Operation

	mu         sync.Mutex
	stack      []*StateDef
	mailbox    []Event
	mailboxCap int
	raised     *Event
	halted     bool
}

// NewActor constructs an actor bound to machine, not yet scheduled. Call
// [Actor.Start] to register its operation and begin its dispatch loop.
// mailboxCap of 0 means unbounded; a positive cap makes a Send past it a
// bug.
func NewActor(sched *governor.Scheduler, machine *Machine, id string, mailboxCap int) *Actor {
	return &Actor{ID: id, sched: sched, machine: machine, mailboxCap: mailboxCap}
}

// Start registers the actor as a controlled operation and begins its
// dispatch loop on a new goroutine: one operation per live actor.
func (a *Actor) Start() {
	a.op = a.sched.StartOperation(a.ID, a.run)
}

// Done returns a channel closed once the actor halts. Only safe to read
// outside scheduler control (e.g. after the iteration's body returns); a
// controlled operation wanting to block on it during the iteration must
// use [Actor.Join] instead, so the wait itself is a scheduling point.
func (a *Actor) Done() <-chan struct{} { return a.op.Done() }

// Join blocks the calling operation until a halts, per the same
// controlled-wait pattern as [governor.Thread.Join].
func (a *Actor) Join() {
	caller := a.sched.CurrentOperation()
	if caller == nil {
		a.sched.Assert(false, "actor %s: Join called from an unregistered goroutine", a.ID)
		return
	}
	for a.op.Status() != governor.StatusCompleted {
		a.sched.Suspend(caller, governor.StatusBlockedOnWait, func() bool {
			return a.op.Status() == governor.StatusCompleted
		}, governor.PointWait)
	}
}

// RaiseEvent populates the actor's raised-event slot: an entry or do
// action may raise exactly one event, which is dispatched next, bypassing
// the mailbox. Only meaningful when called from within the actor's own
// dispatch goroutine (an entry/exit/do action).
func (a *Actor) RaiseEvent(evType EventType, payload any) {
	a.mu.Lock()
	a.raised = &Event{Type: evType, Payload: payload}
	a.mu.Unlock()
}

// Send enqueues an event for delivery: enqueue never blocks. A send to an
// already-halted actor is dropped and logged, not propagated as an error
// (a non-bug diagnostic). A send past a configured mailboxCap is an
// assertion failure, attributed to whichever operation called Send.
func (a *Actor) Send(evType EventType, payload any, group governor.EventGroup) {
	a.mu.Lock()
	if a.halted {
		a.mu.Unlock()
		logDroppedSend(a.ID, evType)
		return
	}
	if a.mailboxCap > 0 && len(a.mailbox) >= a.mailboxCap {
		a.mu.Unlock()
		logMailboxOverflow(a.ID, evType, a.mailboxCap)
		a.sched.Assert(false, "actor %s: mailbox overflow (cap=%d)", a.ID, a.mailboxCap)
		return
	}
	a.mailbox = append(a.mailbox, Event{Type: evType, Payload: payload, Group: group})
	a.mu.Unlock()
	a.sched.ScheduleNextOperation(governor.PointSend)
}

func (a *Actor) current() *StateDef { return a.stack[len(a.stack)-1] }

func (a *Actor) isHalted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.halted
}

// scanLocked returns the mailbox index of the first dequeuable event
// (explicit handler, ignore, or wildcard match against the current
// state's inheritance chain), or -1 if none: every queued event is either
// deferred or has no applicable handler yet.
// Non-dequeuable events of either kind are left in place; they become
// eligible once a transition changes the current state (a deliberate
// generalization of "deferred" to also cover events with no applicable
// handler yet, recorded in DESIGN.md).
func (a *Actor) scanLocked() int {
	cur := a.current()
	for i := range a.mailbox {
		if _, _, ok := cur.resolve(a.mailbox[i].Type); ok {
			return i
		}
	}
	return -1
}

func (a *Actor) hasDequeuableLocked() bool {
	return a.scanLocked() >= 0
}

// nextEvent returns the next event to dispatch. If ok is false the
// operation has suspended (BlockedOnReceive) and been resumed; the caller
// should loop and try again.
func (a *Actor) nextEvent() (Event, bool) {
	a.mu.Lock()
	if a.raised != nil {
		ev := *a.raised
		a.raised = nil
		a.mu.Unlock()
		return ev, true
	}
	if i := a.scanLocked(); i >= 0 {
		ev := a.mailbox[i]
		a.mailbox = append(a.mailbox[:i:i], a.mailbox[i+1:]...)
		a.mu.Unlock()
		return ev, true
	}
	a.mu.Unlock()

	a.sched.Suspend(a.op, governor.StatusBlockedOnReceive, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.raised != nil || a.hasDequeuableLocked()
	}, governor.PointReceive)
	return Event{}, false
}

func (a *Actor) enterInitial() {
	start := a.machine.Start()
	if start == nil {
		a.sched.Assert(false, "actor %s: machine %s declares no Start state", a.ID, a.machine.Name)
		return
	}
	a.stack = []*StateDef{start}
	for _, s := range entryChain(start, nil) {
		if s.OnEntry != nil {
			s.OnEntry(a)
		}
	}
}

func (a *Actor) gotoState(target StateName) {
	dst := a.machine.State(target)
	if dst == nil {
		a.sched.Assert(false, "actor %s: goto unknown state %s", a.ID, target)
		return
	}
	cur := a.current()
	lca := commonAncestor(cur, dst)
	for _, s := range exitChain(cur, lca) {
		if s.OnExit != nil {
			s.OnExit(a)
		}
	}
	a.stack[len(a.stack)-1] = dst
	for _, s := range entryChain(dst, lca) {
		if s.OnEntry != nil {
			s.OnEntry(a)
		}
	}
}

func (a *Actor) pushState(target StateName) {
	dst := a.machine.State(target)
	if dst == nil {
		a.sched.Assert(false, "actor %s: push to unknown state %s", a.ID, target)
		return
	}
	a.stack = append(a.stack, dst)
	if dst.OnEntry != nil {
		dst.OnEntry(a)
	}
}

func (a *Actor) halt() {
	cur := a.current()
	for _, s := range exitChain(cur, nil) {
		if s.OnExit != nil {
			s.OnExit(a)
		}
	}
	a.mu.Lock()
	a.halted = true
	a.mu.Unlock()
	a.sched.CompleteOperation(a.op)
}

func (a *Actor) dispatch(ev Event) {
	cur := a.current()
	t, _, ok := cur.resolve(ev.Type)
	if !ok {
		// Dequeued only when resolve succeeded; a concurrent transition
		// between scan and dispatch cannot happen (single-goroutine
		// dispatch loop), so this is unreachable in practice.
		return
	}
	switch t.Kind {
	case Ignore:
	case Do:
		if t.Action != nil {
			t.Action(a, ev)
		}
	case Goto:
		a.gotoState(t.Target)
	case Push:
		a.pushState(t.Target)
	}
}

func (a *Actor) run() {
	a.enterInitial()
	for {
		if a.isHalted() {
			return
		}
		ev, ok := a.nextEvent()
		if !ok {
			continue
		}
		if ev.Type == HaltEvent {
			a.halt()
			return
		}
		a.dispatch(ev)
	}
}
