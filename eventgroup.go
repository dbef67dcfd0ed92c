package governor

import "github.com/google/uuid"

// EventGroup correlates a batch of related actor events for tracing and
// report attribution: Actor.Send stores the group its caller passes on the
// mailbox event. Events raised with Actor.RaiseEvent carry the zero group;
// a group is not inherited from the event being handled.
type EventGroup struct {
	// ID is a correlation token, generated fresh per group.
	ID uuid.UUID
}

// NewEventGroup starts a new correlation group.
func NewEventGroup() EventGroup {
	return EventGroup{ID: uuid.New()}
}

// AwaitableEventGroup additionally exposes a [Task] handle, for event
// groups a test wants to explicitly wait to settle (
// "awaitable send" variant), alongside its correlation token.
type AwaitableEventGroup struct {
	EventGroup
	task *Task
}

// NewAwaitableEventGroup starts a new correlation group bound to a task.
func NewAwaitableEventGroup(task *Task) AwaitableEventGroup {
	return AwaitableEventGroup{EventGroup: NewEventGroup(), task: task}
}

// Await blocks until the group's bound task completes.
func (g AwaitableEventGroup) Await() (TaskResult, error) {
	return g.task.Await()
}

// EventGroupHandle wraps an [EventGroup] value. The actor runtime does not
// pass it to handlers; a caller that holds one passes its Group to
// Actor.Send.
type EventGroupHandle struct {
	Group EventGroup
}
