// Package actor implements an actor/state-machine runtime: one controlled
// operation per live actor, a FIFO mailbox honoring defer semantics, and
// state inheritance with entry/exit chains walked to the common ancestor
// on every transition.
package actor

import "github.com/pipeline-foundation/sct"

// EventType identifies the kind of event delivered to an actor's mailbox.
type EventType string

// WildcardEvent matches any event type in a handler table; explicit
// handlers always take priority over a wildcard handler (a rule shared
// by actors and monitors).
const WildcardEvent EventType = "*"

// HaltEvent, dispatched like any other event, marks the actor halted
// instead of running a table-declared transition.
const HaltEvent EventType = "$halt"

// Event is one mailbox entry.
type Event struct {
	Type    EventType
	Payload any
	Group   governor.EventGroup
}
