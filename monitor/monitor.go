// Package monitor implements the specification-monitor subsystem: one
// singleton state-machine instance per registered monitor type per
// iteration, dispatched synchronously from whichever goroutine currently
// holds the scheduler's baton, with hot/cold liveness temperature
// tracking layered on top.
package monitor

import (
	"fmt"
	"sync"

	"github.com/pipeline-foundation/sct"
	"github.com/pipeline-foundation/sct/actor"
)

// Spec is implemented by a monitor type registered via [RegisterMonitor].
// Its methods describe static configuration: the state machine, and which
// of its declared states count as Hot or Cold for liveness temperature.
// They are called against T's zero value, so a monitor type carries no
// per-instance state of its own beyond the state stack the registry
// tracks for it — a singleton instance per type, where the type itself
// is the whole identity.
type Spec interface {
	Machine() *actor.Machine
	HotStates() []actor.StateName
	ColdStates() []actor.StateName
}

type instance struct {
	name        string
	machine     *actor.Machine
	stack       []*actor.StateDef
	hot         map[actor.StateName]struct{}
	cold        map[actor.StateName]struct{}
	temperature uint32
}

func (in *instance) current() *actor.StateDef { return in.stack[len(in.stack)-1] }

func (in *instance) isHot() bool {
	_, ok := in.hot[in.current().Name]
	return ok
}

func (in *instance) isCold() bool {
	_, ok := in.cold[in.current().Name]
	return ok
}

func (in *instance) gotoState(target actor.StateName) error {
	dst := in.machine.State(target)
	if dst == nil {
		return &governor.ConfigurationError{Reason: "monitor " + in.name + ": goto unknown state " + string(target)}
	}
	cur := in.current()
	lca := actor.CommonAncestor(cur, dst)
	for _, s := range actor.ExitChain(cur, lca) {
		if s.OnExit != nil {
			s.OnExit(nil)
		}
	}
	in.stack[len(in.stack)-1] = dst
	for _, s := range actor.EntryChain(dst, lca) {
		if s.OnEntry != nil {
			s.OnEntry(nil)
		}
	}
	return nil
}

func (in *instance) pushState(target actor.StateName) error {
	dst := in.machine.State(target)
	if dst == nil {
		return &governor.ConfigurationError{Reason: "monitor " + in.name + ": push unknown state " + string(target)}
	}
	in.stack = append(in.stack, dst)
	if dst.OnEntry != nil {
		dst.OnEntry(nil)
	}
	return nil
}

// Registry holds every registered monitor's singleton instance for one
// iteration. A fresh Registry must be built per iteration, mirroring the
// scheduler's own per-iteration operation table.
type Registry struct {
	threshold uint32

	mu   sync.Mutex
	byID map[string]*instance
	// order is insertion order, kept for deterministic Tick/Hot iteration.
	order []string
}

// NewRegistry builds an empty registry. threshold is the liveness
// temperature a hot monitor may reach before a [governor.LivenessError] is
// raised (`LivenessTemperatureThreshold`).
func NewRegistry(threshold uint32) *Registry {
	return &Registry{threshold: threshold, byID: make(map[string]*instance)}
}

func toSet(names []actor.StateName) map[actor.StateName]struct{} {
	out := make(map[actor.StateName]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// RegisterMonitor creates T's singleton instance for this registry,
// running its machine's Start-state entry chain. Registering the same
// type twice against one registry is a configuration error.
func RegisterMonitor[T Spec](r *Registry) (*Monitor[T], error) {
	var zero T
	name := fmt.Sprintf("%T", zero)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[name]; exists {
		return nil, &governor.ConfigurationError{Reason: "monitor " + name + " already registered for this iteration"}
	}

	machine := zero.Machine()
	start := machine.Start()
	if start == nil {
		return nil, &governor.ConfigurationError{Reason: "monitor " + name + ": machine declares no Start state"}
	}

	in := &instance{
		name:    name,
		machine: machine,
		stack:   []*actor.StateDef{start},
		hot:     toSet(zero.HotStates()),
		cold:    toSet(zero.ColdStates()),
	}
	for _, s := range actor.EntryChain(start, nil) {
		if s.OnEntry != nil {
			s.OnEntry(nil)
		}
	}
	r.byID[name] = in
	r.order = append(r.order, name)

	return &Monitor[T]{r: r, name: name}, nil
}

// Monitor is a typed handle onto one registered monitor's singleton
// instance.
type Monitor[T Spec] struct {
	r    *Registry
	name string
}

// Dispatch synchronously dispatches ev on T's singleton instance: resolves
// a handler with the same inheritance rules as actors and runs it. It
// never itself emits a scheduling point; liveness temperature is advanced
// independently by [Registry.Tick], driven by the scheduler via
// [governor.WithSchedulingHook] on each scheduling decision — not by this
// call.
func Dispatch[T Spec](r *Registry, ev actor.Event) error {
	var zero T
	name := fmt.Sprintf("%T", zero)

	r.mu.Lock()
	in, ok := r.byID[name]
	r.mu.Unlock()
	if !ok {
		return &governor.ConfigurationError{Reason: "monitor " + name + " dispatched before registration"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := in.current()
	t, _, ok := cur.Resolve(ev.Type)
	if !ok {
		return nil
	}
	switch t.Kind {
	case actor.Ignore:
		return nil
	case actor.Do:
		if t.Action != nil {
			t.Action(nil, ev)
		}
		return nil
	case actor.Goto:
		return in.gotoState(t.Target)
	case actor.Push:
		return in.pushState(t.Target)
	}
	return nil
}

// Hot reports whether any registered monitor is currently in a Hot state,
// implementing strategy.HotnessOracle so [strategy.FairPCT] can bias
// scheduling toward progress while a liveness property is being watched.
func (r *Registry) Hot() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		if r.byID[name].isHot() {
			return true
		}
	}
	return false
}

// Tick is the per-scheduling-decision hook wired via
// [governor.WithSchedulingHook]: for each monitor whose current state is
// Hot, it increments that monitor's temperature; entering a Cold state
// resets it to zero; crossing the registry's threshold raises a
// [governor.LivenessError].
func (r *Registry) Tick(s *governor.Scheduler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range r.order {
		in := r.byID[name]
		switch {
		case in.isHot():
			in.temperature++
			if r.threshold > 0 && in.temperature > r.threshold {
				return &governor.LivenessError{
					Monitor:     in.name,
					State:       string(in.current().Name),
					Temperature: in.temperature,
				}
			}
		case in.isCold():
			in.temperature = 0
		}
	}
	return nil
}
