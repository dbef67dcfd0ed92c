package actor

// StateName identifies a declared state within a [Machine].
type StateName string

// TransitionKind tags what a handler does with a dispatched event.
type TransitionKind int

const (
	// Ignore drops the event without running an action.
	Ignore TransitionKind = iota
	// Do runs an action without leaving the current state.
	Do
	// Goto exits the current state up to the common ancestor with Target,
	// then enters Target down from that ancestor.
	Goto
	// Push enters Target as an overlay, without exiting the current state.
	Push
)

// Transition is one entry of a [StateDef]'s handler table.
type Transition struct {
	Kind   TransitionKind
	Target StateName
	Action func(a *Actor, e Event)
}

// StateDef declares one state. A concrete state may inherit from another
// state (concrete or abstract) via Base; handler lookup walks the chain
// from most-derived to base, first match wins.
type StateDef struct {
	Name  StateName
	Start bool
	Base  *StateDef

	// OnEntry/OnExit override any Base OnEntry/OnExit outright; they are
	// not chained (inheritance rules).
	OnEntry func(a *Actor)
	OnExit  func(a *Actor)

	Handlers map[EventType]Transition
	// Deferred events are skipped in place (not dropped): they remain in
	// mailbox order and become eligible once the state changes.
	Deferred map[EventType]struct{}
}

// resolve walks s's inheritance chain looking for a handler for evType,
// falling back to a wildcard handler. ok is false if the event is
// deferred in s or any ancestor (the caller must leave it in the mailbox)
// and no more-derived explicit handler intercepted it first.
// Resolve is the exported form of resolve, for packages outside actor that
// share the same inheritance rules (the monitor package's synchronous
// dispatch).
func (s *StateDef) Resolve(evType EventType) (t Transition, deferred, ok bool) {
	return s.resolve(evType)
}

func (s *StateDef) resolve(evType EventType) (t Transition, deferred, ok bool) {
	// Overriding is by event type: the first ancestor (most-derived first)
	// that declares anything at all for evType — a handler or a defer —
	// wins outright. The walk must stop there; it must not keep searching
	// less-derived ancestors for a handler after a more-derived level
	// already declared the event deferred.
	for cur := s; cur != nil; cur = cur.Base {
		if cur.Handlers != nil {
			if t, found := cur.Handlers[evType]; found {
				return t, false, true
			}
		}
		if cur.Deferred != nil {
			if _, found := cur.Deferred[evType]; found {
				return Transition{}, true, false
			}
		}
	}
	for cur := s; cur != nil; cur = cur.Base {
		if cur.Handlers != nil {
			if t, found := cur.Handlers[WildcardEvent]; found {
				return t, false, true
			}
		}
	}
	return Transition{}, false, false
}

// ancestors returns s, s.Base, s.Base.Base, ... ending at the root state.
func ancestors(s *StateDef) []*StateDef {
	var out []*StateDef
	for cur := s; cur != nil; cur = cur.Base {
		out = append(out, cur)
	}
	return out
}

// CommonAncestor is the exported form of commonAncestor, reused by the
// monitor package's synchronous dispatch.
func CommonAncestor(a, b *StateDef) *StateDef { return commonAncestor(a, b) }

// ExitChain is the exported form of exitChain.
func ExitChain(cur, lca *StateDef) []*StateDef { return exitChain(cur, lca) }

// EntryChain is the exported form of entryChain.
func EntryChain(dst, lca *StateDef) []*StateDef { return entryChain(dst, lca) }

// commonAncestor returns the nearest state reachable from both a and b by
// following Base, or nil if none (a full exit-to-root / entry-from-root
// transition).
func commonAncestor(a, b *StateDef) *StateDef {
	bSet := make(map[*StateDef]struct{})
	for cur := b; cur != nil; cur = cur.Base {
		bSet[cur] = struct{}{}
	}
	for cur := a; cur != nil; cur = cur.Base {
		if _, ok := bSet[cur]; ok {
			return cur
		}
	}
	return nil
}

// exitChain returns the states to exit, from cur up to (not including)
// lca, in that order.
func exitChain(cur, lca *StateDef) []*StateDef {
	var out []*StateDef
	for s := cur; s != nil && s != lca; s = s.Base {
		out = append(out, s)
	}
	return out
}

// entryChain returns the states to enter, from (not including) lca down to
// dst, in that order (root-most first, dst last).
func entryChain(dst, lca *StateDef) []*StateDef {
	var out []*StateDef
	for s := dst; s != nil && s != lca; s = s.Base {
		out = append(out, s)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
