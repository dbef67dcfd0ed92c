package actor

import "github.com/pipeline-foundation/sct"

// Machine is the compiled state table for one actor (or monitor) type:
// the set of declared states plus the single Start state.
type Machine struct {
	Name   string
	states map[StateName]*StateDef
	start  *StateDef
}

// NewMachine begins building a state table named name, used in
// configuration-error messages and trace/log output.
func NewMachine(name string) *Machine {
	return &Machine{Name: name, states: make(map[StateName]*StateDef)}
}

// AddState registers s. Exactly one Start state may be declared across a
// machine's whole inheritance universe (including states only ever used as
// a Base); a second Start marker is a configuration error.
func (m *Machine) AddState(s *StateDef) error {
	if _, exists := m.states[s.Name]; exists {
		return &governor.ConfigurationError{Reason: "duplicate state " + string(s.Name) + " in machine " + m.Name}
	}
	if s.Start {
		if m.start != nil {
			return &governor.ConfigurationError{Reason: "machine " + m.Name + " declares more than one Start state: " + string(m.start.Name) + " and " + string(s.Name)}
		}
		m.start = s
	}
	m.states[s.Name] = s
	return nil
}

// State looks up a declared state by name.
func (m *Machine) State(name StateName) *StateDef { return m.states[name] }

// Start returns the machine's single Start state, or nil if none was
// declared (a configuration error AddState should already have surfaced).
func (m *Machine) Start() *StateDef { return m.start }
