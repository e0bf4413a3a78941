package session

import (
	"fmt"
	"slices"
	"sync"

	"github.com/solemarket/solechat/internal/bus"
)

// State represents the client's session lifecycle state.
type State string

const (
	SignedOut      State = "SIGNED_OUT"
	Authenticating State = "AUTHENTICATING"
	Ready          State = "READY"
	Expired        State = "EXPIRED"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	SignedOut:      {Authenticating, Ready},
	Authenticating: {Ready, SignedOut},
	Ready:          {Expired, SignedOut},
	Expired:        {Authenticating, SignedOut},
}

// Machine tracks and enforces session lifecycle transitions. SignedOut may
// move straight to Ready when stored credentials are restored on startup.
type Machine struct {
	mu      sync.RWMutex
	current State
	bus     *bus.Bus
}

// NewMachine creates a state machine starting in SignedOut.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{current: SignedOut, bus: b}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Transition attempts to move to a new state. Returns an error if the
// transition is not allowed.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !slices.Contains(validTransitions[m.current], to) {
		return fmt.Errorf("invalid session transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Topic: bus.TopicSessionChanged,
			Data:  StateChange{From: from, To: to},
		})
	}
	return nil
}

// StateChange is the payload for session state change events.
type StateChange struct {
	From State
	To   State
}
