package proxy

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of a session.
type State int

const (
	StateAccepted State = iota
	StateAuthenticating
	StateConnecting
	StateRelaying
	StateClosing
	StateClosed
)

// ErrInvalidTransition is returned for a transition the lifecycle forbids.
var ErrInvalidTransition = errors.New("invalid session state transition")

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateAccepted:
		return "accepted"
	case StateAuthenticating:
		return "authenticating"
	case StateConnecting:
		return "connecting"
	case StateRelaying:
		return "relaying"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// transitions lists the allowed successors of each state. The machine is
// one-shot: no state is revisited.
var transitions = map[State][]State{
	StateAccepted:       {StateAuthenticating},
	StateAuthenticating: {StateConnecting, StateClosing},
	StateConnecting:     {StateRelaying, StateClosing},
	StateRelaying:       {StateClosing},
	StateClosing:        {StateClosed},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
