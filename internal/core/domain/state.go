package domain

import "fmt"

// RequestState is the lifecycle state of one query.
type RequestState string

// Request states. Refused, Done, Failed and Canceled are terminal.
const (
	StateIdle       RequestState = "idle"
	StateRetrieving RequestState = "retrieving"
	StateRefused    RequestState = "refused"
	StateGenerating RequestState = "generating"
	StateDone       RequestState = "done"
	StateFailed     RequestState = "failed"
	StateCanceled   RequestState = "canceled"
)

var transitions = map[RequestState][]RequestState{
	StateIdle:       {StateRetrieving},
	StateRetrieving: {StateRefused, StateGenerating, StateFailed, StateCanceled},
	StateGenerating: {StateDone, StateFailed, StateCanceled},
}

// IsTerminal reports whether no further transitions are allowed.
func (s RequestState) IsTerminal() bool {
	switch s {
	case StateRefused, StateDone, StateFailed, StateCanceled:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (s RequestState) String() string {
	return string(s)
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to RequestState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequestRun tracks the state of a single query. A fresh run is created
// per query; runs are never shared.
type RequestRun struct {
	state   RequestState
	history []RequestState
}

// NewRequestRun returns a run in StateIdle.
func NewRequestRun() *RequestRun {
	return &RequestRun{state: StateIdle, history: []RequestState{StateIdle}}
}

// State returns the current state.
func (r *RequestRun) State() RequestState {
	return r.state
}

// History returns every state visited, in order.
func (r *RequestRun) History() []RequestState {
	out := make([]RequestState, len(r.history))
	copy(out, r.history)
	return out
}

// Advance moves the run to the next state.
func (r *RequestRun) Advance(to RequestState) error {
	if !CanTransition(r.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.state, to)
	}
	r.state = to
	r.history = append(r.history, to)
	return nil
}
