package compiler

// State is a step of the compile state machine.
type State int

const (
	StateHeuristic State = iota
	StateModelAttempt
	StateSuccess
	StateFallbackHeuristic
)

func (s State) String() string {
	switch s {
	case StateHeuristic:
		return "heuristic"
	case StateModelAttempt:
		return "model-attempt"
	case StateSuccess:
		return "success"
	case StateFallbackHeuristic:
		return "fallback-heuristic"
	}
	return "unknown"
}

// Attempt is the state threaded between model attempts: the 1-based attempt
// number and the failure of the previous attempt.
type Attempt struct {
	N       int
	LastErr error
}

// Next is the attempt that follows a failure.
func (a Attempt) Next(err error) Attempt { return Attempt{N: a.N + 1, LastErr: err} }

// Exhausted reports whether no model attempt remains.
func (a Attempt) Exhausted() bool { return a.N > MaxAttempts }

// Transition is the state after an attempt ends with err.
func (a Attempt) Transition(err error) State {
	switch {
	case err == nil:
		return StateSuccess
	case a.Next(err).Exhausted():
		return StateFallbackHeuristic
	}
	return StateModelAttempt
}
