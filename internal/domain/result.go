package domain

// FailureReason says why a control law could not produce effort this tick.
type FailureReason uint8

const (
	ReasonNone FailureReason = iota
	ReasonNotRunnable
	ReasonStaleState
	ReasonInvalidReference
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonNotRunnable:
		return "not_runnable"
	case ReasonStaleState:
		return "stale_state"
	case ReasonInvalidReference:
		return "invalid_reference"
	default:
		return "unknown"
	}
}

// Result is the outcome of one control-law computation.
type Result struct {
	Effort  []float64
	Failure FailureReason
}

func Success(effort []float64) Result {
	return Result{Effort: effort}
}

func Failure(reason FailureReason) Result {
	return Result{Failure: reason}
}

func (r Result) OK() bool {
	return r.Failure == ReasonNone
}
