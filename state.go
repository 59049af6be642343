package sluice

// State represents the current state of an adapter run.
type State int32

const (
	// StateLoading indicates the lifecycle has not produced an outcome yet.
	StateLoading State = iota

	// StateHealthy indicates the lifecycle succeeded and, when watching,
	// the most recent poll succeeded.
	StateHealthy

	// StateDegraded indicates the most recent watch poll failed. The loaded
	// value is still valid and the loop keeps polling on schedule.
	StateDegraded

	// StateFailed indicates the lifecycle failed and no value was delivered.
	StateFailed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateHealthy:
		return "healthy"
	case StateDegraded:
		return "degraded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stage names a step of the adapter lifecycle.
type Stage string

// Lifecycle stages, in execution order.
const (
	StageValidate Stage = "validate"
	StagePrime    Stage = "prime"
	StageWatch    Stage = "watch"
	StageLoad     Stage = "load"
	StageProcess  Stage = "process"
)
