package runner

// State is the position of a trader inside one tick.
type State string

const (
	StateIdle       State = "IDLE"
	StateFetching   State = "FETCHING"
	StateEvaluating State = "EVALUATING"
	StateSizing     State = "SIZING"
	StateExecuting  State = "EXECUTING"
	StateRecording  State = "RECORDING"
)
