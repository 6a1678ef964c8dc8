package sidecar

// State is the supervisor's view of the child process lifecycle.
type State int32

const (
	// StateUnspawned is the initial state; no spawn has been attempted.
	StateUnspawned State = iota
	// StateSpawning means a spawn attempt is in flight.
	StateSpawning
	// StateRunning means the OS acknowledged process creation.
	StateRunning
	// StateExited is terminal: the child terminated after running.
	StateExited
	// StateFailed is terminal: resolution or spawn was rejected.
	StateFailed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateUnspawned:
		return "unspawned"
	case StateSpawning:
		return "spawning"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
