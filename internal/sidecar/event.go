package sidecar

// EventKind discriminates events on the child's stream receiver.
type EventKind int

const (
	// EventStdout carries one line of the child's standard output.
	EventStdout EventKind = iota
	// EventStderr carries one line of the child's standard error.
	EventStderr
	// EventTerminated is the final event; Code holds the exit code.
	EventTerminated
)

// Event is a single observation from the child process. The receiver
// channel is closed after EventTerminated is delivered.
type Event struct {
	Kind EventKind
	Line string
	Code int
}
