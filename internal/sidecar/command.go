package sidecar

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// eventBufferSize bounds the stream receiver. When the consumer lags,
// the oldest buffered event is dropped so the child never blocks on a
// full pipe.
const eventBufferSize = 256

// pipeWaitDelay bounds how long exit observation waits for the child's
// pipes to close. A forked worker that inherits stdout/stderr keeps the
// write ends open past the direct child's death; after the delay the
// pipes are force-closed so Done always tracks process exit.
const pipeWaitDelay = 3 * time.Second

// Command is a constructed sidecar invocation referencing a resolved
// executable. It is consumed by a single Spawn.
type Command struct {
	Path string
	Args []string
	Env  []string // KEY=VALUE pairs appended to the shell's environment
	Dir  string
}

// Spawn starts the process and returns handles to its stream receiver
// and process control. It returns as soon as the OS has acknowledged
// process creation; it does not wait for the child to be ready.
func (c *Command) Spawn() (*Handles, error) {
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = pipeWaitDelay
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to spawn %s: %w", c.Path, err)
	}

	h := &Handles{
		cmd:    cmd,
		events: make(chan Event, eventBufferSize),
		done:   make(chan struct{}),
	}

	h.readers.Add(2)
	go h.forward(stdout, EventStdout)
	go h.forward(stderr, EventStderr)
	go h.reap()

	return h, nil
}

// Handles pairs the child's stream receiver with its process control.
// Owned exclusively by the supervisor for the shell's lifetime.
type Handles struct {
	cmd      *exec.Cmd
	events   chan Event
	done     chan struct{}
	readers  sync.WaitGroup
	exitCode int
}

// Events returns the stream receiver. The channel is closed after the
// terminating event is delivered.
func (h *Handles) Events() <-chan Event {
	return h.events
}

// PID returns the child's process ID.
func (h *Handles) PID() int {
	return h.cmd.Process.Pid
}

// Done is closed once the child's termination has been observed.
func (h *Handles) Done() <-chan struct{} {
	return h.done
}

// ExitCode returns the child's exit code. Valid only after Done is
// closed; -1 means the child was killed by a signal. A worker forked
// by the child that outlives it does not affect the code.
func (h *Handles) ExitCode() int {
	return h.exitCode
}

// Kill forcibly terminates the child.
func (h *Handles) Kill() error {
	return h.cmd.Process.Kill()
}

// forward scans one stream line by line into the receiver.
func (h *Handles) forward(r io.Reader, kind EventKind) {
	defer h.readers.Done()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		h.emit(Event{Kind: kind, Line: scanner.Text()})
	}
}

// reap observes process exit, signals Done, then drains the streams
// and closes the receiver. Exit observation never waits on stream EOF:
// Wait's delay force-closes pipes a forked worker is holding open, so
// Done tracks the direct child even when its descendants linger.
func (h *Handles) reap() {
	code := 0
	switch err := h.cmd.Wait(); {
	case err == nil:
	case errors.Is(err, exec.ErrWaitDelay):
		// Clean exit; only inherited pipes lingered past the delay.
		code = h.cmd.ProcessState.ExitCode()
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}
	h.exitCode = code

	close(h.done)

	h.readers.Wait()
	h.emit(Event{Kind: EventTerminated, Code: code})
	close(h.events)
}

// emit delivers an event without ever blocking: when the buffer is
// full, the oldest event is discarded.
func (h *Handles) emit(ev Event) {
	for {
		select {
		case h.events <- ev:
			return
		default:
			select {
			case <-h.events:
			default:
			}
		}
	}
}
