package sidecar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/worklens/deskshell/internal/infrastructure/logging"
)

// ErrAlreadyRunning is returned when supervision is requested more than
// once in a single shell lifetime.
var ErrAlreadyRunning = errors.New("sidecar already supervised")

// defaultGrace is how long a terminated child may take to exit before
// it is killed.
const defaultGrace = 5 * time.Second

// CommandSource resolves a logical binary name into a spawnable
// command. Implemented by the shell services capability.
type CommandSource interface {
	Sidecar(name string) (*Command, error)
}

// FailureKind classifies a failed supervision attempt.
type FailureKind int

const (
	// FailureNone means supervision succeeded.
	FailureNone FailureKind = iota
	// FailureResolve means the logical name could not be mapped to a
	// packaged executable.
	FailureResolve
	// FailureSpawn means the OS refused process creation.
	FailureSpawn
)

// String returns a human-readable failure kind.
func (k FailureKind) String() string {
	switch k {
	case FailureNone:
		return "none"
	case FailureResolve:
		return "resolve_failed"
	case FailureSpawn:
		return "spawn_failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of a supervision attempt. Handles is non-nil
// exactly when Err is nil. The supervisor retains ownership of the
// stream receiver and drains Events into the unified log; callers use
// Handles for process control and exit observation only.
type Outcome struct {
	Handles *Handles
	Kind    FailureKind
	Err     error
}

// Started reports whether the sidecar was spawned.
func (o Outcome) Started() bool {
	return o.Err == nil && o.Handles != nil
}

// Supervisor owns the sidecar child process for the shell's lifetime.
// At most one spawn is attempted; failures never abort shell startup.
type Supervisor struct {
	mu       sync.Mutex
	state    atomic.Int32
	stopping atomic.Bool
	log      *logging.Logger
	handles  *Handles
	grace    time.Duration
}

// NewSupervisor creates a supervisor reporting through the given log.
func NewSupervisor(log *logging.Logger) *Supervisor {
	return &Supervisor{log: log, grace: defaultGrace}
}

// WithGrace overrides the shutdown grace period.
func (s *Supervisor) WithGrace(d time.Duration) *Supervisor {
	s.grace = d
	return s
}

// State returns the supervisor's current view of the child.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Supervise resolves the logical name through the command source and
// spawns the result. It returns once the OS has acknowledged process
// creation or refused it; it never waits for the child to be ready.
// Each terminal outcome produces exactly one log event. On success the
// supervisor consumes the child's stream receiver itself.
func (s *Supervisor) Supervise(src CommandSource, name string) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if State(s.state.Load()) != StateUnspawned {
		err := ErrAlreadyRunning
		s.log.Error("Failed to start backend sidecar", zap.String("sidecar", name), zap.Error(err))
		return Outcome{Kind: FailureSpawn, Err: err}
	}
	s.state.Store(int32(StateSpawning))

	attempt := uuid.NewString()

	cmd, err := src.Sidecar(name)
	if err != nil {
		s.state.Store(int32(StateFailed))
		s.log.Error("Failed to create sidecar command",
			zap.String("sidecar", name),
			zap.String("attempt", attempt),
			zap.Error(err),
		)
		return Outcome{Kind: FailureResolve, Err: err}
	}

	handles, err := cmd.Spawn()
	if err != nil {
		s.state.Store(int32(StateFailed))
		s.log.Error("Failed to start backend sidecar",
			zap.String("sidecar", name),
			zap.String("attempt", attempt),
			zap.Error(err),
		)
		return Outcome{Kind: FailureSpawn, Err: err}
	}

	s.handles = handles
	s.state.Store(int32(StateRunning))
	s.log.Info("Backend sidecar started successfully",
		zap.String("sidecar", name),
		zap.String("attempt", attempt),
		zap.Int("pid", handles.PID()),
	)

	go s.monitor(handles)
	go s.drain(handles)

	return Outcome{Handles: handles}
}

// monitor observes child termination. A spontaneous exit during
// Running is logged once; an exit requested by Shutdown is not. There
// is no restart.
func (s *Supervisor) monitor(h *Handles) {
	<-h.Done()
	if s.state.CompareAndSwap(int32(StateRunning), int32(StateExited)) && !s.stopping.Load() {
		s.log.Error("Backend sidecar exited unexpectedly", zap.Int("code", h.ExitCode()))
	}
}

// drain forwards the child's output into the unified log so backend
// stack traces land in the shell log.
func (s *Supervisor) drain(h *Handles) {
	for ev := range h.Events() {
		switch ev.Kind {
		case EventStdout:
			s.log.Debug("sidecar stdout", zap.String("line", ev.Line))
		case EventStderr:
			s.log.Debug("sidecar stderr", zap.String("line", ev.Line))
		}
	}
}

// Shutdown terminates a running child and waits for its exit: signal,
// bounded wait, then hard kill. The child stays Running until its exit
// is observed. Shutdown is a no-op in every other state and is safe to
// call multiple times.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	h := s.handles
	claimed := h != nil &&
		State(s.state.Load()) == StateRunning &&
		s.stopping.CompareAndSwap(false, true)
	s.mu.Unlock()

	if !claimed {
		return nil
	}

	if err := h.Terminate(); err != nil {
		// Process may already be gone; fall through to the wait.
		s.log.Debug("sidecar terminate signal failed", zap.Error(err))
	}

	grace := time.NewTimer(s.grace)
	defer grace.Stop()

	select {
	case <-h.Done():
	case <-grace.C:
		h.Kill()
	case <-ctx.Done():
		h.Kill()
	}

	// After a kill the wait is bounded: exit observation does not hang
	// on pipes a forked worker still holds. The context caps it anyway.
	select {
	case <-h.Done():
	case <-ctx.Done():
		select {
		case <-h.Done():
		default:
			return ctx.Err()
		}
	}

	s.state.CompareAndSwap(int32(StateRunning), int32(StateExited))
	s.log.Info("Backend sidecar stopped", zap.Int("code", h.ExitCode()))
	return nil
}
