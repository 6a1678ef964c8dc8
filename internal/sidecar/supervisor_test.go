package sidecar_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/worklens/deskshell/internal/infrastructure/logging"
	"github.com/worklens/deskshell/internal/sidecar"
)

// stubSource is a CommandSource with a fixed answer.
type stubSource struct {
	cmd   *sidecar.Command
	err   error
	calls int
}

func (s *stubSource) Sidecar(name string) (*sidecar.Command, error) {
	s.calls++
	return s.cmd, s.err
}

func observedLogger() (*logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &logging.Logger{Logger: zap.New(core)}, logs
}

// longRunning builds a script that redirects its streams away (so the
// receiver sees EOF immediately) and sleeps.
func longRunning(t *testing.T, dir string) *sidecar.Command {
	t.Helper()
	path := writeScript(t, dir, "backend", "exec >/dev/null 2>&1\nexec sleep 30")
	return &sidecar.Command{Path: path, Dir: dir}
}

func TestSuperviseStartsSidecar(t *testing.T) {
	skipOnWindows(t)

	log, logs := observedLogger()
	sup := sidecar.NewSupervisor(log)
	src := &stubSource{cmd: longRunning(t, t.TempDir())}

	outcome := sup.Supervise(src, "binaries/backend")
	defer sup.Shutdown(context.Background())

	require.True(t, outcome.Started())
	assert.Equal(t, sidecar.FailureNone, outcome.Kind)
	assert.Equal(t, sidecar.StateRunning, sup.State())

	started := logs.FilterMessage("Backend sidecar started successfully")
	require.Equal(t, 1, started.Len())
	assert.Equal(t, zapcore.InfoLevel, started.All()[0].Level)
}

func TestSuperviseResolveFailed(t *testing.T) {
	log, logs := observedLogger()
	sup := sidecar.NewSupervisor(log)
	src := &stubSource{err: errors.New("unknown sidecar")}

	outcome := sup.Supervise(src, "binaries/backend")

	assert.False(t, outcome.Started())
	assert.Equal(t, sidecar.FailureResolve, outcome.Kind)
	assert.Error(t, outcome.Err)
	assert.Equal(t, sidecar.StateFailed, sup.State())

	failed := logs.FilterMessage("Failed to create sidecar command")
	require.Equal(t, 1, failed.Len())
	assert.Equal(t, zapcore.ErrorLevel, failed.All()[0].Level)
}

func TestSuperviseSpawnFailed(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	log, logs := observedLogger()
	sup := sidecar.NewSupervisor(log)

	// Resolves fine, but the OS refuses the spawn: permissions stripped.
	path := writeScript(t, dir, "backend", "exit 0")
	require.NoError(t, os.Chmod(path, 0o644))
	src := &stubSource{cmd: &sidecar.Command{Path: path, Dir: dir}}

	outcome := sup.Supervise(src, "binaries/backend")

	assert.False(t, outcome.Started())
	assert.Equal(t, sidecar.FailureSpawn, outcome.Kind)
	assert.Equal(t, sidecar.StateFailed, sup.State())
	assert.Equal(t, 1, logs.FilterMessage("Failed to start backend sidecar").Len())
}

func TestSuperviseSingleSpawn(t *testing.T) {
	skipOnWindows(t)

	log, _ := observedLogger()
	sup := sidecar.NewSupervisor(log)
	src := &stubSource{cmd: longRunning(t, t.TempDir())}

	first := sup.Supervise(src, "binaries/backend")
	require.True(t, first.Started())
	defer sup.Shutdown(context.Background())

	second := sup.Supervise(src, "binaries/backend")
	assert.False(t, second.Started())
	assert.Equal(t, sidecar.FailureSpawn, second.Kind)
	assert.ErrorIs(t, second.Err, sidecar.ErrAlreadyRunning)
	// No second resolution, let alone a second spawn.
	assert.Equal(t, 1, src.calls)
}

func TestSuperviseObservesSpontaneousExit(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	log, logs := observedLogger()
	sup := sidecar.NewSupervisor(log)
	path := writeScript(t, dir, "backend", "exit 3")
	src := &stubSource{cmd: &sidecar.Command{Path: path, Dir: dir}}

	outcome := sup.Supervise(src, "binaries/backend")
	require.True(t, outcome.Started())

	require.Eventually(t, func() bool {
		return sup.State() == sidecar.StateExited
	}, 5*time.Second, 10*time.Millisecond)

	exited := logs.FilterMessage("Backend sidecar exited unexpectedly")
	require.Equal(t, 1, exited.Len())
	entry := exited.All()[0]
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
	assert.Equal(t, int64(3), entry.ContextMap()["code"])

	// No restart: the state is terminal and Shutdown is a no-op.
	require.NoError(t, sup.Shutdown(context.Background()))
	assert.Equal(t, sidecar.StateExited, sup.State())
}

func TestSuperviseObservesExitBehindForkedWorker(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	log, logs := observedLogger()
	sup := sidecar.NewSupervisor(log)

	// The forked sleep inherits the pipes and outlives the child; exit
	// observation must not wait for it.
	path := writeScript(t, dir, "backend", "sleep 30 &\nexit 0")
	src := &stubSource{cmd: &sidecar.Command{Path: path, Dir: dir}}

	outcome := sup.Supervise(src, "binaries/backend")
	require.True(t, outcome.Started())

	require.Eventually(t, func() bool {
		return sup.State() == sidecar.StateExited
	}, 10*time.Second, 10*time.Millisecond)

	exited := logs.FilterMessage("Backend sidecar exited unexpectedly")
	require.Equal(t, 1, exited.Len())
	assert.Equal(t, int64(0), exited.All()[0].ContextMap()["code"])
}

func TestSuperviseDrainsStreamsIntoLog(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	log, logs := observedLogger()
	sup := sidecar.NewSupervisor(log)
	path := writeScript(t, dir, "backend", "echo booted\necho warn 1>&2")
	src := &stubSource{cmd: &sidecar.Command{Path: path, Dir: dir}}

	outcome := sup.Supervise(src, "binaries/backend")
	require.True(t, outcome.Started())

	// The supervisor owns the receiver; the child's output surfaces in
	// the unified log without anyone ranging outcome.Handles.Events().
	require.Eventually(t, func() bool {
		return logs.FilterMessage("sidecar stdout").Len() == 1 &&
			logs.FilterMessage("sidecar stderr").Len() == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "booted", logs.FilterMessage("sidecar stdout").All()[0].ContextMap()["line"])
}

func TestShutdownTerminatesChild(t *testing.T) {
	skipOnWindows(t)

	log, logs := observedLogger()
	sup := sidecar.NewSupervisor(log)
	src := &stubSource{cmd: longRunning(t, t.TempDir())}

	outcome := sup.Supervise(src, "binaries/backend")
	require.True(t, outcome.Started())

	require.NoError(t, sup.Shutdown(context.Background()))
	assert.Equal(t, sidecar.StateExited, sup.State())

	select {
	case <-outcome.Handles.Done():
	default:
		t.Fatal("child still running after shutdown")
	}
	assert.Equal(t, 1, logs.FilterMessage("Backend sidecar stopped").Len())
	// The claimed transition suppresses the unexpected-exit event.
	assert.Equal(t, 0, logs.FilterMessage("Backend sidecar exited unexpectedly").Len())
}

func TestShutdownEscalatesToKill(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	log, _ := observedLogger()
	sup := sidecar.NewSupervisor(log).WithGrace(50 * time.Millisecond)

	// Child ignores the polite signal.
	path := writeScript(t, dir, "backend", "exec >/dev/null 2>&1\ntrap '' TERM\nsleep 30 &\nwait")
	src := &stubSource{cmd: &sidecar.Command{Path: path, Dir: dir}}

	outcome := sup.Supervise(src, "binaries/backend")
	require.True(t, outcome.Started())

	done := make(chan struct{})
	go func() {
		sup.Shutdown(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown did not escalate to kill")
	}
	assert.Equal(t, sidecar.StateExited, sup.State())
}

func TestShutdownUnblockedByForkedWorker(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	log, _ := observedLogger()
	sup := sidecar.NewSupervisor(log).WithGrace(100 * time.Millisecond)

	// Both the child and its worker hold the pipes; the worker survives
	// the child. Shutdown must track the child alone.
	path := writeScript(t, dir, "backend", "sleep 60 &\nexec sleep 60")
	src := &stubSource{cmd: &sidecar.Command{Path: path, Dir: dir}}

	outcome := sup.Supervise(src, "binaries/backend")
	require.True(t, outcome.Started())

	done := make(chan error, 1)
	go func() { done <- sup.Shutdown(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown blocked on a pipe the worker still holds")
	}
	assert.Equal(t, sidecar.StateExited, sup.State())
}

func TestShutdownReportsRunningUntilExit(t *testing.T) {
	skipOnWindows(t)

	dir := t.TempDir()
	log, _ := observedLogger()
	sup := sidecar.NewSupervisor(log).WithGrace(2 * time.Second)

	// Child ignores the polite signal, so the grace window stays open.
	path := writeScript(t, dir, "backend", "exec >/dev/null 2>&1\ntrap '' TERM\nsleep 30 &\nwait")
	src := &stubSource{cmd: &sidecar.Command{Path: path, Dir: dir}}

	outcome := sup.Supervise(src, "binaries/backend")
	require.True(t, outcome.Started())

	done := make(chan struct{})
	go func() {
		sup.Shutdown(context.Background())
		close(done)
	}()

	// Mid-grace the child has not exited and must still report Running.
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, sidecar.StateRunning, sup.State())

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("shutdown did not complete")
	}
	assert.Equal(t, sidecar.StateExited, sup.State())
}

func TestShutdownBeforeSpawnIsNoop(t *testing.T) {
	log, _ := observedLogger()
	sup := sidecar.NewSupervisor(log)
	require.NoError(t, sup.Shutdown(context.Background()))
	assert.Equal(t, sidecar.StateUnspawned, sup.State())
}
