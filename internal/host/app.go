package host

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/worklens/deskshell/internal/infrastructure/config"
	"github.com/worklens/deskshell/internal/infrastructure/logging"
)

// shutdownGrace bounds the before-quit phase (sidecar teardown, window
// server drain).
const shutdownGrace = 10 * time.Second

// SetupFunc runs on the main thread after builder plugins attach and
// before the main window is presented. Returning an error aborts
// startup.
type SetupFunc func(h *Handle) error

// App is the desktop host process: it owns the main window and the
// plugins registered during setup.
type App struct {
	manifest   *config.Manifest
	log        *logging.Logger
	window     *Window
	plugins    []Plugin
	setup      []SetupFunc
	beforeQuit []func(context.Context)
	caps       map[string]any
	quit       chan struct{}
}

// Builder assembles an App in the order the host runs it: plugins,
// then setup hooks, then the window.
type Builder struct {
	app *App
}

// New starts a builder for the given manifest and unified log stream.
func New(manifest *config.Manifest, log *logging.Logger) *Builder {
	return &Builder{app: &App{
		manifest: manifest,
		log:      log,
		caps:     make(map[string]any),
		quit:     make(chan struct{}),
	}}
}

// Plugin registers a plugin to attach before setup hooks run.
func (b *Builder) Plugin(p Plugin) *Builder {
	b.app.plugins = append(b.app.plugins, p)
	return b
}

// Setup registers a setup hook.
func (b *Builder) Setup(fn SetupFunc) *Builder {
	b.app.setup = append(b.app.setup, fn)
	return b
}

// Assets provides the embedded front-end bundle served by the main
// window in release builds.
func (b *Builder) Assets(assets fs.FS) *Builder {
	b.app.window = newWindow(b.app.manifest, assets, b.app.log)
	return b
}

// Build finalizes the app.
func (b *Builder) Build() *App {
	if b.app.window == nil {
		b.app.window = newWindow(b.app.manifest, nil, b.app.log)
	}
	return b.app
}

// Run drives the host lifecycle: attach plugins, run setup, present
// the main window, then block until a shutdown signal, context
// cancellation, or Quit. Before-quit hooks run before Run returns.
func (a *App) Run(ctx context.Context) error {
	h := &Handle{app: a}

	for _, p := range a.plugins {
		if err := h.Plugin(p); err != nil {
			return fmt.Errorf("plugin %s: %w", p.ID(), err)
		}
	}

	for _, fn := range a.setup {
		if err := fn(h); err != nil {
			return fmt.Errorf("setup: %w", err)
		}
	}

	// The window is presented only after every setup hook has returned.
	if err := a.window.Present(); err != nil {
		return fmt.Errorf("failed to present main window: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case <-ctx.Done():
	case s := <-sig:
		a.log.Info("Shutdown signal received", zap.String("signal", s.String()))
	case <-a.quit:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	for i := len(a.beforeQuit) - 1; i >= 0; i-- {
		a.beforeQuit[i](shutdownCtx)
	}

	return a.window.Close(shutdownCtx)
}

// Quit asks the run loop to exit. Safe to call from any goroutine.
func (a *App) Quit() {
	select {
	case <-a.quit:
	default:
		close(a.quit)
	}
}

// Window returns the main window.
func (a *App) Window() *Window {
	return a.window
}

// Handle is the host capability surface borrowed by plugins and setup
// hooks. It must not be retained past setup.
type Handle struct {
	app *App
}

// Plugin attaches a plugin immediately. Used by setup hooks that gate
// attachment on build mode.
func (h *Handle) Plugin(p Plugin) error {
	if err := p.Attach(h); err != nil {
		return err
	}
	h.app.log.Debug("Plugin attached", zap.String("plugin", p.ID()))
	return nil
}

// Manifest returns the shell manifest.
func (h *Handle) Manifest() *config.Manifest {
	return h.app.manifest
}

// Logger returns the unified log stream.
func (h *Handle) Logger() *logging.Logger {
	return h.app.log
}

// ReplaceLogger swaps the unified log stream. Called by the log sink
// plugin during setup, before any core log event is emitted.
func (h *Handle) ReplaceLogger(log *logging.Logger) {
	h.app.log = log
	h.app.window.log = log
}

// RegisterCapability exposes a plugin capability for later lookup.
func (h *Handle) RegisterCapability(id string, capability any) {
	h.app.caps[id] = capability
}

// Capability looks up a registered plugin capability.
func (h *Handle) Capability(id string) (any, bool) {
	c, ok := h.app.caps[id]
	return c, ok
}

// OnBeforeQuit registers a hook to run when the host is instructed to
// exit, before Run returns. Hooks run newest first.
func (h *Handle) OnBeforeQuit(fn func(context.Context)) {
	h.app.beforeQuit = append(h.app.beforeQuit, fn)
}

// Quit asks the run loop to exit.
func (h *Handle) Quit() {
	h.app.Quit()
}
