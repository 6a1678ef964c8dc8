package host

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/worklens/deskshell/internal/infrastructure/config"
	"github.com/worklens/deskshell/internal/infrastructure/logging"
)

func testManifest(t *testing.T) *config.Manifest {
	t.Helper()
	m, err := config.FromJSON([]byte(`{"productName": "Worklens"}`))
	require.NoError(t, err)
	return m
}

func testAssets() fstest.MapFS {
	return fstest.MapFS{
		"index.html": &fstest.MapFile{Data: []byte("<html><body>Worklens</body></html>")},
	}
}

type failingPlugin struct{}

func (failingPlugin) ID() string           { return "boom" }
func (failingPlugin) Attach(*Handle) error { return errors.New("attach rejected") }

type recordingPlugin struct{ attached bool }

func (p *recordingPlugin) ID() string { return "recorder" }
func (p *recordingPlugin) Attach(h *Handle) error {
	p.attached = true
	h.RegisterCapability(p.ID(), p)
	return nil
}

func TestRunPluginFailureAbortsBeforeWindow(t *testing.T) {
	app := New(testManifest(t), logging.NewNop()).
		Plugin(failingPlugin{}).
		Assets(testAssets()).
		Build()

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plugin boom")
	assert.False(t, app.Window().Presented())
}

func TestRunSetupFailureAbortsBeforeWindow(t *testing.T) {
	app := New(testManifest(t), logging.NewNop()).
		Setup(func(h *Handle) error { return errors.New("setup rejected") }).
		Assets(testAssets()).
		Build()

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.False(t, app.Window().Presented())
}

func TestRunPresentsWindowAfterSetup(t *testing.T) {
	var app *App
	var presentedDuringSetup bool
	var beforeQuitRan bool

	plugin := &recordingPlugin{}
	app = New(testManifest(t), logging.NewNop()).
		Plugin(plugin).
		Setup(func(h *Handle) error {
			presentedDuringSetup = app.Window().Presented()

			// Plugins attach before setup hooks run.
			_, ok := h.Capability("recorder")
			assert.True(t, ok)

			h.OnBeforeQuit(func(context.Context) { beforeQuitRan = true })
			return nil
		}).
		Assets(testAssets()).
		Build()

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		return app.Window().Presented()
	}, 5*time.Second, 10*time.Millisecond)

	app.Quit()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not exit")
	}

	assert.True(t, plugin.attached)
	assert.False(t, presentedDuringSetup)
	assert.True(t, beforeQuitRan)
}

func TestRunHonorsContextCancellation(t *testing.T) {
	app := New(testManifest(t), logging.NewNop()).
		Assets(testAssets()).
		Build()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		return app.Window().Presented()
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not exit on context cancellation")
	}
}

func TestQuitIsIdempotent(t *testing.T) {
	app := New(testManifest(t), logging.NewNop()).Build()
	app.Quit()
	app.Quit()
}
