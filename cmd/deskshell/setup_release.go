//go:build release

package main

import (
	"context"

	"github.com/worklens/deskshell/internal/host"
	"github.com/worklens/deskshell/internal/plugins/shellsvc"
	"github.com/worklens/deskshell/internal/sidecar"
)

// backendBin is the logical name of the packaged backend executable.
const backendBin = "binaries/backend"

// setup is the release-build setup hook: supervise the backend sidecar
// before the main window is presented. Supervision failures are logged
// and never abort startup; the UI surfaces the connectivity error.
func setup(h *host.Handle) error {
	shell, err := shellsvc.FromHandle(h)
	if err != nil {
		return err
	}

	supervisor := sidecar.NewSupervisor(h.Logger())
	supervisor.Supervise(shell, backendBin)

	h.OnBeforeQuit(func(ctx context.Context) {
		supervisor.Shutdown(ctx)
	})
	return nil
}
