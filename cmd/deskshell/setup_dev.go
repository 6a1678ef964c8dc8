//go:build !release

package main

import (
	"github.com/worklens/deskshell/internal/host"
	"github.com/worklens/deskshell/internal/plugins/logsink"
)

// setup is the development-build setup hook: attach the log sink and
// tell the operator to start the backend by hand. No spawn attempt is
// compiled into this binary.
func setup(h *host.Handle) error {
	if err := h.Plugin(logsink.Init(logsink.Config{Level: "info"})); err != nil {
		return err
	}

	h.Logger().Info("Debug mode: backend should be started manually with 'uvicorn app.main:app --reload'")
	return nil
}
