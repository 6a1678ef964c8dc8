//go:build !windows

package sidecar

import "syscall"

// Terminate asks the child to exit gracefully.
func (h *Handles) Terminate() error {
	return h.cmd.Process.Signal(syscall.SIGTERM)
}
