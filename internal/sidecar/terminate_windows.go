//go:build windows

package sidecar

// Terminate asks the child to exit. Windows has no SIGTERM equivalent
// for arbitrary processes, so termination is immediate.
func (h *Handles) Terminate() error {
	return h.cmd.Process.Kill()
}
