// Package logging provides the shell's unified log stream using uber/zap.
//
// Two modes mirror the two build modes of the shell:
//   - Release: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Every diagnostic event the shell emits (plugin attachment, sidecar
// supervision outcomes, window lifecycle) flows through a single Logger
// owned by the host application.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Backend sidecar started successfully", zap.Int("pid", pid))
//	logger.Error("Failed to start backend sidecar", zap.Error(err))
package logging
