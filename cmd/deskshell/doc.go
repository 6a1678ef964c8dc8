// Package main is the entry point for the Worklens desktop shell.
//
// The shell owns the main application window and, in release builds,
// supervises the co-packaged backend executable as a child process.
//
// Architecture:
//
//	Webview (frontend bundle) → Backend sidecar (loopback HTTP)
//	Shell → supervises sidecar, serves bundle, routes diagnostics
//
// Build modes (selected with the "release" build tag):
//
//	# Release: spawn the packaged backend sidecar
//	go build -tags release ./cmd/deskshell
//
//	# Development: operator starts the backend by hand
//	go build ./cmd/deskshell
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown; the sidecar is terminated
//     before the shell exits.
package main
