// Package config loads the shell manifest and host-level overrides.
//
// The manifest (deskshell.json, or Deskshell.toml for projects that
// prefer TOML) is embedded into the binary at build time and describes
// the product, the main window, the front-end build, and the bundle
// contents: which external binaries ship alongside the shell and which
// resource files the bundler packs.
//
// Host-level knobs (log level, development front-end URL) may be
// overridden through environment variables. The sidecar supervisor
// itself consumes no environment variables or flags.
//
// Example Usage:
//
//	manifest, err := config.FromJSON(embedded)
//	if manifest.DeclaresExternalBin("binaries/backend") { ... }
//
// Environment Variables:
//   - DESKSHELL_LOG_LEVEL
//   - DESKSHELL_DEV_URL
package config
