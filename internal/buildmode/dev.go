//go:build !release

package buildmode

// IsRelease reports whether this binary was built for distribution.
// Development binaries never spawn the sidecar; the operator runs the
// backend independently. The release path is not compiled in.
const IsRelease = false

// Name identifies the build mode in log output.
const Name = "dev"
