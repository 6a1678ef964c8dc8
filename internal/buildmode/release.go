//go:build release

package buildmode

// IsRelease reports whether this binary was built for distribution.
// Release binaries supervise the packaged backend sidecar; the
// development path is not compiled in.
const IsRelease = true

// Name identifies the build mode in log output.
const Name = "release"
