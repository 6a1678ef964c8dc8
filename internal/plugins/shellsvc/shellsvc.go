// Package shellsvc implements the shell services adapter: the host
// capability that invokes co-packaged executables. It is registered
// unconditionally so that any operation (sidecar supervision, future
// helper tools) can rely on it.
package shellsvc

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/worklens/deskshell/internal/host"
	"github.com/worklens/deskshell/internal/infrastructure/config"
	"github.com/worklens/deskshell/internal/sidecar"
)

// ID is the plugin identifier and capability key.
const ID = "shell"

// ErrNotDeclared means a logical name was requested that the bundle
// manifest does not declare as an external binary.
var ErrNotDeclared = errors.New("sidecar not declared in bundle manifest")

// ErrNotRegistered means the shell services plugin was not attached
// before the capability was requested.
var ErrNotRegistered = errors.New("shell services capability not registered")

// Plugin registers the Shell capability with the host.
type Plugin struct {
	baseDir string
}

// Init creates the plugin. The bundle directory defaults to the
// directory of the shell executable.
func Init() *Plugin {
	return &Plugin{}
}

// WithBaseDir overrides bundle location. Used by tests.
func (p *Plugin) WithBaseDir(dir string) *Plugin {
	p.baseDir = dir
	return p
}

// ID implements host.Plugin.
func (p *Plugin) ID() string {
	return ID
}

// Attach implements host.Plugin.
func (p *Plugin) Attach(h *host.Handle) error {
	dir := p.baseDir
	if dir == "" {
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate shell executable: %w", err)
		}
		dir = filepath.Dir(exe)
	}
	h.RegisterCapability(ID, NewShell(dir, h.Manifest()))
	return nil
}

// FromHandle returns the Shell capability registered by the plugin.
func FromHandle(h *host.Handle) (*Shell, error) {
	c, ok := h.Capability(ID)
	if !ok {
		return nil, ErrNotRegistered
	}
	shell, ok := c.(*Shell)
	if !ok {
		return nil, ErrNotRegistered
	}
	return shell, nil
}

// Shell invokes co-packaged executables and resolves packaged
// resources. All lookups are confined to the bundle directory.
type Shell struct {
	baseDir  string
	manifest *config.Manifest
}

// NewShell creates the capability for a bundle directory.
func NewShell(baseDir string, manifest *config.Manifest) *Shell {
	return &Shell{baseDir: baseDir, manifest: manifest}
}

// Sidecar resolves a logical binary name to the packaged executable
// and constructs a single-use spawn command. The name must be declared
// in the bundle manifest, and the executable must exist next to the
// shell, suffixed by target triple per packaging convention.
func (s *Shell) Sidecar(name string) (*sidecar.Command, error) {
	if !s.manifest.DeclaresExternalBin(name) {
		return nil, fmt.Errorf("%w: %s", ErrNotDeclared, name)
	}

	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	return &sidecar.Command{Path: path, Dir: s.baseDir}, nil
}

// ResourcePath resolves a bundle-relative resource path, if the
// manifest declares it and the file was packaged.
func (s *Shell) ResourcePath(rel string) (string, error) {
	if !s.manifest.MatchesResource(rel) {
		return "", fmt.Errorf("resource not declared in bundle manifest: %s", rel)
	}
	abs := filepath.Join(s.baseDir, filepath.FromSlash(rel))
	if _, err := os.Stat(abs); err != nil {
		return "", fmt.Errorf("resource not packaged: %w", err)
	}
	return abs, nil
}

// resolve maps a logical name to the packaged executable: the base
// name suffixed with the host target triple, falling back to the bare
// name, with the platform executable suffix applied.
func (s *Shell) resolve(name string) (string, error) {
	base := filepath.Base(filepath.FromSlash(name))

	candidates := []string{
		base + "-" + targetTriple() + exeSuffix,
		base + exeSuffix,
	}

	for _, candidate := range candidates {
		abs := filepath.Join(s.baseDir, candidate)
		info, err := os.Stat(abs)
		if err == nil && info.Mode().IsRegular() {
			return abs, nil
		}
	}

	return "", fmt.Errorf("no packaged executable for %s in %s (tried %v)", name, s.baseDir, candidates)
}
