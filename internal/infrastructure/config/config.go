package config

import (
	"fmt"
	"path"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/bytedance/sonic"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Manifest describes the shell bundle: product identity, main window,
// front-end build, and packaged contents.
type Manifest struct {
	ProductName string       `json:"productName" toml:"productName"`
	Identifier  string       `json:"identifier" toml:"identifier"`
	Window      WindowConfig `json:"window" toml:"window"`
	Build       BuildConfig  `json:"build" toml:"build"`
	Bundle      BundleConfig `json:"bundle" toml:"bundle"`
}

// WindowConfig holds main window settings.
type WindowConfig struct {
	Title  string `json:"title" toml:"title"`
	Width  int    `json:"width" toml:"width"`
	Height int    `json:"height" toml:"height"`
	// Host and Port bind the loopback listener that serves the embedded
	// front-end bundle to the webview. Port 0 picks a free port.
	Host string `json:"host" toml:"host"`
	Port int    `json:"port" toml:"port"`
}

// BuildConfig holds front-end build settings.
type BuildConfig struct {
	// DevURL is the address of the front-end dev server. When set in a
	// development build, the window navigates there instead of the
	// embedded bundle.
	DevURL string `json:"devUrl" toml:"devUrl"`
}

// BundleConfig declares what ships alongside the shell executable.
type BundleConfig struct {
	// ExternalBin lists logical names of co-packaged executables. Only
	// declared names can be resolved into sidecar commands.
	ExternalBin []string `json:"externalBin" toml:"externalBin"`
	// Resources lists glob patterns of packaged resource files.
	Resources []string `json:"resources" toml:"resources"`
}

// Overrides holds host-level environment overrides.
type Overrides struct {
	LogLevel string `envconfig:"DESKSHELL_LOG_LEVEL" default:""`
	DevURL   string `envconfig:"DESKSHELL_DEV_URL" default:""`
}

// FromJSON parses a JSON manifest.
func FromJSON(data []byte) (*Manifest, error) {
	var m Manifest
	if err := sonic.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.applyDefaults()
	return &m, nil
}

// FromTOML parses a TOML manifest.
func FromTOML(data []byte) (*Manifest, error) {
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	m.applyDefaults()
	return &m, nil
}

// LoadOverrides reads host-level overrides from the environment.
func LoadOverrides() (*Overrides, error) {
	var o Overrides
	if err := envconfig.Process("", &o); err != nil {
		return nil, fmt.Errorf("failed to load overrides: %w", err)
	}
	return &o, nil
}

// Apply folds environment overrides into the manifest.
func (m *Manifest) Apply(o *Overrides) {
	if o == nil {
		return
	}
	if o.DevURL != "" {
		m.Build.DevURL = o.DevURL
	}
}

// DeclaresExternalBin reports whether the logical name is declared in
// the bundle. Declarations may be glob patterns.
func (m *Manifest) DeclaresExternalBin(name string) bool {
	for _, pattern := range m.Bundle.ExternalBin {
		if pattern == name {
			return true
		}
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// MatchesResource reports whether a bundle-relative path matches one of
// the declared resource patterns.
func (m *Manifest) MatchesResource(rel string) bool {
	rel = path.Clean(rel)
	for _, pattern := range m.Bundle.Resources {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func (m *Manifest) applyDefaults() {
	if m.Window.Title == "" {
		m.Window.Title = m.ProductName
	}
	if m.Window.Width <= 0 {
		m.Window.Width = 1280
	}
	if m.Window.Height <= 0 {
		m.Window.Height = 800
	}
	if m.Window.Host == "" {
		m.Window.Host = "127.0.0.1"
	}
}
