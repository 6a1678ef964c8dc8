// Package logsink implements the log sink adapter: a plugin that
// routes the shell's diagnostic events into the host's unified log
// stream with a configurable minimum level.
//
// The plugin is attached in development builds only, before any log
// event is emitted from the supervision core. Attachment failure is
// fatal to setup: a shell that cannot log is structurally broken.
package logsink

import (
	"fmt"

	"github.com/worklens/deskshell/internal/host"
	"github.com/worklens/deskshell/internal/infrastructure/logging"
)

// ID is the plugin identifier.
const ID = "log"

// Config controls the attached sink.
type Config struct {
	// Level is the minimum level routed to the sink. Defaults to info.
	Level string
	// OutputPaths overrides where the sink writes. Defaults to stdout.
	OutputPaths []string
}

// Plugin is the log sink adapter.
type Plugin struct {
	cfg Config
}

// Init creates the plugin with the given configuration.
func Init(cfg Config) *Plugin {
	return &Plugin{cfg: cfg}
}

// ID implements host.Plugin.
func (p *Plugin) ID() string {
	return ID
}

// Attach builds the development console sink and installs it as the
// host's unified log stream. Attachment is atomic: on error the
// previous stream stays in place and setup aborts.
func (p *Plugin) Attach(h *host.Handle) error {
	cfg := logging.DevelopmentConfig()
	if p.cfg.Level != "" {
		cfg.Level = p.cfg.Level
	}
	if len(p.cfg.OutputPaths) > 0 {
		cfg.OutputPaths = p.cfg.OutputPaths
	}

	log, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to attach log sink: %w", err)
	}

	h.ReplaceLogger(log)
	return nil
}
