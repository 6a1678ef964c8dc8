package main

import (
	"context"
	_ "embed"
	"log"

	"go.uber.org/zap"

	"github.com/worklens/deskshell/internal/buildmode"
	"github.com/worklens/deskshell/internal/host"
	"github.com/worklens/deskshell/internal/infrastructure/config"
	"github.com/worklens/deskshell/internal/infrastructure/logging"
	"github.com/worklens/deskshell/internal/plugins/shellsvc"
	"github.com/worklens/deskshell/web"
)

//go:embed deskshell.json
var manifestJSON []byte

func main() {
	manifest, err := config.FromJSON(manifestJSON)
	if err != nil {
		log.Fatalf("Failed to load shell manifest: %v", err)
	}

	overrides, err := config.LoadOverrides()
	if err != nil {
		log.Fatalf("Failed to load overrides: %v", err)
	}
	manifest.Apply(overrides)

	logger := newLogger(overrides)
	defer logger.Sync()

	logger.Info("Starting deskshell",
		zap.String("product", manifest.ProductName),
		zap.String("mode", buildmode.Name),
	)

	app := host.New(manifest, logger).
		Plugin(shellsvc.Init()).
		Setup(setup).
		Assets(web.Dist()).
		Build()

	if err := app.Run(context.Background()); err != nil {
		logger.Fatal("error while running deskshell application", zap.Error(err))
	}
}

// newLogger builds the initial unified log stream. In development
// builds the log sink plugin replaces it during setup.
func newLogger(o *config.Overrides) *logging.Logger {
	cfg := logging.DefaultConfig()
	cfg.Development = !buildmode.IsRelease
	if o.LogLevel != "" {
		cfg.Level = o.LogLevel
	}
	logger, err := logging.New(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}
