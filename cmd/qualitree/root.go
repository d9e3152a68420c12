package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/charlesng35/qualitree/internal/app"
	"github.com/charlesng35/qualitree/pkg/logger"
)

type rootOptions struct {
	configPath string
	// generated lists secrets filled in at startup rather than read from config.
	generated map[string]bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	serve := newServeCommand(opts)
	root := &cobra.Command{
		Use:           "qualitree",
		Short:         "Functionality tree service for quality reporting",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration directory or file")

	root.AddCommand(serve, newMigrateCommand(opts), newSeedCommand(opts), newTokenCommand(opts))
	return root
}

// loadConfig reads configuration, fills runtime defaults and configures logging.
func (o *rootOptions) loadConfig() (*app.Config, error) {
	cfg, err := loadApplicationConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return nil, err
	}
	o.generated = generated

	if err := app.ConfigureLogging(cfg.Server.LogLevel, cfg.Server.LogFormat); err != nil {
		return nil, fmt.Errorf("configure logging: %w", err)
	}

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Warn("generated ephemeral runtime secret; tokens will not survive a restart", zap.String("key", key))
	}
	return cfg, nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return app.LoadConfig(path)
	case err == nil:
		return app.LoadConfig(filepath.Dir(path))
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	default:
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}
