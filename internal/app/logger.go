package app

import (
	"strings"

	"github.com/charlesng35/qualitree/pkg/logger"
)

// ConfigureLogging initialises the global logger, defaulting to info level and JSON output.
func ConfigureLogging(level, format string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	format = strings.TrimSpace(format)
	if format == "" {
		format = "json"
	}
	return logger.InitWithFormat(level, format)
}
