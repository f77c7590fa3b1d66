package app

import (
	"strings"

	"github.com/farmiq/farmiq/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level, defaulting to info.
// Non-production environments get the console encoder.
func ConfigureLogging(level string, production bool) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	return logger.Init(level, logger.Options{Development: !production})
}
