package util

import (
	"path/filepath"

	"go.uber.org/zap"
)

// NewLogger builds the process logger. Output goes to a file under the
// config directory rather than the terminal so it never interleaves with
// command output; verbose switches to development encoding with debug
// level.
func NewLogger(configDir string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.OutputPaths = []string{filepath.Join(configDir, "mailpane.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	return cfg.Build()
}
