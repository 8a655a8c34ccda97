package logging

import (
	"go.uber.org/zap"
)

// New builds the process logger. Debug selects the development encoder at
// debug level; otherwise production JSON at warn level so normal CLI runs
// stay quiet. When path is non-empty, output goes there instead of stderr
// (the TUI owns the terminal while it runs).
func New(debug bool, path string) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	if path != "" {
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	} else {
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
	}

	return cfg.Build()
}
