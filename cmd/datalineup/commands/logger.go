package commands

import "github.com/khulnasoft/DataLineup/logger"

// InitLogger initializes the global structured logger once per process,
// before any subcommand runs. verbosity is not applied: the logger
// always runs at info level.
func InitLogger(jsonOutput bool, verbosity int) error {
	return logger.Initialize(jsonOutput)
}
