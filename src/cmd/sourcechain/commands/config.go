package commands

import (
	"github.com/mosaicnetworks/sourcechain/src/config"
)

//CLIConfig contains configuration for the Run command
type CLIConfig struct {
	Sourcechain config.Config `mapstructure:",squash"`

	// LogFiles writes info and debug logs to files in the data dir.
	LogFiles bool `mapstructure:"log-files"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Sourcechain: *config.NewDefaultConfig(),
		LogFiles:    false,
	}
}
