package commands

//CLIConfig contains the configuration of the dummy validation engine
type CLIConfig struct {
	Listen   string `mapstructure:"listen"`
	Discard  bool   `mapstructure:"discard"`
	LogLevel string `mapstructure:"log"`
}

//NewDefaultCLIConfig creates a CLIConfig with default values
func NewDefaultCLIConfig() *CLIConfig {
	return &CLIConfig{
		Listen:   "127.0.0.1:1339",
		Discard:  false,
		LogLevel: "debug",
	}
}
