package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for sourcechain
var RootCmd = &cobra.Command{
	Use:              "sourcechain",
	Short:            "agent-centric source chains and a validating DHT",
	TraverseChildren: true,
}
