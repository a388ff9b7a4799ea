package main

import (
	"fmt"
	"os"

	"github.com/githubnext/wfcheck/pkg/cli"
	"github.com/githubnext/wfcheck/pkg/console"
	"github.com/githubnext/wfcheck/pkg/constants"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/spf13/cobra"
)

var mainLog = logger.New("cli:main")

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   constants.CLIName,
	Short: "Validate workflow configuration before it runs",
	Long: `Validate workflow configuration before it runs.

Workflows are declared in YAML configuration files next to the project
configuration. ` + constants.CLIName + ` resolves their templates, checks them against the
schema, checks that every step runs a whitelisted command with options it
accepts, and checks that every trigger targets a declared environment.

Common Tasks:
  ` + constants.CLIName + ` validate              # Validate every workflow of the project
  ` + constants.CLIName + ` validate --watch      # Re-validate on every change
  ` + constants.CLIName + ` match --branch main   # Show the runs a push to main would start
  ` + constants.CLIName + ` commands              # List the commands steps may run

For detailed help on any command, use:
  ` + constants.CLIName + ` [command] --help`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), console.FormatInfoMessage(fmt.Sprintf("%s version %s", constants.CLIName, version)))
	},
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: "validation", Title: "Validation Commands:"})
	rootCmd.AddGroup(&cobra.Group{ID: "reference", Title: "Reference Commands:"})

	validateCmd := cli.NewValidateCommand()
	validateCmd.GroupID = "validation"
	matchCmd := cli.NewMatchCommand()
	matchCmd.GroupID = "validation"
	commandsCmd := cli.NewCommandsCommand()
	commandsCmd.GroupID = "reference"

	rootCmd.AddCommand(validateCmd, matchCmd, commandsCmd, versionCmd)
	rootCmd.Version = version
}

func main() {
	mainLog.Printf("Starting %s %s", constants.CLIName, version)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatValidationError(err))
		os.Exit(1)
	}
}
