package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/githubnext/wfcheck/pkg/constants"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/spf13/cobra"
)

var validateLog = logger.New("cli:validate_command")

// NewValidateCommand creates the validate command
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [file]...",
		Short: "Validate workflow configuration files",
		Long: `Validate the workflows declared in one or more configuration files.

Each workflow is checked against the schema, its step commands and options are
checked against the workflow command whitelist, and its triggers are checked
against the environments of the project configuration.

If no files are specified, every *garden.yml and *garden.yaml file below the
project directory is validated.

Examples:
  ` + constants.CLIName + ` validate                              # Validate all workflows of the project
  ` + constants.CLIName + ` validate workflows.garden.yml         # Validate a specific file
  ` + constants.CLIName + ` validate -p infra/project.garden.yml  # Use a specific project configuration
  ` + constants.CLIName + ` validate --var image=web:1.2          # Set a template variable
  ` + constants.CLIName + ` validate --output yaml                # Print the resolved workflows
  ` + constants.CLIName + ` validate --json                       # Output results in JSON format
  ` + constants.CLIName + ` validate --watch                      # Re-validate on every change
  ` + constants.CLIName + ` validate --fail-fast                  # Stop at the first error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			dir, _ := cmd.Flags().GetString("dir")
			jsonOutput, _ := cmd.Flags().GetBool("json")
			output, _ := cmd.Flags().GetString("output")
			watch, _ := cmd.Flags().GetBool("watch")
			vars, _ := cmd.Flags().GetStringArray("var")
			failFast, _ := cmd.Flags().GetBool("fail-fast")

			if output != "" && output != "yaml" {
				return fmt.Errorf("unsupported output format '%s': only 'yaml' is supported", output)
			}
			if jsonOutput && output != "" {
				return fmt.Errorf("--json and --output cannot be combined")
			}

			validateLog.Printf("Running validate command: files=%v, project=%s, watch=%v", args, project, watch)

			config := ValidateConfig{
				Files:       args,
				ProjectPath: project,
				Dir:         dir,
				Vars:        vars,
				JSONOutput:  jsonOutput,
				Output:      output,
				FailFast:    failFast,
				Stdout:      cmd.OutOrStdout(),
				Stderr:      cmd.ErrOrStderr(),
			}

			if watch {
				ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer stop()
				return WatchAndValidate(ctx, config)
			}

			_, err := ValidateWorkflows(config)
			return err
		},
	}

	cmd.Flags().StringP("project", "p", "", "Project configuration file (default: project.garden.yml or garden.yml in --dir)")
	cmd.Flags().StringP("dir", "d", "", "Project directory (default: current directory)")
	cmd.Flags().BoolP("json", "j", false, "Output results in JSON format")
	cmd.Flags().StringP("output", "o", "", "Print the resolved workflows in the given format: yaml")
	cmd.Flags().BoolP("watch", "w", false, "Watch configuration files and re-validate on change")
	cmd.Flags().StringArray("var", nil, "Set a template variable, using the format <key>=<value>")
	cmd.Flags().Bool("fail-fast", false, "Stop at the first validation error instead of collecting all errors")

	return cmd
}
