package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/githubnext/wfcheck/pkg/console"
	"github.com/githubnext/wfcheck/pkg/constants"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/githubnext/wfcheck/pkg/workflow"
	"github.com/spf13/cobra"
)

var matchLog = logger.New("cli:match_command")

// MatchConfig holds the options of the match command.
type MatchConfig struct {
	ValidateConfig
	Event workflow.RepositoryEvent
}

// NewMatchCommand creates the match command, which shows the workflow runs a
// repository event would start.
func NewMatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match [file]...",
		Short: "Show the workflow runs a repository event would trigger",
		Long: `Resolve the workflows of the project and show, for a repository event, every
trigger that fires with the environment and namespace the run is bound to.

Invalid workflows are reported and skipped.

Examples:
  ` + constants.CLIName + ` match --event push --branch main
  ` + constants.CLIName + ` match --event pull-request-opened --branch feature/login
  ` + constants.CLIName + ` match --event push --tag v1.2.0 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, _ := cmd.Flags().GetString("project")
			dir, _ := cmd.Flags().GetString("dir")
			vars, _ := cmd.Flags().GetStringArray("var")
			jsonOutput, _ := cmd.Flags().GetBool("json")
			event, _ := cmd.Flags().GetString("event")
			branch, _ := cmd.Flags().GetString("branch")
			tag, _ := cmd.Flags().GetString("tag")

			if !slices.Contains(constants.TriggerEvents, event) {
				return fmt.Errorf("unknown event '%s': valid events are %s", event, strings.Join(constants.TriggerEvents, ", "))
			}

			return MatchWorkflows(MatchConfig{
				ValidateConfig: ValidateConfig{
					Files:       args,
					ProjectPath: project,
					Dir:         dir,
					Vars:        vars,
					JSONOutput:  jsonOutput,
					Stdout:      cmd.OutOrStdout(),
					Stderr:      cmd.ErrOrStderr(),
				},
				Event: workflow.RepositoryEvent{Type: event, Branch: branch, Tag: tag},
			})
		},
	}

	cmd.Flags().StringP("project", "p", "", "Project configuration file (default: project.garden.yml or garden.yml in --dir)")
	cmd.Flags().StringP("dir", "d", "", "Project directory (default: current directory)")
	cmd.Flags().StringArray("var", nil, "Set a template variable, using the format <key>=<value>")
	cmd.Flags().BoolP("json", "j", false, "Output the matching runs in JSON format")
	cmd.Flags().StringP("event", "e", "push", "Repository event type")
	cmd.Flags().StringP("branch", "b", "", "Branch the event happened on")
	cmd.Flags().StringP("tag", "t", "", "Tag the event refers to")

	return cmd
}

// MatchWorkflows resolves the workflows and prints the runs that the event
// would trigger.
func MatchWorkflows(config MatchConfig) error {
	config.ValidateConfig = config.withDefaultWriters()
	resolver, files, err := prepareValidation(config.ValidateConfig)
	if err != nil {
		return err
	}
	results := runValidation(resolver, files, false)

	var runs []*workflow.WorkflowRunConfig
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintln(config.Stderr, FormatValidationError(r.Err))
			continue
		}
		for _, w := range r.Workflows {
			if !w.Valid {
				fmt.Fprintln(config.Stderr, console.FormatWarningMessage(
					fmt.Sprintf("%s: skipping invalid workflow '%s'", r.File, w.Name)))
				continue
			}
			runs = append(runs, workflow.RunConfigsFor(w.Config, config.Event)...)
		}
	}
	matchLog.Printf("Event %+v matched %d runs", config.Event, len(runs))

	return printRuns(config, runs)
}

func printRuns(config MatchConfig, runs []*workflow.WorkflowRunConfig) error {
	if config.JSONOutput {
		enc := json.NewEncoder(config.Stdout)
		enc.SetIndent("", "  ")
		if runs == nil {
			runs = []*workflow.WorkflowRunConfig{}
		}
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(config.Stderr, console.FormatInfoMessage("No workflow is triggered by this event"))
		return nil
	}
	writeRunsTable(config.Stdout, runs)
	return nil
}

// runRow is one line of the triggered runs table.
type runRow struct {
	Workflow    string  `console:"header:Workflow"`
	Environment string  `console:"header:Environment"`
	Namespace   string  `console:"header:Namespace,default:-"`
	Steps       int     `console:"header:Steps"`
	KeepAlive   float64 `console:"header:Keep Alive (h)"`
}

func writeRunsTable(w io.Writer, runs []*workflow.WorkflowRunConfig) {
	rows := make([]runRow, len(runs))
	for i, run := range runs {
		rows[i] = runRow{
			Workflow:    run.Name,
			Environment: run.Environment,
			Namespace:   run.Namespace,
			Steps:       len(run.Steps),
			KeepAlive:   run.KeepAliveHours,
		}
	}
	fmt.Fprint(w, console.RenderSlice("Triggered workflow runs", rows))
}
