package cli

import (
	"fmt"
	"strings"

	"github.com/githubnext/wfcheck/pkg/command"
	"github.com/githubnext/wfcheck/pkg/console"
	"github.com/spf13/cobra"
)

// NewCommandsCommand creates the commands command, which prints the commands
// that may be used as workflow steps.
func NewCommandsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands that workflow steps may run",
		Long: `List the commands that workflow steps may run, with the options each accepts.

Global options are reserved for the top-level invocation and cannot be set on
a step.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := NewStepCommandSet(StepCommandTree())
			fmt.Fprint(cmd.OutOrStdout(), console.RenderSlice("Workflow commands", commandRows(set)))
			fmt.Fprintln(cmd.OutOrStdout(), console.FormatInfoMessage(
				"Reserved global options: "+joinOptions(set.Reserved.Names())))
			return nil
		},
	}
}

// commandRow is one line of the workflow commands table.
type commandRow struct {
	Command string   `console:"header:Command"`
	Options []string `console:"header:Options,default:-"`
}

func commandRows(set StepCommandSet) []commandRow {
	var rows []commandRow
	for _, c := range set.Registry.WorkflowCommands() {
		opts := stepOptions(c, set.Reserved)
		for i, o := range opts {
			opts[i] = "--" + o
		}
		rows = append(rows, commandRow{Command: c.PathString(), Options: opts})
	}
	return rows
}

func stepOptions(c command.Command, reserved command.ReservedFlags) []string {
	var names []string
	for _, name := range c.FlagNames() {
		if !reserved.Contains(name) {
			names = append(names, name)
		}
	}
	return names
}

func joinOptions(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	opts := make([]string, len(names))
	for i, n := range names {
		opts[i] = "--" + n
	}
	return strings.Join(opts, ", ")
}
