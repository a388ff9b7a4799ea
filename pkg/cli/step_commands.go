package cli

import (
	"github.com/githubnext/wfcheck/pkg/command"
	"github.com/githubnext/wfcheck/pkg/constants"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/spf13/cobra"
)

var stepCommandsLog = logger.New("cli:step_commands")

// StepCommandTree returns the command tree of the CLI that executes workflow
// steps. Its persistent flags are the global options reserved for the
// top-level invocation; leaves annotated as workflow-eligible may be used as
// step commands.
func StepCommandTree() *cobra.Command {
	root := &cobra.Command{
		Use:   "garden",
		Short: "Command-line interface that runs workflow steps",
	}

	pf := root.PersistentFlags()
	pf.String("root", "", "Override project root directory")
	pf.Bool("silent", false, "Suppress log output")
	pf.String("env", "", "The environment (and optionally namespace) to work against")
	pf.String("logger-type", "", "Set logger type: default, basic, json or ink")
	pf.StringP("log-level", "l", "info", "Set logging level: error, warn, info, verbose, debug or silly")
	pf.StringP("output", "o", "", "Output command result in the specified format: json or yaml")
	pf.Bool("emoji", false, "Enable emoji in output")
	pf.Bool("show-timestamps", false, "Show timestamps with log output")
	pf.BoolP("yes", "y", false, "Automatically approve any yes/no prompts")
	pf.Bool("force-refresh", false, "Force refresh of any caches")
	pf.StringSlice("var", nil, "Set a specific variable value, using the format <key>=<value>")
	pf.Bool("disable-port-forwards", false, "Disable automatic port forwarding")

	build := eligible(&cobra.Command{Use: "build [names]...", Short: "Build images"})
	build.Flags().Bool("force", false, "Force re-build")
	build.Flags().Bool("with-dependants", false, "Also build dependants")

	deploy := eligible(&cobra.Command{Use: "deploy [names]...", Short: "Deploy actions to the environment"})
	deploy.Flags().Bool("force", false, "Force re-deploy")
	deploy.Flags().Bool("force-build", false, "Force re-build of build dependencies")
	deploy.Flags().StringSlice("sync", nil, "Deploy the specified actions with sync enabled")
	deploy.Flags().StringSlice("skip", nil, "Names of deploys to skip")
	deploy.Flags().Bool("with-dependants", false, "Also deploy dependants")

	test := eligible(&cobra.Command{Use: "test [names]...", Short: "Run all or specified tests"})
	test.Flags().Bool("force", false, "Force re-run of tests")
	test.Flags().Bool("force-build", false, "Force re-build of build dependencies")
	test.Flags().StringSlice("name", nil, "Only run tests with the specified names")
	test.Flags().Bool("skip-dependencies", false, "Don't run dependencies of the tests")

	publish := eligible(&cobra.Command{Use: "publish [names]...", Short: "Build and publish images"})
	publish.Flags().Bool("force-build", false, "Force re-build before publishing")
	publish.Flags().String("tag", "", "Override the image tag")

	runTask := eligible(&cobra.Command{Use: "task <name>", Short: "Run a task"})
	runTask.Flags().Bool("force", false, "Run even if the task is up to date")
	runTask.Flags().Bool("force-build", false, "Force re-build of build dependencies")

	runTest := eligible(&cobra.Command{Use: "test <name>", Short: "Run a test"})
	runTest.Flags().Bool("force", false, "Run even if the test is up to date")
	runTest.Flags().Bool("interactive", false, "Run interactively")

	run := &cobra.Command{Use: "run", Short: "Run ad-hoc instances of actions"}
	run.AddCommand(runTask, runTest)

	deleteEnv := eligible(&cobra.Command{Use: "environment", Short: "Delete a running environment"})
	deleteEnv.Flags().Bool("dependants-first", false, "Delete dependants before their dependencies")
	deleteDeploy := eligible(&cobra.Command{Use: "deploy [names]...", Short: "Delete deployed actions"})
	deleteDeploy.Flags().Bool("with-dependants", false, "Also delete dependants")

	del := &cobra.Command{Use: "delete", Short: "Delete configuration or objects"}
	del.AddCommand(deleteEnv, deleteDeploy)

	getOutputs := eligible(&cobra.Command{Use: "outputs", Short: "Resolve and print project outputs"})
	getStatus := &cobra.Command{Use: "status", Short: "Print the status of the environment"}

	get := &cobra.Command{Use: "get", Short: "Retrieve information about the project"}
	get.AddCommand(getOutputs, getStatus)

	login := &cobra.Command{Use: "login", Short: "Log in to the platform"}
	dev := &cobra.Command{Use: "dev", Short: "Start the interactive development console"}

	root.AddCommand(build, deploy, test, publish, run, del, get, login, dev)
	return root
}

func eligible(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[constants.WorkflowEligibleAnnotation] = "true"
	return cmd
}

// StepCommandSet is what step validation needs from the step command tree.
type StepCommandSet struct {
	Registry *command.Registry
	Parser   *command.FlagParser
	Reserved command.ReservedFlags
}

// NewStepCommandSet derives the command registry, argument parser and
// reserved flags from a step command tree. Build it once and share it.
func NewStepCommandSet(root *cobra.Command) StepCommandSet {
	global := command.GlobalFlagsFromCobra(root)
	set := StepCommandSet{
		Registry: command.NewRegistry(command.DescriptorsFromCobra(root)...),
		Parser:   command.NewFlagParser(global...),
		Reserved: command.ReservedFlagsOf(global),
	}
	stepCommandsLog.Printf("Built step command set: commands=%d, reserved=%d", len(set.Registry.WorkflowCommands()), set.Reserved.Len())
	return set
}
