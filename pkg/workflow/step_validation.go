package workflow

import (
	"slices"
	"sort"

	"github.com/githubnext/wfcheck/pkg/command"
	"github.com/githubnext/wfcheck/pkg/logger"
)

var stepValidationLog = logger.New("workflow:step_validation")

// ValidateStepCommands checks that every command step starts with the path
// of a workflow-eligible command. All offending steps are reported in a
// single invalidStepCommand error.
func ValidateStepCommands(cfg *WorkflowConfig, commands []command.Command) error {
	var findings []StepCommandFinding
	for i, step := range cfg.Steps {
		if f := checkStepCommand(i, step, commands); f != nil {
			findings = append(findings, *f)
		}
	}
	if len(findings) == 0 {
		return nil
	}

	stepValidationLog.Printf("Workflow %s has %d steps with invalid commands", cfg.Name, len(findings))
	return newStepCommandError(cfg.Name, findings, commandPrefixes(commands))
}

func checkStepCommand(index int, step WorkflowStepSpec, commands []command.Command) *StepCommandFinding {
	if !step.IsCommand() {
		return nil
	}
	if matchCommand(step.Command, commands) != nil {
		return nil
	}
	return &StepCommandFinding{Index: index, Step: step.Label(index), Command: step.Command}
}

// matchCommand returns the first command whose path prefixes tokens.
func matchCommand(tokens []string, commands []command.Command) *command.Command {
	for i := range commands {
		if commands[i].HasPrefixOf(tokens) {
			return &commands[i]
		}
	}
	return nil
}

func commandPrefixes(commands []command.Command) []string {
	prefixes := make([]string, 0, len(commands))
	for _, c := range commands {
		prefixes = append(prefixes, c.PathString())
	}
	sort.Strings(prefixes)
	return slices.Compact(prefixes)
}

// ArgumentParser parses the arguments of a step command the way the CLI
// would at run time.
type ArgumentParser interface {
	Parse(tokens []string, cmd command.Command) (map[string]any, error)
}

// ValidateStepOptions checks that no command step sets a reserved global
// option. Steps whose command matches no workflow command are skipped. A
// step whose arguments fail to parse is reported as a finding too.
func ValidateStepOptions(cfg *WorkflowConfig, commands []command.Command, parser ArgumentParser, reserved command.ReservedFlags) error {
	var findings []StepOptionFinding
	for i, step := range cfg.Steps {
		if f := checkStepOptions(i, step, commands, parser, reserved); f != nil {
			findings = append(findings, *f)
		}
	}
	if len(findings) == 0 {
		return nil
	}

	stepValidationLog.Printf("Workflow %s has %d steps with invalid options", cfg.Name, len(findings))
	return newStepOptionError(cfg.Name, findings)
}

func checkStepOptions(index int, step WorkflowStepSpec, commands []command.Command, parser ArgumentParser, reserved command.ReservedFlags) *StepOptionFinding {
	if !step.IsCommand() {
		return nil
	}
	cmd := matchCommand(step.Command, commands)
	if cmd == nil {
		return nil
	}

	finding := &StepOptionFinding{
		Index:       index,
		Step:        step.Label(index),
		Command:     step.Command,
		CommandPath: cmd.PathString(),
	}

	args, err := parser.Parse(step.Command[len(cmd.Path):], *cmd)
	if err != nil {
		finding.ParseError = err.Error()
		return finding
	}

	for name, value := range args {
		if reserved.Contains(name) && isTruthy(value) {
			finding.InvalidOptions = append(finding.InvalidOptions, name)
		}
	}
	if len(finding.InvalidOptions) == 0 {
		return nil
	}
	sort.Strings(finding.InvalidOptions)

	for _, name := range cmd.FlagNames() {
		if !reserved.Contains(name) {
			finding.ValidOptions = append(finding.ValidOptions, name)
		}
	}
	return finding
}

// ValidateSteps runs the command and option checks and combines their
// errors. When both fail the result is an invalidSteps error carrying both.
func ValidateSteps(cfg *WorkflowConfig, commands []command.Command, parser ArgumentParser, reserved command.ReservedFlags) error {
	collector := NewErrorCollector(false)
	_ = collector.Add(ValidateStepCommands(cfg, commands))
	_ = collector.Add(ValidateStepOptions(cfg, commands, parser, reserved))
	return collector.StepError(cfg.Name)
}
