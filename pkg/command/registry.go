package command

import (
	"slices"

	"github.com/githubnext/wfcheck/pkg/constants"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var registryLog = logger.New("command:registry")

// Registry holds the flattened whitelist of workflow-eligible commands.
// It is computed once at construction and is read-only afterwards.
type Registry struct {
	commands []Command
}

// NewRegistry flattens the descriptor tree into a Registry.
func NewRegistry(descriptors ...Descriptor) *Registry {
	commands := Flatten(descriptors)
	registryLog.Printf("Built command registry: descriptors=%d, workflow_commands=%d", len(descriptors), len(commands))
	return &Registry{commands: commands}
}

// WorkflowCommands returns the whitelisted commands in declaration order.
func (r *Registry) WorkflowCommands() []Command {
	return slices.Clone(r.commands)
}

// Paths returns the whitelisted command paths.
func (r *Registry) Paths() [][]string {
	paths := make([][]string, 0, len(r.commands))
	for _, c := range r.commands {
		paths = append(paths, slices.Clone(c.Path))
	}
	return paths
}

// DescriptorsFromCobra converts the sub-commands of root into descriptors.
// Commands with sub-commands become groups; the rest become leaves, eligible
// when annotated with constants.WorkflowEligibleAnnotation. Cobra's built-in
// help and completion commands are skipped.
func DescriptorsFromCobra(root *cobra.Command) []Descriptor {
	return descriptorsFromCobra(root.Commands(), nil)
}

func descriptorsFromCobra(cmds []*cobra.Command, parent []string) []Descriptor {
	var out []Descriptor
	for _, c := range cmds {
		if c.Name() == "help" || c.Name() == "completion" {
			continue
		}
		path := append(slices.Clone(parent), c.Name())
		if c.HasSubCommands() {
			out = append(out, NewGroup(path, descriptorsFromCobra(c.Commands(), path)...))
			continue
		}
		eligible := c.Annotations[constants.WorkflowEligibleAnnotation] == "true"
		out = append(out, NewLeaf(path, eligible, flagsOf(c.LocalFlags())...))
	}
	return out
}

// GlobalFlagsFromCobra returns the persistent flags declared on root.
func GlobalFlagsFromCobra(root *cobra.Command) []Flag {
	return flagsOf(root.PersistentFlags())
}

func flagsOf(fs *pflag.FlagSet) []Flag {
	var flags []Flag
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "help" {
			return
		}
		flags = append(flags, Flag{Name: f.Name, Shorthand: f.Shorthand, Type: f.Value.Type()})
	})
	return flags
}
