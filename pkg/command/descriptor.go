// Package command describes the CLI command tree that workflow steps are
// allowed to invoke, and re-parses step arguments the way the CLI would.
//
// A command tree is a set of Descriptors, each either a leaf (a runnable
// command with its own flags) or a group (a namespace holding further
// descriptors). Flatten turns a tree into the whitelist of workflow-eligible
// leaf paths, e.g. ["run", "task"].
package command

import (
	"slices"
	"strings"
)

// Kind discriminates the two descriptor variants.
type Kind int

const (
	KindLeaf Kind = iota
	KindGroup
)

func (k Kind) String() string {
	if k == KindGroup {
		return "group"
	}
	return "leaf"
}

// Flag describes a single command-line flag. Type uses pflag's value type
// names: bool, string, int, count, duration, float64, stringSlice, stringArray, stringToString.
type Flag struct {
	Name      string `json:"name"`
	Shorthand string `json:"shorthand,omitempty"`
	Type      string `json:"type"`
}

// Descriptor is either a leaf command or a group of commands.
type Descriptor struct {
	Kind Kind
	Path []string

	// Leaf only.
	WorkflowEligible bool
	Flags            []Flag

	// Group only.
	Children []Descriptor
}

// NewLeaf returns a leaf descriptor.
func NewLeaf(path []string, workflowEligible bool, flags ...Flag) Descriptor {
	return Descriptor{
		Kind:             KindLeaf,
		Path:             slices.Clone(path),
		WorkflowEligible: workflowEligible,
		Flags:            slices.Clone(flags),
	}
}

// NewGroup returns a group descriptor.
func NewGroup(path []string, children ...Descriptor) Descriptor {
	return Descriptor{
		Kind:     KindGroup,
		Path:     slices.Clone(path),
		Children: slices.Clone(children),
	}
}

// Command is a flattened, workflow-eligible leaf.
type Command struct {
	Path  []string `json:"path"`
	Flags []Flag   `json:"flags,omitempty"`
}

// PathString joins the path with spaces, as typed on the command line.
func (c Command) PathString() string {
	return strings.Join(c.Path, " ")
}

// FlagNames returns the names of the command's own flags, sorted.
func (c Command) FlagNames() []string {
	names := make([]string, 0, len(c.Flags))
	for _, f := range c.Flags {
		names = append(names, f.Name)
	}
	slices.Sort(names)
	return names
}

// HasPrefixOf reports whether the command path is a token-for-token prefix of tokens.
// Extra trailing tokens are the command's own arguments.
func (c Command) HasPrefixOf(tokens []string) bool {
	if len(c.Path) == 0 || len(tokens) < len(c.Path) {
		return false
	}
	return slices.Equal(tokens[:len(c.Path)], c.Path)
}

// Flatten walks the descriptors depth-first, recursing into groups, and
// returns the workflow-eligible leaves in declaration order.
func Flatten(descriptors []Descriptor) []Command {
	var out []Command
	for _, d := range descriptors {
		switch d.Kind {
		case KindGroup:
			out = append(out, Flatten(d.Children)...)
		case KindLeaf:
			if d.WorkflowEligible {
				out = append(out, Command{Path: slices.Clone(d.Path), Flags: slices.Clone(d.Flags)})
			}
		}
	}
	return out
}
