package workflow

import (
	"fmt"
	"maps"

	"github.com/githubnext/wfcheck/pkg/command"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/githubnext/wfcheck/pkg/template"
)

var resolverLog = logger.New("workflow:resolver")

// CommandRegistry lists the commands that may be used as workflow steps.
type CommandRegistry interface {
	WorkflowCommands() []command.Command
}

// TemplateResolver expands template strings in a configuration tree.
type TemplateResolver interface {
	Resolve(config map[string]any, ctx template.Context, opts template.Options) (map[string]any, error)
}

// Fields left untouched by template resolution and re-attached verbatim.
var untemplatedFields = []string{"name", "triggers"}

// Resolver turns raw workflow configurations into validated, defaulted
// configurations with trigger namespaces filled in. It holds only read-only
// collaborators and may be shared between goroutines.
type Resolver struct {
	commands        CommandRegistry
	parser          ArgumentParser
	reserved        command.ReservedFlags
	environments    EnvironmentRegistry
	templates       TemplateResolver
	templateContext template.Context
	projectRoot     string
}

// NewResolver creates a resolver. Templates are resolved with an empty
// context until SetTemplateContext is called.
func NewResolver(commands CommandRegistry, parser ArgumentParser, reserved command.ReservedFlags, environments EnvironmentRegistry) *Resolver {
	resolverLog.Printf("Creating resolver: reserved_flags=%d", reserved.Len())
	return &Resolver{
		commands:        commands,
		parser:          parser,
		reserved:        reserved,
		environments:    environments,
		templates:       template.NewResolver(),
		templateContext: template.Context{},
		projectRoot:     ".",
	}
}

// SetTemplateResolver replaces the template resolver.
func (r *Resolver) SetTemplateResolver(t TemplateResolver) {
	r.templates = t
}

// SetTemplateContext sets the values available to template strings.
func (r *Resolver) SetTemplateContext(ctx template.Context) {
	r.templateContext = ctx
}

// SetProjectRoot sets the directory file paths are confined to.
func (r *Resolver) SetProjectRoot(root string) {
	r.projectRoot = root
}

// Resolve runs the resolution stages in order, stopping at the first stage
// that fails:
//
//  1. template resolution (partial, excluding name and triggers)
//  2. schema validation and defaulting
//  3. step command and option checks
//  4. trigger environment checks
//  5. namespace population
//
// raw is not modified.
func (r *Resolver) Resolve(raw map[string]any) (*WorkflowConfig, error) {
	name, _ := raw["name"].(string)
	resolverLog.Printf("Resolving workflow: %s", name)

	resolved, err := r.resolveTemplates(raw, name)
	if err != nil {
		return nil, err
	}

	cfg, err := NormalizeConfig(resolved, r.projectRoot)
	if err != nil {
		return nil, err
	}

	commands := r.commands.WorkflowCommands()
	if err := ValidateSteps(cfg, commands, r.parser, r.reserved); err != nil {
		return nil, err
	}

	if err := ValidateTriggers(cfg, r.environments); err != nil {
		return nil, err
	}

	cfg, err = PopulateNamespaces(cfg, r.environments)
	if err != nil {
		return nil, err
	}

	resolverLog.Printf("Resolved workflow %s", cfg.Name)
	return cfg, nil
}

func (r *Resolver) resolveTemplates(raw map[string]any, name string) (map[string]any, error) {
	subset := maps.Clone(raw)
	for _, f := range untemplatedFields {
		delete(subset, f)
	}

	resolved, err := r.templates.Resolve(subset, r.templateContext, template.Options{AllowPartial: true})
	if err != nil {
		return nil, &ValidationError{
			Category: CategoryTemplateResolution,
			Workflow: name,
			Message:  fmt.Sprintf("Failed to resolve template strings in workflow '%s'", name),
			Cause:    err,
		}
	}

	out := maps.Clone(resolved)
	if out == nil {
		out = make(map[string]any, len(untemplatedFields))
	}
	for _, f := range untemplatedFields {
		if v, ok := raw[f]; ok {
			out[f] = v
		}
	}
	return out, nil
}
