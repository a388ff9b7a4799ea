package workflow

import (
	"fmt"
	"slices"

	"github.com/githubnext/wfcheck/pkg/environment"
	"github.com/githubnext/wfcheck/pkg/logger"
)

var triggerValidationLog = logger.New("workflow:trigger_validation")

// EnvironmentRegistry resolves the project's environments by name.
type EnvironmentRegistry interface {
	Lookup(name string) (environment.Environment, bool)
	Names() []string
}

// ValidateTriggers checks that every trigger names a project environment.
// All unknown names are reported together, each once.
func ValidateTriggers(cfg *WorkflowConfig, envs EnvironmentRegistry) error {
	var invalid []string
	for _, t := range cfg.Triggers {
		if _, ok := envs.Lookup(t.Environment); !ok && !slices.Contains(invalid, t.Environment) {
			invalid = append(invalid, t.Environment)
		}
	}
	if len(invalid) == 0 {
		return nil
	}

	triggerValidationLog.Printf("Workflow %s has triggers for unknown environments: %v", cfg.Name, invalid)
	return newTriggerEnvironmentError(cfg.Name, invalid, envs.Names())
}

// PopulateNamespaces returns a copy of cfg whose triggers carry the namespace
// chosen by their environment's namespacing policy. cfg is not modified.
func PopulateNamespaces(cfg *WorkflowConfig, envs EnvironmentRegistry) (*WorkflowConfig, error) {
	out := cfg.Clone()
	for i := range out.Triggers {
		t := &out.Triggers[i]
		env, ok := envs.Lookup(t.Environment)
		if !ok {
			return nil, newTriggerEnvironmentError(cfg.Name, []string{t.Environment}, envs.Names())
		}
		ns, err := env.Namespace(t.Namespace)
		if err != nil {
			return nil, &ValidationError{
				Category: CategoryNamespaceResolution,
				Workflow: cfg.Name,
				Field:    fmt.Sprintf("/triggers/%d/namespace", i),
				Message:  fmt.Sprintf("Failed to resolve the namespace of trigger %d in workflow '%s'", i+1, cfg.Name),
				Detail: map[string]any{
					"environment": t.Environment,
					"namespace":   t.Namespace,
				},
				Cause: err,
			}
		}
		triggerValidationLog.Printf("Trigger %d of workflow %s: environment=%s namespace=%s", i, cfg.Name, t.Environment, ns)
		t.Namespace = ns
	}
	return out, nil
}
