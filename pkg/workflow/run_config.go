package workflow

import (
	"maps"
	"slices"
)

// WorkflowRunConfig is what a triggered run executes: the workflow without
// its triggers, bound to one environment and namespace.
type WorkflowRunConfig struct {
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	EnvVars        EnvVars            `json:"envVars,omitempty"`
	Files          []WorkflowFileSpec `json:"files,omitempty"`
	KeepAliveHours float64            `json:"keepAliveHours"`
	Limits         WorkflowLimits     `json:"limits"`
	Steps          []WorkflowStepSpec `json:"steps"`
	Environment    string             `json:"environment"`
	Namespace      string             `json:"namespace,omitempty"`
}

// MakeRunConfig binds a resolved workflow to the environment and namespace
// of one of its triggers.
func MakeRunConfig(cfg *WorkflowConfig, trigger TriggerSpec) *WorkflowRunConfig {
	c := cfg.Clone()
	run := &WorkflowRunConfig{
		Name:           c.Name,
		Description:    c.Description,
		EnvVars:        maps.Clone(c.EnvVars),
		Files:          c.Files,
		KeepAliveHours: c.KeepAliveHours,
		Steps:          c.Steps,
		Environment:    trigger.Environment,
		Namespace:      trigger.Namespace,
	}
	if c.Limits != nil {
		run.Limits = *c.Limits
	}
	return run
}

// RunConfigsFor returns a run config for every trigger of cfg matching ev,
// in trigger order.
func RunConfigsFor(cfg *WorkflowConfig, ev RepositoryEvent) []*WorkflowRunConfig {
	var runs []*WorkflowRunConfig
	for t := range slices.Values(cfg.Triggers) {
		if t.Matches(ev) {
			runs = append(runs, MakeRunConfig(cfg, t))
		}
	}
	return runs
}
