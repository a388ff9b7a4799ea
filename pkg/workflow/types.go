package workflow

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/githubnext/wfcheck/pkg/constants"
)

// WorkflowConfig is a workflow after schema validation and defaulting.
type WorkflowConfig struct {
	Kind           string             `json:"kind,omitempty"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	EnvVars        EnvVars            `json:"envVars,omitempty"`
	Files          []WorkflowFileSpec `json:"files,omitempty"`
	KeepAliveHours float64            `json:"keepAliveHours"`
	Limits         *WorkflowLimits    `json:"limits"`
	Steps          []WorkflowStepSpec `json:"steps"`
	Triggers       []TriggerSpec      `json:"triggers,omitempty"`
}

// WorkflowLimits are the resource limits of the runner executing a workflow.
// CPU is in millicpus and Memory in megabytes.
type WorkflowLimits struct {
	CPU    int `json:"cpu"`
	Memory int `json:"memory"`
}

// WorkflowFileSpec is a file written to the project before the workflow runs.
// Exactly one of Data and SecretName is set.
type WorkflowFileSpec struct {
	Path       string  `json:"path"`
	Data       *string `json:"data,omitempty"`
	SecretName string  `json:"secretName,omitempty"`
}

// WorkflowStepSpec is one step of a workflow. Exactly one of Command and
// Script is set.
type WorkflowStepSpec struct {
	Name        string                  `json:"name,omitempty"`
	Description string                  `json:"description,omitempty"`
	Command     []string                `json:"command,omitempty"`
	Script      string                  `json:"script,omitempty"`
	EnvVars     EnvVars                 `json:"envVars,omitempty"`
	Skip        bool                    `json:"skip"`
	When        constants.StepCondition `json:"when"`
}

// IsCommand reports whether the step runs a CLI command.
func (s WorkflowStepSpec) IsCommand() bool {
	return len(s.Command) > 0
}

// Label names the step for messages: its name, or "step-N" (1-based).
func (s WorkflowStepSpec) Label(index int) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("step-%d", index+1)
}

// TriggerSpec declares when a workflow runs automatically and where.
type TriggerSpec struct {
	Environment    string   `json:"environment"`
	Namespace      string   `json:"namespace,omitempty"`
	Events         []string `json:"events,omitempty"`
	Branches       []string `json:"branches,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	IgnoreBranches []string `json:"ignoreBranches,omitempty"`
	IgnoreTags     []string `json:"ignoreTags,omitempty"`
}

// EnvVars holds environment variables. Numbers and booleans in the source
// configuration are stored in their string form.
type EnvVars map[string]string

func (e *EnvVars) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(EnvVars, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			out[k] = val
		case bool:
			out[k] = strconv.FormatBool(val)
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
			out[k] = ""
		default:
			return fmt.Errorf("environment variable '%s' must be a string, number or boolean, got %T", k, v)
		}
	}
	*e = out
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *WorkflowConfig) Clone() *WorkflowConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.EnvVars = maps.Clone(c.EnvVars)
	out.Files = slices.Clone(c.Files)
	if c.Limits != nil {
		limits := *c.Limits
		out.Limits = &limits
	}
	if c.Steps != nil {
		out.Steps = make([]WorkflowStepSpec, len(c.Steps))
		for i, s := range c.Steps {
			s.Command = slices.Clone(s.Command)
			s.EnvVars = maps.Clone(s.EnvVars)
			out.Steps[i] = s
		}
	}
	out.Triggers = cloneTriggers(c.Triggers)
	return &out
}

func cloneTriggers(triggers []TriggerSpec) []TriggerSpec {
	if triggers == nil {
		return nil
	}
	out := make([]TriggerSpec, len(triggers))
	for i, t := range triggers {
		t.Events = slices.Clone(t.Events)
		t.Branches = slices.Clone(t.Branches)
		t.Tags = slices.Clone(t.Tags)
		t.IgnoreBranches = slices.Clone(t.IgnoreBranches)
		t.IgnoreTags = slices.Clone(t.IgnoreTags)
		out[i] = t
	}
	return out
}

// ToMap converts the configuration back into its raw map form, suitable as
// input to Resolver.Resolve or for YAML output.
func (c *WorkflowConfig) ToMap() (map[string]any, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow '%s': %w", c.Name, err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode workflow '%s': %w", c.Name, err)
	}
	return raw, nil
}
