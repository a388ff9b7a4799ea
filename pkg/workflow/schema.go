package workflow

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/githubnext/wfcheck/pkg/constants"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/githubnext/wfcheck/pkg/parser"
)

var schemaLog = logger.New("workflow:schema")

// NormalizeConfig validates a template-resolved workflow against the schema
// and returns the typed configuration with defaults applied. File paths are
// checked lexically against projectRoot.
//
// Mutual exclusivity of step command/script and file data/secretName is
// checked before the schema so those mistakes get a dedicated message.
func NormalizeConfig(raw map[string]any, projectRoot string) (*WorkflowConfig, error) {
	name, _ := raw["name"].(string)
	schemaLog.Printf("Normalizing workflow: %s", name)

	if err := validateMutualExclusivity(raw, name); err != nil {
		return nil, err
	}

	if err := parser.ValidateWorkflowWithSchema(raw); err != nil {
		var schemaErr *parser.SchemaError
		if errors.As(err, &schemaErr) {
			return nil, &ValidationError{
				Category: CategoryStructural,
				Workflow: name,
				Field:    schemaErr.Path,
				Message:  fmt.Sprintf("Invalid workflow configuration '%s'", name),
				Cause:    schemaErr,
			}
		}
		return nil, err
	}

	cfg, err := decodeWorkflowConfig(raw)
	if err != nil {
		return nil, NewValidationError(name, "/", fmt.Sprintf("Invalid workflow configuration '%s': %v", name, err), "")
	}
	applyDefaults(cfg)

	if err := validateFiles(cfg, projectRoot); err != nil {
		return nil, err
	}
	if err := validateTriggerPatterns(cfg); err != nil {
		return nil, err
	}

	schemaLog.Printf("Normalized workflow %s: steps=%d, triggers=%d", cfg.Name, len(cfg.Steps), len(cfg.Triggers))
	return cfg, nil
}

func validateMutualExclusivity(raw map[string]any, workflow string) error {
	if steps, ok := raw["steps"].([]any); ok {
		for i, s := range steps {
			step, ok := s.(map[string]any)
			if !ok {
				continue
			}
			field := fmt.Sprintf("/steps/%d", i)
			what := fmt.Sprintf("Step %d", i+1)
			if err := validateExactlyOne(step, workflow, field, what, "command", "script"); err != nil {
				return err
			}
		}
	}
	if files, ok := raw["files"].([]any); ok {
		for i, f := range files {
			file, ok := f.(map[string]any)
			if !ok {
				continue
			}
			field := fmt.Sprintf("/files/%d", i)
			what := fmt.Sprintf("File %d", i+1)
			if err := validateExactlyOne(file, workflow, field, what, "data", "secretName"); err != nil {
				return err
			}
		}
	}
	return nil
}

// decodeWorkflowConfig converts a schema-valid raw workflow into its typed form.
func decodeWorkflowConfig(raw map[string]any) (*WorkflowConfig, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var cfg WorkflowConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *WorkflowConfig) {
	if cfg.KeepAliveHours == 0 {
		cfg.KeepAliveHours = constants.DefaultKeepAliveHours
	}
	if cfg.Limits == nil {
		cfg.Limits = &WorkflowLimits{}
	}
	if cfg.Limits.CPU == 0 {
		cfg.Limits.CPU = constants.DefaultLimitsCPU
	}
	if cfg.Limits.Memory == 0 {
		cfg.Limits.Memory = constants.DefaultLimitsMemory
	}
	for i := range cfg.Steps {
		if cfg.Steps[i].When == "" {
			cfg.Steps[i].When = constants.StepConditionOnSuccess
		}
	}
}

func validateFiles(cfg *WorkflowConfig, projectRoot string) error {
	if len(cfg.Files) == 0 {
		return nil
	}
	for i, f := range cfg.Files {
		if err := validateRelativePath(projectRoot, f.Path); err != nil {
			return &ValidationError{
				Category:   CategoryStructural,
				Workflow:   cfg.Name,
				Field:      fmt.Sprintf("/files/%d/path", i),
				Message:    fmt.Sprintf("Invalid file in workflow '%s'", cfg.Name),
				Suggestion: "Use a path relative to the project root, without '..' segments that leave it.",
				Cause:      err,
			}
		}
	}
	return nil
}

func validateTriggerPatterns(cfg *WorkflowConfig) error {
	for i, t := range cfg.Triggers {
		fields := []struct {
			name     string
			patterns []string
		}{
			{"branches", t.Branches},
			{"tags", t.Tags},
			{"ignoreBranches", t.IgnoreBranches},
			{"ignoreTags", t.IgnoreTags},
		}
		for _, f := range fields {
			if err := validateGlobPatterns(f.patterns); err != nil {
				return &ValidationError{
					Category: CategoryStructural,
					Workflow: cfg.Name,
					Field:    fmt.Sprintf("/triggers/%d/%s", i, f.name),
					Message:  fmt.Sprintf("Invalid trigger in workflow '%s'", cfg.Name),
					Cause:    err,
				}
			}
		}
	}
	return nil
}
