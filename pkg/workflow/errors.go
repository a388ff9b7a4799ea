package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory classifies a workflow validation failure.
type ErrorCategory string

const (
	CategoryStructural                ErrorCategory = "structural"
	CategoryMutualExclusivity         ErrorCategory = "mutualExclusivity"
	CategoryInvalidStepCommand        ErrorCategory = "invalidStepCommand"
	CategoryInvalidStepOption         ErrorCategory = "invalidStepOption"
	CategoryInvalidSteps              ErrorCategory = "invalidSteps"
	CategoryInvalidTriggerEnvironment ErrorCategory = "invalidTriggerEnvironment"
	CategoryNamespaceResolution       ErrorCategory = "namespaceResolution"
	CategoryTemplateResolution        ErrorCategory = "templateResolution"
)

// Detail keys carried by step and trigger errors.
const (
	DetailStepsWithInvalidPrefix = "stepsWithInvalidPrefix"
	DetailValidCommandPrefixes   = "validCommandPrefixes"
	DetailInvalidStepCommands    = "invalidStepCommands"
	DetailInvalidTriggers        = "invalidTriggers"
	DetailValidEnvironments      = "validEnvironments"
)

// ValidationError is the single error type returned by workflow resolution.
// Field is a JSON pointer into the workflow when the failure has a location.
// Causes holds the per-stage errors of a combined step error.
type ValidationError struct {
	Category   ErrorCategory
	Workflow   string
	Field      string
	Message    string
	Suggestion string
	Detail     map[string]any
	Cause      error
	Causes     []*ValidationError
}

// NewValidationError creates a structural validation error for field.
func NewValidationError(workflow, field, message, suggestion string) *ValidationError {
	return &ValidationError{
		Category:   CategoryStructural,
		Workflow:   workflow,
		Field:      field,
		Message:    message,
		Suggestion: suggestion,
	}
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	if e.Field != "" && e.Field != "/" {
		fmt.Fprintf(&b, "at '%s': ", e.Field)
	}
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.Suggestion != "" {
		b.WriteString("\n\nSuggestion: ")
		b.WriteString(e.Suggestion)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() []error {
	errs := make([]error, 0, len(e.Causes)+1)
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	for _, c := range e.Causes {
		errs = append(errs, c)
	}
	return errs
}

type validationErrorJSON struct {
	Category   ErrorCategory      `json:"category"`
	Workflow   string             `json:"workflow,omitempty"`
	Field      string             `json:"field,omitempty"`
	Message    string             `json:"message"`
	Suggestion string             `json:"suggestion,omitempty"`
	Detail     map[string]any     `json:"detail,omitempty"`
	Cause      string             `json:"cause,omitempty"`
	Causes     []*ValidationError `json:"causes,omitempty"`
}

func (e *ValidationError) MarshalJSON() ([]byte, error) {
	out := validationErrorJSON{
		Category:   e.Category,
		Workflow:   e.Workflow,
		Field:      e.Field,
		Message:    e.Message,
		Suggestion: e.Suggestion,
		Detail:     e.Detail,
		Causes:     e.Causes,
	}
	if e.Cause != nil {
		out.Cause = e.Cause.Error()
	}
	return json.Marshal(out)
}

// HasCategory reports whether err is, or combines, a validation error of category.
func HasCategory(err error, category ErrorCategory) bool {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	if ve.Category == category {
		return true
	}
	for _, c := range ve.Causes {
		if HasCategory(c, category) {
			return true
		}
	}
	return false
}

// StepCommandFinding describes a step whose command matches no workflow command.
type StepCommandFinding struct {
	Index   int      `json:"index"`
	Step    string   `json:"step"`
	Command []string `json:"command"`
}

// StepOptionFinding describes a step whose command uses reserved global
// options, or whose arguments could not be parsed.
type StepOptionFinding struct {
	Index          int      `json:"index"`
	Step           string   `json:"step"`
	Command        []string `json:"command"`
	CommandPath    string   `json:"commandPath"`
	InvalidOptions []string `json:"invalidOptions,omitempty"`
	ValidOptions   []string `json:"validOptions,omitempty"`
	ParseError     string   `json:"parseError,omitempty"`
}

func newStepCommandError(workflow string, findings []StepCommandFinding, prefixes []string) *ValidationError {
	var b strings.Builder
	fmt.Fprintf(&b, "Invalid step commands in workflow '%s':\n\n", workflow)
	for _, f := range findings {
		fmt.Fprintf(&b, "  • %s: %s\n", f.Step, strings.Join(f.Command, " "))
	}
	b.WriteString("\nValid step command prefixes:\n\n")
	for _, p := range prefixes {
		fmt.Fprintf(&b, "  • %s\n", p)
	}
	return &ValidationError{
		Category: CategoryInvalidStepCommand,
		Workflow: workflow,
		Message:  strings.TrimRight(b.String(), "\n"),
		Detail: map[string]any{
			DetailStepsWithInvalidPrefix: findings,
			DetailValidCommandPrefixes:   prefixes,
		},
	}
}

func newStepOptionError(workflow string, findings []StepOptionFinding) *ValidationError {
	var b strings.Builder
	fmt.Fprintf(&b, "Invalid step options in workflow '%s'. Global options cannot be used in step commands:\n", workflow)
	for _, f := range findings {
		fmt.Fprintf(&b, "\n  • %s (%s)", f.Step, strings.Join(f.Command, " "))
		if f.ParseError != "" {
			fmt.Fprintf(&b, ": %s", f.ParseError)
			continue
		}
		fmt.Fprintf(&b, ": %s", formatOptions(f.InvalidOptions))
		if len(f.ValidOptions) > 0 {
			fmt.Fprintf(&b, "\n    Valid options for '%s': %s", f.CommandPath, formatOptions(f.ValidOptions))
		} else {
			fmt.Fprintf(&b, "\n    '%s' accepts no options", f.CommandPath)
		}
	}
	return &ValidationError{
		Category: CategoryInvalidStepOption,
		Workflow: workflow,
		Message:  b.String(),
		Detail: map[string]any{
			DetailInvalidStepCommands: findings,
		},
	}
}

func newTriggerEnvironmentError(workflow string, invalid, valid []string) *ValidationError {
	var b strings.Builder
	fmt.Fprintf(&b, "Invalid environment in trigger config for workflow '%s': %s\n\n", workflow, strings.Join(invalid, ", "))
	b.WriteString("Valid environments for this project:\n\n")
	for _, name := range valid {
		fmt.Fprintf(&b, "  • %s\n", name)
	}
	return &ValidationError{
		Category: CategoryInvalidTriggerEnvironment,
		Workflow: workflow,
		Field:    "/triggers",
		Message:  strings.TrimRight(b.String(), "\n"),
		Detail: map[string]any{
			DetailInvalidTriggers:   invalid,
			DetailValidEnvironments: valid,
		},
	}
}

func formatOptions(names []string) string {
	opts := make([]string, len(names))
	for i, n := range names {
		opts[i] = "--" + n
	}
	return strings.Join(opts, ", ")
}
