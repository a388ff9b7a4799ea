// This file renders resolved workflows as YAML with deterministic field order.
//
// Go maps iterate in random order, so marshaling a map[string]any produces
// unstable output. goccy/go-yaml's MapSlice keeps insertion order, which lets
// resolved workflows print the way authors write them:
//
// Workflow-level fields: kind, name, description, envVars, limits,
// keepAliveHours, files, steps, triggers.
//
// Step-level fields: name, description, command, script, envVars, skip, when.
//
// Trigger-level fields: environment, namespace, events, branches, tags,
// ignoreBranches, ignoreTags.
//
// Fields without a conventional position follow alphabetically.

package workflow

import (
	"slices"
	"sort"

	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/goccy/go-yaml"
)

var yamlLog = logger.New("workflow:yaml")

// DefaultMarshalOptions are the options used for all YAML output:
// 2-space indentation, block sequences indented under their key, and literal
// block scalars for multiline strings such as scripts.
var DefaultMarshalOptions = []yaml.EncodeOption{
	yaml.Indent(2),
	yaml.IndentSequence(true),
	yaml.UseLiteralStyleIfMultiline(true),
}

var (
	workflowFieldOrder = []string{"kind", "name", "description", "envVars", "limits", "keepAliveHours", "files", "steps", "triggers"}
	stepFieldOrder     = []string{"name", "description", "command", "script", "envVars", "skip", "when"}
	triggerFieldOrder  = []string{"environment", "namespace", "events", "branches", "tags", "ignoreBranches", "ignoreTags"}
	fileFieldOrder     = []string{"path", "data", "secretName"}
	limitsFieldOrder   = []string{"cpu", "memory"}
)

// MarshalWorkflowYAML renders a resolved workflow as YAML.
func MarshalWorkflowYAML(cfg *WorkflowConfig) ([]byte, error) {
	raw, err := cfg.ToMap()
	if err != nil {
		return nil, err
	}
	orderListField(raw, "steps", stepFieldOrder)
	orderListField(raw, "triggers", triggerFieldOrder)
	orderListField(raw, "files", fileFieldOrder)
	if limits, ok := raw["limits"].(map[string]any); ok {
		raw["limits"] = OrderMapFields(limits, limitsFieldOrder)
	}
	sortNestedMaps(raw)
	return MarshalWithFieldOrder(raw, workflowFieldOrder)
}

func orderListField(raw map[string]any, field string, order []string) {
	items, ok := raw[field].([]any)
	if !ok {
		return
	}
	for i, item := range items {
		if m, ok := item.(map[string]any); ok {
			sortNestedMaps(m)
			items[i] = OrderMapFields(m, order)
		}
	}
}

// sortNestedMaps replaces the map values of m (such as envVars) with
// alphabetically ordered MapSlices.
func sortNestedMaps(m map[string]any) {
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			m[k] = OrderMapFields(nested, nil)
		}
	}
}

// MarshalWithFieldOrder marshals a map to YAML with fields in a specific order.
//
// Priority fields are emitted first in the order specified, then remaining
// fields are emitted alphabetically.
func MarshalWithFieldOrder(data map[string]any, priorityFields []string) ([]byte, error) {
	yamlLog.Printf("Marshaling YAML with field order: %d priority fields", len(priorityFields))

	orderedData := OrderMapFields(data, priorityFields)
	return yaml.MarshalWithOptions(orderedData, DefaultMarshalOptions...)
}

// OrderMapFields converts a map to yaml.MapSlice with fields in a specific order.
//
// The ordering strategy is:
//  1. Priority fields are added first, in the exact order specified
//  2. Remaining fields are added alphabetically
//
// Example:
//
//	step := map[string]any{"when": "always", "command": []any{"deploy"}}
//	ordered := OrderMapFields(step, []string{"name", "command", "when"})
//	// ordered will have: command, when (only fields that exist)
func OrderMapFields(data map[string]any, priorityFields []string) yaml.MapSlice {
	var orderedData yaml.MapSlice

	for _, fieldName := range priorityFields {
		if value, exists := data[fieldName]; exists {
			orderedData = append(orderedData, yaml.MapItem{Key: fieldName, Value: value})
		}
	}

	var remainingKeys []string
	for key := range data {
		if !slices.Contains(priorityFields, key) {
			remainingKeys = append(remainingKeys, key)
		}
	}
	sort.Strings(remainingKeys)

	for _, key := range remainingKeys {
		orderedData = append(orderedData, yaml.MapItem{Key: key, Value: data[key]})
	}

	return orderedData
}
