// Package workflow resolves and validates workflow configurations.
//
// # Validation Architecture
//
// A raw workflow (decoded YAML) passes through five stages, each of which must
// succeed before the next runs:
//
//   - Template resolution (resolver.go) expands ${...} strings everywhere
//     except the workflow name and its triggers
//   - Schema validation (schema.go) checks structure, applies defaults and
//     confines file paths to the project root
//   - Step validation (step_validation.go) checks step commands against the
//     workflow command whitelist and rejects reserved global options
//   - Trigger validation (trigger_validation.go) checks trigger environments
//   - Namespace population (trigger_validation.go) fills in each trigger's
//     namespace from its environment's policy
//
// Template and schema failures stop at the first problem. Step and trigger
// checks inspect every step or trigger and report all findings in one error.
//
// # Errors
//
// Every failure is a *ValidationError. Its Category tells callers which rule
// failed; Detail carries structured data for step and trigger errors. When
// both step checks fail, a single invalidSteps error holds both in Causes
// and merges their Detail keys.
// Use HasCategory to test for a category through combined errors.
//
// # When to Add Validation
//
// Structural rules that can be expressed in JSON schema belong in
// pkg/parser/schemas/workflow_schema.json. Rules that need project context
// (commands, environments) belong in a stage here.
package workflow
