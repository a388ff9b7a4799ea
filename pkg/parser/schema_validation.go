package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var schemaValidationLog = logger.New("parser:schema_validation")

//go:embed schemas/workflow_schema.json
var workflowSchemaJSON string

const workflowSchemaURL = "https://wfcheck.dev/schemas/workflow.json"

var (
	workflowSchemaOnce sync.Once
	workflowSchema     *jsonschema.Schema
	workflowSchemaErr  error

	messagePrinter = message.NewPrinter(language.English)
)

// SchemaError is a single schema violation: the JSON pointer of the offending
// value and a human-readable description.
type SchemaError struct {
	Path    string
	Keyword string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path == "" || e.Path == "/" {
		return e.Message
	}
	return fmt.Sprintf("at '%s': %s", e.Path, e.Message)
}

// getCompiledWorkflowSchema compiles the embedded workflow schema once.
func getCompiledWorkflowSchema() (*jsonschema.Schema, error) {
	workflowSchemaOnce.Do(func() {
		schemaValidationLog.Print("Compiling workflow schema")
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(workflowSchemaJSON))
		if err != nil {
			workflowSchemaErr = fmt.Errorf("failed to parse workflow schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(workflowSchemaURL, doc); err != nil {
			workflowSchemaErr = fmt.Errorf("failed to add workflow schema: %w", err)
			return
		}
		workflowSchema, workflowSchemaErr = compiler.Compile(workflowSchemaURL)
	})
	return workflowSchema, workflowSchemaErr
}

// ValidateWorkflowWithSchema validates a raw workflow configuration against
// the embedded JSON schema. Only the first violation is returned (ordered by
// instance location so the result is deterministic), as a *SchemaError.
// Unknown top-level fields are accepted.
func ValidateWorkflowWithSchema(raw map[string]any) error {
	schema, err := getCompiledWorkflowSchema()
	if err != nil {
		return err
	}

	instance, err := toJSONInstance(raw)
	if err != nil {
		return &SchemaError{Path: "/", Message: err.Error()}
	}

	err = schema.Validate(instance)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	schemaErr := firstViolation(ve)
	schemaValidationLog.Printf("Schema validation failed: %s", schemaErr)
	return schemaErr
}

// toJSONInstance converts decoded YAML into the value model the validator
// expects (map[string]any, []any, json.Number, string, bool, nil).
func toJSONInstance(raw map[string]any) (any, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("configuration is not representable as JSON: %w", err)
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(data))
}

// firstViolation picks the leaf violation with the smallest instance location.
func firstViolation(ve *jsonschema.ValidationError) *SchemaError {
	var leaves []*jsonschema.ValidationError
	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			leaves = append(leaves, e)
			return
		}
		for _, c := range e.Causes {
			collect(c)
		}
	}
	collect(ve)

	slices.SortStableFunc(leaves, func(a, b *jsonschema.ValidationError) int {
		if c := slices.Compare(a.InstanceLocation, b.InstanceLocation); c != 0 {
			return c
		}
		return slices.Compare(a.ErrorKind.KeywordPath(), b.ErrorKind.KeywordPath())
	})

	leaf := leaves[0]
	return &SchemaError{
		Path:    "/" + strings.Join(leaf.InstanceLocation, "/"),
		Keyword: strings.Join(leaf.ErrorKind.KeywordPath(), "/"),
		Message: leaf.ErrorKind.LocalizedString(messagePrinter),
	}
}
