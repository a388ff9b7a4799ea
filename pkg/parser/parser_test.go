//go:build !integration

package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validWorkflow() map[string]any {
	return map[string]any{
		"name": "deploy-all",
		"steps": []any{
			map[string]any{"command": []any{"run", "task", "migrate"}},
		},
	}
}

func TestValidateWorkflowWithSchema(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(map[string]any)
		wantPath string
	}{
		{
			name:   "valid minimal workflow",
			mutate: func(map[string]any) {},
		},
		{
			name:   "unknown top-level field tolerated",
			mutate: func(w map[string]any) { w["futureField"] = map[string]any{"x": 1} },
		},
		{
			name:     "missing steps",
			mutate:   func(w map[string]any) { delete(w, "steps") },
			wantPath: "/",
		},
		{
			name:     "empty steps",
			mutate:   func(w map[string]any) { w["steps"] = []any{} },
			wantPath: "/steps",
		},
		{
			name:     "invalid name",
			mutate:   func(w map[string]any) { w["name"] = "Deploy All" },
			wantPath: "/name",
		},
		{
			name: "invalid when",
			mutate: func(w map[string]any) {
				w["steps"] = []any{map[string]any{"script": "echo hi", "when": "sometimes"}}
			},
			wantPath: "/steps/0/when",
		},
		{
			name:     "cpu below minimum",
			mutate:   func(w map[string]any) { w["limits"] = map[string]any{"cpu": 500} },
			wantPath: "/limits/cpu",
		},
		{
			name:     "memory below minimum",
			mutate:   func(w map[string]any) { w["limits"] = map[string]any{"memory": uint64(512)} },
			wantPath: "/limits/memory",
		},
		{
			name: "duplicate events",
			mutate: func(w map[string]any) {
				w["triggers"] = []any{map[string]any{"environment": "dev", "events": []any{"push", "push"}}}
			},
			wantPath: "/triggers/0/events",
		},
		{
			name: "unknown event",
			mutate: func(w map[string]any) {
				w["triggers"] = []any{map[string]any{"environment": "dev", "events": []any{"deploy"}}}
			},
			wantPath: "/triggers/0/events/0",
		},
		{
			name: "duplicate branches",
			mutate: func(w map[string]any) {
				w["triggers"] = []any{map[string]any{"environment": "dev", "branches": []any{"main", "main"}}}
			},
			wantPath: "/triggers/0/branches",
		},
		{
			name: "trigger without environment",
			mutate: func(w map[string]any) {
				w["triggers"] = []any{map[string]any{"events": []any{"push"}}}
			},
			wantPath: "/triggers/0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := validWorkflow()
			tt.mutate(w)

			err := ValidateWorkflowWithSchema(w)
			if tt.wantPath == "" {
				require.NoError(t, err, "Workflow should be valid")
				return
			}
			require.Error(t, err, "Workflow should be invalid")
			var schemaErr *SchemaError
			require.ErrorAs(t, err, &schemaErr, "Error should be a SchemaError")
			assert.Equal(t, tt.wantPath, schemaErr.Path, "Error should point at the offending value")
			assert.NotEmpty(t, schemaErr.Message, "Error should have a message")
		})
	}
}

func TestSchemaErrorMessage(t *testing.T) {
	assert.Equal(t, "missing property", (&SchemaError{Path: "/", Message: "missing property"}).Error())
	assert.Equal(t, "at '/name': bad", (&SchemaError{Path: "/name", Message: "bad"}).Error())
}

const multiDocument = `kind: Project
name: shop
environments:
  - name: local
    defaultNamespace: shop-local
  - name: ci
    namespacing: required
variables:
  image-tag: latest
---
kind: Workflow
name: build-and-test
steps:
  - command: [build]
  - command: [test]
---
kind: Workflow
name: deploy
steps:
  - script: ./deploy.sh
`

func TestParseDocuments(t *testing.T) {
	docs, err := ParseDocuments([]byte(multiDocument), "garden.yml")
	require.NoError(t, err, "Multi-document YAML should parse")
	require.Len(t, docs, 3, "Should decode all documents")

	workflows := WorkflowDocuments(docs)
	require.Len(t, workflows, 2, "Should find both workflows")
	assert.Equal(t, "build-and-test", workflows[0].Content["name"], "Workflow order should be kept")
	assert.Equal(t, 1, workflows[0].Index, "Document index should be recorded")

	project, err := DecodeProject(docs)
	require.NoError(t, err, "Project should decode")
	assert.Equal(t, "shop", project.Name, "Project name should decode")
	require.Len(t, project.Environments, 2, "Environments should decode")
	assert.Equal(t, "shop-local", project.Environments[0].DefaultNamespace, "defaultNamespace should decode")
	assert.Equal(t, "latest", project.Variables["image-tag"], "Variables should decode")

	registry, err := project.EnvironmentRegistry()
	require.NoError(t, err, "Registry should build")
	assert.Equal(t, []string{"local", "ci"}, registry.Names(), "Registry should list environments in order")
}

func TestWorkflowDocumentsWithoutKind(t *testing.T) {
	docs, err := ParseDocuments([]byte("name: solo\nsteps:\n  - script: echo\n"), "solo.yml")
	require.NoError(t, err, "Single document should parse")
	assert.Len(t, WorkflowDocuments(docs), 1, "Kind-less single document is a workflow")
}

func TestParseDocumentsErrors(t *testing.T) {
	_, err := ParseDocuments([]byte("- just\n- a list\n"), "list.yml")
	require.Error(t, err, "Non-mapping document should fail")
	assert.Contains(t, err.Error(), "must be a mapping", "Error should explain the expected shape")

	_, err = ParseDocuments([]byte("name: [unclosed\n"), "broken.yml")
	require.Error(t, err, "Malformed YAML should fail")
	assert.Contains(t, err.Error(), "broken.yml", "Error should name the file")

	_, err = DecodeProject(nil)
	require.Error(t, err, "Missing project document should fail")
}

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.garden.yml")
	require.NoError(t, os.WriteFile(path, []byte(multiDocument), 0o600), "Should write fixture")

	project, err := LoadProject(path)
	require.NoError(t, err, "Project should load from disk")
	assert.Equal(t, "shop", project.Name, "Project name should load")

	_, err = LoadProject(filepath.Join(dir, "missing.yml"))
	require.Error(t, err, "Missing file should fail")
}
