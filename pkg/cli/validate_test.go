//go:build !integration

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/githubnext/wfcheck/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testProject = `kind: Project
name: shop
environments:
  - name: dev
    defaultNamespace: shop-dev
  - name: prod
    defaultNamespace: shop-prod
    namespacing: disabled
variables:
  task: migrate
---
kind: Workflow
name: deploy-all
steps:
  - command: [deploy, --force]
  - command: [run, task, "${var.task}"]
triggers:
  - environment: dev
    events: [push]
    branches: [main]
  - environment: prod
    events: [push]
    tags: ["v*"]
`

const testBrokenWorkflow = `kind: Workflow
name: broken
steps:
  - command: [login]
  - command: [deploy, --env, prod]
`

type testFiles map[string]string

func writeProject(t *testing.T, files testFiles) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755), "Test directory should be created")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644), "Test file should be written")
	}
	return dir
}

func runValidate(t *testing.T, config ValidateConfig) ([]FileResult, *bytes.Buffer, *bytes.Buffer, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	config.Stdout = &stdout
	config.Stderr = &stderr
	results, err := ValidateWorkflows(config)
	return results, &stdout, &stderr, err
}

func TestValidateWorkflowsDiscoversFiles(t *testing.T) {
	dir := writeProject(t, testFiles{
		"project.garden.yml":        testProject,
		"ci/broken.garden.yml":      testBrokenWorkflow,
		".cache/ignored.garden.yml": testBrokenWorkflow,
		"notes.yml":                 "kind: Workflow\nname: ignored\n",
	})

	results, _, stderr, err := runValidate(t, ValidateConfig{Dir: dir})
	require.Error(t, err, "Validation should fail when a workflow is invalid")

	require.Len(t, results, 2, "Only visible configuration files should be validated")
	assert.Equal(t, filepath.Join(dir, "ci", "broken.garden.yml"), results[0].File, "Results should follow file order")
	assert.Equal(t, filepath.Join(dir, "project.garden.yml"), results[1].File, "Results should follow file order")

	broken := results[0].Workflows
	require.Len(t, broken, 1, "Broken file holds one workflow")
	assert.False(t, broken[0].Valid, "Workflow with a login step should be invalid")
	assert.True(t, workflow.HasCategory(broken[0].Err, workflow.CategoryInvalidSteps),
		"Command and option problems should be combined")

	good := results[1].Workflows
	require.Len(t, good, 1, "Project file holds one workflow")
	require.True(t, good[0].Valid, "Project workflow should be valid: %v", good[0].Err)
	assert.Equal(t, []string{"run", "task", "migrate"}, good[0].Config.Steps[1].Command,
		"Project variables should be substituted")
	assert.Equal(t, "shop-dev", good[0].Config.Triggers[0].Namespace, "Default namespace should be populated")

	assert.Contains(t, stderr.String(), "workflow 'deploy-all' is valid", "Valid workflows should be reported")
	assert.Contains(t, stderr.String(), "[broken]", "Invalid workflows should be reported by name")
	assert.Contains(t, err.Error(), "workflow 'broken' is invalid", "Returned error should name the invalid workflow")
}

func TestValidateWorkflowsVarOverride(t *testing.T) {
	dir := writeProject(t, testFiles{"project.garden.yml": testProject})

	results, _, _, err := runValidate(t, ValidateConfig{Dir: dir, Vars: []string{"task=seed"}})
	require.NoError(t, err, "Project workflow should be valid")
	assert.Equal(t, []string{"run", "task", "seed"}, results[0].Workflows[0].Config.Steps[1].Command,
		"--var should override project variables")
}

func TestValidateWorkflowsExplicitFiles(t *testing.T) {
	dir := writeProject(t, testFiles{
		"project.garden.yml":   testProject,
		"ci/broken.garden.yml": testBrokenWorkflow,
	})

	results, _, _, err := runValidate(t, ValidateConfig{
		ProjectPath: filepath.Join(dir, "project.garden.yml"),
		Files:       []string{filepath.Join(dir, "project.garden.yml")},
	})
	require.NoError(t, err, "Only the listed file should be validated")
	require.Len(t, results, 1, "One result per listed file")
}

func TestValidateWorkflowsFailFast(t *testing.T) {
	dir := writeProject(t, testFiles{
		"project.garden.yml":   testProject,
		"a/broken.garden.yml":  testBrokenWorkflow,
		"b/broken2.garden.yml": "kind: Workflow\nname: broken-two\nsteps:\n  - command: [dev]\n",
	})

	results, _, _, err := runValidate(t, ValidateConfig{Dir: dir, FailFast: true})
	require.Error(t, err, "Validation should fail")
	assert.Len(t, results, 1, "Fail-fast should stop after the first failing file")
}

func TestValidateWorkflowsDuplicateNames(t *testing.T) {
	dir := writeProject(t, testFiles{
		"project.garden.yml": testProject,
		"copy.garden.yml":    "kind: Workflow\nname: deploy-all\nsteps:\n  - command: [build]\n",
	})

	results, _, _, err := runValidate(t, ValidateConfig{Dir: dir})
	require.Error(t, err, "Duplicate workflow names should fail validation")

	require.Len(t, results, 2, "Both files should be validated")
	assert.True(t, results[0].Workflows[0].Valid, "First declaration should stay valid")

	dup := results[1].Workflows[0]
	assert.False(t, dup.Valid, "Second declaration should be rejected")
	var ve *workflow.ValidationError
	require.ErrorAs(t, dup.Err, &ve, "Duplicate should be a validation error")
	assert.Equal(t, "/name", ve.Field, "Duplicate should point at the name")
	assert.Contains(t, ve.Message, filepath.Join(dir, "copy.garden.yml"), "Duplicate should name the first file")
}

func TestValidateWorkflowsJSONOutput(t *testing.T) {
	dir := writeProject(t, testFiles{
		"project.garden.yml":   testProject,
		"ci/broken.garden.yml": testBrokenWorkflow,
	})

	_, stdout, _, err := runValidate(t, ValidateConfig{Dir: dir, JSONOutput: true})
	require.Error(t, err, "Validation should still fail in JSON mode")

	var decoded []struct {
		File      string `json:"file"`
		Workflows []struct {
			Name  string `json:"name"`
			Valid bool   `json:"valid"`
			Error *struct {
				Category string `json:"category"`
				Causes   []struct {
					Category string `json:"category"`
				} `json:"causes"`
			} `json:"error"`
		} `json:"workflows"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded), "Output should be JSON: %s", stdout.String())
	require.Len(t, decoded, 2, "One entry per file")

	broken := decoded[0].Workflows[0]
	assert.Equal(t, "broken", broken.Name, "Workflow name should be reported")
	assert.False(t, broken.Valid, "Broken workflow should be invalid")
	require.NotNil(t, broken.Error, "Structured error should be included")
	assert.Equal(t, "invalidSteps", broken.Error.Category, "Combined step error category")
	require.Len(t, broken.Error.Causes, 2, "Both step errors should be included")
	assert.Equal(t, "invalidStepCommand", broken.Error.Causes[0].Category, "Command error comes first")
	assert.Equal(t, "invalidStepOption", broken.Error.Causes[1].Category, "Option error comes second")

	assert.True(t, decoded[1].Workflows[0].Valid, "Project workflow should be valid")
	assert.Nil(t, decoded[1].Workflows[0].Error, "Valid workflows carry no error")
}

func TestValidateWorkflowsYAMLOutput(t *testing.T) {
	dir := writeProject(t, testFiles{"project.garden.yml": testProject})

	_, stdout, _, err := runValidate(t, ValidateConfig{Dir: dir, Output: "yaml"})
	require.NoError(t, err, "Project workflow should be valid")

	out := stdout.String()
	assert.Contains(t, out, "---\n", "Each workflow should start a YAML document")
	assert.Contains(t, out, "name: deploy-all", "Resolved workflow should be printed")
	assert.Contains(t, out, "- migrate", "Resolved templates should be printed")
	assert.Contains(t, out, "namespace: shop-dev", "Populated namespaces should be printed")
}

func TestValidateWorkflowsMissingProject(t *testing.T) {
	_, _, _, err := runValidate(t, ValidateConfig{Dir: t.TempDir()})
	require.Error(t, err, "Missing project configuration should fail")
	assert.Contains(t, err.Error(), "no project configuration found", "Error should explain what is missing")
}

func TestValidateWorkflowsUnreadableFile(t *testing.T) {
	dir := writeProject(t, testFiles{
		"project.garden.yml": testProject,
		"bad.garden.yml":     "kind: Workflow\nname: [unterminated\n",
	})

	results, _, _, err := runValidate(t, ValidateConfig{Dir: dir})
	require.Error(t, err, "Malformed YAML should fail validation")
	assert.Error(t, results[0].Err, "Malformed file should carry a load error")
	assert.True(t, results[0].Failed(), "Malformed file should count as failed")
}

func TestParseVars(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]any
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: map[string]any{}},
		{name: "pairs", pairs: []string{"a=1", "b=x=y"}, want: map[string]any{"a": "1", "b": "x=y"}},
		{name: "empty value", pairs: []string{"a="}, want: map[string]any{"a": ""}},
		{name: "missing equals", pairs: []string{"a"}, wantErr: true},
		{name: "missing key", pairs: []string{"=1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVars(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err, "Invalid pair should be rejected")
				return
			}
			require.NoError(t, err, "Valid pairs should parse")
			assert.Equal(t, tt.want, got, "Parsed variables")
		})
	}
}
