//go:build !integration

package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/githubnext/wfcheck/pkg/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runMatch(t *testing.T, dir string, ev workflow.RepositoryEvent, jsonOutput bool) (string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := MatchWorkflows(MatchConfig{
		ValidateConfig: ValidateConfig{Dir: dir, JSONOutput: jsonOutput, Stdout: &stdout, Stderr: &stderr},
		Event:          ev,
	})
	require.NoError(t, err, "match should succeed")
	return stdout.String(), stderr.String()
}

func TestMatchWorkflows(t *testing.T) {
	dir := writeProject(t, testFiles{
		"project.garden.yml":   testProject,
		"ci/broken.garden.yml": testBrokenWorkflow,
	})

	tests := []struct {
		name        string
		event       workflow.RepositoryEvent
		wantEnvs    []string
		wantNoMatch bool
	}{
		{name: "push to main", event: workflow.RepositoryEvent{Type: "push", Branch: "main"}, wantEnvs: []string{"dev"}},
		{name: "release tag", event: workflow.RepositoryEvent{Type: "push", Tag: "v1.2.0"}, wantEnvs: []string{"prod"}},
		{name: "feature branch", event: workflow.RepositoryEvent{Type: "push", Branch: "feature/login"}, wantNoMatch: true},
		{name: "pull request", event: workflow.RepositoryEvent{Type: "pull-request-opened", Branch: "main"}, wantNoMatch: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _ := runMatch(t, dir, tt.event, true)

			var runs []workflow.WorkflowRunConfig
			require.NoError(t, json.Unmarshal([]byte(stdout), &runs), "Output should be JSON: %s", stdout)

			if tt.wantNoMatch {
				assert.Empty(t, runs, "No trigger should fire")
				return
			}
			var envs []string
			for _, run := range runs {
				assert.Equal(t, "deploy-all", run.Name, "Only the valid workflow can run")
				envs = append(envs, run.Environment)
			}
			assert.Equal(t, tt.wantEnvs, envs, "Matching triggers in trigger order")
		})
	}
}

func TestMatchWorkflowsTable(t *testing.T) {
	dir := writeProject(t, testFiles{
		"project.garden.yml":   testProject,
		"ci/broken.garden.yml": testBrokenWorkflow,
	})

	stdout, stderr := runMatch(t, dir, workflow.RepositoryEvent{Type: "push", Branch: "main"}, false)
	assert.Contains(t, stdout, "Triggered workflow runs", "Table title should be printed")
	assert.Contains(t, stdout, "shop-dev", "Run namespace should be printed")
	assert.Contains(t, stderr, "skipping invalid workflow 'broken'", "Invalid workflows should be reported")

	_, stderr = runMatch(t, dir, workflow.RepositoryEvent{Type: "push", Branch: "feature"}, false)
	assert.Contains(t, stderr, "No workflow is triggered", "Empty match should be reported")
}

func TestMatchCommandRejectsUnknownEvent(t *testing.T) {
	cmd := NewMatchCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--event", "deploy"})

	err := cmd.Execute()
	require.Error(t, err, "Unknown events should be rejected")
	assert.Contains(t, err.Error(), "unknown event 'deploy'", "Error should name the event")
}
