//go:build !integration

package workflow

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMapFields(t *testing.T) {
	ordered := OrderMapFields(map[string]any{
		"when":    "always",
		"zeta":    1,
		"command": []any{"deploy"},
		"alpha":   2,
	}, []string{"name", "command", "when"})

	keys := make([]any, len(ordered))
	for i, item := range ordered {
		keys[i] = item.Key
	}
	assert.Equal(t, []any{"command", "when", "alpha", "zeta"}, keys, "Priority fields first, then alphabetical")
}

func TestMarshalWorkflowYAML(t *testing.T) {
	data := "A=1\nB=2\n"
	cfg := &WorkflowConfig{
		Kind:           "Workflow",
		Name:           "deploy-all",
		KeepAliveHours: 48,
		Limits:         &WorkflowLimits{CPU: 1000, Memory: 1024},
		Files:          []WorkflowFileSpec{{Path: "app.env", Data: &data}},
		Steps: []WorkflowStepSpec{
			{Command: []string{"deploy"}, When: "onSuccess"},
		},
		Triggers: []TriggerSpec{{Environment: "dev", Namespace: "shop-dev", Events: []string{"push"}}},
	}

	out, err := MarshalWorkflowYAML(cfg)
	require.NoError(t, err, "Workflow should marshal")

	text := string(out)
	order := []string{"kind: Workflow", "name: deploy-all", "limits:", "keepAliveHours:", "files:", "steps:", "triggers:"}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		require.GreaterOrEqual(t, idx, 0, "Output should contain %q", key)
		assert.Greater(t, idx, last, "%q should follow the previous field", key)
		last = idx
	}
	assert.Contains(t, text, "data: |", "Multiline data should use a literal block")
	assert.Less(t, strings.Index(text, "environment: dev"), strings.Index(text, "namespace: shop-dev"), "Trigger fields should be ordered")
	assert.Less(t, strings.Index(text, "cpu: 1000"), strings.Index(text, "memory: 1024"), "Limits should be ordered")
}
