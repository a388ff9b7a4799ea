//go:build !integration

package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewErrorCollector(t *testing.T) {
	tests := []struct {
		name     string
		failFast bool
	}{
		{
			name:     "fail-fast enabled",
			failFast: true,
		},
		{
			name:     "fail-fast disabled",
			failFast: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := NewErrorCollector(tt.failFast)
			require.NotNil(t, collector, "Collector should be created")
			assert.Equal(t, tt.failFast, collector.failFast, "Fail-fast setting should match")
			assert.False(t, collector.HasErrors(), "New collector should have no errors")
			assert.Equal(t, 0, collector.Count(), "New collector should have zero count")
		})
	}
}

func TestErrorCollectorAdd_FailFast(t *testing.T) {
	collector := NewErrorCollector(true)
	err1 := fmt.Errorf("first error")

	result := collector.Add(err1)
	require.Error(t, result, "Should return error immediately in fail-fast mode")
	assert.Equal(t, err1, result, "Should return the exact error")
	assert.False(t, collector.HasErrors(), "Should not collect errors in fail-fast mode")
}

func TestErrorCollectorAdd_Aggregate(t *testing.T) {
	collector := NewErrorCollector(false)

	require.NoError(t, collector.Add(fmt.Errorf("first error")), "Should not return error in aggregate mode")
	require.NoError(t, collector.Add(nil), "Nil errors should be ignored")
	require.NoError(t, collector.Add(fmt.Errorf("second error")), "Should not return error in aggregate mode")

	assert.Equal(t, 2, collector.Count(), "Should collect both errors")

	err := collector.Error()
	require.Error(t, err, "Should return aggregated error")
	assert.Contains(t, err.Error(), "first error", "Should contain first error")
	assert.Contains(t, err.Error(), "second error", "Should contain second error")
	assert.Len(t, SplitJoinedErrors(err), 2, "Joined error should split back into its parts")
}

func TestErrorCollectorFormattedError(t *testing.T) {
	collector := NewErrorCollector(false)
	assert.NoError(t, collector.FormattedError("workflow"), "Empty collector should return nil")

	single := errors.New("only error")
	_ = collector.Add(single)
	assert.Equal(t, single, collector.FormattedError("workflow"), "Single error should be returned unchanged")

	_ = collector.Add(errors.New("second\nline"))
	err := collector.FormattedError("workflow")
	require.Error(t, err, "Should return formatted error")
	assert.Equal(t, "Found 2 workflow errors:\n\n  • only error\n\n  • second\n    line", err.Error(), "Errors should be listed under a count header")
}

func TestErrorCollectorStepError(t *testing.T) {
	commandErr := &ValidationError{Category: CategoryInvalidStepCommand, Message: "bad command"}
	optionErr := &ValidationError{Category: CategoryInvalidStepOption, Message: "bad option"}

	collector := NewErrorCollector(false)
	assert.NoError(t, collector.StepError("deploy-all"), "No errors should give nil")

	_ = collector.Add(commandErr)
	assert.Same(t, commandErr, collector.StepError("deploy-all"), "A single error should not be wrapped")

	_ = collector.Add(optionErr)
	err := collector.StepError("deploy-all")
	ve := validationError(t, err)
	assert.Equal(t, CategoryInvalidSteps, ve.Category, "Two step errors should combine")
	assert.Equal(t, []*ValidationError{commandErr, optionErr}, ve.Causes, "Causes should keep their order")
	assert.ErrorIs(t, err, optionErr, "Causes should be reachable through errors.Is")
}

func TestValidationErrorFormatting(t *testing.T) {
	err := &ValidationError{
		Category:   CategoryStructural,
		Field:      "/steps/0/when",
		Message:    "Invalid workflow configuration 'deploy-all'",
		Suggestion: "Use one of onSuccess, onError, always, never.",
		Cause:      errors.New("value must be one of 'onSuccess', 'onError', 'always', 'never'"),
	}

	assert.Equal(t,
		"at '/steps/0/when': Invalid workflow configuration 'deploy-all': value must be one of 'onSuccess', 'onError', 'always', 'never'\n\nSuggestion: Use one of onSuccess, onError, always, never.",
		err.Error(), "Error should include location, cause and suggestion")

	data, jsonErr := json.Marshal(err)
	require.NoError(t, jsonErr, "Error should encode as JSON")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded), "JSON should decode")
	assert.Equal(t, "structural", decoded["category"], "Category should be encoded")
	assert.Equal(t, "/steps/0/when", decoded["field"], "Field should be encoded")
	assert.Contains(t, decoded["cause"], "must be one of", "Cause should be encoded as text")
}

func TestHasCategory(t *testing.T) {
	combined := &ValidationError{
		Category: CategoryInvalidSteps,
		Causes:   []*ValidationError{{Category: CategoryInvalidStepOption}},
	}
	wrapped := fmt.Errorf("workflow.yml: %w", combined)

	assert.True(t, HasCategory(wrapped, CategoryInvalidSteps), "Outer category should match through wrapping")
	assert.True(t, HasCategory(wrapped, CategoryInvalidStepOption), "Inner category should match")
	assert.False(t, HasCategory(wrapped, CategoryStructural), "Absent category should not match")
	assert.False(t, HasCategory(errors.New("plain"), CategoryStructural), "Plain errors have no category")
}
