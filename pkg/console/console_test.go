//go:build !integration

package console

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withTTY(t *testing.T, tty bool) {
	t.Helper()
	orig := isTTY
	isTTY = func() bool { return tty }
	t.Cleanup(func() { isTTY = orig })
}

func TestFormatMessages(t *testing.T) {
	withTTY(t, false)

	tests := []struct {
		name   string
		format func(string) string
		want   string
	}{
		{name: "error", format: FormatErrorMessage, want: "✗ boom"},
		{name: "warning", format: FormatWarningMessage, want: "⚠ boom"},
		{name: "success", format: FormatSuccessMessage, want: "✓ boom"},
		{name: "info", format: FormatInfoMessage, want: "ℹ boom"},
		{name: "list item", format: FormatListItem, want: "  • boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format("boom"), "Plain output should not be styled")
		})
	}
}

func TestFormatErrorMessageKeepsLayout(t *testing.T) {
	withTTY(t, true)

	msg := "Invalid step commands:\n\n  • step-1: bogus"
	out := FormatErrorMessage(msg)
	assert.True(t, strings.HasSuffix(out, msg), "Message body should be unchanged")
}

func TestRenderTable(t *testing.T) {
	withTTY(t, false)

	out := RenderTable(TableConfig{
		Title:   "Workflow commands",
		Headers: []string{"Command", "Options"},
		Rows: [][]string{
			{"run task", "--force"},
			{"deploy", "--force, --sync"},
		},
	})

	assert.True(t, strings.HasPrefix(out, "Workflow commands\n"), "Title should come first")
	for _, cell := range []string{"Command", "Options", "run task", "--force, --sync"} {
		assert.Contains(t, out, cell, "Table should contain %q", cell)
	}
	assert.Less(t, strings.Index(out, "run task"), strings.Index(out, "deploy"), "Rows should keep their order")
}

func TestRenderEmptyTable(t *testing.T) {
	assert.Empty(t, RenderTable(TableConfig{}), "Empty table should render nothing")
}
