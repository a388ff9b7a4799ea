package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/githubnext/wfcheck/pkg/console"
	"github.com/githubnext/wfcheck/pkg/workflow"
)

// FormatValidationError formats a validation error for console output.
//
// Validation errors stay plain text in the workflow package; styling is
// applied here so multi-line messages keep their layout. Errors raised for a
// named workflow are prefixed with that name. Joined errors are formatted
// one per line so each keeps its own prefix.
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}

	parts := workflow.SplitJoinedErrors(err)
	lines := make([]string, 0, len(parts))
	for _, part := range parts {
		errMsg := part.Error()
		var ve *workflow.ValidationError
		if errors.As(part, &ve) && ve.Workflow != "" {
			errMsg = fmt.Sprintf("[%s] %s", ve.Workflow, errMsg)
		}
		lines = append(lines, console.FormatErrorMessage(errMsg))
	}
	return strings.Join(lines, "\n")
}

// PrintValidationError prints a validation error to stderr with console formatting.
func PrintValidationError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, FormatValidationError(err))
}
