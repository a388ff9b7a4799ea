// This file provides error aggregation for workflow validation.
//
// Structural problems (template resolution, schema violations) stop
// resolution at the first failure, while step checks run every step before
// reporting so authors see all problems in one pass. ErrorCollector supports
// both modes:
//
//	collector := NewErrorCollector(failFast)
//	if err := collector.Add(validateCommands(cfg)); err != nil {
//	    return err // fail-fast mode
//	}
//	if err := collector.Add(validateOptions(cfg)); err != nil {
//	    return err
//	}
//	return collector.Error()

package workflow

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/githubnext/wfcheck/pkg/logger"
)

var errorAggregationLog = logger.New("workflow:error_aggregation")

// ErrorCollector collects multiple validation errors
type ErrorCollector struct {
	errors   []error
	failFast bool
}

// NewErrorCollector creates a new error collector
// If failFast is true, the collector will stop at the first error
func NewErrorCollector(failFast bool) *ErrorCollector {
	errorAggregationLog.Printf("Creating error collector: fail_fast=%v", failFast)
	return &ErrorCollector{
		errors:   make([]error, 0),
		failFast: failFast,
	}
}

// Add adds an error to the collector. Nil errors are ignored.
// If failFast is enabled, returns the error immediately
// Otherwise, adds it to the collection and returns nil
func (c *ErrorCollector) Add(err error) error {
	if err == nil {
		return nil
	}

	errorAggregationLog.Printf("Adding error to collector: %v", err)

	if c.failFast {
		errorAggregationLog.Print("Fail-fast enabled, returning error immediately")
		return err
	}

	c.errors = append(c.errors, err)
	return nil
}

// HasErrors returns true if any errors have been collected
func (c *ErrorCollector) HasErrors() bool {
	return len(c.errors) > 0
}

// Count returns the number of errors collected
func (c *ErrorCollector) Count() int {
	return len(c.errors)
}

// Error returns the aggregated error using errors.Join
// Returns nil if no errors were collected
func (c *ErrorCollector) Error() error {
	if len(c.errors) == 0 {
		return nil
	}

	errorAggregationLog.Printf("Aggregating %d errors", len(c.errors))

	if len(c.errors) == 1 {
		return c.errors[0]
	}

	return errors.Join(c.errors...)
}

// FormattedError returns the aggregated error with a formatted header showing the count
// Returns nil if no errors were collected
func (c *ErrorCollector) FormattedError(category string) error {
	if len(c.errors) == 0 {
		return nil
	}

	errorAggregationLog.Printf("Formatting %d errors for category: %s", len(c.errors), category)

	if len(c.errors) == 1 {
		return c.errors[0]
	}

	return errors.New(formatErrorList(c.errors, category))
}

// StepError combines the collected step errors into one invalidSteps error
// whose Detail merges the details of every cause. A single collected
// validation error is returned unchanged.
func (c *ErrorCollector) StepError(workflow string) error {
	if len(c.errors) == 0 {
		return nil
	}

	var causes []*ValidationError
	for _, err := range c.errors {
		var ve *ValidationError
		if !errors.As(err, &ve) {
			return c.Error()
		}
		causes = append(causes, ve)
	}
	if len(causes) == 1 {
		return causes[0]
	}

	errorAggregationLog.Printf("Combining %d step errors for workflow %s", len(causes), workflow)
	detail := make(map[string]any)
	for _, cause := range causes {
		maps.Copy(detail, cause.Detail)
	}
	return &ValidationError{
		Category: CategoryInvalidSteps,
		Workflow: workflow,
		Message:  formatErrorList(c.errors, "step validation"),
		Detail:   detail,
		Causes:   causes,
	}
}

func formatErrorList(errs []error, category string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d %s errors:", len(errs), category)
	for _, err := range errs {
		sb.WriteString("\n\n  • ")
		sb.WriteString(strings.ReplaceAll(err.Error(), "\n", "\n    "))
	}
	return sb.String()
}

// SplitJoinedErrors returns the individual errors of an errors.Join result,
// or err itself when it is not joined.
func SplitJoinedErrors(err error) []error {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		if _, isValidation := err.(*ValidationError); !isValidation {
			return joined.Unwrap()
		}
	}
	return []error{err}
}
