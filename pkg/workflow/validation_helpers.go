// This file provides validation helpers shared by the workflow validators.
//
// # Available Helper Functions
//
//   - isSet() - Reports whether a raw mapping holds a non-null value for a key
//   - validateExactlyOne() - Checks that exactly one of two keys is set
//   - validateRelativePath() - Checks that a path stays within the project root
//   - validateGlobPatterns() - Checks trigger branch and tag patterns
//   - isTruthy() - Decides whether a parsed option value counts as "set"
//
// For the validation architecture overview, see validation.go.

package workflow

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/githubnext/wfcheck/pkg/logger"
)

var validationHelpersLog = logger.New("workflow:validation_helpers")

// isSet reports whether m has a non-null value for key.
func isSet(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}

// validateExactlyOne checks that exactly one of a and b is set in m.
// The returned error is a mutual exclusivity error located at field.
func validateExactlyOne(m map[string]any, workflow, field, what, a, b string) error {
	hasA, hasB := isSet(m, a), isSet(m, b)
	if hasA != hasB {
		return nil
	}

	validationHelpersLog.Printf("Mutual exclusivity violation at %s: %s=%v %s=%v", field, a, hasA, b, hasB)
	reason := "neither is set"
	if hasA {
		reason = "both are set"
	}
	return &ValidationError{
		Category:   CategoryMutualExclusivity,
		Workflow:   workflow,
		Field:      field,
		Message:    fmt.Sprintf("%s must specify exactly one of '%s' or '%s', but %s", what, a, b, reason),
		Suggestion: fmt.Sprintf("Keep either '%s' or '%s'.", a, b),
	}
}

// confinementRoot anchors the lexical join. Its location is irrelevant as
// long as it is not the filesystem root, where ".." would be absorbed.
var confinementRoot = filepath.Join(string(filepath.Separator), "project")

// validateRelativePath checks that p is relative and does not lexically
// escape root. Symbolic links are not followed and the filesystem is never
// consulted, so the outcome depends only on p. root is used in messages.
func validateRelativePath(root, p string) error {
	if root == "" {
		root = "."
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") {
		return fmt.Errorf("path '%s' must be relative to the project root '%s'", p, root)
	}
	joined, err := securejoin.SecureJoinVFS(confinementRoot, p, lexicalFS{})
	if err != nil {
		return fmt.Errorf("path '%s' could not be resolved: %w", p, err)
	}
	if joined != filepath.Join(confinementRoot, p) {
		return fmt.Errorf("path '%s' must not point outside the project root '%s'", p, root)
	}
	return nil
}

// lexicalFS reports every path as missing, so SecureJoinVFS only cleans
// ".." segments and never resolves links.
type lexicalFS struct{}

func (lexicalFS) Lstat(name string) (os.FileInfo, error) {
	return nil, &fs.PathError{Op: "lstat", Path: name, Err: fs.ErrNotExist}
}

func (lexicalFS) Readlink(name string) (string, error) {
	return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrNotExist}
}

// validateGlobPatterns checks every pattern is a valid glob.
func validateGlobPatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid pattern '%s'", p)
		}
	}
	return nil
}

// isTruthy reports whether a parsed option value counts as set: true,
// a non-empty string or collection, or a non-zero number.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	default:
		return true
	}
}
