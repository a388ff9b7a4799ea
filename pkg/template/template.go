// Package template resolves ${...} references in configuration values.
//
// A reference is a dotted key path looked up in a Context, for example
// ${var.image-tag} or ${project.name}. A fallback may follow after ||, either
// another reference or a quoted string: ${var.tag || "latest"}. A string that
// consists of exactly one reference resolves to the referenced value itself
// (keeping its type); otherwise values are interpolated as text. $${ escapes a
// literal "${".
//
// In partial mode references whose keys are not available are left in place
// verbatim instead of failing, so they can be resolved later.
package template

import (
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/githubnext/wfcheck/pkg/logger"
)

var templateLog = logger.New("template:template")

// Context holds the values references are resolved against. Nested maps are
// traversed by the dotted key path.
type Context map[string]any

// Options control resolution.
type Options struct {
	// AllowPartial leaves unresolvable references in place instead of failing.
	AllowPartial bool
}

// referencePattern matches ${...} not preceded by a second $ (checked in code).
var referencePattern = regexp.MustCompile(`\$\{([^{}]*)\}`)

// keyPattern validates a single reference key path.
var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*(\.[A-Za-z0-9_-]+)*$`)

// Resolver implements template resolution over configuration trees.
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve returns a copy of config with every string value resolved. Map keys
// are never resolved.
func (r *Resolver) Resolve(config map[string]any, ctx Context, opts Options) (map[string]any, error) {
	templateLog.Printf("Resolving config: keys=%d, allow_partial=%v", len(config), opts.AllowPartial)
	out, err := resolveValue(config, ctx, opts, "")
	if err != nil {
		return nil, err
	}
	resolved, _ := out.(map[string]any)
	return resolved, nil
}

// ResolveString resolves a single string.
func (r *Resolver) ResolveString(s string, ctx Context, opts Options) (any, error) {
	return resolveString(s, ctx, opts, "")
}

func resolveValue(v any, ctx Context, opts Options, path string) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			resolved, err := resolveValue(item, ctx, opts, joinPath(path, k))
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			resolved, err := resolveValue(item, ctx, opts, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	case string:
		return resolveString(val, ctx, opts, path)
	default:
		return v, nil
	}
}

func resolveString(s string, ctx Context, opts Options, path string) (any, error) {
	if !strings.Contains(s, "${") {
		return s, nil
	}
	if err := checkBalanced(s); err != nil {
		return nil, fieldError(path, err)
	}

	matches := referencePattern.FindAllStringSubmatchIndex(s, -1)

	// A lone reference keeps the type of the referenced value.
	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		value, found, err := evaluate(s[matches[0][2]:matches[0][3]], ctx)
		if err != nil {
			return nil, fieldError(path, err)
		}
		if !found {
			return unresolved(s, opts, path)
		}
		return value, nil
	}

	var sb strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		if start > 0 && s[start-1] == '$' {
			// $${...} escape: drop one $ and keep the rest literally.
			sb.WriteString(s[last : start-1])
			sb.WriteString(s[start:end])
			last = end
			continue
		}
		sb.WriteString(s[last:start])
		value, found, err := evaluate(s[m[2]:m[3]], ctx)
		if err != nil {
			return nil, fieldError(path, err)
		}
		if !found {
			if !opts.AllowPartial {
				return unresolved(s[start:end], opts, path)
			}
			sb.WriteString(s[start:end])
		} else {
			sb.WriteString(stringify(value))
		}
		last = end
	}
	sb.WriteString(s[last:])
	return sb.String(), nil
}

// evaluate resolves a reference expression. found is false when no operand
// of the expression could be resolved.
func evaluate(expr string, ctx Context) (any, bool, error) {
	for operand := range strings.SplitSeq(expr, "||") {
		operand = strings.TrimSpace(operand)
		if literal, ok := quoted(operand); ok {
			return literal, true, nil
		}
		if !keyPattern.MatchString(operand) {
			return nil, false, fmt.Errorf("invalid template reference '%s'", operand)
		}
		if value, ok := lookup(ctx, operand); ok {
			return value, true, nil
		}
	}
	return nil, false, nil
}

func quoted(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}

func lookup(ctx Context, key string) (any, bool) {
	var current any = map[string]any(ctx)
	for part := range strings.SplitSeq(key, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			if c, isCtx := current.(Context); isCtx {
				m = c
			} else {
				return nil, false
			}
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func unresolved(ref string, opts Options, path string) (any, error) {
	if opts.AllowPartial {
		templateLog.Printf("Leaving unresolved reference in place: %s", ref)
		return ref, nil
	}
	return nil, fieldError(path, fmt.Errorf("could not resolve %s", ref))
}

func checkBalanced(s string) error {
	open := strings.Count(s, "${")
	closed := len(referencePattern.FindAllStringIndex(s, -1))
	if open != closed {
		return fmt.Errorf("unterminated template reference in '%s'", s)
	}
	return nil
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

func joinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func fieldError(path string, err error) error {
	if path == "" {
		return err
	}
	return fmt.Errorf("%s: %w", path, err)
}

// Merge returns a new context with other's top-level keys layered over c.
func (c Context) Merge(other Context) Context {
	out := make(Context, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
