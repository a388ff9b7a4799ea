package console

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/githubnext/wfcheck/pkg/logger"
)

var renderLog = logger.New("console:render")

// RenderSlice renders a slice of structs as a table. Columns come from the
// exported fields, in declaration order, configured with `console` tags:
//
//	`console:"header:Column Name"` sets the column header
//	`console:"default:-"` replaces zero values
//	`console:"maxlen:40"` truncates long values
//	`console:"-"` skips the field
//
// Slice and array fields are joined with ", ". Anything that is not a slice
// of structs, or is empty, renders nothing.
func RenderSlice(title string, v any) string {
	val := reflect.ValueOf(v)
	if (val.Kind() != reflect.Slice && val.Kind() != reflect.Array) || val.Len() == 0 {
		return ""
	}
	renderLog.Printf("Rendering slice: type=%T, len=%d", v, val.Len())
	config, ok := buildTableConfig(val)
	if !ok {
		return ""
	}
	config.Title = title
	return RenderTable(config)
}

func buildTableConfig(val reflect.Value) (TableConfig, bool) {
	elemType := val.Type().Elem()
	for elemType.Kind() == reflect.Ptr {
		elemType = elemType.Elem()
	}
	if elemType.Kind() != reflect.Struct {
		return TableConfig{}, false
	}

	var config TableConfig
	var fieldIndices []int
	var fieldTags []consoleTag
	for i := range elemType.NumField() {
		field := elemType.Field(i)
		tag := parseConsoleTag(field.Tag.Get("console"))
		if tag.skip || !field.IsExported() {
			continue
		}
		header := field.Name
		if tag.header != "" {
			header = tag.header
		}
		config.Headers = append(config.Headers, header)
		fieldIndices = append(fieldIndices, i)
		fieldTags = append(fieldTags, tag)
	}

	for i := range val.Len() {
		elem := val.Index(i)
		for elem.Kind() == reflect.Ptr && !elem.IsNil() {
			elem = elem.Elem()
		}
		if elem.Kind() != reflect.Struct {
			continue
		}
		row := make([]string, len(fieldIndices))
		for j, idx := range fieldIndices {
			row[j] = formatFieldValue(elem.Field(idx), fieldTags[j])
		}
		config.Rows = append(config.Rows, row)
	}
	return config, true
}

// consoleTag is a parsed `console` struct tag.
type consoleTag struct {
	header     string
	defaultVal string
	maxLen     int
	skip       bool
}

func parseConsoleTag(tag string) consoleTag {
	var result consoleTag
	if tag == "-" {
		result.skip = true
		return result
	}

	for part := range strings.SplitSeq(tag, ",") {
		part = strings.TrimSpace(part)
		if after, ok := strings.CutPrefix(part, "header:"); ok {
			result.header = after
		} else if after, ok := strings.CutPrefix(part, "default:"); ok {
			result.defaultVal = after
		} else if after, ok := strings.CutPrefix(part, "maxlen:"); ok {
			if n, err := strconv.Atoi(after); err == nil {
				result.maxLen = n
			}
		}
	}
	return result
}

func formatFieldValue(val reflect.Value, tag consoleTag) string {
	for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return tag.defaultVal
		}
		val = val.Elem()
	}
	if val.IsZero() && tag.defaultVal != "" {
		return tag.defaultVal
	}

	var s string
	switch val.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, val.Len())
		for i := range val.Len() {
			parts[i] = fmt.Sprint(val.Index(i).Interface())
		}
		s = strings.Join(parts, ", ")
		if s == "" {
			s = tag.defaultVal
		}
	case reflect.Float32, reflect.Float64:
		s = strconv.FormatFloat(val.Float(), 'f', -1, 64)
	default:
		s = fmt.Sprint(val.Interface())
	}

	if tag.maxLen > 3 && len([]rune(s)) > tag.maxLen {
		s = string([]rune(s)[:tag.maxLen-3]) + "..."
	}
	return s
}
