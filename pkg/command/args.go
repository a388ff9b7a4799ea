package command

import (
	"fmt"
	"io"
	"strconv"

	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/spf13/pflag"
)

var argsLog = logger.New("command:args")

// FlagParser parses step argument tokens with the same flag semantics the CLI
// uses at run time: the global flags plus the matched command's own flags.
type FlagParser struct {
	global []Flag
}

// NewFlagParser returns a parser that always knows about the given global flags.
func NewFlagParser(global ...Flag) *FlagParser {
	return &FlagParser{global: global}
}

// Parse parses tokens (the arguments after the command path) for cmd.
// Only flags explicitly present in tokens appear in the result; defaults are
// never injected. Unknown flags and positional arguments are ignored.
func (p *FlagParser) Parse(tokens []string, cmd Command) (map[string]any, error) {
	fs := pflag.NewFlagSet(cmd.PathString(), pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.ParseErrorsWhitelist.UnknownFlags = true

	for _, f := range p.global {
		define(fs, f)
	}
	for _, f := range cmd.Flags {
		define(fs, f)
	}

	if err := fs.Parse(tokens); err != nil {
		argsLog.Printf("Failed to parse arguments for %q: %v", cmd.PathString(), err)
		return nil, fmt.Errorf("failed to parse arguments for command '%s': %w", cmd.PathString(), err)
	}

	parsed := make(map[string]any)
	fs.Visit(func(f *pflag.Flag) {
		parsed[f.Name] = flagValue(f)
	})
	argsLog.Printf("Parsed arguments for %q: set_flags=%d", cmd.PathString(), len(parsed))
	return parsed, nil
}

// define registers f on fs unless a flag with the same name already exists.
// A shorthand that is already taken is dropped rather than panicking.
func define(fs *pflag.FlagSet, f Flag) {
	if fs.Lookup(f.Name) != nil {
		return
	}
	short := f.Shorthand
	if short != "" && fs.ShorthandLookup(short) != nil {
		short = ""
	}

	switch f.Type {
	case "bool":
		fs.BoolP(f.Name, short, false, "")
	case "count":
		fs.CountP(f.Name, short, "")
	case "int":
		fs.IntP(f.Name, short, 0, "")
	case "float64":
		fs.Float64P(f.Name, short, 0, "")
	case "duration":
		fs.DurationP(f.Name, short, 0, "")
	case "stringSlice":
		fs.StringSliceP(f.Name, short, nil, "")
	case "stringArray":
		fs.StringArrayP(f.Name, short, nil, "")
	case "stringToString":
		fs.StringToStringP(f.Name, short, nil, "")
	default:
		fs.StringP(f.Name, short, "", "")
	}
}

// flagValue converts a parsed flag back into a plain Go value.
func flagValue(f *pflag.Flag) any {
	switch f.Value.Type() {
	case "bool":
		b, err := strconv.ParseBool(f.Value.String())
		if err != nil {
			return f.Value.String()
		}
		return b
	case "int", "count":
		n, err := strconv.Atoi(f.Value.String())
		if err != nil {
			return f.Value.String()
		}
		return n
	}
	if sv, ok := f.Value.(pflag.SliceValue); ok {
		return sv.GetSlice()
	}
	return f.Value.String()
}
