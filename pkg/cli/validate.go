package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/githubnext/wfcheck/pkg/console"
	"github.com/githubnext/wfcheck/pkg/constants"
	"github.com/githubnext/wfcheck/pkg/environment"
	"github.com/githubnext/wfcheck/pkg/envutil"
	"github.com/githubnext/wfcheck/pkg/fileutil"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/githubnext/wfcheck/pkg/parser"
	"github.com/githubnext/wfcheck/pkg/template"
	"github.com/githubnext/wfcheck/pkg/workflow"
	"github.com/sourcegraph/conc/iter"
)

var validateEngineLog = logger.New("cli:validate")

// ValidateConfig holds the options of a validation run.
type ValidateConfig struct {
	Files       []string
	ProjectPath string
	Dir         string
	Vars        []string
	JSONOutput  bool
	Output      string
	FailFast    bool
	Stdout      io.Writer
	Stderr      io.Writer
}

// WorkflowResult is the outcome of resolving one workflow document.
type WorkflowResult struct {
	Name     string                   `json:"name"`
	Document int                      `json:"document"`
	Valid    bool                     `json:"valid"`
	Config   *workflow.WorkflowConfig `json:"config,omitempty"`
	Err      error                    `json:"-"`
}

// FileResult is the outcome of validating one configuration file.
type FileResult struct {
	File      string           `json:"file"`
	Workflows []WorkflowResult `json:"workflows"`
	Err       error            `json:"-"`
}

// MarshalJSON encodes errors as structured objects when they are validation
// errors and as plain messages otherwise.
func (r WorkflowResult) MarshalJSON() ([]byte, error) {
	type plain WorkflowResult
	return json.Marshal(struct {
		plain
		Error any `json:"error,omitempty"`
	}{plain(r), jsonError(r.Err)})
}

func (r FileResult) MarshalJSON() ([]byte, error) {
	type plain FileResult
	return json.Marshal(struct {
		plain
		Error any `json:"error,omitempty"`
	}{plain(r), jsonError(r.Err)})
}

func jsonError(err error) any {
	if err == nil {
		return nil
	}
	var ve *workflow.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return err.Error()
}

// Failed reports whether the file or any of its workflows failed.
func (r FileResult) Failed() bool {
	if r.Err != nil {
		return true
	}
	return slices.ContainsFunc(r.Workflows, func(w WorkflowResult) bool { return !w.Valid })
}

// ValidateWorkflows validates every workflow in the configured files and
// reports the results. It returns an error when any workflow is invalid.
func ValidateWorkflows(config ValidateConfig) ([]FileResult, error) {
	config = config.withDefaultWriters()

	resolver, files, err := prepareValidation(config)
	if err != nil {
		return nil, err
	}
	validateEngineLog.Printf("Validating %d files: fail_fast=%v", len(files), config.FailFast)

	results := runValidation(resolver, files, config.FailFast)
	checkDuplicateNames(results)

	if err := reportResults(config, results); err != nil {
		return results, err
	}
	return results, resultError(results, config.FailFast)
}

func (c ValidateConfig) withDefaultWriters() ValidateConfig {
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	return c
}

func prepareValidation(config ValidateConfig) (*workflow.Resolver, []string, error) {
	dir := config.Dir
	if dir == "" {
		dir = "."
	}

	projectPath := config.ProjectPath
	if projectPath == "" {
		found, err := fileutil.FindProjectConfig(dir)
		if err != nil {
			return nil, nil, err
		}
		projectPath = found
	}
	project, err := parser.LoadProject(projectPath)
	if err != nil {
		return nil, nil, err
	}
	envs, err := project.EnvironmentRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", projectPath, err)
	}

	vars, err := parseVars(config.Vars)
	if err != nil {
		return nil, nil, err
	}

	files := config.Files
	if len(files) == 0 {
		files, err = fileutil.FindConfigFiles(filepath.Dir(projectPath))
		if err != nil {
			return nil, nil, err
		}
	}

	resolver := newResolver(envs)
	resolver.SetTemplateContext(templateContext(project, vars))
	resolver.SetProjectRoot(filepath.Dir(projectPath))
	return resolver, files, nil
}

func newResolver(envs *environment.Registry) *workflow.Resolver {
	set := NewStepCommandSet(StepCommandTree())
	return workflow.NewResolver(set.Registry, set.Parser, set.Reserved, envs)
}

func templateContext(project *parser.ProjectConfig, vars map[string]any) template.Context {
	variables := template.Context(project.Variables).Merge(vars)
	return template.Context{
		"project":   map[string]any{"name": project.Name},
		"var":       map[string]any(variables),
		"variables": map[string]any(variables),
	}
}

// parseVars parses --var key=value pairs.
func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var '%s': expected <key>=<value>", pair)
		}
		vars[key] = value
	}
	return vars, nil
}

// runValidation validates files concurrently, or one by one stopping at the
// first failing file when failFast is set. Results keep the order of files.
func runValidation(resolver *workflow.Resolver, files []string, failFast bool) []FileResult {
	if !failFast {
		mapper := iter.Mapper[string, FileResult]{
			MaxGoroutines: envutil.GetIntFromEnv(constants.MaxConcurrencyEnvVar, runtime.GOMAXPROCS(0), 1, 256, validateEngineLog),
		}
		return mapper.Map(files, func(file *string) FileResult {
			return validateFile(resolver, *file)
		})
	}

	var results []FileResult
	for _, file := range files {
		result := validateFile(resolver, file)
		results = append(results, result)
		if result.Failed() {
			break
		}
	}
	return results
}

func validateFile(resolver *workflow.Resolver, file string) FileResult {
	result := FileResult{File: file}

	docs, err := parser.LoadDocuments(file)
	if err != nil {
		result.Err = err
		return result
	}

	for _, doc := range parser.WorkflowDocuments(docs) {
		name, _ := doc.Content["name"].(string)
		wr := WorkflowResult{Name: name, Document: doc.Index}
		cfg, err := resolver.Resolve(doc.Content)
		if err != nil {
			wr.Err = err
		} else {
			wr.Valid = true
			wr.Config = cfg
		}
		result.Workflows = append(result.Workflows, wr)
	}
	validateEngineLog.Printf("Validated %s: workflows=%d", file, len(result.Workflows))
	return result
}

// checkDuplicateNames marks workflows whose name is declared more than once
// across the validated files.
func checkDuplicateNames(results []FileResult) {
	seen := make(map[string]string)
	for i := range results {
		for j := range results[i].Workflows {
			w := &results[i].Workflows[j]
			if w.Name == "" {
				continue
			}
			if first, ok := seen[w.Name]; ok {
				w.Valid = false
				w.Config = nil
				w.Err = workflow.NewValidationError(w.Name, "/name",
					fmt.Sprintf("Workflow name '%s' is already declared in %s", w.Name, first),
					"Workflow names must be unique within a project.")
				continue
			}
			seen[w.Name] = results[i].File
		}
	}
}

func reportResults(config ValidateConfig, results []FileResult) error {
	if config.JSONOutput {
		enc := json.NewEncoder(config.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintln(config.Stderr, FormatValidationError(r.Err))
			continue
		}
		for _, w := range r.Workflows {
			if !w.Valid {
				fmt.Fprintln(config.Stderr, FormatValidationError(fmt.Errorf("%s: %w", r.File, w.Err)))
				continue
			}
			if config.Output == "yaml" {
				out, err := workflow.MarshalWorkflowYAML(w.Config)
				if err != nil {
					return err
				}
				fmt.Fprintf(config.Stdout, "---\n%s", out)
				continue
			}
			fmt.Fprintln(config.Stderr, console.FormatSuccessMessage(fmt.Sprintf("%s: workflow '%s' is valid", r.File, w.Name)))
		}
	}
	return nil
}

func resultError(results []FileResult, failFast bool) error {
	collector := workflow.NewErrorCollector(failFast)
	for _, r := range results {
		if r.Err != nil {
			if err := collector.Add(fmt.Errorf("%s: %w", r.File, r.Err)); err != nil {
				return err
			}
		}
		for _, w := range r.Workflows {
			if w.Valid {
				continue
			}
			if err := collector.Add(fmt.Errorf("%s: workflow '%s' is invalid", r.File, w.Name)); err != nil {
				return err
			}
		}
	}
	if collector.HasErrors() {
		validateEngineLog.Printf("Validation failed: errors=%d", collector.Count())
	}
	return collector.FormattedError("validation")
}
