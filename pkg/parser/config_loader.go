package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/githubnext/wfcheck/pkg/environment"
	"github.com/githubnext/wfcheck/pkg/logger"
	"github.com/goccy/go-yaml"
)

var configLoaderLog = logger.New("parser:config_loader")

// Document kinds understood by the loader.
const (
	KindWorkflow = "Workflow"
	KindProject  = "Project"
)

// Document is one YAML document of a configuration file.
type Document struct {
	Kind    string
	Path    string
	Index   int
	Content map[string]any
}

// ProjectConfig is the subset of project configuration needed to validate workflows.
type ProjectConfig struct {
	Kind         string               `yaml:"kind"`
	Name         string               `yaml:"name"`
	Environments []environment.Config `yaml:"environments"`
	Variables    map[string]any       `yaml:"variables"`
}

// ParseDocuments decodes every YAML document in content. Empty documents
// are skipped; a document that is not a mapping is an error.
func ParseDocuments(content []byte, path string) ([]Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))

	var docs []Document
	for index := 0; ; index++ {
		var raw any
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s:\n%s", path, yaml.FormatError(err, false, true))
		}
		if raw == nil {
			continue
		}
		content, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: document %d must be a mapping, got %T", path, index+1, raw)
		}
		kind, _ := content["kind"].(string)
		docs = append(docs, Document{Kind: kind, Path: path, Index: index, Content: content})
	}

	configLoaderLog.Printf("Parsed %s: documents=%d", path, len(docs))
	return docs, nil
}

// LoadDocuments reads and parses a configuration file.
func LoadDocuments(path string) ([]Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return ParseDocuments(content, path)
}

// WorkflowDocuments returns the documents of kind Workflow. A file holding a
// single document without a kind is treated as a workflow.
func WorkflowDocuments(docs []Document) []Document {
	if len(docs) == 1 && docs[0].Kind == "" {
		return docs
	}
	var out []Document
	for _, d := range docs {
		if strings.EqualFold(d.Kind, KindWorkflow) {
			out = append(out, d)
		}
	}
	return out
}

// DecodeProject converts the first Project document into a ProjectConfig.
func DecodeProject(docs []Document) (*ProjectConfig, error) {
	for _, d := range docs {
		if !strings.EqualFold(d.Kind, KindProject) {
			continue
		}
		data, err := yaml.Marshal(d.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to re-encode project document: %w", d.Path, err)
		}
		var project ProjectConfig
		if err := yaml.Unmarshal(data, &project); err != nil {
			return nil, fmt.Errorf("%s: invalid project configuration:\n%s", d.Path, yaml.FormatError(err, false, true))
		}
		configLoaderLog.Printf("Decoded project %q: environments=%d", project.Name, len(project.Environments))
		return &project, nil
	}
	return nil, fmt.Errorf("no document of kind %s found", KindProject)
}

// LoadProject reads a project configuration file.
func LoadProject(path string) (*ProjectConfig, error) {
	docs, err := LoadDocuments(path)
	if err != nil {
		return nil, err
	}
	project, err := DecodeProject(docs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return project, nil
}

// EnvironmentRegistry builds the project's environment registry.
func (p *ProjectConfig) EnvironmentRegistry() (*environment.Registry, error) {
	return environment.NewRegistryFromConfigs(p.Environments...)
}
