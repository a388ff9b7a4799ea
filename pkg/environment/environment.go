// Package environment holds the project's deployment environments and their
// namespacing policies.
package environment

import (
	"fmt"
	"regexp"

	"github.com/githubnext/wfcheck/pkg/logger"
)

var environmentLog = logger.New("environment:environment")

// Namespacing controls how an environment derives the namespace of a run.
type Namespacing string

const (
	// NamespacingOptional uses the explicit namespace if given, else the default namespace.
	NamespacingOptional Namespacing = "optional"
	// NamespacingRequired demands an explicit namespace.
	NamespacingRequired Namespacing = "required"
	// NamespacingDisabled rejects explicit namespaces other than the default and always uses the default (possibly empty).
	NamespacingDisabled Namespacing = "disabled"
)

// NamespacePolicy derives a namespace from an optional explicit override ("" when absent).
type NamespacePolicy func(override string) (string, error)

// namespacePattern matches a DNS-1123 label.
var namespacePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

const maxNamespaceLength = 63

// Config is the declarative form of an environment, as found in project configuration.
type Config struct {
	Name             string      `yaml:"name" json:"name"`
	DefaultNamespace string      `yaml:"defaultNamespace,omitempty" json:"defaultNamespace,omitempty"`
	Namespacing      Namespacing `yaml:"namespacing,omitempty" json:"namespacing,omitempty"`
}

// Environment is a named deployment target with its namespacing policy.
type Environment struct {
	Name   string
	Policy NamespacePolicy
}

// New builds an Environment from its configuration.
func New(cfg Config) (Environment, error) {
	if cfg.Name == "" {
		return Environment{}, fmt.Errorf("environment name cannot be empty")
	}
	if cfg.DefaultNamespace != "" {
		if err := ValidateNamespace(cfg.DefaultNamespace); err != nil {
			return Environment{}, fmt.Errorf("environment '%s' has an invalid defaultNamespace: %w", cfg.Name, err)
		}
	}
	policy, err := PolicyFor(cfg)
	if err != nil {
		return Environment{}, err
	}
	return Environment{Name: cfg.Name, Policy: policy}, nil
}

// Namespace applies the environment's policy to override.
func (e Environment) Namespace(override string) (string, error) {
	if e.Policy == nil {
		return "", fmt.Errorf("environment '%s' has no namespacing policy", e.Name)
	}
	return e.Policy(override)
}

// PolicyFor returns the namespacing policy described by cfg. An empty
// Namespacing is treated as optional.
func PolicyFor(cfg Config) (NamespacePolicy, error) {
	switch cfg.Namespacing {
	case "", NamespacingOptional:
		return func(override string) (string, error) {
			ns := override
			if ns == "" {
				ns = cfg.DefaultNamespace
			}
			if ns == "" {
				return "", fmt.Errorf("environment '%s' has no defaultNamespace and no explicit namespace was specified; set a defaultNamespace or specify a namespace (e.g. some-namespace.%s)", cfg.Name, cfg.Name)
			}
			return ns, ValidateNamespace(ns)
		}, nil
	case NamespacingRequired:
		return func(override string) (string, error) {
			if override == "" {
				return "", fmt.Errorf("environment '%s' requires an explicit namespace", cfg.Name)
			}
			return override, ValidateNamespace(override)
		}, nil
	case NamespacingDisabled:
		return func(override string) (string, error) {
			if override != "" && override != cfg.DefaultNamespace {
				return "", fmt.Errorf("environment '%s' does not allow namespaces, got '%s'", cfg.Name, override)
			}
			return cfg.DefaultNamespace, nil
		}, nil
	default:
		return nil, fmt.Errorf("environment '%s' has unknown namespacing '%s' (valid: %s, %s, %s)",
			cfg.Name, cfg.Namespacing, NamespacingOptional, NamespacingRequired, NamespacingDisabled)
	}
}

// ValidateNamespace checks that ns is a valid DNS-1123 label.
func ValidateNamespace(ns string) error {
	if len(ns) > maxNamespaceLength {
		return fmt.Errorf("namespace '%s' exceeds %d characters", ns, maxNamespaceLength)
	}
	if !namespacePattern.MatchString(ns) {
		return fmt.Errorf("namespace '%s' must consist of lowercase alphanumeric characters or '-', and must start and end with an alphanumeric character", ns)
	}
	return nil
}

// Registry is an ordered, read-only collection of environments.
type Registry struct {
	envs  []Environment
	index map[string]int
}

// NewRegistry builds a registry, rejecting duplicate names.
func NewRegistry(envs ...Environment) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(envs))}
	for _, env := range envs {
		if _, exists := r.index[env.Name]; exists {
			return nil, fmt.Errorf("duplicate environment name '%s'", env.Name)
		}
		r.index[env.Name] = len(r.envs)
		r.envs = append(r.envs, env)
	}
	environmentLog.Printf("Built environment registry: environments=%d", len(r.envs))
	return r, nil
}

// NewRegistryFromConfigs builds environments from their configurations.
func NewRegistryFromConfigs(configs ...Config) (*Registry, error) {
	envs := make([]Environment, 0, len(configs))
	for _, cfg := range configs {
		env, err := New(cfg)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return NewRegistry(envs...)
}

// Lookup returns the environment with the given name.
func (r *Registry) Lookup(name string) (Environment, bool) {
	i, ok := r.index[name]
	if !ok {
		return Environment{}, false
	}
	return r.envs[i], true
}

// Names returns environment names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.envs))
	for _, env := range r.envs {
		names = append(names, env.Name)
	}
	return names
}
