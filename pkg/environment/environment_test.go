//go:build !integration

package environment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		override string
		want     string
		wantErr  string
	}{
		{
			name: "optional uses default",
			cfg:  Config{Name: "dev", DefaultNamespace: "dev-ns"},
			want: "dev-ns",
		},
		{
			name:     "optional prefers override",
			cfg:      Config{Name: "dev", DefaultNamespace: "dev-ns"},
			override: "feature-1",
			want:     "feature-1",
		},
		{
			name:    "optional without default or override fails",
			cfg:     Config{Name: "dev"},
			wantErr: "no defaultNamespace",
		},
		{
			name:     "optional rejects invalid override",
			cfg:      Config{Name: "dev", DefaultNamespace: "dev-ns"},
			override: "Not_Valid",
			wantErr:  "lowercase alphanumeric",
		},
		{
			name:     "required accepts override",
			cfg:      Config{Name: "prod", Namespacing: NamespacingRequired},
			override: "release",
			want:     "release",
		},
		{
			name:    "required without override fails",
			cfg:     Config{Name: "prod", Namespacing: NamespacingRequired, DefaultNamespace: "prod"},
			wantErr: "requires an explicit namespace",
		},
		{
			name: "disabled returns default",
			cfg:  Config{Name: "local", Namespacing: NamespacingDisabled, DefaultNamespace: "local"},
			want: "local",
		},
		{
			name:     "disabled rejects override",
			cfg:      Config{Name: "local", Namespacing: NamespacingDisabled},
			override: "x",
			wantErr:  "does not allow namespaces",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := New(tt.cfg)
			require.NoError(t, err, "Environment should build")

			got, err := env.Namespace(tt.override)
			if tt.wantErr != "" {
				require.Error(t, err, "Policy should fail")
				assert.Contains(t, err.Error(), tt.wantErr, "Error message should explain the failure")
				return
			}
			require.NoError(t, err, "Policy should succeed")
			assert.Equal(t, tt.want, got, "Namespace should match")
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err, "Empty name should be rejected")

	_, err = New(Config{Name: "dev", Namespacing: "sometimes"})
	require.Error(t, err, "Unknown namespacing should be rejected")
	assert.Contains(t, err.Error(), "unknown namespacing", "Error should mention the namespacing value")

	_, err = New(Config{Name: "dev", DefaultNamespace: "UPPER"})
	require.Error(t, err, "Invalid default namespace should be rejected")
}

func TestValidateNamespace(t *testing.T) {
	assert.NoError(t, ValidateNamespace("a"), "Single character is valid")
	assert.NoError(t, ValidateNamespace("feature-123"), "Dashes inside are valid")
	assert.Error(t, ValidateNamespace("-leading"), "Leading dash is invalid")
	assert.Error(t, ValidateNamespace("trailing-"), "Trailing dash is invalid")
	assert.Error(t, ValidateNamespace(""), "Empty is invalid")
	assert.Error(t, ValidateNamespace(strings.Repeat("a", 64)), "Over 63 characters is invalid")
}

func TestRegistry(t *testing.T) {
	reg, err := NewRegistryFromConfigs(
		Config{Name: "local", DefaultNamespace: "local"},
		Config{Name: "dev", DefaultNamespace: "dev"},
	)
	require.NoError(t, err, "Registry should build")

	assert.Equal(t, []string{"local", "dev"}, reg.Names(), "Names should keep declaration order")
	env, ok := reg.Lookup("dev")
	require.True(t, ok, "dev should be found")
	assert.Equal(t, "dev", env.Name, "Lookup should return the environment")
	_, ok = reg.Lookup("prod")
	assert.False(t, ok, "prod should not be found")

	_, err = NewRegistryFromConfigs(Config{Name: "dev", DefaultNamespace: "a"}, Config{Name: "dev", DefaultNamespace: "b"})
	require.Error(t, err, "Duplicate names should be rejected")
}

func TestNamespaceWithoutPolicy(t *testing.T) {
	_, err := Environment{Name: "bare"}.Namespace("")
	require.Error(t, err, "An environment without a policy cannot derive a namespace")
}
