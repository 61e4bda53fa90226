package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandEnvVars(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{
			name:     "Simple ${VAR} syntax",
			input:    "uri: ${NEO4J_URI}",
			envVars:  map[string]string{"NEO4J_URI": "bolt://localhost:7687"},
			expected: "uri: bolt://localhost:7687",
		},
		{
			name:     "Simple $VAR syntax",
			input:    "password: $NEO4J_PASSWORD",
			envVars:  map[string]string{"NEO4J_PASSWORD": "secret"},
			expected: "password: secret",
		},
		{
			name:     "${VAR:-default} with env set",
			input:    "bucket: ${MDB_BUCKET:-default-bucket}",
			envVars:  map[string]string{"MDB_BUCKET": "custom-bucket"},
			expected: "bucket: custom-bucket",
		},
		{
			name:     "${VAR:-default} with env not set",
			input:    "bucket: ${MDB_BUCKET:-default-bucket}",
			envVars:  map[string]string{},
			expected: "bucket: default-bucket",
		},
		{
			name:     "Multiple variables",
			input:    "uri: ${PROTOCOL}://${HOST}:${PORT}",
			envVars:  map[string]string{"PROTOCOL": "bolt", "HOST": "localhost", "PORT": "7687"},
			expected: "uri: bolt://localhost:7687",
		},
		{
			name:     "Mixed syntax",
			input:    "$DB_USER uses ${DB_NAME:-neo4j}",
			envVars:  map[string]string{"DB_USER": "alice", "DB_NAME": "mdb"},
			expected: "alice uses mdb",
		},
		{
			name:     "Undefined variable without default (${VAR})",
			input:    "path: ${UNDEFINED_VAR}",
			envVars:  map[string]string{},
			expected: "path: ",
		},
		{
			name:     "Undefined variable without default ($VAR)",
			input:    "path: $UNDEFINED_VAR",
			envVars:  map[string]string{},
			expected: "path: $UNDEFINED_VAR",
		},
		{
			name:     "Empty default value",
			input:    "path: ${EMPTY:-}",
			envVars:  map[string]string{},
			expected: "path: ",
		},
		{
			name:     "No variables",
			input:    "path: /static/path",
			envVars:  map[string]string{},
			expected: "path: /static/path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}
			if len(tt.envVars) == 0 {
				for _, v := range []string{"UNDEFINED_VAR", "EMPTY", "MDB_BUCKET"} {
					os.Unsetenv(v)
				}
			}

			result := expandEnvVars(tt.input)
			if result != tt.expected {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

const testConfigYAML = `neo4j:
  uri: ${TEST_NEO4J_URI:-bolt://localhost:7687}
  username: neo4j
  password: ${TEST_NEO4J_PASSWORD}
s3:
  bucket: mdb-backups
  region: us-east-1
changelog:
  author: alice
  output_dir: out
models:
  - handle: test
    file: models/test.yaml
    version: "1.0"
    latest: true
  - handle: other
    file: models/other.yaml
    terms_only: true
`

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("TEST_NEO4J_PASSWORD", "secret")
	os.Unsetenv("TEST_NEO4J_URI")

	cfg, err := LoadConfig(writeConfigFile(t, testConfigYAML))
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Neo4j.URI != "bolt://localhost:7687" {
		t.Errorf("Neo4j.URI = %q, want default from fallback", cfg.Neo4j.URI)
	}
	if cfg.Neo4j.Password != "secret" {
		t.Errorf("Neo4j.Password = %q, want %q", cfg.Neo4j.Password, "secret")
	}
	if cfg.S3.Bucket != "mdb-backups" {
		t.Errorf("S3.Bucket = %q", cfg.S3.Bucket)
	}
	if cfg.Changelog.Author != "alice" || cfg.Changelog.OutputDir != "out" {
		t.Errorf("Changelog = %+v", cfg.Changelog)
	}

	spec, err := cfg.GetModel("test")
	if err != nil {
		t.Fatalf("GetModel(test) error = %v", err)
	}
	if spec.File != "models/test.yaml" || spec.Version != "1.0" || !spec.Latest {
		t.Errorf("model spec = %+v", spec)
	}
	other, err := cfg.GetModel("other")
	if err != nil || !other.TermsOnly {
		t.Errorf("GetModel(other) = %+v, %v", other, err)
	}
	if _, err := cfg.GetModel("missing"); err == nil {
		t.Error("GetModel(missing) error = nil, want error")
	}
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
			t.Error("LoadConfig() error = nil, want error")
		}
	})

	t.Run("Model without file", func(t *testing.T) {
		path := writeConfigFile(t, "models:\n  - handle: test\n")
		if _, err := LoadConfig(path); err == nil {
			t.Error("LoadConfig() error = nil, want error")
		}
	})

	t.Run("Model without handle", func(t *testing.T) {
		path := writeConfigFile(t, "models:\n  - file: models/test.yaml\n")
		if _, err := LoadConfig(path); err == nil {
			t.Error("LoadConfig() error = nil, want error")
		}
	})
}
