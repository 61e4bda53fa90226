package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v2"
)

type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database,omitempty"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	PathStyle bool   `yaml:"path_style,omitempty"`
}

type ChangelogConfig struct {
	Author    string `yaml:"author,omitempty"`
	Commit    string `yaml:"commit,omitempty"`
	OutputDir string `yaml:"output_dir,omitempty"`
}

// ModelSpec describes one model source the CLI can convert.
type ModelSpec struct {
	Handle    string `yaml:"handle"`
	File      string `yaml:"file"`
	Version   string `yaml:"version,omitempty"`
	Latest    bool   `yaml:"latest,omitempty"`
	TermsOnly bool   `yaml:"terms_only,omitempty"`
}

type Config struct {
	Neo4j     Neo4jConfig     `yaml:"neo4j"`
	S3        S3Config        `yaml:"s3"`
	Changelog ChangelogConfig `yaml:"changelog"`
	Models    []ModelSpec     `yaml:"models"`
}

// LoadConfig reads a YAML config file, expanding ${VAR} / ${VAR:-default} /
// $VAR references against the process environment before unmarshalling.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateModels(&cfg); err != nil {
		return nil, fmt.Errorf("invalid model configuration: %w", err)
	}

	return &cfg, nil
}

// GetModel returns the configured model spec for a handle.
func (c *Config) GetModel(handle string) (*ModelSpec, error) {
	for i := range c.Models {
		if c.Models[i].Handle == handle {
			return &c.Models[i], nil
		}
	}
	return nil, fmt.Errorf("model not found: %s", handle)
}

func validateModels(cfg *Config) error {
	for _, m := range cfg.Models {
		if m.Handle == "" {
			return fmt.Errorf("model entry missing handle")
		}
		if m.File == "" {
			return fmt.Errorf("model '%s': file is not specified", m.Handle)
		}
	}
	return nil
}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars substitutes environment variable references in raw config
// text. ${VAR:-default} falls back to the default when VAR is unset; an
// unset ${VAR} expands to "" while an unset bare $VAR is left as-is.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(ref string) string {
		groups := envVarPattern.FindStringSubmatch(ref)
		if groups[3] != "" {
			if v, ok := os.LookupEnv(groups[3]); ok {
				return v
			}
			return ref
		}
		if v, ok := os.LookupEnv(groups[1]); ok {
			return v
		}
		return groups[2]
	})
}
