package domaincfg

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kbox38/cignite/app/post"
)

const defaultMaxPosts = 200

// Loader handles loading and validation of snapshot domain configurations
type Loader struct {
	domainsDir string
}

// NewLoader creates a new configuration loader
func NewLoader(domainsDir string) *Loader {
	return &Loader{domainsDir: domainsDir}
}

// LoadAll loads all YAML configuration files from the domains directory,
// keyed by upper-cased domain name. A missing directory is not an error;
// every domain then runs on defaults.
func (l *Loader) LoadAll() (map[string]*DomainConfig, error) {
	configs := make(map[string]*DomainConfig)

	if _, err := os.Stat(l.domainsDir); os.IsNotExist(err) {
		return configs, nil
	}

	files, err := filepath.Glob(filepath.Join(l.domainsDir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YAML files: %w", err)
	}

	ymlFiles, err := filepath.Glob(filepath.Join(l.domainsDir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to find YML files: %w", err)
	}
	files = append(files, ymlFiles...)

	for _, file := range files {
		config, err := l.loadFile(file)
		if err != nil {
			return nil, fmt.Errorf("error loading %s: %w", file, err)
		}

		if err := l.validate(config); err != nil {
			return nil, fmt.Errorf("invalid config %s: %w", file, err)
		}

		configs[strings.ToUpper(config.Domain.Name)] = config
		slog.Info("Loaded domain configuration", "file", file, "domain", config.Domain.Name)
	}

	return configs, nil
}

func (l *Loader) loadFile(path string) (*DomainConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config DomainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	l.setDefaults(&config)

	return &config, nil
}

func (l *Loader) setDefaults(config *DomainConfig) {
	if config.Settings.MaxPosts == 0 {
		config.Settings.MaxPosts = defaultMaxPosts
	}
}

func (l *Loader) validate(config *DomainConfig) error {
	if config.Domain.Name == "" {
		return fmt.Errorf("domain name is required")
	}

	if config.Settings.StalenessThreshold < 0 {
		return fmt.Errorf("staleness threshold must be non-negative")
	}
	if config.Settings.MaxPosts < 0 {
		return fmt.Errorf("max posts must be non-negative")
	}

	validFields := map[string]bool{
		post.FieldText:      true,
		post.FieldPermalink: true,
		post.FieldDate:      true,
		post.FieldMediaType: true,
		post.FieldMediaURL:  true,
		post.FieldLikes:     true,
		post.FieldComments:  true,
		post.FieldShares:    true,
	}

	for i, alias := range config.FieldAliases {
		if !validFields[alias.Field] {
			return fmt.Errorf("invalid alias field at index %d: %s", i, alias.Field)
		}
		if len(alias.Names) == 0 {
			return fmt.Errorf("alias at index %d must have at least one name", i)
		}
	}

	return nil
}
