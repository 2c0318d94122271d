// Package config loads the scholarsearch service's YAML configuration
// and environment-sourced secrets into a single validated Config,
// grounded on evalaf/eval/config.go's Config/ExecutionConfig shape.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/antflydb/scholarsearch/backend"
	"github.com/antflydb/scholarsearch/logging"
)

// SearchConfig controls which backends run and how results are filtered
// post-ingest, per spec §6's config.search.* options.
type SearchConfig struct {
	Platforms      []string `yaml:"platforms,omitempty" json:"platforms,omitempty"`
	MinYear        int      `yaml:"min_year,omitempty" json:"min_year,omitempty"`
	MaxYear        int      `yaml:"max_year,omitempty" json:"max_year,omitempty"`
	PapersPerQuery int      `yaml:"papers_per_query,omitempty" json:"papers_per_query,omitempty"`
	NumQueries     int      `yaml:"num_queries,omitempty" json:"num_queries,omitempty"`
}

// Config is the full YAML-loaded configuration for the service, plus the
// sub-configs it delegates to (logging style/level, search defaults).
type Config struct {
	Version int            `yaml:"version" json:"version"`
	Port    int            `yaml:"port" json:"port"`
	Search  SearchConfig   `yaml:"search" json:"search"`
	Logging logging.Config `yaml:"logging" json:"logging"`
}

// Secrets holds the API credentials and model selection read from the
// process environment, per spec §6's "Environment" list.
type Secrets struct {
	ScopusAPIKey       string
	CoreAPIKey         string
	SemanticScholarKey string
	DefaultLLMModel    string
}

// Load reads and parses a YAML config file, applying defaults for an
// unset version, port, search platforms, papers_per_query and
// num_queries; min_year, max_year and logging are left as read.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if len(cfg.Search.Platforms) == 0 {
		cfg.Search.Platforms = backend.Names
	}
	if cfg.Search.PapersPerQuery == 0 {
		cfg.Search.PapersPerQuery = 2
	}
	if cfg.Search.NumQueries == 0 {
		cfg.Search.NumQueries = 2
	}
}

// LoadSecrets reads Secrets from the environment and validates them
// against the enabled platforms in cfg.Search.Platforms: a missing
// SCOPUS_API_KEY while scopus is enabled, or a missing CORE_API_KEY while
// core is enabled, is a catastrophic misconfiguration and returns an
// error, per spec §7's "Catastrophic errors... MAY raise at construction
// time" — every other secret is optional.
func LoadSecrets(cfg *Config) (*Secrets, error) {
	secrets := &Secrets{
		ScopusAPIKey:       os.Getenv("SCOPUS_API_KEY"),
		CoreAPIKey:         os.Getenv("CORE_API_KEY"),
		SemanticScholarKey: os.Getenv("SEMANTIC_SCHOLAR_KEY"),
		DefaultLLMModel:    os.Getenv("DEFAULT_LLM_MODEL"),
	}

	enabled := make(map[string]bool, len(cfg.Search.Platforms))
	for _, p := range cfg.Search.Platforms {
		enabled[p] = true
	}

	if enabled[backend.Scopus] && secrets.ScopusAPIKey == "" {
		return nil, fmt.Errorf("config: SCOPUS_API_KEY is required when %q is an enabled platform", backend.Scopus)
	}
	if enabled[backend.Core] && secrets.CoreAPIKey == "" {
		return nil, fmt.Errorf("config: CORE_API_KEY is required when %q is an enabled platform", backend.Core)
	}
	return secrets, nil
}
