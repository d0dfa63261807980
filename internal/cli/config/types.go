// Package config provides configuration management for the querylint CLI.
//
// Values come from, in increasing precedence: built-in defaults, a
// querylint.yaml file, QUERYLINT_ environment variables and command-line
// flags.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/lint"
)

// Config holds all CLI configuration options.
type Config struct {
	Manifest    string         `koanf:"manifest"`
	Output      string         `koanf:"output"`
	Verbose     bool           `koanf:"verbose"`
	Placeholder string         `koanf:"placeholder"`
	SchemaFile  string         `koanf:"schema_file"`
	Concurrency int            `koanf:"concurrency"`
	Database    DatabaseConfig `koanf:"database"`
	Lint        LintConfig     `koanf:"lint"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// DatabaseConfig configures the verification database used for schema
// introspection.
type DatabaseConfig struct {
	Type       string            `koanf:"type"`
	URL        string            `koanf:"url"`
	Path       string            `koanf:"path"`
	Host       string            `koanf:"host"`
	Port       int               `koanf:"port"`
	Database   string            `koanf:"database"`
	Username   string            `koanf:"username"`
	Password   string            `koanf:"password"`
	Schema     string            `koanf:"schema"`
	Options    map[string]string `koanf:"options"`
	Params     map[string]any    `koanf:"params"`
	Migrations string            `koanf:"migrations"`
}

// Adapter converts the database section to an adapter configuration.
func (d DatabaseConfig) Adapter() adapter.Config {
	return adapter.Config{
		Type:     strings.ToLower(d.Type),
		URL:      d.URL,
		Path:     d.Path,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		Username: d.Username,
		Password: d.Password,
		Schema:   d.Schema,
		Options:  d.Options,
		Params:   d.Params,
	}
}

// LintConfig selects rules and tunes them.
//
//	lint:
//	  disabled_rules: [PF04]
//	  severity:
//	    PF01: error
//	  rules:
//	    PF04:
//	      threshold: 6
type LintConfig struct {
	DisabledRules []string                  `koanf:"disabled_rules"`
	Severity      map[string]string         `koanf:"severity"`
	Rules         map[string]map[string]any `koanf:"rules"`
	DocsURL       string                    `koanf:"docs_url"`
}

// Build converts the lint section to an analyzer configuration. Rule IDs are
// case-insensitive.
func (l LintConfig) Build() (*lint.Config, error) {
	cfg := lint.NewConfig()
	for _, id := range l.DisabledRules {
		cfg.Disable(strings.ToUpper(strings.TrimSpace(id)))
	}
	for id, s := range l.Severity {
		sev, ok := lint.ParseSeverity(s)
		if !ok {
			return nil, fmt.Errorf("lint.severity.%s: unknown severity %q", id, s)
		}
		cfg.SetSeverity(strings.ToUpper(id), sev)
	}
	for id, opts := range l.Rules {
		cfg.SetRuleOptions(strings.ToUpper(id), opts)
	}
	return cfg, nil
}

// Default configuration values.
const (
	DefaultManifest    = "querylint.manifest.yaml"
	DefaultOutput      = "auto" // text on a terminal, plain text otherwise
	DefaultPlaceholder = "0"
)

// ConfigFileNames are searched, in order, in the project root.
var ConfigFileNames = []string{"querylint.yaml", "querylint.yml"}
