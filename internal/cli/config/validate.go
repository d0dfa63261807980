package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/lint"
)

// Outputs lists the accepted output formats.
var Outputs = []string{"auto", "text", "table", "json"}

// Validate checks the configuration.
func (c *Config) Validate() error {
	valid := false
	for _, o := range Outputs {
		if c.Output == o {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("output %q must be one of %s", c.Output, strings.Join(Outputs, ", "))
	}
	if len(c.Placeholder) != 1 {
		return fmt.Errorf("placeholder %q must be a single character", c.Placeholder)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative")
	}
	if err := c.Database.Validate(); err != nil {
		return err
	}
	for id, s := range c.Lint.Severity {
		if _, ok := lint.ParseSeverity(s); !ok {
			return fmt.Errorf("lint.severity.%s: unknown severity %q", id, s)
		}
	}
	return nil
}

// Validate checks the database section. An empty section is valid and
// disables live introspection.
func (d DatabaseConfig) Validate() error {
	cfg := d.Adapter()
	if cfg.IsZero() {
		return nil
	}
	resolved, err := adapter.Resolve(cfg)
	if err != nil {
		return fmt.Errorf("invalid database configuration: %w", err)
	}
	if !adapter.IsRegistered(resolved.Type) {
		return &adapter.UnknownAdapterError{Type: resolved.Type, Available: adapter.ListAdapters()}
	}
	return nil
}
