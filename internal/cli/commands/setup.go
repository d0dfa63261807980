package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/querylint/internal/cli/config"
	"github.com/leapstack-labs/querylint/internal/cli/output"
	"github.com/leapstack-labs/querylint/internal/engine"
	"github.com/leapstack-labs/querylint/pkg/callsite"
	"github.com/leapstack-labs/querylint/pkg/lint"

	// Live introspection backends register themselves.
	_ "github.com/leapstack-labs/querylint/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/querylint/pkg/adapters/mysql"
	_ "github.com/leapstack-labs/querylint/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/querylint/pkg/adapters/sqlite"
)

// CommandContext holds common dependencies for command execution.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// RuleSelection narrows the configured rule set from the command line.
type RuleSelection struct {
	Disable []string // Rule IDs to disable
	Only    []string // Run only these rule IDs
}

func (s *RuleSelection) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&s.Disable, "disable", nil, "Rule IDs to disable")
	cmd.Flags().StringSliceVar(&s.Only, "rule", nil, "Run only specific rules")
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command, sel *RuleSelection) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutEngine(cmd)

	lintCfg, err := buildLintConfig(cc.Cfg, sel)
	if err != nil {
		return nil, nil, err
	}
	if cc.Cfg.Lint.DocsURL != "" {
		lint.SetDocsBaseURL(cc.Cfg.Lint.DocsURL)
	}

	eng, err := engine.New(engine.Config{
		Database:    cc.Cfg.Database.Adapter(),
		SchemaFile:  cc.Cfg.SchemaFile,
		Lint:        lintCfg,
		Placeholder: cc.Cfg.Placeholder,
		Concurrency: cc.Cfg.Concurrency,
		Logger:      cc.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize engine: %w", err)
	}
	cc.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.Output)),
	}
}

// buildLintConfig merges the project lint section with command-line
// selection. The command line wins.
func buildLintConfig(cfg *config.Config, sel *RuleSelection) (*lint.Config, error) {
	lintCfg := lint.NewConfig()
	if cfg != nil {
		var err error
		if lintCfg, err = cfg.Lint.Build(); err != nil {
			return nil, err
		}
	}
	if sel == nil {
		return lintCfg, nil
	}

	for _, id := range sel.Disable {
		lintCfg.Disable(strings.ToUpper(strings.TrimSpace(id)))
	}
	if len(sel.Only) > 0 {
		enabled := make(map[string]bool)
		for _, id := range sel.Only {
			id = strings.ToUpper(strings.TrimSpace(id))
			if _, ok := lint.GetRuleByID(id); !ok {
				return nil, fmt.Errorf("rule %q not found", id)
			}
			enabled[id] = true
		}
		for _, rule := range lint.AllRules() {
			if !enabled[rule.ID()] {
				lintCfg.Disable(rule.ID())
			}
		}
	}
	return lintCfg, nil
}

// loadManifest reads the configured manifest.
func loadManifest(cfg *config.Config) (*callsite.Manifest, error) {
	m, err := callsite.LoadManifest(cfg.Manifest)
	if err != nil {
		return nil, fmt.Errorf("%w\nHint: generate a manifest with your host extractor or pass --manifest", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Manifest, err)
	}
	return m, nil
}
