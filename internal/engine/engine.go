// Package engine runs the lint rules over the call sites of a manifest.
// It reads each host file once, maps and parses every SQL argument, runs the
// analyzer and collects findings and warnings per file. Files are processed
// in parallel; call sites of one file are processed in order.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/leapstack-labs/querylint/pkg/adapter"
	"github.com/leapstack-labs/querylint/pkg/lint"
	"github.com/leapstack-labs/querylint/pkg/parser"
	"github.com/leapstack-labs/querylint/pkg/schema"
)

// Engine analyzes manifests. It is safe for concurrent use.
type Engine struct {
	// Database adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbErr       error
	dbMu        sync.Mutex

	static      schema.Introspector
	analyzer    *lint.Analyzer
	placeholder string
	concurrency int
	logger      *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Database configures live schema introspection. Zero disables it.
	Database adapter.Config
	// SchemaFile is a YAML schema used instead of a database.
	SchemaFile string
	// Schema overrides both Database and SchemaFile.
	Schema schema.Introspector
	// Lint configures rule selection, severities and options.
	Lint *lint.Config
	// Rules restricts the rule set. Nil uses every registered rule.
	Rules []lint.Rule
	// Placeholder replaces ? markers before parsing.
	Placeholder string
	// Concurrency bounds the files analyzed at once. Zero uses GOMAXPROCS.
	Concurrency int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine. The database is only connected on first use.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		dbConfig:    cfg.Database,
		static:      cfg.Schema,
		placeholder: cfg.Placeholder,
		concurrency: cfg.Concurrency,
		logger:      logger,
	}
	if e.placeholder == "" {
		e.placeholder = parser.DefaultPlaceholder
	}
	if len(e.placeholder) != 1 {
		return nil, fmt.Errorf("placeholder %q must be a single character", e.placeholder)
	}
	if e.concurrency <= 0 {
		e.concurrency = runtime.GOMAXPROCS(0)
	}

	if e.static == nil && cfg.SchemaFile != "" {
		s, err := schema.LoadStatic(cfg.SchemaFile)
		if err != nil {
			return nil, err
		}
		e.static = s
	}

	if cfg.Rules != nil {
		e.analyzer = lint.NewAnalyzerWithRules(cfg.Lint, logger, cfg.Rules)
	} else {
		e.analyzer = lint.NewAnalyzer(cfg.Lint, logger)
	}

	logger.Debug("initializing engine",
		"rules", len(e.analyzer.Rules()),
		"database", e.dbConfig.Type,
		"schema_file", cfg.SchemaFile,
		"concurrency", e.concurrency)
	return e, nil
}

// Rules returns the enabled rules.
func (e *Engine) Rules() []lint.Rule {
	return e.analyzer.Rules()
}

// Introspector returns the schema source for a run: the configured static
// schema, else the database, else a disabled introspector. A database that
// cannot be reached is logged and treated as disabled so the run continues.
func (e *Engine) Introspector(ctx context.Context) schema.Introspector {
	if e.static != nil {
		return e.static
	}
	if e.dbConfig.IsZero() {
		return schema.Disabled{}
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return schema.Disabled{}
	}
	return e.db
}

// ensureDBConnected connects once. A failed attempt is not retried.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}
	if e.dbErr != nil {
		return e.dbErr
	}

	e.logger.Debug("connecting to database", "adapter_type", e.dbConfig.Type)
	db, err := adapter.Open(ctx, e.dbConfig, e.logger)
	if err != nil {
		e.dbErr = fmt.Errorf("failed to connect to database: %w", err)
		e.logger.Warn("schema introspection disabled", "error", e.dbErr)
		return e.dbErr
	}

	e.db = db
	e.dbConnected = true
	e.logger.Debug("database connected", "dialect", db.Dialect())
	return nil
}

// Adapter connects and returns the database adapter, for commands that talk
// to the database directly.
func (e *Engine) Adapter(ctx context.Context) (adapter.Adapter, error) {
	if e.dbConfig.IsZero() {
		return nil, fmt.Errorf("no database configured")
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}
	return e.db, nil
}

// Close releases the database connection.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	e.dbMu.Lock()
	defer e.dbMu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	e.dbConnected = false
	return err
}
