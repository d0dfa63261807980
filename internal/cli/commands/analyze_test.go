package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/internal/cli/config"
	"github.com/leapstack-labs/querylint/internal/cli/output"
	"github.com/leapstack-labs/querylint/internal/cli/testutil"
	"github.com/leapstack-labs/querylint/pkg/lint"
)

func TestBuildLintConfig(t *testing.T) {
	tests := []struct {
		name         string
		cfg          *config.Config
		sel          *RuleSelection
		wantDisabled []string
		wantEnabled  []string
		wantSeverity map[string]lint.Severity
		wantErr      string
	}{
		{
			name:        "no config",
			wantEnabled: []string{"PF01", "PF05"},
		},
		{
			name:         "disable from flag",
			sel:          &RuleSelection{Disable: []string{"pf01", " PF04 "}},
			wantDisabled: []string{"PF01", "PF04"},
			wantEnabled:  []string{"PF02"},
		},
		{
			name:         "only selected rules",
			sel:          &RuleSelection{Only: []string{"PF02", "pf03"}},
			wantDisabled: []string{"PF01", "PF04", "PF05"},
			wantEnabled:  []string{"PF02", "PF03"},
		},
		{
			name:    "unknown selected rule",
			sel:     &RuleSelection{Only: []string{"XX01"}},
			wantErr: `rule "XX01" not found`,
		},
		{
			name: "project config",
			cfg: &config.Config{Lint: config.LintConfig{
				DisabledRules: []string{"PF04"},
				Severity:      map[string]string{"pf02": "error"},
			}},
			sel:          &RuleSelection{Disable: []string{"PF05"}},
			wantDisabled: []string{"PF04", "PF05"},
			wantSeverity: map[string]lint.Severity{"PF02": lint.SeverityError},
		},
		{
			name: "invalid project severity",
			cfg: &config.Config{Lint: config.LintConfig{
				Severity: map[string]string{"PF02": "fatal"},
			}},
			wantErr: "unknown severity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := buildLintConfig(tt.cfg, tt.sel)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, id := range tt.wantDisabled {
				assert.True(t, cfg.IsDisabled(id), "%s should be disabled", id)
			}
			for _, id := range tt.wantEnabled {
				assert.False(t, cfg.IsDisabled(id), "%s should be enabled", id)
			}
			for id, sev := range tt.wantSeverity {
				assert.Equal(t, sev, cfg.GetSeverity(id, lint.SeverityWarning))
			}
		})
	}
}

func TestParseFailOn(t *testing.T) {
	tests := []struct {
		in       string
		want     lint.Severity
		failable bool
		wantErr  bool
	}{
		{in: "error", want: lint.SeverityError, failable: true},
		{in: "warning", want: lint.SeverityWarning, failable: true},
		{in: "hint", want: lint.SeverityHint, failable: true},
		{in: "NONE"},
		{in: "fatal", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			sev, failable, err := parseFailOn(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.failable, failable)
			if tt.failable {
				assert.Equal(t, tt.want, sev)
			}
		})
	}
}

func projectConfig(p *testutil.Project, outputMode string) func(*config.Config) {
	return func(cfg *config.Config) {
		cfg.Manifest = p.Manifest
		cfg.SchemaFile = p.Schema
		cfg.Output = outputMode
	}
}

func TestAnalyzeCommand(t *testing.T) {
	p := testutil.SetupTestProject(t)

	tests := []struct {
		name    string
		mode    string
		args    []string
		wantErr error
		wantOut []string
	}{
		{
			name:    "text",
			mode:    "text",
			wantErr: ErrFindings,
			wantOut: []string{"app.rb", "PF01", "PF02", "[fixable]", "Summary: 2 issues", "sql argument is not a static string"},
		},
		{
			name:    "table",
			mode:    "table",
			args:    []string{"--fail-on", "error"},
			wantOut: []string{"FILE", "SEVERITY", "PF02"},
		},
		{
			name:    "disabled rules leave nothing to report",
			mode:    "text",
			args:    []string{"--disable", "PF01,PF02"},
			wantOut: []string{"No issues found in 2 call sites"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runWithConfig(t, NewAnalyzeCommand, projectConfig(p, tt.mode), tt.args...)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestAnalyzeCommand_InvalidFailOn(t *testing.T) {
	p := testutil.SetupTestProject(t)
	_, err := runWithConfig(t, NewAnalyzeCommand, projectConfig(p, "text"), "--fail-on", "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --fail-on")
}

func TestFixCommand_DryRun(t *testing.T) {
	p := testutil.SetupTestProject(t)

	out, err := runWithConfig(t, NewFixCommand, projectConfig(p, "json"), "--dry-run")
	require.NoError(t, err)

	var report struct {
		DryRun bool `json:"dry_run"`
		Files  []struct {
			Path    string `json:"path"`
			Applied int    `json:"applied"`
			Written bool   `json:"written"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.DryRun)
	require.Len(t, report.Files, 1)
	assert.Equal(t, 1, report.Files[0].Applied)
	assert.False(t, report.Files[0].Written)
	assert.Equal(t, testutil.HostSource, testutil.ReadFile(t, p.Host))
}

func TestAnalyzeReport_JSONSummary(t *testing.T) {
	p := testutil.SetupTestProject(t)

	out, err := runWithConfig(t, NewAnalyzeCommand, projectConfig(p, "json"), "--fail-on", "none")
	require.NoError(t, err)

	var rep output.ReportOutput
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 1, rep.Summary.Files)
	assert.Equal(t, 2, rep.Summary.Warnings)
	assert.Equal(t, 1, rep.Summary.Fixable)
}
