package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/internal/cli/config"
	"github.com/leapstack-labs/querylint/internal/cli/testutil"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name      string
		checks    []HealthCheck
		siteCount int
		want      int
	}{
		{
			name:      "no checks returns 100",
			siteCount: 10,
			want:      100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{ID: "manifest", Status: statusPass},
				{ID: "schema", Status: statusPass},
			},
			siteCount: 10,
			want:      100,
		},
		{
			name:      "warnings reduce score",
			checks:    []HealthCheck{{ID: "static_sql", Status: statusWarn, IssueCount: 2}},
			siteCount: 10,
			want:      90,
		},
		{
			name:      "errors count double",
			checks:    []HealthCheck{{ID: "sql_parses", Status: statusError, IssueCount: 2}},
			siteCount: 10,
			want:      80,
		},
		{
			name:      "more call sites means less impact per issue",
			checks:    []HealthCheck{{ID: "static_sql", Status: statusWarn, IssueCount: 5}},
			siteCount: 200,
			want:      95,
		},
		{
			name:      "clamped at zero",
			checks:    []HealthCheck{{ID: "host_files", Status: statusError, IssueCount: 50}},
			siteCount: 1,
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateHealthScore(tt.checks, tt.siteCount))
		})
	}
}

func TestGenerateRecommendations(t *testing.T) {
	recs := generateRecommendations([]HealthCheck{
		{ID: "manifest"},
		{ID: "schema", IssueCount: 1},
		{ID: "static_sql", IssueCount: 3},
		{ID: "unknown", IssueCount: 1},
	})
	require.Len(t, recs, 2)
	assert.Contains(t, recs[0], "schema_file")
	assert.Contains(t, recs[1], "Inline SQL")
}

func TestDoctorCommand(t *testing.T) {
	p := testutil.SetupTestProject(t)

	tests := []struct {
		name       string
		edit       func(*config.Config)
		wantStatus map[string]string
		wantScore  int
	}{
		{
			name: "static schema",
			edit: projectConfig(p, "json"),
			wantStatus: map[string]string{
				"manifest":   statusPass,
				"host_files": statusPass,
				"static_sql": statusWarn,
				"sql_parses": statusPass,
				"schema":     statusPass,
			},
			wantScore: 95,
		},
		{
			name: "no schema",
			edit: func(cfg *config.Config) {
				projectConfig(p, "json")(cfg)
				cfg.SchemaFile = ""
			},
			wantStatus: map[string]string{"schema": statusWarn, "static_sql": statusWarn},
			wantScore:  90,
		},
		{
			name: "missing manifest",
			edit: func(cfg *config.Config) {
				projectConfig(p, "json")(cfg)
				cfg.Manifest = p.Dir + "/nope.yaml"
			},
			wantStatus: map[string]string{"manifest": statusError},
			wantScore:  90,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runWithConfig(t, NewDoctorCommand, tt.edit)
			require.NoError(t, err)

			var doc DoctorOutput
			require.NoError(t, json.Unmarshal([]byte(out), &doc))
			got := map[string]string{}
			for _, c := range doc.HealthChecks {
				got[c.ID] = c.Status
			}
			for id, status := range tt.wantStatus {
				assert.Equal(t, status, got[id], id)
			}
			assert.Equal(t, tt.wantScore, doc.Score)
		})
	}
}

func TestDoctorCommand_Text(t *testing.T) {
	p := testutil.SetupTestProject(t)
	out, err := runWithConfig(t, NewDoctorCommand, projectConfig(p, "text"))
	require.NoError(t, err)

	for _, want := range []string{
		"querylint Health Report",
		"Files: 1 | Call sites: 2",
		"Setup",
		"Queries",
		"! SQL arguments are static strings (1 issue)",
		"Health Score: 95/100",
		"Recommendations",
	} {
		assert.Contains(t, out, want)
	}
}
