package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/pkg/lint"
)

func TestNewRulesCommand(t *testing.T) {
	cmd := NewRulesCommand()

	assert.Equal(t, "rules [rule-id]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"group", "verbose"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestRulesCommand_List(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantOut     []string
		wantMissing []string
		wantErr     string
	}{
		{
			name:        "all rules",
			wantOut:     []string{"Lint Rules (5)", "Performance", "PF01", "performance.select_asterisk", "PF05", "(needs schema)"},
			wantMissing: []string{"Why:"},
		},
		{
			name:    "verbose",
			args:    []string{"--verbose"},
			wantOut: []string{"Why: SELECT * transfers every column"},
		},
		{
			name:    "by group",
			args:    []string{"--group", "performance"},
			wantOut: []string{"Lint Rules (5)"},
		},
		{
			name:    "unknown group",
			args:    []string{"--group", "style"},
			wantErr: `no rules in group "style"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCommand(t, NewRulesCommand, "text", tt.args...)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out, want)
			}
			for _, missing := range tt.wantMissing {
				assert.NotContains(t, out, missing)
			}
		})
	}
}

func TestRulesCommand_ShowRule(t *testing.T) {
	out, err := runCommand(t, NewRulesCommand, "text", "pf01")
	require.NoError(t, err)

	for _, want := range []string{
		"PF01 - performance.select_asterisk",
		"Description",
		"Why This Matters",
		"Bad Example",
		"Good Example",
		"How to Fix",
		"lint.rules.PF01: comment",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRulesCommand_NotFound(t *testing.T) {
	_, err := runCommand(t, NewRulesCommand, "text", "INVALID99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestRulesCommand_JSON(t *testing.T) {
	out, err := runCommand(t, NewRulesCommand, "json")
	require.NoError(t, err)

	var result RulesJSONOutput
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, len(lint.AllRules()), result.Count)
	require.Len(t, result.Rules, result.Count)
	assert.Equal(t, "PF01", result.Rules[0].ID)

	out, err = runCommand(t, NewRulesCommand, "json", "PF05")
	require.NoError(t, err)
	var info lint.RuleInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "PF05", info.ID)
	assert.NotEmpty(t, info.DocumentationURL)
}

func TestRulesCommand_Table(t *testing.T) {
	out, err := runCommand(t, NewRulesCommand, "table")
	require.NoError(t, err)
	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "PF03")
}
