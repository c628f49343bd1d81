package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
database:
  backend: sqlite
  sqlite:
    path: ":memory:"
logging:
  level: error
  format: console
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// ==========================
// resolve
// ==========================

func TestResolveCommand(t *testing.T) {
	cfgPath := writeConfig(t)

	tests := []struct {
		name           string
		args           []string
		wantErr        bool
		validateOutput func(t *testing.T, analysis map[string]interface{})
	}{
		{
			name: "name and weekday compile to a filtered query",
			args: []string{"resolve", "--config", cfgPath, "--today", "2025-03-05", "Is Alice busy on Monday?"},
			validateOutput: func(t *testing.T, analysis map[string]interface{}) {
				in := analysis["intent"].(map[string]interface{})
				assert.Equal(t, "query", in["kind"])
				assert.Equal(t, "load_analysis", in["queryType"])

				res := analysis["resolution"].(map[string]interface{})
				assert.Equal(t, "filtered", res["kind"])
				filters := res["filters"].(map[string]interface{})
				assert.Equal(t, "Alice", filters["name"])
				assert.Equal(t, "Monday", filters["weekday"])

				spec := analysis["querySpec"].(map[string]interface{})
				assert.Equal(t, float64(200), spec["limit"])
			},
		},
		{
			name: "unfiltered question falls back to recent meetings",
			args: []string{"resolve", "--config", cfgPath, "show", "me", "everything"},
			validateOutput: func(t *testing.T, analysis map[string]interface{}) {
				res := analysis["resolution"].(map[string]interface{})
				assert.Equal(t, "recent", res["kind"])
				spec := analysis["querySpec"].(map[string]interface{})
				assert.Equal(t, float64(50), spec["limit"])
			},
		},
		{
			name: "chitchat has a canned reply and no query",
			args: []string{"resolve", "--config", cfgPath, "thanks"},
			validateOutput: func(t *testing.T, analysis map[string]interface{}) {
				in := analysis["intent"].(map[string]interface{})
				assert.Equal(t, "chitchat", in["kind"])
				assert.NotEmpty(t, analysis["chitchatReply"])
				assert.NotContains(t, analysis, "querySpec")
			},
		},
		{
			name:    "bad reference date",
			args:    []string{"resolve", "--config", cfgPath, "--today", "05/03/2025", "hello"},
			wantErr: true,
		},
		{
			name:    "missing question",
			args:    []string{"resolve", "--config", cfgPath},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var analysis map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(out), &analysis))
			if tt.validateOutput != nil {
				tt.validateOutput(t, analysis)
			}
		})
	}
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := newRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"chat", "ask", "resolve"})
}
