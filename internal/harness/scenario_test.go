package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
now: "2026-10-19T09:30:00Z"
setup:
  - id: n1
    type: auction_bid
    priority: high
    age: 5m
    actions:
      - id: accept
        label: Accept
flow:
  - frame:
      type: NEW_NOTIFICATION
      notification:
        id: n2
        type: order_placed
        priority: medium
        title: Order placed
        message: Buyer ordered 3t of cardboard
        isRead: false
        createdAt: "2026-10-19T09:30:00Z"
    expect:
      outcome: added
      unread: 2
  - op: mark_read
    ids: [n1]
assertions:
  - type: unread_count
    count: 1
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	require.Len(t, scenario.Setup, 1)
	assert.Equal(t, "accept", scenario.Setup[0].Actions[0].ID)
	require.Len(t, scenario.Flow, 2)
	assert.Equal(t, "NEW_NOTIFICATION", scenario.Flow[0].Frame["type"])
	require.NotNil(t, scenario.Flow[0].Expect)
	assert.Equal(t, "added", scenario.Flow[0].Expect.Outcome)
	assert.Equal(t, 2, *scenario.Flow[0].Expect.Unread)
	assert.Equal(t, OpMarkRead, scenario.Flow[1].Op)
	assert.Len(t, scenario.Assertions, 1)

	start, err := scenario.StartTime()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC), start)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestScenario_DefaultStartTime(t *testing.T) {
	s, err := ParseScenario([]byte("name: x\nflow:\n  - op: mark_all_read\n"))
	require.NoError(t, err)

	start, err := s.StartTime()
	require.NoError(t, err)
	assert.Equal(t, DefaultNow, start)
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing name",
			yaml:    "flow:\n  - op: mark_all_read\n",
			wantErr: "name is required",
		},
		{
			name:    "empty flow",
			yaml:    "name: x\nflow: []\n",
			wantErr: "flow must contain at least one step",
		},
		{
			name:    "bad now",
			yaml:    "name: x\nnow: yesterday\nflow:\n  - op: mark_all_read\n",
			wantErr: "now:",
		},
		{
			name:    "malformed yaml",
			yaml:    "name: [unclosed\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "unknown field",
			yaml:    "name: x\nflwo: []\nflow:\n  - op: mark_all_read\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "seed without id",
			yaml:    "name: x\nsetup:\n  - type: auction_bid\nflow:\n  - op: mark_all_read\n",
			wantErr: "setup[0]: id is required",
		},
		{
			name: "duplicate seed",
			yaml: `name: x
setup:
  - {id: a, type: auction_bid, priority: low}
  - {id: a, type: auction_bid, priority: low}
flow:
  - op: mark_all_read
`,
			wantErr: `setup[1]: duplicate id "a"`,
		},
		{
			name:    "bad seed age",
			yaml:    "name: x\nsetup:\n  - {id: a, age: soon}\nflow:\n  - op: mark_all_read\n",
			wantErr: "setup[0]:",
		},
		{
			name:    "step with two kinds",
			yaml:    "name: x\nflow:\n  - op: mark_all_read\n    raw: '{'\n",
			wantErr: "exactly one of frame, raw or op",
		},
		{
			name:    "step with none",
			yaml:    "name: x\nflow:\n  - fail: true\n",
			wantErr: "exactly one of frame, raw or op",
		},
		{
			name:    "unknown op",
			yaml:    "name: x\nflow:\n  - op: archive\n",
			wantErr: `unknown op "archive"`,
		},
		{
			name:    "mark_read without ids",
			yaml:    "name: x\nflow:\n  - op: mark_read\n",
			wantErr: "ids are required for mark_read",
		},
		{
			name:    "delete without id",
			yaml:    "name: x\nflow:\n  - op: delete\n",
			wantErr: "id is required for delete",
		},
		{
			name:    "execute without action",
			yaml:    "name: x\nflow:\n  - op: execute\n    id: a\n",
			wantErr: "id and action are required",
		},
		{
			name:    "filter without filter",
			yaml:    "name: x\nflow:\n  - op: filter\n",
			wantErr: "filter is required",
		},
		{
			name:    "advance without duration",
			yaml:    "name: x\nflow:\n  - op: advance\n",
			wantErr: "duration:",
		},
		{
			name:    "negative advance",
			yaml:    "name: x\nflow:\n  - op: advance\n    duration: -1s\n",
			wantErr: "must not be negative",
		},
		{
			name:    "assertion without type",
			yaml:    "name: x\nflow:\n  - op: mark_all_read\nassertions:\n  - count: 1\n",
			wantErr: "assertions[0]: type is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\nflow:\n  - op: mark_all_read\nassertions:\n  - type: trace_contains\n",
			wantErr: `unknown assertion type "trace_contains"`,
		},
		{
			name:    "negative count",
			yaml:    "name: x\nflow:\n  - op: mark_all_read\nassertions:\n  - type: len\n    count: -1\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "order without ids",
			yaml:    "name: x\nflow:\n  - op: mark_all_read\nassertions:\n  - type: order\n",
			wantErr: "ids list is required for order",
		},
		{
			name:    "contains without id",
			yaml:    "name: x\nflow:\n  - op: mark_all_read\nassertions:\n  - type: contains\n",
			wantErr: "id is required for contains",
		},
		{
			name:    "outcome_count without outcome",
			yaml:    "name: x\nflow:\n  - op: mark_all_read\nassertions:\n  - type: outcome_count\n",
			wantErr: "outcome is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_EmptyOrderAllowed(t *testing.T) {
	yaml := "name: x\nflow:\n  - op: delete_selected\nassertions:\n  - type: order\n    ids: []\n  - type: selected\n    ids: []\n"
	s, err := ParseScenario([]byte(yaml))
	require.NoError(t, err)
	assert.NotNil(t, s.Assertions[0].IDs)
}

func TestLoadExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			_, err := LoadScenario(path)
			assert.NoError(t, err)
		})
	}
}
