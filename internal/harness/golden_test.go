package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarios runs every scenario under testdata/scenarios and compares
// its trace with the golden file of the same name.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -run TestScenarios -update
func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestAssertGolden_FromResult(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/optimistic_rollback.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	// Same golden file as the scenario run itself.
	require.NoError(t, AssertGolden(t, "optimistic_rollback", result))
}

func TestTraceSnapshot_Marshal(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []TraceEvent{
			{Step: 0, Kind: KindFrame, Op: "MALFORMED", Outcome: OutcomeMalformed},
		},
		Final: FinalState{IDs: []string{}},
	}

	data, err := snap.Marshal()
	require.NoError(t, err)

	want := `{
  "scenario_name": "tiny",
  "trace": [
    {
      "step": 0,
      "kind": "frame",
      "op": "MALFORMED",
      "outcome": "malformed",
      "len": 0,
      "unread": 0,
      "toasts": 0
    }
  ],
  "final": {
    "ids": [],
    "unread": 0,
    "visible": 0,
    "toasts": 0
  }
}
`
	assert.Equal(t, want, string(data))
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/realtime_lifecycle.yaml")
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := (&TraceSnapshot{ScenarioName: scenario.Name, Trace: first.Trace, Final: first.Final}).Marshal()
	require.NoError(t, err)
	b, err := (&TraceSnapshot{ScenarioName: scenario.Name, Trace: second.Trace, Final: second.Final}).Marshal()
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
