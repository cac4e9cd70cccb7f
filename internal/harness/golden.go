package harness

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where scenario traces are kept, relative to the package under
// test.
const GoldenDir = "testdata/golden"

// TraceSnapshot is the golden-file form of a scenario run: every step's
// outcome followed by the final store state.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
	Final        FinalState   `json:"final"`
}

// Snapshot captures result for comparison under name.
func Snapshot(name string, result *Result) TraceSnapshot {
	return TraceSnapshot{ScenarioName: name, Trace: result.Trace, Final: result.Final}
}

// Marshal renders indented JSON with a trailing newline. Map-free types keep
// the byte output stable between runs.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal trace %s: %w", s.ScenarioName, err)
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs scenario and checks its trace against
// testdata/golden/<name>.golden. Regenerate with
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden checks an existing result without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snap := Snapshot(scenarioName, result)
	data, err := snap.Marshal()
	if err != nil {
		return err
	}

	goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	).Assert(t, scenarioName, data)
	return nil
}
