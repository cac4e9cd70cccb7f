package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/testutil"
)

func sampleResult() *Result {
	return &Result{
		Trace: []TraceEvent{
			{Step: 0, Kind: KindFrame, Op: "NEW_NOTIFICATION", Outcome: "added", IDs: []string{"n1"}, Len: 2, Unread: 2},
			{Step: 1, Kind: KindOp, Op: OpMarkRead, Outcome: OutcomeOK, IDs: []string{"a"}, Len: 2, Unread: 1},
		},
		Final: FinalState{
			IDs:      []string{"n1", "a"},
			Unread:   1,
			Visible:  2,
			Selected: []string{"a"},
			Toasts:   1,
		},
	}
}

func sampleStore() *store.Store {
	s := store.New()
	s.Replace([]notification.Notification{
		testutil.NewNotification(testutil.WithID("n1")),
		testutil.NewNotification(testutil.WithID("a"), testutil.WithRead(true)),
	})
	return s
}

func TestEvaluateAssertions_AllPass(t *testing.T) {
	actx := &AssertionContext{Store: sampleStore(), Outcomes: map[string]int{"added": 1, OutcomeOK: 1}}

	assertions := []Assertion{
		{Type: AssertUnreadCount, Count: 1},
		{Type: AssertLen, Count: 2},
		{Type: AssertVisibleCount, Count: 2},
		{Type: AssertToastCount, Count: 1},
		{Type: AssertOrder, IDs: []string{"n1", "a"}},
		{Type: AssertSelected, IDs: []string{"a"}},
		{Type: AssertContains, ID: "a", Read: boolPtr(true)},
		{Type: AssertAbsent, ID: "zzz"},
		{Type: AssertOutcomeCount, Outcome: "added", Count: 1},
		{Type: AssertOutcomeCount, Outcome: "duplicate", Count: 0},
	}

	errors := EvaluateAssertions(sampleResult(), assertions, actx)
	assert.Empty(t, errors)
}

func TestEvaluateAssertions_SomeFail(t *testing.T) {
	actx := &AssertionContext{Store: sampleStore(), Outcomes: map[string]int{"added": 1}}

	assertions := []Assertion{
		{Type: AssertUnreadCount, Count: 1},                   // passes
		{Type: AssertOrder, IDs: []string{"a", "n1"}},         // wrong order
		{Type: AssertContains, ID: "n1", Read: boolPtr(true)}, // n1 is unread
		{Type: AssertAbsent, ID: "a"},                         // present
		{Type: AssertOutcomeCount, Outcome: "added", Count: 3},
	}

	errors := EvaluateAssertions(sampleResult(), assertions, actx)
	require.Len(t, errors, 4)
	assert.Contains(t, errors[0], "Expected: [a n1]")
	assert.Contains(t, errors[1], `notification "n1" read=true`)
	assert.Contains(t, errors[2], "present in store")
	assert.Contains(t, errors[3], "Actual: 1 (added=1)")
}

func TestEvaluateAssertions_SelectedIgnoresOrder(t *testing.T) {
	result := sampleResult()
	result.Final.Selected = []string{"a", "b"}

	errors := EvaluateAssertions(result, []Assertion{{Type: AssertSelected, IDs: []string{"b", "a"}}}, nil)
	assert.Empty(t, errors)

	errors = EvaluateAssertions(result, []Assertion{{Type: AssertSelected, IDs: []string{}}}, nil)
	require.Len(t, errors, 1)
}

func TestEvaluateAssertions_StoreRequired(t *testing.T) {
	errors := EvaluateAssertions(sampleResult(), []Assertion{{Type: AssertContains, ID: "a"}}, nil)
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0], "requires a store")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	result := &Result{
		Trace: []TraceEvent{},
	}

	assertions := []Assertion{
		{Type: "unknown_assertion_type"},
	}

	errors := EvaluateAssertions(result, assertions, nil)
	require.Len(t, errors, 1)
	assert.Contains(t, errors[0], "unknown assertion type")
}

func TestAssertionError_ErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertUnreadCount,
		Expected: "3",
		Actual:   "1",
		Trace:    sampleResult().Trace,
	}

	errorStr := err.Error()
	assert.Contains(t, errorStr, "Assertion failed: unread_count")
	assert.Contains(t, errorStr, "Expected: 3")
	assert.Contains(t, errorStr, "Actual: 1")
	assert.Contains(t, errorStr, "Full trace:")
	assert.Contains(t, errorStr, "[0] NEW_NOTIFICATION added [n1] (len=2 unread=2)")
	assert.Contains(t, errorStr, "[1] mark_read ok [a] (len=2 unread=1)")
}
