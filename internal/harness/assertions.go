package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s %v (len=%d unread=%d)\n",
			ev.Step, ev.Op, ev.Outcome, ev.IDs, ev.Len, ev.Unread)
	}

	return buf.String()
}

// AssertionContext carries what assertions inspect beyond the result.
type AssertionContext struct {
	Store    *store.Store
	Outcomes map[string]int
}

func assertCount(kind string, want, got int, trace []TraceEvent) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: fmt.Sprintf("%d", want),
		Actual:   fmt.Sprintf("%d", got),
		Trace:    trace,
	}
}

// assertOrder checks the exact store order.
func assertOrder(result *Result, a Assertion) error {
	if slices.Equal(result.Final.IDs, a.IDs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOrder,
		Expected: fmt.Sprintf("%v", a.IDs),
		Actual:   fmt.Sprintf("%v", result.Final.IDs),
		Trace:    result.Trace,
	}
}

// assertSelected checks the selection as a sorted set.
func assertSelected(result *Result, a Assertion) error {
	want := slices.Clone(a.IDs)
	slices.Sort(want)
	got := result.Final.Selected
	if len(want) == 0 && len(got) == 0 {
		return nil
	}
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertSelected,
		Expected: fmt.Sprintf("%v", want),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    result.Trace,
	}
}

// assertContains checks presence and, when Read is set, the read flag.
func assertContains(result *Result, st *store.Store, a Assertion) error {
	n, ok := st.Get(a.ID)
	if !ok {
		return &AssertionError{
			Type:     AssertContains,
			Expected: fmt.Sprintf("notification %q present", a.ID),
			Actual:   "not in store",
			Trace:    result.Trace,
		}
	}
	if a.Read != nil && n.IsRead != *a.Read {
		return &AssertionError{
			Type:     AssertContains,
			Expected: fmt.Sprintf("notification %q read=%t", a.ID, *a.Read),
			Actual:   fmt.Sprintf("read=%t", n.IsRead),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertAbsent(result *Result, st *store.Store, a Assertion) error {
	if !st.Has(a.ID) {
		return nil
	}
	return &AssertionError{
		Type:     AssertAbsent,
		Expected: fmt.Sprintf("notification %q absent", a.ID),
		Actual:   "present in store",
		Trace:    result.Trace,
	}
}

func assertOutcomeCount(result *Result, outcomes map[string]int, a Assertion) error {
	got := outcomes[a.Outcome]
	if got == a.Count {
		return nil
	}
	seen := make([]string, 0, len(outcomes))
	for _, name := range sortedOutcomes(outcomes) {
		seen = append(seen, fmt.Sprintf("%s=%d", name, outcomes[name]))
	}
	return &AssertionError{
		Type:     AssertOutcomeCount,
		Expected: fmt.Sprintf("%d x %s", a.Count, a.Outcome),
		Actual:   fmt.Sprintf("%d (%s)", got, strings.Join(seen, " ")),
		Trace:    result.Trace,
	}
}

// EvaluateAssertions checks every assertion against the result and the
// store it ran on, returning one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertUnreadCount:
			err = assertCount(AssertUnreadCount, assertion.Count, result.Final.Unread, result.Trace)
		case AssertLen:
			err = assertCount(AssertLen, assertion.Count, len(result.Final.IDs), result.Trace)
		case AssertVisibleCount:
			err = assertCount(AssertVisibleCount, assertion.Count, result.Final.Visible, result.Trace)
		case AssertToastCount:
			err = assertCount(AssertToastCount, assertion.Count, result.Final.Toasts, result.Trace)
		case AssertOrder:
			err = assertOrder(result, assertion)
		case AssertSelected:
			err = assertSelected(result, assertion)
		case AssertContains, AssertAbsent:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires a store", i, assertion.Type)
			} else if assertion.Type == AssertContains {
				err = assertContains(result, actx.Store, assertion)
			} else {
				err = assertAbsent(result, actx.Store, assertion)
			}
		case AssertOutcomeCount:
			var outcomes map[string]int
			if actx != nil {
				outcomes = actx.Outcomes
			}
			err = assertOutcomeCount(result, outcomes, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
