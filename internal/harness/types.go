package harness

// Trace event kinds.
const (
	KindFrame = "frame"
	KindOp    = "op"
)

// TraceEvent records one executed step and the store state after it.
type TraceEvent struct {
	Step    int      `json:"step"`
	Kind    string   `json:"kind"`
	Op      string   `json:"op"`
	Outcome string   `json:"outcome,omitempty"`
	IDs     []string `json:"ids,omitempty"`
	Error   string   `json:"error,omitempty"`
	Len     int      `json:"len"`
	Unread  int      `json:"unread"`
	Toasts  int      `json:"toasts"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause, invariant and assertion held.
	Pass bool `json:"pass"`

	// Trace has one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the store state after the last step.
	Final FinalState `json:"final"`
}

// FinalState summarises the store after the run.
type FinalState struct {
	IDs      []string `json:"ids"`
	Unread   int      `json:"unread"`
	Visible  int      `json:"visible"`
	Selected []string `json:"selected,omitempty"`
	Toasts   int      `json:"toasts"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
