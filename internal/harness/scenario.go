package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted notification session: seed records, a flow of
// realtime frames and user operations, and assertions on the end state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// Now is the RFC 3339 start time of the fake clock. Defaults to DefaultNow.
	Now string `yaml:"now,omitempty"`

	// Preferences, if set, replaces the defaults. It is written the way the
	// preferences endpoint returns them and is schema-checked before use.
	Preferences map[string]any `yaml:"preferences,omitempty"`

	// Setup hydrates the store before the flow, as a REST fetch would.
	Setup []Seed `yaml:"setup,omitempty"`

	Flow []Step `yaml:"flow"`

	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Seed is a notification present before the flow starts.
type Seed struct {
	ID       string       `yaml:"id"`
	Type     string       `yaml:"type"`
	Priority string       `yaml:"priority"`
	Title    string       `yaml:"title,omitempty"`
	Message  string       `yaml:"message,omitempty"`
	Read     bool         `yaml:"read,omitempty"`
	Age      string       `yaml:"age,omitempty"`
	Expires  string       `yaml:"expires_in,omitempty"`
	Channels []string     `yaml:"channels,omitempty"`
	Actions  []SeedAction `yaml:"actions,omitempty"`
	URL      string       `yaml:"url,omitempty"`
}

// SeedAction is an action attached to a seed.
type SeedAction struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Step is one flow step. Exactly one of Frame, Raw or Op is set.
type Step struct {
	// Frame is a realtime frame, JSON-encoded before delivery.
	Frame map[string]any `yaml:"frame,omitempty"`

	// Raw is delivered byte for byte, for malformed-frame cases.
	Raw string `yaml:"raw,omitempty"`

	Op       string      `yaml:"op,omitempty"`
	ID       string      `yaml:"id,omitempty"`
	IDs      []string    `yaml:"ids,omitempty"`
	Action   string      `yaml:"action,omitempty"`
	Search   string      `yaml:"search,omitempty"`
	Filter   *FilterStep `yaml:"filter,omitempty"`
	Duration string      `yaml:"duration,omitempty"`

	// Fail makes the backend reject this step's calls.
	Fail bool `yaml:"fail,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// FilterStep sets the active filter.
type FilterStep struct {
	Search     string   `yaml:"search,omitempty"`
	Types      []string `yaml:"types,omitempty"`
	Priorities []string `yaml:"priorities,omitempty"`
	Read       *bool    `yaml:"read,omitempty"`
	Start      string   `yaml:"start,omitempty"`
	End        string   `yaml:"end,omitempty"`
}

// Expect checks the state right after a step. Unset fields are not checked.
type Expect struct {
	Outcome string `yaml:"outcome,omitempty"`
	Unread  *int   `yaml:"unread,omitempty"`
	Len     *int   `yaml:"len,omitempty"`
	Toasts  *int   `yaml:"toasts,omitempty"`
	Error   *bool  `yaml:"error,omitempty"`
}

// Operation names.
const (
	OpMarkRead       = "mark_read"
	OpMarkUnread     = "mark_unread"
	OpMarkAllRead    = "mark_all_read"
	OpDelete         = "delete"
	OpDeleteSelected = "delete_selected"
	OpSelect         = "select"
	OpDeselect       = "deselect"
	OpSelectAll      = "select_all"
	OpClearSelection = "clear_selection"
	OpSearch         = "search"
	OpFilter         = "filter"
	OpClearFilter    = "clear_filter"
	OpExecute        = "execute"
	OpAdvance        = "advance"
	OpDismissToasts  = "dismiss_toasts"
)

// Assertion validates the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	Count   int      `yaml:"count,omitempty"`
	ID      string   `yaml:"id,omitempty"`
	IDs     []string `yaml:"ids,omitempty"`
	Read    *bool    `yaml:"read,omitempty"`
	Outcome string   `yaml:"outcome,omitempty"`
}

// Assertion type constants.
const (
	AssertUnreadCount  = "unread_count"
	AssertLen          = "len"
	AssertVisibleCount = "visible_count"
	AssertOrder        = "order"
	AssertContains     = "contains"
	AssertAbsent       = "absent"
	AssertSelected     = "selected"
	AssertToastCount   = "toast_count"
	AssertOutcomeCount = "outcome_count"
)

// DefaultNow is the clock start when a scenario does not set one.
var DefaultNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// StartTime returns the parsed Now, or DefaultNow.
func (s *Scenario) StartTime() (time.Time, error) {
	if s.Now == "" {
		return DefaultNow, nil
	}
	t, err := time.Parse(time.RFC3339, s.Now)
	if err != nil {
		return time.Time{}, fmt.Errorf("now: %w", err)
	}
	return t, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow must contain at least one step")
	}
	if _, err := s.StartTime(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(s.Setup))
	for i, seed := range s.Setup {
		if seed.ID == "" {
			return fmt.Errorf("setup[%d]: id is required", i)
		}
		if seen[seed.ID] {
			return fmt.Errorf("setup[%d]: duplicate id %q", i, seed.ID)
		}
		seen[seed.ID] = true
		for _, d := range []string{seed.Age, seed.Expires} {
			if d == "" {
				continue
			}
			if _, err := time.ParseDuration(d); err != nil {
				return fmt.Errorf("setup[%d]: %w", i, err)
			}
		}
	}

	for i := range s.Flow {
		if err := validateStep(&s.Flow[i], i); err != nil {
			return err
		}
	}
	for i := range s.Assertions {
		if err := validateAssertion(&s.Assertions[i], i); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(st *Step, index int) error {
	set := 0
	if st.Frame != nil {
		set++
	}
	if st.Raw != "" {
		set++
	}
	if st.Op != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("flow[%d]: exactly one of frame, raw or op is required", index)
	}
	if st.Op == "" {
		return nil
	}

	switch st.Op {
	case OpMarkRead, OpMarkUnread, OpSelect, OpDeselect:
		if len(st.IDs) == 0 {
			return fmt.Errorf("flow[%d]: ids are required for %s", index, st.Op)
		}
	case OpDelete:
		if st.ID == "" {
			return fmt.Errorf("flow[%d]: id is required for delete", index)
		}
	case OpExecute:
		if st.ID == "" || st.Action == "" {
			return fmt.Errorf("flow[%d]: id and action are required for execute", index)
		}
	case OpFilter:
		if st.Filter == nil {
			return fmt.Errorf("flow[%d]: filter is required for filter", index)
		}
	case OpAdvance:
		d, err := time.ParseDuration(st.Duration)
		if err != nil {
			return fmt.Errorf("flow[%d]: duration: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("flow[%d]: duration must not be negative", index)
		}
	case OpMarkAllRead, OpDeleteSelected, OpSelectAll, OpClearSelection,
		OpSearch, OpClearFilter, OpDismissToasts:
	default:
		return fmt.Errorf("flow[%d]: unknown op %q", index, st.Op)
	}
	return nil
}

func validateAssertion(a *Assertion, index int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertUnreadCount, AssertLen, AssertVisibleCount, AssertToastCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertOrder, AssertSelected:
		if a.IDs == nil {
			return fmt.Errorf("assertions[%d]: ids list is required for %s", index, a.Type)
		}
	case AssertContains, AssertAbsent:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for %s", index, a.Type)
		}
	case AssertOutcomeCount:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for outcome_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
