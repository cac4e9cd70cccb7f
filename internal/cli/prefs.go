package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/notification"
	"github.com/CyclesyncDevsync/iwb25-164-devsync-sub003/internal/preference"
)

// NewPrefsCommand creates the prefs command group.
func NewPrefsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Inspect and edit delivery preferences",
		Long: `Inspect, validate and update per-user delivery preferences: enabled
channels per type, channels per priority, quiet hours, do-not-disturb and
batch delivery.

Preference documents may be written in YAML or JSON.`,
	}

	cmd.AddCommand(newPrefsShowCommand(rootOpts))
	cmd.AddCommand(newPrefsValidateCommand(rootOpts))
	cmd.AddCommand(newPrefsSetCommand(rootOpts))
	cmd.AddCommand(newPrefsResolveCommand(rootOpts))

	return cmd
}

func newPrefsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences",
		Long: `Fetch the preferences stored on the server and print them as YAML,
or as JSON with --format json.

Examples:
  notifykit prefs show
  notifykit prefs show --format json > prefs.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := rootOpts.client(cmd)
			if err != nil {
				return err
			}
			out := rootOpts.formatter(cmd)
			p, err := client.GetPreferences(cmd.Context())
			if err != nil {
				return out.Fail(ExitCommandError, "failed to fetch preferences", err)
			}
			return renderPreferences(out, *p)
		},
	}
}

func renderPreferences(out *OutputFormatter, p preference.Preferences) error {
	if out.Format == "json" {
		return out.Success(p)
	}
	doc, err := preferencesYAML(p)
	if err != nil {
		return err
	}
	_, err = out.Writer.Write(doc)
	return err
}

// preferencesYAML renders p with its wire field names.
func preferencesYAML(p preference.Preferences) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var generic map[string]any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

// readPreferencesDoc reads a YAML or JSON preferences file and returns it
// as JSON. YAML is a superset of JSON, so one decoder handles both.
func readPreferencesDoc(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse %s: empty document", path)
	}
	return json.Marshal(doc)
}

// loadPreferencesFile reads, schema-checks and decodes a preferences file.
func loadPreferencesFile(path string) (preference.Preferences, error) {
	data, err := readPreferencesDoc(path)
	if err != nil {
		return preference.Preferences{}, err
	}
	if err := preference.ValidateJSON(data); err != nil {
		return preference.Preferences{}, err
	}
	var p preference.Preferences
	if err := json.Unmarshal(data, &p); err != nil {
		return preference.Preferences{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}

// ValidateOutput is the JSON payload of prefs validate.
type ValidateOutput struct {
	File       string                       `json:"file"`
	Valid      bool                         `json:"valid"`
	Violations []preference.ValidationError `json:"violations,omitempty"`
}

func newPrefsValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check a preferences document against the schema",
		Long: `Validate a preferences document without sending it. Every violation
is reported with its path.

Exit codes:
  0 - Document is valid
  1 - Document has schema violations
  2 - Command error (file not found, unparseable, etc.)

Examples:
  notifykit prefs validate prefs.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrefsValidate(rootOpts, args[0], cmd)
		},
	}
}

func runPrefsValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	data, err := readPreferencesDoc(path)
	if err != nil {
		if outErr := out.Error(ErrCodeNotFound, err.Error(), nil); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitCommandError, "failed to read preferences", err)
	}

	err = preference.ValidateJSON(data)
	var schemaErr *preference.SchemaError
	switch {
	case err == nil:
		return out.Render(ValidateOutput{File: path, Valid: true}, func(w io.Writer) {
			fmt.Fprintf(w, "✓ %s\n", path)
		})
	case errors.As(err, &schemaErr):
		result := ValidateOutput{File: path, Violations: schemaErr.Errors}
		if outErr := out.Error(ErrCodeInvalidPrefs, fmt.Sprintf("%d violation(s) in %s", len(schemaErr.Errors), path), result); outErr != nil {
			return outErr
		}
		if out.Format != "json" {
			for _, v := range schemaErr.Errors {
				fmt.Fprintf(out.Writer, "  %s\n", v.Error())
			}
		}
		return WrapExitError(ExitFailure, "invalid preferences", err)
	default:
		return WrapExitError(ExitCommandError, "failed to validate preferences", err)
	}
}

// PrefsSetOptions holds flags for prefs set.
type PrefsSetOptions struct {
	*RootOptions
	DryRun bool
}

func newPrefsSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrefsSetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "set <file>",
		Short: "Replace the stored preferences with a document",
		Long: `Validate a preferences document, merge it into a draft of the stored
preferences and save the whole draft. Nothing is sent when the document
matches what is stored.

Examples:
  notifykit prefs set prefs.yaml
  notifykit prefs set prefs.yaml --dry-run`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrefsSet(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report the changes without saving")

	return cmd
}

func runPrefsSet(opts *PrefsSetOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	desired, err := loadPreferencesFile(path)
	if err != nil {
		var schemaErr *preference.SchemaError
		if errors.As(err, &schemaErr) {
			if outErr := out.Error(ErrCodeInvalidPrefs, err.Error(), schemaErr.Errors); outErr != nil {
				return outErr
			}
			return WrapExitError(ExitFailure, "invalid preferences", err)
		}
		return WrapExitError(ExitCommandError, "failed to read preferences", err)
	}

	client, err := opts.client(cmd)
	if err != nil {
		return err
	}
	current, err := client.GetPreferences(cmd.Context())
	if err != nil {
		return out.Fail(ExitCommandError, "failed to fetch preferences", err)
	}

	editor := preference.NewEditor(*current)
	changed := applyDraft(editor, desired)

	if len(changed) == 0 {
		return out.Render(map[string]any{"changed": []string{}}, func(w io.Writer) {
			fmt.Fprintln(w, "Preferences unchanged.")
		})
	}
	if opts.DryRun {
		return out.Render(map[string]any{"changed": changed, "saved": false}, func(w io.Writer) {
			fmt.Fprintf(w, "Would change: %s\n", strings.Join(changed, ", "))
		})
	}

	saved, err := editor.Save(cmd.Context(), client)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to save preferences", err)
	}
	out.VerboseLog("saved preferences: %s", strings.Join(changed, ", "))
	if out.Format == "json" {
		return out.Success(map[string]any{"changed": changed, "saved": true, "preferences": saved})
	}
	fmt.Fprintf(out.Writer, "Saved: %s\n", strings.Join(changed, ", "))
	return nil
}

// applyDraft edits the draft towards desired and returns the paths that
// differ from the snapshot, sorted.
func applyDraft(e *preference.Editor, desired preference.Preferences) []string {
	snap := e.Snapshot()
	var changed []string

	for c, want := range desired.Channels {
		have, ok := snap.Channels[c]
		if !ok || have.Enabled != want.Enabled {
			e.SetChannelEnabled(c, want.Enabled)
			changed = append(changed, fmt.Sprintf("channels.%s.enabled", c))
		}
		if !ok || !equalSlices(have.Types, want.Types) {
			e.SetChannelTypes(c, want.Types)
			changed = append(changed, fmt.Sprintf("channels.%s.types", c))
		}
		if !ok || !equalWindows(have.QuietHours, want.QuietHours) {
			e.SetQuietHours(c, want.QuietHours)
			changed = append(changed, fmt.Sprintf("channels.%s.quietHours", c))
		}
	}
	for p, want := range desired.Priority {
		have, ok := snap.Priority[p]
		if !ok || have.Enabled != want.Enabled {
			e.SetPriorityEnabled(p, want.Enabled)
			changed = append(changed, fmt.Sprintf("priority.%s.enabled", p))
		}
		if !ok || !equalSlices(have.Channels, want.Channels) {
			e.SetPriorityChannels(p, want.Channels)
			changed = append(changed, fmt.Sprintf("priority.%s.channels", p))
		}
	}
	if snap.BatchSettings != desired.BatchSettings {
		e.SetBatch(desired.BatchSettings)
		changed = append(changed, "batchSettings")
	}
	if snap.DoNotDisturb != desired.DoNotDisturb {
		e.SetDoNotDisturb(desired.DoNotDisturb)
		changed = append(changed, "doNotDisturb")
	}

	sort.Strings(changed)
	return changed
}

func equalSlices[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalWindows(a, b *preference.Window) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// PrefsResolveOptions holds flags for prefs resolve.
type PrefsResolveOptions struct {
	*RootOptions
	Type     string
	Priority string
	At       string
	File     string
}

// ResolveOutput is the JSON payload of prefs resolve.
type ResolveOutput struct {
	Type     notification.Type      `json:"type"`
	Priority notification.Priority  `json:"priority"`
	At       time.Time              `json:"at"`
	Channels []notification.Channel `json:"channels"`
}

func newPrefsResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PrefsResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Show which channels a notification would use",
		Long: `Resolve the delivery channels for a notification of the given type
and priority at a point in time, using the stored preferences or a local
document.

Examples:
  notifykit prefs resolve --type auction_outbid --priority high
  notifykit prefs resolve --type security_alert --priority urgent --at 2026-10-19T23:30:00+05:30
  notifykit prefs resolve --type order_placed --priority low --file prefs.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrefsResolve(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Type, "type", "t", "", "notification type (required)")
	cmd.Flags().StringVarP(&opts.Priority, "priority", "p", string(notification.PriorityMedium), "priority")
	cmd.Flags().StringVar(&opts.At, "at", "", "evaluation time in RFC3339 (default now)")
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "preferences document instead of the stored preferences")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func runPrefsResolve(opts *PrefsResolveOptions, cmd *cobra.Command) error {
	types, err := parseTypes([]string{opts.Type})
	if err != nil {
		return err
	}
	priorities, err := parsePriorities([]string{opts.Priority})
	if err != nil {
		return err
	}
	at := time.Now()
	if opts.At != "" {
		at, err = time.Parse(time.RFC3339, opts.At)
		if err != nil {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid --at %q: want RFC3339", opts.At))
		}
	}

	out := opts.formatter(cmd)
	var prefs preference.Preferences
	if opts.File != "" {
		prefs, err = loadPreferencesFile(opts.File)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read preferences", err)
		}
	} else {
		client, err := opts.client(cmd)
		if err != nil {
			return err
		}
		p, err := client.GetPreferences(cmd.Context())
		if err != nil {
			return out.Fail(ExitCommandError, "failed to fetch preferences", err)
		}
		prefs = *p
	}

	n := notification.Notification{ID: "resolve", Type: types[0], Priority: priorities[0], CreatedAt: at}
	result := ResolveOutput{
		Type:     n.Type,
		Priority: n.Priority,
		At:       at,
		Channels: prefs.Resolve(&n, at),
	}
	if result.Channels == nil {
		result.Channels = []notification.Channel{}
	}
	return out.Render(result, func(w io.Writer) {
		if len(result.Channels) == 0 {
			fmt.Fprintf(w, "%s/%s: suppressed\n", n.Type, n.Priority)
			return
		}
		chs := make([]string, len(result.Channels))
		for i, c := range result.Channels {
			chs[i] = string(c)
		}
		fmt.Fprintf(w, "%s/%s: %s\n", n.Type, n.Priority, strings.Join(chs, ", "))
	})
}
