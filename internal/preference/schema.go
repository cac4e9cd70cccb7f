package preference

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSrc string

// ValidationError describes one schema violation.
type ValidationError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// SchemaError aggregates every violation found in one document.
type SchemaError struct {
	Errors []ValidationError
}

func (e *SchemaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return "invalid preferences: " + strings.Join(msgs, "; ")
}

// Validate checks p against the embedded CUE schema. Returns nil or a
// *SchemaError listing every violation.
func Validate(p Preferences) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	return ValidateJSON(data)
}

// ValidateJSON checks a raw preferences document against the schema.
// Unknown fields are violations.
func ValidateJSON(data []byte) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("preferences.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile preferences schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Preferences"))

	doc := ctx.CompileBytes(data, cue.Filename("preferences.json"))
	if err := doc.Err(); err != nil {
		return &SchemaError{Errors: toValidationErrors(err)}
	}

	if err := def.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return &SchemaError{Errors: toValidationErrors(err)}
	}
	return nil
}

func toValidationErrors(err error) []ValidationError {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return []ValidationError{{Message: err.Error()}}
	}
	out := make([]ValidationError, 0, len(errs))
	for _, e := range errs {
		format, args := e.Msg()
		out = append(out, ValidationError{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return out
}
