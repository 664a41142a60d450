// Package schema holds the embedded JSON Schemas for canonical records and
// oracle responses, and validates documents against them.
package schema

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	Record          = "record"
	BatchVerdicts   = "batch_verdicts"
	LanguageVerdict = "language_verdict"
)

// Violation is one failed constraint, located by JSON pointer.
type Violation struct {
	Location string
	Message  string
}

func (v Violation) String() string {
	if v.Location == "" {
		return v.Message
	}
	return v.Location + ": " + v.Message
}

// Validator checks decoded JSON against one compiled schema.
type Validator struct {
	name   string
	schema *jsonschema.Schema
}

// Compile loads and compiles an embedded schema by name.
func Compile(name string) (*Validator, error) {
	raw, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	resource := name + ".json"
	if err := compiler.AddResource(resource, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema %s: %w", name, err)
	}
	return &Validator{name: name, schema: compiled}, nil
}

// MustCompile is Compile for schemas known to be embedded.
func MustCompile(name string) *Validator {
	v, err := Compile(name)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks an already-decoded JSON value.
func (v *Validator) Validate(doc any) []Violation {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []Violation{{Message: err.Error()}}
	}
	var out []Violation
	collectLeaves(ve, &out)
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}

// ValidateJSON decodes raw JSON and validates it.
func (v *Validator) ValidateJSON(raw []byte) ([]Violation, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document for schema %s: %w", v.name, err)
	}
	return v.Validate(doc), nil
}

// ValidateValue round-trips a Go value through JSON and validates it.
func (v *Validator) ValidateValue(value any) ([]Violation, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document for schema %s: %w", v.name, err)
	}
	return v.ValidateJSON(raw)
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]Violation) {
	if len(ve.Causes) == 0 {
		*out = append(*out, Violation{Location: ve.InstanceLocation, Message: ve.Message})
		return
	}
	for _, cause := range ve.Causes {
		collectLeaves(cause, out)
	}
}

// Summary joins violations for a single log attribute.
func Summary(violations []Violation) string {
	parts := make([]string, len(violations))
	for i, v := range violations {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}
