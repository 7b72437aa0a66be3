package memform

import (
	"fmt"
	"strings"
)

// FieldDefinition describes one field of a module.
type FieldDefinition struct {
	Name     string `json:"name" yaml:"name" toml:"name"`
	Label    string `json:"label,omitempty" yaml:"label,omitempty" toml:"label,omitempty"`
	Initial  any    `json:"initial,omitempty" yaml:"initial,omitempty" toml:"initial,omitempty"`
	Required bool   `json:"required,omitempty" yaml:"required,omitempty" toml:"required,omitempty"`
	// VisibleIf is a rule handed to the module's visibility.Evaluator. The
	// field is declared only while the rule holds.
	VisibleIf string `json:"visible_if,omitempty" yaml:"visible_if,omitempty" toml:"visible_if,omitempty"`
	// Schema is a JSON Schema fragment applied to the field value.
	Schema map[string]any `json:"schema,omitempty" yaml:"schema,omitempty" toml:"schema,omitempty"`
}

// DisplayLabel returns the label, falling back to the field name.
func (f FieldDefinition) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// Definition describes a module: its code and ordered fields.
type Definition struct {
	Code   string            `json:"code" yaml:"code" toml:"code"`
	Title  string            `json:"title,omitempty" yaml:"title,omitempty" toml:"title,omitempty"`
	Fields []FieldDefinition `json:"fields" yaml:"fields" toml:"fields"`
	// Sanitize strips markup from string values written through
	// SetFieldsValue and Touch.
	Sanitize bool `json:"sanitize,omitempty" yaml:"sanitize,omitempty" toml:"sanitize,omitempty"`
}

// Validate checks the definition for a code and unique, non-empty field
// names.
func (d Definition) Validate() error {
	if strings.TrimSpace(d.Code) == "" {
		return fmt.Errorf("memform: definition code is required")
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for i, field := range d.Fields {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return fmt.Errorf("memform: %s: field %d has no name", d.Code, i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("memform: %s: field %q declared twice", d.Code, name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

// Field returns the definition of name.
func (d Definition) Field(name string) (FieldDefinition, bool) {
	for _, field := range d.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDefinition{}, false
}
