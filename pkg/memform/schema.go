package memform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/goliatone/go-formcontainer/pkg/module"
)

var printer = message.NewPrinter(language.English)

// fieldSchema validates field values against the per-field schema fragments
// of a Definition, compiled once into a single object schema.
type fieldSchema struct {
	schema *jsonschema.Schema
}

func compileSchema(def Definition) (*fieldSchema, error) {
	properties := make(map[string]any)
	for _, field := range def.Fields {
		if len(field.Schema) == 0 {
			continue
		}
		properties[field.Name] = field.Schema
	}
	if len(properties) == 0 {
		return nil, nil
	}

	raw, err := json.Marshal(map[string]any{
		"type":       "object",
		"properties": properties,
	})
	if err != nil {
		return nil, fmt.Errorf("memform: %s: encode schema: %w", def.Code, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("memform: %s: decode schema: %w", def.Code, err)
	}

	location := url.PathEscape(def.Code) + ".schema.json"
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(location, doc); err != nil {
		return nil, fmt.Errorf("memform: %s: add schema: %w", def.Code, err)
	}
	schema, err := compiler.Compile(location)
	if err != nil {
		return nil, fmt.Errorf("memform: %s: compile schema: %w", def.Code, err)
	}
	return &fieldSchema{schema: schema}, nil
}

// check validates values (already stripped of empty entries) and returns the
// messages grouped by top-level property.
func (s *fieldSchema) check(values module.Values) (module.ErrorMap, error) {
	out := make(module.ErrorMap)
	if s == nil || len(values) == 0 {
		return out, nil
	}

	raw, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("memform: encode values: %w", err)
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("memform: decode values: %w", err)
	}

	err = s.schema.Validate(inst)
	if err == nil {
		return out, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("memform: validate: %w", err)
	}
	collect(verr, out)
	return out, nil
}

func collect(verr *jsonschema.ValidationError, out module.ErrorMap) {
	if len(verr.Causes) == 0 {
		if len(verr.InstanceLocation) == 0 || verr.ErrorKind == nil {
			return
		}
		field := verr.InstanceLocation[0]
		msg := verr.ErrorKind.LocalizedString(printer)
		for _, existing := range out[field] {
			if existing == msg {
				return
			}
		}
		out[field] = append(out[field], msg)
		return
	}
	for _, cause := range verr.Causes {
		collect(cause, out)
	}
}
