// Package modules derives memform definitions from OpenAPI documents: every
// operation with an object request body becomes one module whose fields are
// the body's top-level properties.
package modules

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formcontainer/pkg/memform"
)

const (
	labelExtension     = "x-label"
	visibleIfExtension = "x-visible-if"
)

// jsonSchemaFormats lists the formats shared by OpenAPI and JSON Schema;
// OpenAPI-only formats such as int32 or binary are dropped.
var jsonSchemaFormats = map[string]bool{
	"date": true, "date-time": true, "time": true, "email": true, "hostname": true,
	"ipv4": true, "ipv6": true, "uri": true, "uuid": true,
}

var methods = []string{"GET", "PUT", "POST", "DELETE", "PATCH", "HEAD", "OPTIONS", "TRACE"}

// Options tweaks the conversion.
type Options struct {
	// Validate runs kin-openapi document validation before conversion.
	Validate bool
	// Sanitize is copied onto every produced definition.
	Sanitize bool
}

// FromData parses an OpenAPI 3 document (JSON or YAML) and returns one
// definition per operation, ordered by path then method.
func FromData(ctx context.Context, data []byte, opts Options) ([]memform.Definition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("openapi modules: document payload is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi modules: load document: %w", err)
	}
	if opts.Validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi modules: validate: %w", err)
		}
	}
	if doc.Paths == nil || doc.Paths.Len() == 0 {
		return nil, errors.New("openapi modules: document does not contain any paths")
	}

	paths := make([]string, 0, doc.Paths.Len())
	items := doc.Paths.Map()
	for path := range items {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var defs []memform.Definition
	seen := make(map[string]string)
	for _, path := range paths {
		item := items[path]
		if item == nil {
			continue
		}
		for _, method := range methods {
			operation := item.GetOperation(method)
			if operation == nil {
				continue
			}
			def, ok := definition(method, path, operation)
			if !ok {
				continue
			}
			if previous, exists := seen[def.Code]; exists {
				return nil, fmt.Errorf("openapi modules: duplicate operation %q (%s and %s %s)", def.Code, previous, method, path)
			}
			seen[def.Code] = method + " " + path
			def.Sanitize = opts.Sanitize
			defs = append(defs, def)
		}
	}
	if len(defs) == 0 {
		return nil, errors.New("openapi modules: no operation declares an object request body")
	}
	return defs, nil
}

// IsDocument reports whether a decoded document looks like OpenAPI.
func IsDocument(doc map[string]any) bool {
	_, ok := doc["openapi"]
	return ok
}

func definition(method, path string, operation *openapi3.Operation) (memform.Definition, bool) {
	body := requestSchema(operation.RequestBody)
	if body == nil || len(body.Properties) == 0 {
		return memform.Definition{}, false
	}

	code := strings.TrimSpace(operation.OperationID)
	if code == "" {
		code = strings.ToLower(method) + ":" + path
	}

	required := make(map[string]bool, len(body.Required))
	for _, name := range body.Required {
		required[name] = true
	}

	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	def := memform.Definition{Code: code, Title: operation.Summary}
	for _, name := range names {
		ref := body.Properties[name]
		field := memform.FieldDefinition{Name: name, Required: required[name]}
		if ref != nil && ref.Value != nil {
			prop := ref.Value
			field.Label = label(prop)
			field.Initial = prop.Default
			field.VisibleIf = stringExtension(prop.Extensions, visibleIfExtension)
			field.Schema = fragment(prop)
		}
		def.Fields = append(def.Fields, field)
	}
	return def, true
}

func requestSchema(body *openapi3.RequestBodyRef) *openapi3.Schema {
	if body == nil || body.Value == nil {
		return nil
	}
	content := body.Value.Content
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func label(prop *openapi3.Schema) string {
	if title := strings.TrimSpace(prop.Title); title != "" {
		return title
	}
	return stringExtension(prop.Extensions, labelExtension)
}

func stringExtension(ext map[string]any, key string) string {
	value, ok := ext[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

// fragment translates the validation keywords of an OpenAPI schema into a
// JSON Schema (2020-12) fragment.
func fragment(src *openapi3.Schema) map[string]any {
	out := make(map[string]any)

	types := src.Type.Slice()
	switch len(types) {
	case 0:
	case 1:
		out["type"] = types[0]
	default:
		list := make([]any, len(types))
		for i, t := range types {
			list[i] = t
		}
		out["type"] = list
	}
	if jsonSchemaFormats[src.Format] {
		out["format"] = src.Format
	}
	if len(src.Enum) > 0 {
		out["enum"] = append([]any(nil), src.Enum...)
	}
	if src.MinLength != 0 {
		out["minLength"] = src.MinLength
	}
	if src.MaxLength != nil {
		out["maxLength"] = *src.MaxLength
	}
	if src.Min != nil {
		if src.ExclusiveMin {
			out["exclusiveMinimum"] = *src.Min
		} else {
			out["minimum"] = *src.Min
		}
	}
	if src.Max != nil {
		if src.ExclusiveMax {
			out["exclusiveMaximum"] = *src.Max
		} else {
			out["maximum"] = *src.Max
		}
	}
	if src.Pattern != "" {
		out["pattern"] = src.Pattern
	}
	if src.MinItems != 0 {
		out["minItems"] = src.MinItems
	}
	if src.MaxItems != nil {
		out["maxItems"] = *src.MaxItems
	}
	if src.Items != nil && src.Items.Value != nil {
		if items := fragment(src.Items.Value); items != nil {
			out["items"] = items
		}
	}
	if len(src.Properties) > 0 {
		props := make(map[string]any, len(src.Properties))
		for name, ref := range src.Properties {
			if ref == nil || ref.Value == nil {
				continue
			}
			nested := fragment(ref.Value)
			if nested == nil {
				nested = map[string]any{}
			}
			props[name] = nested
		}
		out["properties"] = props
		if len(src.Required) > 0 {
			required := make([]any, len(src.Required))
			for i, name := range src.Required {
				required[i] = name
			}
			out["required"] = required
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
