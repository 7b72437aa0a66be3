// Package hclexpr evaluates visibility rules written as HCL expressions.
//
// A rule sees three kinds of variables:
//
//   - values: an object holding every value in visibility.Context.Values
//   - extras: an object holding visibility.Context.Extras
//   - field: the identifier of the field being evaluated
//
// Value keys that are valid HCL identifiers are also exposed at the top level,
// so `newsletter && values.email != ""` and `values.newsletter && ...` are
// equivalent. A handful of cty standard functions (length, lower, upper,
// contains, coalesce) are available.
//
// The result is coerced to a boolean: null and unknown are false, numbers are
// true when non-zero, strings when non-empty and not "false", collections when
// non-empty.
package hclexpr

import (
	"encoding/json"
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"

	"github.com/goliatone/go-formcontainer/pkg/visibility"
)

const (
	valuesVar = "values"
	extrasVar = "extras"
	fieldVar  = "field"
)

// Evaluator implements visibility.Evaluator on top of hclsyntax. Parsed
// expressions are cached per rule.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]hcl.Expression
	funcs map[string]function.Function
}

// New returns an Evaluator with the default function table.
func New() *Evaluator {
	return &Evaluator{
		cache: make(map[string]hcl.Expression),
		funcs: map[string]function.Function{
			"length":   stdlib.LengthFunc,
			"lower":    stdlib.LowerFunc,
			"upper":    stdlib.UpperFunc,
			"contains": stdlib.ContainsFunc,
			"coalesce": stdlib.CoalesceFunc,
		},
	}
}

var _ visibility.Evaluator = (*Evaluator)(nil)

// Eval parses rule (once) and evaluates it against ctx. Empty rules are
// visible.
func (e *Evaluator) Eval(field, rule string, ctx visibility.Context) (bool, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return true, nil
	}

	expr, err := e.parse(trimmed)
	if err != nil {
		return false, err
	}

	evalCtx, err := e.context(field, ctx)
	if err != nil {
		return false, err
	}

	value, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return false, fmt.Errorf("hclexpr: evaluate %q for %s: %w", trimmed, field, diags)
	}
	return Truthy(value), nil
}

// Check parses rule and reports syntax errors without evaluating it.
func (e *Evaluator) Check(rule string) error {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil
	}
	_, err := e.parse(trimmed)
	return err
}

func (e *Evaluator) parse(rule string) (hcl.Expression, error) {
	e.mu.RLock()
	expr, ok := e.cache[rule]
	e.mu.RUnlock()
	if ok {
		return expr, nil
	}

	expr, diags := hclsyntax.ParseExpression([]byte(rule), "visibility", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("hclexpr: parse %q: %w", rule, diags)
	}

	e.mu.Lock()
	e.cache[rule] = expr
	e.mu.Unlock()
	return expr, nil
}

func (e *Evaluator) context(field string, ctx visibility.Context) (*hcl.EvalContext, error) {
	values, err := objectOf(ctx.Values)
	if err != nil {
		return nil, fmt.Errorf("hclexpr: values: %w", err)
	}
	extras, err := objectOf(ctx.Extras)
	if err != nil {
		return nil, fmt.Errorf("hclexpr: extras: %w", err)
	}

	vars := map[string]cty.Value{
		valuesVar: values,
		extrasVar: extras,
		fieldVar:  cty.StringVal(field),
	}
	for key := range ctx.Values {
		if key == valuesVar || key == extrasVar || key == fieldVar || !hclsyntax.ValidIdentifier(key) {
			continue
		}
		vars[key] = values.GetAttr(key)
	}
	return &hcl.EvalContext{Variables: vars, Functions: e.funcs}, nil
}

func objectOf(in map[string]any) (cty.Value, error) {
	if len(in) == 0 {
		return cty.EmptyObjectVal, nil
	}
	attrs := make(map[string]cty.Value, len(in))
	for key, raw := range in {
		v, err := ToCty(raw)
		if err != nil {
			return cty.NilVal, fmt.Errorf("%s: %w", key, err)
		}
		attrs[key] = v
	}
	return cty.ObjectVal(attrs), nil
}

// ToCty converts a decoded Go value (as produced by JSON, YAML or TOML
// decoders) into a cty.Value. Maps become objects and slices become tuples so
// heterogeneous content survives.
func ToCty(v any) (cty.Value, error) {
	switch val := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType), nil
	case cty.Value:
		return val, nil
	case bool:
		return cty.BoolVal(val), nil
	case string:
		return cty.StringVal(val), nil
	case int:
		return cty.NumberIntVal(int64(val)), nil
	case int8:
		return cty.NumberIntVal(int64(val)), nil
	case int16:
		return cty.NumberIntVal(int64(val)), nil
	case int32:
		return cty.NumberIntVal(int64(val)), nil
	case int64:
		return cty.NumberIntVal(val), nil
	case uint:
		return cty.NumberUIntVal(uint64(val)), nil
	case uint8:
		return cty.NumberUIntVal(uint64(val)), nil
	case uint16:
		return cty.NumberUIntVal(uint64(val)), nil
	case uint32:
		return cty.NumberUIntVal(uint64(val)), nil
	case uint64:
		return cty.NumberUIntVal(val), nil
	case float32:
		return cty.NumberFloatVal(float64(val)), nil
	case float64:
		return cty.NumberFloatVal(val), nil
	case json.Number:
		f, _, err := big.ParseFloat(val.String(), 10, 512, big.ToNearestEven)
		if err != nil {
			return cty.NilVal, err
		}
		return cty.NumberVal(f), nil
	case []string:
		items := make([]any, len(val))
		for i, s := range val {
			items[i] = s
		}
		return ToCty(items)
	case []any:
		if len(val) == 0 {
			return cty.EmptyTupleVal, nil
		}
		items := make([]cty.Value, len(val))
		for i, item := range val {
			converted, err := ToCty(item)
			if err != nil {
				return cty.NilVal, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = converted
		}
		return cty.TupleVal(items), nil
	case map[string]any:
		return objectOf(val)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return objectOf(out)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return ToCty(out)
	case reflect.Pointer:
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		return ToCty(rv.Elem().Interface())
	}
	return cty.NilVal, fmt.Errorf("unsupported value of type %T", v)
}

// Truthy coerces an expression result into a visibility decision.
func Truthy(v cty.Value) bool {
	if v.IsNull() || !v.IsKnown() {
		return false
	}
	ty := v.Type()
	switch {
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		return v.AsBigFloat().Sign() != 0
	case ty == cty.String:
		s := strings.TrimSpace(v.AsString())
		return s != "" && !strings.EqualFold(s, "false")
	case ty.IsObjectType():
		return len(ty.AttributeTypes()) > 0
	case ty.IsCollectionType() || ty.IsTupleType():
		return v.LengthInt() > 0
	}
	return true
}

// Variables lists the root names a rule references, sorted. It lets callers
// check rules against the fields a module declares.
func Variables(rule string) ([]string, error) {
	trimmed := strings.TrimSpace(rule)
	if trimmed == "" {
		return nil, nil
	}
	expr, diags := hclsyntax.ParseExpression([]byte(trimmed), "visibility", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("hclexpr: parse %q: %w", trimmed, diags)
	}

	seen := make(map[string]struct{})
	for _, traversal := range expr.Variables() {
		name := traversal.RootName()
		if name == valuesVar && len(traversal) > 1 {
			if attr, ok := traversal[1].(hcl.TraverseAttr); ok {
				name = attr.Name
			}
		}
		seen[name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}
