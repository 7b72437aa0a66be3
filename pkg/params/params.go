// Package params canonicalises the arguments of bulk container operations.
//
// Callers describe a request with named fields instead of positional
// overloads; every historical shape maps onto a Request literal:
//
//	validate(cb)                 -> Request{Callback: cb}
//	validate(names, cb)          -> Request{Names: names, Callback: cb}
//	validate(options, cb)        -> Request{Options: &opts, Callback: cb}
//	validate(names, options, cb) -> Request{Names: names, Options: &opts, Callback: cb}
package params

import (
	"strings"

	"github.com/goliatone/go-formcontainer/pkg/module"
)

// Callback receives the merged outcome of a bulk validation. errs is nil when
// no module reported an error.
type Callback func(errs module.ErrorMap, values module.Values)

// Request is the caller-facing description of a bulk operation.
type Request struct {
	// Names restricts the operation to these field identifiers. Empty means
	// every known field.
	Names []string
	// Options is forwarded to each owning module. Nil means defaults.
	Options *module.ValidateOptions
	// Callback fires once with the merged result. Optional.
	Callback Callback
}

// Params is the canonical triple consumed by the container.
type Params struct {
	Names    []string
	Options  module.ValidateOptions
	Callback Callback
}

// All reports whether the request targets every known field.
func (p Params) All() bool {
	return len(p.Names) == 0
}

// Normalize trims field names, removes blanks and duplicates (keeping first
// appearance), and substitutes default options.
func Normalize(req Request) Params {
	out := Params{
		Names:    Names(req.Names),
		Callback: req.Callback,
	}
	if req.Options != nil {
		out.Options = *req.Options
		out.Options.FirstFields = Names(req.Options.FirstFields)
	}
	return out
}

// Names normalises a list of field identifiers. It returns nil for an empty
// result so callers can test for "all fields" with len.
func Names(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
