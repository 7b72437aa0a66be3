package registry

import (
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
)

// ModuleFields is the declared-field metadata of one module.
type ModuleFields struct {
	Code   string
	Fields []string
}

// Group is the slice of requested fields owned by one module.
type Group struct {
	Code   string
	Fields []string
}

// Partition groups requested field identifiers by owning module. Groups keep
// the order in which their module was first hit; fields keep request order.
type Partition struct {
	Groups []Group
	// Unknown lists identifiers with no owner, in request order.
	Unknown []string
}

// Codes returns the module codes present in the partition.
func (p Partition) Codes() []string {
	codes := make([]string, 0, len(p.Groups))
	for _, group := range p.Groups {
		codes = append(codes, group.Code)
	}
	return codes
}

// Empty reports whether no requested identifier was resolved.
func (p Partition) Empty() bool {
	return len(p.Groups) == 0
}

// FieldIndex maps field identifiers to the code of their owning module. It
// iterates in module registration order, then declared field order.
type FieldIndex struct {
	mu     sync.RWMutex
	order  []string
	owners map[string]string
}

// NewFieldIndex creates an empty index.
func NewFieldIndex() *FieldIndex {
	return &FieldIndex{owners: make(map[string]string)}
}

// Rebuild recomputes the whole index from modules. The new mapping is built
// aside and only swapped in when no field is declared by two modules; on
// error the previous index is left untouched.
func (x *FieldIndex) Rebuild(modules []ModuleFields) error {
	order := make([]string, 0, x.Len())
	owners := make(map[string]string, x.Len())

	for _, mod := range modules {
		code := normalizeCode(mod.Code)
		for _, raw := range mod.Fields {
			field := normalizeField(raw)
			if field == "" {
				continue
			}
			if existing, ok := owners[field]; ok {
				if existing == code {
					continue
				}
				return &DuplicateFieldError{Field: field, Existing: existing, Module: code}
			}
			owners[field] = code
			order = append(order, field)
		}
	}

	x.mu.Lock()
	x.order = order
	x.owners = owners
	x.mu.Unlock()
	return nil
}

// RegisterModule adds the fields of a single module, checking them against
// the current index. Nothing is committed when a duplicate is found.
func (x *FieldIndex) RegisterModule(code string, fields []string) error {
	code = normalizeCode(code)
	if code == "" {
		return &MissingCodeError{}
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	pending := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, raw := range fields {
		field := normalizeField(raw)
		if field == "" {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}
		if existing, ok := x.owners[field]; ok {
			if existing == code {
				continue
			}
			return &DuplicateFieldError{Field: field, Existing: existing, Module: code}
		}
		pending = append(pending, field)
	}

	for _, field := range pending {
		x.owners[field] = code
		x.order = append(x.order, field)
	}
	return nil
}

// Purge removes every field owned by code and returns how many were dropped.
func (x *FieldIndex) Purge(code string) int {
	code = normalizeCode(code)

	x.mu.Lock()
	defer x.mu.Unlock()

	kept := make([]string, 0, len(x.order))
	removed := 0
	for _, field := range x.order {
		if x.owners[field] == code {
			delete(x.owners, field)
			removed++
			continue
		}
		kept = append(kept, field)
	}
	x.order = kept
	return removed
}

// Owner returns the code of the module owning id.
func (x *FieldIndex) Owner(id string) (string, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	code, ok := x.owners[normalizeField(id)]
	return code, ok
}

// Has reports whether id is indexed.
func (x *FieldIndex) Has(id string) bool {
	_, ok := x.Owner(id)
	return ok
}

// Fields returns every indexed identifier in iteration order.
func (x *FieldIndex) Fields() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return append([]string(nil), x.order...)
}

// FieldsOf returns the identifiers owned by code in iteration order.
func (x *FieldIndex) FieldsOf(code string) []string {
	code = normalizeCode(code)

	x.mu.RLock()
	defer x.mu.RUnlock()

	var out []string
	for _, field := range x.order {
		if x.owners[field] == code {
			out = append(out, field)
		}
	}
	return out
}

// Len returns the number of indexed fields.
func (x *FieldIndex) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.order)
}

// Snapshot returns a copy of the field → module mapping.
func (x *FieldIndex) Snapshot() map[string]string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	out := make(map[string]string, len(x.owners))
	for field, code := range x.owners {
		out[field] = code
	}
	return out
}

// Partition groups ids by owning module. Unknown identifiers are reported in
// Partition.Unknown rather than failing; repeated identifiers collapse.
func (x *FieldIndex) Partition(ids []string) Partition {
	x.mu.RLock()
	defer x.mu.RUnlock()

	var part Partition
	positions := make(map[string]int)
	seen := make(map[string]struct{}, len(ids))

	for _, raw := range ids {
		field := normalizeField(raw)
		if field == "" {
			continue
		}
		if _, dup := seen[field]; dup {
			continue
		}
		seen[field] = struct{}{}

		code, ok := x.owners[field]
		if !ok {
			part.Unknown = append(part.Unknown, field)
			continue
		}
		pos, ok := positions[code]
		if !ok {
			pos = len(part.Groups)
			positions[code] = pos
			part.Groups = append(part.Groups, Group{Code: code})
		}
		part.Groups[pos].Fields = append(part.Groups[pos].Fields, field)
	}
	return part
}

// Suggest returns the indexed identifier closest to id, if one is close
// enough to be a plausible typo.
func (x *FieldIndex) Suggest(id string) (string, bool) {
	target := normalizeField(id)
	if target == "" {
		return "", false
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	limit := len(target) / 3
	if limit < 2 {
		limit = 2
	}
	best, bestDistance := "", limit+1
	for _, field := range x.order {
		distance := levenshtein.ComputeDistance(target, field)
		if distance < bestDistance {
			best, bestDistance = field, distance
		}
	}
	if best == "" || best == target {
		return "", false
	}
	return best, true
}

func normalizeField(id string) string {
	return strings.TrimSpace(id)
}
