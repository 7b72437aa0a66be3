package registry

import (
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-formcontainer/pkg/module"
)

// Entry pairs a module code with its handle.
type Entry struct {
	Code   string
	Handle module.Handle
}

// Modules stores mounted module handles by code, in registration order.
type Modules struct {
	mu      sync.RWMutex
	order   []string
	handles map[string]module.Handle
}

// NewModules creates an empty module registry.
func NewModules() *Modules {
	return &Modules{
		handles: make(map[string]module.Handle),
	}
}

// Register adds a handle under code. Empty and duplicate codes are rejected.
func (r *Modules) Register(code string, handle module.Handle) error {
	key := normalizeCode(code)
	if key == "" {
		return &MissingCodeError{}
	}
	if handle == nil {
		return errors.New("registry: module handle is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[key]; exists {
		return &DuplicateModuleError{Code: key}
	}
	r.handles[key] = handle
	r.order = append(r.order, key)
	return nil
}

// Unregister removes code and reports whether it was present.
func (r *Modules) Unregister(code string) bool {
	key := normalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handles[key]; !exists {
		return false
	}
	delete(r.handles, key)
	for idx, existing := range r.order {
		if existing == key {
			r.order = append(r.order[:idx:idx], r.order[idx+1:]...)
			break
		}
	}
	return true
}

// Get returns the handle registered under code.
func (r *Modules) Get(code string) (module.Handle, bool) {
	key := normalizeCode(code)

	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.handles[key]
	return handle, ok
}

// Has reports whether code is registered.
func (r *Modules) Has(code string) bool {
	_, ok := r.Get(code)
	return ok
}

// Codes returns the registered codes in registration order.
func (r *Modules) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Snapshot returns the registered entries in registration order. The slice is
// a copy, so callers may invoke handles without holding the registry lock.
func (r *Modules) Snapshot() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]Entry, 0, len(r.order))
	for _, code := range r.order {
		entries = append(entries, Entry{Code: code, Handle: r.handles[code]})
	}
	return entries
}

// Len returns the number of registered modules.
func (r *Modules) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}

func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}
