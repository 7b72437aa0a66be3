package testsupport

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/scroll"
)

// Call records one invocation on a fake Module.
type Call struct {
	Method string
	Fields []string
	Values module.Values
}

// Module is a scriptable module.Handle that records every call. It never
// calls back into a container on its own; OnForceUpdate can be used to
// simulate re-entrant modules.
type Module struct {
	mu sync.Mutex

	code     string
	fields   []string
	values   module.Values
	errors   module.ErrorMap
	touched  map[string]bool
	failures module.ErrorMap
	elements map[string]scroll.Element
	calls    []Call

	validateErr error
	setErr      error
	gate        chan struct{}
	deferDone   bool
	pending     []func()

	// OnForceUpdate runs inside ForceUpdate before done is invoked.
	OnForceUpdate func()
	// OnValidate runs when ValidateFields starts, before the gate is awaited.
	OnValidate func()
}

// NewModule creates a fake module declaring fields.
func NewModule(code string, fields ...string) *Module {
	return &Module{
		code:     code,
		fields:   append([]string(nil), fields...),
		values:   make(module.Values),
		errors:   make(module.ErrorMap),
		touched:  make(map[string]bool),
		failures: make(module.ErrorMap),
		elements: make(map[string]scroll.Element),
	}
}

var _ module.Handle = (*Module)(nil)

// SetDeclaredFields replaces the declared fields, as a re-render would.
func (m *Module) SetDeclaredFields(fields ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = append([]string(nil), fields...)
}

// Seed stores a value without recording a call.
func (m *Module) Seed(id string, value any) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[id] = value
	return m
}

// Touch marks a field as touched.
func (m *Module) Touch(id string) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[id] = true
	return m
}

// SeedError stores an error message without running validation.
func (m *Module) SeedError(id string, messages ...string) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[id] = append([]string(nil), messages...)
	return m
}

// FailValidation scripts ValidateFields to report messages for id.
func (m *Module) FailValidation(id string, messages ...string) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[id] = append([]string(nil), messages...)
	return m
}

// FailWith makes ValidateFields return err.
func (m *Module) FailWith(err error) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validateErr = err
	return m
}

// FailSetWith makes SetFieldsValue return err without calling done.
func (m *Module) FailSetWith(err error) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setErr = err
	return m
}

// SetElement attaches a rendered element to id.
func (m *Module) SetElement(id string, el scroll.Element) *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.elements[id] = el
	return m
}

// Gate blocks ValidateFields until the returned release func is called.
func (m *Module) Gate() (release func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gate := make(chan struct{})
	m.gate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// DeferCompletion holds SetFieldsValue completions until Flush is called.
func (m *Module) DeferCompletion() *Module {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deferDone = true
	return m
}

// Flush runs every held completion.
func (m *Module) Flush() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, done := range pending {
		done()
	}
}

// Calls returns recorded calls, optionally filtered by method name.
func (m *Module) Calls(method string) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	if method == "" {
		return append([]Call(nil), m.calls...)
	}
	var out []Call
	for _, call := range m.calls {
		if call.Method == method {
			out = append(out, call)
		}
	}
	return out
}

func (m *Module) record(call Call) {
	m.calls = append(m.calls, call)
}

func (m *Module) Code() string { return m.code }

func (m *Module) Fields() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.fields...)
}

func (m *Module) FieldsValue() module.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "FieldsValue"})
	out := make(module.Values, len(m.fields))
	for _, id := range m.fields {
		out[id] = m.values[id]
	}
	return out
}

func (m *Module) FieldValue(id string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "FieldValue", Fields: []string{id}})
	return m.values[id]
}

func (m *Module) SetFieldsValue(values module.Values, done func()) error {
	m.mu.Lock()
	copied := make(module.Values, len(values))
	for k, v := range values {
		copied[k] = v
	}
	m.record(Call{Method: "SetFieldsValue", Values: copied})
	if m.setErr != nil {
		err := m.setErr
		m.mu.Unlock()
		return err
	}
	for k, v := range values {
		m.values[k] = v
	}
	if m.deferDone {
		if done != nil {
			m.pending = append(m.pending, done)
		}
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	if done != nil {
		done()
	}
	return nil
}

func (m *Module) ResetFields(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "ResetFields", Fields: append([]string(nil), ids...)})
	targets := ids
	if len(targets) == 0 {
		targets = m.fields
	}
	for _, id := range targets {
		delete(m.values, id)
		delete(m.errors, id)
		delete(m.touched, id)
	}
}

func (m *Module) ValidateFields(ctx context.Context, ids []string, _ module.ValidateOptions) (module.ErrorMap, module.Values, error) {
	m.mu.Lock()
	m.record(Call{Method: "ValidateFields", Fields: append([]string(nil), ids...)})
	gate := m.gate
	hook := m.OnValidate
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.validateErr != nil {
		return nil, nil, m.validateErr
	}

	errs := make(module.ErrorMap)
	values := make(module.Values, len(ids))
	for _, id := range ids {
		values[id] = m.values[id]
		delete(m.errors, id)
		if messages := m.failures[id]; len(messages) > 0 {
			errs[id] = append([]string(nil), messages...)
			m.errors[id] = append([]string(nil), messages...)
		}
	}
	if len(errs) == 0 {
		return nil, values, nil
	}
	return errs, values, nil
}

func (m *Module) FieldError(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "FieldError", Fields: []string{id}})
	return append([]string(nil), m.errors[id]...)
}

func (m *Module) FieldsError(ids ...string) module.ErrorMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "FieldsError", Fields: append([]string(nil), ids...)})
	targets := ids
	if len(targets) == 0 {
		targets = m.fields
	}
	out := make(module.ErrorMap)
	for _, id := range targets {
		if messages := m.errors[id]; len(messages) > 0 {
			out[id] = append([]string(nil), messages...)
		}
	}
	return out
}

func (m *Module) ClearErrors(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "ClearErrors", Fields: append([]string(nil), ids...)})
	for _, id := range ids {
		delete(m.errors, id)
	}
}

func (m *Module) IsFieldTouched(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "IsFieldTouched", Fields: []string{id}})
	return m.touched[id]
}

func (m *Module) IsFieldsTouched(ids ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record(Call{Method: "IsFieldsTouched", Fields: append([]string(nil), ids...)})
	targets := ids
	if len(targets) == 0 {
		targets = m.fields
	}
	for _, id := range targets {
		if m.touched[id] {
			return true
		}
	}
	return false
}

func (m *Module) ForceUpdate(done func()) {
	m.mu.Lock()
	m.record(Call{Method: "ForceUpdate"})
	hook := m.OnForceUpdate
	m.mu.Unlock()

	if hook != nil {
		hook()
	}
	if done != nil {
		done()
	}
}

func (m *Module) FieldInstance(id string) (scroll.Element, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.elements[id]
	return el, ok
}

// ErrScripted is a convenience error for FailWith/FailSetWith.
var ErrScripted = errors.New("testsupport: scripted failure")
