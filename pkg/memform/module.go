// Package memform provides an in-memory module engine. A Module is built from
// a Definition and implements module.Handle, so it can be mounted into a
// container.Container without any UI: visibility rules decide which fields
// are declared, JSON Schema fragments validate values, and every re-render
// is reported through module.Hooks.
package memform

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/scroll"
	"github.com/goliatone/go-formcontainer/pkg/visibility"
)

// Module is a module.Handle backed by a Definition.
type Module struct {
	mu sync.Mutex

	def       Definition
	schema    *fieldSchema
	state     *state
	visible   []string
	renders   int
	sanitizer *bluemonday.Policy

	hooks     module.Hooks
	evaluator visibility.Evaluator
	extras    map[string]any
	logger    zerolog.Logger

	container scroll.Element
	offset    float64
	rowHeight float64
}

var _ module.Handle = (*Module)(nil)

// New validates def, compiles its schema and performs the first render.
func New(def Definition, options ...Option) (*Module, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	def.Code = strings.TrimSpace(def.Code)

	schema, err := compileSchema(def)
	if err != nil {
		return nil, err
	}

	initial := make(module.Values)
	for _, field := range def.Fields {
		if field.Initial != nil {
			initial[field.Name] = field.Initial
		}
	}

	m := &Module{
		def:       def,
		schema:    schema,
		state:     newState(initial),
		evaluator: visibility.Always,
		logger:    zerolog.Nop(),
		rowHeight: defaultRowHeight,
	}
	if def.Sanitize {
		m.sanitizer = bluemonday.StrictPolicy()
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(m)
	}
	m.logger = m.logger.With().Str("module", def.Code).Logger()

	m.mu.Lock()
	m.render()
	m.mu.Unlock()
	return m, nil
}

// Definition returns the module definition.
func (m *Module) Definition() Definition {
	return m.def
}

// Renders reports how many times the module has rendered.
func (m *Module) Renders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renders
}

// Code returns the module code.
func (m *Module) Code() string {
	return m.def.Code
}

// Fields returns the fields declared by the last render, in definition order.
func (m *Module) Fields() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.visible...)
}

func (m *Module) FieldsValue() module.Values {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(module.Values, len(m.visible))
	for _, id := range m.visible {
		out[id] = deepCopy(m.state.values[id])
	}
	return out
}

func (m *Module) FieldValue(id string) any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return deepCopy(m.state.values[id])
}

// SetFieldsValue writes values without marking them touched, re-renders and
// then reports the new field set through the hooks before calling done.
// Fields the definition does not declare are rejected and nothing is
// written.
func (m *Module) SetFieldsValue(values module.Values, done func()) error {
	m.mu.Lock()
	for id := range values {
		if _, ok := m.def.Field(id); !ok {
			m.mu.Unlock()
			return fmt.Errorf("memform: %s: unknown field %q", m.def.Code, id)
		}
	}
	for id, value := range values {
		m.state.values[id] = m.sanitize(value)
	}
	m.render()
	m.mu.Unlock()

	m.announce(done)
	return nil
}

// Touch records a user edit: the value is stored, the field marked touched
// and the module re-rendered.
func (m *Module) Touch(id string, value any) error {
	m.mu.Lock()
	if _, ok := m.def.Field(id); !ok {
		m.mu.Unlock()
		return fmt.Errorf("memform: %s: unknown field %q", m.def.Code, id)
	}
	m.state.values[id] = m.sanitize(value)
	m.state.touched[id] = true
	m.render()
	m.mu.Unlock()

	m.announce(nil)
	return nil
}

// ResetFields restores initial values and clears errors and touched flags of
// ids, or of every field when ids is empty.
func (m *Module) ResetFields(ids ...string) {
	m.mu.Lock()
	targets := ids
	if len(targets) == 0 {
		targets = make([]string, 0, len(m.def.Fields))
		for _, field := range m.def.Fields {
			targets = append(targets, field.Name)
		}
	}
	for _, id := range targets {
		field, ok := m.def.Field(id)
		if !ok {
			continue
		}
		m.state.reset(id, field.Initial)
	}
	m.render()
	m.mu.Unlock()

	m.announce(nil)
}

// ValidateFields validates ids (every declared field when empty). Hidden and
// unknown fields are skipped. Every call revalidates, so opts.Force has no
// additional effect.
func (m *Module) ValidateFields(ctx context.Context, ids []string, opts module.ValidateOptions) (module.ErrorMap, module.Values, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	targets := m.targets(ids)
	candidates := make(module.Values, len(targets))
	for _, id := range targets {
		if value := m.state.values[id]; !isEmpty(value) {
			candidates[id] = value
		}
	}
	schemaErrs, err := m.schema.check(candidates)
	if err != nil {
		return nil, nil, err
	}

	firstOnly := make(map[string]bool, len(opts.FirstFields))
	for _, id := range opts.FirstFields {
		firstOnly[id] = true
	}

	errs := make(module.ErrorMap)
	values := make(module.Values, len(targets))
	for _, id := range targets {
		field, _ := m.def.Field(id)
		value := m.state.values[id]
		values[id] = deepCopy(value)

		var messages []string
		if field.Required && isEmpty(value) {
			messages = append(messages, field.DisplayLabel()+" is required")
		}
		messages = append(messages, schemaErrs[id]...)
		if len(messages) > 1 && (opts.First || firstOnly[id]) {
			messages = messages[:1]
		}

		m.state.setErrors(id, messages)
		if len(messages) > 0 {
			errs[id] = append([]string(nil), messages...)
		}
	}

	m.logger.Debug().Int("fields", len(targets)).Int("errors", len(errs)).Msg("memform: validated")
	if len(errs) == 0 {
		return nil, values, nil
	}
	return errs, values, nil
}

func (m *Module) targets(ids []string) []string {
	if len(ids) == 0 {
		return append([]string(nil), m.visible...)
	}
	visible := make(map[string]bool, len(m.visible))
	for _, id := range m.visible {
		visible[id] = true
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if visible[id] {
			out = append(out, id)
		}
	}
	return out
}

func (m *Module) FieldError(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	messages := m.state.errors[id]
	if len(messages) == 0 {
		return nil
	}
	return append([]string(nil), messages...)
}

func (m *Module) FieldsError(ids ...string) module.ErrorMap {
	m.mu.Lock()
	defer m.mu.Unlock()
	targets := ids
	if len(targets) == 0 {
		targets = m.visible
	}
	out := make(module.ErrorMap)
	for _, id := range targets {
		if messages := m.state.errors[id]; len(messages) > 0 {
			out[id] = append([]string(nil), messages...)
		}
	}
	return out
}

// ClearErrors drops the messages of ids, or of every field when ids is empty.
func (m *Module) ClearErrors(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ids) == 0 {
		m.state.errors = make(module.ErrorMap)
		return
	}
	for _, id := range ids {
		delete(m.state.errors, id)
	}
}

func (m *Module) IsFieldTouched(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.touched[id]
}

func (m *Module) IsFieldsTouched(ids ...string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(ids) == 0 {
		return len(m.state.touched) > 0
	}
	for _, id := range ids {
		if m.state.touched[id] {
			return true
		}
	}
	return false
}

// ForceUpdate re-renders the module, reports the field set through the
// hooks and then calls done.
func (m *Module) ForceUpdate(done func()) {
	m.mu.Lock()
	m.render()
	m.mu.Unlock()

	m.announce(done)
}

// FieldInstance returns the element rendered for a visible field.
func (m *Module) FieldInstance(id string) (scroll.Element, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for row, name := range m.visible {
		if name == id {
			return &fieldElement{
				top:    m.offset + float64(row)*m.rowHeight,
				parent: m.container,
			}, true
		}
	}
	return nil, false
}

// render recomputes the declared field set. Callers hold the lock.
func (m *Module) render() {
	values := make(module.Values, len(m.def.Fields))
	for _, field := range m.def.Fields {
		values[field.Name] = deepCopy(m.state.values[field.Name])
	}
	ctx := visibility.Context{Values: values, Extras: m.extras}
	visible := make([]string, 0, len(m.def.Fields))
	for _, field := range m.def.Fields {
		if field.VisibleIf == "" {
			visible = append(visible, field.Name)
			continue
		}
		ok, err := m.evaluator.Eval(field.Name, field.VisibleIf, ctx)
		if err != nil {
			m.logger.Warn().Err(err).Str("field", field.Name).Msg("memform: visibility rule failed, showing field")
			ok = true
		}
		if ok {
			visible = append(visible, field.Name)
		}
	}
	m.visible = visible
	m.renders++
}

// announce runs outside the lock: the container calls back into the module
// while rebuilding its index.
func (m *Module) announce(done func()) {
	if m.hooks != nil {
		if err := m.hooks.UpdateModuleFields(); err != nil {
			m.logger.Error().Err(err).Msg("memform: update module fields")
		}
	}
	if done != nil {
		done()
	}
}

func (m *Module) sanitize(value any) any {
	s, ok := value.(string)
	if !ok || m.sanitizer == nil {
		return deepCopy(value)
	}
	return html.UnescapeString(strings.TrimSpace(m.sanitizer.Sanitize(s)))
}

type fieldElement struct {
	top    float64
	parent scroll.Element
}

func (e *fieldElement) Top() float64 { return e.top }

func (e *fieldElement) Parent() scroll.Element { return e.parent }

func (e *fieldElement) Scrollable() bool { return false }
