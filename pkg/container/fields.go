package container

import (
	"errors"
	"sort"
	"sync/atomic"

	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/params"
	"github.com/goliatone/go-formcontainer/pkg/registry"
)

// FieldsValue returns field values across modules. Without ids it merges every
// module's full value map; with ids every requested key is present, unknown
// ones mapping to nil.
func (c *Container) FieldsValue(ids ...string) (module.Values, error) {
	if err := c.refresh(); err != nil {
		return nil, err
	}

	names := params.Names(ids)
	if len(names) == 0 {
		out := make(module.Values)
		for _, entry := range c.modules.Snapshot() {
			out.Merge(entry.Handle.FieldsValue())
		}
		return out, nil
	}

	out := make(module.Values, len(names))
	for _, id := range names {
		out[id] = c.fieldValue("FieldsValue", id)
	}
	return out, nil
}

// FieldValue returns the value of id from its owning module, or nil when the
// field is not registered.
func (c *Container) FieldValue(id string) (any, error) {
	if err := c.refresh(); err != nil {
		return nil, err
	}
	return c.fieldValue("FieldValue", id), nil
}

func (c *Container) fieldValue(op, id string) any {
	_, handle, ok := c.resolve(op, id)
	if !ok {
		return nil
	}
	return handle.FieldValue(id)
}

// SetFieldsValue routes each key of values to its owning module, one
// SetFieldsValue call per module. done fires once after every module has
// completed; unknown keys are dropped with a warning.
func (c *Container) SetFieldsValue(values module.Values, done func()) error {
	if err := c.refresh(); err != nil {
		return err
	}

	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	targets := c.partition("SetFieldsValue", keys)
	if len(targets) == 0 {
		if done != nil {
			done()
		}
		return nil
	}

	complete := settleAll(len(targets), done)
	var errs []error
	for _, target := range targets {
		subset := make(module.Values, len(target.fields))
		for _, id := range target.fields {
			subset[id] = values[id]
		}
		if err := target.handle.SetFieldsValue(subset, complete); err != nil {
			errs = append(errs, moduleErr("set fields value", target.code, err))
			complete()
		}
	}
	return errors.Join(errs...)
}

// settleAll returns a completion that invokes done once it has been called n
// times.
func settleAll(n int, done func()) func() {
	var remaining atomic.Int64
	remaining.Store(int64(n))
	return func() {
		if remaining.Add(-1) == 0 && done != nil {
			done()
		}
	}
}

// ResetFields resets every module when ids is empty, otherwise only the owning
// modules of ids. The index is rebuilt afterwards since a reset can change
// which fields a module declares.
func (c *Container) ResetFields(ids ...string) error {
	names := params.Names(ids)
	if len(names) == 0 {
		for _, entry := range c.modules.Snapshot() {
			entry.Handle.ResetFields()
		}
		return c.UpdateModuleFields()
	}

	if err := c.refresh(); err != nil {
		return err
	}
	for _, target := range c.partition("ResetFields", names) {
		target.handle.ResetFields(target.fields...)
	}
	return c.UpdateModuleFields()
}

// ReRenderModules forces the named modules, or every module when codes is
// empty, to re-render. Each re-render completes by refreshing the field
// index. Unknown codes fail before any module is touched.
func (c *Container) ReRenderModules(codes ...string) error {
	targets := params.Names(codes)
	if len(targets) == 0 {
		targets = c.modules.Codes()
	}

	handles := make([]registry.Entry, 0, len(targets))
	for _, code := range targets {
		handle, ok := c.modules.Get(code)
		if !ok {
			return &registry.UnknownModuleError{Code: code}
		}
		handles = append(handles, registry.Entry{Code: code, Handle: handle})
	}

	for _, entry := range handles {
		entry.Handle.ForceUpdate(c.afterRender(entry.Code))
	}
	return nil
}

func (c *Container) afterRender(code string) func() {
	return func() {
		if err := c.UpdateModuleFields(); err != nil {
			c.logger.Error().Err(err).Str("module", code).Msg("container: refresh after re-render")
		}
	}
}

// FieldError returns the messages of id, or nil when it is not registered.
func (c *Container) FieldError(id string) ([]string, error) {
	if err := c.refresh(); err != nil {
		return nil, err
	}
	_, handle, ok := c.resolve("FieldError", id)
	if !ok {
		return nil, nil
	}
	return handle.FieldError(id), nil
}

// FieldsError merges error maps. Without ids every module reports its full
// map; otherwise ids are routed to their owners and unknown ones dropped.
func (c *Container) FieldsError(ids ...string) (module.ErrorMap, error) {
	if err := c.refresh(); err != nil {
		return nil, err
	}

	out := make(module.ErrorMap)
	names := params.Names(ids)
	if len(names) == 0 {
		for _, entry := range c.modules.Snapshot() {
			out.Merge(entry.Handle.FieldsError())
		}
		return out, nil
	}

	for _, target := range c.partition("FieldsError", names) {
		out.Merge(target.handle.FieldsError(target.fields...))
	}
	return out, nil
}

// IsFieldTouched reports whether id was touched; unknown ids report false.
func (c *Container) IsFieldTouched(id string) (bool, error) {
	if err := c.refresh(); err != nil {
		return false, err
	}
	_, handle, ok := c.resolve("IsFieldTouched", id)
	if !ok {
		return false, nil
	}
	return handle.IsFieldTouched(id), nil
}

// IsFieldsTouched reports whether any module has a touched field. With ids,
// each owning module is asked about its subset.
func (c *Container) IsFieldsTouched(ids ...string) (bool, error) {
	if err := c.refresh(); err != nil {
		return false, err
	}

	names := params.Names(ids)
	if len(names) == 0 {
		for _, entry := range c.modules.Snapshot() {
			if entry.Handle.IsFieldsTouched() {
				return true, nil
			}
		}
		return false, nil
	}

	for _, target := range c.partition("IsFieldsTouched", names) {
		if target.handle.IsFieldsTouched(target.fields...) {
			return true, nil
		}
	}
	return false, nil
}

// ClearFieldErrors clears the messages of id in its owning module and
// re-renders that module.
func (c *Container) ClearFieldErrors(id string) error {
	if err := c.refresh(); err != nil {
		return err
	}
	code, handle, ok := c.resolve("ClearFieldErrors", id)
	if !ok {
		return nil
	}
	handle.ClearErrors(id)
	return c.ReRenderModules(code)
}

// ClearFieldsErrors clears the messages of ids (every indexed field when
// empty) and re-renders each affected module once.
func (c *Container) ClearFieldsErrors(ids ...string) error {
	if err := c.refresh(); err != nil {
		return err
	}

	names := params.Names(ids)
	if len(names) == 0 {
		names = c.index.Fields()
	}
	for _, target := range c.partition("ClearFieldsErrors", names) {
		target.handle.ClearErrors(target.fields...)
		if err := c.ReRenderModules(target.code); err != nil {
			return err
		}
	}
	return nil
}
