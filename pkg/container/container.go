package container

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/registry"
	"github.com/goliatone/go-formcontainer/pkg/scroll"
)

// Option customises the container configuration.
type Option func(*Container)

// WithAutoUpdate controls whether the field index is rebuilt from every
// module's declared fields before each operation. Enabled by default.
func WithAutoUpdate(enabled bool) Option {
	return func(c *Container) {
		c.autoUpdate = enabled
	}
}

// WithLogger injects the logger used for lookup-miss warnings and lifecycle
// events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithScroller injects the scroll utility used by ValidateFieldsAndScroll.
func WithScroller(scroller scroll.Scroller) Option {
	return func(c *Container) {
		c.scroller = scroller
	}
}

// WithScrollDefaults sets scroll options applied beneath per-request
// overrides.
func WithScrollDefaults(opts scroll.Options) Option {
	return func(c *Container) {
		c.scrollDefaults = opts
	}
}

// WithModules injects a module registry, mostly useful for sharing one
// between containers in tests.
func WithModules(modules *registry.Modules) Option {
	return func(c *Container) {
		if modules != nil {
			c.modules = modules
		}
	}
}

// Container presents several mounted modules as one logical form. It keeps a
// registry of module handles and a field → module index, and routes every
// operation to the owning modules.
type Container struct {
	autoUpdate     bool
	logger         zerolog.Logger
	scroller       scroll.Scroller
	scrollDefaults scroll.Options
	modules        *registry.Modules
	index          *registry.FieldIndex
}

// New constructs a Container applying any provided options.
func New(options ...Option) *Container {
	c := &Container{
		autoUpdate: true,
		logger:     zerolog.Nop(),
		modules:    registry.NewModules(),
		index:      registry.NewFieldIndex(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// AutoUpdate reports whether the index is refreshed before each operation.
func (c *Container) AutoUpdate() bool {
	return c.autoUpdate
}

// Mount returns the registration callback for the module identified by code.
// Calling it with a live handle registers the module; calling it with nil
// unregisters it.
func (c *Container) Mount(code string) (func(module.Handle) error, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, &registry.MissingCodeError{}
	}
	return func(handle module.Handle) error {
		if handle == nil {
			c.Unregister(code)
			return nil
		}
		return c.register(code, handle)
	}, nil
}

// Register adds handle under its own code and indexes its declared fields.
func (c *Container) Register(handle module.Handle) error {
	if handle == nil {
		return errors.New("container: module handle is required")
	}
	return c.register(handle.Code(), handle)
}

func (c *Container) register(code string, handle module.Handle) error {
	if err := c.modules.Register(code, handle); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if err := c.index.RegisterModule(code, handle.Fields()); err != nil {
		c.modules.Unregister(code)
		return err
	}
	c.logger.Debug().Str("module", code).Int("fields", len(c.index.FieldsOf(code))).Msg("container: module registered")
	return nil
}

// Unregister removes the module and every index entry it owned. It reports
// whether the module was registered.
func (c *Container) Unregister(code string) bool {
	if !c.modules.Unregister(code) {
		return false
	}
	removed := c.index.Purge(code)
	c.logger.Debug().Str("module", strings.TrimSpace(code)).Int("fields", removed).Msg("container: module unregistered")
	return true
}

// UpdateModuleFields rebuilds the field index from every registered module.
// The rebuild is atomic and idempotent, so modules may call it re-entrantly
// after they re-render.
func (c *Container) UpdateModuleFields() error {
	entries := c.modules.Snapshot()
	declared := make([]registry.ModuleFields, 0, len(entries))
	for _, entry := range entries {
		declared = append(declared, registry.ModuleFields{Code: entry.Code, Fields: entry.Handle.Fields()})
	}
	if err := c.index.Rebuild(declared); err != nil {
		c.logger.Error().Err(err).Msg("container: update module fields")
		return err
	}
	return nil
}

// Hooks returns the narrow interface modules use to report re-renders.
func (c *Container) Hooks() module.Hooks {
	return c
}

// Modules returns the registered module codes in registration order.
func (c *Container) Modules() []string {
	return c.modules.Codes()
}

// Module returns the handle registered under code.
func (c *Container) Module(code string) (module.Handle, bool) {
	return c.modules.Get(code)
}

// Fields returns every indexed field identifier in iteration order.
func (c *Container) Fields() []string {
	return c.index.Fields()
}

// Owner returns the code of the module owning id.
func (c *Container) Owner(id string) (string, bool) {
	return c.index.Owner(id)
}

func (c *Container) refresh() error {
	if !c.autoUpdate {
		return nil
	}
	return c.UpdateModuleFields()
}

// resolve finds the owning handle of id, warning when it is unknown.
func (c *Container) resolve(op, id string) (string, module.Handle, bool) {
	code, ok := c.index.Owner(id)
	if !ok {
		c.warnUnknown(op, id)
		return "", nil, false
	}
	handle, ok := c.modules.Get(code)
	if !ok {
		c.logger.Warn().Str("op", op).Str("field", id).Str("module", code).Msg("container: owning module is not mounted")
		return code, nil, false
	}
	return code, handle, true
}

type routed struct {
	code   string
	handle module.Handle
	fields []string
}

// partition groups ids by owning module, logging and dropping unknown ids.
func (c *Container) partition(op string, ids []string) []routed {
	part := c.index.Partition(ids)
	for _, id := range part.Unknown {
		c.warnUnknown(op, id)
	}
	out := make([]routed, 0, len(part.Groups))
	for _, group := range part.Groups {
		handle, ok := c.modules.Get(group.Code)
		if !ok {
			continue
		}
		out = append(out, routed{code: group.Code, handle: handle, fields: group.Fields})
	}
	return out
}

func (c *Container) warnUnknown(op, id string) {
	event := c.logger.Warn().Str("op", op).Str("field", id)
	if suggestion, ok := c.index.Suggest(id); ok {
		event = event.Str("suggestion", suggestion)
	}
	event.Msg("container: field doesn't exist")
}

func moduleErr(op, code string, err error) error {
	return fmt.Errorf("container: %s on module %q: %w", op, code, err)
}
