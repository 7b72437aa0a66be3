package formcontainer

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formcontainer/pkg/container"
	"github.com/goliatone/go-formcontainer/pkg/layout"
	"github.com/goliatone/go-formcontainer/pkg/memform"
	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/params"
	"github.com/goliatone/go-formcontainer/pkg/visibility/hclexpr"
)

// Container aliases container.Container so callers can stay on the root
// package for common flows.
type Container = container.Container

// Option configures a Container.
type Option = container.Option

// Handle is the interface every mounted module implements.
type Handle = module.Handle

// Values maps field identifiers to values.
type Values = module.Values

// ErrorMap maps field identifiers to validation messages.
type ErrorMap = module.ErrorMap

// Request describes a bulk validation call.
type Request = params.Request

// Result is the merged outcome of a bulk validation.
type Result = container.Result

// Definition describes a module for the in-memory engine.
type Definition = memform.Definition

// New constructs a Container.
func New(options ...Option) *Container {
	return container.New(options...)
}

// MountDefinitions builds one memform module per definition, wired to c's
// hooks with HCL visibility rules, and mounts it. When any module fails to
// build or mount, the modules mounted so far are unmounted again.
func MountDefinitions(c *Container, defs []Definition, options ...memform.Option) ([]*memform.Module, error) {
	if c == nil {
		return nil, errors.New("formcontainer: container is required")
	}

	base := []memform.Option{
		memform.WithHooks(c.Hooks()),
		memform.WithEvaluator(hclexpr.New()),
	}
	base = append(base, options...)

	mounted := make([]*memform.Module, 0, len(defs))
	rollback := func() {
		for _, m := range mounted {
			c.Unregister(m.Code())
		}
	}
	for _, def := range defs {
		m, err := memform.New(def, base...)
		if err != nil {
			rollback()
			return nil, err
		}
		mount, err := c.Mount(m.Code())
		if err != nil {
			rollback()
			return nil, err
		}
		if err := mount(m); err != nil {
			rollback()
			return nil, fmt.Errorf("formcontainer: mount %s: %w", m.Code(), err)
		}
		mounted = append(mounted, m)
	}
	return mounted, nil
}

// Open loads the layout at path (directory, layout file or OpenAPI document)
// and mounts every module it defines into a new Container.
func Open(ctx context.Context, path string, containerOptions []Option, moduleOptions ...memform.Option) (*Container, []*memform.Module, error) {
	l, err := layout.LoadPath(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if l.Empty() {
		return nil, nil, fmt.Errorf("formcontainer: layout %s defines no modules", path)
	}
	c := New(containerOptions...)
	modules, err := MountDefinitions(c, l.Modules, moduleOptions...)
	if err != nil {
		return nil, nil, err
	}
	return c, modules, nil
}
