package container

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/params"
	"github.com/goliatone/go-formcontainer/pkg/scroll"
)

// Result is the merged outcome of a bulk validation.
type Result struct {
	// Errors is nil when no module reported an error.
	Errors module.ErrorMap
	Values module.Values
	// ScrolledTo names the field brought into view by
	// ValidateFieldsAndScroll, if any.
	ScrolledTo string
}

// HasErrors reports whether any field failed validation.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// ValidateFields validates the requested fields (every indexed field when
// none are named) by calling each owning module concurrently. It waits for
// every module before merging, even when one has already failed. Field
// failures are data in Result.Errors; a returned error means a module could
// not validate at all, in which case the callback is not invoked.
func (c *Container) ValidateFields(ctx context.Context, req params.Request) (Result, error) {
	p := params.Normalize(req)
	result, err := c.validate(ctx, p)
	if err != nil {
		return Result{}, err
	}
	if p.Callback != nil {
		p.Callback(result.Errors, result.Values)
	}
	return result, nil
}

// ValidateFieldsAndScroll behaves like ValidateFields and, when validation
// fails, scrolls the first failing field (in index order) into view before
// the callback runs. A scroll failure is returned alongside the result.
func (c *Container) ValidateFieldsAndScroll(ctx context.Context, req params.Request) (Result, error) {
	p := params.Normalize(req)
	result, err := c.validate(ctx, p)
	if err != nil {
		return Result{}, err
	}

	var scrollErr error
	if result.HasErrors() {
		result.ScrolledTo, scrollErr = c.scrollToFirstError(result.Errors, p.Options.Scroll)
	}
	if p.Callback != nil {
		p.Callback(result.Errors, result.Values)
	}
	return result, scrollErr
}

type outcome struct {
	errors module.ErrorMap
	values module.Values
}

func (c *Container) validate(ctx context.Context, p params.Params) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("container: context is required")
	}
	if err := c.refresh(); err != nil {
		return Result{}, err
	}

	names := p.Names
	if len(names) == 0 {
		names = c.index.Fields()
	}
	targets := c.partition("ValidateFields", names)

	logger := c.logger.With().Str("run", uuid.NewString()).Logger()
	logger.Debug().Int("modules", len(targets)).Int("fields", len(names)).Msg("container: validate")

	outcomes := make([]outcome, len(targets))
	var group errgroup.Group
	for i, target := range targets {
		i, target := i, target
		group.Go(func() error {
			errs, values, err := target.handle.ValidateFields(ctx, target.fields, p.Options)
			if err != nil {
				return moduleErr("validate", target.code, err)
			}
			outcomes[i] = outcome{errors: errs, values: values}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Error().Err(err).Msg("container: validate")
		return Result{}, err
	}

	merged := make(module.ErrorMap)
	values := make(module.Values)
	for _, out := range outcomes {
		merged.Merge(out.errors)
		values.Merge(out.values)
	}

	result := Result{Values: values}
	if len(merged) > 0 {
		result.Errors = merged
	}
	logger.Debug().Int("errors", len(merged)).Msg("container: validate done")
	return result, nil
}

func (c *Container) scrollToFirstError(errs module.ErrorMap, opts scroll.Options) (string, error) {
	if c.scroller == nil {
		c.logger.Debug().Msg("container: no scroller configured, skipping scroll")
		return "", nil
	}
	lookup := func(id string) (scroll.Element, bool) {
		code, ok := c.index.Owner(id)
		if !ok {
			return nil, false
		}
		handle, ok := c.modules.Get(code)
		if !ok {
			return nil, false
		}
		return handle.FieldInstance(id)
	}
	return scroll.ToFirstError(c.scroller, c.index.Fields(), errs, lookup, c.scrollDefaults.Merge(opts))
}
