package memform

import (
	"github.com/rs/zerolog"

	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/scroll"
	"github.com/goliatone/go-formcontainer/pkg/visibility"
)

const defaultRowHeight = 48

// Option customises a Module.
type Option func(*Module)

// WithHooks connects the module to its container so re-renders refresh the
// container's field index.
func WithHooks(hooks module.Hooks) Option {
	return func(m *Module) {
		m.hooks = hooks
	}
}

// WithEvaluator sets the evaluator used for VisibleIf rules. Without one,
// every field is visible.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(m *Module) {
		if evaluator != nil {
			m.evaluator = evaluator
		}
	}
}

// WithExtras provides extra context (roles, flags) to visibility rules.
func WithExtras(extras map[string]any) Option {
	return func(m *Module) {
		m.extras = extras
	}
}

// WithLogger injects a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Module) {
		m.logger = logger
	}
}

// WithLayout places the module's field elements: the first row starts at
// offset inside container and each row is rowHeight tall.
func WithLayout(container scroll.Element, offset, rowHeight float64) Option {
	return func(m *Module) {
		m.container = container
		m.offset = offset
		if rowHeight > 0 {
			m.rowHeight = rowHeight
		}
	}
}
