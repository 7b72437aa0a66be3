package scroll

import "errors"

// Element is the minimal view of a rendered field the scroll resolver needs:
// its vertical offset and its ancestor chain.
type Element interface {
	// Top reports the element's bounding-box top offset.
	Top() float64
	// Parent returns the enclosing element, or nil at the root.
	Parent() Element
	// Scrollable reports whether the element scrolls its own content.
	Scrollable() bool
}

// Config is handed to the Scroller for a single scroll request.
type Config struct {
	AlignWithTop          bool
	OnlyScrollIfNeeded    bool
	AllowHorizontalScroll bool
	OffsetTop             float64
	OffsetBottom          float64
	OffsetLeft            float64
	OffsetRight           float64
}

// Scroller brings target into view inside container.
type Scroller interface {
	ScrollIntoView(target, container Element, cfg Config) error
}

// ScrollerFunc adapts a function into a Scroller.
type ScrollerFunc func(target, container Element, cfg Config) error

// ScrollIntoView delegates to the underlying function.
func (fn ScrollerFunc) ScrollIntoView(target, container Element, cfg Config) error {
	return fn(target, container, cfg)
}

// ErrNoScroller is returned when a scroll is requested without a Scroller.
var ErrNoScroller = errors.New("scroll: scroller is not configured")

// Options carries caller overrides layered on top of the default Config.
// Nil pointers keep the defaults (align with top, always scroll).
type Options struct {
	// Container overrides the scrollable ancestor discovered from the target.
	Container             Element
	AlignWithTop          *bool
	OnlyScrollIfNeeded    *bool
	AllowHorizontalScroll *bool
	OffsetTop             *float64
	OffsetBottom          *float64
	OffsetLeft            *float64
	OffsetRight           *float64
}

// Config resolves the options into a Config.
func (o Options) Config() Config {
	cfg := Config{AlignWithTop: true}
	if o.AlignWithTop != nil {
		cfg.AlignWithTop = *o.AlignWithTop
	}
	if o.OnlyScrollIfNeeded != nil {
		cfg.OnlyScrollIfNeeded = *o.OnlyScrollIfNeeded
	}
	if o.AllowHorizontalScroll != nil {
		cfg.AllowHorizontalScroll = *o.AllowHorizontalScroll
	}
	if o.OffsetTop != nil {
		cfg.OffsetTop = *o.OffsetTop
	}
	if o.OffsetBottom != nil {
		cfg.OffsetBottom = *o.OffsetBottom
	}
	if o.OffsetLeft != nil {
		cfg.OffsetLeft = *o.OffsetLeft
	}
	if o.OffsetRight != nil {
		cfg.OffsetRight = *o.OffsetRight
	}
	return cfg
}

// Merge returns o with every field set in override taking precedence.
func (o Options) Merge(override Options) Options {
	out := o
	if override.Container != nil {
		out.Container = override.Container
	}
	if override.AlignWithTop != nil {
		out.AlignWithTop = override.AlignWithTop
	}
	if override.OnlyScrollIfNeeded != nil {
		out.OnlyScrollIfNeeded = override.OnlyScrollIfNeeded
	}
	if override.AllowHorizontalScroll != nil {
		out.AllowHorizontalScroll = override.AllowHorizontalScroll
	}
	if override.OffsetTop != nil {
		out.OffsetTop = override.OffsetTop
	}
	if override.OffsetBottom != nil {
		out.OffsetBottom = override.OffsetBottom
	}
	if override.OffsetLeft != nil {
		out.OffsetLeft = override.OffsetLeft
	}
	if override.OffsetRight != nil {
		out.OffsetRight = override.OffsetRight
	}
	return out
}

// Bool returns a pointer to v, for filling Options literals.
func Bool(v bool) *bool { return &v }

// Float returns a pointer to v, for filling Options literals.
func Float(v float64) *float64 { return &v }

// ScrollableContainer walks up from el and returns the nearest ancestor that
// scrolls. The element itself is never returned. When no ancestor scrolls the
// root of the chain is used, mirroring a document-level scroll.
func ScrollableContainer(el Element) Element {
	if el == nil {
		return nil
	}
	var root Element
	for node := el.Parent(); node != nil; node = node.Parent() {
		if node.Scrollable() {
			return node
		}
		root = node
	}
	return root
}
