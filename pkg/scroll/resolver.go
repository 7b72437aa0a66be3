package scroll

import "fmt"

// Lookup resolves the rendered element for a field identifier.
type Lookup func(fieldID string) (Element, bool)

// Target describes the field chosen for scrolling.
type Target struct {
	Field   string
	Element Element
	Top     float64
}

// FirstError scans order and returns the first field that has messages in
// errs and a resolvable element. Fields without an element are skipped. The
// scan stops at the first hit; vertical positions of later candidates are
// not compared.
func FirstError(order []string, errs map[string][]string, lookup Lookup) (Target, bool) {
	if len(errs) == 0 || lookup == nil {
		return Target{}, false
	}
	for _, id := range order {
		if len(errs[id]) == 0 {
			continue
		}
		el, ok := lookup(id)
		if !ok || el == nil {
			continue
		}
		return Target{Field: id, Element: el, Top: el.Top()}, true
	}
	return Target{}, false
}

// ToFirstError resolves the first failing field and asks s to scroll it into
// view. It returns the chosen field, or "" when nothing could be targeted.
func ToFirstError(s Scroller, order []string, errs map[string][]string, lookup Lookup, opts Options) (string, error) {
	target, ok := FirstError(order, errs, lookup)
	if !ok {
		return "", nil
	}
	if s == nil {
		return "", ErrNoScroller
	}

	container := opts.Container
	if container == nil {
		container = ScrollableContainer(target.Element)
	}
	if err := s.ScrollIntoView(target.Element, container, opts.Config()); err != nil {
		return "", fmt.Errorf("scroll: field %q: %w", target.Field, err)
	}
	return target.Field, nil
}
