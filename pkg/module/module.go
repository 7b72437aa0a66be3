// Package module defines the contract between the form container and the
// independently rendered form modules it coordinates.
package module

import (
	"context"
	"strings"

	"github.com/goliatone/go-formcontainer/pkg/scroll"
)

// Values maps field identifiers to field values.
type Values map[string]any

// Merge copies every entry of other into v, overwriting on collision.
func (v Values) Merge(other Values) Values {
	for key, value := range other {
		v[key] = value
	}
	return v
}

// ErrorMap maps field identifiers to validation messages.
type ErrorMap map[string][]string

// Merge copies every non-empty entry of other into e, overwriting on
// collision.
func (e ErrorMap) Merge(other ErrorMap) ErrorMap {
	for key, messages := range other {
		if len(messages) == 0 {
			continue
		}
		e[key] = append([]string(nil), messages...)
	}
	return e
}

// Fields returns the identifiers that carry at least one message.
func (e ErrorMap) Fields() []string {
	out := make([]string, 0, len(e))
	for key, messages := range e {
		if len(messages) > 0 {
			out = append(out, key)
		}
	}
	return out
}

// ValidateOptions are forwarded untouched to every owning module.
type ValidateOptions struct {
	// First stops reporting after the first failing field.
	First bool
	// FirstFields keeps only the first message for the listed fields.
	FirstFields []string
	// Force revalidates fields that were already validated.
	Force bool
	// Scroll configures ValidateFieldsAndScroll; modules ignore it.
	Scroll scroll.Options
}

// Handle is a mounted form module. Implementations own their own field
// storage and validation; the container only routes calls.
//
// SetFieldsValue and ForceUpdate must invoke done exactly once when they
// return a nil error (ForceUpdate always). Handles must not call back into the
// container while holding their own locks.
type Handle interface {
	Code() string
	// Fields lists the currently declared field identifiers in display order.
	Fields() []string

	FieldsValue() Values
	FieldValue(id string) any
	SetFieldsValue(values Values, done func()) error
	ResetFields(ids ...string)

	ValidateFields(ctx context.Context, ids []string, opts ValidateOptions) (ErrorMap, Values, error)
	FieldError(id string) []string
	FieldsError(ids ...string) ErrorMap
	ClearErrors(ids ...string)

	IsFieldTouched(id string) bool
	IsFieldsTouched(ids ...string) bool

	ForceUpdate(done func())
	FieldInstance(id string) (scroll.Element, bool)
}

// Hooks is the narrow surface a module receives at construction so it can
// tell the container its declared fields may have changed.
type Hooks interface {
	UpdateModuleFields() error
}

// NormalizeMessages trims messages, drops blanks and duplicates, and keeps
// the original order. It returns nil when nothing remains.
func NormalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
