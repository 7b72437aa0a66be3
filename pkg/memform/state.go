package memform

import (
	"github.com/goliatone/go-formcontainer/pkg/module"
)

// state tracks values, validation messages and touched flags keyed by field
// name. Callers hold the module lock.
type state struct {
	values  module.Values
	errors  module.ErrorMap
	touched map[string]bool
}

func newState(initial module.Values) *state {
	return &state{
		values:  cloneValues(initial),
		errors:  make(module.ErrorMap),
		touched: make(map[string]bool),
	}
}

func (s *state) reset(id string, initial any) {
	if initial == nil {
		delete(s.values, id)
	} else {
		s.values[id] = deepCopy(initial)
	}
	delete(s.errors, id)
	delete(s.touched, id)
}

func (s *state) setErrors(id string, messages []string) {
	if len(messages) == 0 {
		delete(s.errors, id)
		return
	}
	s.errors[id] = append([]string(nil), messages...)
}

func cloneValues(src module.Values) module.Values {
	out := make(module.Values, len(src))
	for k, v := range src {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}

func isEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []any:
		return len(typed) == 0
	case []string:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	}
	return false
}
