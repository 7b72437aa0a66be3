package registry

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateModule matches *DuplicateModuleError.
	ErrDuplicateModule = errors.New("registry: duplicate module code")
	// ErrDuplicateField matches *DuplicateFieldError.
	ErrDuplicateField = errors.New("registry: duplicate field")
	// ErrUnknownModule matches *UnknownModuleError.
	ErrUnknownModule = errors.New("registry: unknown module")
	// ErrMissingCode matches *MissingCodeError.
	ErrMissingCode = errors.New("registry: module code is required")
)

// DuplicateModuleError reports a second registration under an existing code.
type DuplicateModuleError struct {
	Code string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("registry: duplicate form code %q", e.Code)
}

func (e *DuplicateModuleError) Is(target error) bool { return target == ErrDuplicateModule }

// DuplicateFieldError reports a field identifier declared by two modules.
type DuplicateFieldError struct {
	Field    string
	Existing string
	Module   string
}

func (e *DuplicateFieldError) Error() string {
	return fmt.Sprintf("registry: field %q already exists in module %q, declared again by module %q", e.Field, e.Existing, e.Module)
}

func (e *DuplicateFieldError) Is(target error) bool { return target == ErrDuplicateField }

// UnknownModuleError reports an operation addressed to an unregistered code.
type UnknownModuleError struct {
	Code string
}

func (e *UnknownModuleError) Error() string {
	return fmt.Sprintf("registry: module %q doesn't exist", e.Code)
}

func (e *UnknownModuleError) Is(target error) bool { return target == ErrUnknownModule }

// MissingCodeError reports a module announced without a code.
type MissingCodeError struct {
	// Component optionally names what tried to register.
	Component string
}

func (e *MissingCodeError) Error() string {
	if e.Component == "" {
		return "registry: module must set a code"
	}
	return fmt.Sprintf("registry: module %s must set a code", e.Component)
}

func (e *MissingCodeError) Is(target error) bool { return target == ErrMissingCode }
