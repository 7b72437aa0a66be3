package container

import (
	"context"

	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/params"
)

// Form is the unified form API a Container exposes to application code and
// to the modules it coordinates.
type Form interface {
	FieldValue(id string) (any, error)
	FieldsValue(ids ...string) (module.Values, error)
	SetFieldsValue(values module.Values, done func()) error
	ResetFields(ids ...string) error
	ReRenderModules(codes ...string) error
	ValidateFields(ctx context.Context, req params.Request) (Result, error)
	ValidateFieldsAndScroll(ctx context.Context, req params.Request) (Result, error)
	FieldError(id string) ([]string, error)
	FieldsError(ids ...string) (module.ErrorMap, error)
	IsFieldTouched(id string) (bool, error)
	IsFieldsTouched(ids ...string) (bool, error)
	ClearFieldErrors(id string) error
	ClearFieldsErrors(ids ...string) error
}

var (
	_ Form         = (*Container)(nil)
	_ module.Hooks = (*Container)(nil)
)
