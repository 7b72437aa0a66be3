package visibility

// Evaluator decides whether a field is shown, given its rule and the current
// form state.
type Evaluator interface {
	Eval(field, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the current values of
// the module's fields while Extras carries caller supplied data such as user
// roles or feature flags.
type Context struct {
	Values map[string]any
	Extras map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(field, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(field, rule string, ctx Context) (bool, error) {
	return fn(field, rule, ctx)
}

// Always is an Evaluator that shows every field.
var Always Evaluator = EvaluatorFunc(func(string, string, Context) (bool, error) {
	return true, nil
})
