package memform_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcontainer/pkg/container"
	"github.com/goliatone/go-formcontainer/pkg/memform"
	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/params"
	"github.com/goliatone/go-formcontainer/pkg/testsupport"
	"github.com/goliatone/go-formcontainer/pkg/visibility"
	"github.com/goliatone/go-formcontainer/pkg/visibility/hclexpr"
)

func profileDefinition() memform.Definition {
	return memform.Definition{
		Code:  "profile",
		Title: "Profile",
		Fields: []memform.FieldDefinition{
			{Name: "name", Label: "Name", Required: true},
			{Name: "age", Schema: map[string]any{"type": "integer", "minimum": 18}},
			{Name: "code", Schema: map[string]any{"type": "string", "minLength": 5, "pattern": "^[0-9]+$"}},
			{Name: "country", Initial: "NZ"},
		},
	}
}

func newsletterDefinition() memform.Definition {
	return memform.Definition{
		Code: "newsletter",
		Fields: []memform.FieldDefinition{
			{Name: "subscribe"},
			{Name: "email", Label: "Email", Required: true, VisibleIf: "subscribe"},
		},
	}
}

func mustModule(t *testing.T, def memform.Definition, options ...memform.Option) *memform.Module {
	t.Helper()
	m, err := memform.New(def, options...)
	if err != nil {
		t.Fatalf("memform.New: %v", err)
	}
	return m
}

func TestNew_RejectsInvalidDefinitions(t *testing.T) {
	cases := []memform.Definition{
		{Code: " ", Fields: []memform.FieldDefinition{{Name: "a"}}},
		{Code: "x", Fields: []memform.FieldDefinition{{Name: ""}}},
		{Code: "x", Fields: []memform.FieldDefinition{{Name: "a"}, {Name: "a"}}},
		{Code: "x", Fields: []memform.FieldDefinition{{Name: "a", Schema: map[string]any{"type": 12}}}},
	}
	for i, def := range cases {
		if _, err := memform.New(def); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}
}

func TestValidateFields_RequiredAndSchema(t *testing.T) {
	m := mustModule(t, profileDefinition())
	if err := m.SetFieldsValue(module.Values{"age": 12}, nil); err != nil {
		t.Fatalf("set fields value: %v", err)
	}

	errs, values, err := m.ValidateFields(context.Background(), nil, module.ValidateOptions{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff([]string{"Name is required"}, errs["name"]); diff != "" {
		t.Fatalf("name errors mismatch (-want +got):\n%s", diff)
	}
	if len(errs["age"]) != 1 {
		t.Fatalf("expected one age error, got %v", errs["age"])
	}
	if _, ok := errs["code"]; ok {
		t.Fatalf("empty optional field must not be schema checked")
	}
	if values["country"] != "NZ" {
		t.Fatalf("expected initial value, got %v", values["country"])
	}
	if diff := cmp.Diff(errs, m.FieldsError()); diff != "" {
		t.Fatalf("stored errors mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFields_CleanReturnsNilErrors(t *testing.T) {
	m := mustModule(t, profileDefinition())
	if err := m.SetFieldsValue(module.Values{"name": "Ada", "age": 36, "code": "12345"}, nil); err != nil {
		t.Fatalf("set fields value: %v", err)
	}
	errs, _, err := m.ValidateFields(context.Background(), nil, module.ValidateOptions{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if errs != nil {
		t.Fatalf("expected nil errors, got %v", errs)
	}
}

func TestValidateFields_FirstOptions(t *testing.T) {
	m := mustModule(t, profileDefinition())
	if err := m.SetFieldsValue(module.Values{"code": "ab"}, nil); err != nil {
		t.Fatalf("set fields value: %v", err)
	}

	ctx := context.Background()
	errs, _, err := m.ValidateFields(ctx, []string{"code"}, module.ValidateOptions{})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(errs["code"]) != 2 {
		t.Fatalf("expected two code errors, got %v", errs["code"])
	}

	errs, _, _ = m.ValidateFields(ctx, []string{"code"}, module.ValidateOptions{First: true})
	if len(errs["code"]) != 1 {
		t.Fatalf("First should keep one message, got %v", errs["code"])
	}

	errs, _, _ = m.ValidateFields(ctx, []string{"code"}, module.ValidateOptions{FirstFields: []string{"code"}})
	if len(errs["code"]) != 1 {
		t.Fatalf("FirstFields should keep one message, got %v", errs["code"])
	}
}

func TestValidateFields_CancelledContext(t *testing.T) {
	m := mustModule(t, profileDefinition())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := m.ValidateFields(ctx, nil, module.ValidateOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSetFieldsValue_UnknownField(t *testing.T) {
	m := mustModule(t, profileDefinition())
	called := false
	if err := m.SetFieldsValue(module.Values{"ghost": 1, "name": "x"}, func() { called = true }); err == nil {
		t.Fatalf("expected unknown field error")
	}
	if called || m.FieldValue("name") != nil {
		t.Fatalf("rejected write must not apply or complete")
	}
}

func TestTouchResetAndClear(t *testing.T) {
	m := mustModule(t, profileDefinition())

	if m.IsFieldsTouched() {
		t.Fatalf("fresh module is untouched")
	}
	if err := m.Touch("country", "AU"); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if !m.IsFieldTouched("country") || !m.IsFieldsTouched("name", "country") {
		t.Fatalf("country should be touched")
	}
	if m.IsFieldsTouched("name") {
		t.Fatalf("name should not be touched")
	}

	if _, _, err := m.ValidateFields(context.Background(), nil, module.ValidateOptions{}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(m.FieldError("name")) == 0 {
		t.Fatalf("expected stored name error")
	}
	m.ClearErrors("name")
	if m.FieldError("name") != nil {
		t.Fatalf("name error not cleared")
	}

	m.ResetFields("country")
	if m.FieldValue("country") != "NZ" || m.IsFieldTouched("country") {
		t.Fatalf("reset should restore initial value and touched flag")
	}
}

func TestSanitize(t *testing.T) {
	def := profileDefinition()
	def.Sanitize = true
	m := mustModule(t, def)

	if err := m.SetFieldsValue(module.Values{"name": "<b>Bob</b> & co<script>x()</script>", "age": 20}, nil); err != nil {
		t.Fatalf("set fields value: %v", err)
	}
	if got := m.FieldValue("name"); got != "Bob & co" {
		t.Fatalf("sanitized name = %q", got)
	}
	if got := m.FieldValue("age"); got != 20 {
		t.Fatalf("non-string values pass through, got %v", got)
	}
}

func TestVisibility_FollowsValues(t *testing.T) {
	m := mustModule(t, newsletterDefinition(), memform.WithEvaluator(hclexpr.New()))

	if diff := cmp.Diff([]string{"subscribe"}, m.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if err := m.SetFieldsValue(module.Values{"subscribe": true}, nil); err != nil {
		t.Fatalf("set fields value: %v", err)
	}
	if diff := cmp.Diff([]string{"subscribe", "email"}, m.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if _, ok := m.FieldInstance("email"); !ok {
		t.Fatalf("visible field should have an element")
	}
}

func TestVisibility_RuleErrorShowsField(t *testing.T) {
	logs := &testsupport.LogBuffer{}
	failing := visibility.EvaluatorFunc(func(string, string, visibility.Context) (bool, error) {
		return false, errors.New("boom")
	})
	m := mustModule(t, newsletterDefinition(), memform.WithEvaluator(failing), memform.WithLogger(logs.Logger()))

	if diff := cmp.Diff([]string{"subscribe", "email"}, m.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
	if len(logs.Warnings(t, "email")) == 0 {
		t.Fatalf("expected a warning for the failing rule")
	}
}

func TestFieldInstance_Layout(t *testing.T) {
	root := &testsupport.Element{Name: "root", Scrolls: true}
	m := mustModule(t, profileDefinition(), memform.WithLayout(root, 100, 10))

	el, ok := m.FieldInstance("code")
	if !ok {
		t.Fatalf("expected element for code")
	}
	if el.Top() != 120 {
		t.Fatalf("Top() = %v, want 120", el.Top())
	}
	if el.Parent() != root || el.Scrollable() {
		t.Fatalf("unexpected element ancestry")
	}
	if _, ok := m.FieldInstance("ghost"); ok {
		t.Fatalf("unknown field has no element")
	}
}

func TestContainerIntegration(t *testing.T) {
	scroller := &testsupport.Scroller{}
	c := container.New(container.WithScroller(scroller))
	root := &testsupport.Element{Name: "root", Scrolls: true}

	profile := mustModule(t, profileDefinition(), memform.WithHooks(c.Hooks()), memform.WithLayout(root, 0, 40))
	news := mustModule(t, newsletterDefinition(),
		memform.WithHooks(c.Hooks()),
		memform.WithEvaluator(hclexpr.New()),
		memform.WithLayout(root, 200, 40),
	)
	for _, m := range []*memform.Module{profile, news} {
		if err := c.Register(m); err != nil {
			t.Fatalf("register %s: %v", m.Code(), err)
		}
	}

	if diff := cmp.Diff([]string{"name", "age", "code", "country", "subscribe"}, c.Fields()); diff != "" {
		t.Fatalf("index mismatch (-want +got):\n%s", diff)
	}

	done := 0
	if err := c.SetFieldsValue(module.Values{"subscribe": true, "name": "Ada"}, func() { done++ }); err != nil {
		t.Fatalf("set fields value: %v", err)
	}
	if done != 1 {
		t.Fatalf("completion fired %d times, want 1", done)
	}
	if owner, ok := c.Owner("email"); !ok || owner != "newsletter" {
		t.Fatalf("email should be indexed after subscribing, got %q %v", owner, ok)
	}

	result, err := c.ValidateFieldsAndScroll(context.Background(), params.Request{})
	if err != nil {
		t.Fatalf("validate and scroll: %v", err)
	}
	if diff := cmp.Diff(module.ErrorMap{"email": {"Email is required"}}, result.Errors); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if result.ScrolledTo != "email" {
		t.Fatalf("ScrolledTo = %q, want email", result.ScrolledTo)
	}
	requests := scroller.Requests()
	if len(requests) != 1 || requests[0].Target.Top() != 240 || requests[0].Container != root {
		t.Fatalf("unexpected scroll requests: %+v", requests)
	}

	if err := c.SetFieldsValue(module.Values{"subscribe": false}, nil); err != nil {
		t.Fatalf("set fields value: %v", err)
	}
	if _, ok := c.Owner("email"); ok {
		t.Fatalf("email should leave the index once hidden")
	}
}
