package container

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formcontainer/pkg/module"
	"github.com/goliatone/go-formcontainer/pkg/params"
	"github.com/goliatone/go-formcontainer/pkg/scroll"
	"github.com/goliatone/go-formcontainer/pkg/testsupport"
)

func TestValidateFields_MergesModuleOutcomes(t *testing.T) {
	c, a, _ := newAB(t)
	a.FailValidation("a1", "a1 is required")

	var calls int
	var gotErrs module.ErrorMap
	var gotValues module.Values
	result, err := c.ValidateFields(testsupport.Context(), params.Request{
		Callback: func(errs module.ErrorMap, values module.Values) {
			calls++
			gotErrs, gotValues = errs, values
		},
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if calls != 1 {
		t.Fatalf("callback fired %d times, want 1", calls)
	}

	wantErrs := module.ErrorMap{"a1": {"a1 is required"}}
	wantValues := module.Values{"a1": "x1", "a2": "x2", "b1": "y1"}
	if diff := cmp.Diff(wantErrs, gotErrs); diff != "" {
		t.Fatalf("callback errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantValues, gotValues); diff != "" {
		t.Fatalf("callback values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantErrs, result.Errors); diff != "" {
		t.Fatalf("result errors mismatch (-want +got):\n%s", diff)
	}
	if !result.HasErrors() {
		t.Fatalf("expected HasErrors")
	}
}

func TestValidateFields_CleanRunHasNilErrors(t *testing.T) {
	c, _, _ := newAB(t)

	var sawNil bool
	result, err := c.ValidateFields(testsupport.Context(), params.Request{
		Callback: func(errs module.ErrorMap, _ module.Values) { sawNil = errs == nil },
	})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if result.Errors != nil || !sawNil {
		t.Fatalf("expected nil errors, got %v", result.Errors)
	}
}

func TestValidateFields_RoutesNamedSubset(t *testing.T) {
	c, a, b := newAB(t)

	result, err := c.ValidateFields(testsupport.Context(), params.Request{Names: []string{"a2", "ghost"}})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	calls := a.Calls("ValidateFields")
	if len(calls) != 1 || !cmp.Equal(calls[0].Fields, []string{"a2"}) {
		t.Fatalf("unexpected validate calls on A: %+v", calls)
	}
	if len(b.Calls("ValidateFields")) != 0 {
		t.Fatalf("B owns none of the requested fields")
	}
	if diff := cmp.Diff(module.Values{"a2": "x2"}, result.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFields_WaitsForEveryModule(t *testing.T) {
	c, a, b := newAB(t)
	a.FailValidation("a1", "bad")
	release := b.Gate()

	var started atomic.Int32
	a.OnValidate = func() { started.Add(1) }
	b.OnValidate = func() { started.Add(1) }

	var calls atomic.Int32
	done := make(chan Result, 1)
	go func() {
		result, err := c.ValidateFields(testsupport.Context(), params.Request{
			Callback: func(module.ErrorMap, module.Values) { calls.Add(1) },
		})
		if err != nil {
			t.Errorf("validate: %v", err)
		}
		done <- result
	}()

	deadline := time.Now().Add(2 * time.Second)
	for started.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	select {
	case <-done:
		t.Fatalf("validation finished while B was still gated")
	case <-time.After(20 * time.Millisecond):
	}
	if calls.Load() != 0 {
		t.Fatalf("callback fired before every module settled")
	}

	release()
	select {
	case result := <-done:
		if diff := cmp.Diff(module.ErrorMap{"a1": {"bad"}}, result.Errors); diff != "" {
			t.Fatalf("errors mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("validation did not finish after release")
	}
	if calls.Load() != 1 {
		t.Fatalf("callback fired %d times, want 1", calls.Load())
	}
}

func TestValidateFields_ModuleFailure(t *testing.T) {
	c, _, b := newAB(t)
	b.FailWith(testsupport.ErrScripted)

	called := false
	_, err := c.ValidateFields(testsupport.Context(), params.Request{
		Callback: func(module.ErrorMap, module.Values) { called = true },
	})
	if !errors.Is(err, testsupport.ErrScripted) {
		t.Fatalf("expected scripted error, got %v", err)
	}
	if called {
		t.Fatalf("callback must not fire when a module cannot validate")
	}
}

func TestValidateFields_ContextCancelled(t *testing.T) {
	c, _, b := newAB(t)
	release := b.Gate()
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ValidateFields(ctx, params.Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestValidateFields_PassesOptions(t *testing.T) {
	c, a, _ := newAB(t)
	var seen module.ValidateOptions
	probe := &optionsProbe{Module: a, seen: &seen}
	c.Unregister("A")
	mustRegister(t, c, probe)

	opts := &module.ValidateOptions{First: true, FirstFields: []string{" a1 ", "a1"}}
	if _, err := c.ValidateFields(testsupport.Context(), params.Request{Names: []string{"a1"}, Options: opts}); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !seen.First || !cmp.Equal(seen.FirstFields, []string{"a1"}) {
		t.Fatalf("unexpected options forwarded: %+v", seen)
	}
	if !cmp.Equal(opts.FirstFields, []string{" a1 ", "a1"}) {
		t.Fatalf("caller options were mutated: %+v", opts.FirstFields)
	}
}

type optionsProbe struct {
	*testsupport.Module
	seen *module.ValidateOptions
}

func (p *optionsProbe) ValidateFields(ctx context.Context, ids []string, opts module.ValidateOptions) (module.ErrorMap, module.Values, error) {
	*p.seen = opts
	return p.Module.ValidateFields(ctx, ids, opts)
}

func TestValidateFieldsAndScroll_ScrollsFirstFailingField(t *testing.T) {
	scroller := &testsupport.Scroller{}
	c, a, b := newAB(t, WithScroller(scroller), WithScrollDefaults(scroll.Options{OffsetTop: scroll.Float(12)}))

	root := &testsupport.Element{Name: "root", Scrolls: true}
	panel := &testsupport.Element{Name: "panel", Up: root, Scrolls: true}
	a.SetElement("a2", &testsupport.Element{Name: "a2", Y: 40, Up: panel})
	b.SetElement("b1", &testsupport.Element{Name: "b1", Y: 10, Up: root})
	a.FailValidation("a2", "a2 is invalid")
	b.FailValidation("b1", "b1 is invalid")

	var order []string
	scroller.OnScroll = func() { order = append(order, "scroll") }
	result, err := c.ValidateFieldsAndScroll(testsupport.Context(), params.Request{
		Options: &module.ValidateOptions{Scroll: scroll.Options{AlignWithTop: scroll.Bool(false)}},
		Callback: func(module.ErrorMap, module.Values) {
			order = append(order, "callback")
		},
	})
	if err != nil {
		t.Fatalf("validate and scroll: %v", err)
	}
	if result.ScrolledTo != "a2" {
		t.Fatalf("ScrolledTo = %q, want a2", result.ScrolledTo)
	}
	if diff := cmp.Diff([]string{"scroll", "callback"}, order); diff != "" {
		t.Fatalf("ordering mismatch (-want +got):\n%s", diff)
	}

	requests := scroller.Requests()
	if len(requests) != 1 {
		t.Fatalf("expected one scroll request, got %d", len(requests))
	}
	req := requests[0]
	if req.Container != panel {
		t.Fatalf("expected nearest scrollable ancestor as container")
	}
	want := scroll.Config{AlignWithTop: false, OffsetTop: 12}
	if diff := cmp.Diff(want, req.Config); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateFieldsAndScroll_NoErrorsNoScroll(t *testing.T) {
	scroller := &testsupport.Scroller{}
	c, _, _ := newAB(t, WithScroller(scroller))

	result, err := c.ValidateFieldsAndScroll(testsupport.Context(), params.Request{})
	if err != nil {
		t.Fatalf("validate and scroll: %v", err)
	}
	if result.ScrolledTo != "" || len(scroller.Requests()) != 0 {
		t.Fatalf("nothing should scroll on a clean run")
	}
}

func TestValidateFieldsAndScroll_ScrollFailureStillCallsBack(t *testing.T) {
	scroller := &testsupport.Scroller{Err: errors.New("detached")}
	c, a, _ := newAB(t, WithScroller(scroller))
	a.SetElement("a1", &testsupport.Element{Name: "a1"})
	a.FailValidation("a1", "bad")

	called := false
	result, err := c.ValidateFieldsAndScroll(testsupport.Context(), params.Request{
		Callback: func(module.ErrorMap, module.Values) { called = true },
	})
	if err == nil || !errors.Is(err, scroller.Err) {
		t.Fatalf("expected scroll error, got %v", err)
	}
	if !called || !result.HasErrors() {
		t.Fatalf("callback and result must survive a scroll failure")
	}
}

func TestValidateFieldsAndScroll_WithoutScroller(t *testing.T) {
	c, a, _ := newAB(t)
	a.FailValidation("a1", "bad")

	result, err := c.ValidateFieldsAndScroll(testsupport.Context(), params.Request{})
	if err != nil {
		t.Fatalf("validate and scroll: %v", err)
	}
	if result.ScrolledTo != "" || !result.HasErrors() {
		t.Fatalf("unexpected result: %+v", result)
	}
}
