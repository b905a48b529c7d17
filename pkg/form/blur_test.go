package form_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

func newForm(t *testing.T, fields []field.Descriptor, opts ...form.Option) *form.Form {
	t.Helper()
	f, err := form.New(fields, opts...)
	if err != nil {
		t.Fatalf("new form: %v", err)
	}
	return f
}

func blurAsync(f *form.Form, name string) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- f.HandleBlur(context.Background(), name)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("blur: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("blur did not return")
	}
}

type loadingRecorder struct {
	mu     sync.Mutex
	field  string
	states []bool
}

func newLoadingRecorder(name string) *loadingRecorder {
	return &loadingRecorder{field: name, states: []bool{false}}
}

func (r *loadingRecorder) observe(s form.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := s.Loading[r.field]
	if r.states[len(r.states)-1] == v {
		return
	}
	r.states = append(r.states, v)
}

func (r *loadingRecorder) transitions() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.states...)
}

func notValid(_ context.Context, value field.Value, _ field.Values) (*field.ErrorDescriptor, error) {
	if value.Raw != "123456789" {
		return &field.ErrorDescriptor{Message: "Not valid!"}, nil
	}
	return nil, nil
}

func TestHandleBlur_SyncFailureSkipsAsync(t *testing.T) {
	async := &testsupport.AsyncSpy{Fn: notValid}
	f := newForm(t, []field.Descriptor{{
		Name:           "email",
		Required:       true,
		Validator:      field.ValidatorFunc(func(v field.Value, _ field.Values) string { return "Invalid email" }),
		AsyncValidator: async,
	}})

	rec := newLoadingRecorder("email")
	defer f.Subscribe(rec.observe)()

	if err := f.HandleChange("email", "invalid"); err != nil {
		t.Fatalf("change: %v", err)
	}
	if err := f.HandleBlur(testsupport.Context(), "email"); err != nil {
		t.Fatalf("blur: %v", err)
	}

	snap := f.Snapshot()
	if got := snap.Errors["email"]; got != "Invalid email" {
		t.Fatalf("expected sync error, got %q", got)
	}
	if !snap.Touched["email"] {
		t.Fatalf("expected field to be touched")
	}
	if calls := async.Calls(); len(calls) != 0 {
		t.Fatalf("expected async validator to be skipped, got calls %v", calls)
	}
	if diff := cmp.Diff([]bool{false}, rec.transitions()); diff != "" {
		t.Fatalf("loading must never be raised (-want +got):\n%s", diff)
	}
}

func TestHandleBlur_AsyncLoadingLifecycle(t *testing.T) {
	gate := testsupport.NewGatedValidator()
	f := newForm(t, []field.Descriptor{{Name: "corp", AsyncValidator: gate}})

	rec := newLoadingRecorder("corp")
	defer f.Subscribe(rec.observe)()

	_ = f.HandleChange("corp", "111111111")
	done := blurAsync(f, "corp")
	call := gate.AwaitStart(t)

	if call.Value != "111111111" {
		t.Fatalf("validator received %q", call.Value)
	}
	if !f.Loading()["corp"] {
		t.Fatalf("expected loading while validation is pending")
	}
	if f.AllFieldsValid() {
		t.Fatalf("form must not be valid while a validation is pending")
	}

	call.Release(&field.ErrorDescriptor{Message: "Not valid!"})
	waitDone(t, done)

	snap := f.Snapshot()
	if snap.Loading["corp"] {
		t.Fatalf("expected loading to be cleared")
	}
	if got := snap.Errors["corp"]; got != "Not valid!" {
		t.Fatalf("expected async message, got %q", got)
	}
	if diff := cmp.Diff([]bool{false, true, false}, rec.transitions()); diff != "" {
		t.Fatalf("loading transitions mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleBlur_AsyncSuccessClearsError(t *testing.T) {
	f := newForm(t, []field.Descriptor{{
		Name:           "corp",
		Validator:      field.ExactLength(9, "Must be 9 digits"),
		AsyncValidator: &testsupport.AsyncSpy{Fn: notValid},
	}})

	_ = f.HandleChange("corp", "123")
	_ = f.HandleBlur(testsupport.Context(), "corp")
	if got := f.Errors()["corp"]; got != "Must be 9 digits" {
		t.Fatalf("expected sync error, got %q", got)
	}

	_ = f.HandleChange("corp", "123456789")
	_ = f.HandleBlur(testsupport.Context(), "corp")
	snap := f.Snapshot()
	if msg, ok := snap.Error("corp"); ok {
		t.Fatalf("expected no error, got %q", msg)
	}
	if snap.Loading["corp"] {
		t.Fatalf("expected loading to be cleared")
	}
}

func TestHandleBlur_ChangeDuringValidationDiscardsResult(t *testing.T) {
	gate := testsupport.NewGatedValidator()
	var stale []form.ValidationEvent
	f := newForm(t, []field.Descriptor{{Name: "corp", AsyncValidator: gate}},
		form.WithHooks(form.Hooks{
			OnValidationStale: func(e form.ValidationEvent) { stale = append(stale, e) },
		}),
	)

	_ = f.HandleChange("corp", "111111111")
	done := blurAsync(f, "corp")
	call := gate.AwaitStart(t)

	if err := f.HandleChange("corp", "123456789"); err != nil {
		t.Fatalf("change: %v", err)
	}
	call.Release(&field.ErrorDescriptor{Message: "Not valid!"})
	waitDone(t, done)

	snap := f.Snapshot()
	if got := snap.Errors["corp"]; got != "" {
		t.Fatalf("stale result must not be written, got error %q", got)
	}
	if !snap.Loading["corp"] {
		t.Fatalf("stale result must not clear loading either")
	}
	if len(stale) != 1 || stale[0].Phase != form.PhaseAsync {
		t.Fatalf("expected one stale async event, got %#v", stale)
	}

	done = blurAsync(f, "corp")
	call = gate.AwaitStart(t)
	if call.Value != "123456789" {
		t.Fatalf("expected new value to be validated, got %q", call.Value)
	}
	call.Release(nil)
	waitDone(t, done)

	snap = f.Snapshot()
	if snap.Loading["corp"] || snap.Errors["corp"] != "" {
		t.Fatalf("expected clean state after fresh validation, got %#v", snap)
	}
}

func TestHandleBlur_LatestBlurWins(t *testing.T) {
	gate := testsupport.NewGatedValidator()
	f := newForm(t, []field.Descriptor{{Name: "corp", AsyncValidator: gate}})

	_ = f.HandleChange("corp", "111111111")
	first := blurAsync(f, "corp")
	firstCall := gate.AwaitStart(t)
	second := blurAsync(f, "corp")
	secondCall := gate.AwaitStart(t)

	secondCall.Release(nil)
	waitDone(t, second)
	firstCall.Release(&field.ErrorDescriptor{Message: "old answer"})
	waitDone(t, first)

	snap := f.Snapshot()
	if got := snap.Errors["corp"]; got != "" {
		t.Fatalf("older validation overwrote newer result: %q", got)
	}
	if snap.Loading["corp"] {
		t.Fatalf("expected loading to be cleared by the latest validation")
	}
}

func TestHandleBlur_SyncFailureSupersedesPendingAsync(t *testing.T) {
	gate := testsupport.NewGatedValidator()
	f := newForm(t, []field.Descriptor{{
		Name:           "corp",
		Validator:      field.Required("Corporation number is required"),
		AsyncValidator: gate,
	}})

	_ = f.HandleChange("corp", "111111111")
	done := blurAsync(f, "corp")
	call := gate.AwaitStart(t)

	_ = f.HandleChange("corp", "")
	if err := f.HandleBlur(testsupport.Context(), "corp"); err != nil {
		t.Fatalf("blur: %v", err)
	}
	call.Release(nil)
	waitDone(t, done)

	snap := f.Snapshot()
	if got := snap.Errors["corp"]; got != "Corporation number is required" {
		t.Fatalf("expected sync error to stand, got %q", got)
	}
	if snap.Loading["corp"] {
		t.Fatalf("sync failure must leave loading cleared")
	}
}

func TestHandleBlur_FieldsValidateIndependently(t *testing.T) {
	gateA := testsupport.NewGatedValidator()
	gateB := testsupport.NewGatedValidator()
	f := newForm(t, []field.Descriptor{
		{Name: "a", AsyncValidator: gateA},
		{Name: "b", AsyncValidator: gateB},
	})

	doneA := blurAsync(f, "a")
	callA := gateA.AwaitStart(t)
	doneB := blurAsync(f, "b")
	callB := gateB.AwaitStart(t)

	callB.Release(&field.ErrorDescriptor{Message: "b failed"})
	waitDone(t, doneB)
	if !f.Loading()["a"] {
		t.Fatalf("resolving b must not touch a")
	}
	callA.Release(nil)
	waitDone(t, doneA)

	want := map[string]string{"a": "", "b": "b failed"}
	if diff := cmp.Diff(want, f.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleBlur_AsyncFailureBecomesFieldError(t *testing.T) {
	cases := []struct {
		name string
		opts []form.Option
		fn   func(context.Context, field.Value, field.Values) (*field.ErrorDescriptor, error)
		want string
	}{
		{
			name: "transport error",
			fn: func(context.Context, field.Value, field.Values) (*field.ErrorDescriptor, error) {
				return nil, errors.New("connection refused")
			},
			want: form.DefaultAsyncFailureMessage,
		},
		{
			name: "custom message",
			opts: []form.Option{form.WithAsyncFailureMessage("Lookup unavailable")},
			fn: func(context.Context, field.Value, field.Values) (*field.ErrorDescriptor, error) {
				return nil, errors.New("timeout")
			},
			want: "Lookup unavailable",
		},
		{
			name: "panic",
			fn: func(context.Context, field.Value, field.Values) (*field.ErrorDescriptor, error) {
				panic("boom")
			},
			want: form.DefaultAsyncFailureMessage,
		},
		{
			name: "descriptor without message",
			fn: func(context.Context, field.Value, field.Values) (*field.ErrorDescriptor, error) {
				return &field.ErrorDescriptor{Code: "invalid"}, nil
			},
			want: form.DefaultAsyncFailureMessage,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newForm(t, []field.Descriptor{{Name: "corp", AsyncValidator: &testsupport.AsyncSpy{Fn: tc.fn}}}, tc.opts...)
			if err := f.HandleBlur(testsupport.Context(), "corp"); err != nil {
				t.Fatalf("blur returned error: %v", err)
			}
			snap := f.Snapshot()
			if got := snap.Errors["corp"]; got != tc.want {
				t.Fatalf("want %q, got %q", tc.want, got)
			}
			if snap.Loading["corp"] {
				t.Fatalf("loading must not stay raised after a failure")
			}
		})
	}
}

func TestHandleBlur_FailureAfterChangeIsDiscarded(t *testing.T) {
	gate := testsupport.NewGatedValidator()
	f := newForm(t, []field.Descriptor{{Name: "corp", AsyncValidator: gate}})

	_ = f.HandleChange("corp", "111111111")
	done := blurAsync(f, "corp")
	call := gate.AwaitStart(t)

	if err := f.HandleChange("corp", "826417395"); err != nil {
		t.Fatalf("change: %v", err)
	}
	call.Fail(errors.New("connection reset"))
	waitDone(t, done)

	if got := f.Errors()["corp"]; got != "" {
		t.Fatalf("stale failure must not be written, got %q", got)
	}
}

func TestHandleBlur_SyncValidatorPanic(t *testing.T) {
	var starts, outcomes []form.Phase
	async := &testsupport.AsyncSpy{}
	f := newForm(t, []field.Descriptor{{
		Name: "corp",
		Validator: field.ValidatorFunc(func(field.Value, field.Values) string {
			panic("boom")
		}),
		AsyncValidator: async,
	}}, form.WithHooks(form.Hooks{
		OnValidationStart:  func(e form.ValidationEvent) { starts = append(starts, e.Phase) },
		OnValidationResult: func(e form.ValidationEvent) { outcomes = append(outcomes, e.Phase) },
		OnValidationStale:  func(e form.ValidationEvent) { outcomes = append(outcomes, e.Phase) },
	}))

	if err := f.HandleBlur(testsupport.Context(), "corp"); err != nil {
		t.Fatalf("blur returned error: %v", err)
	}

	snap := f.Snapshot()
	if got := snap.Errors["corp"]; got != form.DefaultAsyncFailureMessage {
		t.Fatalf("want %q, got %q", form.DefaultAsyncFailureMessage, got)
	}
	if snap.Loading["corp"] {
		t.Fatalf("loading must stay cleared")
	}
	if calls := async.Calls(); len(calls) != 0 {
		t.Fatalf("async validator should be skipped, got %v", calls)
	}
	want := []form.Phase{form.PhaseSync}
	if diff := cmp.Diff(want, starts); diff != "" {
		t.Fatalf("starts mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, outcomes); diff != "" {
		t.Fatalf("outcomes mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleBlur_CancelledContext(t *testing.T) {
	async := &testsupport.AsyncSpy{}
	f := newForm(t, []field.Descriptor{{Name: "corp", AsyncValidator: async}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.HandleBlur(ctx, "corp"); err != nil {
		t.Fatalf("blur: %v", err)
	}
	if got := f.Errors()["corp"]; got != form.DefaultAsyncFailureMessage {
		t.Fatalf("expected generic failure, got %q", got)
	}
	if calls := async.Calls(); len(calls) != 0 {
		t.Fatalf("validator should not run with a cancelled context, got %v", calls)
	}
}

func TestHandleBlur_Idempotent(t *testing.T) {
	f := newForm(t, []field.Descriptor{{
		Name:           "corp",
		Validator:      field.Required("Required"),
		AsyncValidator: &testsupport.AsyncSpy{Fn: notValid},
	}})
	_ = f.HandleChange("corp", "111111111")

	_ = f.HandleBlur(testsupport.Context(), "corp")
	first := f.Snapshot()
	_ = f.HandleBlur(testsupport.Context(), "corp")
	second := f.Snapshot()

	if diff := cmp.Diff(first.Errors, second.Errors); diff != "" {
		t.Fatalf("errors differ between blurs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Loading, second.Loading); diff != "" {
		t.Fatalf("loading differs between blurs (-first +second):\n%s", diff)
	}
}

func TestHandleBlur_CorporationScenario(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "corp", AsyncValidator: field.AsyncValidatorFunc(notValid)}})

	_ = f.HandleChange("corp", "111111111")
	if err := f.HandleBlur(testsupport.Context(), "corp"); err != nil {
		t.Fatalf("blur: %v", err)
	}

	snap := f.Snapshot()
	if got := snap.Errors["corp"]; got != "Not valid!" {
		t.Fatalf("expected %q, got %q", "Not valid!", got)
	}
	if snap.Loading["corp"] {
		t.Fatalf("expected loading to be false")
	}
}

func TestHandleBlur_NoValidatorsOnlyTouches(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "notes"}})
	if err := f.HandleBlur(testsupport.Context(), "notes"); err != nil {
		t.Fatalf("blur: %v", err)
	}
	snap := f.Snapshot()
	if !snap.Touched["notes"] || snap.Errors["notes"] != "" || snap.Loading["notes"] {
		t.Fatalf("unexpected state %#v", snap)
	}
}

func TestHandleBlur_NoValidatorsClearsServerError(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "phone"}}, form.WithSubmitter(&testsupport.RecordingSubmitter{
		Err: rejection{message: "Invalid phone number", fields: map[string]string{"phone": "Invalid phone number"}},
	}))
	_ = f.HandleSubmit(testsupport.Context())
	if f.Errors()["phone"] == "" {
		t.Fatalf("precondition: expected the server error to be recorded")
	}

	_ = f.HandleChange("phone", "+13062776103")
	if f.Errors()["phone"] == "" {
		t.Fatalf("changes must not clear errors")
	}
	_ = f.HandleBlur(testsupport.Context(), "phone")
	if got := f.Errors()["phone"]; got != "" {
		t.Fatalf("expected blur to clear the server error, got %q", got)
	}
}

func TestHandleBlur_UnknownField(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "name"}})
	err := f.HandleBlur(testsupport.Context(), "missing")
	if !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("expected ErrUnknownField, got %v", err)
	}
	if _, ok := f.Touched()["missing"]; ok {
		t.Fatalf("unknown field must not be added to the state")
	}
}

func TestHandleBlur_ValidatorsReceiveAllValues(t *testing.T) {
	var seen field.Values
	f := newForm(t, []field.Descriptor{
		{Name: "password"},
		{Name: "confirm", Validator: field.ValidatorFunc(func(v field.Value, all field.Values) string {
			seen = all
			if v.Raw != all.Get("password") {
				return "Passwords differ"
			}
			return ""
		})},
	})

	_ = f.HandleChange("password", "secret")
	_ = f.HandleChange("confirm", "secrets")
	_ = f.HandleBlur(testsupport.Context(), "confirm")

	if got := f.Errors()["confirm"]; got != "Passwords differ" {
		t.Fatalf("expected cross-field error, got %q", got)
	}
	want := field.Values{"password": "secret", "confirm": "secrets"}
	if diff := cmp.Diff(want, seen); diff != "" {
		t.Fatalf("all values mismatch (-want +got):\n%s", diff)
	}
}

func TestHandleBlur_HooksPairStartWithOutcome(t *testing.T) {
	var started, finished []form.Phase
	async := &testsupport.AsyncSpy{Fn: func(context.Context, field.Value, field.Values) (*field.ErrorDescriptor, error) {
		return nil, nil
	}}
	f := newForm(t, []field.Descriptor{{Name: "corp", Validator: field.ExactLength(9, "Must be 9 digits"), AsyncValidator: async}},
		form.WithHooks(form.Hooks{
			OnValidationStart:  func(e form.ValidationEvent) { started = append(started, e.Phase) },
			OnValidationResult: func(e form.ValidationEvent) { finished = append(finished, e.Phase) },
			OnValidationStale:  func(e form.ValidationEvent) { finished = append(finished, e.Phase) },
		}),
	)

	_ = f.HandleChange("corp", "123456789")
	_ = f.HandleBlur(testsupport.Context(), "corp")
	_ = f.HandleChange("corp", "1")
	_ = f.HandleBlur(testsupport.Context(), "corp")

	want := []form.Phase{form.PhaseSync, form.PhaseAsync, form.PhaseSync}
	if diff := cmp.Diff(want, started); diff != "" {
		t.Fatalf("start events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, finished); diff != "" {
		t.Fatalf("outcome events mismatch (-want +got):\n%s", diff)
	}
}
