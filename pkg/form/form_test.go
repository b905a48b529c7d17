package form_test

import (
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

func TestNew_RejectsInvalidDescriptors(t *testing.T) {
	cases := map[string][]field.Descriptor{
		"empty name":     {{Name: ""}},
		"blank name":     {{Name: "   "}},
		"padded name":    {{Name: " name"}},
		"duplicate name": {{Name: "name"}, {Name: "name"}},
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := form.New(fields); !errors.Is(err, form.ErrInvalidField) {
				t.Fatalf("expected ErrInvalidField, got %v", err)
			}
		})
	}
}

func TestNew_SeedsStateForEveryField(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "firstName"}, {Name: "lastName"}, {Name: "phone"}},
		form.WithInitialValues(map[string]string{"firstName": "Ada", "unknown": "ignored"}),
	)

	snap := f.Snapshot()
	wantValues := field.Values{"firstName": "Ada", "lastName": "", "phone": ""}
	if diff := cmp.Diff(wantValues, snap.Values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	wantKeys := []string{"firstName", "lastName", "phone"}
	for label, keys := range map[string][]string{
		"touched": keysOf(snap.Touched),
		"errors":  keysOf(snap.Errors),
		"loading": keysOf(snap.Loading),
	} {
		if diff := cmp.Diff(wantKeys, keys); diff != "" {
			t.Fatalf("%s key set mismatch (-want +got):\n%s", label, diff)
		}
	}
	if f.ID() == "" {
		t.Fatalf("expected a generated form id")
	}
}

func TestNew_AppliesOptions(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "name", Kind: ""}}, form.WithID(" onboarding "), nil)
	if f.ID() != "onboarding" {
		t.Fatalf("expected trimmed id, got %q", f.ID())
	}
	desc, ok := f.Field("name")
	if !ok || desc.Kind != field.KindText {
		t.Fatalf("expected default text kind, got %#v", desc)
	}
}

func TestHandleChange_UpdatesOnlyTargetValue(t *testing.T) {
	f := newForm(t, []field.Descriptor{
		{Name: "name", Validator: field.Required("Required")},
		{Name: "age"},
	}, form.WithInitialValues(map[string]string{"age": "30"}))

	_ = f.HandleBlur(testsupport.Context(), "name")
	before := f.Snapshot()

	if err := f.HandleChange("name", "Tom"); err != nil {
		t.Fatalf("change: %v", err)
	}
	after := f.Snapshot()

	if after.Values["name"] != "Tom" {
		t.Fatalf("expected name to be updated, got %q", after.Values["name"])
	}
	if after.Values["age"] != "30" {
		t.Fatalf("other fields must keep their value, got %q", after.Values["age"])
	}
	if diff := cmp.Diff(before.Errors, after.Errors); diff != "" {
		t.Fatalf("change must not touch errors (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(before.Touched, after.Touched); diff != "" {
		t.Fatalf("change must not touch touched flags (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(before.Loading, after.Loading); diff != "" {
		t.Fatalf("change must not touch loading flags (-before +after):\n%s", diff)
	}
}

func TestSetValue_MatchesHandleChange(t *testing.T) {
	var changes []form.ChangeEvent
	f := newForm(t, []field.Descriptor{{Name: "phone"}}, form.WithHooks(form.Hooks{
		OnChange: func(e form.ChangeEvent) { changes = append(changes, e) },
	}))

	if err := f.SetValue("phone", "+15551234567"); err != nil {
		t.Fatalf("set value: %v", err)
	}
	if err := f.HandleChange("phone", "+15557654321"); err != nil {
		t.Fatalf("change: %v", err)
	}

	if got := f.Values()["phone"]; got != "+15557654321" {
		t.Fatalf("unexpected value %q", got)
	}
	if len(changes) != 2 || changes[0].Generation >= changes[1].Generation {
		t.Fatalf("expected two changes with increasing generations, got %#v", changes)
	}
}

func TestMutators_RejectUnknownFields(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "name"}})

	if err := f.HandleChange("nope", "x"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("handle change: expected ErrUnknownField, got %v", err)
	}
	if err := f.SetValue("nope", "x"); !errors.Is(err, form.ErrUnknownField) {
		t.Fatalf("set value: expected ErrUnknownField, got %v", err)
	}
	if _, ok := f.Values()["nope"]; ok {
		t.Fatalf("unknown field leaked into values")
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "name"}})
	snap := f.Snapshot()
	snap.Values["name"] = "mutated"
	snap.Errors["name"] = "mutated"

	if got := f.Values()["name"]; got != "" {
		t.Fatalf("snapshot mutation leaked into the form: %q", got)
	}
	if got := f.Errors()["name"]; got != "" {
		t.Fatalf("snapshot mutation leaked into the form errors: %q", got)
	}
}

func TestSnapshot_VisibleErrorRequiresTouch(t *testing.T) {
	snap := form.Snapshot{
		Touched: map[string]bool{"a": false, "b": true},
		Errors:  map[string]string{"a": "hidden", "b": "shown"},
	}
	if got := snap.VisibleError("a"); got != "" {
		t.Fatalf("expected untouched error to be hidden, got %q", got)
	}
	if got := snap.VisibleError("b"); got != "shown" {
		t.Fatalf("expected touched error to show, got %q", got)
	}
}

func TestSubscribe_NotifiesUntilCancelled(t *testing.T) {
	f := newForm(t, []field.Descriptor{{Name: "name"}})

	var (
		mu   sync.Mutex
		seen []string
	)
	cancel := f.Subscribe(func(s form.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Values["name"])
	})

	_ = f.HandleChange("name", "A")
	_ = f.HandleChange("name", "AB")
	cancel()
	cancel()
	_ = f.HandleChange("name", "ABC")

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"A", "AB"}, seen); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestWithLogger_RecordsFormID(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	f := newForm(t, []field.Descriptor{{Name: "name"}}, form.WithLogger(logger), form.WithID("form-1"))

	_ = f.HandleChange("name", "Tom")

	out := buf.String()
	if !strings.Contains(out, "form_id=form-1") || !strings.Contains(out, "field=name") {
		t.Fatalf("expected form id and field attributes in log output, got %q", out)
	}
}

func keysOf[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
