package form

import (
	"log/slog"

	"github.com/goliatone/go-formstate/pkg/field"
)

// state holds the parallel mappings. All maps share the descriptor key set
// from construction onwards; no operation adds or removes keys.
type state struct {
	values     map[string]string
	touched    map[string]bool
	errors     map[string]string
	loading    map[string]bool
	generation map[string]uint64
	submitErr  *SubmitError
	submitting bool
}

func newState(fields []field.Descriptor, initial map[string]string) state {
	s := state{
		values:     make(map[string]string, len(fields)),
		touched:    make(map[string]bool, len(fields)),
		errors:     make(map[string]string, len(fields)),
		loading:    make(map[string]bool, len(fields)),
		generation: make(map[string]uint64, len(fields)),
	}
	for _, desc := range fields {
		s.values[desc.Name] = initial[desc.Name]
		s.touched[desc.Name] = false
		s.errors[desc.Name] = ""
		s.loading[desc.Name] = false
		s.generation[desc.Name] = 0
	}
	return s
}

// Snapshot is an immutable copy of the form state. An empty string in Errors
// means the field has no error.
type Snapshot struct {
	Values         field.Values
	Touched        map[string]bool
	Errors         map[string]string
	Loading        map[string]bool
	SubmitError    string
	Submitting     bool
	AllFieldsValid bool
}

// Error returns the error message for name and whether one is set.
func (s Snapshot) Error(name string) (string, bool) {
	msg := s.Errors[name]
	return msg, msg != ""
}

// VisibleError returns the error only once the field has been touched, the
// way a presentation layer would display it.
func (s Snapshot) VisibleError(name string) string {
	if !s.Touched[name] {
		return ""
	}
	return s.Errors[name]
}

func (f *Form) snapshotLocked() Snapshot {
	snap := Snapshot{
		Values:     cloneStrings(f.state.values),
		Touched:    cloneBools(f.state.touched),
		Errors:     cloneStrings(f.state.errors),
		Loading:    cloneBools(f.state.loading),
		Submitting: f.state.submitting,
	}
	if f.state.submitErr != nil {
		snap.SubmitError = f.state.submitErr.Message()
	}
	snap.AllFieldsValid = allFieldsValid(f.fields, f.state.values, f.state.errors, f.state.loading)
	return snap
}

// Snapshot returns a consistent copy of the current state.
func (f *Form) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

// Values returns a copy of the current values.
func (f *Form) Values() field.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneStrings(f.state.values)
}

// Touched returns a copy of the touched flags.
func (f *Form) Touched() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneBools(f.state.touched)
}

// Errors returns a copy of the error messages.
func (f *Form) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneStrings(f.state.errors)
}

// Loading returns a copy of the loading flags.
func (f *Form) Loading() map[string]bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return cloneBools(f.state.loading)
}

// HandleChange records a new value for name, typically from an input event.
// Errors, touched and loading flags are left as they are; any validation in
// flight for the field becomes stale.
func (f *Form) HandleChange(name, value string) error {
	return f.setValue(name, value, "change")
}

// SetValue updates a value programmatically with the same semantics as
// HandleChange.
func (f *Form) SetValue(name, value string) error {
	return f.setValue(name, value, "set")
}

func (f *Form) setValue(name, value, source string) error {
	if _, err := f.lookup(name); err != nil {
		return err
	}

	f.mu.Lock()
	f.state.values[name] = value
	f.state.generation[name]++
	gen := f.state.generation[name]
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.logger.Debug("field value updated",
		slog.String("field", name),
		slog.String("source", source),
		slog.Uint64("generation", gen),
	)
	f.hooks.change(ChangeEvent{FormID: f.id, Field: name, Generation: gen})
	f.publish(snap)
	return nil
}

func cloneStrings(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func cloneBools(src map[string]bool) map[string]bool {
	out := make(map[string]bool, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
