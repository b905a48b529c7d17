package form

import (
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
)

// AllFieldsValid reports whether every required field has a non-blank value
// and no field has an error or a pending asynchronous validation. It is
// computed from the current state on every call.
func (f *Form) AllFieldsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return allFieldsValid(f.fields, f.state.values, f.state.errors, f.state.loading)
}

func allFieldsValid(fields []field.Descriptor, values, errs map[string]string, loading map[string]bool) bool {
	for _, desc := range fields {
		if desc.Required && strings.TrimSpace(values[desc.Name]) == "" {
			return false
		}
		if errs[desc.Name] != "" {
			return false
		}
		if loading[desc.Name] {
			return false
		}
	}
	return true
}
