package field

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Kind identifies how a field's textual value should be interpreted.
type Kind string

const (
	KindText   Kind = "text"
	KindTel    Kind = "tel"
	KindEmail  Kind = "email"
	KindNumber Kind = "number"
	KindDate   Kind = "date"
)

// DateLayout is the layout used to decode KindDate values.
const DateLayout = "2006-01-02"

// ParseKind normalises a kind name, falling back to KindText for unknown or
// empty input.
func ParseKind(raw string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindTel:
		return KindTel
	case KindEmail:
		return KindEmail
	case KindNumber, "integer":
		return KindNumber
	case KindDate:
		return KindDate
	default:
		return KindText
	}
}

// Value is the typed view of a stored field value. The form keeps every value
// in its textual representation; Number and Date decode it on demand.
type Value struct {
	Kind Kind
	Raw  string
}

// String returns the raw textual value.
func (v Value) String() string {
	return v.Raw
}

// Empty reports whether the value is blank once surrounding whitespace is
// removed.
func (v Value) Empty() bool {
	return strings.TrimSpace(v.Raw) == ""
}

// Number decodes the value as a float. It reports false for blank input or
// input that is not numeric.
func (v Value) Number() (float64, bool) {
	trimmed := strings.TrimSpace(v.Raw)
	if trimmed == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Date decodes the value using DateLayout.
func (v Value) Date() (time.Time, bool) {
	trimmed := strings.TrimSpace(v.Raw)
	if trimmed == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Values maps field names to their textual values.
type Values map[string]string

// Get returns the value stored for name, or the empty string.
func (v Values) Get(name string) string {
	if v == nil {
		return ""
	}
	return v[name]
}

// Clone returns an independent copy.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// ErrorDescriptor is the failure payload returned by asynchronous validators.
// A nil descriptor means the value passed.
type ErrorDescriptor struct {
	Message string `json:"message" yaml:"message"`
	Code    string `json:"code,omitempty" yaml:"code,omitempty"`
}

// Validator runs a synchronous, side-effect free check. It returns the error
// message, or the empty string when the value is acceptable.
type Validator interface {
	Validate(value Value, all Values) string
}

// ValidatorFunc adapts a function into a Validator.
type ValidatorFunc func(value Value, all Values) string

// Validate delegates to the underlying function.
func (fn ValidatorFunc) Validate(value Value, all Values) string {
	return fn(value, all)
}

// AsyncValidator runs a check that may block, typically a remote lookup. A
// returned error means the check itself could not be completed.
type AsyncValidator interface {
	ValidateAsync(ctx context.Context, value Value, all Values) (*ErrorDescriptor, error)
}

// AsyncValidatorFunc adapts a function into an AsyncValidator.
type AsyncValidatorFunc func(ctx context.Context, value Value, all Values) (*ErrorDescriptor, error)

// ValidateAsync delegates to the underlying function.
func (fn AsyncValidatorFunc) ValidateAsync(ctx context.Context, value Value, all Values) (*ErrorDescriptor, error) {
	return fn(ctx, value, all)
}

// Descriptor is the static contract for one form field.
type Descriptor struct {
	Name           string
	Label          string
	Kind           Kind
	Required       bool
	MaxLength      int
	Placeholder    string
	Validator      Validator
	AsyncValidator AsyncValidator
}

// ValueOf wraps raw into a Value carrying the descriptor's kind.
func (d Descriptor) ValueOf(raw string) Value {
	kind := d.Kind
	if kind == "" {
		kind = KindText
	}
	return Value{Kind: kind, Raw: raw}
}

// DisplayLabel returns the label, falling back to the field name.
func (d Descriptor) DisplayLabel() string {
	if label := strings.TrimSpace(d.Label); label != "" {
		return label
	}
	return d.Name
}
