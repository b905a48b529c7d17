package form

import (
	"context"
	"log/slog"
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
)

// Submitter receives the values snapshot when the form is submitted.
type Submitter interface {
	Submit(ctx context.Context, values field.Values) error
}

// SubmitFunc adapts a function into a Submitter.
type SubmitFunc func(ctx context.Context, values field.Values) error

// Submit delegates to the underlying function.
func (fn SubmitFunc) Submit(ctx context.Context, values field.Values) error {
	return fn(ctx, values)
}

// Option configures a Form.
type Option func(*Form)

// WithInitialValues seeds field values. Keys that do not match a field are
// ignored; fields without an entry start as the empty string.
func WithInitialValues(values map[string]string) Option {
	return func(f *Form) {
		if len(values) == 0 {
			return
		}
		f.initial = make(map[string]string, len(values))
		for k, v := range values {
			f.initial[k] = v
		}
	}
}

// WithSubmitter sets the submit callback.
func WithSubmitter(s Submitter) Option {
	return func(f *Form) {
		f.submitter = s
	}
}

// WithSubmitFunc is a convenience wrapper around WithSubmitter.
func WithSubmitFunc(fn func(ctx context.Context, values field.Values) error) Option {
	return func(f *Form) {
		if fn != nil {
			f.submitter = SubmitFunc(fn)
		}
	}
}

// WithLogger sets the logger. Nil loggers are ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks Hooks) Option {
	return func(f *Form) {
		f.hooks = hooks
	}
}

// WithAsyncFailureMessage overrides the message recorded when an asynchronous
// validator fails to complete, or a synchronous validator panics.
func WithAsyncFailureMessage(message string) Option {
	return func(f *Form) {
		if msg := strings.TrimSpace(message); msg != "" {
			f.asyncFailureMessage = msg
		}
	}
}

// WithID overrides the generated form instance id used in log records.
func WithID(id string) Option {
	return func(f *Form) {
		if id = strings.TrimSpace(id); id != "" {
			f.id = id
		}
	}
}
