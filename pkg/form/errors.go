package form

import "errors"

var (
	// ErrUnknownField is returned when an operation names a field that is not
	// part of the form.
	ErrUnknownField = errors.New("form: unknown field")
	// ErrInvalidField is returned by New for empty or duplicate field names.
	ErrInvalidField = errors.New("form: invalid field descriptor")
)

const (
	// DefaultAsyncFailureMessage is recorded when an asynchronous validator
	// cannot complete (transport failure, panic, cancelled context). A
	// panicking synchronous validator records it too.
	DefaultAsyncFailureMessage = "Unable to validate, please try again"
	// DefaultSubmitFailureMessage is surfaced when a submit error carries no
	// user-facing message of its own.
	DefaultSubmitFailureMessage = "Submission failed, please try again"
)

// FieldErrorer is implemented by submit errors that carry per-field messages,
// such as a server rejecting individual values.
type FieldErrorer interface {
	FieldErrors() map[string]string
}

// UserMessager is implemented by errors that carry a message suitable for
// display.
type UserMessager interface {
	UserMessage() string
}

// SubmitError wraps a failure raised by the submitter.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	if e == nil || e.Err == nil {
		return "form: submit failed"
	}
	return "form: submit: " + e.Err.Error()
}

func (e *SubmitError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Message returns the display message for the failure.
func (e *SubmitError) Message() string {
	if e == nil {
		return ""
	}
	var um UserMessager
	if errors.As(e.Err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return DefaultSubmitFailureMessage
}

// FieldErrors returns the per-field messages carried by the wrapped error.
func (e *SubmitError) FieldErrors() map[string]string {
	if e == nil {
		return nil
	}
	var fe FieldErrorer
	if errors.As(e.Err, &fe) {
		return fe.FieldErrors()
	}
	return nil
}
