package form

import "time"

// Phase identifies which validator produced a validation event.
type Phase string

const (
	PhaseSync  Phase = "sync"
	PhaseAsync Phase = "async"
)

// ChangeEvent describes a value update.
type ChangeEvent struct {
	FormID     string
	Field      string
	Generation uint64
}

// ValidationEvent describes a validation pass for one field. Message is empty
// when the value passed; Err is set when an asynchronous validator failed to
// complete.
type ValidationEvent struct {
	FormID     string
	Field      string
	Phase      Phase
	Generation uint64
	Message    string
	Err        error
	Duration   time.Duration
}

// SubmitEvent describes a completed submission attempt.
type SubmitEvent struct {
	FormID   string
	Err      error
	Duration time.Duration
}

// Hooks are optional callbacks invoked outside the store lock. They must not
// block for long; they run on the goroutine that drove the operation.
//
// Every OnValidationStart is followed by exactly one OnValidationResult or
// OnValidationStale for the same field, phase and generation.
type Hooks struct {
	OnChange           func(ChangeEvent)
	OnValidationStart  func(ValidationEvent)
	OnValidationResult func(ValidationEvent)
	OnValidationStale  func(ValidationEvent)
	OnSubmit           func(SubmitEvent)
}

func (h Hooks) change(e ChangeEvent) {
	if h.OnChange != nil {
		h.OnChange(e)
	}
}

func (h Hooks) validationStart(e ValidationEvent) {
	if h.OnValidationStart != nil {
		h.OnValidationStart(e)
	}
}

func (h Hooks) validationResult(e ValidationEvent) {
	if h.OnValidationResult != nil {
		h.OnValidationResult(e)
	}
}

func (h Hooks) validationStale(e ValidationEvent) {
	if h.OnValidationStale != nil {
		h.OnValidationStale(e)
	}
}

func (h Hooks) submit(e SubmitEvent) {
	if h.OnSubmit != nil {
		h.OnSubmit(e)
	}
}

// Merge returns hooks that call h first and then other for every event.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnChange: func(e ChangeEvent) {
			h.change(e)
			other.change(e)
		},
		OnValidationStart: func(e ValidationEvent) {
			h.validationStart(e)
			other.validationStart(e)
		},
		OnValidationResult: func(e ValidationEvent) {
			h.validationResult(e)
			other.validationResult(e)
		},
		OnValidationStale: func(e ValidationEvent) {
			h.validationStale(e)
			other.validationStale(e)
		},
		OnSubmit: func(e SubmitEvent) {
			h.submit(e)
			other.submit(e)
		},
	}
}
