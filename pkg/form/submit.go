package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-formstate/pkg/field"
)

// HandleSubmit passes a copy of the current values to the submitter. It does
// not re-run validation and does not refuse an invalid form; gating on
// AllFieldsValid is up to the caller.
//
// A submitter failure (returned error or panic) is recorded as the form's
// submit error, logged, and returned wrapped in *SubmitError. Field messages
// carried by the failure are written to the matching fields, which are
// marked touched so the messages surface; validations still in flight for
// those fields are discarded when they complete. A successful
// submit clears any previous submit error. Without a submitter HandleSubmit
// is a no-op.
func (f *Form) HandleSubmit(ctx context.Context) error {
	if f.submitter == nil {
		f.logger.Debug("submit ignored: no submitter configured")
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f.mu.Lock()
	values := field.Values(cloneStrings(f.state.values))
	f.state.submitting = true
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.publish(snap)

	start := time.Now()
	err := callSubmitter(ctx, f.submitter, values)
	elapsed := time.Since(start)

	var submitErr *SubmitError
	if err != nil {
		if !errors.As(err, &submitErr) {
			submitErr = &SubmitError{Err: err}
		}
	}

	f.mu.Lock()
	f.state.submitting = false
	f.state.submitErr = submitErr
	for name, msg := range submitErr.FieldErrors() {
		if _, ok := f.index[name]; !ok || msg == "" {
			continue
		}
		f.state.errors[name] = msg
		f.state.touched[name] = true
		f.state.loading[name] = false
		f.state.generation[name]++
	}
	snap = f.snapshotLocked()
	f.mu.Unlock()

	if submitErr != nil {
		f.logger.Error("form submission failed",
			slog.Any("error", submitErr.Err),
			slog.Duration("duration", elapsed),
		)
	} else {
		f.logger.Info("form submitted", slog.Duration("duration", elapsed))
	}

	event := SubmitEvent{FormID: f.id, Duration: elapsed}
	if submitErr != nil {
		event.Err = submitErr
	}
	f.hooks.submit(event)
	f.publish(snap)

	if submitErr != nil {
		return submitErr
	}
	return nil
}

// SubmitErr returns the error recorded by the last submission, or nil.
func (f *Form) SubmitErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.submitErr == nil {
		return nil
	}
	return f.state.submitErr
}

func callSubmitter(ctx context.Context, s Submitter, values field.Values) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("form: submitter panic: %v", r)
		}
	}()
	return s.Submit(ctx, values)
}
