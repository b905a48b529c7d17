package form

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goliatone/go-formstate/pkg/field"
)

// HandleBlur marks name as touched and validates its current value. The
// synchronous validator runs first; when it reports a message the
// asynchronous validator is skipped. Otherwise the asynchronous validator
// runs with loading set, and its outcome is committed only if no change or
// newer blur happened for the field in the meantime. A field without
// validators has its error cleared. A validator that panics or fails records
// the form's failure message.
//
// Validation outcomes are recorded in the state, never returned. The only
// error is ErrUnknownField.
func (f *Form) HandleBlur(ctx context.Context, name string) error {
	desc, err := f.lookup(name)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	f.mu.Lock()
	f.state.touched[name] = true
	f.state.generation[name]++
	if desc.Validator == nil && desc.AsyncValidator == nil {
		f.state.errors[name] = ""
	}
	gen := f.state.generation[name]
	value := desc.ValueOf(f.state.values[name])
	all := cloneStrings(f.state.values)
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.publish(snap)

	event := ValidationEvent{FormID: f.id, Field: name, Generation: gen}

	var syncEvent ValidationEvent
	if desc.Validator != nil {
		syncEvent = event
		syncEvent.Phase = PhaseSync
		f.hooks.validationStart(syncEvent)

		start := time.Now()
		msg, callErr := callSync(desc.Validator, value, all)
		syncEvent.Duration = time.Since(start)
		if callErr != nil {
			syncEvent.Err = callErr
			msg = f.asyncFailureMessage
			f.logger.Error("validation failed",
				slog.String("field", name),
				slog.Uint64("generation", gen),
				slog.Any("error", callErr),
			)
		}
		syncEvent.Message = msg

		if msg != "" || desc.AsyncValidator == nil {
			f.commit(syncEvent)
			return nil
		}
	}

	if desc.AsyncValidator == nil {
		return nil
	}

	asyncEvent := event
	asyncEvent.Phase = PhaseAsync
	began := f.beginAsync(asyncEvent)
	if desc.Validator != nil {
		if began {
			f.hooks.validationResult(syncEvent)
		} else {
			f.stale(syncEvent)
		}
	}
	if !began {
		return nil
	}
	f.hooks.validationStart(asyncEvent)

	start := time.Now()
	result, callErr := callAsync(ctx, desc.AsyncValidator, value, all)
	asyncEvent.Duration = time.Since(start)
	asyncEvent.Err = callErr

	switch {
	case callErr != nil:
		asyncEvent.Message = f.asyncFailureMessage
		f.logger.Warn("async validation failed",
			slog.String("field", name),
			slog.Uint64("generation", gen),
			slog.Any("error", callErr),
		)
	case result != nil:
		asyncEvent.Message = result.Message
		if asyncEvent.Message == "" {
			asyncEvent.Message = f.asyncFailureMessage
		}
	}

	f.commit(asyncEvent)
	return nil
}

// beginAsync clears the field error and raises the loading flag, provided the
// generation captured by e is still current.
func (f *Form) beginAsync(e ValidationEvent) bool {
	f.mu.Lock()
	if f.state.generation[e.Field] != e.Generation {
		f.mu.Unlock()
		f.logger.Debug("skipping async validation for superseded value",
			slog.String("field", e.Field),
			slog.Uint64("generation", e.Generation),
		)
		return false
	}
	f.state.errors[e.Field] = ""
	f.state.loading[e.Field] = true
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.publish(snap)
	return true
}

// commit writes a validation outcome and clears loading if the generation
// is still current.
func (f *Form) commit(e ValidationEvent) {
	f.mu.Lock()
	if f.state.generation[e.Field] != e.Generation {
		f.mu.Unlock()
		f.stale(e)
		return
	}
	f.state.errors[e.Field] = e.Message
	f.state.loading[e.Field] = false
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.logger.Debug("field validated",
		slog.String("field", e.Field),
		slog.String("phase", string(e.Phase)),
		slog.Uint64("generation", e.Generation),
		slog.Bool("valid", e.Message == ""),
	)
	f.hooks.validationResult(e)
	f.publish(snap)
}

func (f *Form) stale(e ValidationEvent) {
	f.logger.Debug("discarding stale validation result",
		slog.String("field", e.Field),
		slog.String("phase", string(e.Phase)),
		slog.Uint64("generation", e.Generation),
	)
	f.hooks.validationStale(e)
}

func callSync(v field.Validator, value field.Value, all field.Values) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg = ""
			err = fmt.Errorf("form: validator panic: %v", r)
		}
	}()
	return v.Validate(value, all), nil
}

func callAsync(ctx context.Context, v field.AsyncValidator, value field.Value, all field.Values) (desc *field.ErrorDescriptor, err error) {
	defer func() {
		if r := recover(); r != nil {
			desc = nil
			err = fmt.Errorf("form: async validator panic: %v", r)
		}
	}()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	return v.ValidateAsync(ctx, value, all)
}
