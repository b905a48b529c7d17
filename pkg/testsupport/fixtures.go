package testsupport

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-formstate/pkg/field"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// SpyValidator counts synchronous validator invocations and returns a fixed
// message.
type SpyValidator struct {
	Message string

	mu    sync.Mutex
	calls []string
}

// Validate records the value and returns s.Message.
func (s *SpyValidator) Validate(value field.Value, _ field.Values) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, value.Raw)
	return s.Message
}

// Calls returns the values the validator received.
func (s *SpyValidator) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// AsyncSpy is an AsyncValidator that records its invocations and delegates
// to Fn.
type AsyncSpy struct {
	Fn func(ctx context.Context, value field.Value, all field.Values) (*field.ErrorDescriptor, error)

	mu    sync.Mutex
	calls []string
}

// ValidateAsync records the value and delegates to Fn. A nil Fn reports
// success.
func (s *AsyncSpy) ValidateAsync(ctx context.Context, value field.Value, all field.Values) (*field.ErrorDescriptor, error) {
	s.mu.Lock()
	s.calls = append(s.calls, value.Raw)
	s.mu.Unlock()
	if s.Fn == nil {
		return nil, nil
	}
	return s.Fn(ctx, value, all)
}

// Calls returns the values the validator received.
func (s *AsyncSpy) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type gatedResult struct {
	desc *field.ErrorDescriptor
	err  error
}

// GatedCall is one pending GatedValidator invocation.
type GatedCall struct {
	Value string
	done  chan gatedResult
}

// Release completes the call with desc.
func (c *GatedCall) Release(desc *field.ErrorDescriptor) {
	c.done <- gatedResult{desc: desc}
}

// Fail completes the call with err.
func (c *GatedCall) Fail(err error) {
	if err == nil {
		err = errors.New("gated validator: failure")
	}
	c.done <- gatedResult{err: err}
}

// GatedValidator is an AsyncValidator whose calls block until the test
// releases them. It lets tests interleave changes and blurs with pending
// validations deterministically.
type GatedValidator struct {
	started chan *GatedCall
}

// NewGatedValidator constructs a GatedValidator.
func NewGatedValidator() *GatedValidator {
	return &GatedValidator{started: make(chan *GatedCall, 16)}
}

// ValidateAsync announces the call and waits for it to be released.
func (g *GatedValidator) ValidateAsync(ctx context.Context, value field.Value, _ field.Values) (*field.ErrorDescriptor, error) {
	call := &GatedCall{Value: value.Raw, done: make(chan gatedResult, 1)}
	g.started <- call
	select {
	case res := <-call.done:
		return res.desc, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// AwaitStart blocks until a call has started and returns it.
func (g *GatedValidator) AwaitStart(t *testing.T) *GatedCall {
	t.Helper()
	select {
	case call := <-g.started:
		return call
	case <-time.After(2 * time.Second):
		t.Fatalf("gated validator: call did not start")
		return nil
	}
}

// RecordingSubmitter captures submitted values and returns Err.
type RecordingSubmitter struct {
	Err   error
	Panic any

	mu    sync.Mutex
	calls []field.Values
}

// Submit records values.
func (r *RecordingSubmitter) Submit(_ context.Context, values field.Values) error {
	r.mu.Lock()
	r.calls = append(r.calls, values)
	r.mu.Unlock()
	if r.Panic != nil {
		panic(r.Panic)
	}
	return r.Err
}

// Calls returns the recorded submissions.
func (r *RecordingSubmitter) Calls() []field.Values {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]field.Values(nil), r.calls...)
}
