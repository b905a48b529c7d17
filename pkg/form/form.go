package form

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/goliatone/go-formstate/pkg/field"
)

// Form owns the state of one form instance.
type Form struct {
	id                  string
	fields              []field.Descriptor
	index               map[string]int
	initial             map[string]string
	submitter           Submitter
	hooks               Hooks
	logger              *slog.Logger
	asyncFailureMessage string

	mu    sync.Mutex
	state state

	listenersMu  sync.Mutex
	listeners    map[uint64]func(Snapshot)
	nextListener uint64
}

// New builds a form for the given fields. Field names must be unique and
// non-empty.
func New(fields []field.Descriptor, options ...Option) (*Form, error) {
	f := &Form{
		id:                  uuid.NewString(),
		fields:              make([]field.Descriptor, 0, len(fields)),
		index:               make(map[string]int, len(fields)),
		logger:              slog.New(slog.DiscardHandler),
		asyncFailureMessage: DefaultAsyncFailureMessage,
		listeners:           make(map[uint64]func(Snapshot)),
	}

	for _, desc := range fields {
		name := strings.TrimSpace(desc.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidField)
		}
		if name != desc.Name {
			return nil, fmt.Errorf("%w: name %q has surrounding whitespace", ErrInvalidField, desc.Name)
		}
		if _, exists := f.index[name]; exists {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidField, name)
		}
		if desc.Kind == "" {
			desc.Kind = field.KindText
		}
		f.index[name] = len(f.fields)
		f.fields = append(f.fields, desc)
	}

	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(f)
	}

	f.logger = f.logger.With(slog.String("form_id", f.id))
	f.state = newState(f.fields, f.initial)
	return f, nil
}

// ID returns the form instance id.
func (f *Form) ID() string {
	return f.id
}

// Fields returns the descriptors in declaration order.
func (f *Form) Fields() []field.Descriptor {
	out := make([]field.Descriptor, len(f.fields))
	copy(out, f.fields)
	return out
}

// Field returns the descriptor registered under name.
func (f *Form) Field(name string) (field.Descriptor, bool) {
	idx, ok := f.index[name]
	if !ok {
		return field.Descriptor{}, false
	}
	return f.fields[idx], true
}

// CanSubmit reports whether a submitter is configured.
func (f *Form) CanSubmit() bool {
	return f.submitter != nil
}

func (f *Form) lookup(name string) (field.Descriptor, error) {
	desc, ok := f.Field(name)
	if !ok {
		return field.Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return desc, nil
}

// Subscribe registers fn to receive a snapshot after every committed
// mutation. The returned function removes the listener.
func (f *Form) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	f.listenersMu.Lock()
	id := f.nextListener
	f.nextListener++
	f.listeners[id] = fn
	f.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.listenersMu.Lock()
			delete(f.listeners, id)
			f.listenersMu.Unlock()
		})
	}
}

func (f *Form) publish(snap Snapshot) {
	f.listenersMu.Lock()
	if len(f.listeners) == 0 {
		f.listenersMu.Unlock()
		return
	}
	ids := make([]uint64, 0, len(f.listeners))
	for id := range f.listeners {
		ids = append(ids, id)
	}
	fns := make([]func(Snapshot), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, f.listeners[id])
	}
	f.listenersMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
