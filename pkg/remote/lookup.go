package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-formstate/pkg/field"
)

// DefaultInvalidMessage is used when the server rejects a value without a
// message.
const DefaultInvalidMessage = "Invalid value"

// ValuePlaceholder is replaced by the escaped field value in lookup paths.
const ValuePlaceholder = "{value}"

// ErrPathTemplate is returned when a lookup path has no value placeholder.
var ErrPathTemplate = errors.New("remote: lookup path must contain " + ValuePlaceholder)

// Lookup checks a field value against a remote endpoint. It satisfies
// field.AsyncValidator.
type Lookup struct {
	client       *Client
	path         string
	precondition func(field.Value) bool
	cache        Cache
	ttl          time.Duration
	logger       *slog.Logger
}

// LookupOption configures a Lookup.
type LookupOption func(*Lookup)

// WithPrecondition skips the request unless fn reports true. Skipped values
// are treated as accepted.
func WithPrecondition(fn func(field.Value) bool) LookupOption {
	return func(l *Lookup) {
		l.precondition = fn
	}
}

// WithCache stores verdicts in cache for ttl, keyed by the full request URL.
func WithCache(cache Cache, ttl time.Duration) LookupOption {
	return func(l *Lookup) {
		l.cache = cache
		l.ttl = ttl
	}
}

// WithLookupLogger sets the logger. Nil loggers are ignored.
func WithLookupLogger(logger *slog.Logger) LookupOption {
	return func(l *Lookup) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLookup builds a Lookup that issues GET requests for pathTemplate, for
// example "/corporation-number/{value}".
func NewLookup(client *Client, pathTemplate string, options ...LookupOption) (*Lookup, error) {
	if client == nil {
		return nil, errors.New("remote: lookup requires a client")
	}
	if !strings.Contains(pathTemplate, ValuePlaceholder) {
		return nil, fmt.Errorf("%w: %q", ErrPathTemplate, pathTemplate)
	}
	l := &Lookup{
		client: client,
		path:   pathTemplate,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

type lookupResponse struct {
	Valid   *bool  `json:"valid"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidateAsync resolves the value remotely. Transport failures and server
// errors are returned as errors; a rejection is returned as a descriptor.
func (l *Lookup) ValidateAsync(ctx context.Context, value field.Value, _ field.Values) (*field.ErrorDescriptor, error) {
	if l.precondition != nil && !l.precondition(value) {
		return nil, nil
	}

	path := strings.ReplaceAll(l.path, ValuePlaceholder, url.PathEscape(strings.TrimSpace(value.Raw)))
	key := l.client.BaseURL() + path

	if l.cache != nil {
		verdict, ok, err := l.cache.Get(ctx, key)
		if err != nil {
			l.logger.Warn("lookup cache read failed", slog.String("path", path), slog.Any("error", err))
		} else if ok {
			l.logger.Debug("lookup cache hit", slog.String("path", path))
			return verdict.descriptor(), nil
		}
	}

	res, err := l.client.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	verdict, err := parseVerdict(res)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, verdict, l.ttl); err != nil {
			l.logger.Warn("lookup cache write failed", slog.String("path", path), slog.Any("error", err))
		}
	}
	return verdict.descriptor(), nil
}

func parseVerdict(res Result) (Verdict, error) {
	if res.Status == StatusServerError {
		return Verdict{}, fmt.Errorf("remote: lookup failed with status %d", res.StatusCode)
	}

	var body lookupResponse
	if err := res.Decode(&body); err != nil {
		if res.Success && errors.Is(err, ErrEmptyBody) {
			return Verdict{Valid: true}, nil
		}
		if res.Success {
			return Verdict{}, fmt.Errorf("%w: %v", ErrUnexpectedResponse, err)
		}
		return Verdict{Message: DefaultInvalidMessage}, nil
	}

	message := SanitizeMessage(body.Message)
	switch {
	case body.Valid != nil && *body.Valid:
		return Verdict{Valid: true}, nil
	case body.Valid != nil || message != "" || !res.Success:
		if message == "" {
			message = DefaultInvalidMessage
		}
		return Verdict{Message: message, Code: body.Code}, nil
	default:
		return Verdict{Valid: true}, nil
	}
}

func (v Verdict) descriptor() *field.ErrorDescriptor {
	if v.Valid {
		return nil
	}
	return &field.ErrorDescriptor{Message: v.Message, Code: v.Code}
}
