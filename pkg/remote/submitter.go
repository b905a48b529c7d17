package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
)

// Submitter posts form values as JSON. It satisfies form.Submitter.
type Submitter struct {
	client *Client
	path   string
	fields []string
	logger *slog.Logger
}

// SubmitterOption configures a Submitter.
type SubmitterOption func(*Submitter)

// WithKnownFields limits server field errors to the given names. Errors for
// other paths become part of the form-level message.
func WithKnownFields(names ...string) SubmitterOption {
	return func(s *Submitter) {
		s.fields = append(s.fields[:0], names...)
	}
}

// WithSubmitterLogger sets the logger. Nil loggers are ignored.
func WithSubmitterLogger(logger *slog.Logger) SubmitterOption {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSubmitter posts to path on client.
func NewSubmitter(client *Client, path string, options ...SubmitterOption) (*Submitter, error) {
	if client == nil {
		return nil, errors.New("remote: submitter requires a client")
	}
	s := &Submitter{
		client: client,
		path:   path,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

type rejectionBody struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// Submit posts values. A 400 response becomes a *SubmissionError carrying
// the server message and field errors; other failures carry a generic
// message.
func (s *Submitter) Submit(ctx context.Context, values field.Values) error {
	res, err := s.client.Post(ctx, s.path, map[string]string(values))
	if err != nil {
		return err
	}
	if res.Success {
		return nil
	}

	if res.StatusCode != http.StatusBadRequest {
		s.logger.Warn("submission failed", slog.Int("status", res.StatusCode))
		return &SubmissionError{StatusCode: res.StatusCode, Message: DefaultServerErrorMessage}
	}

	var body rejectionBody
	if err := res.Decode(&body); err != nil {
		s.logger.Debug("rejection body not decoded", slog.Any("error", err))
	}
	mapping := MapErrorPayload(s.fields, decodeFieldErrors(body.Errors))

	message := SanitizeMessage(body.Message)
	form := MergeFormErrors([]string{message}, mapping.Form...)
	if len(form) == 0 {
		form = []string{DefaultRejectedMessage}
	}

	for name, messages := range mapping.Fields {
		for i := range messages {
			messages[i] = SanitizeMessage(messages[i])
		}
		mapping.Fields[name] = messages
	}

	return &SubmissionError{
		StatusCode: res.StatusCode,
		Message:    strings.Join(form, " "),
		Fields:     mapping.Fields,
	}
}

// decodeFieldErrors accepts both "field": "message" and
// "field": ["message", ...] shapes.
func decodeFieldErrors(raw map[string]json.RawMessage) map[string][]string {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string][]string, len(raw))
	for key, value := range raw {
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			out[key] = []string{single}
			continue
		}
		var many []string
		if err := json.Unmarshal(value, &many); err == nil {
			out[key] = many
		}
	}
	return out
}
