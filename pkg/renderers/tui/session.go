package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/form"
)

const (
	validatingMessage = "Validating..."
	submittedMessage  = "Form submission successful"
	requiredMessage   = "Required"
)

// Session drives a form from the terminal: it prompts for each field,
// validates on entry, then confirms and submits.
type Session struct {
	form         *form.Form
	driver       PromptDriver
	outputFormat OutputFormat
	theme        Theme
	maxAttempts  int
	secret       map[string]bool
	logger       *slog.Logger
}

// NewSession constructs a session with defaults (survey driver, JSON output,
// unlimited attempts).
func NewSession(f *form.Form, options ...Option) (*Session, error) {
	if f == nil {
		return nil, errors.New("tui: form is required")
	}
	s := &Session{
		form:         f,
		driver:       NewSurveyDriver(nil),
		outputFormat: OutputFormatJSON,
		secret:       make(map[string]bool),
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s, nil
}

// ContentType reports the serialization format used by Run.
func (s *Session) ContentType() string {
	switch s.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Run prompts until every field is valid, asks for confirmation and submits.
// When the submission fails the message is shown and the fields the server
// flagged (or all fields, when none were flagged) are prompted again. The
// submitted values are returned serialized.
func (s *Session) Run(ctx context.Context) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	fields := s.form.Fields()
	pending := fields

	for round := 1; ; round++ {
		for _, desc := range pending {
			if err := s.promptField(ctx, desc); err != nil {
				return nil, err
			}
		}

		ok, err := s.driver.Confirm(ctx, ConfirmConfig{Message: "Submit?", Default: true})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDeclined
		}

		values := s.form.Values()
		submitErr := s.form.HandleSubmit(ctx)
		if submitErr == nil {
			s.info(ctx, submittedMessage)
			return s.serialize(fields, values)
		}

		snap := s.form.Snapshot()
		s.fail(ctx, snap.SubmitError)
		s.logger.Debug("submission failed", slog.Int("round", round), slog.Any("error", submitErr))
		if s.maxAttempts > 0 && round >= s.maxAttempts {
			return nil, fmt.Errorf("%w: %w", ErrTooManyAttempts, submitErr)
		}

		pending = flagged(fields, snap)
		if len(pending) == 0 {
			pending = fields
		}
	}
}

func (s *Session) promptField(ctx context.Context, desc field.Descriptor) error {
	label := desc.DisplayLabel()
	for attempt := 1; ; attempt++ {
		current := s.form.Values()[desc.Name]
		response, err := s.driver.Input(ctx, InputConfig{
			Message: label,
			Default: current,
			Help:    desc.Placeholder,
			Secret:  s.secret[desc.Name],
		})
		if err != nil {
			return err
		}
		if err := s.form.HandleChange(desc.Name, response); err != nil {
			return err
		}

		msg, err := s.validate(ctx, desc)
		if err != nil {
			return err
		}
		if msg == "" {
			return nil
		}
		s.fail(ctx, fmt.Sprintf("%s: %s", label, msg))
		if s.maxAttempts > 0 && attempt >= s.maxAttempts {
			return fmt.Errorf("%w: %s", ErrTooManyAttempts, desc.Name)
		}
	}
}

// validate blurs the field and returns the visible error. Required fields
// without a validator still need a non-blank value.
func (s *Session) validate(ctx context.Context, desc field.Descriptor) (string, error) {
	announced := false
	cancel := s.form.Subscribe(func(snap form.Snapshot) {
		if snap.Loading[desc.Name] && !announced {
			announced = true
			s.info(ctx, validatingMessage)
		}
	})
	err := s.form.HandleBlur(ctx, desc.Name)
	cancel()
	if err != nil {
		return "", err
	}

	snap := s.form.Snapshot()
	if msg := snap.VisibleError(desc.Name); msg != "" {
		return msg, nil
	}
	if desc.Required && strings.TrimSpace(snap.Values[desc.Name]) == "" {
		return requiredMessage, nil
	}
	return "", nil
}

func (s *Session) info(ctx context.Context, msg string) {
	_ = s.driver.Info(ctx, s.theme.InfoPrefix+msg)
}

func (s *Session) fail(ctx context.Context, msg string) {
	if msg == "" {
		return
	}
	_ = s.driver.Info(ctx, s.theme.ErrorPrefix+msg)
}

func flagged(fields []field.Descriptor, snap form.Snapshot) []field.Descriptor {
	var out []field.Descriptor
	for _, desc := range fields {
		if snap.VisibleError(desc.Name) != "" {
			out = append(out, desc)
		}
	}
	return out
}

func (s *Session) serialize(fields []field.Descriptor, values field.Values) ([]byte, error) {
	return Encode(s.outputFormat, fields, values)
}

// Encode serializes values in format. Pretty output follows the order of
// fields.
func Encode(format OutputFormat, fields []field.Descriptor, values field.Values) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		encoded := url.Values{}
		for name, value := range values {
			encoded.Set(name, value)
		}
		return []byte(encoded.Encode()), nil
	case OutputFormatPrettyText:
		var b strings.Builder
		for _, desc := range fields {
			fmt.Fprintf(&b, "%s: %s\n", desc.DisplayLabel(), values[desc.Name])
		}
		return []byte(b.String()), nil
	default:
		out, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode values: %w", err)
		}
		return out, nil
	}
}
