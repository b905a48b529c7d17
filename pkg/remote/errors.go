package remote

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrBaseURLRequired is returned by NewClient for an empty base URL.
	ErrBaseURLRequired = errors.New("remote: base url is required")
	// ErrEmptyBody is returned when decoding a response without a body.
	ErrEmptyBody = errors.New("remote: empty response body")
	// ErrUnexpectedResponse is returned when a successful lookup response
	// cannot be decoded.
	ErrUnexpectedResponse = errors.New("remote: unexpected response")
	// ErrResponseTooLarge is returned when a response body exceeds 1 MiB.
	ErrResponseTooLarge = errors.New("remote: response too large")
)

const (
	// DefaultServerErrorMessage is shown when the server fails without a
	// usable message.
	DefaultServerErrorMessage = "Something went wrong, please try again later"
	// DefaultRejectedMessage is shown when the server rejects a submission
	// without a message.
	DefaultRejectedMessage = "Please review the highlighted fields"
)

// SubmissionError describes a submission the server did not accept.
type SubmissionError struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *SubmissionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: submission rejected with status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: submission rejected with status %d: %s", e.StatusCode, e.Message)
}

// UserMessage returns the message suitable for display.
func (e *SubmissionError) UserMessage() string {
	return e.Message
}

// FieldErrors flattens the per-field messages.
func (e *SubmissionError) FieldErrors() map[string]string {
	if len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Fields))
	for name, messages := range e.Fields {
		if len(messages) == 0 {
			continue
		}
		out[name] = strings.Join(messages, " ")
	}
	return out
}

// ErrorMapping splits a server error payload into field-level and form-level
// messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// MapErrorPayload normalises server error payloads, including JSON pointer
// style paths such as "/body/phone", onto the known field names. Unknown
// paths become form-level messages so nothing is lost. With no known names,
// the first meaningful path segment is used as the field name.
func MapErrorPayload(known []string, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}
	if len(payload) == 0 {
		mapping.Fields = nil
		return mapping
	}

	names := make(map[string]struct{}, len(known))
	for _, name := range known {
		if trimmed := strings.TrimSpace(name); trimmed != "" {
			names[trimmed] = struct{}{}
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, rawPath := range keys {
		messages := normalizeMessages(payload[rawPath])
		if len(messages) == 0 {
			continue
		}
		name, formLevel := mapErrorPath(rawPath, names)
		if formLevel {
			mapping.Form = append(mapping.Form, messages...)
			continue
		}
		mapping.Fields[name] = append(mapping.Fields[name], messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// MergeFormErrors concatenates and normalises form-level messages, trimming
// whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}
	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string, names map[string]struct{}) (string, bool) {
	if isFormLevelKey(raw) {
		return "", true
	}
	segments := stripNumericSegments(dropWrapperSegments(parsePathSegments(raw)))
	if len(segments) == 0 {
		return "", true
	}
	if len(names) == 0 {
		return segments[0], false
	}
	for _, segment := range segments {
		if _, ok := names[segment]; ok {
			return segment, false
		}
	}
	return "", true
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for strings.HasPrefix(clean, "#") || strings.HasPrefix(clean, "/") || strings.HasPrefix(clean, ".") || strings.HasPrefix(clean, "$") {
		clean = strings.TrimLeft(clean, "#/.$")
	}
	replacer := strings.NewReplacer("[", ".", "]", "")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 0 {
		switch strings.ToLower(out[0]) {
		case "body", "request", "payload", "data", "attributes", "errors":
			out = out[1:]
			continue
		}
		break
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
