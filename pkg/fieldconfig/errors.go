package fieldconfig

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned for documents without content.
	ErrEmptyDocument = errors.New("fieldconfig: document is empty")
	// ErrNoFields is returned for documents that declare no fields.
	ErrNoFields = errors.New("fieldconfig: document declares no fields")
	// ErrOperationNotFound is returned when FromOpenAPI cannot locate the
	// requested operation.
	ErrOperationNotFound = errors.New("fieldconfig: operation not found")
	// ErrNoRemoteFactory is returned when a document declares remote checks
	// but no factory was supplied.
	ErrNoRemoteFactory = errors.New("fieldconfig: remote check declared without a factory")
)

// LoadError locates a problem within a document.
type LoadError struct {
	Source string
	Field  string
	Err    error
}

func (e *LoadError) Error() string {
	switch {
	case e.Field != "" && e.Source != "":
		return fmt.Sprintf("fieldconfig: %s: field %q: %v", e.Source, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("fieldconfig: field %q: %v", e.Field, e.Err)
	case e.Source != "":
		return fmt.Sprintf("fieldconfig: %s: %v", e.Source, e.Err)
	default:
		return fmt.Sprintf("fieldconfig: %v", e.Err)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
