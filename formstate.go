// Package formstate is the entry point for building and driving forms.
// It re-exports the core types and offers shortcuts over the orchestrator.
package formstate

import (
	"context"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/fieldconfig"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
)

// Form aliases form.Form.
type Form = form.Form

// Snapshot is a copy of the form state.
type Snapshot = form.Snapshot

// Hooks aliases form.Hooks for callers wiring metrics or tracing.
type Hooks = form.Hooks

// Descriptor declares one field.
type Descriptor = field.Descriptor

// Values maps field names to raw input.
type Values = field.Values

// Document describes a form definition file.
type Document = fieldconfig.Document

// New builds a form from descriptors.
func New(fields []Descriptor, options ...form.Option) (*Form, error) {
	return form.New(fields, options...)
}

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Load builds the form described by the definition file at source, a path
// or http(s) URL.
func Load(ctx context.Context, source string, options ...orchestrator.Option) (*Form, error) {
	return orchestrator.New(options...).Build(ctx, orchestrator.Request{Source: source})
}

// LoadOpenAPI builds the form for operation, a path or operationId, of the
// OpenAPI document at source.
func LoadOpenAPI(ctx context.Context, source, operation string, options ...orchestrator.Option) (*Form, error) {
	return orchestrator.New(options...).Build(ctx, orchestrator.Request{
		Source:    source,
		Operation: operation,
	})
}

// FromDocument builds a form from an already parsed document.
func FromDocument(ctx context.Context, doc Document, options ...orchestrator.Option) (*Form, error) {
	return orchestrator.New(options...).Build(ctx, orchestrator.Request{Document: &doc})
}
