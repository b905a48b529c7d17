package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/fieldconfig"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/remote"
)

// ErrSourceRequired is returned when a request names no document.
var ErrSourceRequired = errors.New("orchestrator: source or document is required")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithClient binds remote checks and submission to client.
func WithClient(client *remote.Client) Option {
	return func(o *Orchestrator) {
		o.client = client
	}
}

// WithCache stores lookup verdicts in cache for ttl.
func WithCache(cache remote.Cache, ttl time.Duration) Option {
	return func(o *Orchestrator) {
		o.cache = cache
		o.cacheTTL = ttl
	}
}

// WithLogger sets the logger passed to every built form. Nil loggers are
// ignored.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHooks attaches lifecycle hooks to every built form.
func WithHooks(hooks form.Hooks) Option {
	return func(o *Orchestrator) {
		o.hooks = hooks
	}
}

// WithTransformer registers a Transformer that runs on the document before
// descriptors are built.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		o.transformer = t
	}
}

// WithFS sets the filesystem used to resolve Request.Source paths. Defaults
// to the working directory.
func WithFS(fsys fs.FS) Option {
	return func(o *Orchestrator) {
		if fsys != nil {
			o.fsys = fsys
		}
	}
}

// Orchestrator builds forms from definition documents.
type Orchestrator struct {
	client      *remote.Client
	cache       remote.Cache
	cacheTTL    time.Duration
	logger      *slog.Logger
	hooks       form.Hooks
	transformer Transformer
	fsys        fs.FS
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		logger: slog.New(slog.DiscardHandler),
		fsys:   os.DirFS("."),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	return o
}

// Request describes the inputs required to build a form.
type Request struct {
	// Source is a path or http(s) URL of a field definition file, or of an
	// OpenAPI document when Operation is set. Optional when Document or Raw
	// is supplied.
	Source string

	// Raw holds the document bytes, bypassing Source.
	Raw []byte

	// Document bypasses loading altogether.
	Document *fieldconfig.Document

	// Operation selects the OpenAPI operation, by path or operationId.
	Operation string

	// InitialValues seeds field values.
	InitialValues map[string]string
}

// Build loads the requested document and returns a form bound to the
// configured client.
func (o *Orchestrator) Build(ctx context.Context, req Request) (*form.Form, error) {
	doc, err := o.Document(ctx, req)
	if err != nil {
		return nil, err
	}
	return o.FromDocument(doc, req.InitialValues)
}

// Document resolves and transforms the requested document without building a
// form.
func (o *Orchestrator) Document(ctx context.Context, req Request) (fieldconfig.Document, error) {
	if ctx == nil {
		return fieldconfig.Document{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return fieldconfig.Document{}, err
	}

	doc, err := o.resolveDocument(ctx, req)
	if err != nil {
		return fieldconfig.Document{}, err
	}
	if o.transformer != nil {
		if err := o.transformer.Transform(ctx, &doc); err != nil {
			return fieldconfig.Document{}, fmt.Errorf("orchestrator: transform %s: %w", doc.ID, err)
		}
	}
	return doc, nil
}

// FromDocument builds the form described by doc. Remote fields need a
// client; the submitter is attached when doc names a submit path.
func (o *Orchestrator) FromDocument(doc fieldconfig.Document, initial map[string]string) (*form.Form, error) {
	opts := fieldconfig.BuildOptions{}
	if o.client != nil {
		opts.Remote = o.lookupFor
	}
	fields, err := doc.Descriptors(opts)
	if err != nil {
		return nil, err
	}

	formOpts := []form.Option{
		form.WithLogger(o.logger),
		form.WithHooks(o.hooks),
		form.WithInitialValues(initial),
	}
	if doc.ID != "" {
		formOpts = append(formOpts, form.WithID(doc.ID))
	}
	if path := strings.TrimSpace(doc.Submit.Path); path != "" && o.client != nil {
		submitter, err := remote.NewSubmitter(o.client, path,
			remote.WithKnownFields(doc.Names()...),
			remote.WithSubmitterLogger(o.logger),
		)
		if err != nil {
			return nil, err
		}
		formOpts = append(formOpts, form.WithSubmitter(submitter))
	}

	f, err := form.New(fields, formOpts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build form %s: %w", doc.ID, err)
	}
	o.logger.Debug("form built",
		slog.String("form_id", f.ID()),
		slog.String("source", doc.Source),
		slog.Int("fields", len(fields)),
	)
	return f, nil
}

func (o *Orchestrator) lookupFor(cfg fieldconfig.FieldConfig) (field.AsyncValidator, error) {
	lookupOpts := []remote.LookupOption{remote.WithLookupLogger(o.logger)}
	if cfg.Remote.Length > 0 {
		lookupOpts = append(lookupOpts, remote.WithPrecondition(exactLength(cfg.Remote.Length)))
	}
	if o.cache != nil {
		lookupOpts = append(lookupOpts, remote.WithCache(o.cache, o.cacheTTL))
	}
	lookup, err := remote.NewLookup(o.client, cfg.Remote.Path, lookupOpts...)
	if err != nil {
		return nil, err
	}
	return lookup, nil
}

func (o *Orchestrator) resolveDocument(ctx context.Context, req Request) (fieldconfig.Document, error) {
	if req.Document != nil {
		return req.Document.Clone(), nil
	}

	raw := req.Raw
	source := strings.TrimSpace(req.Source)
	if len(raw) == 0 {
		if source == "" {
			return fieldconfig.Document{}, ErrSourceRequired
		}
		loaded, err := o.loadRaw(ctx, source)
		if err != nil {
			return fieldconfig.Document{}, err
		}
		raw = loaded
	}
	if source == "" {
		source = "inline"
	}

	if op := strings.TrimSpace(req.Operation); op != "" {
		return fieldconfig.FromOpenAPI(ctx, raw, op)
	}
	return fieldconfig.Parse(raw, source)
}

func (o *Orchestrator) loadRaw(ctx context.Context, source string) ([]byte, error) {
	if !isURL(source) {
		var (
			data []byte
			err  error
		)
		if filepath.IsAbs(source) {
			data, err = os.ReadFile(source)
		} else {
			data, err = fs.ReadFile(o.fsys, filepath.ToSlash(filepath.Clean(source)))
		}
		if err != nil {
			return nil, &fieldconfig.LoadError{Source: source, Err: err}
		}
		return data, nil
	}

	if o.client == nil {
		return nil, fmt.Errorf("orchestrator: load %s: remote client is required", source)
	}
	res, err := o.client.Get(ctx, source)
	if err != nil {
		return nil, &fieldconfig.LoadError{Source: source, Err: err}
	}
	if !res.Success {
		return nil, &fieldconfig.LoadError{Source: source, Err: fmt.Errorf("unexpected status %d", res.StatusCode)}
	}
	return res.Body, nil
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func exactLength(n int) func(field.Value) bool {
	return func(v field.Value) bool {
		return v.Raw != "" && utf8.RuneCountInString(v.Raw) == n
	}
}
