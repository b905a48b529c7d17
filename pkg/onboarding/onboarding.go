// Package onboarding builds the profile onboarding form: first and last
// name, phone number and a remotely checked corporation number.
package onboarding

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/goliatone/go-formstate/pkg/fieldconfig"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/orchestrator"
	"github.com/goliatone/go-formstate/pkg/remote"
)

// FormID is the id of the embedded definition.
const FormID = "onboarding"

const (
	FieldFirstName         = "firstName"
	FieldLastName          = "lastName"
	FieldPhone             = "phone"
	FieldCorporationNumber = "corporationNumber"
)

// ErrClientRequired is returned by New without a remote client.
var ErrClientRequired = errors.New("onboarding: client is required")

//go:embed onboarding.yaml
var definition []byte

// Document returns the embedded form definition.
func Document() (fieldconfig.Document, error) {
	return fieldconfig.Parse(definition, "onboarding.yaml")
}

// Options wires the onboarding form to its backend.
type Options struct {
	Client        *remote.Client
	Cache         remote.Cache
	CacheTTL      time.Duration
	Logger        *slog.Logger
	Hooks         form.Hooks
	Transformer   orchestrator.Transformer
	InitialValues map[string]string
}

// New builds the onboarding form. Remote checks and submission go through
// opts.Client.
func New(opts Options) (*form.Form, error) {
	if opts.Client == nil {
		return nil, ErrClientRequired
	}

	doc, err := Document()
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(
		orchestrator.WithClient(opts.Client),
		orchestrator.WithCache(opts.Cache, opts.CacheTTL),
		orchestrator.WithLogger(opts.Logger),
		orchestrator.WithHooks(opts.Hooks),
		orchestrator.WithTransformer(opts.Transformer),
	)
	return orch.Build(context.Background(), orchestrator.Request{
		Document:      &doc,
		InitialValues: opts.InitialValues,
	})
}
