package fieldconfig

import (
	"fmt"
	"regexp"

	"github.com/goliatone/go-formstate/pkg/field"
)

// RemoteFactory binds a declared remote check to an async validator.
type RemoteFactory func(cfg FieldConfig) (field.AsyncValidator, error)

// BuildOptions controls how descriptors are built.
type BuildOptions struct {
	Remote RemoteFactory
}

// Descriptors turns the document into field descriptors, in declaration
// order.
func (d Document) Descriptors(opts BuildOptions) ([]field.Descriptor, error) {
	out := make([]field.Descriptor, 0, len(d.Fields))
	for _, cfg := range d.Fields {
		desc, err := d.descriptor(cfg, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, desc)
	}
	return out, nil
}

func (d Document) descriptor(cfg FieldConfig, opts BuildOptions) (field.Descriptor, error) {
	validator, err := cfg.validator()
	if err != nil {
		return field.Descriptor{}, &LoadError{Source: d.Source, Field: cfg.Name, Err: err}
	}

	desc := field.Descriptor{
		Name:        cfg.Name,
		Label:       cfg.Label,
		Kind:        field.ParseKind(cfg.Kind),
		Required:    cfg.Required,
		MaxLength:   cfg.MaxLength,
		Placeholder: cfg.Placeholder,
		Validator:   validator,
	}
	if desc.MaxLength == 0 {
		desc.MaxLength = cfg.Length
	}

	if cfg.Remote != nil {
		if opts.Remote == nil {
			return field.Descriptor{}, &LoadError{Source: d.Source, Field: cfg.Name, Err: ErrNoRemoteFactory}
		}
		async, err := opts.Remote(cfg)
		if err != nil {
			return field.Descriptor{}, &LoadError{Source: d.Source, Field: cfg.Name, Err: err}
		}
		desc.AsyncValidator = async
	}
	return desc, nil
}

func (cfg FieldConfig) validator() (field.Validator, error) {
	var rules []field.Validator
	if cfg.Required {
		rules = append(rules, field.Required(cfg.message("required")))
	}
	if cfg.MinLength > 0 {
		rules = append(rules, field.MinLength(cfg.MinLength, cfg.message("minLength")))
	}
	if cfg.MaxLength > 0 {
		rules = append(rules, field.MaxLength(cfg.MaxLength, cfg.message("maxLength")))
	}
	if cfg.Length > 0 {
		rules = append(rules, field.ExactLength(cfg.Length, cfg.message("length")))
	}
	if cfg.Pattern != "" {
		re, err := regexp.Compile(cfg.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		rules = append(rules, field.Pattern(re, cfg.message("pattern")))
	}
	if cfg.Min != nil {
		rules = append(rules, field.Min(*cfg.Min, cfg.message("min")))
	}
	if cfg.Max != nil {
		rules = append(rules, field.Max(*cfg.Max, cfg.message("max")))
	}
	return field.All(rules...), nil
}

func (cfg FieldConfig) message(rule string) string {
	if cfg.Messages == nil {
		return ""
	}
	return cfg.Messages[rule]
}
