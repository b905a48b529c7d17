package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/fieldconfig"
)

// Transformer mutates a Document before descriptors are built.
type Transformer interface {
	Transform(ctx context.Context, doc *fieldconfig.Document) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, doc *fieldconfig.Document) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, doc *fieldconfig.Document) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, doc)
}

// PresetTransformer applies declarative overrides loaded from a JSON or YAML
// file:
//
//	submit: /v2/profile-details
//	fields:
//	  phone:
//	    label: Mobile
//	    required: false
//	    messages:
//	      pattern: Use the +1XXXXXXXXXX format
type PresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Submit string                `json:"submit" yaml:"submit"`
	Fields map[string]fieldPatch `json:"fields" yaml:"fields"`
}

type fieldPatch struct {
	Label       string            `json:"label" yaml:"label"`
	Placeholder string            `json:"placeholder" yaml:"placeholder"`
	Kind        string            `json:"kind" yaml:"kind"`
	Required    *bool             `json:"required" yaml:"required"`
	Messages    map[string]string `json:"messages" yaml:"messages"`
}

// NewPresetTransformer constructs a transformer from raw bytes. YAML being a
// superset of JSON, both formats are accepted.
func NewPresetTransformer(data []byte) (*PresetTransformer, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("preset transformer: parse document: %w", err)
	}
	return &PresetTransformer{document: document}, nil
}

// NewPresetTransformerFromFS loads a preset document from fsys.
func NewPresetTransformerFromFS(fsys fs.FS, path string) (*PresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("preset transformer: filesystem is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("preset transformer: read %s: %w", path, err)
	}
	return NewPresetTransformer(data)
}

// Transform applies the patches onto doc. Patching an unknown field is an
// error.
func (t *PresetTransformer) Transform(ctx context.Context, doc *fieldconfig.Document) error {
	if doc == nil {
		return errors.New("preset transformer: document is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if submit := strings.TrimSpace(t.document.Submit); submit != "" {
		doc.Submit.Path = submit
	}

	names := make([]string, 0, len(t.document.Fields))
	for name := range t.document.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cfg := findField(doc.Fields, name)
		if cfg == nil {
			return fmt.Errorf("preset transformer: field %q not found", name)
		}
		applyFieldPatch(cfg, t.document.Fields[name])
	}
	return nil
}

func applyFieldPatch(cfg *fieldconfig.FieldConfig, patch fieldPatch) {
	if patch.Label != "" {
		cfg.Label = patch.Label
	}
	if patch.Placeholder != "" {
		cfg.Placeholder = patch.Placeholder
	}
	if patch.Kind != "" {
		cfg.Kind = patch.Kind
	}
	if patch.Required != nil {
		cfg.Required = *patch.Required
	}
	if len(patch.Messages) > 0 {
		cfg.Messages = mergeStringMap(cfg.Messages, patch.Messages)
	}
}

func findField(fields []fieldconfig.FieldConfig, name string) *fieldconfig.FieldConfig {
	name = strings.TrimSpace(name)
	for idx := range fields {
		if fields[idx].Name == name {
			return &fields[idx]
		}
	}
	return nil
}

func mergeStringMap(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	out := make(map[string]string, len(dst)+len(src))
	for key, value := range dst {
		out[key] = value
	}
	for key, value := range src {
		out[key] = value
	}
	return out
}
