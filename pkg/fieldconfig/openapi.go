package fieldconfig

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

const (
	extensionKey = "x-formstate"
	jsonMIME     = "application/json"
)

// FromOpenAPI derives a document from the JSON request body of an operation.
// operation is either an operationId or a path whose POST operation is used.
//
// Field kind, label, placeholder, order, messages and remote checks may be
// set through an "x-formstate" extension object on each property.
func FromOpenAPI(ctx context.Context, raw []byte, operation string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	if len(raw) == 0 {
		return Document{}, &LoadError{Source: "openapi", Err: ErrEmptyDocument}
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: false,
	}
	api, err := loader.LoadFromData(raw)
	if err != nil {
		return Document{}, &LoadError{Source: "openapi", Err: fmt.Errorf("load document: %w", err)}
	}

	path, op := findOperation(api, strings.TrimSpace(operation))
	if op == nil {
		return Document{}, &LoadError{Source: "openapi", Err: fmt.Errorf("%w: %q", ErrOperationNotFound, operation)}
	}

	source := "openapi:" + path
	schema := requestSchema(op)
	if schema == nil {
		return Document{}, &LoadError{Source: source, Err: fmt.Errorf("operation has no %s request body", jsonMIME)}
	}

	doc := Document{
		ID:     op.OperationID,
		Submit: SubmitConfig{Path: path},
		Source: source,
	}
	if doc.ID == "" {
		doc.ID = strings.Trim(strings.ReplaceAll(path, "/", "-"), "-")
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	type ordered struct {
		cfg   FieldConfig
		order float64
	}
	fields := make([]ordered, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil {
			continue
		}
		cfg, order := fieldFromSchema(name, ref.Value, required[name])
		fields = append(fields, ordered{cfg: cfg, order: order})
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].order != fields[j].order {
			return fields[i].order < fields[j].order
		}
		return fields[i].cfg.Name < fields[j].cfg.Name
	})
	for _, f := range fields {
		doc.Fields = append(doc.Fields, f.cfg)
	}

	if err := doc.normalise(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func findOperation(api *openapi3.T, operation string) (string, *openapi3.Operation) {
	if api == nil || api.Paths == nil || operation == "" {
		return "", nil
	}
	paths := api.Paths.Map()
	if item, ok := paths[operation]; ok && item != nil && item.Post != nil {
		return operation, item.Post
	}

	keys := make([]string, 0, len(paths))
	for path := range paths {
		keys = append(keys, path)
	}
	sort.Strings(keys)
	for _, path := range keys {
		item := paths[path]
		if item == nil {
			continue
		}
		for _, op := range []*openapi3.Operation{item.Post, item.Put, item.Patch} {
			if op != nil && op.OperationID == operation {
				return path, op
			}
		}
	}
	return "", nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get(jsonMIME)
	if media == nil || media.Schema == nil || media.Schema.Value == nil {
		return nil
	}
	return media.Schema.Value
}

func fieldFromSchema(name string, src *openapi3.Schema, required bool) (FieldConfig, float64) {
	cfg := FieldConfig{
		Name:     name,
		Label:    src.Title,
		Kind:     kindFromSchema(src),
		Required: required,
		Pattern:  src.Pattern,
	}
	if src.MinLength > 0 {
		cfg.MinLength = int(src.MinLength)
	}
	if src.MaxLength != nil {
		cfg.MaxLength = int(*src.MaxLength)
	}
	if cfg.MinLength > 0 && cfg.MinLength == cfg.MaxLength {
		cfg.Length = cfg.MinLength
		cfg.MinLength, cfg.MaxLength = 0, 0
	}
	if src.Min != nil {
		value := *src.Min
		cfg.Min = &value
	}
	if src.Max != nil {
		value := *src.Max
		cfg.Max = &value
	}

	order := math.Inf(1)
	ext, _ := src.Extensions[extensionKey].(map[string]any)
	if len(ext) == 0 {
		return cfg, order
	}
	if kind := stringValue(ext["kind"]); kind != "" {
		cfg.Kind = kind
	}
	if label := stringValue(ext["label"]); label != "" {
		cfg.Label = label
	}
	cfg.Placeholder = stringValue(ext["placeholder"])
	if n, ok := numberValue(ext["order"]); ok {
		order = n
	}
	if messages, ok := ext["messages"].(map[string]any); ok {
		cfg.Messages = make(map[string]string, len(messages))
		for rule, msg := range messages {
			if text := stringValue(msg); text != "" {
				cfg.Messages[rule] = text
			}
		}
	}
	if remote, ok := ext["remote"].(map[string]any); ok {
		cfg.Remote = &RemoteConfig{Path: stringValue(remote["path"])}
		if n, ok := numberValue(remote["length"]); ok {
			cfg.Remote.Length = int(n)
		}
	}
	return cfg, order
}

func kindFromSchema(src *openapi3.Schema) string {
	typ := ""
	if src.Type != nil {
		if values := src.Type.Slice(); len(values) > 0 {
			typ = values[0]
		}
	}
	switch typ {
	case "integer", "number":
		return "number"
	}
	switch strings.ToLower(src.Format) {
	case "email":
		return "email"
	case "date":
		return "date"
	case "tel", "phone":
		return "tel"
	}
	return "text"
}

func stringValue(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
