package fieldconfig

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"maps"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document describes one form.
type Document struct {
	ID     string        `json:"id" yaml:"id"`
	Submit SubmitConfig  `json:"submit" yaml:"submit"`
	Fields []FieldConfig `json:"fields" yaml:"fields"`
	Source string        `json:"-" yaml:"-"`
}

// SubmitConfig names the endpoint that receives the values.
type SubmitConfig struct {
	Path string `json:"path" yaml:"path"`
}

// FieldConfig declares a single field and its rules. Zero values disable a
// rule.
type FieldConfig struct {
	Name        string `json:"name" yaml:"name"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Kind        string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`

	MinLength int      `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength int      `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Length    int      `json:"length,omitempty" yaml:"length,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Messages overrides rule messages keyed by rule name: required,
	// minLength, maxLength, length, pattern, min, max.
	Messages map[string]string `json:"messages,omitempty" yaml:"messages,omitempty"`

	Remote *RemoteConfig `json:"remote,omitempty" yaml:"remote,omitempty"`
}

// RemoteConfig declares a remote check. Path contains a {value} placeholder.
// When Length is set the check only runs for values of exactly that length.
type RemoteConfig struct {
	Path   string `json:"path" yaml:"path"`
	Length int    `json:"length,omitempty" yaml:"length,omitempty"`
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	out := d
	if d.Fields == nil {
		return out
	}
	out.Fields = make([]FieldConfig, len(d.Fields))
	for i, f := range d.Fields {
		out.Fields[i] = f.Clone()
	}
	return out
}

// Clone returns a deep copy of f.
func (f FieldConfig) Clone() FieldConfig {
	out := f
	if f.Min != nil {
		v := *f.Min
		out.Min = &v
	}
	if f.Max != nil {
		v := *f.Max
		out.Max = &v
	}
	out.Messages = maps.Clone(f.Messages)
	if f.Remote != nil {
		r := *f.Remote
		out.Remote = &r
	}
	return out
}

// Names lists the field names in declaration order.
func (d Document) Names() []string {
	out := make([]string, 0, len(d.Fields))
	for _, f := range d.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Parse decodes a JSON or YAML document. source is used in error messages.
func Parse(data []byte, source string) (Document, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Document{}, &LoadError{Source: source, Err: ErrEmptyDocument}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = Document{}
		if yerr := yaml.Unmarshal(data, &doc); yerr != nil {
			return Document{}, &LoadError{Source: source, Err: fmt.Errorf("invalid JSON or YAML: %w", yerr)}
		}
	}
	doc.Source = source
	if err := doc.normalise(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Load reads a single document from fsys.
func Load(fsys fs.FS, path string) (Document, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Document{}, &LoadError{Source: path, Err: err}
	}
	return Parse(data, path)
}

// LoadFS walks fsys and parses every .json, .yaml and .yml file. Documents
// are keyed by ID, falling back to the file name without extension.
func LoadFS(fsys fs.FS) (map[string]Document, error) {
	docs := make(map[string]Document)
	if fsys == nil {
		return docs, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDocumentFile(path) {
			return nil
		}

		doc, err := Load(fsys, path)
		if err != nil {
			return err
		}
		id := doc.ID
		if id == "" {
			id = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			doc.ID = id
		}
		if existing, exists := docs[id]; exists {
			return &LoadError{Source: path, Err: fmt.Errorf("duplicate form %q (also in %s)", id, existing.Source)}
		}
		docs[id] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (d *Document) normalise() error {
	d.ID = strings.TrimSpace(d.ID)
	d.Submit.Path = strings.TrimSpace(d.Submit.Path)
	if len(d.Fields) == 0 {
		return &LoadError{Source: d.Source, Err: ErrNoFields}
	}

	seen := make(map[string]struct{}, len(d.Fields))
	for i := range d.Fields {
		f := &d.Fields[i]
		f.Name = strings.TrimSpace(f.Name)
		if f.Name == "" {
			return &LoadError{Source: d.Source, Err: fmt.Errorf("field #%d has no name", i)}
		}
		if _, dup := seen[f.Name]; dup {
			return &LoadError{Source: d.Source, Field: f.Name, Err: fmt.Errorf("duplicate field")}
		}
		seen[f.Name] = struct{}{}

		if f.MinLength < 0 || f.MaxLength < 0 || f.Length < 0 {
			return &LoadError{Source: d.Source, Field: f.Name, Err: fmt.Errorf("length rules must not be negative")}
		}
		if f.MaxLength > 0 && f.MinLength > f.MaxLength {
			return &LoadError{Source: d.Source, Field: f.Name, Err: fmt.Errorf("minLength %d exceeds maxLength %d", f.MinLength, f.MaxLength)}
		}
		if f.Remote != nil {
			f.Remote.Path = strings.TrimSpace(f.Remote.Path)
			if f.Remote.Path == "" {
				return &LoadError{Source: d.Source, Field: f.Name, Err: fmt.Errorf("remote check has no path")}
			}
		}
	}
	return nil
}

func isDocumentFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
