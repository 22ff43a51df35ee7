package template

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrMalformedTemplate marks a template definition rejected at load time.
var ErrMalformedTemplate = errors.New("malformed template")

// Store holds the validated templates for a run, keyed by template ID
// (the definition file's name without extension).
type Store struct {
	templates map[string]*Template
	order     []string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{templates: make(map[string]*Template)}
}

// LoadDir loads every *.json template definition in dir. Invalid templates
// are skipped with a logged reason; valid ones are kept. Returns the number
// of templates loaded.
func (s *Store) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading template directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	loaded := 0
	for _, name := range names {
		path := filepath.Join(dir, name)
		tpl, err := loadFile(path)
		if err != nil {
			slog.Warn("Skipping invalid template", "file", name, "error", err)
			continue
		}
		id := strings.TrimSuffix(name, filepath.Ext(name))
		s.templates[id] = tpl
		s.order = append(s.order, id)
		loaded++
		slog.Info("Template loaded", "file", name, "provider", tpl.ProviderName)
	}

	return loaded, nil
}

// Get returns the template with the given ID.
func (s *Store) Get(id string) (*Template, bool) {
	tpl, ok := s.templates[id]
	return tpl, ok
}

// IDs returns all template IDs in load order. Identification iterates in
// this order; the first match wins.
func (s *Store) IDs() []string {
	return append([]string(nil), s.order...)
}

// Len returns the number of loaded templates.
func (s *Store) Len() int {
	return len(s.templates)
}

func loadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading template: %w", err)
	}

	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTemplate, err)
	}
	if err := Validate(&tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// Validate checks the structural rules every template must satisfy.
func Validate(t *Template) error {
	if strings.TrimSpace(t.ProviderName) == "" {
		return fmt.Errorf("%w: provider_name is required", ErrMalformedTemplate)
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("%w: fields must be a non-empty list", ErrMalformedTemplate)
	}

	seen := make(map[string]bool, len(t.Fields))
	for i, f := range t.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("%w: field %d has no name", ErrMalformedTemplate, i)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrMalformedTemplate, f.Name)
		}
		seen[f.Name] = true

		switch f.Kind {
		case KindText, KindDate, KindNumeric:
		default:
			return fmt.Errorf("%w: field %q has unknown kind %q", ErrMalformedTemplate, f.Name, f.Kind)
		}
		if len(f.BBox) != 4 {
			return fmt.Errorf("%w: field %q needs a 4-element bbox", ErrMalformedTemplate, f.Name)
		}
		if f.BBox[0] > f.BBox[2] || f.BBox[1] > f.BBox[3] {
			return fmt.Errorf("%w: field %q has an inverted bounding box", ErrMalformedTemplate, f.Name)
		}
	}
	return nil
}
