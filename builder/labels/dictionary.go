// Package labels loads the label dictionary that maps human label names to
// upstream identifiers.
package labels

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/Kush-Singh-26/imgcorpus/builder/corpus"
	"github.com/Kush-Singh-26/imgcorpus/builder/models"
)

// fold returns the case-insensitive lookup key of a name. Casers carry
// state, so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(s)
}

// File is the on-disk dictionary format:
//
//	labels:
//	  dog: [n02084071]
//	  cat: [n02121808, n02121620]
type File struct {
	Labels map[string][]string `yaml:"labels"`
}

// Dictionary resolves labels to identifiers. Lookups ignore case.
type Dictionary struct {
	names []models.Label
	ids   map[string][]string
}

// Load reads a dictionary file from disk
func Load(path string) (*Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label file: %w", err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// Parse decodes a dictionary from YAML
func Parse(data []byte) (*Dictionary, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse label file: %w", err)
	}
	return New(f.Labels)
}

// New builds a dictionary from a name -> identifiers map. Names that fold to
// the same key are rejected.
func New(entries map[string][]string) (*Dictionary, error) {
	d := &Dictionary{ids: make(map[string][]string, len(entries))}
	for name, ids := range entries {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty label name")
		}
		key := fold(name)
		if _, dup := d.ids[key]; dup {
			return nil, fmt.Errorf("duplicate label %q", name)
		}

		clean := make([]string, 0, len(ids))
		for _, id := range ids {
			if id = strings.TrimSpace(id); id != "" {
				clean = append(clean, id)
			}
		}
		d.ids[key] = clean
		d.names = append(d.names, models.Label(name))
	}
	models.SortLabels(d.names)
	return d, nil
}

// Resolve returns the identifiers of label, or corpus.ErrUnknownLabel
func (d *Dictionary) Resolve(label models.Label) ([]string, error) {
	ids, ok := d.ids[fold(string(label))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", corpus.ErrUnknownLabel, label)
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out, nil
}

// Names returns every label of the dictionary in canonical order
func (d *Dictionary) Names() []models.Label {
	out := make([]models.Label, len(d.names))
	copy(out, d.names)
	return out
}

// Len returns the number of labels
func (d *Dictionary) Len() int {
	return len(d.names)
}

// Select returns the labels named in filter, in the order given. An empty
// filter selects everything. Unknown names are an error.
func (d *Dictionary) Select(filter []string) ([]models.Label, error) {
	if len(filter) == 0 {
		return d.Names(), nil
	}
	byKey := make(map[string]models.Label, len(d.names))
	for _, n := range d.names {
		byKey[fold(string(n))] = n
	}
	out := make([]models.Label, 0, len(filter))
	for _, name := range filter {
		n, ok := byKey[fold(strings.TrimSpace(name))]
		if !ok {
			return nil, fmt.Errorf("%w: %q", corpus.ErrUnknownLabel, name)
		}
		out = append(out, n)
	}
	return out, nil
}

// DisplayName formats a label for terminal output
func DisplayName(label models.Label) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(label), "_", " "))
}
