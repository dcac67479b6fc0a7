package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MrWong99/enunciate/pkg/types"
)

//go:embed default.yaml
var defaultCatalog []byte

// File is the top-level structure of a catalog YAML file.
//
// Example:
//
//	catalog:
//	  name: "English basics"
//	  language: en
//	items:
//	  - id: 1
//	    text: "pronunciation"
//	    kind: word
//	    difficulty: intermediate
//	    phonetic: "/prəˌnʌnsiˈeɪʃən/"
type File struct {
	Catalog Meta                 `yaml:"catalog"`
	Items   []types.PracticeItem `yaml:"items"`
}

// Meta holds descriptive information about a catalog.
type Meta struct {
	Name        string `yaml:"name"`
	Language    string `yaml:"language"`
	Description string `yaml:"description"`
}

// LoadFile reads and parses a catalog YAML file from disk.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}
	defer f.Close()

	cf, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("catalog: parse %q: %w", path, err)
	}
	return cf, nil
}

// LoadFromReader parses catalog YAML from r.
func LoadFromReader(r io.Reader) (*File, error) {
	var cf File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&cf); err != nil {
		return nil, fmt.Errorf("catalog: decode yaml: %w", err)
	}
	return &cf, nil
}

// Default returns the built-in catalog of English words and phrases.
func Default() (*File, error) {
	return LoadFromReader(bytes.NewReader(defaultCatalog))
}

// Import adds every item of cf to store and returns the number imported.
func Import(ctx context.Context, store Store, cf *File) (int, error) {
	if cf == nil {
		return 0, fmt.Errorf("catalog: file must not be nil")
	}
	n, err := store.BulkImport(ctx, cf.Items)
	if err != nil {
		return n, fmt.Errorf("catalog: import %q: %w", cf.Catalog.Name, err)
	}
	return n, nil
}

// Open builds a populated [MemStore] from path, or from the built-in
// catalog when path is empty.
func Open(ctx context.Context, path string) (*MemStore, error) {
	var (
		cf  *File
		err error
	)
	if path == "" {
		cf, err = Default()
	} else {
		cf, err = LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	store := NewMemStore()
	if _, err := Import(ctx, store, cf); err != nil {
		return nil, err
	}
	return store, nil
}
