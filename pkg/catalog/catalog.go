// Package catalog maps cluster labels to the explanatory text shown with a
// prediction.
package catalog

import (
	_ "embed"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
)

// DefaultResponse is returned for any label without an annotation.
const DefaultResponse = "This cluster hasn't been fully annotated yet. Thank you for contributing to its training."

// CurrentVersion is the catalog file format version.
const CurrentVersion = 0

//go:embed default.toml
var defaultCatalog []byte

// file is the on-disk TOML layout.
type file struct {
	Version   int               `toml:"version"`
	Responses map[string]string `toml:"responses"`
}

// Catalog is an immutable label to response table. It is safe for concurrent use.
type Catalog struct {
	responses map[string]string
}

// New builds a catalog from an in-memory mapping. The mapping is copied.
func New(responses map[string]string) *Catalog {
	return &Catalog{responses: maps.Clone(responses)}
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog TOML file. An empty path returns Default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes catalog TOML.
func Parse(data []byte) (*Catalog, error) {
	f := file{}
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if f.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported catalog version %d (expected %d)", f.Version, CurrentVersion)
	}
	if f.Responses == nil {
		f.Responses = map[string]string{}
	}
	return &Catalog{responses: f.Responses}, nil
}

// Lookup returns the response for label, or DefaultResponse.
func (c *Catalog) Lookup(label string) string {
	if r, ok := c.responses[label]; ok {
		return r
	}
	return DefaultResponse
}

// Has reports whether label carries its own annotation.
func (c *Catalog) Has(label string) bool {
	_, ok := c.responses[label]
	return ok
}

// Labels returns the annotated labels, sorted.
func (c *Catalog) Labels() []string {
	return slices.Sorted(maps.Keys(c.responses))
}
