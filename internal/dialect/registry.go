package dialect

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// DefaultName is the dialect used when none is requested.
const DefaultName = "default"

// ErrUnknown is returned by Registry.Get for a name that is not registered.
var ErrUnknown = errors.New("unknown dialect")

// File is the on-disk layout of a dialect file.
type File struct {
	Dialects []Dialect `yaml:"dialects" json:"dialects"`
}

// Builtins returns the dialects every Registry starts with.
func Builtins() []Dialect {
	return []Dialect{
		{
			Name:        DefaultName,
			Description: "comma separated, double-quote qualifier, doubled escaping",
		},
		{
			Name:        "excel",
			Description: "comma separated, CRLF line endings, spaces kept",
			Trim:        Bool(false),
			SkipEmpty:   Bool(false),
			CRLF:        Bool(true),
		},
		{
			Name:        "tsv",
			Description: "tab separated, no quoting",
			Delimiter:   "tab",
			Qualifier:   Bool(false),
			Trim:        Bool(false),
		},
		{
			Name:        "unix",
			Description: "comma separated, backslash escaping, '#' comments",
			Escape:      "backslash",
			Comments:    Bool(true),
		},
		{
			Name:        "pipe",
			Description: "pipe separated, double-quote qualifier",
			Delimiter:   "pipe",
		},
	}
}

// Registry resolves dialects by name.
type Registry struct {
	dialects map[string]Dialect
}

// NewRegistry returns a Registry holding the built-in dialects.
func NewRegistry() *Registry {
	r := &Registry{dialects: make(map[string]Dialect)}
	for _, d := range Builtins() {
		r.dialects[d.Name] = d
	}
	return r
}

// Add registers d, replacing a dialect of the same name. d must convert to a valid Config.
func (r *Registry) Add(d Dialect) error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("dialect name cannot be empty")
	}
	if _, err := d.Config(); err != nil {
		return err
	}
	r.dialects[d.Name] = d
	return nil
}

// Get returns the dialect called name. An empty name selects DefaultName.
func (r *Registry) Get(name string) (Dialect, error) {
	if name == "" {
		name = DefaultName
	}
	d, ok := r.dialects[name]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return d, nil
}

// Names returns the registered dialect names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.dialects))
	for name := range r.dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LoadFile registers every dialect in the file at path. Files ending in .yaml or .yml are read
// as YAML; .json and .jsonc files may carry comments and trailing commas.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading dialect file: %w", err)
	}
	file, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	for _, d := range file.Dialects {
		if err := r.Add(d); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// Parse decodes a dialect file. ext selects the format and defaults to YAML.
func Parse(data []byte, ext string) (File, error) {
	var file File
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
			return File{}, err
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return File{}, err
		}
	}
	return file, nil
}
