package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/vinayprograms/toolrouter/errors"
)

// Format identifies a catalog file encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Definition is the on-disk shape of a catalog file.
type Definition struct {
	Synonyms map[string][]string `toml:"synonyms" yaml:"synonyms"`
	Tools    []ToolRecord        `toml:"tools" yaml:"tools"`
}

//go:embed default_catalog.toml
var defaultCatalog []byte

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", errors.Unsupported(fmt.Sprintf("unsupported catalog format %q", filepath.Ext(path)))
	}
}

// Load reads a catalog file, choosing the decoder by extension.
func Load(path string) (*Catalog, *SynonymTable, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.NotFound(fmt.Sprintf("catalog file %s not found", path), errors.WithCause(err))
		}
		return nil, nil, errors.Wrap(err, "reading catalog file")
	}
	return Parse(data, format)
}

// Parse decodes catalog data in the given format.
func Parse(data []byte, format Format) (*Catalog, *SynonymTable, error) {
	var def Definition
	switch format {
	case FormatTOML:
		md, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&def)
		if err != nil {
			return nil, nil, errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "parsing TOML catalog")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, nil, errors.InvalidInput(fmt.Sprintf("unknown catalog keys: %v", undecoded))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, nil, errors.WrapWithCode(err, errors.ErrCodeInvalidInput, "parsing YAML catalog")
		}
	default:
		return nil, nil, errors.Unsupported(fmt.Sprintf("unsupported catalog format %q", format))
	}

	if len(def.Tools) == 0 {
		return nil, nil, errors.InvalidInput("catalog defines no tools")
	}
	cat, err := New(def.Tools)
	if err != nil {
		return nil, nil, err
	}
	return cat, NewSynonymTable(def.Synonyms), nil
}

// Default returns the built-in catalog and synonym table.
func Default() (*Catalog, *SynonymTable) {
	cat, syn, err := Parse(defaultCatalog, FormatTOML)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return cat, syn
}
