package schema

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"
)

type document struct {
	Tables []Table `yaml:"tables"`
}

// Parse builds a schema from a YAML document.
func Parse(data []byte) (*Schema, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrFailedToParse, err)
	}
	return New(doc.Tables...)
}

// Load reads a YAML schema file from fsys.
func Load(fsys fs.FS, path string) (*Schema, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrFailedToReadInput, path, err)
	}
	return Parse(data)
}
