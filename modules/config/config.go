package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FromYamlFile decodes the YAML file at path into out. Unknown fields are
// rejected so config typos fail at startup instead of being ignored.
func FromYamlFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}
