package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"legid-backend/service"

	"gopkg.in/yaml.v3"
)

// LoadPolicy reads a YAML policy file over the defaults. An empty path
// returns the defaults. Unknown keys are rejected so typos do not silently
// fall back to a default.
func LoadPolicy(path string) (service.Policy, error) {
	if path == "" {
		return service.DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return service.Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(data)
}

// ParsePolicy decodes YAML policy bytes over the defaults
func ParsePolicy(data []byte) (service.Policy, error) {
	p := service.DefaultPolicy()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return service.Policy{}, fmt.Errorf("failed to parse policy: %w", err)
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return service.Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return p, nil
}
