package protocol

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a protocol definition from a YAML file and validates it.
// An empty path yields Default().
func Load(path string) (*Protocol, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("protocol: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Protocol, error) {
	var p Protocol
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("protocol: parse: %w", err)
	}
	if p.TrialsPerCriterion == 0 {
		p.TrialsPerCriterion = 2
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save writes the protocol as YAML, e.g. to bootstrap an editable copy of Default().
func (p *Protocol) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("protocol: marshal: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
