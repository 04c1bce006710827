package patch

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// LoadYAML decodes a patch from YAML. Used by tooling; the core
// compiler consumes in-memory patches and has no persistence format.
func LoadYAML(data []byte) (*Patch, error) {
	var p Patch
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("patch yaml: %w", err)
	}
	if p.ID == "" {
		p.ID = "unnamed"
	}
	return &p, nil
}

// EncodeYAML encodes a patch to YAML.
func (p *Patch) EncodeYAML() ([]byte, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("patch yaml: %w", err)
	}
	return data, nil
}
