package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAML renders the effective configuration in config.yaml form. Fields
// tagged yaml:"-" (secrets and derived values) are left out.
func (c *Config) YAML() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
