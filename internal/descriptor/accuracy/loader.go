package accuracy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read accuracy descriptor: %w", err)
	}
	return Parse(data)
}

// Parse decodes a benchmark descriptor. It reports syntax and type errors only;
// structural checks live in Validate.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse accuracy descriptor YAML: %w", err)
	}
	return &c, nil
}
