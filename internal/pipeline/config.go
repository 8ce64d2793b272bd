package pipeline

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"page-scanner/internal/edge"
	"page-scanner/internal/page"
)

// Config carries every stage threshold explicitly; stages receive their
// section at construction time rather than reading shared state.
type Config struct {
	Edge     edge.Config         `yaml:"edge"`
	Selector page.SelectorConfig `yaml:"selector"`

	// OutputWidth/OutputHeight fix the rectified image size. Zero means the
	// size is derived from the detected quadrilateral's edge lengths.
	OutputWidth  int `yaml:"outputWidth"`
	OutputHeight int `yaml:"outputHeight"`
}

// DefaultConfig returns the standard pipeline thresholds.
func DefaultConfig() Config {
	return Config{
		Edge:     edge.DefaultConfig(),
		Selector: page.DefaultSelectorConfig(),
	}
}

// LoadConfig reads a YAML file over the defaults, so a partial file only
// overrides the values it names.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
