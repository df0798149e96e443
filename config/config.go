package config

import (
	"fmt"
	"path/filepath"
)

// DefaultConfigName is the defaults file expected under the config directory.
const DefaultConfigName = "pipeline.defaults.yml"

// Load loads the pipeline configuration from a directory, resolving the
// defaults file relative to it.
func Load(configDir string) (*PipelineConfig, error) {
	absDir, err := filepath.Abs(configDir)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of config directory: %w", err)
	}
	return LoadPipelineConfig(filepath.Join(absDir, DefaultConfigName))
}
