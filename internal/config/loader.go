package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultPipelineFile is the default pipeline file name.
const DefaultPipelineFile = ".gramflow.yaml"

// ErrPipelineNotFound is returned when the pipeline file does not exist.
var ErrPipelineNotFound = errors.New("pipeline file not found")

// LoadPipelineFile loads the taxonomy and proxy list from a YAML file.
// If the file does not exist, it returns ErrPipelineNotFound. Callers
// should handle this based on whether the path was explicitly specified
// by the user; when no file is found at the default locations, the
// built-in DefaultPipeline applies.
func LoadPipelineFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrPipelineNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// FindPipelineFile searches for the pipeline file in the following order:
// 1. If path is specified, use it directly
// 2. Look for .gramflow.yaml in the current directory
// 3. Look for .gramflow.yaml in the user's home directory
//
// Returns the path to the pipeline file if found, or empty string if not.
func FindPipelineFile(path string) string {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdFile := filepath.Join(cwd, DefaultPipelineFile)
		if _, err := os.Stat(cwdFile); err == nil {
			return cwdFile
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeFile := filepath.Join(home, DefaultPipelineFile)
		if _, err := os.Stat(homeFile); err == nil {
			return homeFile
		}
	}

	return ""
}
