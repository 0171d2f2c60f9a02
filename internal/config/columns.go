package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"planner/internal/planner"
)

type columnsFile struct {
	Columns planner.Columns `yaml:"columns"`
}

// LoadColumns reads the column enumeration from a YAML file.
// An empty path or a missing file gives the default columns.
func LoadColumns(path string) (planner.Columns, error) {
	if path == "" {
		return planner.DefaultColumns(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return planner.DefaultColumns(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read columns file: %w", err)
	}

	var f columnsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse columns file: %w", err)
	}
	if err := f.Columns.Validate(); err != nil {
		return nil, err
	}
	return f.Columns, nil
}
