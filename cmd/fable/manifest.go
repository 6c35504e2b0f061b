package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest describes one script run: which file, what seed, how many ticks,
// which native groups to enable, and the transpile target if any.
type Manifest struct {
	Script  string   `yaml:"script"`
	Seed    int64    `yaml:"seed"`
	Ticks   int      `yaml:"ticks"`
	Target  string   `yaml:"target"`
	Natives []string `yaml:"natives"`
}

func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Script == "" {
		return nil, fmt.Errorf("manifest %s names no script", path)
	}
	return &m, nil
}

func (m *Manifest) nativeEnabled(group string) bool {
	for _, g := range m.Natives {
		if g == group {
			return true
		}
	}
	return false
}
