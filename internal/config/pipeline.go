package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Pipeline is the optional yaml-configured part of the pipeline: which
// extracted fields become sheet columns, how canonical key fields map onto the
// processor's field names, and the hook commands that run around each stage.
type Pipeline struct {
	// UploadFields is the ordered list of extracted-field columns written to
	// the sheet. Empty means "derive columns from the analyses".
	UploadFields []string `yaml:"upload_fields"`

	// KeyFields maps a canonical field name to keywords matched against the
	// processor's extracted field names.
	KeyFields map[string][]string `yaml:"key_fields"`

	// Hooks holds per-stage shell commands.
	Hooks map[string]StageHooks `yaml:"hooks"`
}

// StageHooks are the commands run before and after one stage.
type StageHooks struct {
	Pre  []string `yaml:"pre"`
	Post []string `yaml:"post"`
}

// LoadPipeline reads the pipeline file. A missing file is not an error: the
// pipeline surface is entirely optional and every field has a working default.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Pipeline{}, nil
		}
		return nil, fmt.Errorf("failed to read pipeline file %s: %w", path, err)
	}

	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline file %s: %w", path, err)
	}
	return &p, nil
}

// StageHooks returns the hooks configured for a stage, if any.
func (p *Pipeline) StageHooks(stage string) StageHooks {
	if p == nil || p.Hooks == nil {
		return StageHooks{}
	}
	return p.Hooks[stage]
}
