package project

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/piwi3910/slabcam/internal/model"
)

// DefaultPresetsPath returns the default file path for custom presets.
func DefaultPresetsPath() string {
	return filepath.Join(DefaultConfigDir(), "presets.json")
}

// SavePresets writes custom presets to a JSON file.
func SavePresets(path string, presets []model.Preset) error {
	return saveJSON(path, presets)
}

// LoadPresets reads custom presets from a JSON file.
// If the file does not exist, returns an empty slice.
func LoadPresets(path string) ([]model.Preset, error) {
	presets := []model.Preset{}
	if _, err := loadJSON(path, &presets); err != nil {
		return nil, err
	}
	for _, p := range presets {
		if p.Name == "" {
			return nil, errors.New("preset without a name")
		}
	}
	return presets, nil
}

// ResolvePreset finds a preset by name among the custom presets, then the
// built-ins. An empty name selects the default preset.
func ResolvePreset(name string, custom []model.Preset) (model.Preset, error) {
	if name == "" {
		return model.DefaultPreset(), nil
	}
	p, ok := model.FindPreset(name, custom)
	if !ok {
		return model.Preset{}, fmt.Errorf("unknown preset %q", name)
	}
	return p, nil
}

// ResolvePost finds a post template by name among the custom posts, then
// the built-ins. An empty name selects the default post.
func ResolvePost(name string, custom []model.PostTemplate) (model.PostTemplate, error) {
	if name == "" {
		return model.DefaultPost(), nil
	}
	p, ok := model.FindPost(name, custom)
	if !ok {
		return model.PostTemplate{}, fmt.Errorf("unknown post %q", name)
	}
	return p, nil
}
