package project

import (
	"path/filepath"

	"github.com/piwi3910/slabcam/internal/model"
)

// DefaultConfigPath returns the default path for the application config file.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// SaveAppConfig persists an AppConfig to the given path as JSON.
func SaveAppConfig(path string, config model.AppConfig) error {
	return saveJSON(path, config)
}

// LoadAppConfig reads an AppConfig from the given path.
// If the file does not exist, it returns DefaultAppConfig with no error.
// Fields missing from the file keep their default values.
func LoadAppConfig(path string) (model.AppConfig, error) {
	config := model.DefaultAppConfig()
	if _, err := loadJSON(path, &config); err != nil {
		return model.AppConfig{}, err
	}
	if config.RecentFiles == nil {
		config.RecentFiles = []string{}
	}
	return config, nil
}

// AddRecentFile moves path to the front of the recent files list, keeping
// at most limit entries.
func AddRecentFile(config *model.AppConfig, path string, limit int) {
	recent := []string{path}
	for _, p := range config.RecentFiles {
		if p != path && len(recent) < limit {
			recent = append(recent, p)
		}
	}
	config.RecentFiles = recent
}
