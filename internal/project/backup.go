package project

import (
	"fmt"
	"time"

	"github.com/piwi3910/slabcam/internal/model"
)

const backupVersion = "1.0.0"

// BackupData is the top-level structure for import/export of all application data.
type BackupData struct {
	Version   string               `json:"version"`
	CreatedAt string               `json:"created_at"`
	Config    model.AppConfig      `json:"config"`
	Presets   []model.Preset       `json:"presets"`
	Posts     []model.PostTemplate `json:"posts"`
}

// ExportAllData writes the config, custom presets and custom posts to a
// single JSON file.
func ExportAllData(exportPath string, config model.AppConfig, presets []model.Preset, posts []model.PostTemplate) error {
	backup := BackupData{
		Version:   backupVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Config:    config,
		Presets:   presets,
		Posts:     posts,
	}
	if err := saveJSON(exportPath, backup); err != nil {
		return fmt.Errorf("failed to write backup file: %w", err)
	}
	return nil
}

// ImportAllData reads a backup JSON file and returns the contained data.
// The caller is responsible for applying and saving it.
func ImportAllData(importPath string) (BackupData, error) {
	var backup BackupData
	found, err := loadJSON(importPath, &backup)
	if err != nil {
		return BackupData{}, fmt.Errorf("failed to read backup file: %w", err)
	}
	if !found {
		return BackupData{}, fmt.Errorf("backup file %s not found", importPath)
	}
	if backup.Version == "" {
		return BackupData{}, fmt.Errorf("invalid backup file: missing version field")
	}
	if backup.Config.RecentFiles == nil {
		backup.Config.RecentFiles = []string{}
	}
	if backup.Presets == nil {
		backup.Presets = []model.Preset{}
	}
	if backup.Posts == nil {
		backup.Posts = []model.PostTemplate{}
	}
	return backup, nil
}
