package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/slabcam/internal/model"
)

func TestExportAndImportAllData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.json")

	cfg := model.DefaultAppConfig()
	cfg.DefaultPost = "LinuxCNC"
	preset := model.DefaultPreset()
	preset.Name = "Custom"
	posts := []model.PostTemplate{{Name: "Shop"}}

	if err := ExportAllData(path, cfg, []model.Preset{preset}, posts); err != nil {
		t.Fatalf("ExportAllData failed: %v", err)
	}

	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}

	if backup.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", backup.Version)
	}
	if backup.CreatedAt == "" {
		t.Error("expected non-empty CreatedAt")
	}
	if backup.Config.DefaultPost != "LinuxCNC" {
		t.Errorf("expected DefaultPost=LinuxCNC, got %s", backup.Config.DefaultPost)
	}
	if len(backup.Presets) != 1 || backup.Presets[0].Name != "Custom" {
		t.Errorf("unexpected presets: %+v", backup.Presets)
	}
	if len(backup.Posts) != 1 || backup.Posts[0].Name != "Shop" {
		t.Errorf("unexpected posts: %+v", backup.Posts)
	}
}

func TestImportAllDataMissingFile(t *testing.T) {
	_, err := ImportAllData(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestImportAllDataInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(path); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestImportAllDataMissingVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noversion.json")
	if err := os.WriteFile(path, []byte(`{"config": {}}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportAllData(path); err == nil {
		t.Fatal("expected error for missing version")
	}
}

func TestImportAllDataFillsNilSlices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.json")
	if err := os.WriteFile(path, []byte(`{"version": "1.0.0", "config": {}}`), 0644); err != nil {
		t.Fatal(err)
	}
	backup, err := ImportAllData(path)
	if err != nil {
		t.Fatalf("ImportAllData failed: %v", err)
	}
	if backup.Config.RecentFiles == nil || backup.Presets == nil || backup.Posts == nil {
		t.Error("expected non-nil slices after import")
	}
}
