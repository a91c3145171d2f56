package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/piwi3910/slabcam/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndLoadPresets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")

	custom := model.DefaultPreset()
	custom.Name = "Oak 25mm"
	custom.Cut.Depth = -25.5
	custom.Cut.Entries = 6

	require.NoError(t, SavePresets(path, []model.Preset{custom}))

	loaded, err := LoadPresets(path)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, custom, loaded[0])
}

func TestLoadPresetsMissingFile(t *testing.T) {
	loaded, err := LoadPresets(filepath.Join(t.TempDir(), "presets.json"))
	require.NoError(t, err)
	assert.NotNil(t, loaded)
	assert.Empty(t, loaded)
}

func TestLoadPresetsRejectsUnnamed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"description": "anonymous"}]`), 0644))

	_, err := LoadPresets(path)
	assert.Error(t, err)
}

func TestResolvePreset(t *testing.T) {
	custom := model.DefaultPreset()
	custom.Name = "MDF 9mm"
	custom.Description = "shop override"

	p, err := ResolvePreset("", nil)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultPreset().Name, p.Name)

	p, err = ResolvePreset("MDF 9mm", []model.Preset{custom})
	require.NoError(t, err)
	assert.Equal(t, "shop override", p.Description, "custom presets shadow built-ins")

	p, err = ResolvePreset("Acrylic 3mm", nil)
	require.NoError(t, err)
	assert.InDelta(t, 3, p.General.CutDiam, 1e-9)

	_, err = ResolvePreset("Balsa", nil)
	assert.EqualError(t, err, `unknown preset "Balsa"`)
}

func TestResolvePost(t *testing.T) {
	p, err := ResolvePost("", nil)
	require.NoError(t, err)
	assert.Equal(t, "Default", p.Name)

	p, err = ResolvePost("Grbl", nil)
	require.NoError(t, err)
	assert.Equal(t, "M3 S", p.Spindle)

	_, err = ResolvePost("Fanuc", nil)
	assert.EqualError(t, err, `unknown post "Fanuc"`)
}
