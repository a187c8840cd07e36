package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, "NTSC", c.Emulation.Region)
	assert.Equal(t, "ebitengine", c.Video.Backend)
	assert.NoError(t, c.validate())
}

func TestLoadFromFileWritesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nescore.json")

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "NTSC", c.Emulation.Region)
	assert.FileExists(t, path)
}

func TestLoadFromFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nescore.json")

	original := New()
	original.Emulation.Region = "PAL"
	original.Video.Scale = 3
	require.NoError(t, original.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PAL", loaded.Emulation.Region)
	assert.Equal(t, 3, loaded.Video.Scale)
}

func TestLoadFromFileRejectsUnknownRegion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nescore.json")

	bad := New()
	bad.Emulation.Region = "Famiclone"
	require.NoError(t, bad.SaveToFile(path))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromFileRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nescore.json")

	bad := New()
	bad.Video.Backend = "sdl2"
	require.NoError(t, bad.SaveToFile(path))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}
