package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
	assert.True(t, cfg.UseAttributes())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
exclude:
  - vendor/**
  - "**/*.tmp"
concurrency: 4
attributes: false
store: lfs-mirror/objects
include_not_tracked: true
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**", "**/*.tmp"}, cfg.Exclude)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.False(t, cfg.UseAttributes())
	assert.Equal(t, filepath.Join(dir, "lfs-mirror", "objects"), cfg.Store)
	assert.True(t, cfg.IncludeNotTracked)
}

func TestLoadAbsoluteStore(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(t.TempDir(), "objects")
	writeConfig(t, dir, "store: "+store+"\n")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, store, cfg.Store)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"invalid yaml", "{{{invalid yaml", "parsing .checklfs.yaml"},
		{"negative concurrency", "concurrency: -1", "concurrency must not be negative"},
		{"bad exclude", "exclude: ['[abc']", "invalid exclude pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)

			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
