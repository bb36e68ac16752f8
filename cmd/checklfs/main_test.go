package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/checklfs/internal/treecheck"
	"github.com/yuya-takeyama/checklfs/pkg/report"
)

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Flags().IntVar(&concurrency, "concurrency", 8, "")
	return cmd
}

func TestLoadSettings(t *testing.T) {
	t.Cleanup(func() {
		excludes, storeRoot, noAttributes, includeNotTracked = nil, "", false, false
	})

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".checklfs.yaml"), []byte(`
exclude: ["vendor/**"]
concurrency: 3
store: mirror
`), 0644))

	cmd := newTestCommand()
	excludes = []string{"tmp/**"}
	s, err := loadSettings(cmd, root)
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**", "tmp/**"}, s.excludes)
	assert.Equal(t, 3, s.concurrency)
	assert.Equal(t, filepath.Join(root, "mirror"), s.storeRoot)
	assert.True(t, s.useAttributes)
	assert.False(t, s.includeNotTracked)

	cmd = newTestCommand()
	require.NoError(t, cmd.Flags().Set("concurrency", "16"))
	storeRoot = "/elsewhere"
	noAttributes = true
	includeNotTracked = true
	s, err = loadSettings(cmd, root)
	require.NoError(t, err)
	assert.Equal(t, 16, s.concurrency)
	assert.Equal(t, "/elsewhere", s.storeRoot)
	assert.False(t, s.useAttributes)
	assert.True(t, s.includeNotTracked)
}

func TestTargetPath(t *testing.T) {
	assert.Equal(t, ".", targetPath(nil))
	assert.Equal(t, "repo", targetPath([]string{"repo"}))
}

func TestWriteTreeResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	rep := report.NewAggregator().Finish()

	require.NoError(t, writeTreeResult(path, TreeResult{Report: rep}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got struct {
		Findings []treecheck.Finding `json:"findings"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.NotNil(t, got.Findings)
	assert.Empty(t, got.Findings)
}
