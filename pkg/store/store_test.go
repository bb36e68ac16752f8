package store

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emptyOID = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

func putObject(t *testing.T, root string, data []byte) string {
	t.Helper()
	sum := sha256.Sum256(data)
	oid := hex.EncodeToString(sum[:])
	path := filepath.Join(root, oid[0:2], oid[2:4], oid)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return oid
}

func TestPath(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root)
	require.NoError(t, err)

	tests := []struct {
		oid  string
		want string
	}{
		{emptyOID, filepath.Join(root, "e3", "b0", emptyOID)},
		{
			"4d7a214614ab2935c943f9e0ff69d22eadbb8f32b1258daaa5e2ca24d17e2393",
			filepath.Join(root, "4d", "7a", "4d7a214614ab2935c943f9e0ff69d22eadbb8f32b1258daaa5e2ca24d17e2393"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.oid[:8], func(t *testing.T) {
			assert.Equal(t, tt.want, s.Path(tt.oid))
		})
	}
}

func TestLocate(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root)
	require.NoError(t, err)

	data := []byte("Hello, LFS Content Store!")
	oid := putObject(t, root, data)

	loc, err := s.Locate(oid)
	require.NoError(t, err)
	assert.True(t, loc.Exists)
	assert.Equal(t, uint64(len(data)), loc.Size)
	assert.Equal(t, filepath.Join(root, oid[0:2], oid[2:4], oid), loc.Path)

	rc, err := s.Open(oid)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestLocateMissing(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root)
	require.NoError(t, err)

	loc, err := s.Locate(emptyOID)
	require.NoError(t, err)
	assert.False(t, loc.Exists)
	assert.Equal(t, filepath.Join(root, "e3", "b0", emptyOID), loc.Path)
}

func TestLocateNotRegular(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root)
	require.NoError(t, err)

	// a directory where the object should be
	require.NoError(t, os.MkdirAll(s.Path(emptyOID), 0755))
	loc, err := s.Locate(emptyOID)
	require.NoError(t, err)
	assert.False(t, loc.Exists)
}

func TestLocateShardIsFile(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocal(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "e3"), []byte("x"), 0644))
	loc, err := s.Locate(emptyOID)
	require.NoError(t, err)
	assert.False(t, loc.Exists)
}

func TestLocateInvalidOID(t *testing.T) {
	s, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = s.Locate("abc")
	assert.Error(t, err)
	_, err = s.Open("../../etc/passwd")
	assert.Error(t, err)
}

func TestNewLocal(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLocal(filepath.Join(dir, "missing"))
	assert.Error(t, err)

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = NewLocal(file)
	assert.Error(t, err)

	s, err := NewLocal(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, s.Root())
}
