package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuya-takeyama/checklfs/pkg/pointer"
	"github.com/yuya-takeyama/checklfs/pkg/verify"
)

func TestAggregator(t *testing.T) {
	a := NewAggregator()
	require.NoError(t, a.Add("b.bin", verify.OK("b")))
	require.NoError(t, a.Add("a.bin", verify.SizeMismatch("a", 10, 9)))
	require.NoError(t, a.Add("c.bin", verify.NotTracked()))
	require.NoError(t, a.Add("d.bin", verify.MalformedPointer(&pointer.MalformedError{Reason: pointer.ReasonMissingSize})))

	r := a.Finish()

	var paths []string
	for _, e := range r.Entries {
		paths = append(paths, e.Path)
	}
	assert.Equal(t, []string{"a.bin", "b.bin", "c.bin", "d.bin"}, paths)
	assert.Equal(t, Summary{OK: 1, SizeMismatch: 1, NotTracked: 1, MalformedPointer: 1}, r.Summary)
	assert.False(t, r.Passed)
	assert.Equal(t, 2, r.Summary.Failed())

	failures := r.Failures()
	require.Len(t, failures, 2)
	assert.Equal(t, "a.bin", failures[0].Path)
	assert.Equal(t, "d.bin", failures[1].Path)

	assert.ErrorIs(t, a.Add("e.bin", verify.OK("e")), ErrFinished)
	assert.Len(t, r.Entries, 4)
}

func TestPassed(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []verify.Outcome
		want     bool
	}{
		{"empty", nil, true},
		{"ok and not tracked", []verify.Outcome{verify.OK("a"), verify.NotTracked()}, true},
		{"hash mismatch", []verify.Outcome{verify.OK("a"), verify.HashMismatch("a", "b")}, false},
		{"missing", []verify.Outcome{verify.ObjectMissing("a")}, false},
		{"error", []verify.Outcome{verify.Error(errors.New("boom"))}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAggregator()
			for i, o := range tt.outcomes {
				require.NoError(t, a.Add(fmt.Sprintf("f%d", i), o))
			}
			assert.Equal(t, tt.want, a.Finish().Passed)
		})
	}
}

func TestAggregatorConcurrentAdd(t *testing.T) {
	a := NewAggregator()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = a.Add(fmt.Sprintf("f%03d", i), verify.OK("x"))
		}(i)
	}
	wg.Wait()

	r := a.Finish()
	assert.Equal(t, 100, r.Summary.OK)
	assert.Equal(t, "f000", r.Entries[0].Path)
	assert.Equal(t, "f099", r.Entries[99].Path)
}

func TestSummaryCount(t *testing.T) {
	s := Summary{OK: 1, SizeMismatch: 2, HashMismatch: 3, ObjectMissing: 4, MalformedPointer: 5, NotTracked: 6, Errors: 7}
	for i, k := range verify.Kinds {
		assert.Equal(t, i+1, s.Count(k), string(k))
	}
}

func TestWriteJSON(t *testing.T) {
	a := NewAggregator()
	require.NoError(t, a.Add("model.bin", verify.SizeMismatch("abc", 10, 9)))
	r := a.Finish()

	var buf bytes.Buffer
	require.NoError(t, r.WriteJSON(&buf))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, false, decoded["passed"])

	entries := decoded["entries"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "model.bin", entry["path"])
	outcome := entry["outcome"].(map[string]any)
	assert.Equal(t, "size-mismatch", outcome["kind"])
	assert.Equal(t, float64(10), outcome["declared_size"])
	assert.Equal(t, float64(9), outcome["actual_size"])

	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, r.WriteJSONFile(path))
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, buf.String(), string(written))
}
