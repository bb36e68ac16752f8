// Package report accumulates per-path verification outcomes.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/yuya-takeyama/checklfs/pkg/verify"
)

// ErrFinished is returned by Add after Finish.
var ErrFinished = errors.New("report already finished")

// Entry is the outcome for one path.
type Entry struct {
	Path    string         `json:"path"`
	Outcome verify.Outcome `json:"outcome"`
}

// Summary counts entries per outcome kind.
type Summary struct {
	OK               int `json:"ok"`
	SizeMismatch     int `json:"size_mismatch"`
	HashMismatch     int `json:"hash_mismatch"`
	ObjectMissing    int `json:"object_missing"`
	MalformedPointer int `json:"malformed_pointer"`
	NotTracked       int `json:"not_tracked"`
	Errors           int `json:"errors"`
}

// Count returns the number of entries of kind k.
func (s Summary) Count(k verify.Kind) int {
	switch k {
	case verify.KindOK:
		return s.OK
	case verify.KindSizeMismatch:
		return s.SizeMismatch
	case verify.KindHashMismatch:
		return s.HashMismatch
	case verify.KindObjectMissing:
		return s.ObjectMissing
	case verify.KindMalformedPointer:
		return s.MalformedPointer
	case verify.KindNotTracked:
		return s.NotTracked
	case verify.KindError:
		return s.Errors
	default:
		return 0
	}
}

// Failed returns the number of entries that fail the scan.
func (s Summary) Failed() int {
	return s.SizeMismatch + s.HashMismatch + s.ObjectMissing + s.MalformedPointer + s.Errors
}

func (s *Summary) add(k verify.Kind) {
	switch k {
	case verify.KindOK:
		s.OK++
	case verify.KindSizeMismatch:
		s.SizeMismatch++
	case verify.KindHashMismatch:
		s.HashMismatch++
	case verify.KindObjectMissing:
		s.ObjectMissing++
	case verify.KindMalformedPointer:
		s.MalformedPointer++
	case verify.KindNotTracked:
		s.NotTracked++
	case verify.KindError:
		s.Errors++
	}
}

// Report is the read-only result of a scan, sorted by path.
type Report struct {
	Entries []Entry `json:"entries"`
	Summary Summary `json:"summary"`
	Passed  bool    `json:"passed"`
}

// Failures returns the entries that fail the scan, in report order.
func (r *Report) Failures() []Entry {
	var failures []Entry
	for _, e := range r.Entries {
		if e.Outcome.Failed() {
			failures = append(failures, e)
		}
	}
	return failures
}

// WriteJSON writes the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// WriteJSONFile writes the report to path.
func (r *Report) WriteJSONFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := r.WriteJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Aggregator collects entries during a scan. It is safe for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	entries  []Entry
	finished bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add records the outcome for path.
func (a *Aggregator) Add(path string, outcome verify.Outcome) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finished {
		return ErrFinished
	}
	a.entries = append(a.entries, Entry{Path: path, Outcome: outcome})
	return nil
}

// Len returns the number of entries recorded so far.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// Finish freezes the aggregator and returns the report.
func (a *Aggregator) Finish() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.finished = true

	entries := make([]Entry, len(a.entries))
	copy(entries, a.entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Path < entries[j].Path
	})

	r := &Report{Entries: entries}
	for _, e := range entries {
		r.Summary.add(e.Outcome.Kind)
	}
	r.Passed = r.Summary.Failed() == 0
	return r
}
